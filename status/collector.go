package status

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a Registry to prometheus as gauges
// Metric set is dynamic, so the collector is unchecked (Describe sends nothing)
type Collector struct {
	reg       *Registry
	namespace string

	mu    sync.Mutex
	descs map[string]*prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector wraps reg; names become namespace_<key with dots as underscores>
func NewCollector(reg *Registry, namespace string) *Collector {
	return &Collector{
		reg:       reg,
		namespace: namespace,
		descs:     make(map[string]*prometheus.Desc),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector
// Called from the scrape goroutine, reads are atomic
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Ints.Range(func(key string, v *atomic.Int64) {
		ch <- prometheus.MustNewConstMetric(c.desc(key), prometheus.GaugeValue, float64(v.Load()))
	})
	c.reg.Floats.Range(func(key string, v *AtomicFloat) {
		ch <- prometheus.MustNewConstMetric(c.desc(key), prometheus.GaugeValue, v.Get())
	})
}

func (c *Collector) desc(key string) *prometheus.Desc {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.descs[key]; ok {
		return d
	}
	name := prometheus.BuildFQName(c.namespace, "", strings.NewReplacer(".", "_", "-", "_").Replace(key))
	d := prometheus.NewDesc(name, "parallax engine metric "+key, nil, nil)
	c.descs[key] = d
	return d
}
