// Package monitor serves a pull-only debug endpoint for a running engine
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/lixenwraith/parallax/render"
	"github.com/lixenwraith/parallax/status"
)

const (
	// Namespace prefixes every exported metric name
	Namespace = "parallax"

	shutdownTimeout = 5 * time.Second
)

// Source is the engine surface the monitor reads from
type Source interface {
	Registry() *status.Registry
	WithFrameBuffer(fn func(*render.FrameBuffer))
}

// Options tunes the router
type Options struct {
	// SnapshotsPerSecond bounds /frame.png, each request holds the frame lock while rasterizing
	SnapshotsPerSecond float64
	SnapshotBurst      int
	// Logger enables request logging when non-nil
	Logger *log.Logger
}

// DefaultOptions allows two snapshots per second
func DefaultOptions() Options {
	return Options{SnapshotsPerSecond: 2, SnapshotBurst: 2}
}

// NewRouter builds the handler tree, no listener is started
func NewRouter(src Source, opts Options) *chi.Mux {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(status.NewCollector(src.Registry(), Namespace))

	limiter := rate.NewLimiter(rate.Limit(opts.SnapshotsPerSecond), max(opts.SnapshotBurst, 1))

	r := chi.NewRouter()
	if opts.Logger != nil {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: opts.Logger, NoColor: true}))
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "frame": frame(src)})
	})
	r.Get("/stats", statsHandler(src))
	r.Get("/frame.png", frameHandler(src, limiter))
	r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	return r
}

func statsHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		reg := src.Registry()
		ints := make(map[string]int64)
		floats := make(map[string]float64)
		reg.Ints.Range(func(key string, v *atomic.Int64) {
			ints[key] = v.Load()
		})
		reg.Floats.Range(func(key string, v *status.AtomicFloat) {
			floats[key] = v.Get()
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"frame":  frame(src),
			"ints":   ints,
			"floats": floats,
		})
	}
}

// frame reads the published frame counter, the engine's own field belongs to the frame loop
func frame(src Source) int64 {
	return src.Registry().Int(status.KeyFrames).Load()
}

func frameHandler(src Source, limiter *rate.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "snapshot rate exceeded")
			return
		}
		var img image.Image
		src.WithFrameBuffer(func(fb *render.FrameBuffer) {
			img = render.Snapshot(fb)
		})
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := png.Encode(w, img); err != nil {
			log.Printf("monitor: frame encode: %v", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("monitor: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
