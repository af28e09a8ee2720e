package status

import (
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Throttle rate limits repeated log lines from the frame loop
type Throttle struct {
	limiter    *rate.Limiter
	logger     *log.Logger
	suppressed atomic.Int64
}

// NewThrottle allows perSecond lines with burst; nil logger uses the standard logger
func NewThrottle(perSecond float64, burst int, logger *log.Logger) *Throttle {
	if logger == nil {
		logger = log.Default()
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger,
	}
}

// Printf logs when the limiter allows, otherwise counts the line as suppressed
// Returns true when the line was written
func (t *Throttle) Printf(format string, args ...any) bool {
	if t == nil {
		return false
	}
	if !t.limiter.Allow() {
		t.suppressed.Add(1)
		return false
	}
	msg := fmt.Sprintf(format, args...)
	if n := t.suppressed.Swap(0); n > 0 {
		msg = fmt.Sprintf("%s (%d similar suppressed)", msg, n)
	}
	t.logger.Print(msg)
	return true
}

// Suppressed returns lines dropped since the last written line
func (t *Throttle) Suppressed() int64 {
	return t.suppressed.Load()
}
