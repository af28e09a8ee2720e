package physics

import (
	"github.com/lixenwraith/parallax/vmath"
)

// Context is the world state shared by all bodies during a step
type Context struct {
	Gravity        vmath.Vec3  // Acceleration in units per second squared
	TimeScale      vmath.Fixed // One is real time
	SleepThreshold vmath.Fixed // Per-axis speed below which a body counts as idle
	SleepSteps     int         // Consecutive idle steps before sleeping, zero disables sleep
}

// DefaultContext returns downward gravity with sleep after half a second at 50 Hz
func DefaultContext() Context {
	return Context{
		Gravity:        vmath.Vec3{Y: vmath.FromInt(240)},
		TimeScale:      vmath.One,
		SleepThreshold: vmath.FromRatio(1, 4),
		SleepSteps:     25,
	}
}
