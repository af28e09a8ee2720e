// Package status holds engine counters written from the frame loop and read by exporters
package status

import "sync/atomic"

// Well-known metric keys
const (
	KeyFrames              = "engine.frames"
	KeyFrameMillis         = "engine.frame_ms"
	KeyFrameMillisPeak     = "engine.frame_ms_peak"
	KeyTimingViolations    = "engine.timing_violations"
	KeyEntities            = "engine.entities"
	KeyBodiesAwake         = "physics.bodies_awake"
	KeyBodiesAsleep        = "physics.bodies_asleep"
	KeyBodiesStopped       = "physics.bodies_stopped"
	KeyColliders           = "collision.colliders"
	KeyPairsConsidered     = "collision.pairs_considered"
	KeyPairsLayerRejected  = "collision.pairs_layer_rejected"
	KeyPairsBoundsRejected = "collision.pairs_bounds_rejected"
	KeyNarrowTests         = "collision.narrow_tests"
	KeyCollisions          = "collision.collisions"
	KeyTilesUsed           = "charset.tiles_used"
	KeyTilesWritten        = "charset.tiles_written"
	KeyTextureRowsWritten  = "texture.rows_written"
	KeyTexturesPending     = "texture.pending"
	KeySpritesVisible      = "sprite.visible"
	KeyLayersUsed          = "sprite.layers_used"
	KeyDirectDrawRejected  = "render.pixels_rejected"
	KeyAnimationsPlaying   = "animation.playing"
	KeyExhaustions         = "resource.exhaustions"
	KeyPoolBlocksUsed      = "memory.blocks_used"
)

// Registry is the central metrics facade
// Managers cache pointers during init; frame loops write directly to atomics
type Registry struct {
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[AtomicFloat]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[AtomicFloat](),
	}
}

// Int is shorthand for Ints.Get on a possibly nil registry
// A nil registry hands out a detached counter so callers never branch
func (r *Registry) Int(key string) *atomic.Int64 {
	if r == nil {
		return new(atomic.Int64)
	}
	return r.Ints.Get(key)
}

// Float is shorthand for Floats.Get on a possibly nil registry
func (r *Registry) Float(key string) *AtomicFloat {
	if r == nil {
		return new(AtomicFloat)
	}
	return r.Floats.Get(key)
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Ints.Count() + r.Floats.Count()
}
