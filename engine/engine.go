// Package engine runs the frame loop: game states, stages, entities and the timer
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lixenwraith/parallax/charset"
	"github.com/lixenwraith/parallax/config"
	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/physics"
	"github.com/lixenwraith/parallax/render"
	"github.com/lixenwraith/parallax/sprite"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/texture"
	"github.com/lixenwraith/parallax/vmath"
	"github.com/lixenwraith/parallax/vram"
)

// debugColor is the wireframe color of collider shapes
const debugColor = 3

// stageOwner is implemented by states that carry a stage
type stageOwner interface {
	Stage() *Stage
}

// Engine owns display memory, the shared managers and the state stack
type Engine struct {
	cfg      config.Config
	logger   *log.Logger
	throttle *status.Throttle
	registry *status.Registry
	bus      *event.Bus
	queue    *event.DelayedQueue
	pool     *memory.Pool

	mem         *vram.Memory
	charsets    *charset.Manager
	textures    *texture.Manager
	sprites     *sprite.Manager
	renderCtx   *render.Context
	frameBuffer *render.FrameBuffer
	states      *StateMachine[*Engine]

	clock      TimeSource
	last       time.Time
	clockMS    int64
	elapsedMS  int
	frame      int64
	violations int

	// Guards the frame buffer against readers outside the frame loop
	mu         sync.Mutex
	presenters []func(*render.FrameBuffer)
}

// New builds an engine; a nil clock uses the system clock and a nil logger the standard one
func New(cfg config.Config, clock TimeSource, logger *log.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := memory.NewPool(cfg.Memory.Pool)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory pool: %w", err)
	}
	if clock == nil {
		clock = SystemTime{}
	}
	if logger == nil {
		logger = log.New(log.Writer(), cfg.Log.Prefix, log.LstdFlags)
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		throttle: status.NewThrottle(cfg.Log.ThrottlePerSecond, cfg.Log.ThrottleBurst, logger),
		registry: status.NewRegistry(),
		bus:      event.NewBus(),
		queue:    event.NewDelayedQueue(),
		pool:     pool,
		mem:      vram.New(),
		clock:    clock,
	}
	e.last = clock.Now()

	g := cfg.Graphics
	e.charsets = charset.NewManager(e.mem, pool, cfg.Memory.CharSets, g.ReservedChars, e.bus, e.registry, e.throttle)
	e.textures = texture.NewManager(e.mem, e.charsets, pool, cfg.Memory.Textures, g.TextureSegments, e.bus, e.registry, e.throttle)

	optics := render.Optics{
		DistanceEyeScreen:         vmath.FromInt(cfg.Optics.DistanceEyeScreen),
		BaseDistance:              vmath.FromInt(cfg.Optics.BaseDistance),
		HorizontalViewPointCenter: vmath.FromInt(vram.ScreenWidth / 2),
		VerticalViewPointCenter:   vmath.FromInt(vram.ScreenHeight / 2),
		MaximumViewDistance:       vmath.FromInt(cfg.Optics.MaximumViewDistance),
	}
	e.renderCtx = render.NewContext(optics, vram.ScreenWidth, vram.ScreenHeight)
	e.frameBuffer = render.NewFrameBuffer(vram.ScreenWidth, vram.ScreenHeight, cfg.Frame.DrawBudget, e.renderCtx)

	e.sprites = sprite.NewManager(sprite.Config{
		Capacity:   cfg.Memory.Sprites,
		Layers:     g.Layers,
		Containers: g.Containers,
		Objects:    g.ObjectsPer,
	}, e.mem, e.textures, e.renderCtx, pool, e.bus, e.registry, e.throttle)

	e.states = NewStateMachine(e, e.bus)
	return e, nil
}

func (e *Engine) physicsContext() physics.Context {
	p := e.cfg.Physics
	return physics.Context{
		Gravity:        vmath.Vec3{Y: vmath.FromFloat(p.Gravity)},
		TimeScale:      vmath.FromFloat(p.TimeScale),
		SleepThreshold: vmath.FromFloat(p.SleepThreshold),
		SleepSteps:     p.SleepSteps,
	}
}

func (e *Engine) Config() config.Config          { return e.cfg }
func (e *Engine) Logger() *log.Logger            { return e.logger }
func (e *Engine) Registry() *status.Registry     { return e.registry }
func (e *Engine) Bus() *event.Bus                { return e.bus }
func (e *Engine) Pool() *memory.Pool             { return e.pool }
func (e *Engine) Memory() *vram.Memory           { return e.mem }
func (e *Engine) CharSets() *charset.Manager     { return e.charsets }
func (e *Engine) Textures() *texture.Manager     { return e.textures }
func (e *Engine) Sprites() *sprite.Manager       { return e.sprites }
func (e *Engine) RenderContext() *render.Context { return e.renderCtx }
func (e *Engine) States() *StateMachine[*Engine] { return e.states }
func (e *Engine) Frame() int64                   { return e.frame }
func (e *Engine) ElapsedMS() int                 { return e.elapsedMS }

// Stage returns the stage of the running state, nil when it has none
func (e *Engine) Stage() *Stage {
	if so, ok := e.states.Current().(stageOwner); ok {
		return so.Stage()
	}
	return nil
}

// AddPresenter registers fn to receive the composed frame buffer at the end of every frame
func (e *Engine) AddPresenter(fn func(*render.FrameBuffer)) {
	e.presenters = append(e.presenters, fn)
}

// WithFrameBuffer runs fn while the frame loop cannot touch the frame buffer
func (e *Engine) WithFrameBuffer(fn func(*render.FrameBuffer)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.frameBuffer)
}

// FireAfter delivers an event once delayMS of engine time has passed
func (e *Engine) FireAfter(t event.EventType, source, payload any, delayMS int) bool {
	ok := e.queue.Push(event.Event{Type: t, Source: source, Payload: payload}, e.clockMS+int64(delayMS))
	if !ok {
		e.throttle.Printf("delayed queue full, dropped %s", t)
	}
	return ok
}

// Tick reads the time source and runs one frame for the time passed since the last tick
func (e *Engine) Tick() {
	now := e.clock.Now()
	elapsed := int(now.Sub(e.last) / time.Millisecond)
	e.last = now
	e.Step(elapsed)
}

// Step runs one frame of elapsedMS, clamped to the configured maximum
// The order is fixed: delayed events, state update (physics, collider transforms,
// collision, resolution, animation), sprite render, bounded tile and map writes,
// the interrupt side object write, composition and debug drawing
func (e *Engine) Step(elapsedMS int) {
	start := time.Now()
	elapsedMS = min(max(elapsedMS, 0), e.cfg.Frame.MaxElapsedMS)

	e.frame++
	e.elapsedMS = elapsedMS
	e.clockMS += int64(elapsedMS)
	e.bus.SetFrame(e.frame)
	e.mem.BeginFrame(e.cfg.Frame.WriteBudget)

	e.queue.Dispatch(e.bus, e.clockMS)
	e.states.Update()

	// Exhaustion is logged by the sprite manager
	_ = e.sprites.Render()
	e.charsets.WriteCharSets(e.cfg.Frame.TilesPerFrame)
	e.textures.WriteTextures(e.cfg.Frame.RowsPerFrame)
	e.interrupt()

	e.mu.Lock()
	e.frameBuffer.Clear()
	render.Compose(e.mem, e.frameBuffer)
	if e.cfg.Frame.Debug {
		if stage := e.Stage(); stage != nil {
			stage.DrawColliders(e.frameBuffer, debugColor)
		}
	}
	for _, present := range e.presenters {
		present(e.frameBuffer)
	}
	e.registry.Int(status.KeyDirectDrawRejected).Store(int64(e.frameBuffer.Rejected()))
	e.mu.Unlock()

	e.checkTiming()
	e.publish(time.Since(start))
}

// interrupt is the timer interrupt half of the frame: object attribute writes that
// skip containers whose sprite list is locked
func (e *Engine) interrupt() {
	if skipped := e.sprites.WriteObjects(); skipped > 0 {
		e.throttle.Printf("frame %d: %d object containers locked, write skipped", e.frame, skipped)
	}
}

// checkTiming reports a frame that wrote more display memory than its budget
func (e *Engine) checkTiming() {
	budget := e.mem.Budget()
	if budget.Violations <= e.violations {
		return
	}
	e.violations = budget.Violations
	err := fmt.Errorf("frame %d: %w: %d of %d bytes", e.frame, vram.ErrWriteBudgetExceeded, budget.Used, budget.Limit)
	e.registry.Int(status.KeyTimingViolations).Add(1)
	e.bus.Fire(event.EventFrameTimingViolation, e, err)
	e.logger.Printf("programming error: %v", err)
}

func (e *Engine) publish(took time.Duration) {
	e.registry.Int(status.KeyFrames).Store(e.frame)
	ms := float64(took) / float64(time.Millisecond)
	e.registry.Float(status.KeyFrameMillis).Set(ms)
	e.registry.Float(status.KeyFrameMillisPeak).StoreMax(ms)
	used := 0
	for _, u := range e.pool.Usage() {
		used += u.Used
	}
	e.registry.Int(status.KeyPoolBlocksUsed).Store(int64(used))
}

// Run ticks at the configured frame rate until ctx is done or maxFrames frames ran
// maxFrames zero runs until cancellation. The loop only stops between frames
func (e *Engine) Run(ctx context.Context, maxFrames int64) error {
	ticker := time.NewTicker(e.cfg.Frame.Interval())
	defer ticker.Stop()
	e.last = e.clock.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Tick()
			if maxFrames > 0 && e.frame >= maxFrames {
				return nil
			}
		}
	}
}

// Shutdown exits every state
func (e *Engine) Shutdown() {
	e.states.Clear()
}
