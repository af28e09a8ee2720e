package physics

import (
	"testing"

	"github.com/lixenwraith/parallax/collision"
	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/vmath"
)

func newTestWorld(t *testing.T, ctx Context) (*World, *event.Bus) {
	t.Helper()
	pool, err := memory.NewPool([]memory.BlockClass{{Size: 512, Count: 16}})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	bus := event.NewBus()
	return NewWorld(pool, 8, ctx, bus, status.NewRegistry()), bus
}

func sleepyContext() Context {
	return Context{TimeScale: vmath.One, SleepThreshold: vmath.FromRatio(1, 4), SleepSteps: 3}
}

func countEvents(bus *event.Bus, t event.EventType) *int {
	n := new(int)
	bus.Subscribe(t, func(event.Event) { *n++ })
	return n
}

func TestBodySleepsAfterIdleSteps(t *testing.T) {
	w, bus := newTestWorld(t, sleepyContext())
	slept := countEvents(bus, event.EventBodySleep)
	b, err := w.CreateBody(1, &Spec{}, vmath.Vec3{})
	if err != nil {
		t.Fatalf("CreateBody failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		w.Update(vmath.One)
		if b.State() != StateAwake {
			t.Fatalf("Step %d: expected awake, got %s", i+1, b.State())
		}
	}
	w.Update(vmath.One)
	if b.State() != StateAsleep {
		t.Errorf("Expected asleep after 3 idle steps, got %s", b.State())
	}
	if *slept != 1 {
		t.Errorf("Expected 1 sleep event, got %d", *slept)
	}
}

func TestMovingBodyStaysAwake(t *testing.T) {
	w, _ := newTestWorld(t, sleepyContext())
	b, _ := w.CreateBody(1, &Spec{}, vmath.Vec3{})
	b.SetVelocity(vmath.V3(3, 0, 0))

	for i := 0; i < 10; i++ {
		w.Update(vmath.One)
	}
	if b.State() != StateAwake {
		t.Errorf("Expected moving body to stay awake, got %s", b.State())
	}
	if b.Position().X != vmath.FromInt(30) {
		t.Errorf("Expected x=30, got %v", b.Position().X.Float())
	}
}

func TestSleepChecksOnlyGravityAxes(t *testing.T) {
	w, _ := newTestWorld(t, sleepyContext())
	b, _ := w.CreateBody(1, &Spec{GravityAxes: vmath.AxisY}, vmath.Vec3{})
	b.SetVelocity(vmath.V3(3, 0, 0))

	for i := 0; i < 2; i++ {
		w.Update(vmath.One)
		if b.State() != StateAwake {
			t.Fatalf("Step %d: expected awake, got %s", i+1, b.State())
		}
	}
	w.Update(vmath.One)
	if b.State() != StateAsleep {
		t.Errorf("Expected asleep with still gravity axis, got %s", b.State())
	}
	if !b.Velocity().IsZero() {
		t.Errorf("Expected velocity cleared on sleep, got %+v", b.Velocity())
	}
}

func TestSleepWaitsForGravityAxis(t *testing.T) {
	w, _ := newTestWorld(t, sleepyContext())
	b, _ := w.CreateBody(1, &Spec{GravityAxes: vmath.AxisY}, vmath.Vec3{})
	b.SetVelocity(vmath.V3(0, 3, 0))

	for i := 0; i < 10; i++ {
		w.Update(vmath.One)
	}
	if b.State() != StateAwake {
		t.Errorf("Expected awake while falling, got %s", b.State())
	}
}

func TestForceWakesAtNextUpdate(t *testing.T) {
	w, bus := newTestWorld(t, sleepyContext())
	woke := countEvents(bus, event.EventBodyAwake)
	b, _ := w.CreateBody(1, &Spec{}, vmath.Vec3{})
	for i := 0; i < 3; i++ {
		w.Update(vmath.One)
	}
	if b.State() != StateAsleep {
		t.Fatalf("Expected asleep, got %s", b.State())
	}

	if !b.ApplyForce(vmath.V3(8, 0, 0)) {
		t.Fatal("Expected asleep body to accept force")
	}
	if b.State() != StateAsleep {
		t.Error("Expected force alone not to change state")
	}

	w.Update(vmath.One)
	if b.State() != StateAwake {
		t.Errorf("Expected awake after update, got %s", b.State())
	}
	if *woke != 1 {
		t.Errorf("Expected 1 awake event, got %d", *woke)
	}
	if b.Position().X != vmath.FromInt(8) {
		t.Errorf("Expected force integrated in the waking step, got x=%v", b.Position().X.Float())
	}
	if !b.ExternalForce().IsZero() {
		t.Error("Expected force cleared after the frame")
	}
}

func TestInactiveBodyRefusesForce(t *testing.T) {
	b := NewBody(1, &Spec{}, vmath.Vec3{})
	if b.State() != StateInactive {
		t.Fatalf("Expected inactive, got %s", b.State())
	}
	if b.ApplyForce(vmath.V3(1, 0, 0)) {
		t.Error("Expected inactive body to refuse force")
	}
	ctx := sleepyContext()
	if r := b.UpdateMovement(&ctx, vmath.One); r != (MovementResult{}) {
		t.Errorf("Expected no movement, got %+v", r)
	}

	b.Activate()
	b.Destroy()
	if b.ApplyForce(vmath.V3(1, 0, 0)) {
		t.Error("Expected disposed body to refuse force")
	}
}

func TestForcesClearedForEveryBody(t *testing.T) {
	w, _ := newTestWorld(t, sleepyContext())
	a, _ := w.CreateBody(1, &Spec{}, vmath.Vec3{})
	b, _ := w.CreateBody(2, &Spec{}, vmath.Vec3{})
	a.ApplyForce(vmath.V3(1, 0, 0))
	b.ApplyForce(vmath.V3(0, 1, 0))
	b.Deactivate()

	w.Update(vmath.One)
	if !a.ExternalForce().IsZero() || !b.ExternalForce().IsZero() {
		t.Error("Expected every accumulator cleared")
	}
}

func TestFrictionClampsToZero(t *testing.T) {
	b := NewBody(1, &Spec{Friction: vmath.FromInt(100)}, vmath.Vec3{})
	b.Activate()
	b.SetVelocity(vmath.V3(1, -1, 0))
	ctx := Context{TimeScale: vmath.One}

	r := b.UpdateMovement(&ctx, vmath.FromRatio(1, 50))
	if !b.Velocity().IsZero() {
		t.Errorf("Expected friction to stop, not reverse, got %+v", b.Velocity())
	}
	if r.AxesStoppedMovement != vmath.AxisX|vmath.AxisY {
		t.Errorf("Expected X and Y stopped, got %b", r.AxesStoppedMovement)
	}
	if !b.Position().IsZero() {
		t.Errorf("Expected no displacement, got %+v", b.Position())
	}
}

func TestSurfaceFrictionAdds(t *testing.T) {
	b := NewBody(1, &Spec{Friction: vmath.FromInt(1)}, vmath.Vec3{})
	b.Activate()
	b.SetSurfaceFriction(vmath.FromInt(2))
	b.SetVelocity(vmath.V3(10, 0, 0))
	ctx := Context{TimeScale: vmath.One}

	b.UpdateMovement(&ctx, vmath.One)
	if b.Velocity().X != vmath.FromInt(7) {
		t.Errorf("Expected 10-(1+2)=7, got %v", b.Velocity().X.Float())
	}
}

func TestMaximumSpeed(t *testing.T) {
	b := NewBody(1, &Spec{MaximumSpeed: vmath.FromInt(5)}, vmath.Vec3{})
	b.Activate()
	b.ApplyForce(vmath.V3(100, 0, 0))
	ctx := Context{TimeScale: vmath.One}

	b.UpdateMovement(&ctx, vmath.One)
	if b.Velocity().X != vmath.FromInt(5) {
		t.Errorf("Expected speed clamped to 5, got %v", b.Velocity().X.Float())
	}
}

func TestGravityAxes(t *testing.T) {
	ctx := Context{TimeScale: vmath.One, Gravity: vmath.V3(0, 10, 0)}
	w, _ := newTestWorld(t, ctx)
	falling, _ := w.CreateBody(1, &Spec{GravityAxes: vmath.AxisY}, vmath.Vec3{})
	floating, _ := w.CreateBody(2, &Spec{GravityAxes: vmath.AxisNone}, vmath.Vec3{})

	w.Update(vmath.One)
	if falling.Velocity().Y != vmath.FromInt(10) {
		t.Errorf("Expected vy=10, got %v", falling.Velocity().Y.Float())
	}
	if !floating.Velocity().IsZero() {
		t.Errorf("Expected no gravity on unmasked body, got %+v", floating.Velocity())
	}
}

func TestApplyGravityWakesFloatingBody(t *testing.T) {
	ctx := sleepyContext()
	ctx.Gravity = vmath.V3(0, 10, 0)
	w, _ := newTestWorld(t, ctx)
	b, _ := w.CreateBody(1, &Spec{Mass: vmath.FromInt(2)}, vmath.Vec3{})
	for i := 0; i < 3; i++ {
		w.Update(vmath.One)
	}
	if b.State() != StateAsleep {
		t.Fatalf("Expected asleep, got %s", b.State())
	}

	if !b.ApplyGravity(w.Context(), vmath.AxisY) {
		t.Fatal("Expected weight to be accepted")
	}
	if got := b.ExternalForce().Y; got != vmath.FromInt(20) {
		t.Errorf("Expected weight 20, got %v", got.Float())
	}
	w.Update(vmath.One)
	if b.State() != StateAwake {
		t.Errorf("Expected awake, got %s", b.State())
	}
	if b.Velocity().Y != vmath.FromInt(10) {
		t.Errorf("Expected vy=10, got %v", b.Velocity().Y.Float())
	}
}

func TestTimeScale(t *testing.T) {
	w, _ := newTestWorld(t, Context{})
	w.SetTimeScale(vmath.Half)
	b, _ := w.CreateBody(1, &Spec{}, vmath.Vec3{})
	b.SetVelocity(vmath.V3(4, 0, 0))

	w.Update(vmath.One)
	if b.Position().X != vmath.FromInt(2) {
		t.Errorf("Expected half-speed step x=2, got %v", b.Position().X.Float())
	}
}

func TestBounce(t *testing.T) {
	floor := vmath.UnitY.Neg()

	elastic := NewBody(1, &Spec{Bounciness: vmath.One}, vmath.Vec3{})
	elastic.Activate()
	elastic.SetVelocity(vmath.V3(0, 10, 0))
	if stopped := elastic.Bounce(floor, vmath.One); stopped != vmath.AxisNone {
		t.Errorf("Expected elastic bounce to keep moving, got %b", stopped)
	}
	if elastic.Velocity() != vmath.V3(0, -10, 0) {
		t.Errorf("Expected reflected velocity, got %+v", elastic.Velocity())
	}

	dead := NewBody(2, &Spec{}, vmath.Vec3{})
	dead.Activate()
	dead.SetVelocity(vmath.V3(3, 10, 0))
	if stopped := dead.Bounce(floor, 0); stopped != vmath.AxisY {
		t.Errorf("Expected Y stopped, got %b", stopped)
	}
	if dead.Velocity() != vmath.V3(3, 0, 0) {
		t.Errorf("Expected tangential velocity kept, got %+v", dead.Velocity())
	}

	// Moving away from the surface is untouched
	away := NewBody(3, &Spec{}, vmath.Vec3{})
	away.Activate()
	away.SetVelocity(vmath.V3(0, -5, 0))
	away.Bounce(floor, 0)
	if away.Velocity() != vmath.V3(0, -5, 0) {
		t.Errorf("Expected separating velocity unchanged, got %+v", away.Velocity())
	}
}

func TestResolveCollision(t *testing.T) {
	b := NewBody(1, &Spec{}, vmath.V3(0, 10, 0))
	b.Activate()
	b.SetVelocity(vmath.V3(0, 4, 0))
	sol := collision.Solution{Direction: vmath.UnitY.Neg(), Depth: vmath.FromInt(2), Translation: vmath.V3(0, -2, 0)}

	stopped := b.ResolveCollision(sol, nil)
	if b.Position() != vmath.V3(0, 8, 0) {
		t.Errorf("Expected separated position (0,8,0), got %+v", b.Position())
	}
	if stopped != vmath.AxisY {
		t.Errorf("Expected Y stopped, got %b", stopped)
	}

	other := NewBody(2, &Spec{Friction: vmath.FromInt(3)}, vmath.Vec3{})
	other.Activate()
	b.ResolveCollision(sol, other)
	if b.Position() != vmath.V3(0, 7, 0) {
		t.Errorf("Expected half translation against awake body, got %+v", b.Position())
	}
	if b.SurfaceFriction() != vmath.FromInt(3) {
		t.Errorf("Expected surface friction from other, got %v", b.SurfaceFriction().Float())
	}
}

func TestResolveCollisionWakesStruckBody(t *testing.T) {
	w, _ := newTestWorld(t, sleepyContext())
	b, _ := w.CreateBody(1, &Spec{}, vmath.Vec3{})
	for i := 0; i < 3; i++ {
		w.Update(vmath.One)
	}
	if b.State() != StateAsleep {
		t.Fatalf("Expected asleep, got %s", b.State())
	}

	hitter := NewBody(2, &Spec{}, vmath.V3(0, -8, 0))
	hitter.Activate()
	hitter.SetVelocity(vmath.V3(0, 50, 0))
	sol := collision.Solution{Direction: vmath.UnitY, Depth: vmath.FromInt(2), Translation: vmath.V3(0, 2, 0)}

	b.ResolveCollision(sol, hitter)
	if b.Position() != vmath.V3(0, 1, 0) {
		t.Errorf("Expected half translation (0,1,0), got %+v", b.Position())
	}
	if b.State() != StateAwake {
		t.Errorf("Expected struck body awake, got %s", b.State())
	}
}

func TestResolveCollisionKeepsSleeperAgainstReceder(t *testing.T) {
	w, _ := newTestWorld(t, sleepyContext())
	b, _ := w.CreateBody(1, &Spec{}, vmath.Vec3{})
	for i := 0; i < 3; i++ {
		w.Update(vmath.One)
	}

	other := NewBody(2, &Spec{}, vmath.V3(0, -8, 0))
	other.Activate()
	other.SetVelocity(vmath.V3(0, -50, 0))
	sol := collision.Solution{Direction: vmath.UnitY, Depth: vmath.FromInt(2), Translation: vmath.V3(0, 2, 0)}

	b.ResolveCollision(sol, other)
	if b.State() != StateAsleep {
		t.Errorf("Expected sleeper to stay asleep when the other body moves away, got %s", b.State())
	}
}

func TestWorldDestroyBody(t *testing.T) {
	w, _ := newTestWorld(t, Context{})
	b, _ := w.CreateBody(1, &Spec{}, vmath.Vec3{})
	w.DestroyBody(b)
	w.DestroyBody(b)
	if w.Count() != 0 {
		t.Errorf("Expected empty world, got %d", w.Count())
	}
}
