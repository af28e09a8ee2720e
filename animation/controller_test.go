package animation

import (
	"errors"
	"testing"

	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/status"
)

type recorder struct {
	frames []int
}

func (r *recorder) SetFrame(frame int) bool {
	r.frames = append(r.frames, frame)
	return true
}

func testDescription() *Description {
	return &Description{Functions: []*Function{
		{Name: "walk", Frames: []int{4, 5, 6}, FrameDuration: 100, Loop: true},
		{Name: "die", Frames: []int{7, 8, 9}, FrameDuration: 100},
		{Name: "spin", Frames: []int{0, 1}},
	}}
}

func TestPlayWritesFirstFrame(t *testing.T) {
	bus := event.NewBus()
	started := 0
	bus.Subscribe(event.EventAnimationStarted, func(event.Event) { started++ })
	rec := &recorder{}
	c := NewController(1, testDescription(), rec, bus)

	if err := c.Play("walk"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if len(rec.frames) != 1 || rec.frames[0] != 4 {
		t.Errorf("Expected frame 4 written, got %v", rec.frames)
	}
	if started != 1 {
		t.Errorf("Expected started event, got %d", started)
	}
	c.Play("walk")
	if started != 1 || len(rec.frames) != 1 {
		t.Error("Expected replaying the current function to be a no-op")
	}
	if err := c.Play("fly"); !errors.Is(err, ErrUnknownFunction) {
		t.Errorf("Expected ErrUnknownFunction, got %v", err)
	}
}

func TestUpdateAdvancesByDuration(t *testing.T) {
	rec := &recorder{}
	c := NewController(1, testDescription(), rec, event.NewBus())
	c.Play("walk")

	if c.Update(50) {
		t.Error("Expected no change before the frame duration")
	}
	if !c.Update(50) || c.ActualFrame() != 5 {
		t.Errorf("Expected frame 5 after 100ms, got %d", c.ActualFrame())
	}
	// 250ms is two steps with 50ms carried
	c.Update(250)
	if c.ActualFrame() != 4 {
		t.Errorf("Expected looped to frame 4, got %d", c.ActualFrame())
	}
	c.Update(50)
	if c.ActualFrame() != 5 {
		t.Errorf("Expected carried time to advance, got %d", c.ActualFrame())
	}
}

func TestNonLoopingCompletes(t *testing.T) {
	bus := event.NewBus()
	completed := 0
	bus.Subscribe(event.EventAnimationCompleted, func(event.Event) { completed++ })
	c := NewController(1, testDescription(), nil, bus)
	c.Play("die")

	c.Update(200)
	if c.ActualFrame() != 9 || !c.IsPlaying() {
		t.Fatalf("Expected last frame still playing, got %d playing=%v", c.ActualFrame(), c.IsPlaying())
	}
	c.Update(100)
	if c.IsPlaying() || completed != 1 {
		t.Errorf("Expected completion, playing=%v events=%d", c.IsPlaying(), completed)
	}
	if c.ActualFrame() != 9 {
		t.Errorf("Expected last frame kept, got %d", c.ActualFrame())
	}
	if c.Update(100) || completed != 1 {
		t.Error("Expected stopped controller to stay idle")
	}
	if !c.Replay() || c.ActualFrame() != 7 {
		t.Errorf("Expected replay from frame 7, got %d", c.ActualFrame())
	}
}

func TestZeroDurationStepsPerUpdate(t *testing.T) {
	c := NewController(1, testDescription(), nil, event.NewBus())
	c.Play("spin")
	c.Update(0)
	if c.ActualFrame() != 1 {
		t.Errorf("Expected one frame per update, got %d", c.ActualFrame())
	}
}

func TestPauseAndStop(t *testing.T) {
	c := NewController(1, testDescription(), nil, event.NewBus())
	c.Play("walk")
	c.Pause(true)
	if c.Update(500) || c.ActualFrame() != 4 {
		t.Error("Expected paused controller not to advance")
	}
	c.Pause(false)
	c.Update(100)
	if c.ActualFrame() != 5 {
		t.Errorf("Expected resume, got %d", c.ActualFrame())
	}
	c.Stop()
	if c.IsPlaying() || c.Update(100) {
		t.Error("Expected stopped controller not to advance")
	}
}

func TestFrameStepping(t *testing.T) {
	rec := &recorder{}
	c := NewController(1, testDescription(), rec, event.NewBus())
	c.Play("die")

	if c.PreviousFrame() {
		t.Error("Expected non-looping function not to wrap backwards")
	}
	c.NextFrame()
	c.NextFrame()
	if c.NextFrame() || c.ActualFrame() != 9 {
		t.Errorf("Expected stop at last frame, got %d", c.ActualFrame())
	}
	if !c.SetActualFrame(1) || c.ActualFrame() != 8 {
		t.Errorf("Expected index 1 frame 8, got %d", c.ActualFrame())
	}
	if c.SetActualFrame(3) {
		t.Error("Expected out of range index rejected")
	}

	c.Play("walk")
	if !c.PreviousFrame() || c.ActualFrame() != 6 {
		t.Errorf("Expected looping function to wrap to 6, got %d", c.ActualFrame())
	}
}

func TestFrameChangedEvent(t *testing.T) {
	bus := event.NewBus()
	var changes []FrameChange
	bus.Subscribe(event.EventAnimationFrameChanged, func(ev event.Event) {
		changes = append(changes, ev.Payload.(FrameChange))
	})
	c := NewController(1, testDescription(), nil, bus)
	c.Play("walk")
	c.Update(100)

	if len(changes) != 2 || changes[1].Frame != 5 || changes[1].Index != 1 || changes[1].Function != "walk" {
		t.Errorf("Expected start and step changes, got %+v", changes)
	}
}

func TestCoordinatorLeaderDrivesFollowers(t *testing.T) {
	pool, _ := memory.NewPool([]memory.BlockClass{{Size: 512, Count: 8}})
	m := NewManager(pool, 4, event.NewBus(), status.NewRegistry())
	leaderWrites, followerWrites := &recorder{}, &recorder{}
	key := "shared-charset"

	leader, _ := m.Create(1, testDescription(), leaderWrites, key)
	follower, _ := m.Create(2, testDescription(), followerWrites, key)
	if follower.Leader() != leader {
		t.Fatal("Expected second controller to follow")
	}

	follower.Play("walk")
	m.Update(100)
	if follower.ActualFrame() != 5 || leader.ActualFrame() != 5 {
		t.Errorf("Expected both on frame 5, got %d and %d", leader.ActualFrame(), follower.ActualFrame())
	}
	if len(followerWrites.frames) != 0 {
		t.Errorf("Expected follower never to write, got %v", followerWrites.frames)
	}
	if len(leaderWrites.frames) != 2 {
		t.Errorf("Expected leader to write once per change, got %v", leaderWrites.frames)
	}

	m.Destroy(leader)
	if m.Coordinator().Leader(key) != follower || follower.Leader() != nil {
		t.Fatal("Expected follower promoted")
	}
	m.Update(100)
	if follower.ActualFrame() != 6 || len(followerWrites.frames) != 1 {
		t.Errorf("Expected promoted controller to continue and write, got %d %v", follower.ActualFrame(), followerWrites.frames)
	}

	m.Destroy(follower)
	if m.Coordinator().Leader(key) != nil || m.Count() != 0 {
		t.Error("Expected group removed")
	}
}
