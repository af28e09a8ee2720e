package animation

import (
	"fmt"

	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
)

// FrameChange is the payload of EventAnimationFrameChanged
type FrameChange struct {
	Function string
	Index    int
	Frame    int
}

// Controller plays one function at a time for an owner
// A controller following a leader mirrors the leader's frame and never writes
type Controller struct {
	handle      memory.Handle
	owner       uint32
	description *Description
	writer      FrameWriter
	bus         *event.Bus

	function *Function
	index    int
	frame    int
	elapsed  int
	playing  bool
	paused   bool

	key       any
	leader    *Controller
	followers []*Controller
}

// NewController builds a standalone controller
func NewController(owner uint32, description *Description, writer FrameWriter, bus *event.Bus) *Controller {
	c := &Controller{}
	c.init(owner, description, writer, bus)
	return c
}

func (c *Controller) init(owner uint32, description *Description, writer FrameWriter, bus *event.Bus) {
	c.owner = owner
	c.description = description
	c.writer = writer
	c.bus = bus
}

func (c *Controller) Owner() uint32 { return c.owner }
func (c *Controller) IsPlaying() bool {
	if c.leader != nil {
		return c.leader.IsPlaying()
	}
	return c.playing && !c.paused
}
func (c *Controller) IsPaused() bool   { return c.paused }
func (c *Controller) ActualFrame() int { return c.frame }
func (c *Controller) FrameIndex() int  { return c.index }
func (c *Controller) Leader() *Controller {
	return c.leader
}

// FunctionName returns the current function name or empty
func (c *Controller) FunctionName() string {
	if c.function == nil {
		return ""
	}
	return c.function.Name
}

// Play starts name from its first frame; playing the current function again is a no-op
// Followers forward to their leader
func (c *Controller) Play(name string) error {
	if c.leader != nil {
		return c.leader.Play(name)
	}
	if c.function != nil && c.function.Name == name && c.playing {
		return nil
	}
	f := c.description.Find(name)
	if f == nil || len(f.Frames) == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	c.function = f
	c.start()
	return nil
}

// Replay restarts the current function
func (c *Controller) Replay() bool {
	if c.leader != nil {
		return c.leader.Replay()
	}
	if c.function == nil {
		return false
	}
	c.start()
	return true
}

func (c *Controller) start() {
	c.index = 0
	c.elapsed = 0
	c.playing = true
	c.paused = false
	c.bus.Fire(event.EventAnimationStarted, c.owner, c.function.Name)
	c.apply(true)
}

// Pause freezes or resumes the current function
func (c *Controller) Pause(paused bool) {
	if c.leader != nil {
		c.leader.Pause(paused)
		return
	}
	c.paused = paused
}

// Stop ends playback leaving the current frame shown
func (c *Controller) Stop() {
	if c.leader != nil {
		c.leader.Stop()
		return
	}
	c.playing = false
	c.paused = false
}

// Update advances by elapsedMS and reports whether the frame changed
func (c *Controller) Update(elapsedMS int) bool {
	if c.leader != nil || !c.playing || c.paused || c.function == nil {
		return false
	}
	f := c.function
	steps := 1
	if f.FrameDuration > 0 {
		c.elapsed += elapsedMS
		steps = c.elapsed / f.FrameDuration
		c.elapsed %= f.FrameDuration
	}
	if steps == 0 {
		return false
	}

	previous := c.index
	completed := false
	for ; steps > 0; steps-- {
		if c.index+1 < len(f.Frames) {
			c.index++
			continue
		}
		if f.Loop {
			c.index = 0
			continue
		}
		completed = true
		break
	}

	changed := false
	if c.index != previous || f.Frames[c.index] != c.frame {
		changed = c.apply(false)
	}
	if completed {
		c.playing = false
		c.elapsed = 0
		c.bus.Fire(event.EventAnimationCompleted, c.owner, f.Name)
	}
	return changed
}

// SetActualFrame jumps to index within the current function
func (c *Controller) SetActualFrame(index int) bool {
	if c.leader != nil {
		return c.leader.SetActualFrame(index)
	}
	if c.function == nil || index < 0 || index >= len(c.function.Frames) {
		return false
	}
	c.index = index
	c.elapsed = 0
	return c.apply(false)
}

// NextFrame steps forward one index, wrapping when the function loops
func (c *Controller) NextFrame() bool {
	if c.leader != nil {
		return c.leader.NextFrame()
	}
	if c.function == nil {
		return false
	}
	next := c.index + 1
	if next >= len(c.function.Frames) {
		if !c.function.Loop {
			return false
		}
		next = 0
	}
	return c.SetActualFrame(next)
}

// PreviousFrame steps back one index, wrapping when the function loops
func (c *Controller) PreviousFrame() bool {
	if c.leader != nil {
		return c.leader.PreviousFrame()
	}
	if c.function == nil {
		return false
	}
	prev := c.index - 1
	if prev < 0 {
		if !c.function.Loop {
			return false
		}
		prev = len(c.function.Frames) - 1
	}
	return c.SetActualFrame(prev)
}

// apply pushes the frame at index to the writer and followers
func (c *Controller) apply(force bool) bool {
	frame := c.function.Frames[c.index]
	if frame == c.frame && !force {
		return false
	}
	c.frame = frame
	if c.writer != nil {
		c.writer.SetFrame(frame)
	}
	for _, f := range c.followers {
		f.function, f.index, f.frame = c.function, c.index, c.frame
	}
	c.bus.Fire(event.EventAnimationFrameChanged, c.owner, FrameChange{Function: c.function.Name, Index: c.index, Frame: frame})
	return true
}
