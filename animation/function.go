// Package animation steps frame sequences and pushes frame changes to their writers
package animation

import "errors"

var ErrUnknownFunction = errors.New("unknown animation function")

// Function is a named frame sequence
type Function struct {
	Name          string
	Frames        []int
	FrameDuration int // Milliseconds per frame; zero advances one frame per update
	Loop          bool
}

// Description groups the functions an entity can play
type Description struct {
	Functions []*Function
}

// Find returns the function named name or nil
func (d *Description) Find(name string) *Function {
	if d == nil {
		return nil
	}
	for _, f := range d.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FrameWriter applies a frame to display memory
type FrameWriter interface {
	SetFrame(frame int) bool
}

// FrameWriterFunc adapts a function to FrameWriter
type FrameWriterFunc func(frame int) bool

func (f FrameWriterFunc) SetFrame(frame int) bool { return f(frame) }
