package render

import (
	"math"

	"github.com/lixenwraith/parallax/vmath"
)

// Eye selects one of the stereo frame buffers
type Eye uint8

const (
	EyeLeft Eye = iota
	EyeRight
)

// FrameBuffer holds both eyes' 2-bit pixels
// Direct drawing is bounded by a per-frame pixel budget; composition is not
type FrameBuffer struct {
	width  int
	height int
	pixels [2][]uint8

	ctx      *Context
	budget   int
	drawn    int
	rejected int
}

// NewFrameBuffer allocates both eyes; budget zero disables the direct draw limit
func NewFrameBuffer(width, height, budget int, ctx *Context) *FrameBuffer {
	return &FrameBuffer{
		width:  width,
		height: height,
		pixels: [2][]uint8{make([]uint8, width*height), make([]uint8, width*height)},
		ctx:    ctx,
		budget: budget,
	}
}

func (fb *FrameBuffer) Width() int  { return fb.width }
func (fb *FrameBuffer) Height() int { return fb.height }

// Drawn and Rejected count direct draw pixels this frame
func (fb *FrameBuffer) Drawn() int    { return fb.drawn }
func (fb *FrameBuffer) Rejected() int { return fb.rejected }

// Clear blanks both eyes and resets the direct draw budget
func (fb *FrameBuffer) Clear() {
	clear(fb.pixels[EyeLeft])
	clear(fb.pixels[EyeRight])
	fb.drawn = 0
	fb.rejected = 0
}

// At returns the pixel color, zero outside the buffer
func (fb *FrameBuffer) At(eye Eye, x, y int) uint8 {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return 0
	}
	return fb.pixels[eye][y*fb.width+x]
}

// Set writes a pixel without budget accounting, used by composition
func (fb *FrameBuffer) Set(eye Eye, x, y int, color uint8) {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return
	}
	fb.pixels[eye][y*fb.width+x] = color & 3
}

// DrawPoint plots a screen point in both eyes, shifted by parallax
// Returns false once the budget is spent; off-screen points are free
func (fb *FrameBuffer) DrawPoint(x, y, parallax int, color uint8) bool {
	if y < 0 || y >= fb.height {
		return true
	}
	lx, rx := x-parallax, x+parallax
	if (lx < 0 || lx >= fb.width) && (rx < 0 || rx >= fb.width) {
		return true
	}
	if fb.budget > 0 && fb.drawn >= fb.budget {
		fb.rejected++
		return false
	}
	fb.drawn++
	fb.Set(EyeLeft, lx, y, color)
	fb.Set(EyeRight, rx, y, color)
	return true
}

// DrawScreenLine rasterizes between two screen points, interpolating parallax
// The segment is clipped to the area either eye can see before stepping
func (fb *FrameBuffer) DrawScreenLine(x0, y0, p0, x1, y1, p1 int, color uint8) bool {
	reach := float64(max(abs(p0), abs(p1)))
	ta, tb, ok := clipSegment(float64(x0), float64(y0), float64(x1), float64(y1),
		-reach, 0, float64(fb.width-1)+reach, float64(fb.height-1))
	if !ok {
		return true
	}
	fx, fy := float64(x1-x0), float64(y1-y0)
	xa, ya := x0+int(math.Round(ta*fx)), y0+int(math.Round(ta*fy))
	xb, yb := x0+int(math.Round(tb*fx)), y0+int(math.Round(tb*fy))
	pa := p0 + int(math.Round(ta*float64(p1-p0)))
	pb := p0 + int(math.Round(tb*float64(p1-p0)))

	dx, dy := abs(xb-xa), -abs(yb-ya)
	sx, sy := sign(xb-xa), sign(yb-ya)
	steps := max(dx, -dy)
	e := dx + dy
	x, y := xa, ya
	for i := 0; ; i++ {
		p := pa
		if steps > 0 {
			p = pa + (pb-pa)*i/steps
		}
		if !fb.DrawPoint(x, y, p, color) {
			return false
		}
		if x == xb && y == yb {
			return true
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

const (
	outLeft = 1 << iota
	outRight
	outTop
	outBottom
)

func outCode(x, y, minX, minY, maxX, maxY float64) int {
	c := 0
	if x < minX {
		c |= outLeft
	} else if x > maxX {
		c |= outRight
	}
	if y < minY {
		c |= outTop
	} else if y > maxY {
		c |= outBottom
	}
	return c
}

// clipSegment trims a segment to a rectangle with Cohen-Sutherland
// Returns the kept range as fractions of the original segment
func clipSegment(x0, y0, x1, y1, minX, minY, maxX, maxY float64) (float64, float64, bool) {
	dx, dy := x1-x0, y1-y0
	ax, ay, bx, by := x0, y0, x1, y1
	ca := outCode(ax, ay, minX, minY, maxX, maxY)
	cb := outCode(bx, by, minX, minY, maxX, maxY)
	for {
		if ca|cb == 0 {
			break
		}
		if ca&cb != 0 {
			return 0, 0, false
		}
		c := ca
		if c == 0 {
			c = cb
		}
		var x, y float64
		switch {
		case c&outLeft != 0:
			x, y = minX, y0+dy*(minX-x0)/dx
		case c&outRight != 0:
			x, y = maxX, y0+dy*(maxX-x0)/dx
		case c&outTop != 0:
			x, y = x0+dx*(minY-y0)/dy, minY
		default:
			x, y = x0+dx*(maxY-y0)/dy, maxY
		}
		if c == ca {
			ax, ay = x, y
			ca = outCode(ax, ay, minX, minY, maxX, maxY)
		} else {
			bx, by = x, y
			cb = outCode(bx, by, minX, minY, maxX, maxY)
		}
	}
	fraction := func(x, y float64) float64 {
		if math.Abs(dx) >= math.Abs(dy) {
			if dx == 0 {
				return 0
			}
			return (x - x0) / dx
		}
		return (y - y0) / dy
	}
	return fraction(ax, ay), fraction(bx, by), true
}

// DrawLine projects world endpoints through the context and rasterizes between them
func (fb *FrameBuffer) DrawLine(from, to vmath.Vec3, color uint8) bool {
	a, b := fb.project(from), fb.project(to)
	return fb.DrawScreenLine(a.X, a.Y, a.Parallax, b.X, b.Y, b.Parallax, color)
}

func (fb *FrameBuffer) project(v vmath.Vec3) Projection {
	if fb.ctx == nil {
		return Projection{X: v.X.Round(), Y: v.Y.Round()}
	}
	return fb.ctx.Project(v)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
