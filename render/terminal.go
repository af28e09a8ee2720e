package render

import (
	"github.com/gdamore/tcell/v2"
)

// ViewMode selects what the terminal shows
type ViewMode uint8

const (
	ViewLeft ViewMode = iota
	ViewRight
	// ViewAnaglyph shows the left eye in red and the right eye in cyan
	ViewAnaglyph
)

// shade maps a 2-bit color to an 8-bit intensity
var shade = [4]int32{0, 85, 170, 255}

// TerminalView presents a frame buffer on a tcell screen, two pixel rows per cell
type TerminalView struct {
	screen tcell.Screen
	mode   ViewMode
}

func NewTerminalView(screen tcell.Screen, mode ViewMode) *TerminalView {
	return &TerminalView{screen: screen, mode: mode}
}

func (v *TerminalView) SetMode(mode ViewMode) { v.mode = mode }

// Draw downsamples fb to the screen and shows it
func (v *TerminalView) Draw(fb *FrameBuffer) {
	cols, rows := v.screen.Size()
	if cols <= 0 || rows <= 0 {
		return
	}
	scale := max((fb.width+cols-1)/cols, (fb.height+2*rows-1)/(2*rows), 1)

	for cy := 0; cy < rows; cy++ {
		top, bottom := 2*cy*scale, (2*cy+1)*scale
		for cx := 0; cx < cols; cx++ {
			x := cx * scale
			if x >= fb.width || top >= fb.height {
				v.screen.SetContent(cx, cy, ' ', nil, tcell.StyleDefault)
				continue
			}
			style := tcell.StyleDefault.Foreground(v.color(fb, x, top)).Background(v.color(fb, x, bottom))
			v.screen.SetContent(cx, cy, '▀', nil, style)
		}
	}
	v.screen.Show()
}

func (v *TerminalView) color(fb *FrameBuffer, x, y int) tcell.Color {
	switch v.mode {
	case ViewRight:
		return tcell.NewRGBColor(shade[fb.At(EyeRight, x, y)], 0, 0)
	case ViewAnaglyph:
		r := shade[fb.At(EyeLeft, x, y)]
		c := shade[fb.At(EyeRight, x, y)]
		return tcell.NewRGBColor(r, c, c)
	default:
		return tcell.NewRGBColor(shade[fb.At(EyeLeft, x, y)], 0, 0)
	}
}
