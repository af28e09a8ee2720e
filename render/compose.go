package render

import (
	"github.com/lixenwraith/parallax/vram"
)

// Compose draws the enabled world layers of mem into fb, low index first so higher layers
// end up in front. Color 0 is transparent
func Compose(mem *vram.Memory, fb *FrameBuffer) {
	for i := range mem.Worlds {
		w := &mem.Worlds[i]
		if !w.On {
			continue
		}
		switch w.Mode {
		case vram.WorldBgmap:
			composeBgmap(mem, fb, w)
		case vram.WorldObject:
			composeObjects(mem, fb, w)
		}
	}
}

func composeBgmap(mem *vram.Memory, fb *FrameBuffer, w *vram.WorldAttribute) {
	const segmentPixels = vram.BgmapCols * vram.TileSize
	for py := 0; py < int(w.H); py++ {
		sy := int(w.GY) + py
		if sy < 0 || sy >= fb.height {
			continue
		}
		my := (int(w.MY) + py) % segmentPixels
		for px := 0; px < int(w.W); px++ {
			mx := (int(w.MX) + px) % segmentPixels
			entry := mem.MapEntryAt(w.Segment, mx/vram.TileSize, my/vram.TileSize)
			color := tilePixel(mem, entry, mx%vram.TileSize, my%vram.TileSize)
			if color == 0 {
				continue
			}
			sx := int(w.GX) + px
			if w.LeftEye {
				fb.Set(EyeLeft, sx-int(w.GP), sy, color)
			}
			if w.RightEye {
				fb.Set(EyeRight, sx+int(w.GP), sy, color)
			}
		}
	}
}

func composeObjects(mem *vram.Memory, fb *FrameBuffer, w *vram.WorldAttribute) {
	start, end := w.Objects[0], min(w.Objects[1], vram.ObjectCount)
	// Lower OAM indices are in front within a container
	for i := end - 1; i >= start; i-- {
		o := &mem.Objects[i]
		if !o.Visible {
			continue
		}
		for ty := 0; ty < vram.TileSize; ty++ {
			for tx := 0; tx < vram.TileSize; tx++ {
				color := tilePixel(mem, o.Entry, tx, ty)
				if color == 0 {
					continue
				}
				x, y := int(o.X)+tx, int(o.Y)+ty
				fb.Set(EyeLeft, x-int(o.Parallax), y, color)
				fb.Set(EyeRight, x+int(o.Parallax), y, color)
			}
		}
	}
}

func tilePixel(mem *vram.Memory, e vram.MapEntry, x, y int) uint8 {
	if e.HFlip() {
		x = vram.TileSize - 1 - x
	}
	if e.VFlip() {
		y = vram.TileSize - 1 - y
	}
	return mem.TilePixel(e.Char(), x, y)
}
