package render

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
)

// snapshotGap separates the eyes in a side-by-side snapshot
const snapshotGap = 8

var palette = [4]color.RGBA{
	{0, 0, 0, 255},
	{85, 0, 0, 255},
	{170, 0, 0, 255},
	{255, 0, 0, 255},
}

// snapshotContext paints both eyes side by side, left eye first
func snapshotContext(fb *FrameBuffer) *gg.Context {
	dc := gg.NewContext(fb.width*2+snapshotGap, fb.height)
	dc.SetColor(palette[0])
	dc.Clear()

	for eye, offset := range [2]int{0, fb.width + snapshotGap} {
		px := fb.pixels[eye]
		for y := 0; y < fb.height; y++ {
			for x := 0; x < fb.width; x++ {
				c := px[y*fb.width+x]
				if c == 0 {
					continue
				}
				dc.SetColor(palette[c])
				dc.SetPixel(x+offset, y)
			}
		}
	}

	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(1)
	mid := float64(fb.width) + snapshotGap/2
	dc.DrawLine(mid, 0, mid, float64(fb.height))
	dc.Stroke()
	return dc
}

// Snapshot renders both eyes into an image
func Snapshot(fb *FrameBuffer) image.Image {
	return snapshotContext(fb).Image()
}

// EncodePNG writes the snapshot as PNG
func EncodePNG(w io.Writer, fb *FrameBuffer) error {
	return snapshotContext(fb).EncodePNG(w)
}

// SavePNG writes the snapshot to path
func SavePNG(path string, fb *FrameBuffer) error {
	return snapshotContext(fb).SavePNG(path)
}
