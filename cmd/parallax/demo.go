package main

import (
	"github.com/lixenwraith/parallax/animation"
	"github.com/lixenwraith/parallax/charset"
	"github.com/lixenwraith/parallax/collision"
	"github.com/lixenwraith/parallax/engine"
	"github.com/lixenwraith/parallax/physics"
	"github.com/lixenwraith/parallax/sprite"
	"github.com/lixenwraith/parallax/texture"
	"github.com/lixenwraith/parallax/vmath"
	"github.com/lixenwraith/parallax/vram"
)

const (
	floorY          = 200
	floorChars      = 40
	spawnEveryMS    = 700
	crateLifetimeMS = 9000
)

// Crates drop at staggered columns and depths so parallax is visible
var crateSlots = []vmath.Vec3{
	vmath.V3(60, 20, 0),
	vmath.V3(140, 10, 96),
	vmath.V3(220, 30, -64),
	vmath.V3(300, 0, 192),
	vmath.V3(100, 40, 32),
}

// tile packs an 8x8 2bpp tile from a pixel function
func tile(px func(x, y int) uint8) []byte {
	t := make([]byte, vram.CharBytes)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			t[y*2+x/4] |= (px(x, y) & 3) << ((x % 4) * 2)
		}
	}
	return t
}

// crateTiles is a 2x2 char crate with two frames: plain frame and a cross brace
func crateTiles() []byte {
	var out []byte
	for frame := 0; frame < 2; frame++ {
		for c := 0; c < 4; c++ {
			ox, oy := (c%2)*8, (c/2)*8
			out = append(out, tile(func(x, y int) uint8 {
				gx, gy := ox+x, oy+y
				switch {
				case gx == 0 || gy == 0 || gx == 15 || gy == 15:
					return 3
				case frame == 1 && (gx == gy || gx == 15-gy):
					return 2
				}
				return 1
			})...)
		}
	}
	return out
}

func newCrateSpec() *engine.EntitySpec {
	cells := make([]vram.MapEntry, 4)
	for i := range cells {
		cells[i] = vram.NewMapEntry(i, 0, false, false)
	}
	return &engine.EntitySpec{
		Name: "crate",
		Size: vmath.PixelSize(16, 16, 16),
		Body: &physics.Spec{
			Mass:        vmath.One,
			Friction:    vmath.FromInt(20),
			Bounciness:  vmath.FromRatio(1, 4),
			GravityAxes: vmath.AxisY,
		},
		Colliders: []*collision.Spec{
			{Kind: collision.KindBox, CheckForCollisions: true},
		},
		Sprites: []*sprite.Spec{{
			Kind:         sprite.KindObject,
			Displacement: vmath.V3(-8, -8, 0),
			Texture: &texture.Spec{
				Name: "crate",
				CharSet: &charset.Spec{
					Name:          "crate",
					NumberOfChars: 4,
					Frames:        2,
					Allocation:    charset.AnimatedShared,
					Shared:        true,
					Tiles:         crateTiles(),
				},
				Cols: 2,
				Rows: 2,
				Map:  cells,
			},
		}},
		Animation: &animation.Description{Functions: []*animation.Function{
			{Name: "blink", Frames: []int{0, 1}, FrameDuration: 400, Loop: true},
		}},
		InitialAnimation: "blink",
		SharedAnimation:  true,
		LifetimeMS:       crateLifetimeMS,
	}
}

func newFloorSpec() *engine.EntitySpec {
	cells := make([]vram.MapEntry, floorChars)
	for i := range cells {
		cells[i] = vram.NewMapEntry(0, 0, i%2 == 1, false)
	}
	return &engine.EntitySpec{
		Name: "floor",
		Colliders: []*collision.Spec{
			{Kind: collision.KindBox, PixelSize: vmath.PixelSize(floorChars*8, 8, 512)},
		},
		Sprites: []*sprite.Spec{{
			Displacement: vmath.V3(-floorChars*4, -4, 0),
			Texture: &texture.Spec{
				Name: "floor",
				CharSet: &charset.Spec{
					Name:          "floor",
					NumberOfChars: 1,
					Tiles: tile(func(x, y int) uint8 {
						if y == 0 {
							return 3
						}
						return uint8(1 + (x+y)%2)
					}),
				},
				Cols: floorChars,
				Rows: 1,
				Map:  cells,
			},
		}},
	}
}

// newDemoState drops a crate every spawnEveryMS onto a wide floor; crates expire on their own
func newDemoState() *engine.GameState {
	crate := newCrateSpec()
	floor := newFloorSpec()
	var since, spawned int

	setup := func(stage *engine.Stage) error {
		since, spawned = 0, 0
		_, err := stage.SpawnEntity(floor, vmath.V3(floorChars*4+16, floorY, 0))
		return err
	}

	return engine.NewGameState("demo", setup).OnUpdate(func(stage *engine.Stage, elapsedMS int) {
		since += elapsedMS
		if since < spawnEveryMS {
			return
		}
		since -= spawnEveryMS
		// Exhaustion is logged and counted by the stage
		_, _ = stage.SpawnEntity(crate, crateSlots[spawned%len(crateSlots)])
		spawned++
	})
}
