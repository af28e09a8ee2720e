package sprite

import (
	"errors"
	"testing"

	"github.com/lixenwraith/parallax/animation"
	"github.com/lixenwraith/parallax/charset"
	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/render"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/texture"
	"github.com/lixenwraith/parallax/vmath"
	"github.com/lixenwraith/parallax/vram"
)

var _ animation.FrameWriter = (*Sprite)(nil)

type fixture struct {
	sprites  *Manager
	textures *texture.Manager
	mem      *vram.Memory
	reg      *status.Registry
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	pool, err := memory.NewPool([]memory.BlockClass{{Size: 512, Count: 64}})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	mem := vram.New()
	bus := event.NewBus()
	reg := status.NewRegistry()
	cs := charset.NewManager(mem, pool, 16, 1, bus, reg, nil)
	textures := texture.NewManager(mem, cs, pool, 16, 2, bus, reg, nil)
	ctx := render.NewContext(render.DefaultOptics(), vram.ScreenWidth, vram.ScreenHeight)
	return &fixture{
		sprites:  NewManager(cfg, mem, textures, ctx, pool, bus, reg, nil),
		textures: textures,
		mem:      mem,
		reg:      reg,
	}
}

func textureSpec(name string, cols, rows, frames int) *texture.Spec {
	chars := cols * rows
	cells := make([]vram.MapEntry, chars)
	for i := range cells {
		cells[i] = vram.NewMapEntry(i, 0, false, false)
	}
	return &texture.Spec{
		Name: name,
		CharSet: &charset.Spec{
			Name:          name,
			NumberOfChars: chars,
			Frames:        frames,
			Allocation:    charset.Animated,
			Tiles:         make([]byte, max(frames, 1)*chars*vram.CharBytes),
		},
		Cols: cols,
		Rows: rows,
		Map:  cells,
	}
}

func smallConfig() Config {
	return Config{Capacity: 8, Layers: vram.WorldCount, Containers: 1, Objects: 8}
}

func TestBgmapSpriteTakesLayer(t *testing.T) {
	f := newFixture(t, smallConfig())
	s, err := f.sprites.Create(1, &Spec{Kind: KindBgmap, Texture: textureSpec("bg", 2, 2, 1)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	s.SetPosition(vmath.V3(40, 30, 0))

	if err := f.sprites.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if s.Layer() != 0 {
		t.Errorf("Expected layer 0, got %d", s.Layer())
	}
	w := f.mem.Worlds[0]
	if !w.On || w.Mode != vram.WorldBgmap {
		t.Fatal("Expected world 0 to show a bgmap")
	}
	if w.GX != 40 || w.GY != 30 || w.GP != 0 {
		t.Errorf("Expected world at (40,30) parallax 0, got (%d,%d) parallax %d", w.GX, w.GY, w.GP)
	}
	if w.W != 16 || w.H != 16 {
		t.Errorf("Expected 16x16 world, got %dx%d", w.W, w.H)
	}
	if f.mem.Worlds[1].On {
		t.Error("Expected unused worlds to be off")
	}
	if got := f.reg.Int(status.KeyLayersUsed).Load(); got != 1 {
		t.Errorf("Expected 1 layer used, got %d", got)
	}
}

func TestDisplacementApplied(t *testing.T) {
	f := newFixture(t, smallConfig())
	s, _ := f.sprites.Create(1, &Spec{Texture: textureSpec("bg", 1, 1, 1), Displacement: vmath.V3(-4, 2, 0)})
	s.SetPosition(vmath.V3(10, 10, 0))
	f.sprites.Render()
	if p := s.Projection(); p.X != 6 || p.Y != 12 {
		t.Errorf("Expected (6,12), got (%d,%d)", p.X, p.Y)
	}
}

func TestLayersSortedFarthestFirst(t *testing.T) {
	f := newFixture(t, smallConfig())
	near, _ := f.sprites.Create(1, &Spec{Texture: textureSpec("near", 1, 1, 1)})
	far, _ := f.sprites.Create(2, &Spec{Texture: textureSpec("far", 1, 1, 1)})
	near.SetPosition(vmath.V3(100, 100, -10))
	far.SetPosition(vmath.V3(100, 100, 50))

	f.sprites.Render()
	if far.Layer() != 0 || near.Layer() != 1 {
		t.Errorf("Expected far on 0 and near on 1, got far %d near %d", far.Layer(), near.Layer())
	}
	if f.mem.Worlds[1].GP >= f.mem.Worlds[0].GP {
		t.Error("Expected nearer layer to have smaller parallax")
	}
}

func TestLayerExhaustionHidesFarthest(t *testing.T) {
	cfg := smallConfig()
	cfg.Layers = 2
	f := newFixture(t, cfg)
	var sprites []*Sprite
	for i, z := range []int{10, 30, 20} {
		s, err := f.sprites.Create(uint32(i+1), &Spec{Texture: textureSpec("s", 1, 1, 1)})
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		s.SetPosition(vmath.V3(50, 50, z))
		sprites = append(sprites, s)
	}

	err := f.sprites.Render()
	if !errors.Is(err, ErrLayersExhausted) || !errors.Is(err, vram.ErrResourceExhausted) {
		t.Fatalf("Expected layer exhaustion, got %v", err)
	}
	if sprites[1].Visible() || sprites[1].Layer() != -1 {
		t.Error("Expected farthest sprite to be hidden")
	}
	if sprites[2].Layer() != 0 || sprites[0].Layer() != 1 {
		t.Errorf("Expected layers 0 and 1, got %d and %d", sprites[2].Layer(), sprites[0].Layer())
	}
	if got := f.reg.Int(status.KeySpritesVisible).Load(); got != 2 {
		t.Errorf("Expected 2 visible, got %d", got)
	}
}

func TestOffscreenAndHiddenSpritesSkipLayers(t *testing.T) {
	f := newFixture(t, smallConfig())
	off, _ := f.sprites.Create(1, &Spec{Texture: textureSpec("off", 1, 1, 1)})
	off.SetPosition(vmath.V3(-100, 0, 0))
	hidden, _ := f.sprites.Create(2, &Spec{Texture: textureSpec("hidden", 1, 1, 1), Hidden: true})
	hidden.SetPosition(vmath.V3(10, 10, 0))

	f.sprites.Render()
	if off.Visible() || hidden.Visible() {
		t.Error("Expected neither sprite to be visible")
	}
	if f.mem.Worlds[0].On {
		t.Error("Expected no world in use")
	}

	hidden.Show()
	f.sprites.Render()
	if !hidden.Visible() || hidden.Layer() != 0 {
		t.Error("Expected shown sprite to take layer 0")
	}
}

func TestObjectSpriteWritesAttributes(t *testing.T) {
	f := newFixture(t, smallConfig())
	s, err := f.sprites.Create(1, &Spec{Kind: KindObject, Texture: textureSpec("obj", 2, 1, 1)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	f.textures.WriteTextures(64)
	s.SetPosition(vmath.V3(20, 10, 0))

	f.sprites.Render()
	if skipped := f.sprites.WriteObjects(); skipped != 0 {
		t.Fatalf("Expected no skipped containers, got %d", skipped)
	}
	w := f.mem.Worlds[0]
	if !w.On || w.Mode != vram.WorldObject || w.Objects != [2]int{0, 8} {
		t.Fatalf("Expected object world over [0,8), got %+v", w)
	}
	o0, o1 := f.mem.Objects[0], f.mem.Objects[1]
	if !o0.Visible || o0.X != 20 || o0.Y != 10 {
		t.Errorf("Expected first object at (20,10), got %+v", o0)
	}
	if !o1.Visible || o1.X != 28 {
		t.Errorf("Expected second object at x=28, got %+v", o1)
	}
	tex := s.Texture()
	if o1.Entry != f.mem.MapEntryAt(tex.Segment(), tex.X()+1, tex.Y()) {
		t.Error("Expected object entry to come from the texture map")
	}
	if f.sprites.Containers()[0].Written() != 2 {
		t.Errorf("Expected 2 objects written, got %d", f.sprites.Containers()[0].Written())
	}
}

func TestObjectSpritesNearestFirst(t *testing.T) {
	f := newFixture(t, smallConfig())
	far, _ := f.sprites.Create(1, &Spec{Kind: KindObject, Texture: textureSpec("far", 1, 1, 1)})
	near, _ := f.sprites.Create(2, &Spec{Kind: KindObject, Texture: textureSpec("near", 1, 1, 1)})
	far.SetPosition(vmath.V3(10, 10, 40))
	near.SetPosition(vmath.V3(50, 10, 0))

	f.sprites.Render()
	f.sprites.WriteObjects()
	if f.mem.Objects[0].X != 50 {
		t.Errorf("Expected nearest sprite in object 0, got x=%d", f.mem.Objects[0].X)
	}
}

func TestLockedContainerSkipsWrite(t *testing.T) {
	f := newFixture(t, smallConfig())
	s, _ := f.sprites.Create(1, &Spec{Kind: KindObject, Texture: textureSpec("obj", 1, 1, 1)})
	s.SetPosition(vmath.V3(5, 5, 0))
	f.sprites.Render()

	c := f.sprites.Containers()[0]
	c.Lock()
	if skipped := f.sprites.WriteObjects(); skipped != 1 {
		t.Errorf("Expected 1 skipped container, got %d", skipped)
	}
	if f.mem.Objects[0].Visible {
		t.Error("Expected no object written while locked")
	}
	if c.Skipped() != 1 {
		t.Errorf("Expected skip count 1, got %d", c.Skipped())
	}

	c.Unlock()
	f.sprites.WriteObjects()
	if !f.mem.Objects[0].Visible {
		t.Error("Expected object written after unlock")
	}
}

func TestRemovedObjectSpriteClearsAttributes(t *testing.T) {
	f := newFixture(t, smallConfig())
	s, _ := f.sprites.Create(1, &Spec{Kind: KindObject, Texture: textureSpec("obj", 1, 1, 1)})
	s.SetPosition(vmath.V3(5, 5, 0))
	f.sprites.Render()
	f.sprites.WriteObjects()

	f.sprites.Destroy(s)
	if f.sprites.Containers()[0].Locked() {
		t.Error("Expected container unlocked after removal")
	}
	f.sprites.Render()
	f.sprites.WriteObjects()
	if f.mem.Objects[0].Visible {
		t.Error("Expected object attribute cleared")
	}
	if f.textures.Count() != 0 {
		t.Errorf("Expected texture released, got %d", f.textures.Count())
	}
}

func TestObjectsExhausted(t *testing.T) {
	cfg := smallConfig()
	cfg.Objects = 2
	f := newFixture(t, cfg)
	_, err := f.sprites.Create(1, &Spec{Kind: KindObject, Texture: textureSpec("big", 2, 2, 1)})
	if !errors.Is(err, ErrObjectsExhausted) || !errors.Is(err, vram.ErrResourceExhausted) {
		t.Fatalf("Expected object exhaustion, got %v", err)
	}
	if f.textures.Count() != 0 {
		t.Errorf("Expected texture released on failure, got %d", f.textures.Count())
	}
	if got := f.reg.Int(status.KeyExhaustions).Load(); got != 1 {
		t.Errorf("Expected 1 exhaustion, got %d", got)
	}
}

func TestSetFrameDrivesTexture(t *testing.T) {
	f := newFixture(t, smallConfig())
	s, _ := f.sprites.Create(1, &Spec{Texture: textureSpec("anim", 1, 1, 3)})
	if !s.SetFrame(2) {
		t.Fatal("Expected frame change")
	}
	if s.Texture().Frame() != 2 {
		t.Errorf("Expected texture frame 2, got %d", s.Texture().Frame())
	}
	if s.SetFrame(5) {
		t.Error("Expected out of range frame to be rejected")
	}
}

func TestInvalidSpec(t *testing.T) {
	f := newFixture(t, smallConfig())
	if _, err := f.sprites.Create(1, &Spec{}); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("Expected ErrInvalidSpec, got %v", err)
	}
}
