package texture

import (
	"errors"
	"testing"

	"github.com/lixenwraith/parallax/charset"
	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/vram"
)

type fixture struct {
	textures *Manager
	charsets *charset.Manager
	mem      *vram.Memory
	bus      *event.Bus
}

func newFixture(t *testing.T, segments int) *fixture {
	t.Helper()
	pool, err := memory.NewPool([]memory.BlockClass{{Size: 256, Count: 64}})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	mem := vram.New()
	bus := event.NewBus()
	reg := status.NewRegistry()
	cs := charset.NewManager(mem, pool, 16, 1, bus, reg, nil)
	return &fixture{
		textures: NewManager(mem, cs, pool, 16, segments, bus, reg, nil),
		charsets: cs,
		mem:      mem,
		bus:      bus,
	}
}

func charSpec(chars, frames int, alloc charset.Allocation) *charset.Spec {
	return &charset.Spec{
		Name:          "cs",
		NumberOfChars: chars,
		Frames:        frames,
		Allocation:    alloc,
		Tiles:         make([]byte, max(frames, 1)*chars*vram.CharBytes),
	}
}

// sequentialMap numbers cells row-major modulo chars
func sequentialMap(cols, rows, chars int) []vram.MapEntry {
	m := make([]vram.MapEntry, cols*rows)
	for i := range m {
		m[i] = vram.NewMapEntry(i%chars, 0, false, false)
	}
	return m
}

func TestWriteTexturesRowBudget(t *testing.T) {
	f := newFixture(t, 1)
	rewritten := 0
	f.bus.Subscribe(event.EventTextureRewritten, func(event.Event) { rewritten++ })

	spec := &Spec{Name: "tall", CharSet: charSpec(4, 1, charset.NotAnimated), Cols: 2, Rows: 20, Map: sequentialMap(2, 20, 4)}
	tex, err := f.textures.GetTexture(spec)
	if err != nil {
		t.Fatalf("GetTexture failed: %v", err)
	}

	calls := 0
	for tex.Status() != StatusWritten {
		calls++
		if n := f.textures.WriteTextures(4); n != 4 {
			t.Fatalf("Call %d: expected 4 rows, got %d", calls, n)
		}
		if calls > 5 {
			t.Fatal("Expected completion within 5 calls")
		}
	}
	if calls != 5 {
		t.Errorf("Expected exactly 5 calls, got %d", calls)
	}
	if rewritten != 1 {
		t.Errorf("Expected one rewritten event, got %d", rewritten)
	}
	if n := f.textures.WriteTextures(4); n != 0 {
		t.Errorf("Expected nothing left, got %d", n)
	}
}

func TestWriteTexturesFIFOAcrossTextures(t *testing.T) {
	f := newFixture(t, 1)
	a, _ := f.textures.GetTexture(&Spec{Name: "a", CharSet: charSpec(1, 1, 0), Cols: 1, Rows: 3, Map: sequentialMap(1, 3, 1)})
	b, _ := f.textures.GetTexture(&Spec{Name: "b", CharSet: charSpec(1, 1, 0), Cols: 1, Rows: 3, Map: sequentialMap(1, 3, 1)})

	f.textures.WriteTextures(4)
	if a.Status() != StatusWritten || b.PendingRows() != 2 {
		t.Errorf("Expected a done and b with 2 rows left, got %v / %d", a.Status(), b.PendingRows())
	}
}

func TestWriteTexturesKeepsQueueCapacity(t *testing.T) {
	f := newFixture(t, 1)
	want := cap(f.textures.queue)
	for round := 0; round < 40; round++ {
		a, err := f.textures.GetTexture(&Spec{Name: "a", CharSet: charSpec(1, 1, 0), Cols: 1, Rows: 1, Map: sequentialMap(1, 1, 1)})
		if err != nil {
			t.Fatalf("Round %d: GetTexture failed: %v", round, err)
		}
		b, _ := f.textures.GetTexture(&Spec{Name: "b", CharSet: charSpec(1, 1, 0), Cols: 1, Rows: 1, Map: sequentialMap(1, 1, 1)})
		f.textures.WriteTextures(1)
		f.textures.WriteTextures(1)
		if err := f.textures.ReleaseTexture(a.Handle()); err != nil {
			t.Fatalf("Round %d: ReleaseTexture failed: %v", round, err)
		}
		f.textures.ReleaseTexture(b.Handle())
		if cap(f.textures.queue) != want {
			t.Fatalf("Round %d: expected queue capacity %d, got %d", round, want, cap(f.textures.queue))
		}
	}
}

func TestEntriesTargetCharSetOffset(t *testing.T) {
	f := newFixture(t, 1)
	spec := &Spec{Name: "t", CharSet: charSpec(4, 1, 0), Cols: 4, Rows: 1, Map: sequentialMap(4, 1, 4), Palette: 1}
	tex, _ := f.textures.GetTexture(spec)
	f.textures.WriteTextures(10)

	base := tex.CharSet().Offset()
	for c := 0; c < 4; c++ {
		e := f.mem.MapEntryAt(tex.Segment(), tex.X()+c, tex.Y())
		if e.Char() != base+c || e.Palette() != 1 {
			t.Errorf("Col %d: expected char %d palette 1, got %d palette %d", c, base+c, e.Char(), e.Palette())
		}
	}
}

func TestMirrorRewritesFlipped(t *testing.T) {
	f := newFixture(t, 1)
	spec := &Spec{Name: "t", CharSet: charSpec(4, 1, 0), Cols: 4, Rows: 2, Map: sequentialMap(4, 2, 4)}
	tex, _ := f.textures.GetTexture(spec)
	f.textures.WriteTextures(10)

	f.textures.SetMirror(tex, true, false)
	if tex.PendingRows() != 2 {
		t.Fatalf("Expected all rows pending, got %d", tex.PendingRows())
	}
	f.textures.WriteTextures(10)
	e := f.mem.MapEntryAt(tex.Segment(), tex.X(), tex.Y())
	if e.Char() != tex.CharSet().Offset()+3 || !e.HFlip() {
		t.Errorf("Expected last column flipped into first, got char %d hflip %v", e.Char(), e.HFlip())
	}
}

func TestAnimatedMapRewritesOnlyChangedRows(t *testing.T) {
	f := newFixture(t, 1)
	cols, rows := 2, 5
	frame0 := sequentialMap(cols, rows, 4)
	frame1 := sequentialMap(cols, rows, 4)
	frame1[3*cols+1] = vram.NewMapEntry(0, 0, false, false)
	spec := &Spec{
		Name:      "multi",
		CharSet:   charSpec(4, 1, charset.AnimatedMulti),
		Cols:      cols,
		Rows:      rows,
		Map:       append(frame0, frame1...),
		MapFrames: 2,
	}
	tex, _ := f.textures.GetTexture(spec)
	f.textures.WriteTextures(10)

	if !f.textures.SetFrame(tex, 1) {
		t.Fatal("Expected frame change")
	}
	if tex.PendingRows() != 1 {
		t.Errorf("Expected only row 3 pending, got %d", tex.PendingRows())
	}
}

func TestAnimatedMultiShiftsCharOffset(t *testing.T) {
	f := newFixture(t, 1)
	spec := &Spec{Name: "multi", CharSet: charSpec(2, 3, charset.AnimatedMulti), Cols: 2, Rows: 1, Map: sequentialMap(2, 1, 2)}
	tex, _ := f.textures.GetTexture(spec)
	f.textures.WriteTextures(10)
	if n := f.charsets.WriteCharSets(100); n != 6 {
		t.Errorf("Expected every frame resident, got %d tiles", n)
	}

	f.textures.SetFrame(tex, 2)
	f.textures.WriteTextures(10)
	e := f.mem.MapEntryAt(tex.Segment(), tex.X(), tex.Y())
	if e.Char() != tex.CharSet().Offset()+4 {
		t.Errorf("Expected frame 2 to map char offset+4, got %d", e.Char()-tex.CharSet().Offset())
	}
	if f.charsets.Pending() != 0 {
		t.Error("Expected no tile rewrite for multi char set")
	}
}

func TestSharedTexture(t *testing.T) {
	f := newFixture(t, 1)
	cs := charSpec(2, 1, 0)
	cs.Shared = true
	spec := &Spec{Name: "s", CharSet: cs, Cols: 2, Rows: 2, Map: sequentialMap(2, 2, 2)}

	a, _ := f.textures.GetTexture(spec)
	b, _ := f.textures.GetTexture(spec)
	if a != b || a.Usage() != 2 {
		t.Errorf("Expected shared texture with usage 2, got usage %d", a.Usage())
	}
	if f.textures.Count() != 1 || f.charsets.Count() != 1 {
		t.Errorf("Expected one texture and char set, got %d and %d", f.textures.Count(), f.charsets.Count())
	}
}

func TestReleaseTexture(t *testing.T) {
	f := newFixture(t, 1)
	spec := &Spec{Name: "r", CharSet: charSpec(2, 1, 0), Cols: 8, Rows: 8, Map: sequentialMap(8, 8, 2)}
	tex, _ := f.textures.GetTexture(spec)
	x, y := tex.X(), tex.Y()

	if err := f.textures.ReleaseTexture(tex.Handle()); err != nil {
		t.Fatalf("ReleaseTexture failed: %v", err)
	}
	if err := f.textures.ReleaseTexture(tex.Handle()); !errors.Is(err, ErrDoubleRelease) {
		t.Errorf("Expected ErrDoubleRelease, got %v", err)
	}
	if f.charsets.Used() != 0 {
		t.Errorf("Expected char set released, got %d tiles", f.charsets.Used())
	}
	again, _ := f.textures.GetTexture(spec)
	if again.X() != x || again.Y() != y {
		t.Errorf("Expected region reused at (%d,%d), got (%d,%d)", x, y, again.X(), again.Y())
	}
}

func TestReleaseOldHandleAfterSlotReuse(t *testing.T) {
	f := newFixture(t, 1)
	a, _ := f.textures.GetTexture(&Spec{Name: "a", CharSet: charSpec(2, 1, 0), Cols: 2, Rows: 2, Map: sequentialMap(2, 2, 2)})
	old := a.Handle()
	if err := f.textures.ReleaseTexture(old); err != nil {
		t.Fatalf("ReleaseTexture failed: %v", err)
	}

	b, err := f.textures.GetTexture(&Spec{Name: "b", CharSet: charSpec(2, 1, 0), Cols: 2, Rows: 2, Map: sequentialMap(2, 2, 2)})
	if err != nil {
		t.Fatalf("GetTexture failed: %v", err)
	}
	if b != a {
		t.Fatal("Expected b to reuse a's slot")
	}

	if err := f.textures.ReleaseTexture(old); !errors.Is(err, ErrDoubleRelease) {
		t.Errorf("Expected ErrDoubleRelease for the old handle, got %v", err)
	}
	if b.Usage() != 1 || f.textures.Count() != 1 {
		t.Errorf("Expected b untouched, got usage %d count %d", b.Usage(), f.textures.Count())
	}
	if f.charsets.Used() != 2 {
		t.Errorf("Expected b's char set still resident, got %d tiles", f.charsets.Used())
	}
}

func TestBGMapExhaustion(t *testing.T) {
	f := newFixture(t, 1)
	full := &Spec{Name: "full", CharSet: charSpec(1, 1, 0), Cols: vram.BgmapCols, Rows: vram.BgmapRows - 1, Map: nil}
	if _, err := f.textures.GetTexture(full); err != nil {
		t.Fatalf("GetTexture failed: %v", err)
	}
	used := f.charsets.Used()

	big := &Spec{Name: "big", CharSet: charSpec(1, 1, 0), Cols: 2, Rows: 2}
	_, err := f.textures.GetTexture(big)
	if !errors.Is(err, ErrBGMapExhausted) || !errors.Is(err, vram.ErrResourceExhausted) {
		t.Errorf("Expected ErrBGMapExhausted, got %v", err)
	}
	if f.charsets.Used() != used {
		t.Error("Expected char set returned after failed placement")
	}

	row := &Spec{Name: "row", CharSet: charSpec(1, 1, 0), Cols: vram.BgmapCols, Rows: 1}
	if _, err := f.textures.GetTexture(row); err != nil {
		t.Errorf("Expected last row to fit, got %v", err)
	}
}

func TestCharSetMoveRewritesTextures(t *testing.T) {
	f := newFixture(t, 1)
	gap, _ := f.textures.GetTexture(&Spec{Name: "gap", CharSet: charSpec(4, 1, 0), Cols: 1, Rows: 1, Map: sequentialMap(1, 1, 4)})
	tex, _ := f.textures.GetTexture(&Spec{Name: "t", CharSet: charSpec(2, 1, 0), Cols: 2, Rows: 3, Map: sequentialMap(2, 3, 2)})
	f.textures.WriteTextures(10)
	f.charsets.WriteCharSets(100)

	f.textures.ReleaseTexture(gap.Handle())
	if !f.charsets.Defragment() {
		t.Fatal("Expected a char set move")
	}
	if tex.PendingRows() != 3 {
		t.Errorf("Expected dependent texture fully pending, got %d", tex.PendingRows())
	}
	f.textures.WriteTextures(10)
	e := f.mem.MapEntryAt(tex.Segment(), tex.X(), tex.Y())
	if e.Char() != 1 {
		t.Errorf("Expected entries retargeted to tile 1, got %d", e.Char())
	}
}
