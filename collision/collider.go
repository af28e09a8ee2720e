package collision

import (
	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/vmath"
)

// MaxContacts bounds tracked contacts per collider, extra collisions are reported but not tracked
const MaxContacts = 8

// AABB is an axis-aligned bounding box in world space
type AABB struct {
	Min, Max vmath.Vec3
}

// Overlaps is inclusive on every axis
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Geometry is the world-space shape derived from spec and owner transform
// Only the fields of the collider's kind are meaningful
type Geometry struct {
	Center vmath.Vec3

	// Box, InverseBox
	HalfExtents vmath.Vec3
	Vertices    [8]vmath.Vec3
	Normals     [3]vmath.Vec3

	// Ball
	Radius vmath.Fixed

	// LineField
	A, B      vmath.Vec3
	Direction vmath.Vec3
	Normal    vmath.Vec3
	Length    vmath.Fixed
	Depth     vmath.Fixed

	Bounds AABB
}

type contact struct {
	other *Collider
	frame int64
	info  CollisionInformation
}

// Collider is a tagged union over Kind
// Instances live in a Manager arena or stand alone through NewCollider
type Collider struct {
	handle memory.Handle
	owner  uint32
	spec   *Spec
	kind   Kind

	enabled            bool
	checkForCollisions bool
	layers             Layer
	layersToIgnore     Layer

	transformation vmath.Transformation
	size           vmath.Size
	geometry       Geometry
	degenerate     bool

	contacts     [MaxContacts]contact
	contactCount int

	bus *event.Bus
}

// NewCollider builds a standalone collider placed by transformation
// ownerSize stands in for zero spec dimensions
func NewCollider(owner uint32, spec *Spec, transformation vmath.Transformation, ownerSize vmath.Size) *Collider {
	c := &Collider{}
	c.init(owner, spec, nil)
	c.Transform(transformation.Position, transformation.Rotation, transformation.Scale, ownerSize)
	return c
}

func (c *Collider) init(owner uint32, spec *Spec, bus *event.Bus) {
	c.owner = owner
	c.spec = spec
	c.kind = spec.Kind
	c.enabled = true
	c.checkForCollisions = spec.CheckForCollisions
	c.layers = spec.Layers
	c.layersToIgnore = spec.LayersToIgnore
	c.bus = bus
}

func (c *Collider) Handle() memory.Handle { return c.handle }
func (c *Collider) Owner() uint32         { return c.owner }
func (c *Collider) Spec() *Spec           { return c.spec }
func (c *Collider) Kind() Kind            { return c.kind }
func (c *Collider) Enabled() bool         { return c.enabled }
func (c *Collider) Layers() Layer         { return c.effectiveLayers() }
func (c *Collider) LayersToIgnore() Layer { return c.layersToIgnore }
func (c *Collider) Geometry() Geometry    { return c.geometry }
func (c *Collider) Bounds() AABB          { return c.geometry.Bounds }
func (c *Collider) Degenerate() bool      { return c.degenerate }

func (c *Collider) Transformation() vmath.Transformation { return c.transformation }

func (c *Collider) CheckForCollisions() bool { return c.checkForCollisions }

func (c *Collider) effectiveLayers() Layer {
	if c.layers == LayerNone {
		return LayerAll
	}
	return c.layers
}

// Enable toggles participation in the broad phase
func (c *Collider) Enable(enabled bool) {
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	c.bus.Fire(event.EventColliderChanged, c.owner, c)
}

func (c *Collider) SetCheckForCollisions(check bool) {
	if c.checkForCollisions == check {
		return
	}
	c.checkForCollisions = check
	c.bus.Fire(event.EventColliderChanged, c.owner, c)
}

func (c *Collider) SetLayers(layers Layer) {
	if c.layers == layers {
		return
	}
	c.layers = layers
	c.bus.Fire(event.EventColliderChanged, c.owner, c)
}

func (c *Collider) SetLayersToIgnore(layers Layer) {
	if c.layersToIgnore == layers {
		return
	}
	c.layersToIgnore = layers
	c.bus.Fire(event.EventColliderChanged, c.owner, c)
}

// CanCollideWith applies the layer filter symmetrically
func (c *Collider) CanCollideWith(o *Collider) bool {
	cl, ol := c.effectiveLayers(), o.effectiveLayers()
	if cl&ol == 0 {
		return false
	}
	if c.layersToIgnore&ol != 0 || o.layersToIgnore&cl != 0 {
		return false
	}
	return true
}

// Contacts returns the colliders currently touching this one
func (c *Collider) Contacts() []*Collider {
	out := make([]*Collider, c.contactCount)
	for i := 0; i < c.contactCount; i++ {
		out[i] = c.contacts[i].other
	}
	return out
}

// Transform recomputes world geometry from the owner's state
// Deterministic: equal inputs yield bit-identical geometry
func (c *Collider) Transform(position vmath.Vec3, rotation vmath.Rotation, scale vmath.Scale, ownerSize vmath.Size) {
	c.transformation = vmath.Transformation{Position: position, Rotation: rotation, Scale: scale}
	c.size = ownerSize

	spec := c.spec
	totalScale := scale
	if spec.Scale != (vmath.Scale{}) {
		totalScale = scale.Mul(spec.Scale)
	}
	totalRotation := rotation.Add(spec.Rotation)

	displacement := vmath.Rotate(totalScale.Apply(spec.Displacement), rotation)
	center := position.Add(displacement)

	size := spec.PixelSize
	if size == (vmath.Size{}) {
		size = ownerSize
	}
	extent := totalScale.Apply(size.Vec())

	g := Geometry{Center: center}
	switch c.kind {
	case KindBox, KindInverseBox:
		c.buildBox(&g, extent, totalRotation)
	case KindBall:
		c.buildBall(&g, extent)
	case KindLineField:
		c.buildLineField(&g, extent, totalRotation)
	}
	c.geometry = g
}

func (c *Collider) buildBox(g *Geometry, extent vmath.Vec3, rotation vmath.Rotation) {
	h := vmath.Vec3{X: vmath.Abs(extent.X) >> 1, Y: vmath.Abs(extent.Y) >> 1, Z: vmath.Abs(extent.Z) >> 1}
	g.HalfExtents = h
	// A box with fewer than two real dimensions has no area to collide with
	flat := 0
	for _, v := range [3]vmath.Fixed{h.X, h.Y, h.Z} {
		if v == 0 {
			flat++
		}
	}
	c.degenerate = flat > 1

	g.Normals = [3]vmath.Vec3{
		vmath.Rotate(vmath.UnitX, rotation),
		vmath.Rotate(vmath.UnitY, rotation),
		vmath.Rotate(vmath.UnitZ, rotation),
	}
	for i := 0; i < 8; i++ {
		local := vmath.Vec3{X: -h.X, Y: -h.Y, Z: -h.Z}
		if i&1 != 0 {
			local.X = h.X
		}
		if i&2 != 0 {
			local.Y = h.Y
		}
		if i&4 != 0 {
			local.Z = h.Z
		}
		g.Vertices[i] = g.Center.Add(vmath.Rotate(local, rotation))
	}
	g.Bounds = AABB{Min: g.Vertices[0], Max: g.Vertices[0]}
	for _, v := range g.Vertices[1:] {
		g.Bounds.Min = vmath.MinV(g.Bounds.Min, v)
		g.Bounds.Max = vmath.MaxV(g.Bounds.Max, v)
	}
}

func (c *Collider) buildBall(g *Geometry, extent vmath.Vec3) {
	diameter := vmath.Abs(extent.X)
	if c.spec.PixelSize == (vmath.Size{}) {
		diameter = vmath.Max(vmath.Abs(extent.X), vmath.Max(vmath.Abs(extent.Y), vmath.Abs(extent.Z)))
	}
	g.Radius = diameter >> 1
	c.degenerate = g.Radius == 0
	r := vmath.Vec3{X: g.Radius, Y: g.Radius, Z: g.Radius}
	g.Bounds = AABB{Min: g.Center.Sub(r), Max: g.Center.Add(r)}
}

func (c *Collider) buildLineField(g *Geometry, extent vmath.Vec3, rotation vmath.Rotation) {
	g.Length = vmath.Abs(extent.X)
	g.Depth = vmath.Abs(extent.Y)
	if g.Depth == 0 {
		g.Depth = DefaultLineFieldDepth
	}
	g.Direction = vmath.Rotate(vmath.UnitX, rotation)
	normal, ok := vmath.Vec3{X: g.Direction.Y, Y: -g.Direction.X}.Normalize()
	g.Normal = normal
	c.degenerate = !ok || g.Length == 0

	half := g.Direction.Scale(g.Length >> 1)
	g.A = g.Center.Sub(half)
	g.B = g.Center.Add(half)
	behind := g.Normal.Scale(-g.Depth)
	g.Bounds = AABB{Min: vmath.MinV(g.A, g.B), Max: vmath.MaxV(g.A, g.B)}
	g.Bounds.Min = vmath.MinV(g.Bounds.Min, vmath.MinV(g.A.Add(behind), g.B.Add(behind)))
	g.Bounds.Max = vmath.MaxV(g.Bounds.Max, vmath.MaxV(g.A.Add(behind), g.B.Add(behind)))
}

// trackContact records a positive test, reporting whether the contact is new
func (c *Collider) trackContact(info CollisionInformation, frame int64) (started bool) {
	for i := 0; i < c.contactCount; i++ {
		if c.contacts[i].other == info.Other {
			c.contacts[i].frame = frame
			c.contacts[i].info = info
			return false
		}
	}
	if c.contactCount < MaxContacts {
		c.contacts[c.contactCount] = contact{other: info.Other, frame: frame, info: info}
		c.contactCount++
	}
	return true
}

// expireContacts drops contacts not refreshed in frame and returns them through fn
func (c *Collider) expireContacts(frame int64, fn func(CollisionInformation)) {
	n := 0
	for i := 0; i < c.contactCount; i++ {
		ct := c.contacts[i]
		if ct.frame == frame {
			c.contacts[n] = ct
			n++
			continue
		}
		fn(ct.info)
	}
	for i := n; i < c.contactCount; i++ {
		c.contacts[i] = contact{}
	}
	c.contactCount = n
}

// dropContact removes other, returning the information last recorded for it
func (c *Collider) dropContact(other *Collider) (CollisionInformation, bool) {
	for i := 0; i < c.contactCount; i++ {
		if c.contacts[i].other != other {
			continue
		}
		info := c.contacts[i].info
		copy(c.contacts[i:c.contactCount], c.contacts[i+1:c.contactCount])
		c.contactCount--
		c.contacts[c.contactCount] = contact{}
		return info, true
	}
	return CollisionInformation{}, false
}
