package collision

import (
	"github.com/lixenwraith/parallax/vmath"
)

// minAxisMagSq rejects near-parallel edge cross products
var minAxisMagSq = vmath.FromRatio(1, 4096)

// hull is a collider's geometry after the tester's displacement and inflation
type hull struct {
	kind     Kind
	g        Geometry
	inflate  vmath.Fixed
	vertices []vmath.Vec3
}

func newHull(c *Collider, displacement vmath.Vec3, inflate vmath.Fixed) hull {
	h := hull{kind: c.kind, g: c.geometry, inflate: inflate}
	if !displacement.IsZero() {
		h.g.Center = h.g.Center.Add(displacement)
		for i := range h.g.Vertices {
			h.g.Vertices[i] = h.g.Vertices[i].Add(displacement)
		}
		h.g.A = h.g.A.Add(displacement)
		h.g.B = h.g.B.Add(displacement)
	}
	switch h.kind {
	case KindBox, KindInverseBox:
		h.vertices = h.g.Vertices[:]
	case KindLineField:
		h.vertices = []vmath.Vec3{h.g.A, h.g.B}
	}
	return h
}

// project returns the closed interval of the hull on axis
func (h *hull) project(axis vmath.Vec3) (lo, hi vmath.Fixed) {
	if h.kind == KindBall {
		c := h.g.Center.Dot(axis)
		lo, hi = c-h.g.Radius, c+h.g.Radius
	} else {
		lo = h.vertices[0].Dot(axis)
		hi = lo
		for _, v := range h.vertices[1:] {
			d := v.Dot(axis)
			lo = vmath.Min(lo, d)
			hi = vmath.Max(hi, d)
		}
	}
	return lo - h.inflate, hi + h.inflate
}

// TestForCollision runs the narrow phase with c as the tester
// displacement and sizeIncrement are applied to c only; the solution says how c separates
func (c *Collider) TestForCollision(other *Collider, displacement vmath.Vec3, sizeIncrement vmath.Fixed) (CollisionInformation, bool) {
	if other == nil || other == c || c.degenerate || other.degenerate {
		return CollisionInformation{}, false
	}
	a := newHull(c, displacement, sizeIncrement)
	b := newHull(other, vmath.Vec3{}, 0)

	var (
		sol Solution
		ok  bool
	)
	switch c.kind {
	case KindBox:
		switch other.kind {
		case KindBox:
			sol, ok = testBoxBox(&a, &b)
		case KindBall:
			sol, ok = testBoxBall(&a, &b, false)
		case KindLineField:
			sol, ok = testShapeLine(&a, &b, false)
		case KindInverseBox:
			sol, ok = testShapeInverse(&a, &b, false)
		}
	case KindBall:
		switch other.kind {
		case KindBall:
			sol, ok = testBallBall(&a, &b)
		case KindBox:
			sol, ok = testBoxBall(&b, &a, true)
		case KindLineField:
			sol, ok = testShapeLine(&a, &b, false)
		case KindInverseBox:
			sol, ok = testShapeInverse(&a, &b, false)
		}
	case KindLineField:
		switch other.kind {
		case KindBox, KindBall:
			sol, ok = testShapeLine(&b, &a, true)
		}
	case KindInverseBox:
		switch other.kind {
		case KindBox, KindBall:
			sol, ok = testShapeInverse(&b, &a, true)
		}
	}
	if !ok {
		return CollisionInformation{}, false
	}
	return CollisionInformation{Collider: c, Other: other, Solution: sol}, true
}

// axisPenetration returns the penetration of a into b along axis and the direction a must move
// ok is false on a separating gap; skip is true when both intervals collapse to the same point
func axisPenetration(a, b *hull, axis vmath.Vec3) (depth vmath.Fixed, dir vmath.Vec3, ok, skip bool) {
	aLo, aHi := a.project(axis)
	bLo, bHi := b.project(axis)
	if aLo == aHi && bLo == bHi {
		return 0, vmath.Vec3{}, aLo == bLo, aLo == bLo
	}
	down := aHi - bLo // a leaves through b's low side
	up := bHi - aLo   // a leaves through b's high side
	if down <= 0 || up <= 0 {
		return 0, vmath.Vec3{}, false, false
	}
	if down < up {
		return down, axis.Neg(), true, false
	}
	return up, axis, true, false
}

// satSearch keeps the first strictly smallest penetration across axes
type satSearch struct {
	found bool
	depth vmath.Fixed
	dir   vmath.Vec3
}

// test returns false when axis separates the hulls
func (s *satSearch) test(a, b *hull, axis vmath.Vec3) bool {
	depth, dir, ok, skip := axisPenetration(a, b, axis)
	if !ok {
		return false
	}
	if skip {
		return true
	}
	if !s.found || depth < s.depth {
		s.found, s.depth, s.dir = true, depth, dir
	}
	return true
}

func (s *satSearch) solution() (Solution, bool) {
	if !s.found {
		return Solution{}, false
	}
	return newSolution(s.dir, s.depth), true
}

// testBoxBox tests a's normals, b's normals, then the nine edge cross products
func testBoxBox(a, b *hull) (Solution, bool) {
	var s satSearch
	for _, n := range a.g.Normals {
		if !s.test(a, b, n) {
			return Solution{}, false
		}
	}
	for _, n := range b.g.Normals {
		if !s.test(a, b, n) {
			return Solution{}, false
		}
	}
	for _, na := range a.g.Normals {
		for _, nb := range b.g.Normals {
			cross := na.Cross(nb)
			if cross.MagSq() < minAxisMagSq {
				continue
			}
			axis, ok := cross.Normalize()
			if !ok {
				continue
			}
			if !s.test(a, b, axis) {
				return Solution{}, false
			}
		}
	}
	return s.solution()
}

// testBoxBall tests the box normals, then the axis from the box vertex closest to the ball center
// swapped means the ball is the tester
func testBoxBall(box, ball *hull, swapped bool) (Solution, bool) {
	var s satSearch
	a, b := box, ball
	if swapped {
		a, b = ball, box
	}
	for _, n := range box.g.Normals {
		if !s.test(a, b, n) {
			return Solution{}, false
		}
	}

	closest := box.g.Vertices[0]
	best := closest.Sub(ball.g.Center).MagSq()
	for _, v := range box.g.Vertices[1:] {
		if d := v.Sub(ball.g.Center).MagSq(); d < best {
			best, closest = d, v
		}
	}
	if axis, ok := ball.g.Center.Sub(closest).Normalize(); ok {
		if !s.test(a, b, axis) {
			return Solution{}, false
		}
	}
	return s.solution()
}

// testBallBall collides when the squared center distance is strictly below the squared radius sum
func testBallBall(a, b *hull) (Solution, bool) {
	delta := a.g.Center.Sub(b.g.Center)
	sum := a.g.Radius + a.inflate + b.g.Radius
	if sum <= 0 || delta.MagSq() >= vmath.Mul(sum, sum) {
		return Solution{}, false
	}
	dist := delta.Mag()
	dir, ok := delta.Normalize()
	if !ok {
		// Coincident centers
		dir = vmath.UnitX
	}
	return newSolution(dir, sum-dist), true
}

// testShapeLine tests a solid shape against a line field
// The shape collides when its span along the segment overlaps the segment and its deepest point
// lies behind the line by at most the field depth; touching the line is not a collision
// swapped means the line is the tester
func testShapeLine(shape, line *hull, swapped bool) (Solution, bool) {
	lg := &line.g
	inflate := shape.inflate + line.inflate

	var tLo, tHi, dMin vmath.Fixed
	if shape.kind == KindBall {
		rel := shape.g.Center.Sub(lg.A)
		t := rel.Dot(lg.Direction)
		r := shape.g.Radius + inflate
		tLo, tHi = t-r, t+r
		dMin = rel.Dot(lg.Normal) - r
	} else {
		for i, v := range shape.vertices {
			rel := v.Sub(lg.A)
			t, d := rel.Dot(lg.Direction), rel.Dot(lg.Normal)
			if i == 0 {
				tLo, tHi, dMin = t, t, d
				continue
			}
			tLo = vmath.Min(tLo, t)
			tHi = vmath.Max(tHi, t)
			dMin = vmath.Min(dMin, d)
		}
		tLo, tHi, dMin = tLo-inflate, tHi+inflate, dMin-inflate
	}

	if tHi <= 0 || tLo >= lg.Length {
		return Solution{}, false
	}
	if dMin >= 0 || dMin < -lg.Depth {
		return Solution{}, false
	}
	sol := newSolution(lg.Normal, -dMin)
	if swapped {
		return sol.Inverse(), true
	}
	return sol, true
}

// testShapeInverse tests a solid shape against the inside of an inverse box
// A shape fully inside does not collide; otherwise the axis of smallest protrusion wins,
// first axis on ties, as in the box test
// swapped means the inverse box is the tester
func testShapeInverse(shape, box *hull, swapped bool) (Solution, bool) {
	var (
		found bool
		depth vmath.Fixed
		dir   vmath.Vec3
	)
	for _, n := range box.g.Normals {
		bLo, bHi := box.project(n)
		if bLo == bHi {
			// Flat dimension is unbounded
			continue
		}
		sLo, sHi := shape.project(n)
		over, under := sHi-bHi, bLo-sLo
		if over <= 0 && under <= 0 {
			continue
		}
		p, d := over, n.Neg()
		if under > over {
			p, d = under, n
		}
		if !found || p < depth {
			found, depth, dir = true, p, d
		}
	}
	if !found {
		return Solution{}, false
	}
	sol := newSolution(dir, depth)
	if swapped {
		return sol.Inverse(), true
	}
	return sol, true
}
