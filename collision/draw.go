package collision

import (
	"github.com/lixenwraith/parallax/vmath"
)

// Drawer receives world-space wireframe segments; returning false stops drawing
type Drawer interface {
	DrawLine(from, to vmath.Vec3, color uint8) bool
}

const ballSegments = 16

// boxEdges index vertex pairs differing in exactly one bit
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Draw emits the collider wireframe
func (c *Collider) Draw(d Drawer, color uint8) bool {
	g := &c.geometry
	switch c.kind {
	case KindBox, KindInverseBox:
		for _, e := range boxEdges {
			if !d.DrawLine(g.Vertices[e[0]], g.Vertices[e[1]], color) {
				return false
			}
		}
	case KindBall:
		step := vmath.FullTurn / ballSegments
		prev := g.Center.Add(vmath.Vec3{X: g.Radius})
		for i := 1; i <= ballSegments; i++ {
			a := step * vmath.Angle(i)
			next := g.Center.Add(vmath.Vec3{X: vmath.Mul(g.Radius, vmath.Cos(a)), Y: vmath.Mul(g.Radius, vmath.Sin(a))})
			if !d.DrawLine(prev, next, color) {
				return false
			}
			prev = next
		}
	case KindLineField:
		if !d.DrawLine(g.A, g.B, color) {
			return false
		}
		return d.DrawLine(g.Center, g.Center.Add(g.Normal.Scale(g.Depth)), color)
	}
	return true
}

// Draw emits wireframes for every enabled collider
func (m *Manager) Draw(d Drawer, color uint8) {
	m.Each(func(c *Collider) bool {
		if !c.enabled {
			return true
		}
		return c.Draw(d, color)
	})
}
