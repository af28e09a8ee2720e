package collision

import (
	"github.com/lixenwraith/parallax/vmath"
)

// Solution describes how Collider separates from Other
type Solution struct {
	Direction   vmath.Vec3  // Unit vector along which Collider must move
	Depth       vmath.Fixed // Penetration along Direction
	Translation vmath.Vec3  // Direction * Depth
}

func newSolution(direction vmath.Vec3, depth vmath.Fixed) Solution {
	return Solution{
		Direction:   direction,
		Depth:       depth,
		Translation: direction.Scale(depth),
	}
}

// Inverse returns the solution from Other's point of view
func (s Solution) Inverse() Solution {
	return Solution{
		Direction:   s.Direction.Neg(),
		Depth:       s.Depth,
		Translation: s.Translation.Neg(),
	}
}

// CollisionInformation is the ephemeral result of a positive narrow phase test
type CollisionInformation struct {
	Collider *Collider
	Other    *Collider
	Solution Solution
}

// Mirror swaps the pair, keeping the solution relative to the new Collider
func (ci CollisionInformation) Mirror() CollisionInformation {
	return CollisionInformation{
		Collider: ci.Other,
		Other:    ci.Collider,
		Solution: ci.Solution.Inverse(),
	}
}
