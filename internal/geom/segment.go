package geom

import rl "github.com/gen2brain/raylib-go/raylib"

// PointToSegmentClosest returns the point on segment a-b closest to p.
// A segment shorter than Epsilon is treated as the point a.
func PointToSegmentClosest(p, a, b rl.Vector3) rl.Vector3 {
	axis := rl.Vector3Subtract(b, a)
	length := rl.Vector3Length(axis)
	if length < Epsilon {
		return a
	}
	dir := rl.Vector3Scale(axis, 1/length)
	t := clamp(rl.Vector3DotProduct(rl.Vector3Subtract(p, a), dir), 0, length)
	return rl.Vector3Add(a, rl.Vector3Scale(dir, t))
}

// ClosestPointsBetweenSegments returns the closest pair of points on segments
// a0-a1 and b0-b1. Segments whose directions are near-parallel (sin² of the
// angle between them below Epsilon) skip the linear solve and fall back to
// clamped projections.
func ClosestPointsBetweenSegments(a0, a1, b0, b1 rl.Vector3) (rl.Vector3, rl.Vector3) {
	d1 := rl.Vector3Subtract(a1, a0)
	d2 := rl.Vector3Subtract(b1, b0)
	r := rl.Vector3Subtract(a0, b0)

	a := rl.Vector3DotProduct(d1, d1)
	e := rl.Vector3DotProduct(d2, d2)
	f := rl.Vector3DotProduct(d2, r)

	// Both segments degenerate to points
	if a < Epsilon*Epsilon && e < Epsilon*Epsilon {
		return a0, b0
	}
	if a < Epsilon*Epsilon {
		return a0, PointToSegmentClosest(a0, b0, b1)
	}
	if e < Epsilon*Epsilon {
		return PointToSegmentClosest(b0, a0, a1), b0
	}

	c := rl.Vector3DotProduct(d1, r)
	b := rl.Vector3DotProduct(d1, d2)
	denom := a*e - b*b

	var s float32
	if denom > Epsilon*a*e {
		s = clamp((b*f-c*e)/denom, 0, 1)
	} else {
		// Parallel: project b0 onto A
		s = clamp(-c/a, 0, 1)
	}

	t := (b*s + f) / e
	if t < 0 {
		t = 0
		s = clamp(-c/a, 0, 1)
	} else if t > 1 {
		t = 1
		s = clamp((b-c)/a, 0, 1)
	}

	return rl.Vector3Add(a0, rl.Vector3Scale(d1, s)), rl.Vector3Add(b0, rl.Vector3Scale(d2, t))
}
