package geom

import rl "github.com/gen2brain/raylib-go/raylib"

// Capsule is a swept sphere around the segment Start-End.
type Capsule struct {
	Start  rl.Vector3
	End    rl.Vector3
	Radius float32
}

// Length returns the axis length.
func (c Capsule) Length() float32 {
	return rl.Vector3Distance(c.Start, c.End)
}

// Lowest returns the lowest Y reached by the capsule surface.
func (c Capsule) Lowest() float32 {
	y := c.Start.Y
	if c.End.Y < y {
		y = c.End.Y
	}
	return y - c.Radius
}

// ClosestAxisPoint returns the point on the capsule axis nearest to p.
func (c Capsule) ClosestAxisPoint(p rl.Vector3) rl.Vector3 {
	return PointToSegmentClosest(p, c.Start, c.End)
}

// Contact describes how to separate two overlapping shapes.
type Contact struct {
	Normal      rl.Vector3
	Penetration float32
	Point       rl.Vector3
	HasPoint    bool
}

// PointToCapsuleDistance returns the distance from p to the capsule surface, 0 inside.
func PointToCapsuleDistance(p rl.Vector3, c Capsule) float32 {
	d := rl.Vector3Distance(p, c.ClosestAxisPoint(p)) - c.Radius
	if d < 0 {
		return 0
	}
	return d
}

// ResolveCapsuleCollision reports the overlap between a and b. The normal points
// from a's axis toward b's, so pushing a by -Normal*Penetration separates them.
func ResolveCapsuleCollision(a, b Capsule) (Contact, bool) {
	pa, pb := ClosestPointsBetweenSegments(a.Start, a.End, b.Start, b.End)
	diff := rl.Vector3Subtract(pb, pa)
	dist := rl.Vector3Length(diff)
	sumRadii := a.Radius + b.Radius
	if dist >= sumRadii {
		return Contact{}, false
	}

	normal := SafeNormalize(diff, Up)

	// Midpoint between the two surface points
	surfA := rl.Vector3Add(pa, rl.Vector3Scale(normal, a.Radius))
	surfB := rl.Vector3Subtract(pb, rl.Vector3Scale(normal, b.Radius))

	return Contact{
		Normal:      normal,
		Penetration: sumRadii - dist,
		Point:       rl.Vector3Lerp(surfA, surfB, 0.5),
		HasPoint:    true,
	}, true
}
