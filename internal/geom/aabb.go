package geom

import rl "github.com/gen2brain/raylib-go/raylib"

type AABB struct {
	Min rl.Vector3
	Max rl.Vector3
}

func (a AABB) Intersects(b AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// Bounds returns the axis-aligned box enclosing the capsule.
func (c Capsule) Bounds() AABB {
	r := rl.Vector3{X: c.Radius, Y: c.Radius, Z: c.Radius}
	return AABB{
		Min: rl.Vector3Subtract(rl.Vector3Min(c.Start, c.End), r),
		Max: rl.Vector3Add(rl.Vector3Max(c.Start, c.End), r),
	}
}
