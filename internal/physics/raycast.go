package physics

import (
	"math"

	"rigsim/internal/geom"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type RaycastHit struct {
	Collider Collider
	Bone     string // body capsule's parent joint, empty for other colliders
	Point    rl.Vector3
	Normal   rl.Vector3
	Distance float32
}

// Raycast returns the closest hit among the floor, body capsules and obstacles.
func (s *System) Raycast(origin, direction rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	direction = geom.SafeNormalize(direction, rl.Vector3{})
	if direction == (rl.Vector3{}) {
		return RaycastHit{}, false
	}

	var closest RaycastHit
	closest.Distance = maxDistance
	hit := false
	keep := func(h RaycastHit, ok bool) {
		if ok && h.Distance < closest.Distance {
			closest = h
			hit = true
		}
	}

	for _, c := range s.colliders {
		switch col := c.(type) {
		case *FloorCollider:
			h, ok := raycastPlane(origin, direction, col.Y, maxDistance)
			h.Collider = col
			keep(h, ok)
		case *CapsuleCollider:
			col.set.Refresh()
			for _, link := range col.set.Links() {
				h, ok := RaycastCapsule(origin, direction, link.Capsule, maxDistance)
				h.Collider = col
				h.Bone = link.Parent.Name
				keep(h, ok)
			}
		case *ObstacleCollider:
			for _, capsule := range col.Capsules {
				h, ok := RaycastCapsule(origin, direction, capsule, maxDistance)
				h.Collider = col
				keep(h, ok)
			}
		}
	}
	return closest, hit
}

func raycastPlane(origin, direction rl.Vector3, y, maxDistance float32) (RaycastHit, bool) {
	if abs(direction.Y) < 1e-6 {
		return RaycastHit{}, false
	}
	t := (y - origin.Y) / direction.Y
	if t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}
	normal := geom.Up
	if origin.Y < y {
		normal = rl.Vector3Negate(normal)
	}
	return RaycastHit{
		Point:    rl.Vector3Add(origin, rl.Vector3Scale(direction, t)),
		Normal:   normal,
		Distance: t,
	}, true
}

// RaycastCapsule intersects a ray (unit direction) with a capsule: the side
// of the cylinder first, then the two end spheres.
func RaycastCapsule(origin, direction rl.Vector3, c geom.Capsule, maxDistance float32) (RaycastHit, bool) {
	ba := rl.Vector3Subtract(c.End, c.Start)
	oa := rl.Vector3Subtract(origin, c.Start)
	baba := rl.Vector3DotProduct(ba, ba)
	bard := rl.Vector3DotProduct(ba, direction)
	baoa := rl.Vector3DotProduct(ba, oa)
	rdoa := rl.Vector3DotProduct(direction, oa)
	oaoa := rl.Vector3DotProduct(oa, oa)

	best := float32(-1)

	a := baba - bard*bard
	if a > 1e-8 {
		b := baba*rdoa - baoa*bard
		cc := baba*oaoa - baoa*baoa - c.Radius*c.Radius*baba
		h := b*b - a*cc
		if h >= 0 {
			t := (-b - float32(math.Sqrt(float64(h)))) / a
			y := baoa + t*bard
			if t >= 0 && y > 0 && y < baba {
				best = t
			}
		}
	}

	for _, center := range [2]rl.Vector3{c.Start, c.End} {
		if t, ok := raySphere(origin, direction, center, c.Radius); ok && (best < 0 || t < best) {
			best = t
		}
	}

	if best < 0 || best > maxDistance {
		return RaycastHit{}, false
	}
	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, best))
	normal := geom.SafeNormalize(rl.Vector3Subtract(point, c.ClosestAxisPoint(point)), geom.Up)
	return RaycastHit{Point: point, Normal: normal, Distance: best}, true
}

func raySphere(origin, direction, center rl.Vector3, radius float32) (float32, bool) {
	oc := rl.Vector3Subtract(origin, center)
	b := rl.Vector3DotProduct(oc, direction)
	c := rl.Vector3DotProduct(oc, oc) - radius*radius

	discriminant := b*b - c
	if discriminant < 0 {
		return 0, false
	}

	sq := float32(math.Sqrt(float64(discriminant)))
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
