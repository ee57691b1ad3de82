package physics

import (
	"rigsim/internal/geom"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ObstacleCollider is a fixed set of environment capsules.
type ObstacleCollider struct {
	Capsules []geom.Capsule
}

func NewObstacleCollider(capsules []geom.Capsule) *ObstacleCollider {
	return &ObstacleCollider{Capsules: capsules}
}

func (o *ObstacleCollider) CheckCollision(s Subject) bool {
	switch s.Kind {
	case SubjectPoint:
		_, hit := o.resolvePoint(s.Point)
		return hit
	case SubjectBody:
		if s.Body == nil {
			return false
		}
		for _, a := range s.Body.Capsules() {
			for _, b := range o.Capsules {
				if _, hit := geom.ResolveCapsuleCollision(a, b); hit {
					return true
				}
			}
		}
	}
	return false
}

// ResolveCollision moves a body's root by the averaged push out of every
// obstacle it overlaps.
func (o *ObstacleCollider) ResolveCollision(s Subject) (geom.Contact, bool) {
	switch s.Kind {
	case SubjectPoint:
		return o.resolvePoint(s.Point)
	case SubjectBody:
		if s.Body == nil {
			return geom.Contact{}, false
		}
		push, hit := ResolveCapsuleSets(s.Body.Capsules(), o.Capsules)
		if !hit {
			return geom.Contact{}, false
		}
		s.Body.MoveRoot(push)
		return geom.Contact{
			Normal:      geom.SafeNormalize(push, geom.Up),
			Penetration: rl.Vector3Length(push),
		}, true
	}
	return geom.Contact{}, false
}

func (o *ObstacleCollider) resolvePoint(p rl.Vector3) (geom.Contact, bool) {
	for _, c := range o.Capsules {
		axis := c.ClosestAxisPoint(p)
		dist := rl.Vector3Distance(p, axis)
		if dist >= c.Radius {
			continue
		}
		normal := geom.SafeNormalize(rl.Vector3Subtract(p, axis), geom.Up)
		return geom.Contact{
			Normal:      normal,
			Penetration: c.Radius - dist,
			Point:       rl.Vector3Add(axis, rl.Vector3Scale(normal, c.Radius)),
			HasPoint:    true,
		}, true
	}
	return geom.Contact{}, false
}
