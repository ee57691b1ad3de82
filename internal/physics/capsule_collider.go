package physics

import (
	"rigsim/internal/geom"
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

// CapsuleCollider exposes a skeleton's bone capsules to point queries.
// A body never collides with its own capsules.
type CapsuleCollider struct {
	set *CapsuleSet
}

func NewCapsuleCollider(sk *skeleton.Skeleton, radiusMultiplier float32, logger *zap.Logger) *CapsuleCollider {
	return &CapsuleCollider{set: BuildCapsules(sk, radiusMultiplier, logger)}
}

// Set returns the underlying capsule set.
func (c *CapsuleCollider) Set() *CapsuleSet {
	return c.set
}

// NearestCapsule returns the capsule whose surface is closest to p and the
// signed distance to it (negative inside).
func (c *CapsuleCollider) NearestCapsule(p rl.Vector3) (BoneCapsule, float32, bool) {
	c.set.Refresh()

	var best BoneCapsule
	bestDist := float32(0)
	found := false
	for _, link := range c.set.Links() {
		d := rl.Vector3Distance(p, link.ClosestAxisPoint(p)) - link.Radius
		if !found || d < bestDist {
			best = link
			bestDist = d
			found = true
		}
	}
	return best, bestDist, found
}

func (c *CapsuleCollider) CheckCollision(s Subject) bool {
	if s.Kind != SubjectPoint {
		return false
	}
	_, d, ok := c.NearestCapsule(s.Point)
	return ok && d < 0
}

func (c *CapsuleCollider) ResolveCollision(s Subject) (geom.Contact, bool) {
	if s.Kind != SubjectPoint {
		return geom.Contact{}, false
	}
	link, d, ok := c.NearestCapsule(s.Point)
	if !ok || d >= 0 {
		return geom.Contact{}, false
	}

	axis := link.ClosestAxisPoint(s.Point)
	normal := geom.SafeNormalize(rl.Vector3Subtract(s.Point, axis), geom.Up)
	return geom.Contact{
		Normal:      normal,
		Penetration: -d,
		Point:       rl.Vector3Add(axis, rl.Vector3Scale(normal, link.Radius)),
		HasPoint:    true,
	}, true
}

// ResolvePointCollision returns the smallest translation that moves p onto the
// surface of the capsule it is inside.
func (c *CapsuleCollider) ResolvePointCollision(p rl.Vector3) (rl.Vector3, bool) {
	contact, ok := c.ResolveCollision(PointSubject(p))
	if !ok {
		return rl.Vector3{}, false
	}
	return rl.Vector3Scale(contact.Normal, contact.Penetration), true
}

// ResolveBodyCollision pushes this skeleton's capsules out of env. See ResolveCapsuleSets.
func (c *CapsuleCollider) ResolveBodyCollision(env []geom.Capsule) (rl.Vector3, bool) {
	return ResolveCapsuleSets(c.set.Capsules(), env)
}

// ResolveCapsuleSets returns the push that moves own out of env: the average of
// every overlapping pair's separation vector. Averaging is an approximation and
// can leave a contact partly penetrating when several overlap at once.
func ResolveCapsuleSets(own, env []geom.Capsule) (rl.Vector3, bool) {
	var sum rl.Vector3
	count := 0
	for _, a := range own {
		boundsA := a.Bounds()
		for _, b := range env {
			if !boundsA.Intersects(b.Bounds()) {
				continue
			}
			contact, hit := geom.ResolveCapsuleCollision(a, b)
			if !hit {
				continue
			}
			sum = rl.Vector3Subtract(sum, rl.Vector3Scale(contact.Normal, contact.Penetration))
			count++
		}
	}
	if count == 0 {
		return rl.Vector3{}, false
	}
	return rl.Vector3Scale(sum, 1/float32(count)), true
}
