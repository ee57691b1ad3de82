package physics

import (
	"rigsim/internal/geom"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

// Body is a character the colliders can inspect and push.
type Body interface {
	// Capsules returns the body's capsules at their current pose.
	Capsules() []geom.Capsule
	// GroundPoints returns world positions of the joints that touch the ground.
	GroundPoints() []rl.Vector3
	// MoveRoot translates the body's root.
	MoveRoot(delta rl.Vector3)
}

type SubjectKind int

const (
	SubjectPoint SubjectKind = iota + 1
	SubjectBody
)

// Subject is what a collider is asked about: a single point or a whole body.
type Subject struct {
	Kind  SubjectKind
	Point rl.Vector3
	Body  Body
}

func PointSubject(p rl.Vector3) Subject {
	return Subject{Kind: SubjectPoint, Point: p}
}

func BodySubject(b Body) Subject {
	return Subject{Kind: SubjectBody, Body: b}
}

type Collider interface {
	CheckCollision(s Subject) bool
	ResolveCollision(s Subject) (geom.Contact, bool)
}

// System holds colliders in priority order. Only the first collider that
// reports a collision resolves it, so one correction is applied per query.
type System struct {
	colliders []Collider
	log       *zap.Logger
}

func NewSystem(logger *zap.Logger, colliders ...Collider) *System {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &System{
		colliders: make([]Collider, 0, len(colliders)),
		log:       logger,
	}
	for _, c := range colliders {
		s.Add(c)
	}
	return s
}

func (s *System) Add(c Collider) {
	if c == nil {
		return
	}
	s.colliders = append(s.colliders, c)
	s.log.Debug("collider added", zap.String("type", colliderName(c)), zap.Int("count", len(s.colliders)))
}

func (s *System) Colliders() []Collider {
	return s.colliders
}

// CheckCollisions resolves against the first colliding collider in list order.
func (s *System) CheckCollisions(subject Subject) (geom.Contact, bool) {
	for _, c := range s.colliders {
		if c.CheckCollision(subject) {
			return c.ResolveCollision(subject)
		}
	}
	return geom.Contact{}, false
}

// CheckPointCollision tests a point against the capsule colliders only and
// resolves it against the nearest capsule if the point is inside it.
func (s *System) CheckPointCollision(p rl.Vector3) (geom.Contact, bool) {
	var nearest *CapsuleCollider
	best := float32(0)
	for _, c := range s.colliders {
		cc, ok := c.(*CapsuleCollider)
		if !ok {
			continue
		}
		_, dist, found := cc.NearestCapsule(p)
		if !found {
			continue
		}
		if nearest == nil || dist < best {
			nearest = cc
			best = dist
		}
	}
	if nearest == nil || best >= 0 {
		return geom.Contact{}, false
	}
	return nearest.ResolveCollision(PointSubject(p))
}

func colliderName(c Collider) string {
	switch c.(type) {
	case *FloorCollider:
		return "floor"
	case *CapsuleCollider:
		return "capsules"
	case *ObstacleCollider:
		return "obstacles"
	default:
		return "custom"
	}
}
