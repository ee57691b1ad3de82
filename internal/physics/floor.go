package physics

import (
	"rigsim/internal/geom"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// FloorMode selects what the floor measures the body by.
type FloorMode int

const (
	// FloorCapsules uses the lowest point of the body's capsules.
	FloorCapsules FloorMode = iota
	// FloorGroundBones uses the lowest of the body's named ground joints.
	FloorGroundBones
)

const (
	// Contact is reported slightly above the floor so a resting body stays grounded
	floorTolerance = 0.01
	// Corrections smaller than this are dropped to avoid jitter
	minFloorCorrection = 0.001
)

// FloorCollider is an infinite horizontal plane at height Y.
type FloorCollider struct {
	Y    float32
	Mode FloorMode
}

func NewFloorCollider(y float32, mode FloorMode) *FloorCollider {
	return &FloorCollider{Y: y, Mode: mode}
}

// lowest returns the lowest Y the floor should compare against.
func (f *FloorCollider) lowest(body Body) (float32, bool) {
	if body == nil {
		return 0, false
	}

	found := false
	var low float32
	switch f.Mode {
	case FloorGroundBones:
		for _, p := range body.GroundPoints() {
			if !found || p.Y < low {
				low = p.Y
				found = true
			}
		}
	default:
		for _, c := range body.Capsules() {
			if y := c.Lowest(); !found || y < low {
				low = y
				found = true
			}
		}
	}
	return low, found
}

// CheckCollision is true when the body reaches down to the floor. Points never
// collide with the floor.
func (f *FloorCollider) CheckCollision(s Subject) bool {
	if s.Kind != SubjectBody {
		return false
	}
	low, ok := f.lowest(s.Body)
	return ok && low <= f.Y+floorTolerance
}

// ResolveCollision lifts the body's root straight up by the deepest penetration.
func (f *FloorCollider) ResolveCollision(s Subject) (geom.Contact, bool) {
	if s.Kind != SubjectBody {
		return geom.Contact{}, false
	}
	low, ok := f.lowest(s.Body)
	if !ok {
		return geom.Contact{}, false
	}

	contact := geom.Contact{Normal: geom.Up}
	penetration := f.Y - low
	if penetration < minFloorCorrection {
		return contact, true
	}

	s.Body.MoveRoot(rl.Vector3{Y: penetration})
	contact.Penetration = penetration
	return contact, true
}
