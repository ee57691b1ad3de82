package skeleton

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Transform is a joint's pose relative to its parent. Rotation is a unit quaternion.
type Transform struct {
	Position rl.Vector3
	Rotation rl.Quaternion
	Scale    rl.Vector3
}

// IdentityTransform returns a transform with no translation, rotation or scale.
func IdentityTransform() Transform {
	return Transform{
		Position: rl.Vector3{},
		Rotation: rl.QuaternionIdentity(),
		Scale:    rl.Vector3{X: 1, Y: 1, Z: 1},
	}
}

// Pose is a joint's world-space transform.
type Pose struct {
	Position rl.Vector3
	Rotation rl.Quaternion
	Scale    rl.Vector3
}

type Joint struct {
	Name     string
	Bone     bool // false for helper children that carry no bone
	Local    Transform
	Parent   *Joint
	Children []*Joint

	index int
	world Pose // cached by Skeleton.UpdateWorld
}

func newJoint(name string, local Transform, bone bool) *Joint {
	return &Joint{
		Name:     name,
		Bone:     bone,
		Local:    local,
		Children: make([]*Joint, 0),
	}
}

// Index returns the joint's position in its skeleton's ordered joint list.
func (j *Joint) Index() int {
	return j.index
}

// WorldPose computes the joint's current world transform from live local transforms.
func (j *Joint) WorldPose() Pose {
	// Collect ancestors root-first so composition stays iterative
	var chain []*Joint
	for n := j; n != nil; n = n.Parent {
		chain = append(chain, n)
	}

	pose := rootPose()
	for i := len(chain) - 1; i >= 0; i-- {
		pose = compose(pose, chain[i].Local)
	}
	return pose
}

func (j *Joint) WorldPosition() rl.Vector3 {
	return j.WorldPose().Position
}

func (j *Joint) WorldRotation() rl.Quaternion {
	return j.WorldPose().Rotation
}

func (j *Joint) WorldScale() rl.Vector3 {
	return j.WorldPose().Scale
}

// CachedPose returns the world transform from the last Skeleton.UpdateWorld.
func (j *Joint) CachedPose() Pose {
	return j.world
}

// SetWorldRotation sets the local rotation so the joint ends up with the given
// world rotation. A root joint takes it directly as its local rotation.
func (j *Joint) SetWorldRotation(world rl.Quaternion) {
	if j.Parent == nil {
		j.Local.Rotation = rl.QuaternionNormalize(world)
		return
	}
	parentInv := rl.QuaternionInvert(j.Parent.WorldRotation())
	j.Local.Rotation = rl.QuaternionNormalize(rl.QuaternionMultiply(parentInv, world))
}

// IsAncestorOf reports whether j is a strict ancestor of other.
func (j *Joint) IsAncestorOf(other *Joint) bool {
	for n := other.Parent; n != nil; n = n.Parent {
		if n == j {
			return true
		}
	}
	return false
}

var (
	identityRotation = rl.Quaternion{X: 0, Y: 0, Z: 0, W: 1}
	unitScale        = rl.Vector3{X: 1, Y: 1, Z: 1}
)

func rootPose() Pose {
	return Pose{Rotation: identityRotation, Scale: unitScale}
}

// compose applies local on top of the parent world pose.
func compose(parent Pose, local Transform) Pose {
	scaled := rl.Vector3Multiply(local.Position, parent.Scale)
	return Pose{
		Position: rl.Vector3Add(parent.Position, rl.Vector3RotateByQuaternion(scaled, parent.Rotation)),
		Rotation: rl.QuaternionNormalize(rl.QuaternionMultiply(parent.Rotation, local.Rotation)),
		Scale:    rl.Vector3Multiply(parent.Scale, local.Scale),
	}
}
