package sim

import (
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type Vec3 struct {
	X float32 `yaml:"x" json:"x"`
	Y float32 `yaml:"y" json:"y"`
	Z float32 `yaml:"z" json:"z"`
}

type Quat struct {
	X float32 `yaml:"x" json:"x"`
	Y float32 `yaml:"y" json:"y"`
	Z float32 `yaml:"z" json:"z"`
	W float32 `yaml:"w" json:"w"`
}

func toVec3(v rl.Vector3) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

func toQuat(q rl.Quaternion) Quat {
	return Quat{X: q.X, Y: q.Y, Z: q.Z, W: q.W}
}

func (v Vec3) Vector3() rl.Vector3 {
	return rl.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

type JointState struct {
	Name          string `yaml:"name" json:"name"`
	Parent        string `yaml:"parent,omitempty" json:"parent,omitempty"`
	LocalRotation Quat   `yaml:"local_rotation" json:"local_rotation"`
	WorldPosition Vec3   `yaml:"world_position" json:"world_position"`
	WorldRotation Quat   `yaml:"world_rotation" json:"world_rotation"`
}

type CapsuleState struct {
	Bone     string  `yaml:"bone" json:"bone"`
	Child    string  `yaml:"child" json:"child"`
	Category string  `yaml:"category" json:"category"`
	Start    Vec3    `yaml:"start" json:"start"`
	End      Vec3    `yaml:"end" json:"end"`
	Radius   float32 `yaml:"radius" json:"radius"`
}

type TargetState struct {
	Chain    string  `yaml:"chain" json:"chain"`
	Position Vec3    `yaml:"position" json:"position"`
	Distance float32 `yaml:"tip_distance" json:"tip_distance"`
}

// Snapshot is the read-back a renderer or tool consumes after a frame.
type Snapshot struct {
	Frame    uint64         `yaml:"frame" json:"frame"`
	Root     Vec3           `yaml:"root" json:"root"`
	Velocity Vec3           `yaml:"velocity" json:"velocity"`
	Grounded bool           `yaml:"grounded" json:"grounded"`
	Joints   []JointState   `yaml:"joints" json:"joints"`
	Capsules []CapsuleState `yaml:"capsules" json:"capsules"`
	Targets  []TargetState  `yaml:"targets,omitempty" json:"targets,omitempty"`
}

// Snapshot captures the current pose, physics state and capsules.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Frame:    s.frame,
		Root:     toVec3(s.Character.RootPosition()),
		Velocity: toVec3(s.Character.Velocity()),
		Grounded: s.Character.IsGrounded(),
	}

	if s.Skeleton != nil {
		s.Skeleton.UpdateWorld()
		for _, j := range s.Skeleton.Joints() {
			pose := j.CachedPose()
			js := JointState{
				Name:          j.Name,
				LocalRotation: toQuat(j.Local.Rotation),
				WorldPosition: toVec3(pose.Position),
				WorldRotation: toQuat(pose.Rotation),
			}
			if j.Parent != nil {
				js.Parent = j.Parent.Name
			}
			snap.Joints = append(snap.Joints, js)
		}
	}

	set := s.Body.Set()
	set.Refresh()
	for _, link := range set.Links() {
		snap.Capsules = append(snap.Capsules, CapsuleState{
			Bone:     link.Parent.Name,
			Child:    link.Child.Name,
			Category: link.Category.String(),
			Start:    toVec3(link.Start),
			End:      toVec3(link.End),
			Radius:   link.Radius,
		})
	}

	for _, c := range s.Solver.Chains() {
		if pos, ok := c.Target(); ok {
			snap.Targets = append(snap.Targets, TargetState{
				Chain:    c.Name,
				Position: toVec3(pos),
				Distance: c.TipDistance(),
			})
		}
	}
	sort.Slice(snap.Targets, func(i, j int) bool {
		return snap.Targets[i].Chain < snap.Targets[j].Chain
	})
	return snap
}
