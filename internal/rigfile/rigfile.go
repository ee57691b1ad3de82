package rigfile

import (
	"errors"
	"fmt"
	"os"

	"rigsim/internal/geom"
	"rigsim/internal/sim"
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoJoints      = errors.New("rigfile: rig has no joints")
	ErrRootHasParent = errors.New("rigfile: first joint must be the root")
)

// Vec3 is written as a flow sequence: [x, y, z].
type Vec3 [3]float32

func (v Vec3) Vector3() rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

func FromVector3(v rl.Vector3) Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

type JointSpec struct {
	Name     string `yaml:"name"`
	Parent   string `yaml:"parent,omitempty"`
	Position Vec3   `yaml:"position"`
	Rotation Vec3   `yaml:"rotation,omitempty"` // euler degrees, X Y Z
	Scale    *Vec3  `yaml:"scale,omitempty"`
	Bone     *bool  `yaml:"bone,omitempty"`
}

// IsBone defaults to true when the field is omitted.
func (j JointSpec) IsBone() bool {
	return j.Bone == nil || *j.Bone
}

func (j JointSpec) Transform() skeleton.Transform {
	t := skeleton.IdentityTransform()
	t.Position = j.Position.Vector3()
	if j.Rotation != (Vec3{}) {
		t.Rotation = rl.QuaternionNormalize(rl.QuaternionFromEuler(
			j.Rotation[0]*rl.Deg2rad,
			j.Rotation[1]*rl.Deg2rad,
			j.Rotation[2]*rl.Deg2rad,
		))
	}
	if j.Scale != nil {
		t.Scale = j.Scale.Vector3()
	}
	return t
}

type ChainSpec struct {
	Name   string   `yaml:"name"`
	Joints []string `yaml:"joints"`
}

type ObstacleSpec struct {
	Start  Vec3    `yaml:"start"`
	End    Vec3    `yaml:"end"`
	Radius float32 `yaml:"radius"`
}

func (o ObstacleSpec) Capsule() geom.Capsule {
	return geom.Capsule{Start: o.Start.Vector3(), End: o.End.Vector3(), Radius: o.Radius}
}

// Rig is the on-disk description of a skeleton and its scene.
type Rig struct {
	Name      string          `yaml:"name"`
	Joints    []JointSpec     `yaml:"joints"`
	Chains    []ChainSpec     `yaml:"chains,omitempty"`
	Obstacles []ObstacleSpec  `yaml:"obstacles,omitempty"`
	Targets   map[string]Vec3 `yaml:"targets,omitempty"`
}

func Load(path string) (*Rig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rigfile: load %s: %w", path, err)
	}
	rig, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rigfile: %s: %w", path, err)
	}
	return rig, nil
}

func Parse(data []byte) (*Rig, error) {
	var rig Rig
	if err := yaml.Unmarshal(data, &rig); err != nil {
		return nil, fmt.Errorf("unmarshal rig: %w", err)
	}
	if len(rig.Joints) == 0 {
		return nil, ErrNoJoints
	}
	if rig.Joints[0].Parent != "" {
		return nil, fmt.Errorf("%w: %q has parent %q", ErrRootHasParent, rig.Joints[0].Name, rig.Joints[0].Parent)
	}
	for i, o := range rig.Obstacles {
		if o.Radius <= 0 {
			return nil, fmt.Errorf("rigfile: obstacle %d: radius must be positive", i)
		}
	}
	return &rig, nil
}

// Build creates a skeleton in file order. Parents must appear before children.
func (r *Rig) Build() (*skeleton.Skeleton, error) {
	sk := skeleton.New(r.Name)
	for _, j := range r.Joints {
		if _, err := sk.AddJoint(j.Name, j.Parent, j.Transform(), j.IsBone()); err != nil {
			return nil, fmt.Errorf("rigfile: build %s: %w", r.Name, err)
		}
	}
	sk.UpdateWorld()
	return sk, nil
}

func (r *Rig) ChainDefs() []sim.ChainDef {
	defs := make([]sim.ChainDef, 0, len(r.Chains))
	for _, c := range r.Chains {
		defs = append(defs, sim.ChainDef{Name: c.Name, Joints: c.Joints})
	}
	return defs
}

func (r *Rig) ObstacleCapsules() []geom.Capsule {
	out := make([]geom.Capsule, 0, len(r.Obstacles))
	for _, o := range r.Obstacles {
		out = append(out, o.Capsule())
	}
	return out
}

func (r *Rig) TargetPositions() map[string]rl.Vector3 {
	return toPositions(r.Targets)
}

// NewSimulation builds the skeleton and a simulation over it.
func (r *Rig) NewSimulation(cfg sim.Config, logger *zap.Logger) (*sim.Simulation, error) {
	sk, err := r.Build()
	if err != nil {
		return nil, err
	}
	s := sim.New(sk, r.ChainDefs(), r.ObstacleCapsules(), cfg, logger)
	s.SetTargets(r.TargetPositions())
	return s, nil
}

func toPositions(in map[string]Vec3) map[string]rl.Vector3 {
	out := make(map[string]rl.Vector3, len(in))
	for name, v := range in {
		out[name] = v.Vector3()
	}
	return out
}
