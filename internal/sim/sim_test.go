package sim

import (
	"testing"

	"rigsim/internal/geom"
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func vec(x, y, z float32) rl.Vector3 {
	return rl.Vector3{X: x, Y: y, Z: z}
}

// rig is hips, one leg and one arm; the foot sits 0.9 below the hips.
func rig(t *testing.T, hipY float32) *skeleton.Skeleton {
	t.Helper()
	sk := skeleton.New("Test")
	add := func(name, parent string, x, y, z float32) {
		tr := skeleton.IdentityTransform()
		tr.Position = vec(x, y, z)
		_, err := sk.AddJoint(name, parent, tr, true)
		require.NoError(t, err)
	}
	add("Hips", "", 0, hipY, 0)
	add("LeftUpLeg", "Hips", 0.1, 0, 0)
	add("LeftLeg", "LeftUpLeg", 0, -0.45, 0)
	add("LeftFoot", "LeftLeg", 0, -0.45, 0)
	add("LeftArm", "Hips", 0.2, 0.5, 0)
	add("LeftForeArm", "LeftArm", 0.3, 0, 0)
	add("LeftHand", "LeftForeArm", 0.3, 0, 0)
	return sk
}

var armChain = []ChainDef{{Name: "leftArm", Joints: []string{"LeftArm", "LeftForeArm", "LeftHand"}}}

func TestNewWiresColliders(t *testing.T) {
	s := New(rig(t, 2), armChain, nil, DefaultConfig(), nil)
	require.Len(t, s.Collisions.Colliders(), 2)
	assert.Nil(t, s.Obstacles)
	assert.Len(t, s.Solver.Chains(), 1)

	obstacle := geom.Capsule{Start: vec(5, 0, 0), End: vec(5, 2, 0), Radius: 0.3}
	s = New(rig(t, 2), armChain, []geom.Capsule{obstacle}, DefaultConfig(), nil)
	require.Len(t, s.Collisions.Colliders(), 3)
	assert.Same(t, s.Obstacles, s.Collisions.Colliders()[2])
}

func TestStepRunsSolverOnStride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IKStride = 3
	s := New(rig(t, 2), armChain, nil, cfg, nil)

	var solved []uint64
	for i := 0; i < 7; i++ {
		frame := s.Frame()
		if s.Step(1.0 / 60.0) {
			solved = append(solved, frame)
		}
	}
	assert.Equal(t, []uint64{0, 3, 6}, solved)
	assert.Equal(t, uint64(7), s.Frame())
}

func TestStepClampsDeltaTime(t *testing.T) {
	long := New(rig(t, 5), nil, nil, DefaultConfig(), nil)
	capped := New(rig(t, 5), nil, nil, DefaultConfig(), nil)

	long.Step(1)
	capped.Step(1.0 / 30.0)

	assert.InDelta(t, capped.Character.RootPosition().Y, long.Character.RootPosition().Y, 1e-6)
	assert.InDelta(t, capped.Character.Velocity().Y, long.Character.Velocity().Y, 1e-6)
}

func TestNonPositiveStepSkipsPhysics(t *testing.T) {
	s := New(rig(t, 5), nil, nil, DefaultConfig(), nil)
	s.Step(0)
	s.Step(-1)
	assert.Equal(t, float32(5), s.Character.RootPosition().Y)
	assert.Equal(t, uint64(2), s.Frame())
}

func TestCharacterFallsAndLands(t *testing.T) {
	s := New(rig(t, 2), nil, nil, DefaultConfig(), nil)
	for i := 0; i < 600; i++ {
		s.Step(1.0 / 60.0)
		if s.Character.IsGrounded() {
			break
		}
	}
	require.True(t, s.Character.IsGrounded())
	assert.Less(t, s.Character.RootPosition().Y, float32(2))
	assert.GreaterOrEqual(t, s.Character.Velocity().Y, float32(0))
}

func TestTargetPullsHandCloser(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IKStride = 1
	sk := rig(t, 0.9)
	s := New(sk, armChain, nil, cfg, nil)

	target := vec(0.4, 2.2, 0.4)
	require.True(t, s.SetTarget("leftArm", target))
	chain := s.Solver.Chain("leftArm")
	before := chain.TipDistance()

	for i := 0; i < 20; i++ {
		s.Step(1.0 / 60.0)
	}
	assert.Less(t, chain.TipDistance(), before)

	s.ClearTarget("leftArm")
	assert.False(t, chain.Active())
	assert.False(t, s.SetTarget("nope", target))
}

func TestSetTargetsCountsKnownChains(t *testing.T) {
	s := New(rig(t, 2), armChain, nil, DefaultConfig(), nil)
	n := s.SetTargets(map[string]rl.Vector3{
		"leftArm":  vec(1, 2, 0),
		"rightArm": vec(-1, 2, 0),
	})
	assert.Equal(t, 1, n)
}

func TestProjectTargetsMovesTargetOutOfBody(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProjectTargets = true
	s := New(rig(t, 2), armChain, nil, cfg, nil)

	// Just off the upper leg axis, inside its capsule.
	inside := vec(0.12, 1.8, 0)
	_, hit := s.ProbePoint(inside)
	require.True(t, hit)

	require.True(t, s.SetTarget("leftArm", inside))
	got, ok := s.Solver.Target("leftArm")
	require.True(t, ok)
	assert.NotEqual(t, inside, got)

	assert.Greater(t, got.X, inside.X)
	_, dist, found := s.Body.NearestCapsule(got)
	require.True(t, found)
	assert.InDelta(t, 0, dist, 1e-4)
}

func TestSetRadiusMultiplier(t *testing.T) {
	s := New(rig(t, 2), nil, nil, DefaultConfig(), nil)
	before := s.Body.Set().Links()[0].Radius

	s.SetRadiusMultiplier(2)
	assert.InDelta(t, before*2, s.Body.Set().Links()[0].Radius, 1e-6)
	assert.Equal(t, float32(2), s.Config().RadiusMultiplier)

	s.SetRadiusMultiplier(0)
	assert.Equal(t, float32(2), s.Config().RadiusMultiplier)
}

func TestSnapshot(t *testing.T) {
	s := New(rig(t, 2), armChain, nil, DefaultConfig(), nil)
	s.SetTarget("leftArm", vec(1, 2, 1))
	s.Step(1.0 / 60.0)

	snap := s.Snapshot()
	assert.Equal(t, uint64(1), snap.Frame)
	require.Len(t, snap.Joints, 7)
	assert.Equal(t, "Hips", snap.Joints[0].Name)
	assert.Empty(t, snap.Joints[0].Parent)
	assert.Equal(t, "LeftUpLeg", snap.Joints[2].Parent)
	assert.Equal(t, snap.Root, snap.Joints[0].WorldPosition)
	assert.Len(t, snap.Capsules, s.Body.Set().Len())
	require.Len(t, snap.Targets, 1)
	assert.Equal(t, "leftArm", snap.Targets[0].Chain)
	assert.Equal(t, Vec3{X: 1, Y: 2, Z: 1}, snap.Targets[0].Position)

	out, err := yaml.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(out), "world_position:")
	assert.Contains(t, string(out), "chain: leftArm")
}
