package ik

import (
	"math"
	"testing"

	"rigsim/internal/geom"
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func vec(x, y, z float32) rl.Vector3 {
	return rl.Vector3{X: x, Y: y, Z: z}
}

func at(x, y, z float32) skeleton.Transform {
	t := skeleton.IdentityTransform()
	t.Position = vec(x, y, z)
	return t
}

// armSkeleton builds Root(0,0,0) -> Shoulder(0,1,0) -> Elbow(0,1.4,0) -> Wrist(0,1.8,0).
func armSkeleton(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	sk := skeleton.New("Arm")
	_, err := sk.AddJoint("Root", "", at(0, 0, 0), true)
	require.NoError(t, err)
	_, err = sk.AddJoint("Shoulder", "Root", at(0, 1, 0), true)
	require.NoError(t, err)
	_, err = sk.AddJoint("Elbow", "Shoulder", at(0, 0.4, 0), true)
	require.NoError(t, err)
	_, err = sk.AddJoint("Wrist", "Elbow", at(0, 0.4, 0), true)
	require.NoError(t, err)
	return sk
}

func boneDir(j, child *skeleton.Joint) rl.Vector3 {
	return rl.Vector3Normalize(rl.Vector3Subtract(child.WorldPosition(), j.WorldPosition()))
}

func targetAngle(j, child *skeleton.Joint, target rl.Vector3) float32 {
	toTarget := rl.Vector3Normalize(rl.Vector3Subtract(target, j.WorldPosition()))
	return geom.AngleBetween(boneDir(j, child), toTarget)
}

func rotationAngle(a, b rl.Quaternion) float64 {
	dot := math.Abs(float64(a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W))
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot)
}

func TestSolveTwoJointChainTowardSide(t *testing.T) {
	sk := armSkeleton(t)
	s := NewSolver(sk, DefaultOptions(), nil)
	require.True(t, s.AddChain("arm", "Shoulder", "Elbow"))

	shoulder, elbow := sk.FindByName("Shoulder"), sk.FindByName("Elbow")
	target := vec(0.4, 1.4, 0)
	require.True(t, s.SetTarget("arm", target))

	before := targetAngle(shoulder, elbow, target)
	require.Greater(t, before, float32(0))
	assert.InDelta(t, math.Pi/4, before, 1e-5)

	s.Solve()

	dir := boneDir(shoulder, elbow)
	assert.Greater(t, dir.X, float32(0), "bone swung toward +X")
	swing := geom.AngleBetween(vec(0, 1, 0), dir)
	assert.LessOrEqual(t, float64(swing), math.Pi/12+1e-5)
	assert.InDelta(t, math.Pi/4*0.05, swing, 1e-4)

	after := targetAngle(shoulder, elbow, target)
	assert.Less(t, after, before)
}

func TestSolveAlignedChainIsNoop(t *testing.T) {
	sk := armSkeleton(t)
	s := NewSolver(sk, DefaultOptions(), nil)
	require.True(t, s.AddChain("arm", "Shoulder", "Elbow", "Wrist"))
	require.True(t, s.SetTarget("arm", vec(0, 3, 0)))

	shoulder := sk.FindByName("Shoulder")
	elbow := sk.FindByName("Elbow")
	startShoulder := shoulder.Local.Rotation
	startElbow := elbow.Local.Rotation

	for i := 0; i < 10; i++ {
		s.Solve()
	}

	assert.InDelta(t, 0, rotationAngle(startShoulder, shoulder.Local.Rotation), 1e-5)
	assert.InDelta(t, 0, rotationAngle(startElbow, elbow.Local.Rotation), 1e-5)
}

func TestSolveReducesAngleForManyTargets(t *testing.T) {
	targets := []rl.Vector3{
		vec(0.4, 1.4, 0),
		vec(-1, 0.5, 0.3),
		vec(0, 1.4, -2),
		vec(0.01, 0.2, 0), // nearly behind the bone
		vec(3, 5, 1),
	}
	for _, target := range targets {
		sk := armSkeleton(t)
		s := NewSolver(sk, DefaultOptions(), nil)
		require.True(t, s.AddChain("arm", "Shoulder", "Elbow"))
		s.SetTarget("arm", target)

		shoulder, elbow := sk.FindByName("Shoulder"), sk.FindByName("Elbow")
		before := targetAngle(shoulder, elbow, target)
		startRot := shoulder.WorldRotation()

		s.Solve()

		after := targetAngle(shoulder, elbow, target)
		if before > minAngle {
			assert.Less(t, after, before, "target %v", target)
		}
		assert.LessOrEqual(t, rotationAngle(startRot, shoulder.WorldRotation()), math.Pi/12+1e-4)
	}
}

func TestSolveCapsRotation(t *testing.T) {
	sk := armSkeleton(t)
	opts := DefaultOptions()
	opts.StepFactor = 0.5
	s := NewSolver(sk, opts, nil)
	require.True(t, s.AddChain("arm", "Shoulder", "Elbow"))
	s.SetTarget("arm", vec(2, 1, 0)) // 90° away

	shoulder := sk.FindByName("Shoulder")
	startRot := shoulder.WorldRotation()
	s.Solve()

	assert.InDelta(t, math.Pi/12, rotationAngle(startRot, shoulder.WorldRotation()), 1e-4)
}

func TestSolveOppositeTargetUsesPerpendicularAxis(t *testing.T) {
	sk := armSkeleton(t)
	s := NewSolver(sk, DefaultOptions(), nil)
	require.True(t, s.AddChain("arm", "Shoulder", "Elbow"))
	s.SetTarget("arm", vec(0, 0, 0)) // straight back down the bone

	shoulder, elbow := sk.FindByName("Shoulder"), sk.FindByName("Elbow")
	s.Solve()

	dir := boneDir(shoulder, elbow)
	assert.False(t, math.IsNaN(float64(dir.X)))
	assert.Less(t, targetAngle(shoulder, elbow, vec(0, 0, 0)), float32(math.Pi-0.1))
}

func TestSolveUnderRotatedParent(t *testing.T) {
	sk := armSkeleton(t)
	sk.Root().Local.Rotation = rl.QuaternionFromAxisAngle(vec(0, 0, 1), 0.5)
	s := NewSolver(sk, DefaultOptions(), nil)
	require.True(t, s.AddChain("arm", "Shoulder", "Elbow", "Wrist"))

	shoulder, elbow := sk.FindByName("Shoulder"), sk.FindByName("Elbow")
	target := rl.Vector3Add(shoulder.WorldPosition(), vec(1, 0, 0.5))
	s.SetTarget("arm", target)

	before := targetAngle(shoulder, elbow, target)
	s.Solve()
	assert.Less(t, targetAngle(shoulder, elbow, target), before)

	// The cached pose is refreshed after the pass
	assert.InDelta(t, elbow.WorldPosition().X, elbow.CachedPose().Position.X, 1e-5)
}

func TestTipIsNeverRotated(t *testing.T) {
	sk := armSkeleton(t)
	s := NewSolver(sk, DefaultOptions(), nil)
	require.True(t, s.AddChain("arm", "Shoulder", "Elbow"))
	s.SetTarget("arm", vec(1, 1, 1))

	elbow := sk.FindByName("Elbow")
	before := elbow.Local.Rotation
	s.Solve()
	assert.Equal(t, before, elbow.Local.Rotation)
}

func TestClearTargetMakesChainIdle(t *testing.T) {
	sk := armSkeleton(t)
	s := NewSolver(sk, DefaultOptions(), nil)
	require.True(t, s.AddChain("arm", "Shoulder", "Elbow"))

	assert.False(t, s.Chain("arm").Active())
	assert.Equal(t, float32(-1), s.Chain("arm").TipDistance())

	s.SetTarget("arm", vec(1, 1, 0))
	_, ok := s.Target("arm")
	assert.True(t, ok)

	s.ClearTarget("arm")
	_, ok = s.Target("arm")
	assert.False(t, ok)

	shoulder := sk.FindByName("Shoulder")
	before := shoulder.Local.Rotation
	s.Solve()
	assert.Equal(t, before, shoulder.Local.Rotation)

	assert.False(t, s.SetTarget("leg", vec(0, 0, 0)))
	_, ok = s.Target("leg")
	assert.False(t, ok)
}

func TestToleranceStopsEarly(t *testing.T) {
	sk := armSkeleton(t)
	opts := DefaultOptions()
	opts.Tolerance = 0.5
	opts.MaxIterations = 5
	s := NewSolver(sk, opts, nil)
	require.True(t, s.AddChain("arm", "Shoulder", "Elbow"))
	s.SetTarget("arm", vec(0.2, 1.4, 0)) // tip is 0.2 away

	shoulder := sk.FindByName("Shoulder")
	before := shoulder.Local.Rotation
	s.Solve()
	assert.Equal(t, before, shoulder.Local.Rotation)
}

func TestMaxIterationsRunsMorePasses(t *testing.T) {
	target := vec(0.4, 1.4, 0)

	single := armSkeleton(t)
	s1 := NewSolver(single, DefaultOptions(), nil)
	require.True(t, s1.AddChain("arm", "Shoulder", "Elbow"))
	s1.SetTarget("arm", target)
	s1.Solve()

	multi := armSkeleton(t)
	opts := DefaultOptions()
	opts.MaxIterations = 4
	s4 := NewSolver(multi, opts, nil)
	require.True(t, s4.AddChain("arm", "Shoulder", "Elbow"))
	s4.SetTarget("arm", target)
	s4.Solve()

	a1 := targetAngle(single.FindByName("Shoulder"), single.FindByName("Elbow"), target)
	a4 := targetAngle(multi.FindByName("Shoulder"), multi.FindByName("Elbow"), target)
	assert.Less(t, a4, a1)
}

func TestAddChainRejectsBadChains(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sk := armSkeleton(t)
	s := NewSolver(sk, DefaultOptions(), zap.New(core))

	assert.False(t, s.AddChain("short", "Shoulder"))
	assert.False(t, s.AddChain("missing", "Shoulder", "Knee"))
	assert.False(t, s.AddChain("reversed", "Elbow", "Shoulder"))
	assert.True(t, s.AddChain("arm", "Shoulder", "Elbow"))
	assert.False(t, s.AddChain("arm", "Elbow", "Wrist"))

	assert.Len(t, s.Chains(), 1)
	assert.Equal(t, 2, logs.FilterMessage("ik chain skipped: needs at least two joints").Len())
	assert.Equal(t, 1, logs.FilterMessage("ik chain skipped: joints out of hierarchy order").Len())
	assert.Equal(t, 1, logs.FilterMessage("ik chain skipped: duplicate name").Len())
	assert.Equal(t, 1, logs.FilterMessage("ik chain joint not found").Len())
}

func TestNewSolverFillsDefaults(t *testing.T) {
	s := NewSolver(nil, Options{Tolerance: -1}, nil)
	opts := s.Options()
	assert.Equal(t, DefaultOptions().StepFactor, opts.StepFactor)
	assert.Equal(t, DefaultOptions().MaxStep, opts.MaxStep)
	assert.Equal(t, 1, opts.MaxIterations)
	assert.Equal(t, float32(0), opts.Tolerance)

	assert.False(t, s.AddChain("arm", "a", "b"))
	s.Solve()
}
