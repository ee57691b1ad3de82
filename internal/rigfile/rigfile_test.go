package rigfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rigsim/internal/sim"
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const smallRig = `
name: small
joints:
  - {name: Root, position: [0, 1, 0]}
  - {name: Arm, parent: Root, position: [0.2, 0, 0], rotation: [0, 0, 90]}
  - {name: Hand, parent: Arm, position: [0.3, 0, 0], scale: [2, 2, 2]}
  - {name: Marker, parent: Hand, position: [0.1, 0, 0], bone: false}
chains:
  - {name: arm, joints: [Arm, Hand]}
obstacles:
  - {start: [1, 0, 0], end: [1, 1, 0], radius: 0.2}
targets:
  arm: [0.5, 1.5, 0]
`

func TestParseAndBuild(t *testing.T) {
	rig, err := Parse([]byte(smallRig))
	require.NoError(t, err)
	assert.Equal(t, "small", rig.Name)

	sk, err := rig.Build()
	require.NoError(t, err)
	require.Equal(t, 4, sk.Len())
	assert.Equal(t, "Root", sk.Root().Name)
	assert.False(t, sk.FindByName("Marker").Bone)
	assert.True(t, sk.FindByName("Hand").Bone)
	assert.Equal(t, rl.Vector3{X: 2, Y: 2, Z: 2}, sk.FindByName("Hand").Local.Scale)
	assert.Equal(t, rl.Vector3{X: 1, Y: 1, Z: 1}, sk.FindByName("Arm").Local.Scale)

	// Arm is rolled 90 degrees about Z, so the hand's +X offset points up.
	hand := sk.FindByName("Hand").WorldPosition()
	assert.InDelta(t, 0.2, hand.X, 1e-4)
	assert.InDelta(t, 1.3, hand.Y, 1e-4)

	assert.Equal(t, []sim.ChainDef{{Name: "arm", Joints: []string{"Arm", "Hand"}}}, rig.ChainDefs())
	require.Len(t, rig.ObstacleCapsules(), 1)
	assert.Equal(t, float32(0.2), rig.ObstacleCapsules()[0].Radius)
	assert.Equal(t, rl.Vector3{X: 0.5, Y: 1.5, Z: 0}, rig.TargetPositions()["arm"])
}

func TestParseRejectsBadRigs(t *testing.T) {
	_, err := Parse([]byte("name: empty\n"))
	assert.ErrorIs(t, err, ErrNoJoints)

	_, err = Parse([]byte("joints:\n  - {name: A, parent: B, position: [0, 0, 0]}\n"))
	assert.ErrorIs(t, err, ErrRootHasParent)

	_, err = Parse([]byte("joints:\n  - {name: A, position: [0, 0, 0]}\nobstacles:\n  - {start: [0,0,0], end: [0,1,0], radius: 0}\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("joints: [oops"))
	assert.Error(t, err)
}

func TestBuildWrapsSkeletonErrors(t *testing.T) {
	rig, err := Parse([]byte(`
joints:
  - {name: A, position: [0, 0, 0]}
  - {name: B, parent: Missing, position: [0, 1, 0]}
`))
	require.NoError(t, err)
	_, err = rig.Build()
	assert.True(t, errors.Is(err, skeleton.ErrUnknownParent))

	rig, err = Parse([]byte(`
joints:
  - {name: A, position: [0, 0, 0]}
  - {name: A, parent: A, position: [0, 1, 0]}
`))
	require.NoError(t, err)
	_, err = rig.Build()
	assert.ErrorIs(t, err, skeleton.ErrDuplicateJoint)
}

func TestDefaultHumanoid(t *testing.T) {
	rig, err := Default()
	require.NoError(t, err)
	assert.Equal(t, DefaultName, rig.Name)

	sk, err := rig.Build()
	require.NoError(t, err)
	assert.Equal(t, len(rig.Joints), sk.Len())
	for _, name := range []string{"Hips", "Spine2", "Head", "LeftHand", "RightFoot", "LeftToeBase"} {
		assert.NotNil(t, sk.FindByName(name), name)
	}

	s := sim.New(sk, rig.ChainDefs(), rig.ObstacleCapsules(), sim.DefaultConfig(), nil)
	assert.Len(t, s.Solver.Chains(), len(rig.Chains))
	assert.NotNil(t, s.Obstacles)

	// Toe capsules rest just above the floor.
	low := float32(1e9)
	for _, c := range s.Body.Set().Capsules() {
		low = min(low, c.Lowest())
	}
	assert.InDelta(t, 0.005, low, 1e-3)
}

func TestLoadOrDefault(t *testing.T) {
	rig, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, rig.Name)

	path := filepath.Join(t.TempDir(), "small.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallRig), 0o644))
	rig, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "small", rig.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "humanoid.yaml")
	require.NoError(t, WriteDefault(path))

	rig, err := Load(path)
	require.NoError(t, err)
	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def, rig)
}

func TestParseTargets(t *testing.T) {
	targets, err := ParseTargets([]byte("leftArm: [0.4, 1.5, 0.3]\nhead: [0, 1.8, 0.5]\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]rl.Vector3{
		"leftArm": {X: 0.4, Y: 1.5, Z: 0.3},
		"head":    {X: 0, Y: 1.8, Z: 0.5},
	}, targets)

	_, err = ParseTargets([]byte("leftArm: [1, 2]\n"))
	assert.Error(t, err)

	_, err = LoadTargets(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatcherReportsWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "targets.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("leftArm: [0, 1, 0]\n"), 0o644))

	w, err := NewWatcher(nil, path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(other, []byte("ignored: [0, 0, 0]\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("leftArm: [1, 1, 0]\n"), 0o644))

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	select {
	case got := <-w.Events:
		assert.Equal(t, abs, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for targets file")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
