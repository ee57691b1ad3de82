package viewer

import (
	"testing"

	"rigsim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func TestOrbitCameraPosition(t *testing.T) {
	c := NewOrbitCamera(rl.Vector3{X: 1, Y: 1, Z: 0})
	c.Yaw, c.Pitch, c.Distance = 0, 0, 2

	pos := c.Position()
	assert.InDelta(t, 3, pos.X, 1e-5)
	assert.InDelta(t, 1, pos.Y, 1e-5)
	assert.InDelta(t, 0, pos.Z, 1e-5)

	c.Pitch = 90
	c.Orbit(0, 0)
	assert.Equal(t, float32(89), c.Pitch)
	assert.InDelta(t, c.Distance, rl.Vector3Distance(c.Position(), c.Target), 1e-4)

	cam := c.GetRaylibCamera()
	assert.Equal(t, c.Target, cam.Target)
	assert.Equal(t, rl.CameraPerspective, cam.Projection)
}

func TestOrbitCameraZoomClamps(t *testing.T) {
	c := NewOrbitCamera(rl.Vector3{})
	c.Zoom(-100)
	assert.Equal(t, c.MinDistance, c.Distance)
	c.Zoom(100)
	assert.Equal(t, c.MaxDistance, c.Distance)

	c.Orbit(0, -200)
	assert.Equal(t, float32(-89), c.Pitch)
}

func TestCategoryColor(t *testing.T) {
	assert.Equal(t, rl.Orange, CategoryColor(physics.CategoryLeg.String()))
	assert.Equal(t, rl.DarkBlue, CategoryColor(physics.CategoryTorso.String()))
	assert.Equal(t, rl.Gray, CategoryColor("tail"))
}
