package character

import (
	"math"

	"rigsim/internal/geom"
	"rigsim/internal/physics"
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

// Config holds the character's physics constants.
type Config struct {
	Gravity        float32 // vertical acceleration, negative is down
	Damping        float32 // velocity multiplier applied every step
	GroundFriction float32 // horizontal velocity multiplier on ground contact
	GroundHeight   float32 // floor height for the fallback ground check
	GroundBones    []string

	// TimeScaledDamping makes damping frame-rate independent by treating Damping
	// as the per-tick factor at ReferenceRate ticks per second.
	TimeScaledDamping bool
	ReferenceRate     float32
}

func DefaultConfig() Config {
	return Config{
		Gravity:        -9.8,
		Damping:        0.95,
		GroundFriction: 0.8,
		GroundHeight:   0,
		GroundBones:    []string{"LeftFoot", "RightFoot", "LeftToeBase", "RightToeBase"},
		ReferenceRate:  60,
	}
}

// Controller moves a skeleton's root under gravity and keeps it out of the
// colliders. It implements physics.Body.
type Controller struct {
	skeleton *skeleton.Skeleton
	capsules *physics.CapsuleSet
	cfg      Config

	velocity    rl.Vector3
	isGrounded  bool
	groundJoint []*skeleton.Joint

	log *zap.Logger
}

var _ physics.Body = (*Controller)(nil)

// New creates a controller for sk. capsules may be nil, in which case floor
// checks fall back to the ground bones.
func New(sk *skeleton.Skeleton, capsules *physics.CapsuleSet, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		skeleton: sk,
		capsules: capsules,
		cfg:      cfg,
		log:      logger,
	}
	c.resolveGroundBones()
	return c
}

func (c *Controller) resolveGroundBones() {
	c.groundJoint = c.groundJoint[:0]
	if c.skeleton == nil {
		return
	}
	for _, name := range c.cfg.GroundBones {
		j := c.skeleton.FindBySuffix(name)
		if j == nil {
			c.log.Debug("ground bone not found", zap.String("bone", name))
			continue
		}
		c.groundJoint = append(c.groundJoint, j)
	}
	if len(c.groundJoint) == 0 && len(c.cfg.GroundBones) > 0 {
		c.log.Warn("no ground bones found, fallback ground check disabled",
			zap.Strings("bones", c.cfg.GroundBones))
	}
}

// UpdatePhysics advances the character by deltaTime seconds. Any reported
// collision discards the whole move rather than clipping it to the contact.
func (c *Controller) UpdatePhysics(deltaTime float32, collisions *physics.System) {
	root := c.skeleton.Root()
	if root == nil {
		return
	}

	c.velocity.Y += c.cfg.Gravity * deltaTime
	c.velocity = rl.Vector3Scale(c.velocity, c.dampingFactor(deltaTime))

	saved := root.Local.Position
	root.Local.Position = rl.Vector3Add(root.Local.Position, rl.Vector3Scale(c.velocity, deltaTime))

	c.isGrounded = false

	if collisions == nil {
		if c.feetBelowGround() {
			root.Local.Position = saved
			c.land()
		}
		return
	}

	contact, hit := collisions.CheckCollisions(physics.BodySubject(c))
	if !hit {
		return
	}
	root.Local.Position = saved
	if contact.Normal.Y > 0 {
		c.land()
	}
}

func (c *Controller) dampingFactor(deltaTime float32) float32 {
	if !c.cfg.TimeScaledDamping || c.cfg.ReferenceRate <= 0 {
		return c.cfg.Damping
	}
	return float32(math.Pow(float64(c.cfg.Damping), float64(deltaTime*c.cfg.ReferenceRate)))
}

// land zeroes downward velocity and applies ground friction.
func (c *Controller) land() {
	c.isGrounded = true
	if c.velocity.Y < 0 {
		c.velocity.Y = 0
	}
	c.velocity.X *= c.cfg.GroundFriction
	c.velocity.Z *= c.cfg.GroundFriction
}

func (c *Controller) feetBelowGround() bool {
	for _, p := range c.GroundPoints() {
		if p.Y <= c.cfg.GroundHeight {
			return true
		}
	}
	return false
}

// Capsules implements physics.Body.
func (c *Controller) Capsules() []geom.Capsule {
	if c.capsules == nil {
		return nil
	}
	return c.capsules.Capsules()
}

// GroundPoints implements physics.Body.
func (c *Controller) GroundPoints() []rl.Vector3 {
	points := make([]rl.Vector3, 0, len(c.groundJoint))
	for _, j := range c.groundJoint {
		points = append(points, j.WorldPosition())
	}
	return points
}

// MoveRoot implements physics.Body.
func (c *Controller) MoveRoot(delta rl.Vector3) {
	if root := c.skeleton.Root(); root != nil {
		root.Local.Position = rl.Vector3Add(root.Local.Position, delta)
	}
}

// IsGrounded returns whether the last step ended on the ground
func (c *Controller) IsGrounded() bool {
	return c.isGrounded
}

func (c *Controller) Velocity() rl.Vector3 {
	return c.velocity
}

func (c *Controller) SetVelocity(v rl.Vector3) {
	c.velocity = v
}

// SetVelocityY sets the vertical velocity (for jumping)
func (c *Controller) SetVelocityY(vy float32) {
	c.velocity.Y = vy
}

func (c *Controller) RootPosition() rl.Vector3 {
	if root := c.skeleton.Root(); root != nil {
		return root.Local.Position
	}
	return rl.Vector3{}
}

func (c *Controller) SetRootPosition(p rl.Vector3) {
	if root := c.skeleton.Root(); root != nil {
		root.Local.Position = p
	}
}

// Reset clears velocity and grounded state.
func (c *Controller) Reset() {
	c.velocity = rl.Vector3{}
	c.isGrounded = false
}

func (c *Controller) Config() Config {
	return c.cfg
}
