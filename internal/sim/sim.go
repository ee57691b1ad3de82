package sim

import (
	"rigsim/internal/character"
	"rigsim/internal/geom"
	"rigsim/internal/ik"
	"rigsim/internal/physics"
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

type Config struct {
	IKStride         int     // physics frames per IK solve
	MaxStep          float32 // longest step integrated, in seconds
	FloorY           float32
	FloorMode        physics.FloorMode
	RadiusMultiplier float32
	ProjectTargets   bool // push targets that land inside the body out to its surface
	Character        character.Config
	Solver           ik.Options
}

func DefaultConfig() Config {
	return Config{
		IKStride:         6,
		MaxStep:          1.0 / 30.0,
		FloorY:           0,
		FloorMode:        physics.FloorCapsules,
		RadiusMultiplier: 1,
		Character:        character.DefaultConfig(),
		Solver:           ik.DefaultOptions(),
	}
}

// ChainDef names an IK chain's joints from root to tip.
type ChainDef struct {
	Name   string
	Joints []string
}

// Simulation owns everything one character needs per frame. It is driven by a
// single caller goroutine and is not safe for concurrent use.
type Simulation struct {
	Skeleton   *skeleton.Skeleton
	Character  *character.Controller
	Collisions *physics.System
	Solver     *ik.Solver
	Body       *physics.CapsuleCollider
	Obstacles  *physics.ObstacleCollider

	cfg   Config
	frame uint64
	log   *zap.Logger
}

// New wires the colliders, character and solver for sk. Colliders are checked
// floor first, then the body's own capsules, then obstacles.
func New(sk *skeleton.Skeleton, chains []ChainDef, obstacles []geom.Capsule, cfg Config, logger *zap.Logger) *Simulation {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IKStride <= 0 {
		cfg.IKStride = 1
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = DefaultConfig().MaxStep
	}

	s := &Simulation{
		Skeleton: sk,
		cfg:      cfg,
		log:      logger,
	}

	s.Body = physics.NewCapsuleCollider(sk, cfg.RadiusMultiplier, logger.Named("capsules"))
	s.Collisions = physics.NewSystem(logger.Named("collision"),
		physics.NewFloorCollider(cfg.FloorY, cfg.FloorMode),
		s.Body,
	)
	if len(obstacles) > 0 {
		s.Obstacles = physics.NewObstacleCollider(obstacles)
		s.Collisions.Add(s.Obstacles)
	}

	s.Character = character.New(sk, s.Body.Set(), cfg.Character, logger.Named("character"))

	s.Solver = ik.NewSolver(sk, cfg.Solver, logger.Named("ik"))
	for _, c := range chains {
		s.Solver.AddChain(c.Name, c.Joints...)
	}

	if sk != nil {
		sk.UpdateWorld()
	}

	s.log.Info("simulation ready",
		zap.Int("joints", sk.Len()),
		zap.Int("capsules", s.Body.Set().Len()),
		zap.Int("chains", len(s.Solver.Chains())),
		zap.Int("obstacles", len(obstacles)),
		zap.Int("ik_stride", cfg.IKStride))
	return s
}

func (s *Simulation) Config() Config {
	return s.cfg
}

// Frame returns the number of steps taken so far.
func (s *Simulation) Frame() uint64 {
	return s.frame
}

// Step advances one frame: physics first, then an IK solve on every
// IKStride-th frame. deltaTime is capped at MaxStep without sub-stepping.
// Returns true when the frame ran the solver.
func (s *Simulation) Step(deltaTime float32) bool {
	if deltaTime > s.cfg.MaxStep {
		deltaTime = s.cfg.MaxStep
	}
	if deltaTime > 0 {
		s.Character.UpdatePhysics(deltaTime, s.Collisions)
	}

	solved := s.frame%uint64(s.cfg.IKStride) == 0
	if solved {
		s.Solver.Solve()
	}
	if s.Skeleton != nil {
		s.Skeleton.UpdateWorld()
	}
	s.Body.Set().Refresh()

	s.frame++
	return solved
}

// SetTarget points a chain at pos. With ProjectTargets set, a target inside
// the body is moved out to the nearest capsule surface first.
func (s *Simulation) SetTarget(chain string, pos rl.Vector3) bool {
	if s.cfg.ProjectTargets {
		if contact, hit := s.Collisions.CheckPointCollision(pos); hit {
			pos = rl.Vector3Add(pos, rl.Vector3Scale(contact.Normal, contact.Penetration))
		}
	}
	ok := s.Solver.SetTarget(chain, pos)
	if !ok {
		s.log.Warn("target for unknown chain ignored", zap.String("chain", chain))
	}
	return ok
}

func (s *Simulation) ClearTarget(chain string) {
	s.Solver.ClearTarget(chain)
}

// SetTargets applies every target in the map, returning how many chains took one.
func (s *Simulation) SetTargets(targets map[string]rl.Vector3) int {
	n := 0
	for name, pos := range targets {
		if s.SetTarget(name, pos) {
			n++
		}
	}
	return n
}

// ProbePoint reports whether p is inside the body and how to push it out.
func (s *Simulation) ProbePoint(p rl.Vector3) (geom.Contact, bool) {
	return s.Collisions.CheckPointCollision(p)
}

// SetRadiusMultiplier rescales every body capsule.
func (s *Simulation) SetRadiusMultiplier(m float32) {
	if m <= 0 {
		return
	}
	s.cfg.RadiusMultiplier = m
	s.Body.Set().SetMultiplier(m)
}

func (s *Simulation) SetIKStride(n int) {
	if n > 0 {
		s.cfg.IKStride = n
	}
}
