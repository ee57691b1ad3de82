package ik

import (
	"math"

	"rigsim/internal/geom"
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

const (
	// Joints already within this angle of their target are left alone
	minAngle = 0.01
	// Rotation steps smaller than this are skipped as jitter
	minStep = 0.001
)

// Options tune the solver. The zero value is not useful; start from DefaultOptions.
type Options struct {
	// StepFactor is the fraction of the remaining angle applied per pass.
	StepFactor float32
	// MaxStep caps a single joint rotation per pass, in radians.
	MaxStep float32
	// MaxIterations bounds the passes made by one Solve call.
	MaxIterations int
	// Tolerance ends a Solve early once every active tip is this close to its
	// target. Zero disables the check.
	Tolerance float32
}

func DefaultOptions() Options {
	return Options{
		StepFactor:    0.05,
		MaxStep:       math.Pi / 12,
		MaxIterations: 1,
		Tolerance:     0,
	}
}

// Solver turns chain joints a damped, capped step toward their targets on each
// Solve. Unreachable targets are chased forever and never reported.
type Solver struct {
	skeleton *skeleton.Skeleton
	opts     Options
	chains   []*Chain
	byName   map[string]*Chain
	log      *zap.Logger
}

func NewSolver(sk *skeleton.Skeleton, opts Options, logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOptions()
	if opts.StepFactor <= 0 {
		opts.StepFactor = defaults.StepFactor
	}
	if opts.MaxStep <= 0 {
		opts.MaxStep = defaults.MaxStep
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaults.MaxIterations
	}
	if opts.Tolerance < 0 {
		opts.Tolerance = 0
	}
	return &Solver{
		skeleton: sk,
		opts:     opts,
		chains:   make([]*Chain, 0),
		byName:   make(map[string]*Chain),
		log:      logger,
	}
}

func (s *Solver) Options() Options {
	return s.opts
}

// AddChain registers a chain from joint names ordered root to tip. Chains with
// fewer than two known joints, or joints out of hierarchy order, are skipped
// with a warning and AddChain returns false.
func (s *Solver) AddChain(name string, jointNames ...string) bool {
	if s.skeleton == nil {
		s.log.Warn("ik chain skipped: no skeleton", zap.String("chain", name))
		return false
	}
	if _, exists := s.byName[name]; exists {
		s.log.Warn("ik chain skipped: duplicate name", zap.String("chain", name))
		return false
	}

	joints := make([]*skeleton.Joint, 0, len(jointNames))
	for _, jn := range jointNames {
		j := s.skeleton.FindBySuffix(jn)
		if j == nil {
			s.log.Warn("ik chain joint not found", zap.String("chain", name), zap.String("joint", jn))
			continue
		}
		joints = append(joints, j)
	}
	if len(joints) < 2 {
		s.log.Warn("ik chain skipped: needs at least two joints",
			zap.String("chain", name),
			zap.Int("found", len(joints)))
		return false
	}
	for i := 1; i < len(joints); i++ {
		if !joints[i-1].IsAncestorOf(joints[i]) {
			s.log.Warn("ik chain skipped: joints out of hierarchy order",
				zap.String("chain", name),
				zap.String("joint", joints[i].Name),
				zap.String("expected_ancestor", joints[i-1].Name))
			return false
		}
	}

	c := &Chain{Name: name, Joints: joints}
	s.chains = append(s.chains, c)
	s.byName[name] = c
	s.log.Debug("ik chain added", zap.String("chain", name), zap.Int("joints", len(joints)))
	return true
}

func (s *Solver) Chain(name string) *Chain {
	return s.byName[name]
}

func (s *Solver) Chains() []*Chain {
	return s.chains
}

// SetTarget activates a chain. Returns false for unknown chains.
func (s *Solver) SetTarget(name string, pos rl.Vector3) bool {
	c := s.byName[name]
	if c == nil {
		return false
	}
	c.target = pos
	c.hasTarget = true
	return true
}

// ClearTarget returns a chain to idle.
func (s *Solver) ClearTarget(name string) {
	if c := s.byName[name]; c != nil {
		c.hasTarget = false
	}
}

func (s *Solver) Target(name string) (rl.Vector3, bool) {
	c := s.byName[name]
	if c == nil {
		return rl.Vector3{}, false
	}
	return c.Target()
}

// Solve runs up to MaxIterations passes over every active chain, then refreshes
// the skeleton's world transforms.
func (s *Solver) Solve() {
	if s.skeleton == nil {
		return
	}
	for i := 0; i < s.opts.MaxIterations; i++ {
		if s.converged() {
			break
		}
		for _, c := range s.chains {
			if c.hasTarget {
				s.solveChain(c)
			}
		}
	}
	s.skeleton.UpdateWorld()
}

// converged reports whether every active tip is within tolerance.
func (s *Solver) converged() bool {
	if s.opts.Tolerance <= 0 {
		return false
	}
	for _, c := range s.chains {
		if c.hasTarget && c.TipDistance() > s.opts.Tolerance {
			return false
		}
	}
	return true
}

func (s *Solver) solveChain(c *Chain) {
	for i := 0; i < len(c.Joints)-1; i++ {
		s.stepJoint(c.Joints[i], c.Joints[i+1], c.target)
	}
}

// stepJoint turns joint so the bone toward child swings toward target.
func (s *Solver) stepJoint(joint, child *skeleton.Joint, target rl.Vector3) {
	pose := joint.WorldPose()
	childPos := child.WorldPosition()

	toChild := rl.Vector3Subtract(childPos, pose.Position)
	toTarget := rl.Vector3Subtract(target, pose.Position)
	if rl.Vector3Length(toChild) < geom.Epsilon || rl.Vector3Length(toTarget) < geom.Epsilon {
		return
	}
	currentDir := rl.Vector3Normalize(toChild)
	targetDir := rl.Vector3Normalize(toTarget)

	angle := geom.AngleBetween(currentDir, targetDir)
	if angle <= minAngle {
		return
	}

	step := angle * s.opts.StepFactor
	if step > s.opts.MaxStep {
		step = s.opts.MaxStep
	}
	if step < minStep {
		return
	}

	// Opposite directions have no unique axis; any perpendicular works
	axis := rl.Vector3CrossProduct(currentDir, targetDir)
	if rl.Vector3Length(axis) < geom.Epsilon {
		axis = geom.Perpendicular(currentDir)
	} else {
		axis = rl.Vector3Normalize(axis)
	}

	delta := rl.QuaternionFromAxisAngle(axis, step)
	joint.SetWorldRotation(rl.QuaternionMultiply(delta, pose.Rotation))
}
