package ik

import (
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Chain is an ordered run of joints from root to tip with an optional target.
// The tip is the end effector and is never rotated.
type Chain struct {
	Name   string
	Joints []*skeleton.Joint

	target    rl.Vector3
	hasTarget bool
}

// Active reports whether the chain has a target to reach for.
func (c *Chain) Active() bool {
	return c.hasTarget
}

func (c *Chain) Target() (rl.Vector3, bool) {
	return c.target, c.hasTarget
}

// Tip returns the end effector joint.
func (c *Chain) Tip() *skeleton.Joint {
	return c.Joints[len(c.Joints)-1]
}

// TipDistance returns how far the end effector is from the target, or -1 when idle.
func (c *Chain) TipDistance() float32 {
	if !c.hasTarget {
		return -1
	}
	return rl.Vector3Distance(c.Tip().WorldPosition(), c.target)
}
