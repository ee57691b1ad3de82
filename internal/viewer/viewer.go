package viewer

import (
	"context"
	"fmt"

	"rigsim/internal/config"
	"rigsim/internal/physics"
	"rigsim/internal/sim"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

const (
	panelWidth   = 240
	jumpSpeed    = 3.5
	jointRadius  = 0.015
	pickDistance = 100
	targetLift   = 0.05 // keeps picked targets off the surface they were placed on
)

// Viewer draws a running simulation and exposes a small tuning panel.
type Viewer struct {
	Sim     *sim.Simulation
	Camera  *OrbitCamera
	Targets <-chan map[string]rl.Vector3

	cfg        config.ViewerConfig
	selected   int
	paused     bool
	showJoints bool
	radius     float32
	stride     float32
	spawn      rl.Vector3
	log        *zap.Logger
}

func New(s *sim.Simulation, cfg config.ViewerConfig, targets <-chan map[string]rl.Vector3, logger *zap.Logger) *Viewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	spawn := s.Character.RootPosition()
	return &Viewer{
		Sim:        s,
		Camera:     NewOrbitCamera(rl.Vector3{X: spawn.X, Y: spawn.Y, Z: spawn.Z}),
		Targets:    targets,
		cfg:        cfg,
		showJoints: true,
		radius:     s.Config().RadiusMultiplier,
		stride:     float32(s.Config().IKStride),
		spawn:      spawn,
		log:        logger,
	}
}

// Run opens the window and blocks until it is closed or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagMsaa4xHint)
	rl.InitWindow(v.cfg.Width, v.cfg.Height, v.cfg.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(v.cfg.TargetFPS)
	v.log.Info("viewer opened", zap.Int32("width", v.cfg.Width), zap.Int32("height", v.cfg.Height))

	for !rl.WindowShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		v.drainTargets()
		v.Update(rl.GetFrameTime())
		v.Draw()
	}
	return nil
}

func (v *Viewer) drainTargets() {
	for {
		select {
		case targets, ok := <-v.Targets:
			if !ok {
				v.Targets = nil
				return
			}
			n := v.Sim.SetTargets(targets)
			v.log.Info("targets reloaded", zap.Int("applied", n), zap.Int("total", len(targets)))
		default:
			return
		}
	}
}

func (v *Viewer) Update(deltaTime float32) {
	if rl.GetMouseX() > panelWidth {
		v.Camera.Update()
	}

	if rl.IsKeyPressed(rl.KeyP) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeySpace) && v.Sim.Character.IsGrounded() {
		v.Sim.Character.SetVelocityY(jumpSpeed)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.reset()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.selectNext()
	}
	if rl.IsKeyPressed(rl.KeyC) {
		if chain := v.selectedChain(); chain != "" {
			v.Sim.ClearTarget(chain)
		}
	}
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) && rl.GetMouseX() > panelWidth {
		v.pick(rl.GetScreenToWorldRay(rl.GetMousePosition(), v.Camera.GetRaylibCamera()))
	}

	if !v.paused {
		v.Sim.Step(deltaTime)
	}
	v.Camera.Target = rl.Vector3Lerp(v.Camera.Target, v.Sim.Character.RootPosition(), 0.1)
}

func (v *Viewer) selectedChain() string {
	chains := v.Sim.Solver.Chains()
	if len(chains) == 0 {
		return ""
	}
	return chains[v.selected%len(chains)].Name
}

func (v *Viewer) selectNext() {
	if n := len(v.Sim.Solver.Chains()); n > 0 {
		v.selected = (v.selected + 1) % n
	}
}

// pick moves the selected chain's target to where the ray meets the scene.
func (v *Viewer) pick(ray rl.Ray) {
	chain := v.selectedChain()
	if chain == "" {
		return
	}
	hit, ok := v.Sim.Collisions.Raycast(ray.Position, ray.Direction, pickDistance)
	if !ok {
		return
	}
	point := rl.Vector3Add(hit.Point, rl.Vector3Scale(hit.Normal, targetLift))
	v.Sim.SetTarget(chain, point)
	v.log.Debug("target picked", zap.String("chain", chain), zap.String("bone", hit.Bone),
		zap.Float32("x", point.X), zap.Float32("y", point.Y), zap.Float32("z", point.Z))
}

func (v *Viewer) reset() {
	v.Sim.Character.Reset()
	v.Sim.Character.SetRootPosition(v.spawn)
	v.Sim.Skeleton.UpdateWorld()
}

func (v *Viewer) Draw() {
	snap := v.Sim.Snapshot()

	rl.BeginDrawing()
	rl.ClearBackground(rl.RayWhite)

	rl.BeginMode3D(v.Camera.GetRaylibCamera())
	rl.DrawGrid(20, 0.5)
	v.drawObstacles()
	for _, c := range snap.Capsules {
		rl.DrawCapsuleWires(c.Start.Vector3(), c.End.Vector3(), c.Radius, 8, 4, CategoryColor(c.Category))
	}
	if v.showJoints {
		for _, j := range snap.Joints {
			rl.DrawSphere(j.WorldPosition.Vector3(), jointRadius, rl.DarkGray)
		}
	}
	for _, t := range snap.Targets {
		rl.DrawSphere(t.Position.Vector3(), 0.04, rl.Red)
		if chain := v.Sim.Solver.Chain(t.Chain); chain != nil {
			rl.DrawLine3D(chain.Tip().WorldPosition(), t.Position.Vector3(), rl.Fade(rl.Red, 0.5))
		}
	}
	rl.EndMode3D()

	v.drawPanel(snap)
	rl.EndDrawing()
}

func (v *Viewer) drawObstacles() {
	if v.Sim.Obstacles == nil {
		return
	}
	for _, c := range v.Sim.Obstacles.Capsules {
		rl.DrawCapsule(c.Start, c.End, c.Radius, 12, 6, rl.Fade(rl.Gray, 0.6))
	}
}

func (v *Viewer) drawPanel(snap sim.Snapshot) {
	rl.DrawRectangle(0, 0, panelWidth, v.cfg.Height, rl.Fade(rl.LightGray, 0.85))

	y := float32(10)
	row := func(h float32) rl.Rectangle {
		r := rl.Rectangle{X: 10, Y: y, Width: panelWidth - 20, Height: h}
		y += h + 6
		return r
	}

	rl.DrawText(fmt.Sprintf("frame %d", snap.Frame), 10, int32(y), 16, rl.DarkGray)
	y += 20
	rl.DrawText(fmt.Sprintf("root %.2f %.2f %.2f", snap.Root.X, snap.Root.Y, snap.Root.Z), 10, int32(y), 16, rl.DarkGray)
	y += 20
	grounded := "airborne"
	if snap.Grounded {
		grounded = "grounded"
	}
	rl.DrawText(fmt.Sprintf("%s  vy %.2f", grounded, snap.Velocity.Y), 10, int32(y), 16, rl.DarkGray)
	y += 26

	rl.DrawText("Radius multiplier", 10, int32(y), 14, rl.DarkGray)
	y += 16
	radius := gui.Slider(row(18), "", fmt.Sprintf("%.2f", v.radius), v.radius, 0.25, 3)
	if radius != v.radius {
		v.radius = radius
		v.Sim.SetRadiusMultiplier(radius)
	}

	rl.DrawText("IK stride", 10, int32(y), 14, rl.DarkGray)
	y += 16
	stride := gui.Slider(row(18), "", fmt.Sprintf("%d", int(v.stride)), v.stride, 1, 30)
	if int(stride) != int(v.stride) {
		v.Sim.SetIKStride(int(stride))
	}
	v.stride = stride

	v.paused = gui.CheckBox(row(16), "Paused (P)", v.paused)
	v.showJoints = gui.CheckBox(row(16), "Joints", v.showJoints)
	if gui.Button(row(24), "Reset (R)") {
		v.reset()
	}

	rl.DrawText(fmt.Sprintf("chain: %s (Tab)", v.selectedChain()), 10, int32(y), 14, rl.DarkGray)
	y += 16
	rl.DrawText("click to place, C to clear", 10, int32(y), 14, rl.Gray)
	y += 22
	for _, t := range snap.Targets {
		rl.DrawText(fmt.Sprintf("%s  %.3f", t.Chain, t.Distance), 10, int32(y), 14, rl.Maroon)
		y += 16
	}
}

// CategoryColor colours a capsule by body region.
func CategoryColor(category string) rl.Color {
	switch category {
	case physics.CategoryTorso.String():
		return rl.DarkBlue
	case physics.CategoryArm.String():
		return rl.DarkGreen
	case physics.CategoryLeg.String():
		return rl.Orange
	case physics.CategoryShoulder.String():
		return rl.Purple
	case physics.CategoryHips.String():
		return rl.Brown
	default:
		return rl.Gray
	}
}
