package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"rigsim/internal/rigfile"
	"rigsim/internal/sim"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type runOptions struct {
	frames      int
	dt          float32
	targetsPath string
	watch       bool
	realtime    bool
	format      string
}

func newRunCmd(a *app) *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation headless and print the final snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("frames") {
				opts.frames = a.cfg.Sim.Frames
			}
			if !cmd.Flags().Changed("dt") {
				opts.dt = a.cfg.Sim.DT
			}
			return a.run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.frames, "frames", 300, "frames to simulate (0 runs until interrupted, needs --watch)")
	cmd.Flags().Float32Var(&opts.dt, "dt", 1.0/60.0, "seconds per frame")
	cmd.Flags().StringVar(&opts.targetsPath, "targets", "", "targets YAML file")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the targets file when it changes")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "pace frames to wall-clock time (implied by --watch)")
	cmd.Flags().StringVar(&opts.format, "format", "yaml", "snapshot format: yaml or json")
	return cmd
}

func (a *app) run(ctx context.Context, out io.Writer, opts runOptions) error {
	if opts.format != "yaml" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	if opts.dt <= 0 {
		return fmt.Errorf("--dt must be positive")
	}
	if opts.watch && opts.targetsPath == "" {
		return fmt.Errorf("--watch needs --targets")
	}
	if opts.frames < 0 || (opts.frames == 0 && !opts.watch) {
		return fmt.Errorf("--frames must be positive unless --watch is set")
	}

	s, err := a.simulation()
	if err != nil {
		return err
	}
	if opts.targetsPath != "" {
		targets, err := rigfile.LoadTargets(opts.targetsPath)
		if err != nil {
			return err
		}
		s.SetTargets(targets)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	updates := make(chan map[string]rl.Vector3, 1)
	if opts.watch {
		g.Go(func() error {
			return watchTargets(ctx, opts.targetsPath, updates, a.log)
		})
	}
	g.Go(func() error {
		defer stop()
		return stepFrames(ctx, s, opts, updates, a.log)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return writeSnapshot(out, s.Snapshot(), opts.format)
}

// stepFrames is the only goroutine touching the simulation. Target updates
// are applied between steps.
func stepFrames(ctx context.Context, s *sim.Simulation, opts runOptions, updates <-chan map[string]rl.Vector3, log *zap.Logger) error {
	var tick <-chan time.Time
	if opts.realtime || opts.watch {
		t := time.NewTicker(time.Duration(float64(opts.dt) * float64(time.Second)))
		defer t.Stop()
		tick = t.C
	}

	start := time.Now()
	for i := 0; opts.frames == 0 || i < opts.frames; i++ {
		select {
		case <-ctx.Done():
			log.Info("run interrupted", zap.Uint64("frame", s.Frame()))
			return nil
		case targets := <-updates:
			n := s.SetTargets(targets)
			log.Info("targets reloaded", zap.Int("applied", n), zap.Int("total", len(targets)))
		default:
		}

		s.Step(opts.dt)

		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
	}

	log.Info("run finished",
		zap.Uint64("frames", s.Frame()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("grounded", s.Character.IsGrounded()))
	return nil
}

func watchTargets(ctx context.Context, path string, out chan<- map[string]rl.Vector3, log *zap.Logger) error {
	w, err := rigfile.NewWatcher(log.Named("watch"), path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}
			targets, err := rigfile.LoadTargets(name)
			if err != nil {
				log.Warn("targets reload failed", zap.Error(err))
				continue
			}
			select {
			case out <- targets:
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		}
	}
}

func writeSnapshot(out io.Writer, snap sim.Snapshot, format string) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return err
	}
	return enc.Close()
}
