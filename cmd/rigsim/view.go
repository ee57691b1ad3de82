package main

import (
	"context"
	"errors"

	"rigsim/internal/rigfile"
	"rigsim/internal/viewer"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newViewCmd(a *app) *cobra.Command {
	var targetsPath string
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the debug viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.view(cmd.Context(), targetsPath)
		},
	}
	cmd.Flags().StringVar(&targetsPath, "targets", "", "targets YAML file, watched for changes")
	return cmd
}

// view runs the window on the calling goroutine; raylib needs the main thread.
func (a *app) view(ctx context.Context, targetsPath string) error {
	s, err := a.simulation()
	if err != nil {
		return err
	}
	if targetsPath != "" {
		targets, err := rigfile.LoadTargets(targetsPath)
		if err != nil {
			return err
		}
		s.SetTargets(targets)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	var updates chan map[string]rl.Vector3
	if targetsPath != "" {
		updates = make(chan map[string]rl.Vector3, 1)
		g.Go(func() error {
			return watchTargets(ctx, targetsPath, updates, a.log)
		})
	}

	runErr := viewer.New(s, a.cfg.Viewer, updates, a.log.Named("viewer")).Run(ctx)
	stop()
	if err := g.Wait(); err != nil {
		return err
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
