package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"rigsim/internal/sim"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spf13/cobra"
)

func newCapsulesCmd(a *app) *cobra.Command {
	var multiplier float32
	cmd := &cobra.Command{
		Use:   "capsules",
		Short: "Print the collision capsules built for the rig",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.simulation()
			if err != nil {
				return err
			}
			if multiplier > 0 {
				s.SetRadiusMultiplier(multiplier)
			}
			return writeCapsuleTable(cmd.OutOrStdout(), s.Snapshot().Capsules)
		},
	}
	cmd.Flags().Float32Var(&multiplier, "multiplier", 0, "radius multiplier override")
	return cmd
}

func writeCapsuleTable(out io.Writer, capsules []sim.CapsuleState) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BONE\tCHILD\tCATEGORY\tLENGTH\tRADIUS\tLOWEST")
	for _, c := range capsules {
		length := rl.Vector3Distance(c.Start.Vector3(), c.End.Vector3())
		lowest := min(c.Start.Y, c.End.Y) - c.Radius
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%.3f\t%.3f\n", c.Bone, c.Child, c.Category, length, c.Radius, lowest)
	}
	fmt.Fprintf(tw, "%d capsules\n", len(capsules))
	return tw.Flush()
}
