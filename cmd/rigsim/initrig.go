package main

import (
	"fmt"
	"os"

	"rigsim/internal/rigfile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInitRigCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-rig <path>",
		Short: "Write the built-in humanoid rig to a file for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists, use --force to overwrite", path)
			}
			if err := rigfile.WriteDefault(path); err != nil {
				return err
			}
			a.log.Info("rig written", zap.String("path", path))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
