package main

import (
	"errors"
	"fmt"

	"rigsim/internal/config"
	"rigsim/internal/observability"
	"rigsim/internal/rigfile"
	"rigsim/internal/sim"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once PersistentPreRunE has run.
type app struct {
	v       *viper.Viper
	cfgFile string
	rigPath string
	cfg     *config.Config
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "rigsim",
		Short:         "Humanoid skeleton IK and capsule physics simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./rigsim.yaml)")
	root.PersistentFlags().StringVar(&a.rigPath, "rig", "", "rig YAML file (default is the built-in humanoid)")
	root.PersistentFlags().String("log-level", "", "log level override")
	_ = a.v.BindPFlag("logger.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newRunCmd(a), newViewCmd(a), newCapsulesCmd(a), newInitRigCmd(a))
	return root
}

func (a *app) initialize() error {
	config.Configure(a.v, a.cfgFile)
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := config.NewFromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = observability.Initialize(cfg.Logger)
	a.log.Debug("configuration loaded", zap.String("file", a.v.ConfigFileUsed()))
	return nil
}

func (a *app) simulation() (*sim.Simulation, error) {
	rig, err := rigfile.LoadOrDefault(a.rigPath)
	if err != nil {
		return nil, err
	}
	return rig.NewSimulation(a.cfg.SimulationConfig(), a.log)
}
