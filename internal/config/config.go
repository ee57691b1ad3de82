package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"rigsim/internal/character"
	"rigsim/internal/ik"
	"rigsim/internal/physics"
	"rigsim/internal/sim"

	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const EnvPrefix = "RIGSIM"

type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Physics   PhysicsConfig   `mapstructure:"physics" yaml:"physics"`
	Collision CollisionConfig `mapstructure:"collision" yaml:"collision"`
	IK        IKConfig        `mapstructure:"ik" yaml:"ik"`
	Sim       SimConfig       `mapstructure:"sim" yaml:"sim"`
	Viewer    ViewerConfig    `mapstructure:"viewer" yaml:"viewer"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // console or json
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

type PhysicsConfig struct {
	Gravity           float32  `mapstructure:"gravity" yaml:"gravity"`
	Damping           float32  `mapstructure:"damping" yaml:"damping"`
	GroundFriction    float32  `mapstructure:"ground_friction" yaml:"ground_friction"`
	GroundBones       []string `mapstructure:"ground_bones" yaml:"ground_bones"`
	TimeScaledDamping bool     `mapstructure:"time_scaled_damping" yaml:"time_scaled_damping"`
	ReferenceRate     float32  `mapstructure:"reference_rate" yaml:"reference_rate"`
}

type CollisionConfig struct {
	RadiusMultiplier float32 `mapstructure:"radius_multiplier" yaml:"radius_multiplier"`
	FloorY           float32 `mapstructure:"floor_y" yaml:"floor_y"`
	FloorMode        string  `mapstructure:"floor_mode" yaml:"floor_mode"` // capsules or ground_bones
}

type IKConfig struct {
	StepFactor    float32 `mapstructure:"step_factor" yaml:"step_factor"`
	MaxStepDeg    float32 `mapstructure:"max_step_deg" yaml:"max_step_deg"`
	MaxIterations int     `mapstructure:"max_iterations" yaml:"max_iterations"`
	Tolerance     float32 `mapstructure:"tolerance" yaml:"tolerance"`
	Stride        int     `mapstructure:"stride" yaml:"stride"`
}

type SimConfig struct {
	MaxStep        float32 `mapstructure:"max_step" yaml:"max_step"`
	ProjectTargets bool    `mapstructure:"project_targets" yaml:"project_targets"`
	Frames         int     `mapstructure:"frames" yaml:"frames"`
	DT             float32 `mapstructure:"dt" yaml:"dt"`
}

type ViewerConfig struct {
	Width     int32  `mapstructure:"width" yaml:"width"`
	Height    int32  `mapstructure:"height" yaml:"height"`
	TargetFPS int32  `mapstructure:"target_fps" yaml:"target_fps"`
	Title     string `mapstructure:"title" yaml:"title"`
}

// SetDefaults registers every key so env overrides work without a config file.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "rigsim")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", false)

	// -- Physics --
	phys := character.DefaultConfig()
	v.SetDefault("physics.gravity", phys.Gravity)
	v.SetDefault("physics.damping", phys.Damping)
	v.SetDefault("physics.ground_friction", phys.GroundFriction)
	v.SetDefault("physics.ground_bones", phys.GroundBones)
	v.SetDefault("physics.time_scaled_damping", phys.TimeScaledDamping)
	v.SetDefault("physics.reference_rate", phys.ReferenceRate)

	// -- Collision --
	v.SetDefault("collision.radius_multiplier", 1.0)
	v.SetDefault("collision.floor_y", 0.0)
	v.SetDefault("collision.floor_mode", "capsules")

	// -- IK --
	opts := ik.DefaultOptions()
	v.SetDefault("ik.step_factor", opts.StepFactor)
	v.SetDefault("ik.max_step_deg", 15.0)
	v.SetDefault("ik.max_iterations", opts.MaxIterations)
	v.SetDefault("ik.tolerance", opts.Tolerance)
	v.SetDefault("ik.stride", 6)

	// -- Sim --
	v.SetDefault("sim.max_step", 1.0/30.0)
	v.SetDefault("sim.project_targets", false)
	v.SetDefault("sim.frames", 300)
	v.SetDefault("sim.dt", 1.0/60.0)

	// -- Viewer --
	v.SetDefault("viewer.width", 1280)
	v.SetDefault("viewer.height", 720)
	v.SetDefault("viewer.target_fps", 60)
	v.SetDefault("viewer.title", "rigsim")
}

// Configure points v at the config file (or ./rigsim.yaml) and RIGSIM_ env vars.
func Configure(v *viper.Viper, path string) {
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("rigsim")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads path (optional) plus env overrides into a validated Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	Configure(v, path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return NewFromViper(v)
}

func NewFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used with no file and no env overrides.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults are all well-typed; Unmarshal cannot fail here.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return invalid("logger.format must be console or json, got %q", c.Logger.Format)
	}
	if c.Physics.Damping < 0 || c.Physics.Damping > 1 {
		return invalid("physics.damping must be within [0, 1]")
	}
	if c.Physics.GroundFriction < 0 || c.Physics.GroundFriction > 1 {
		return invalid("physics.ground_friction must be within [0, 1]")
	}
	if c.Physics.TimeScaledDamping && c.Physics.ReferenceRate <= 0 {
		return invalid("physics.reference_rate must be positive when time_scaled_damping is set")
	}
	if c.Collision.RadiusMultiplier <= 0 {
		return invalid("collision.radius_multiplier must be positive")
	}
	if _, err := parseFloorMode(c.Collision.FloorMode); err != nil {
		return err
	}
	if c.IK.StepFactor <= 0 || c.IK.StepFactor > 1 {
		return invalid("ik.step_factor must be within (0, 1]")
	}
	if c.IK.MaxStepDeg <= 0 {
		return invalid("ik.max_step_deg must be positive")
	}
	if c.IK.MaxIterations < 1 {
		return invalid("ik.max_iterations must be at least 1")
	}
	if c.IK.Tolerance < 0 {
		return invalid("ik.tolerance must not be negative")
	}
	if c.IK.Stride < 1 {
		return invalid("ik.stride must be at least 1")
	}
	if c.Sim.MaxStep <= 0 {
		return invalid("sim.max_step must be positive")
	}
	if c.Sim.DT <= 0 {
		return invalid("sim.dt must be positive")
	}
	if c.Sim.Frames < 0 {
		return invalid("sim.frames must not be negative")
	}
	return nil
}

func parseFloorMode(s string) (physics.FloorMode, error) {
	switch s {
	case "", "capsules":
		return physics.FloorCapsules, nil
	case "ground_bones":
		return physics.FloorGroundBones, nil
	default:
		return 0, invalid("collision.floor_mode must be capsules or ground_bones, got %q", s)
	}
}

// SimulationConfig converts the file layout into the simulation's settings.
func (c *Config) SimulationConfig() sim.Config {
	mode, _ := parseFloorMode(c.Collision.FloorMode)

	cc := character.DefaultConfig()
	cc.Gravity = c.Physics.Gravity
	cc.Damping = c.Physics.Damping
	cc.GroundFriction = c.Physics.GroundFriction
	cc.GroundHeight = c.Collision.FloorY
	if len(c.Physics.GroundBones) > 0 {
		cc.GroundBones = c.Physics.GroundBones
	}
	cc.TimeScaledDamping = c.Physics.TimeScaledDamping
	cc.ReferenceRate = c.Physics.ReferenceRate

	return sim.Config{
		IKStride:         c.IK.Stride,
		MaxStep:          c.Sim.MaxStep,
		FloorY:           c.Collision.FloorY,
		FloorMode:        mode,
		RadiusMultiplier: c.Collision.RadiusMultiplier,
		ProjectTargets:   c.Sim.ProjectTargets,
		Character:        cc,
		Solver: ik.Options{
			StepFactor:    c.IK.StepFactor,
			MaxStep:       c.IK.MaxStepDeg * math.Pi / 180,
			MaxIterations: c.IK.MaxIterations,
			Tolerance:     c.IK.Tolerance,
		},
	}
}
