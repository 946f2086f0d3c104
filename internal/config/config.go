package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/risley/internal/motion"
	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/rays"
)

const (
	DefaultDataDir  = ".risley"
	DefaultFPS      = 60
	DefaultCapacity = rays.DefaultCapacity
)

// Config is the on-disk description of a session. Angles are degrees,
// lengths millimeters.
type Config struct {
	Optics    OpticsConfig    `yaml:"optics"`
	Animation AnimationConfig `yaml:"animation"`
	Capacity  int             `yaml:"capacity"`
	Targets   []Target        `yaml:"targets,omitempty"`
	DataDir   string          `yaml:"data_dir"`
}

type OpticsConfig struct {
	WedgeAngleDeg   float64 `yaml:"wedge_angle_deg"`
	RefractiveIndex float64 `yaml:"refractive_index"`
	ThicknessMm     float64 `yaml:"thickness_mm"`
	DiameterMm      float64 `yaml:"diameter_mm"`
	SeparationMm    float64 `yaml:"separation_mm"`
	ScreenMm        float64 `yaml:"screen_distance_mm"`
}

type AnimationConfig struct {
	Enabled bool    `yaml:"enabled"`
	Speed   float64 `yaml:"speed"` // multiplier, 0.1-5
	Rate    float64 `yaml:"rate"`  // smoothing rate in 1/s
	FPS     int     `yaml:"fps"`
}

// Target is a screen point in millimeters.
type Target struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func DefaultConfig() *Config {
	return &Config{
		Optics: OpticsConfig{
			WedgeAngleDeg:   optics.DefaultWedgeAngleDeg,
			RefractiveIndex: optics.DefaultRefractiveIndex,
			ThicknessMm:     optics.DefaultThickness,
			DiameterMm:      optics.DefaultDiameter,
			SeparationMm:    optics.DefaultSeparation,
			ScreenMm:        optics.DefaultScreenDistance,
		},
		Animation: AnimationConfig{
			Speed: motion.DefaultSpeed,
			Rate:  motion.DefaultRate,
			FPS:   DefaultFPS,
		},
		Capacity: DefaultCapacity,
		DataDir:  DefaultDataDir,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Parameters converts the optics section to model units.
func (c *Config) Parameters() optics.Parameters {
	return optics.Parameters{
		WedgeAngle:      optics.Radians(c.Optics.WedgeAngleDeg),
		RefractiveIndex: c.Optics.RefractiveIndex,
		PrismThickness:  c.Optics.ThicknessMm,
		PrismDiameter:   c.Optics.DiameterMm,
		PrismSeparation: c.Optics.SeparationMm,
		ScreenDistance:  c.Optics.ScreenMm,
	}
}

// Validate checks the optics ranges and the animation and capacity settings.
func (c *Config) Validate() error {
	if err := c.Parameters().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("invalid config: capacity must be positive, got %d", c.Capacity)
	}
	if len(c.Targets) > c.Capacity {
		return fmt.Errorf("invalid config: %d targets exceed capacity %d", len(c.Targets), c.Capacity)
	}
	if c.Animation.Speed < motion.MinSpeed || c.Animation.Speed > motion.MaxSpeed {
		return fmt.Errorf("invalid config: animation speed must be within [%.1f, %.1f], got %g",
			motion.MinSpeed, motion.MaxSpeed, c.Animation.Speed)
	}
	if c.Animation.Rate <= 0 {
		return fmt.Errorf("invalid config: animation rate must be positive, got %g", c.Animation.Rate)
	}
	if c.Animation.FPS <= 0 {
		return fmt.Errorf("invalid config: fps must be positive, got %d", c.Animation.FPS)
	}
	return nil
}
