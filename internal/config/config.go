// Package config describes a match in YAML.
package config

import (
	"fmt"
	"os"

	"github.com/san-kum/robosim/internal/body"
	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/dynamo"
	"github.com/san-kum/robosim/internal/integrators"
	"github.com/san-kum/robosim/internal/strategy"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.01
	DefaultDuration    = 90.0
	DefaultTeams       = 2
	DefaultTeamSize    = 2
	DefaultRadius      = 0.15
	DefaultTableWidth  = 3.0
	DefaultTableHeight = 2.0
	// TeamAuto lets the match pick the first team with a free slot.
	TeamAuto = -1
)

type Config struct {
	Name         string        `yaml:"name"`
	Dt           float64       `yaml:"dt"`
	Duration     float64       `yaml:"duration"`
	Seed         int64         `yaml:"seed"`
	StartJitter  float64       `yaml:"start_jitter"`
	Integrator   string        `yaml:"integrator"`
	StopWhenIdle bool          `yaml:"stop_when_idle"`
	Workers      int           `yaml:"workers"`
	Teams        int           `yaml:"teams"`
	TeamSize     int           `yaml:"team_size"`
	Table        body.Table    `yaml:"table"`
	Robots       []RobotConfig `yaml:"robots"`
}

type RobotConfig struct {
	Name     string          `yaml:"name"`
	Team     int             `yaml:"team"`
	Kind     string          `yaml:"kind"`
	Radius   float64         `yaml:"radius"`
	Friction float64         `yaml:"friction"`
	Start    dynamo.Pose2D   `yaml:"start"`
	Asserv   control.Config  `yaml:"asserv"`
	Strategy []strategy.Step `yaml:"strategy"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "match",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Integrator: integrators.Default,
		Teams:      DefaultTeams,
		TeamSize:   DefaultTeamSize,
		Table:      body.Table{Width: DefaultTableWidth, Height: DefaultTableHeight},
	}
}

func DefaultRobot() RobotConfig {
	return RobotConfig{
		Team:   TeamAuto,
		Kind:   string(control.KindBasic),
		Radius: DefaultRadius,
		Asserv: control.DefaultConfig(),
	}
}

// UnmarshalYAML decodes a robot over [DefaultRobot] so omitted fields keep
// their defaults.
func (r *RobotConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain RobotConfig
	v := plain(DefaultRobot())
	if err := n.Decode(&v); err != nil {
		return err
	}
	*r = RobotConfig(v)
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
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

func (c *Config) Validate() error {
	if !dynamo.IsFinite(c.Dt) || c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", dynamo.ErrParameterBounds, c.Dt)
	}
	if !dynamo.IsFinite(c.Duration) || c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", dynamo.ErrParameterBounds, c.Duration)
	}
	if !dynamo.IsFinite(c.StartJitter) || c.StartJitter < 0 {
		return fmt.Errorf("%w: start_jitter %v", dynamo.ErrParameterBounds, c.StartJitter)
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return err
	}
	if len(c.Robots) == 0 {
		return fmt.Errorf("%w: match has no robots", dynamo.ErrParameterBounds)
	}

	seen := make(map[string]bool, len(c.Robots))
	for i, r := range c.Robots {
		if r.Name == "" {
			return fmt.Errorf("robot %d: missing name", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("robot %s: %w", r.Name, dynamo.ErrAlreadyRegistered)
		}
		seen[r.Name] = true
		if err := r.Validate(); err != nil {
			return fmt.Errorf("robot %s: %w", r.Name, err)
		}
	}
	return nil
}

func (r *RobotConfig) Validate() error {
	if _, err := control.ParseKind(r.Kind); err != nil {
		return err
	}
	if !dynamo.IsFinite(r.Radius, r.Friction) || r.Radius < 0 || r.Friction < 0 {
		return fmt.Errorf("%w: radius %v friction %v", dynamo.ErrParameterBounds, r.Radius, r.Friction)
	}
	if !dynamo.IsFinite(r.Start.X, r.Start.Y, r.Start.Heading) {
		return fmt.Errorf("%w: start pose %+v", dynamo.ErrInvalidState, r.Start)
	}
	if err := r.Asserv.Validate(); err != nil {
		return err
	}
	for i, s := range r.Strategy {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Robots = make([]RobotConfig, len(c.Robots))
	for i, r := range c.Robots {
		r.Strategy = append([]strategy.Step(nil), r.Strategy...)
		cp.Robots[i] = r
	}
	return &cp
}
