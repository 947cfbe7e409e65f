package control

import (
	"fmt"

	"github.com/san-kum/robosim/internal/dynamo"
)

// StopMode selects how OrderStop halts a moving robot.
type StopMode string

const (
	// StopAbrupt zeroes the command on the next tick.
	StopAbrupt StopMode = "abrupt"
	// StopRamped brakes through the linear ramp before reporting arrival.
	StopRamped StopMode = "ramped"
)

const (
	DefaultMaxLinear    = 0.5  // m/s
	DefaultLinearAccel  = 1.0  // m/s²
	DefaultMaxAngular   = 3.0  // rad/s
	DefaultAngularAccel = 6.0  // rad/s²
	DefaultThresholdXY  = 5e-3 // m
	DefaultThresholdA   = 0.02 // rad
)

// Config holds the tunable parameters of a controller.
// An acceleration of 0 disables ramping on that axis.
type Config struct {
	MaxLinear    float64  `yaml:"max_linear" json:"max_linear"`
	LinearAccel  float64  `yaml:"linear_accel" json:"linear_accel"`
	MaxAngular   float64  `yaml:"max_angular" json:"max_angular"`
	AngularAccel float64  `yaml:"angular_accel" json:"angular_accel"`
	ThresholdXY  float64  `yaml:"threshold_xy" json:"threshold_xy"`
	ThresholdA   float64  `yaml:"threshold_a" json:"threshold_a"`
	StopMode     StopMode `yaml:"stop_mode" json:"stop_mode"`
}

func DefaultConfig() Config {
	return Config{
		MaxLinear:    DefaultMaxLinear,
		LinearAccel:  DefaultLinearAccel,
		MaxAngular:   DefaultMaxAngular,
		AngularAccel: DefaultAngularAccel,
		ThresholdXY:  DefaultThresholdXY,
		ThresholdA:   DefaultThresholdA,
		StopMode:     StopAbrupt,
	}
}

func (c Config) Validate() error {
	params := []struct {
		name string
		v    float64
	}{
		{"max_linear", c.MaxLinear},
		{"linear_accel", c.LinearAccel},
		{"max_angular", c.MaxAngular},
		{"angular_accel", c.AngularAccel},
		{"threshold_xy", c.ThresholdXY},
		{"threshold_a", c.ThresholdA},
	}
	for _, p := range params {
		if err := checkParam(p.name, p.v); err != nil {
			return err
		}
	}
	switch c.StopMode {
	case "", StopAbrupt, StopRamped:
	default:
		return fmt.Errorf("%w: stop_mode %q", dynamo.ErrParameterBounds, c.StopMode)
	}
	return nil
}

func checkParam(name string, v float64) error {
	if !dynamo.IsFinite(v) || v < 0 {
		return fmt.Errorf("%w: %s=%v", dynamo.ErrParameterBounds, name, v)
	}
	return nil
}
