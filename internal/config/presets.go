package config

import (
	"math"
	"sort"

	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/dynamo"
	"github.com/san-kum/robosim/internal/strategy"
)

func robot(name string, kind control.Kind, team int, start dynamo.Pose2D, steps ...strategy.Step) RobotConfig {
	r := DefaultRobot()
	r.Name, r.Kind, r.Team, r.Start, r.Strategy = name, string(kind), team, start, steps
	return r
}

func preset(name string, duration float64, robots ...RobotConfig) *Config {
	cfg := DefaultConfig()
	cfg.Name, cfg.Duration, cfg.StopWhenIdle, cfg.Robots = name, duration, true, robots
	return cfg
}

var Presets = map[string]*Config{
	"square": preset("square", 120,
		robot("basic", control.KindBasic, 0, dynamo.Pose2D{X: -0.5, Y: -0.5},
			strategy.Step{Op: strategy.OpGoto, X: 0.5, Y: -0.5},
			strategy.Step{Op: strategy.OpGoto, X: 0.5, Y: 0.5},
			strategy.Step{Op: strategy.OpGoto, X: -0.5, Y: 0.5},
			strategy.Step{Op: strategy.OpGotoTurn, X: -0.5, Y: -0.5, Angle: 0},
		),
	),
	"holonomic": preset("holonomic", 30,
		robot("galipeur", control.KindGalipeur, 0, dynamo.Pose2D{X: -1.2, Y: -0.7},
			strategy.Step{Op: strategy.OpGotoTurn, X: 1.0, Y: 0.6, Angle: math.Pi},
			strategy.Step{Op: strategy.OpGotoTurn, X: -0.4, Y: 0.2, Angle: -math.Pi / 2, Relative: true},
			strategy.Step{Op: strategy.OpTurn, Angle: 2 * math.Pi / 3, Relative: true},
		),
	),
	"duel": preset("duel", 90,
		robot("blue", control.KindBasic, 0, dynamo.Pose2D{X: -1.3, Y: 0.7},
			strategy.Step{Op: strategy.OpGoto, X: 0, Y: 0.4, Timeout: 10},
			strategy.Step{Op: strategy.OpBack, Distance: 0.3},
			strategy.Step{Op: strategy.OpGotoTurn, X: -1.0, Y: -0.5, Angle: math.Pi / 2, Timeout: 15},
		),
		robot("red", control.KindGalipeur, 1, dynamo.Pose2D{X: 1.3, Y: 0.7, Heading: math.Pi},
			strategy.Step{Op: strategy.OpGoto, X: 0, Y: -0.4, Timeout: 10},
			strategy.Step{Op: strategy.OpWait, Duration: 2},
			strategy.Step{Op: strategy.OpGotoTurn, X: 1.0, Y: -0.5, Angle: -math.Pi / 2, Timeout: 15},
		),
	),
	"timeout": preset("timeout", 20,
		robot("stuck", control.KindBasic, TeamAuto, dynamo.Pose2D{},
			// the target lies past the table border and is never reached
			strategy.Step{Op: strategy.OpGoto, X: 2.5, Y: 0, Timeout: 8},
			strategy.Step{Op: strategy.OpGoto, X: 0, Y: 0},
		),
	),
}

func init() {
	r := robot("braking", control.KindGalipeur, TeamAuto, dynamo.Pose2D{X: -1},
		strategy.Step{Op: strategy.OpGoto, X: 1.2, Y: 0, Timeout: 2},
		strategy.Step{Op: strategy.OpWait, Duration: 1},
	)
	r.Asserv.StopMode = control.StopRamped
	r.Asserv.LinearAccel = 0.4
	Presets["ramped-stop"] = preset("ramped-stop", 15, r)
}

// GetPreset returns a copy of the named preset, or nil if it does not exist.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
