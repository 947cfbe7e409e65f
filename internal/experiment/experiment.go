// Package experiment assembles a runnable match from its configuration.
package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/robosim/internal/body"
	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/dynamo"
	"github.com/san-kum/robosim/internal/integrators"
	"github.com/san-kum/robosim/internal/match"
	"github.com/san-kum/robosim/internal/metrics"
	"github.com/san-kum/robosim/internal/strategy"
	"go.uber.org/zap"
)

type Experiment struct {
	cfg        *config.Config
	match      *match.Match
	randSource *rand.Rand
	log        *zap.Logger
}

// New validates cfg and builds the match it describes.
func New(cfg *config.Config, log *zap.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
		log:        log,
	}

	m, err := match.New(match.Config{
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		StopWhenIdle: cfg.StopWhenIdle,
		Workers:      cfg.Workers,
		Teams:        cfg.Teams,
		TeamSize:     cfg.TeamSize,
	}, log)
	if err != nil {
		return nil, err
	}
	for _, rc := range cfg.Robots {
		r, err := e.buildRobot(rc)
		if err != nil {
			return nil, fmt.Errorf("robot %s: %w", rc.Name, err)
		}
		if _, err := m.Register(r, rc.Team); err != nil {
			return nil, err
		}
	}
	e.match = m
	return e, nil
}

func (e *Experiment) buildRobot(rc config.RobotConfig) (*match.Robot, error) {
	log := e.log.With(zap.String("robot", rc.Name))

	kind, err := control.ParseKind(rc.Kind)
	if err != nil {
		return nil, err
	}
	ctrl, err := control.New(kind, rc.Asserv, log)
	if err != nil {
		return nil, err
	}
	// every robot integrates with its own instance, steppers keep scratch state
	integ, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}

	b := body.NewKinematic(e.jitter(rc.Start), rc.Radius, e.cfg.Table)
	b.Friction = rc.Friction

	r := match.NewRobot(rc.Name, ctrl, b, integ)
	if len(rc.Strategy) > 0 {
		if r.Script, err = strategy.New(rc.Strategy, log); err != nil {
			return nil, err
		}
	}
	for _, m := range metrics.Default() {
		r.AddMetric(m)
	}
	return r, nil
}

// jitter offsets a start position by up to StartJitter on each axis.
func (e *Experiment) jitter(p dynamo.Pose2D) dynamo.Pose2D {
	j := e.cfg.StartJitter
	if j == 0 {
		return p
	}
	p.X += (2*e.randSource.Float64() - 1) * j
	p.Y += (2*e.randSource.Float64() - 1) * j
	return p
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	return e.match.Run(ctx)
}

// Match returns the underlying match for adding observers or stepping by hand.
func (e *Experiment) Match() *match.Match {
	return e.match
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}
