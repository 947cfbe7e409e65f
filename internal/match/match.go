// Package match runs robots registered to teams on a shared clock.
package match

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/robosim/internal/dynamo"
	"go.uber.org/zap"
)

type Config struct {
	Dt       float64
	Duration float64
	// StopWhenIdle ends the run early once every robot is idle.
	StopWhenIdle bool
	// Workers bounds the goroutines stepping robots, 0 means one per robot.
	Workers  int
	Teams    int
	TeamSize int
}

func DefaultConfig() Config {
	return Config{
		Dt:       0.01,
		Duration: 90,
		Teams:    2,
		TeamSize: 2,
	}
}

func (c Config) Validate() error {
	if !dynamo.IsFinite(c.Dt) || c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", dynamo.ErrParameterBounds, c.Dt)
	}
	if !dynamo.IsFinite(c.Duration) || c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", dynamo.ErrParameterBounds, c.Duration)
	}
	if c.Teams <= 0 || c.TeamSize <= 0 {
		return fmt.Errorf("%w: teams %d of size %d", dynamo.ErrParameterBounds, c.Teams, c.TeamSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", dynamo.ErrParameterBounds, c.Workers)
	}
	return nil
}

// Match owns the registered robots and the simulated clock.
type Match struct {
	cfg       Config
	robots    []*Robot
	observers []dynamo.Observer
	t         float64
	step      int
	log       *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Match{cfg: cfg, log: log}, nil
}

func (m *Match) AddObserver(o dynamo.Observer) { m.observers = append(m.observers, o) }

func (m *Match) Config() Config   { return m.cfg }
func (m *Match) Robots() []*Robot { return m.robots }
func (m *Match) Time() float64    { return m.t }
func (m *Match) Steps() int       { return m.step }

func (m *Match) Robot(name string) (*Robot, bool) {
	for _, r := range m.robots {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Register adds r to a team and returns the team index.
// TeamInvalid picks the first team with a free slot.
func (m *Match) Register(r *Robot, team int) (int, error) {
	if r.team != TeamInvalid {
		return TeamInvalid, fmt.Errorf("%w: %s", dynamo.ErrAlreadyRegistered, r.Name)
	}
	if _, dup := m.Robot(r.Name); dup {
		return TeamInvalid, fmt.Errorf("%w: name %s is taken", dynamo.ErrAlreadyRegistered, r.Name)
	}

	if team == TeamInvalid {
		team = m.freeTeam()
		if team == TeamInvalid {
			return TeamInvalid, fmt.Errorf("%w: no team can take %s", dynamo.ErrTeamFull, r.Name)
		}
	} else if team < 0 || team >= m.cfg.Teams {
		return TeamInvalid, fmt.Errorf("%w: team %d, match has %d", dynamo.ErrParameterBounds, team, m.cfg.Teams)
	} else if m.teamCount(team) >= m.cfg.TeamSize {
		return TeamInvalid, fmt.Errorf("%w: team %d", dynamo.ErrTeamFull, team)
	}

	r.team = team
	m.robots = append(m.robots, r)
	m.log.Info("robot registered", zap.String("robot", r.Name), zap.Int("team", team))
	return team, nil
}

func (m *Match) teamCount(team int) int {
	n := 0
	for _, r := range m.robots {
		if r.team == team {
			n++
		}
	}
	return n
}

func (m *Match) freeTeam() int {
	for team := 0; team < m.cfg.Teams; team++ {
		if m.teamCount(team) < m.cfg.TeamSize {
			return team
		}
	}
	return TeamInvalid
}

// Step advances every robot by one tick. Robots are stepped in parallel;
// observers are notified afterwards in registration order.
func (m *Match) Step(ctx context.Context) error {
	dt, t, step := m.cfg.Dt, m.t, m.step
	err := dynamo.ForEach(ctx, len(m.robots), m.cfg.Workers, func(ctx context.Context, i int) error {
		return m.robots[i].tick(step, t, dt)
	})
	if err != nil {
		return err
	}

	for _, r := range m.robots {
		s, _ := r.Last()
		for _, o := range m.observers {
			o.OnStep(r.Name, s)
		}
	}
	m.step++
	m.t = float64(m.step) * dt
	return nil
}

// Idle reports whether every robot is idle.
func (m *Match) Idle() bool {
	for _, r := range m.robots {
		if !r.Idle() {
			return false
		}
	}
	return true
}

// Run resets the clock and steps the match for its configured duration.
// On cancellation the partial result is returned with the context error.
func (m *Match) Run(ctx context.Context) (*dynamo.Result, error) {
	steps := int(math.Round(m.cfg.Duration / m.cfg.Dt))
	m.t, m.step = 0, 0
	for _, r := range m.robots {
		r.reset(steps)
	}

	var runErr error
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := m.Step(ctx); err != nil {
			runErr = err
			break
		}
		if m.cfg.StopWhenIdle && m.Idle() {
			m.log.Info("all robots idle", zap.Float64("t", m.t))
			break
		}
	}

	res := m.Result()
	m.log.Info("match finished", zap.Int("steps", res.StepsTaken), zap.Float64("duration", res.Duration))
	return res, runErr
}

// Result snapshots traces and metrics recorded so far.
func (m *Match) Result() *dynamo.Result {
	res := &dynamo.Result{
		Traces:     make(map[string][]dynamo.Sample, len(m.robots)),
		Metrics:    make(map[string]map[string]float64, len(m.robots)),
		Teams:      make(map[string]int, len(m.robots)),
		Duration:   m.t,
		StepsTaken: m.step,
	}
	for _, r := range m.robots {
		res.Traces[r.Name] = append([]dynamo.Sample(nil), r.trace...)
		res.Metrics[r.Name] = r.metricValues()
		res.Teams[r.Name] = r.team
	}
	return res
}
