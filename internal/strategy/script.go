// Package strategy drives a controller through a scripted list of orders.
//
// A [Script] issues its next step once the controller reports it is waiting
// and gives up on a step after its timeout by calling OrderStop. Timeouts run
// on simulated time, so a script replays identically for a given dt.
package strategy

import (
	"fmt"

	"github.com/san-kum/robosim/internal/dynamo"
	"go.uber.org/zap"
)

type Op string

const (
	OpGoto     Op = "goto"
	OpTurn     Op = "turn"
	OpGotoTurn Op = "goto_turn"
	OpBack     Op = "back"
	OpStop     Op = "stop"
	OpWait     Op = "wait"
)

// Step is one scripted order.
type Step struct {
	Op       Op      `yaml:"op" json:"op"`
	X        float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y        float64 `yaml:"y,omitempty" json:"y,omitempty"`
	Angle    float64 `yaml:"angle,omitempty" json:"angle,omitempty"`
	Distance float64 `yaml:"distance,omitempty" json:"distance,omitempty"`
	Relative bool    `yaml:"relative,omitempty" json:"relative,omitempty"`
	Timeout  float64 `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds, 0 waits forever
	Duration float64 `yaml:"duration,omitempty" json:"duration,omitempty"` // wait only
}

func (s Step) Validate() error {
	switch s.Op {
	case OpGoto, OpTurn, OpGotoTurn, OpBack, OpStop, OpWait:
	default:
		return fmt.Errorf("%w: strategy op %q", dynamo.ErrUnknownKind, s.Op)
	}
	if !dynamo.IsFinite(s.X, s.Y, s.Angle, s.Distance, s.Timeout, s.Duration) {
		return fmt.Errorf("%w: non-finite %s step", dynamo.ErrInvalidOrder, s.Op)
	}
	if s.Distance < 0 || s.Timeout < 0 || s.Duration < 0 {
		return fmt.Errorf("%w: negative value in %s step", dynamo.ErrInvalidOrder, s.Op)
	}
	return nil
}

func (s Step) String() string {
	switch s.Op {
	case OpGoto:
		return fmt.Sprintf("goto(%.3f, %.3f)", s.X, s.Y)
	case OpTurn:
		return fmt.Sprintf("turn(%.3f)", s.Angle)
	case OpGotoTurn:
		return fmt.Sprintf("goto_turn(%.3f, %.3f, %.3f)", s.X, s.Y, s.Angle)
	case OpBack:
		return fmt.Sprintf("back(%.3f)", s.Distance)
	case OpWait:
		return fmt.Sprintf("wait(%.3f)", s.Duration)
	}
	return string(s.Op)
}

// Orderer is the order surface of a motion controller.
type Orderer interface {
	OrderGoXY(p dynamo.Vec2, relative bool) error
	OrderTurn(a float64, relative bool) error
	OrderGoXYAndTurn(p dynamo.Vec2, a float64, relative bool) error
	OrderGoBack(d float64) error
	OrderStop()
	IsWaiting() bool
}

// Script runs steps in order. It is not safe for concurrent use.
type Script struct {
	steps []Step
	next  int

	active  bool
	started float64

	completed int
	timedOut  int

	log *zap.Logger
}

// New validates the steps and returns a script positioned on the first one.
func New(steps []Step, log *zap.Logger) (*Script, error) {
	for i, s := range steps {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Script{steps: append([]Step(nil), steps...), log: log}, nil
}

// Update resolves the active step and issues the next one when it is done.
// t is the current simulated time.
func (s *Script) Update(o Orderer, t float64) error {
	if s.active {
		cur := s.steps[s.next-1]
		elapsed := t - s.started

		switch {
		case s.finished(cur, o, elapsed):
			s.active = false
			s.completed++
		case cur.Timeout > 0 && elapsed >= cur.Timeout:
			o.OrderStop()
			s.active = false
			s.timedOut++
			s.log.Info("step timed out",
				zap.Int("step", s.next-1), zap.Stringer("order", cur), zap.Float64("after", elapsed))
			return nil
		default:
			return nil
		}
	}

	if s.next >= len(s.steps) {
		return nil
	}
	step := s.steps[s.next]
	if err := issue(o, step); err != nil {
		return fmt.Errorf("step %d %s: %w", s.next, step, err)
	}
	s.next++
	s.active = true
	s.started = t
	s.log.Debug("step issued", zap.Int("step", s.next-1), zap.Stringer("order", step), zap.Float64("t", t))
	return nil
}

func (s *Script) finished(step Step, o Orderer, elapsed float64) bool {
	if step.Op == OpWait {
		return elapsed >= step.Duration
	}
	return o.IsWaiting()
}

func issue(o Orderer, s Step) error {
	p := dynamo.Vec2{X: s.X, Y: s.Y}
	switch s.Op {
	case OpGoto:
		return o.OrderGoXY(p, s.Relative)
	case OpTurn:
		return o.OrderTurn(s.Angle, s.Relative)
	case OpGotoTurn:
		return o.OrderGoXYAndTurn(p, s.Angle, s.Relative)
	case OpBack:
		return o.OrderGoBack(s.Distance)
	case OpStop:
		o.OrderStop()
	}
	return nil
}

// Done reports whether every step has been issued and resolved.
func (s *Script) Done() bool {
	return !s.active && s.next >= len(s.steps)
}

// Current returns the active step, if any.
func (s *Script) Current() (Step, bool) {
	if !s.active {
		return Step{}, false
	}
	return s.steps[s.next-1], true
}

func (s *Script) Len() int       { return len(s.steps) }
func (s *Script) Completed() int { return s.completed }
func (s *Script) TimedOut() int  { return s.timedOut }

// Reset rewinds the script to its first step.
func (s *Script) Reset() {
	s.next, s.active, s.started = 0, false, 0
	s.completed, s.timedOut = 0, 0
}
