package match

import (
	"github.com/san-kum/robosim/internal/body"
	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/dynamo"
	"github.com/san-kum/robosim/internal/strategy"
)

// TeamInvalid is the team of a robot not registered in any match.
const TeamInvalid = -1

// Robot bundles the controller, body and optional script of one contestant.
// A robot is stepped by a single goroutine at a time.
type Robot struct {
	Name   string
	Ctrl   *control.Controller
	Body   *body.Kinematic
	Script *strategy.Script

	integ   dynamo.Integrator
	metrics []dynamo.Metric
	team    int
	trace   []dynamo.Sample
}

func NewRobot(name string, ctrl *control.Controller, b *body.Kinematic, integ dynamo.Integrator) *Robot {
	return &Robot{
		Name:  name,
		Ctrl:  ctrl,
		Body:  b,
		integ: integ,
		team:  TeamInvalid,
	}
}

func (r *Robot) AddMetric(m dynamo.Metric) { r.metrics = append(r.metrics, m) }

func (r *Robot) Team() int { return r.team }

// Trace returns the samples recorded so far. The slice is owned by the robot.
func (r *Robot) Trace() []dynamo.Sample { return r.trace }

// Last returns the most recent sample.
func (r *Robot) Last() (dynamo.Sample, bool) {
	if len(r.trace) == 0 {
		return dynamo.Sample{}, false
	}
	return r.trace[len(r.trace)-1], true
}

// Idle reports whether the robot has no goal and nothing left to script.
func (r *Robot) Idle() bool {
	return r.Ctrl.IsArrived() && (r.Script == nil || r.Script.Done())
}

// tick runs one control period: the strategy sees the pose before the
// controller, and the body moves with the command produced this tick.
func (r *Robot) tick(step int, t, dt float64) error {
	snap := r.Body.Snapshot()
	r.Ctrl.Update(snap)

	if r.Script != nil {
		if err := r.Script.Update(r.Ctrl, t); err != nil {
			return &dynamo.TickError{Robot: r.Name, Step: step, Time: t, Wrapped: err}
		}
	}

	cmd := r.Ctrl.Step(snap, dt)
	r.Body.Apply(cmd)
	if err := r.Body.Advance(r.integ, t, dt); err != nil {
		return &dynamo.TickError{Robot: r.Name, Step: step, Time: t, Wrapped: err}
	}

	s := dynamo.Sample{Time: t, Snapshot: snap, Command: cmd, Arrived: r.Ctrl.IsArrived()}
	r.trace = append(r.trace, s)
	for _, m := range r.metrics {
		m.Observe(s)
	}
	return nil
}

func (r *Robot) reset(capacity int) {
	r.trace = make([]dynamo.Sample, 0, capacity)
	for _, m := range r.metrics {
		m.Reset()
	}
}

func (r *Robot) metricValues() map[string]float64 {
	vals := make(map[string]float64, len(r.metrics)+2)
	for _, m := range r.metrics {
		vals[m.Name()] = m.Value()
	}
	if r.Script != nil {
		vals["steps_completed"] = float64(r.Script.Completed())
		vals["steps_timed_out"] = float64(r.Script.TimedOut())
	}
	return vals
}
