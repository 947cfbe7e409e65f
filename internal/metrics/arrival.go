package metrics

import "github.com/san-kum/robosim/internal/dynamo"

// ArrivalTime is the time of the last transition from moving to arrived.
// It stays 0 for a robot that never received an order, and is -1 while the
// robot is still moving at the end of the run.
type ArrivalTime struct {
	at     float64
	moving bool
}

func NewArrivalTime() *ArrivalTime { return &ArrivalTime{} }

func (a *ArrivalTime) Name() string { return "arrival_time" }

func (a *ArrivalTime) Observe(s dynamo.Sample) {
	switch {
	case !s.Arrived:
		a.moving = true
	case a.moving:
		a.moving = false
		a.at = s.Time
	}
}

func (a *ArrivalTime) Value() float64 {
	if a.moving {
		return -1
	}
	return a.at
}

func (a *ArrivalTime) Reset() { *a = ArrivalTime{} }

// IdleRatio is the fraction of ticks the robot spent with no pending goal.
type IdleRatio struct {
	idle    int
	samples int
}

func NewIdleRatio() *IdleRatio { return &IdleRatio{} }

func (r *IdleRatio) Name() string { return "idle_ratio" }

func (r *IdleRatio) Observe(s dynamo.Sample) {
	r.samples++
	if s.Arrived {
		r.idle++
	}
}

func (r *IdleRatio) Value() float64 {
	if r.samples == 0 {
		return 1.0
	}
	return float64(r.idle) / float64(r.samples)
}

func (r *IdleRatio) Reset() {
	r.idle = 0
	r.samples = 0
}
