// Package ramp implements the quadramp trapezoidal velocity filter.
//
// A [Quadramp] turns a signed remaining distance into a velocity that never
// exceeds VarV, never changes by more than VarA per second and starts braking
// once the remaining distance falls under the constant-deceleration stopping
// distance:
//
//	v_dec(t) = v0 - a t
//	x_dec(t) = v0 t - a t²/2
//	t_dec    = v0 / a
//	d_dec    = x_dec(t_dec) = v0² / (2a)
package ramp

import "math"

// Quadramp is a trapezoidal velocity ramp.
// The zero value is usable and always returns 0 until VarV is set.
type Quadramp struct {
	VarV float64 // maximum velocity magnitude
	VarA float64 // maximum acceleration magnitude, 0 disables ramping

	cur float64
}

// New returns a ramp with maximum velocity v and acceleration a.
func New(v, a float64) *Quadramp {
	return &Quadramp{VarV: v, VarA: a}
}

// Reset sets the current velocity, discarding momentum from a previous segment.
func (q *Quadramp) Reset(v float64) {
	q.cur = v
}

// Velocity returns the velocity produced by the last Step.
func (q *Quadramp) Velocity() float64 {
	return q.cur
}

// StoppingDistance returns the distance needed to brake from v to 0.
// It is +Inf when ramping is disabled and v is not zero.
func (q *Quadramp) StoppingDistance(v float64) float64 {
	if v == 0 {
		return 0
	}
	if q.VarA <= 0 {
		return math.Inf(1)
	}
	return v * v / (2 * q.VarA)
}

// Step feeds the filter with the signed distance d still to travel and the
// time dt elapsed since the previous step, and returns the new velocity.
// The sign of the result follows d; the magnitude ramps from the previous one.
// A non-positive dt leaves the filter untouched.
func (q *Quadramp) Step(d, dt float64) float64 {
	if dt <= 0 || math.IsNaN(d) {
		return q.cur
	}

	vmax := math.Abs(q.VarV)
	dist := math.Abs(d)
	dir := sign(d)

	if q.VarA <= 0 {
		q.cur = dir * vmax
		return q.cur
	}

	// |d| <= v²/2a is the same test as v >= sqrt(2a|d|): brake toward the
	// fastest velocity that can still stop in the remaining distance.
	target := math.Min(vmax, math.Sqrt(2*q.VarA*dist))
	mag := math.Min(math.Abs(q.cur), vmax)
	if mag > target {
		mag = math.Max(target, mag-q.VarA*dt)
	} else {
		mag = math.Min(target, mag+q.VarA*dt)
	}

	// never travel past the target within one step
	if mag*dt > dist {
		mag = dist / dt
	}

	q.cur = dir * mag
	return q.cur
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
