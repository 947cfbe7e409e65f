package ramp

import (
	"math"
	"testing"
)

// drive simulates a body following the filter toward a target dist away.
func drive(q *Quadramp, dist, dt float64, steps int) (remaining float64, peak float64, vs []float64) {
	remaining = dist
	for i := 0; i < steps; i++ {
		v := q.Step(remaining, dt)
		if math.Abs(v) > peak {
			peak = math.Abs(v)
		}
		vs = append(vs, v)
		remaining -= v * dt
	}
	return remaining, peak, vs
}

func TestQuadramp_ReachesTargetWithoutOvershoot(t *testing.T) {
	tests := []struct {
		name    string
		v, a    float64
		dist    float64
		dt      float64
		initial float64
	}{
		{"long segment", 1.0, 1.0, 10.0, 0.01, 0},
		{"short segment never cruises", 2.0, 0.5, 0.5, 0.01, 0},
		{"coarse tick", 0.8, 2.0, 3.0, 0.1, 0},
		{"moving start", 1.0, 1.0, 4.0, 0.01, 0.6},
		{"backward", 1.0, 1.0, -5.0, 0.01, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New(tt.v, tt.a)
			q.Reset(tt.initial)
			remaining, peak, _ := drive(q, tt.dist, tt.dt, 20000)

			if peak > tt.v+1e-12 {
				t.Errorf("peak velocity %v exceeds var_v %v", peak, tt.v)
			}
			if math.Abs(remaining) > 1e-6 {
				t.Errorf("expected to reach target, remaining %v", remaining)
			}
			if remaining*math.Copysign(1, tt.dist) < -1e-9 {
				t.Errorf("overshoot past target: remaining %v", remaining)
			}
			if math.Abs(q.Velocity()) > 1e-6 {
				t.Errorf("expected to stop at target, velocity %v", q.Velocity())
			}
		})
	}
}

func TestQuadramp_CruisesAtMaxVelocity(t *testing.T) {
	q := New(1.0, 1.0)
	q.Reset(0)
	_, peak, vs := drive(q, 10.0, 0.01, 500)

	if math.Abs(peak-1.0) > 1e-9 {
		t.Errorf("expected to reach var_v, peak %v", peak)
	}
	for i := 1; i < 100; i++ {
		if dv := vs[i] - vs[i-1]; dv > 0.01+1e-12 {
			t.Fatalf("acceleration bound violated at step %d: dv=%v", i, dv)
		}
	}
}

func TestQuadramp_DecelerationOnset(t *testing.T) {
	const a = 2.0
	for _, v0 := range []float64{0.5, 1.0, 2.0, 3.0} {
		q := New(5.0, a)
		stop := q.StoppingDistance(v0)
		if want := v0 * v0 / (2 * a); math.Abs(stop-want) > 1e-12 {
			t.Fatalf("StoppingDistance(%v) = %v, want %v", v0, stop, want)
		}

		q.Reset(v0)
		if v := q.Step(stop*0.99, 0.001); v >= v0 {
			t.Errorf("v0=%v: expected deceleration inside stopping distance, got %v", v0, v)
		}

		q.Reset(v0)
		if v := q.Step(stop*1.5, 0.001); v <= v0 {
			t.Errorf("v0=%v: expected acceleration outside stopping distance, got %v", v0, v)
		}
	}
}

func TestQuadramp_SignFollowsDistance(t *testing.T) {
	q := New(1.0, 1.0)
	q.Reset(0.5)

	v := q.Step(-10, 0.01)
	if v >= 0 {
		t.Fatalf("expected negative velocity for negative distance, got %v", v)
	}
	if math.Abs(math.Abs(v)-0.51) > 1e-12 {
		t.Errorf("magnitude should ramp from previous value, got %v", v)
	}
}

func TestQuadramp_ZeroAcceleration(t *testing.T) {
	q := New(0.7, 0)

	if v := q.Step(3, 0.01); v != 0.7 {
		t.Errorf("expected unramped 0.7, got %v", v)
	}
	if v := q.Step(-3, 0.01); v != -0.7 {
		t.Errorf("expected unramped -0.7, got %v", v)
	}
	if !math.IsInf(q.StoppingDistance(0.7), 1) {
		t.Error("stopping distance without deceleration should be infinite")
	}
}

func TestQuadramp_NonPositiveDt(t *testing.T) {
	q := New(1, 1)
	q.Reset(0.3)

	for _, dt := range []float64{0, -0.1} {
		if v := q.Step(5, dt); v != 0.3 {
			t.Errorf("dt=%v: expected previous velocity 0.3, got %v", dt, v)
		}
	}
	if q.Velocity() != 0.3 {
		t.Errorf("state corrupted by non-positive dt: %v", q.Velocity())
	}
}

func TestQuadramp_NeverNaN(t *testing.T) {
	q := New(1, 1)
	for _, d := range []float64{0, 1e-300, -1e-300, 1e300} {
		if v := q.Step(d, 0.01); math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("Step(%v) produced %v", d, v)
		}
	}
}

// The last step before the target is capped to land on it exactly, so its
// deceleration may exceed VarA. Every other step stays within VarA*dt.
func TestQuadramp_FinalStepCap(t *testing.T) {
	q := New(1, 1)
	q.Reset(0.5)

	v := q.Step(0.02, 0.1)
	if math.Abs(v-0.2) > 1e-12 {
		t.Fatalf("expected capped velocity 0.2, got %v", v)
	}
	if drop := 0.5 - v; drop <= q.VarA*0.1 {
		t.Errorf("final step should brake harder than VarA*dt, dropped %v", drop)
	}

	q = New(1, 1)
	q.Reset(0.5)
	if v := q.Step(0.05, 0.1); math.Abs(v-0.4) > 1e-12 {
		t.Errorf("uncapped step should decelerate by VarA*dt, got %v", v)
	}
}

func TestQuadramp_Deterministic(t *testing.T) {
	a, b := New(1.2, 0.8), New(1.2, 0.8)
	_, _, va := drive(a, 7, 0.02, 400)
	_, _, vb := drive(b, 7, 0.02, 400)
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("step %d differs: %v vs %v", i, va[i], vb[i])
		}
	}
}
