package integrators

import "github.com/san-kum/robosim/internal/dynamo"

// Verlet is the velocity Verlet integrator. It expects the state to hold
// positions in its first half and the matching velocities in the second
// half, the layout of the kinematic body.
type Verlet struct {
	scratch dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}

	next := make(dynamo.State, n)
	acc := dyn.Derive(x, u, t)
	for i := 0; i < half; i++ {
		next[i] = x[i] + x[half+i]*dt + acc[half+i]*dt*dt/2
		v.scratch[i] = next[i]
		v.scratch[half+i] = x[half+i]
	}

	accNext := dyn.Derive(v.scratch, u, t+dt)
	for i := 0; i < half; i++ {
		next[half+i] = x[half+i] + (acc[half+i]+accNext[half+i])*dt/2
	}
	return next
}
