// Package body provides the velocity-driven bodies the controllers steer.
package body

import (
	"fmt"
	"math"

	"github.com/san-kum/robosim/internal/dynamo"
)

// state layout: positions first, velocities second
const (
	iX = iota
	iY
	iA
	iVX
	iVY
	iAV
	stateDim
)

var (
	_ dynamo.System      = (*Kinematic)(nil)
	_ dynamo.CommandSink = (*Kinematic)(nil)
	_ dynamo.StateSource = (*Kinematic)(nil)
)

// Table is the rectangular playing area, centred on the origin.
// A zero Width or Height leaves that axis unbounded.
type Table struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Contains reports whether a disc of radius r centred on p lies on the table.
func (t Table) Contains(p dynamo.Vec2, r float64) bool {
	return p == t.clamp(p, r)
}

func (t Table) clamp(p dynamo.Vec2, r float64) dynamo.Vec2 {
	return dynamo.Vec2{X: clampAxis(p.X, t.Width, r), Y: clampAxis(p.Y, t.Height, r)}
}

func clampAxis(v, size, r float64) float64 {
	if size <= 0 {
		return v
	}
	lim := math.Max(size/2-r, 0)
	return math.Max(-lim, math.Min(lim, v))
}

// Kinematic is a disc whose velocity is set directly by commands.
// Friction, when positive, makes the velocity decay exponentially between
// commands.
type Kinematic struct {
	Radius   float64
	Friction float64
	Table    Table

	x dynamo.State
}

func NewKinematic(start dynamo.Pose2D, radius float64, table Table) *Kinematic {
	k := &Kinematic{Radius: radius, Table: table, x: make(dynamo.State, stateDim)}
	k.Place(start)
	return k
}

// Place teleports the body and stops it.
func (k *Kinematic) Place(p dynamo.Pose2D) {
	pos := k.Table.clamp(p.Position(), k.Radius)
	for i := range k.x {
		k.x[i] = 0
	}
	k.x[iX], k.x[iY] = pos.X, pos.Y
	k.x[iA] = dynamo.NormalizeAngle(p.Heading)
}

func (k *Kinematic) StateDim() int   { return stateDim }
func (k *Kinematic) ControlDim() int { return 0 }

func (k *Kinematic) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	f := k.Friction
	return dynamo.State{
		x[iVX], x[iVY], x[iAV],
		-f * x[iVX], -f * x[iVY], -f * x[iAV],
	}
}

// Apply sets the body velocity from a world-frame command.
func (k *Kinematic) Apply(cmd dynamo.Velocity2D) {
	k.x[iVX], k.x[iVY], k.x[iAV] = cmd.VX, cmd.VY, cmd.Angular
}

// Advance integrates the body over dt and keeps it on the table.
// The state is left untouched when integration produces NaN or Inf.
func (k *Kinematic) Advance(integ dynamo.Integrator, t, dt float64) error {
	if dt <= 0 {
		return nil
	}
	next := integ.Step(k, k.x, nil, t, dt)
	if len(next) != stateDim || !next.IsValid() {
		return fmt.Errorf("%w: body state %v", dynamo.ErrInvalidState, next)
	}

	next[iA] = dynamo.NormalizeAngle(next[iA])
	pos := dynamo.Vec2{X: next[iX], Y: next[iY]}
	c := k.Table.clamp(pos, k.Radius)
	// a wall stops the motion into it
	if c.X != pos.X {
		next[iVX] = 0
	}
	if c.Y != pos.Y {
		next[iVY] = 0
	}
	next[iX], next[iY] = c.X, c.Y

	k.x = next
	return nil
}

func (k *Kinematic) Pose() dynamo.Pose2D {
	return dynamo.Pose2D{X: k.x[iX], Y: k.x[iY], Heading: k.x[iA]}
}

func (k *Kinematic) Velocity() dynamo.Velocity2D {
	return dynamo.Velocity2D{VX: k.x[iVX], VY: k.x[iVY], Angular: k.x[iAV]}
}

func (k *Kinematic) Snapshot() dynamo.Snapshot {
	return dynamo.Snapshot{
		Pose:         k.Pose(),
		Speed:        math.Hypot(k.x[iVX], k.x[iVY]),
		AngularSpeed: k.x[iAV],
	}
}

// State returns a copy of the integrated state vector.
func (k *Kinematic) State() dynamo.State {
	return k.x.Clone()
}
