package dynamo

import (
	"math"
)

// Vec2 is a point or direction on the table plane.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2   { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64           { return math.Hypot(v.X, v.Y) }
func (v Vec2) Len2() float64          { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Angle() float64         { return math.Atan2(v.Y, v.X) }
func (v Vec2) IsFinite() bool         { return IsFinite(v.X, v.Y) }
func (v Vec2) Dist2(o Vec2) float64   { return v.Sub(o).Len2() }
func (v Vec2) Dot(o Vec2) float64     { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Rotated(a float64) Vec2 { return rotate(v, a) }

// Unit returns v scaled to length 1, or the zero vector when v is zero.
func (v Vec2) Unit() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

func rotate(v Vec2, a float64) Vec2 {
	s, c := math.Sincos(a)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Heading returns the unit vector pointing along angle a.
func Heading(a float64) Vec2 {
	s, c := math.Sincos(a)
	return Vec2{c, s}
}

// Pose2D is the position and heading of a body at one tick.
type Pose2D struct {
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Heading float64 `json:"heading" yaml:"heading"`
}

func (p Pose2D) Position() Vec2 { return Vec2{p.X, p.Y} }

// Snapshot is the read-only physical state of a body handed to a controller.
type Snapshot struct {
	Pose         Pose2D
	Speed        float64 // linear speed magnitude
	AngularSpeed float64
}

// Velocity2D is a world-frame velocity command.
type Velocity2D struct {
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Angular float64 `json:"angular"`
}

func (v Velocity2D) Linear() Vec2   { return Vec2{v.VX, v.VY} }
func (v Velocity2D) Speed() float64 { return math.Hypot(v.VX, v.VY) }
func (v Velocity2D) IsZero() bool   { return v.VX == 0 && v.VY == 0 && v.Angular == 0 }

// Sample is one recorded tick of a robot.
type Sample struct {
	Time     float64
	Snapshot Snapshot
	Command  Velocity2D
	Arrived  bool
}

// State is the flat physical state vector integrated by an [Integrator].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	return IsFinite(s...)
}

// Control is the input vector handed to a [System] during integration.
type Control []float64

// System is an ODE system dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// CommandSink applies a velocity command to a simulated body.
type CommandSink interface {
	Apply(cmd Velocity2D)
}

// StateSource exposes the physical snapshot of a body.
type StateSource interface {
	Snapshot() Snapshot
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Configurable is implemented by components supporting live tuning.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Observer interface {
	OnStep(robot string, s Sample)
}

// Result holds everything recorded while running a match.
type Result struct {
	Traces     map[string][]Sample
	Metrics    map[string]map[string]float64
	Teams      map[string]int
	Duration   float64
	StepsTaken int
}
