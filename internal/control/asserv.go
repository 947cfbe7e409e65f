package control

import (
	"fmt"
	"math"

	"github.com/san-kum/robosim/internal/dynamo"
	"github.com/san-kum/robosim/internal/ramp"
	"go.uber.org/zap"
)

var _ dynamo.Configurable = (*Controller)(nil)

// Controller is the per-robot motion control loop.
type Controller struct {
	kind    Kind
	policy  policy
	cfg     Config
	orders  OrderSet
	linear  ramp.Quadramp
	angular ramp.Quadramp
	snap    dynamo.Snapshot
	last    dynamo.Velocity2D
	log     *zap.Logger
}

// New creates a controller for a robot of the given kind.
// A nil logger disables logging.
func New(kind Kind, cfg Config, log *zap.Logger) (*Controller, error) {
	p, err := policyFor(kind)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.StopMode == "" {
		cfg.StopMode = StopAbrupt
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		kind:   kind,
		policy: p,
		cfg:    cfg,
		log:    log,
	}
	c.syncRamps()
	return c, nil
}

func (c *Controller) syncRamps() {
	c.linear.VarV, c.linear.VarA = c.cfg.MaxLinear, c.cfg.LinearAccel
	c.angular.VarV, c.angular.VarA = c.cfg.MaxAngular, c.cfg.AngularAccel
}

func (c *Controller) Kind() Kind                 { return c.kind }
func (c *Controller) Config() Config             { return c.cfg }
func (c *Controller) Orders() OrderSet           { return c.orders }
func (c *Controller) Command() dynamo.Velocity2D { return c.last }

// Update refreshes the pose used by relative and go-back orders.
// Step also refreshes it, so calling Update is only needed before the first
// order or when orders are issued between a body move and the next Step.
func (c *Controller) Update(s dynamo.Snapshot) {
	c.snap = s
}

func (c *Controller) Position() dynamo.Vec2 { return c.snap.Pose.Position() }
func (c *Controller) Heading() float64      { return c.snap.Pose.Heading }
func (c *Controller) Speed() float64        { return c.snap.Speed }
func (c *Controller) AngularSpeed() float64 { return c.snap.AngularSpeed }

// IsArrived reports whether every goal has been reached or dropped.
func (c *Controller) IsArrived() bool { return c.orders.Empty() }

// IsWaiting is an alias of IsArrived, the name strategy scripts use.
func (c *Controller) IsWaiting() bool { return c.IsArrived() }

// OrderGoXY sets a position goal, absolute or relative to the current position.
func (c *Controller) OrderGoXY(p dynamo.Vec2, relative bool) error {
	target, err := c.xyTarget(p, relative)
	if err != nil {
		return err
	}
	c.setXY(target)
	c.log.Debug("order xy", zap.Bool("relative", relative), zap.Float64("x", target.X), zap.Float64("y", target.Y))
	return nil
}

// OrderTurn sets a heading goal, absolute or relative to the current heading.
func (c *Controller) OrderTurn(a float64, relative bool) error {
	target, err := c.angleTarget(a, relative)
	if err != nil {
		return err
	}
	c.setA(target)
	c.log.Debug("order a", zap.Bool("relative", relative), zap.Float64("a", target))
	return nil
}

// OrderGoXYAndTurn sets both goals at once. Neither is set if one is invalid.
func (c *Controller) OrderGoXYAndTurn(p dynamo.Vec2, a float64, relative bool) error {
	xy, err := c.xyTarget(p, relative)
	if err != nil {
		return err
	}
	ta, err := c.angleTarget(a, relative)
	if err != nil {
		return err
	}
	c.setXY(xy)
	c.setA(ta)
	c.log.Debug("order xya", zap.Bool("relative", relative),
		zap.Float64("x", xy.X), zap.Float64("y", xy.Y), zap.Float64("a", ta))
	return nil
}

// OrderGoBack backs the robot d units away along its current heading.
// The target is computed now; pending position and heading goals resume once
// it is reached.
func (c *Controller) OrderGoBack(d float64) error {
	if !dynamo.IsFinite(d) || d < 0 {
		return fmt.Errorf("%w: go back distance %v", dynamo.ErrInvalidOrder, d)
	}
	pose := c.snap.Pose
	c.orders.TargetBack = pose.Position().Sub(dynamo.Heading(pose.Heading).Scale(d))
	c.orders.GoBack = true
	c.linear.Reset(0)
	c.log.Debug("order back", zap.Float64("d", d))
	return nil
}

// OrderStop drops every goal. With StopRamped a moving robot first brakes
// through the linear ramp; heading goals are dropped at once in both modes.
func (c *Controller) OrderStop() {
	c.log.Debug("order stop", zap.String("pending", c.orders.String()))

	if c.cfg.StopMode == StopRamped && c.brake() {
		return
	}
	c.orders.Clear()
	c.linear.Reset(0)
	c.angular.Reset(0)
	c.last = dynamo.Velocity2D{}
}

// brake replaces the pending goals with a target one stopping distance ahead
// of the current motion. It reports false when there is no motion to brake
// or when ramping is disabled and the robot can only stop abruptly.
func (c *Controller) brake() bool {
	v := math.Abs(c.linear.Velocity())
	motion := c.last.Linear()
	if v == 0 || motion.Len2() == 0 {
		return false
	}
	stop := c.linear.StoppingDistance(v)
	if !dynamo.IsFinite(stop) {
		return false
	}
	pos := c.snap.Pose.Position()
	ahead := motion.Unit().Scale(stop)
	if !pos.Add(ahead).IsFinite() {
		return false
	}

	c.orders.Clear()
	c.angular.Reset(0)
	if c.kind == KindBasic && motion.Dot(dynamo.Heading(c.snap.Pose.Heading)) < 0 {
		c.orders.TargetBack = pos.Add(ahead)
		c.orders.GoBack = true
	} else {
		c.orders.TargetXY = pos.Add(ahead)
		c.orders.GoXY = true
	}
	c.linear.Reset(v)
	return true
}

// Step runs the control loop once and returns the command for this tick.
// A non-positive dt is a no-op returning the previous command.
func (c *Controller) Step(s dynamo.Snapshot, dt float64) dynamo.Velocity2D {
	if dt <= 0 || !dynamo.IsFinite(dt) {
		return c.last
	}
	c.snap = s

	if c.orders.GoBack {
		delta := c.orders.TargetBack.Sub(s.Pose.Position())
		if c.reachedXY(delta) {
			c.orders.GoBack = false
			c.linear.Reset(0)
			c.log.Debug("back reached")
		} else {
			// signed so a robot pushed past the target comes back forward
			d := delta.Dot(dynamo.Heading(s.Pose.Heading))
			v := c.linear.Step(d, dt)
			c.last = linearAlong(s.Pose.Heading, v)
			return c.last
		}
	}

	if c.orders.GoXY || c.orders.GoA {
		c.last = c.policy.drive(c, dt)
	} else {
		c.last = dynamo.Velocity2D{}
	}
	return c.last
}

func (c *Controller) reachedXY(delta dynamo.Vec2) bool {
	d2 := delta.Len2()
	return d2 == 0 || d2 < c.cfg.ThresholdXY*c.cfg.ThresholdXY
}

func (c *Controller) setXY(target dynamo.Vec2) {
	c.orders.TargetXY = target
	c.orders.GoXY = true
	c.linear.Reset(0)
}

func (c *Controller) setA(target float64) {
	c.orders.TargetA = target
	c.orders.GoA = true
	c.angular.Reset(0)
}

func (c *Controller) clearXY() {
	c.orders.GoXY = false
	c.linear.Reset(0)
	c.log.Debug("xy reached")
}

func (c *Controller) clearA() {
	c.orders.GoA = false
	c.angular.Reset(0)
	c.log.Debug("a reached")
}

func (c *Controller) xyTarget(p dynamo.Vec2, relative bool) (dynamo.Vec2, error) {
	if !p.IsFinite() {
		return dynamo.Vec2{}, fmt.Errorf("%w: xy (%v, %v)", dynamo.ErrInvalidOrder, p.X, p.Y)
	}
	if relative {
		p = p.Add(c.snap.Pose.Position())
		if !p.IsFinite() {
			return dynamo.Vec2{}, fmt.Errorf("%w: relative xy overflows to (%v, %v)", dynamo.ErrInvalidOrder, p.X, p.Y)
		}
	}
	return p, nil
}

func (c *Controller) angleTarget(a float64, relative bool) (float64, error) {
	if !dynamo.IsFinite(a) {
		return 0, fmt.Errorf("%w: angle %v", dynamo.ErrInvalidOrder, a)
	}
	if relative {
		a += c.snap.Pose.Heading
	}
	return dynamo.NormalizeAngle(a), nil
}

// SetSpeedXY sets the maximum linear velocity and acceleration.
func (c *Controller) SetSpeedXY(v, a float64) error {
	if err := checkParam("max_linear", v); err != nil {
		return err
	}
	if err := checkParam("linear_accel", a); err != nil {
		return err
	}
	c.cfg.MaxLinear, c.cfg.LinearAccel = v, a
	c.syncRamps()
	return nil
}

// SetSpeedA sets the maximum angular velocity and acceleration.
func (c *Controller) SetSpeedA(v, a float64) error {
	if err := checkParam("max_angular", v); err != nil {
		return err
	}
	if err := checkParam("angular_accel", a); err != nil {
		return err
	}
	c.cfg.MaxAngular, c.cfg.AngularAccel = v, a
	c.syncRamps()
	return nil
}

// SetThresholdXY sets the distance under which a position goal is reached.
func (c *Controller) SetThresholdXY(t float64) error {
	if err := checkParam("threshold_xy", t); err != nil {
		return err
	}
	c.cfg.ThresholdXY = t
	return nil
}

// SetThresholdA sets the heading error under which a heading goal is reached.
func (c *Controller) SetThresholdA(t float64) error {
	if err := checkParam("threshold_a", t); err != nil {
		return err
	}
	c.cfg.ThresholdA = t
	return nil
}

// GetParams returns tunable parameters for live adjustment
func (c *Controller) GetParams() map[string]float64 {
	return map[string]float64{
		"max_linear":    c.cfg.MaxLinear,
		"linear_accel":  c.cfg.LinearAccel,
		"max_angular":   c.cfg.MaxAngular,
		"angular_accel": c.cfg.AngularAccel,
		"threshold_xy":  c.cfg.ThresholdXY,
		"threshold_a":   c.cfg.ThresholdA,
	}
}

// SetParam adjusts a controller parameter
func (c *Controller) SetParam(name string, value float64) error {
	switch name {
	case "max_linear":
		return c.SetSpeedXY(value, c.cfg.LinearAccel)
	case "linear_accel":
		return c.SetSpeedXY(c.cfg.MaxLinear, value)
	case "max_angular":
		return c.SetSpeedA(value, c.cfg.AngularAccel)
	case "angular_accel":
		return c.SetSpeedA(c.cfg.MaxAngular, value)
	case "threshold_xy":
		return c.SetThresholdXY(value)
	case "threshold_a":
		return c.SetThresholdA(value)
	}
	return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrParameterBounds, name)
}
