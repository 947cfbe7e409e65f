package control

import (
	"fmt"
	"math"

	"github.com/san-kum/robosim/internal/dynamo"
)

// Kind identifies the kinematics of a robot and selects its control policy.
type Kind string

const (
	// KindBasic robots aim at their target before driving straight to it.
	KindBasic Kind = "basic"
	// KindGalipeur robots are triangular holonomic bases translating in any direction.
	KindGalipeur Kind = "galipeur"
)

// ParseKind parses a robot kind, the empty string meaning KindBasic.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBasic, KindGalipeur:
		return Kind(s), nil
	case "":
		return KindBasic, nil
	}
	return "", fmt.Errorf("%w: %q", dynamo.ErrUnknownKind, s)
}

// policy evaluates the position and heading goals for one tick.
// It runs after the go-back goal has been resolved.
type policy interface {
	drive(c *Controller, dt float64) dynamo.Velocity2D
}

func policyFor(k Kind) (policy, error) {
	switch k {
	case KindBasic:
		return aimThenDrive{}, nil
	case KindGalipeur:
		return holonomic{}, nil
	}
	return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownKind, k)
}

type aimThenDrive struct{}

func (aimThenDrive) drive(c *Controller, dt float64) dynamo.Velocity2D {
	pose := c.snap.Pose

	if c.orders.GoXY {
		delta := c.orders.TargetXY.Sub(pose.Position())
		if c.reachedXY(delta) {
			c.clearXY()
		} else {
			da := dynamo.AngleDiff(delta.Angle(), pose.Heading)
			if math.Abs(da) < c.cfg.ThresholdA {
				c.angular.Reset(0)
				v := c.linear.Step(delta.Len(), dt)
				return linearAlong(pose.Heading, v)
			}
			c.linear.Reset(0)
			return dynamo.Velocity2D{Angular: c.angular.Step(da, dt)}
		}
	}

	if c.orders.GoA {
		da := dynamo.AngleDiff(c.orders.TargetA, pose.Heading)
		if math.Abs(da) < c.cfg.ThresholdA {
			c.clearA()
		} else {
			return dynamo.Velocity2D{Angular: c.angular.Step(da, dt)}
		}
	}

	return dynamo.Velocity2D{}
}

// holonomic drives straight at the target and turns at the same time.
type holonomic struct{}

func (holonomic) drive(c *Controller, dt float64) dynamo.Velocity2D {
	pose := c.snap.Pose
	var cmd dynamo.Velocity2D

	if c.orders.GoXY {
		delta := c.orders.TargetXY.Sub(pose.Position())
		if c.reachedXY(delta) {
			c.clearXY()
		} else {
			dist := delta.Len()
			if dynamo.IsFinite(dist) {
				v := c.linear.Step(dist, dt)
				dir := delta.Scale(1 / dist)
				cmd.VX, cmd.VY = dir.X*v, dir.Y*v
			} else {
				// unreachable target, drop it rather than command NaN
				c.clearXY()
			}
		}
	}

	if c.orders.GoA {
		da := dynamo.AngleDiff(c.orders.TargetA, pose.Heading)
		if math.Abs(da) < c.cfg.ThresholdA {
			c.clearA()
		} else {
			cmd.Angular = c.angular.Step(da, dt)
		}
	}

	return cmd
}

func linearAlong(heading, v float64) dynamo.Velocity2D {
	h := dynamo.Heading(heading)
	return dynamo.Velocity2D{VX: h.X * v, VY: h.Y * v}
}
