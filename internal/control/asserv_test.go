package control_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/robosim/internal/control"
	"github.com/san-kum/robosim/internal/dynamo"
)

// pointBody applies velocity commands exactly, like a velocity-set rigid body.
type pointBody struct {
	pose dynamo.Pose2D
	cmd  dynamo.Velocity2D
}

func (b *pointBody) snapshot() dynamo.Snapshot {
	return dynamo.Snapshot{Pose: b.pose, Speed: b.cmd.Speed(), AngularSpeed: b.cmd.Angular}
}

func (b *pointBody) apply(cmd dynamo.Velocity2D, dt float64) {
	b.cmd = cmd
	b.pose.X += cmd.VX * dt
	b.pose.Y += cmd.VY * dt
	b.pose.Heading = dynamo.NormalizeAngle(b.pose.Heading + cmd.Angular*dt)
}

func (b *pointBody) position() dynamo.Vec2 { return b.pose.Position() }

// tick steps the controller once and moves the body.
func tick(c *control.Controller, b *pointBody, dt float64) dynamo.Velocity2D {
	cmd := c.Step(b.snapshot(), dt)
	b.apply(cmd, dt)
	return cmd
}

// runUntilArrived steps until arrival and returns every command issued.
func runUntilArrived(c *control.Controller, b *pointBody, dt float64, maxSteps int) []dynamo.Velocity2D {
	var cmds []dynamo.Velocity2D
	for i := 0; i < maxSteps && !c.IsArrived(); i++ {
		cmds = append(cmds, tick(c, b, dt))
	}
	return cmds
}

func newController(kind control.Kind, mutate func(*control.Config)) *control.Controller {
	cfg := control.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := control.New(kind, cfg, nil)
	Expect(err).NotTo(HaveOccurred())
	return c
}

var _ = Describe("Controller", func() {
	var (
		ctrl *control.Controller
		body *pointBody
	)

	BeforeEach(func() {
		body = &pointBody{}
	})

	Context("before any order", func() {
		BeforeEach(func() {
			ctrl = newController(control.KindBasic, nil)
		})

		It("is arrived and commands nothing", func() {
			Expect(ctrl.IsArrived()).To(BeTrue())
			Expect(ctrl.IsWaiting()).To(BeTrue())
			Expect(ctrl.Step(body.snapshot(), 0.01).IsZero()).To(BeTrue())
		})
	})

	Context("basic robot going to a point straight ahead", func() {
		const dt = 0.1
		target := dynamo.Vec2{X: 10, Y: 0}

		BeforeEach(func() {
			ctrl = newController(control.KindBasic, func(c *control.Config) {
				c.MaxLinear = 1
				c.LinearAccel = 1
				c.ThresholdXY = 0.01
			})
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderGoXY(target, false)).To(Succeed())
		})

		It("ramps up to the maximum speed, brakes and arrives within the threshold", func() {
			var speeds []float64
			for i := 0; i < 2000 && !ctrl.IsArrived(); i++ {
				cmd := tick(ctrl, body, dt)
				speeds = append(speeds, cmd.Speed())
				if ctrl.IsArrived() {
					break
				}
				Expect(cmd.Angular).To(BeZero())
			}

			Expect(ctrl.IsArrived()).To(BeTrue())
			Expect(math.Sqrt(body.position().Dist2(target))).To(BeNumerically("<", 0.01))

			Expect(speeds[1]).To(BeNumerically(">", speeds[0]))
			peak := 0.0
			peakAt := 0
			for i, v := range speeds {
				Expect(v).To(BeNumerically("<=", 1+1e-9))
				if v > peak {
					peak, peakAt = v, i
				}
			}
			Expect(peak).To(BeNumerically("~", 1, 1e-9))
			last := speeds[len(speeds)-2]
			Expect(last).To(BeNumerically("<", peak))
			Expect(peakAt).To(BeNumerically("<", len(speeds)-2))
		})

		It("does not report arrival while outside the threshold", func() {
			for i := 0; i < 2000 && !ctrl.IsArrived(); i++ {
				d := math.Sqrt(body.position().Dist2(target))
				tick(ctrl, body, dt)
				if ctrl.IsArrived() {
					Expect(d).To(BeNumerically("<", 0.01))
				} else {
					Expect(d).To(BeNumerically(">=", 0.01))
				}
			}
			Expect(ctrl.IsArrived()).To(BeTrue())
		})

		It("keeps commanding zero once arrived", func() {
			runUntilArrived(ctrl, body, dt, 2000)
			Expect(ctrl.IsArrived()).To(BeTrue())
			for i := 0; i < 20; i++ {
				Expect(tick(ctrl, body, dt).IsZero()).To(BeTrue())
				Expect(ctrl.IsArrived()).To(BeTrue())
			}
		})
	})

	Context("basic robot going to a point behind it", func() {
		It("rotates in place before translating", func() {
			ctrl = newController(control.KindBasic, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderGoXY(dynamo.Vec2{X: -1, Y: 0}, false)).To(Succeed())

			first := tick(ctrl, body, 0.01)
			Expect(first.Speed()).To(BeZero())
			Expect(first.Angular).NotTo(BeZero())

			runUntilArrived(ctrl, body, 0.01, 20000)
			Expect(ctrl.IsArrived()).To(BeTrue())
			Expect(math.Sqrt(body.position().Dist2(dynamo.Vec2{X: -1}))).To(BeNumerically("<", control.DefaultThresholdXY))
		})
	})

	Context("turning to an absolute angle", func() {
		It("commands positive angular velocity until within the threshold, then zero", func() {
			ctrl = newController(control.KindBasic, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderTurn(math.Pi/2, false)).To(Succeed())

			cmds := runUntilArrived(ctrl, body, 0.01, 5000)
			Expect(ctrl.IsArrived()).To(BeTrue())
			for _, cmd := range cmds[:len(cmds)-1] {
				Expect(cmd.Angular).To(BeNumerically(">", 0))
				Expect(cmd.Speed()).To(BeZero())
			}
			Expect(cmds[len(cmds)-1].Angular).To(BeZero())
			Expect(math.Abs(dynamo.AngleDiff(body.pose.Heading, math.Pi/2))).To(BeNumerically("<", control.DefaultThresholdA))
		})

		It("turns the short way across the wrap-around", func() {
			body.pose.Heading = 3.0
			ctrl = newController(control.KindBasic, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderTurn(-3.0, false)).To(Succeed())

			first := tick(ctrl, body, 0.01)
			Expect(first.Angular).To(BeNumerically(">", 0))
			runUntilArrived(ctrl, body, 0.01, 5000)
			Expect(ctrl.IsArrived()).To(BeTrue())
		})

		It("adds a relative angle to the current heading", func() {
			body.pose.Heading = 1.0
			ctrl = newController(control.KindBasic, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderTurn(0.5, true)).To(Succeed())
			Expect(ctrl.Orders().TargetA).To(BeNumerically("~", 1.5, 1e-12))
		})
	})

	Context("going back with other goals pending", func() {
		BeforeEach(func() {
			ctrl = newController(control.KindBasic, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderGoXYAndTurn(dynamo.Vec2{X: 1, Y: 1}, 2.0, false)).To(Succeed())
			Expect(ctrl.OrderGoBack(0.2)).To(Succeed())
		})

		It("computes the back target from the current pose", func() {
			Expect(ctrl.Orders().TargetBack.X).To(BeNumerically("~", -0.2, 1e-12))
			Expect(ctrl.Orders().TargetBack.Y).To(BeNumerically("~", 0, 1e-12))
		})

		It("only backs away until the back target is reached", func() {
			for i := 0; i < 5000 && ctrl.Orders().GoBack; i++ {
				cmd := tick(ctrl, body, 0.01)
				if !ctrl.Orders().GoBack {
					// lower goals are evaluated in the tick that clears the back goal
					Expect(cmd.Angular).To(BeNumerically(">", 0))
					break
				}
				Expect(cmd.Angular).To(BeZero())
				Expect(cmd.VX).To(BeNumerically("<=", 0))
				Expect(cmd.VY).To(BeNumerically("~", 0, 1e-12))
				Expect(ctrl.Orders().GoXY).To(BeTrue())
				Expect(ctrl.Orders().GoA).To(BeTrue())
			}
			Expect(ctrl.Orders().GoBack).To(BeFalse())
			Expect(body.pose.X).To(BeNumerically("~", -0.2, control.DefaultThresholdXY))

			runUntilArrived(ctrl, body, 0.01, 20000)
			Expect(ctrl.IsArrived()).To(BeTrue())
			Expect(math.Sqrt(body.position().Dist2(dynamo.Vec2{X: 1, Y: 1}))).To(BeNumerically("<", control.DefaultThresholdXY))
			Expect(math.Abs(dynamo.AngleDiff(body.pose.Heading, 2.0))).To(BeNumerically("<", control.DefaultThresholdA))
		})
	})

	Context("stopping mid-motion", func() {
		It("clears every goal and commands zero on the next step", func() {
			ctrl = newController(control.KindGalipeur, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderGoXYAndTurn(dynamo.Vec2{X: 2, Y: 1}, 1, false)).To(Succeed())
			for i := 0; i < 50; i++ {
				tick(ctrl, body, 0.01)
			}
			Expect(ctrl.IsArrived()).To(BeFalse())

			ctrl.OrderStop()
			Expect(ctrl.IsArrived()).To(BeTrue())
			Expect(tick(ctrl, body, 0.01).IsZero()).To(BeTrue())
			Expect(ctrl.IsArrived()).To(BeTrue())
		})

		It("brakes through the ramp in ramped mode", func() {
			ctrl = newController(control.KindGalipeur, func(c *control.Config) {
				c.StopMode = control.StopRamped
			})
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderGoXY(dynamo.Vec2{X: 2}, false)).To(Succeed())
			var before float64
			for i := 0; i < 100; i++ {
				before = tick(ctrl, body, 0.01).Speed()
			}
			Expect(before).To(BeNumerically(">", 0))

			ctrl.OrderStop()
			Expect(ctrl.IsArrived()).To(BeFalse())
			next := tick(ctrl, body, 0.01).Speed()
			Expect(next).To(BeNumerically("<", before))
			Expect(next).To(BeNumerically(">", 0))

			runUntilArrived(ctrl, body, 0.01, 5000)
			Expect(ctrl.IsArrived()).To(BeTrue())
			Expect(body.pose.X).To(BeNumerically("<", 2))
		})

		DescribeTable("ramped stop without acceleration halts and arrives",
			func(kind control.Kind) {
				ctrl = newController(kind, func(c *control.Config) {
					c.StopMode = control.StopRamped
					c.LinearAccel = 0
				})
				ctrl.Update(body.snapshot())
				Expect(ctrl.OrderGoXY(dynamo.Vec2{X: 2}, false)).To(Succeed())
				for i := 0; i < 10; i++ {
					tick(ctrl, body, 0.01)
				}

				ctrl.OrderStop()
				Expect(ctrl.IsArrived()).To(BeTrue())
				cmd := tick(ctrl, body, 0.01)
				Expect(cmd.IsZero()).To(BeTrue())
				Expect(dynamo.IsFinite(cmd.VX, cmd.VY, cmd.Angular)).To(BeTrue())
				Expect(dynamo.IsFinite(body.pose.X, body.pose.Y, body.pose.Heading)).To(BeTrue())
				Expect(ctrl.IsArrived()).To(BeTrue())
			},
			Entry("basic", control.KindBasic),
			Entry("galipeur", control.KindGalipeur),
		)
	})

	Context("holonomic robot", func() {
		It("translates toward the target without aiming first", func() {
			ctrl = newController(control.KindGalipeur, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderGoXY(dynamo.Vec2{X: 0, Y: 1}, false)).To(Succeed())

			cmd := tick(ctrl, body, 0.01)
			Expect(cmd.VX).To(BeNumerically("~", 0, 1e-12))
			Expect(cmd.VY).To(BeNumerically(">", 0))
			Expect(cmd.Angular).To(BeZero())
			Expect(body.pose.Heading).To(BeZero())
		})

		It("reaches position and heading together", func() {
			ctrl = newController(control.KindGalipeur, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderGoXYAndTurn(dynamo.Vec2{X: 0.5, Y: -0.3}, -1.2, false)).To(Succeed())

			first := tick(ctrl, body, 0.01)
			Expect(first.Speed()).To(BeNumerically(">", 0))
			Expect(first.Angular).To(BeNumerically("<", 0))

			runUntilArrived(ctrl, body, 0.01, 5000)
			Expect(ctrl.IsArrived()).To(BeTrue())
			Expect(math.Sqrt(body.position().Dist2(dynamo.Vec2{X: 0.5, Y: -0.3}))).To(BeNumerically("<", control.DefaultThresholdXY))
			Expect(math.Abs(dynamo.AngleDiff(body.pose.Heading, -1.2))).To(BeNumerically("<", control.DefaultThresholdA))
		})

		It("never exceeds the configured maximum speed", func() {
			ctrl = newController(control.KindGalipeur, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderGoXY(dynamo.Vec2{X: 2, Y: 1.5}, false)).To(Succeed())
			for _, cmd := range runUntilArrived(ctrl, body, 0.01, 5000) {
				Expect(cmd.Speed()).To(BeNumerically("<=", control.DefaultMaxLinear+1e-9))
			}
		})
	})

	Context("target coincident with the current position", func() {
		It("is satisfied without computing a direction", func() {
			for _, kind := range []control.Kind{control.KindBasic, control.KindGalipeur} {
				ctrl = newController(kind, func(c *control.Config) { c.ThresholdXY = 0 })
				body = &pointBody{pose: dynamo.Pose2D{X: 1, Y: 1}}
				ctrl.Update(body.snapshot())
				Expect(ctrl.OrderGoXY(dynamo.Vec2{}, true)).To(Succeed())

				cmd := tick(ctrl, body, 0.01)
				Expect(cmd.IsZero()).To(BeTrue())
				Expect(dynamo.IsFinite(cmd.VX, cmd.VY, cmd.Angular)).To(BeTrue())
				Expect(ctrl.IsArrived()).To(BeTrue())
			}
		})
	})

	Context("non-positive dt", func() {
		It("returns the previous command and leaves goals untouched", func() {
			ctrl = newController(control.KindGalipeur, nil)
			ctrl.Update(body.snapshot())
			Expect(ctrl.OrderGoXY(dynamo.Vec2{X: 1}, false)).To(Succeed())
			prev := tick(ctrl, body, 0.01)

			Expect(ctrl.Step(body.snapshot(), 0)).To(Equal(prev))
			Expect(ctrl.Step(body.snapshot(), -1)).To(Equal(prev))
			Expect(ctrl.Orders().GoXY).To(BeTrue())
			Expect(tick(ctrl, body, 0.01).Speed()).To(BeNumerically(">", prev.Speed()))
		})
	})
})
