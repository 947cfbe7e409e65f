// Package dynamo provides the core primitives shared by the robot simulator.
//
// The package defines the value types exchanged between the body, the
// motion controller and the strategy layer:
//
//   - [Vec2]: 2D vector on the table plane
//   - [Pose2D]: position and heading of a body at one tick
//   - [Snapshot]: pose plus measured linear and angular speed
//   - [Velocity2D]: world-frame velocity command produced by a controller
//   - [Sample]: one recorded tick of a robot (snapshot, command, arrival)
//
// It also holds the interfaces implemented by the collaborating packages
// ([System], [Integrator], [CommandSink], [Metric], [Observer]).
//
// # Example
//
//	b := body.New(body.Config{Radius: 0.15}, dynamo.Pose2D{X: 0.5, Y: 1})
//	ctrl := asserv.New(asserv.KindBasic, asserv.DefaultConfig(), nil)
//	_ = ctrl.OrderGoXY(dynamo.Vec2{X: 2, Y: 1}, false)
//	cmd := ctrl.Step(b.Snapshot(), 0.01)
//	b.Apply(cmd)
//
// # Thread Safety
//
// Value types are safe to copy. Nothing in this package is stateful except
// [ForEach], which only coordinates goroutines supplied by the caller.
package dynamo
