// Package control implements the robot motion controller ("asserv").
//
// A [Controller] turns navigational orders into velocity commands, one call
// to [Controller.Step] per simulation tick:
//
//   - [Controller.OrderGoXY]: go to a point
//   - [Controller.OrderTurn]: turn to an angle
//   - [Controller.OrderGoXYAndTurn]: both, position first
//   - [Controller.OrderGoBack]: back away along the current heading
//   - [Controller.OrderStop]: drop every pending goal
//
// Pending goals are evaluated in priority order each tick: go back, then
// position, then heading. When no goal is left the robot is arrived and the
// command is zero.
//
// Two policies exist and are selected by robot [Kind]:
//
//   - [KindBasic]: aim at the target, then drive straight
//   - [KindGalipeur]: holonomic, translate toward the target while turning
//
// # Usage
//
//	ctrl, _ := control.New(control.KindGalipeur, control.DefaultConfig(), logger)
//	_ = ctrl.OrderGoXY(dynamo.Vec2{X: 1.5, Y: 1.0}, false)
//	for !ctrl.IsArrived() {
//		cmd := ctrl.Step(body.Snapshot(), dt)
//		body.Apply(cmd)
//	}
//
// A Controller is not safe for concurrent use. Orders and steps of one robot
// must come from a single goroutine; distinct robots are independent.
package control
