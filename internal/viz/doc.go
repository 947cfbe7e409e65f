// Package viz renders matches in the terminal.
//
// The live view is a Bubble Tea program drawing the table on a braille
// [Canvas], one circle and heading tick per robot, with the selected robot's
// orders, script progress and speed history beside it. Controller parameters
// of the selected robot can be tuned while the match runs.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart the match
//	Tab   - Select next robot
//	P     - Select next parameter
//	↑/↓   - Tune the selected parameter by 5%
//	+/-   - Change simulation speed
//	T     - Cycle color themes
//	?     - Show help overlay
//
// [Plot] and [PlotTrace] render stored traces as ASCII charts.
package viz
