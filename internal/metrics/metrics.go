// Package metrics summarises robot traces into scalar scores.
package metrics

import "github.com/san-kum/robosim/internal/dynamo"

// Default returns a fresh set of the metrics recorded for every robot.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewControlEffort(),
		NewPathLength(),
		NewMaxSpeed(),
		NewArrivalTime(),
		NewIdleRatio(),
	}
}
