package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/robosim/internal/dynamo"
)

// Series extracts one plotted quantity from a sample.
type Series struct {
	Name    string
	Caption string
	Value   func(s dynamo.Sample) float64
}

var TraceSeries = []Series{
	{"x", "x position (m)", func(s dynamo.Sample) float64 { return s.Snapshot.Pose.X }},
	{"y", "y position (m)", func(s dynamo.Sample) float64 { return s.Snapshot.Pose.Y }},
	{"heading", "heading (rad)", func(s dynamo.Sample) float64 { return s.Snapshot.Pose.Heading }},
	{"speed", "commanded speed (m/s)", func(s dynamo.Sample) float64 { return s.Command.Speed() }},
	{"angular", "commanded angular speed (rad/s)", func(s dynamo.Sample) float64 { return s.Command.Angular }},
}

// Values returns the series evaluated on every sample.
func (s Series) Values(samples []dynamo.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, smp := range samples {
		out[i] = s.Value(smp)
	}
	return out
}

// Plot renders values as an ASCII line chart. It returns "" when there is
// nothing finite to draw.
func Plot(values []float64, caption string, width, height int) string {
	data := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// PlotTrace renders every [TraceSeries] of a trace.
func PlotTrace(samples []dynamo.Sample, width, height int) []string {
	graphs := make([]string, 0, len(TraceSeries))
	for _, s := range TraceSeries {
		if g := Plot(s.Values(samples), s.Caption, width, height); g != "" {
			graphs = append(graphs, g)
		}
	}
	return graphs
}
