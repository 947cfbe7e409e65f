package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/robosim/internal/dynamo"
)

type ExportData struct {
	Metadata RunMetadata             `json:"metadata"`
	Traces   map[string][]TracePoint `json:"traces"`
}

type TracePoint struct {
	Time    float64 `json:"t"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Angular float64 `json:"angular"`
	Arrived bool    `json:"arrived"`
}

func toPoints(samples []dynamo.Sample) []TracePoint {
	pts := make([]TracePoint, len(samples))
	for i, s := range samples {
		p := s.Snapshot.Pose
		pts[i] = TracePoint{
			Time: s.Time, X: p.X, Y: p.Y, Heading: p.Heading,
			VX: s.Command.VX, VY: s.Command.VY, Angular: s.Command.Angular,
			Arrived: s.Arrived,
		}
	}
	return pts
}

// ExportJSON writes a stored run, metadata and every trace, as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}

	data := ExportData{Metadata: *meta, Traces: make(map[string][]TracePoint, len(meta.Robots))}
	for _, r := range meta.Robots {
		samples, err := s.LoadTrace(runID, r.Name)
		if err != nil {
			return err
		}
		data.Traces[r.Name] = toPoints(samples)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
