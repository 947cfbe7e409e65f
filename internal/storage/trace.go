package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/robosim/internal/dynamo"
)

var traceHeader = []string{"time", "x", "y", "heading", "vx", "vy", "angular", "arrived"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeTrace(path string, samples []dynamo.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteTrace(f, samples)
}

// WriteTrace writes samples as CSV, one row per tick. Velocities are the
// commands of that tick.
func WriteTrace(w io.Writer, samples []dynamo.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(traceHeader); err != nil {
		return err
	}
	for _, s := range samples {
		p := s.Snapshot.Pose
		row := []string{
			formatFloat(s.Time),
			formatFloat(p.X),
			formatFloat(p.Y),
			formatFloat(p.Heading),
			formatFloat(s.Command.VX),
			formatFloat(s.Command.VY),
			formatFloat(s.Command.Angular),
			strconv.FormatBool(s.Arrived),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readTrace(path string) ([]dynamo.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTrace(f)
}

// ReadTrace parses a CSV trace written by [WriteTrace].
// Snapshot speeds are rebuilt from the commanded velocities.
func ReadTrace(r io.Reader) ([]dynamo.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(traceHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Sample{}, nil
	}

	samples := make([]dynamo.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		var vals [7]float64
		for j := range vals {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, traceHeader[j], err)
			}
			vals[j] = v
		}
		arrived, err := strconv.ParseBool(rec[7])
		if err != nil {
			return nil, fmt.Errorf("row %d column arrived: %w", i+1, err)
		}

		cmd := dynamo.Velocity2D{VX: vals[4], VY: vals[5], Angular: vals[6]}
		samples = append(samples, dynamo.Sample{
			Time: vals[0],
			Snapshot: dynamo.Snapshot{
				Pose:         dynamo.Pose2D{X: vals[1], Y: vals[2], Heading: vals[3]},
				Speed:        cmd.Speed(),
				AngularSpeed: cmd.Angular,
			},
			Command: cmd,
			Arrived: arrived,
		})
	}
	return samples, nil
}
