// Package storage persists finished runs on disk.
//
// Each run lives in its own directory holding metadata.json and one CSV
// trace per robot.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/robosim/internal/body"
	"github.com/san-kum/robosim/internal/dynamo"
)

const metadataFile = "metadata.json"

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RobotInfo struct {
	Name   string  `json:"name"`
	Team   int     `json:"team"`
	Kind   string  `json:"kind"`
	Radius float64 `json:"radius,omitempty"`
}

type RunMetadata struct {
	ID         string                        `json:"id"`
	Name       string                        `json:"name"`
	Timestamp  time.Time                     `json:"timestamp"`
	Seed       int64                         `json:"seed"`
	Dt         float64                       `json:"dt"`
	Duration   float64                       `json:"duration"`
	Steps      int                           `json:"steps"`
	Integrator string                        `json:"integrator"`
	Table      body.Table                    `json:"table"`
	Robots     []RobotInfo                   `json:"robots"`
	Metrics    map[string]map[string]float64 `json:"metrics"`
}

// Save writes a run and returns its generated id. Duration, step count,
// teams and metrics are taken from the result; robots missing from
// meta.Robots are appended in name order.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	name := meta.Name
	if name == "" {
		name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%s", name, strings.SplitN(uuid.NewString(), "-", 2)[0])
	meta.Timestamp = time.Now().UTC()
	meta.Duration = result.Duration
	meta.Steps = result.StepsTaken
	meta.Metrics = result.Metrics
	meta.Robots = mergeRobots(meta.Robots, result)

	for _, r := range meta.Robots {
		if err := checkName(r.Name); err != nil {
			return "", err
		}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	for _, r := range meta.Robots {
		if err := writeTrace(filepath.Join(runDir, r.Name+".csv"), result.Traces[r.Name]); err != nil {
			return "", fmt.Errorf("trace %s: %w", r.Name, err)
		}
	}
	return meta.ID, nil
}

func mergeRobots(given []RobotInfo, result *dynamo.Result) []RobotInfo {
	robots := make([]RobotInfo, 0, len(result.Traces))
	known := make(map[string]bool, len(given))
	for _, r := range given {
		if team, ok := result.Teams[r.Name]; ok {
			r.Team = team
		}
		robots = append(robots, r)
		known[r.Name] = true
	}

	extra := make([]string, 0)
	for name := range result.Traces {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		robots = append(robots, RobotInfo{Name: name, Team: result.Teams[name]})
	}
	return robots
}

// checkName rejects robot names that cannot be used as a file name.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("storage: invalid robot name %q", name)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if err := checkName(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrace reads the samples recorded for one robot of a run.
func (s *Store) LoadTrace(runID, robot string) ([]dynamo.Sample, error) {
	if err := checkName(runID); err != nil {
		return nil, err
	}
	if err := checkName(robot); err != nil {
		return nil, err
	}
	samples, err := readTrace(filepath.Join(s.baseDir, runID, robot+".csv"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s/%s", ErrRunNotFound, runID, robot)
	}
	return samples, err
}
