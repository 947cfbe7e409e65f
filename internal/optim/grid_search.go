// Package optim searches controller parameters that minimise a match metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/dynamo"
	"github.com/san-kum/robosim/internal/experiment"
	"go.uber.org/zap"
)

// ErrNoCandidate is returned when no grid point produced a finite score.
var ErrNoCandidate = errors.New("optim: no candidate produced a score")

// Candidate is one evaluated grid point.
type Candidate struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// GridSearch tunes the controller of one robot over the cartesian product of
// parameter values, running every point as a full match.
type GridSearch struct {
	Robot   string
	Metric  string
	Workers int

	paramNames []string
	ranges     [][]float64
	log        *zap.Logger
}

func NewGridSearch(robot, metric string, grid map[string][]float64, log *zap.Logger) (*GridSearch, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: empty grid", dynamo.ErrParameterBounds)
	}
	if log == nil {
		log = zap.NewNop()
	}
	g := &GridSearch{Robot: robot, Metric: metric, log: log}
	for name := range grid {
		g.paramNames = append(g.paramNames, name)
	}
	sort.Strings(g.paramNames)
	for _, name := range g.paramNames {
		if len(grid[name]) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", dynamo.ErrParameterBounds, name)
		}
		g.ranges = append(g.ranges, grid[name])
	}
	return g, nil
}

// Points returns every grid point, the last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(points)*len(g.ranges[i]))
		for _, p := range points {
			for _, v := range g.ranges[i] {
				np := make(map[string]float64, len(p)+1)
				for k, pv := range p {
					np[k] = pv
				}
				np[name] = v
				next = append(next, np)
			}
		}
		points = next
	}
	return points
}

// Search evaluates every grid point on base and returns the candidates
// sorted by score, best first. Points whose match fails or whose robot never
// arrives score +Inf.
func (g *GridSearch) Search(ctx context.Context, base *config.Config) ([]Candidate, error) {
	points := g.Points()
	out := make([]Candidate, len(points))

	var mu sync.Mutex
	done := 0
	err := dynamo.ForEach(ctx, len(points), g.Workers, func(ctx context.Context, i int) error {
		score, err := g.evaluate(ctx, base, points[i])
		if ctx.Err() != nil {
			return ctx.Err()
		}
		out[i] = Candidate{Params: points[i], Score: score, Err: err}

		mu.Lock()
		done++
		g.log.Debug("candidate", zap.Int("done", done), zap.Int("total", len(points)),
			zap.Any("params", points[i]), zap.Float64("score", score), zap.Error(err))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	if math.IsInf(out[0].Score, 1) {
		return out, ErrNoCandidate
	}
	return out, nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, params map[string]float64) (float64, error) {
	exp, err := experiment.New(base.Clone(), g.log)
	if err != nil {
		return math.Inf(1), err
	}
	r, ok := exp.Match().Robot(g.Robot)
	if !ok {
		return math.Inf(1), fmt.Errorf("robot %q not in match", g.Robot)
	}
	var tuner dynamo.Configurable = r.Ctrl
	for _, name := range g.paramNames {
		if err := tuner.SetParam(name, params[name]); err != nil {
			return math.Inf(1), err
		}
	}

	res, err := exp.Run(ctx)
	if err != nil {
		return math.Inf(1), err
	}
	v, ok := res.Metrics[g.Robot][g.Metric]
	if !ok {
		return math.Inf(1), fmt.Errorf("metric %q not recorded", g.Metric)
	}
	// a negative arrival time means the robot was still moving
	if !dynamo.IsFinite(v) || (g.Metric == "arrival_time" && v < 0) {
		return math.Inf(1), nil
	}
	return v, nil
}
