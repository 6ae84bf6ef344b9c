// Package optim sweeps a grid of configuration knobs and ranks the runs
// by a metric.
package optim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/san-kum/ballpit/internal/dynamo"
)

type Param struct {
	Name   string
	Values []float64
}

// Point is one grid cell and the outcome of running it.
type Point struct {
	Params map[string]float64
	Value  float64
	Result *dynamo.Result
	Err    error
}

// RunFunc runs one simulation with the given knob values.
type RunFunc func(ctx context.Context, params map[string]float64) (*dynamo.Result, error)

type GridSearch struct {
	params []Param
	logger *slog.Logger
}

func NewGridSearch(params ...Param) *GridSearch {
	return &GridSearch{params: params, logger: slog.Default()}
}

func (g *GridSearch) SetLogger(l *slog.Logger) { g.logger = l }

// Size is the number of grid cells.
func (g *GridSearch) Size() int {
	n := 1
	for _, p := range g.params {
		n *= len(p.Values)
	}
	return n
}

// Search runs every grid cell in order and returns them all, sorted by
// the named metric, lowest first. Failed cells sort last with Err set.
func (g *GridSearch) Search(ctx context.Context, run RunFunc, metric string) ([]Point, error) {
	for _, p := range g.params {
		if len(p.Values) == 0 {
			return nil, fmt.Errorf("%w: param %s has no values", dynamo.ErrInvalidConfig, p.Name)
		}
	}

	points := make([]Point, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, run, metric, &points); err != nil {
		return points, err
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Value < points[j].Value })
	return points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	run RunFunc,
	metric string,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.params) {
		p := Point{Params: current, Value: math.Inf(1)}
		p.Result, p.Err = run(ctx, current)
		switch {
		case p.Err != nil:
			g.logger.Warn("grid cell failed", "params", current, "error", p.Err)
		default:
			v, ok := p.Result.Metrics[metric]
			if !ok {
				p.Err = fmt.Errorf("metric %q not recorded", metric)
				break
			}
			p.Value = v
		}
		*points = append(*points, p)
		return nil
	}

	param := g.params[depth]
	for _, val := range param.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[param.Name] = val

		if err := g.searchRecursive(ctx, depth+1, next, run, metric, points); err != nil {
			return err
		}
	}
	return nil
}
