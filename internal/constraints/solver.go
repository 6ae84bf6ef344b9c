package constraints

import (
	"math"

	"github.com/san-kum/ballpit/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Solver applies its constraints in list order, one pass each, to every
// dynamic body. Later constraints see positions already moved by earlier
// ones; there is no relaxation.
type Solver struct {
	constraints []dynamo.Constraint
	counts      map[string]int
}

func NewSolver(cs ...dynamo.Constraint) *Solver {
	return &Solver{
		constraints: cs,
		counts:      make(map[string]int, len(cs)),
	}
}

// Default is the sandbox geometry: a 45° slope through (0.5, 0) inside
// the unit box.
func Default() *Solver {
	return Box(NewSlope(dynamo.Vec{X: 0.5}, dynamo.Vec{X: 1, Y: 1}))
}

// Box builds the canonical order: slope, floor, right wall, left wall.
func Box(slope Slope) *Solver {
	return NewSolver(slope, Floor{Y: 0}, RightWall{X: 1}, LeftWall{X: 0})
}

// Solve returns the number of corrections applied.
func (s *Solver) Solve(bodies []*dynamo.Body) int {
	contacts := 0
	for _, c := range s.constraints {
		for _, b := range bodies {
			if !b.Dynamic {
				continue
			}
			if c.Apply(b) {
				contacts++
				s.counts[c.Name()]++
			}
		}
	}
	return contacts
}

// Counts is the running number of corrections per constraint name.
func (s *Solver) Counts() map[string]int {
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Segment is a line segment in simulation space.
type Segment struct {
	A, B dynamo.Vec
}

// Segments returns the static geometry for renderers: the box outline
// (left, floor, right; the top is open) followed by each slope boundary
// clipped to the unit square.
func (s *Solver) Segments() []Segment {
	segs := []Segment{
		{A: dynamo.Vec{X: 0, Y: 1}, B: dynamo.Vec{X: 0, Y: 0}},
		{A: dynamo.Vec{X: 0, Y: 0}, B: dynamo.Vec{X: 1, Y: 0}},
		{A: dynamo.Vec{X: 1, Y: 0}, B: dynamo.Vec{X: 1, Y: 1}},
	}
	for _, c := range s.constraints {
		sl, ok := c.(Slope)
		if !ok {
			continue
		}
		if seg, ok := clipLine(sl); ok {
			segs = append(segs, seg)
		}
	}
	return segs
}

// clipLine intersects the slope boundary with the unit square.
func clipLine(s Slope) (Segment, bool) {
	dir := dynamo.Vec{X: -s.Normal.Y, Y: s.Normal.X}
	tMin, tMax := math.Inf(-1), math.Inf(1)
	for _, axis := range [2]struct{ o, d float64 }{{s.Origin.X, dir.X}, {s.Origin.Y, dir.Y}} {
		if axis.d == 0 {
			if axis.o < 0 || axis.o > 1 {
				return Segment{}, false
			}
			continue
		}
		t0, t1 := (0-axis.o)/axis.d, (1-axis.o)/axis.d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math.Max(tMin, t0)
		tMax = math.Min(tMax, t1)
	}
	if tMin > tMax {
		return Segment{}, false
	}
	return Segment{
		A: r2.Add(s.Origin, r2.Scale(tMin, dir)),
		B: r2.Add(s.Origin, r2.Scale(tMax, dir)),
	}, true
}
