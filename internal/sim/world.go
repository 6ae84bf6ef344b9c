package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/ballpit/internal/constraints"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/integrators"
	"gonum.org/v1/gonum/spatial/r2"
)

// World owns the body set and performs one authoritative physics tick
// per Step: integrate every body, then solve constraints over all of
// them.
type World struct {
	bodies     []*dynamo.Body
	gravity    dynamo.Vec
	dt         float64
	integrator dynamo.Integrator
	solver     *constraints.Solver
	steps      int
}

type WorldOption func(*World)

func WithIntegrator(i dynamo.Integrator) WorldOption {
	return func(w *World) { w.integrator = i }
}

func WithSolver(s *constraints.Solver) WorldOption {
	return func(w *World) { w.solver = s }
}

// NewWorld uses position Verlet and the default box geometry unless
// options say otherwise.
func NewWorld(gravity dynamo.Vec, dt float64, opts ...WorldOption) (*World, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("dt must be positive and finite, got %v: %w", dt, dynamo.ErrInvalidConfig)
	}
	if !dynamo.Finite(gravity) {
		return nil, fmt.Errorf("gravity %v: %w", gravity, dynamo.ErrNonFinite)
	}
	w := &World{
		gravity:    gravity,
		dt:         dt,
		integrator: integrators.NewVerlet(),
		solver:     constraints.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add registers b and returns its handle. The body set is fixed once the
// world has stepped.
func (w *World) Add(b *dynamo.Body) (dynamo.Handle, error) {
	if w.steps > 0 {
		return -1, dynamo.ErrWorldSealed
	}
	if b == nil {
		return -1, &dynamo.BodyError{Field: "body", Wrapped: dynamo.ErrInvalidState}
	}
	if err := b.Check(); err != nil {
		return -1, err
	}
	w.bodies = append(w.bodies, b)
	return dynamo.Handle(len(w.bodies) - 1), nil
}

func (w *World) Body(h dynamo.Handle) (*dynamo.Body, bool) {
	if h < 0 || int(h) >= len(w.bodies) {
		return nil, false
	}
	return w.bodies[h], true
}

// BodyAt returns the body whose disc contains p, preferring the nearest
// centre when discs overlap.
func (w *World) BodyAt(p dynamo.Vec) (dynamo.Handle, bool) {
	best, bestDist := dynamo.Handle(-1), math.Inf(1)
	for i, b := range w.bodies {
		if !b.Contains(p) {
			continue
		}
		if d := r2.Norm2(r2.Sub(p, b.Pos)); d < bestDist {
			best, bestDist = dynamo.Handle(i), d
		}
	}
	return best, best >= 0
}

func (w *World) Bodies() []*dynamo.Body      { return w.bodies }
func (w *World) Gravity() dynamo.Vec         { return w.gravity }
func (w *World) Dt() float64                 { return w.dt }
func (w *World) Solver() *constraints.Solver { return w.solver }
func (w *World) Steps() int                  { return w.steps }

// Step integrates every body before any constraint runs.
func (w *World) Step() dynamo.StepStats {
	for _, b := range w.bodies {
		w.integrator.Step(b, w.gravity, w.dt)
	}
	contacts := w.solver.Solve(w.bodies)
	w.steps++
	return dynamo.StepStats{Step: w.steps, Contacts: contacts}
}

// Validate returns a *dynamo.SimulationError if any body left the
// finite plane.
func (w *World) Validate() error {
	for _, b := range w.bodies {
		if !b.IsValid() {
			return &dynamo.SimulationError{
				Step:    w.steps,
				Time:    float64(w.steps) * w.dt,
				Wrapped: dynamo.ErrInvalidState,
			}
		}
	}
	return nil
}

// Snapshot copies the per-body state a renderer or recorder needs.
func (w *World) Snapshot() []dynamo.Sample {
	out := make([]dynamo.Sample, len(w.bodies))
	for i, b := range w.bodies {
		out[i] = dynamo.Sample{
			Handle:  dynamo.Handle(i),
			Pos:     b.Pos,
			Prev:    b.Prev,
			Radius:  b.Radius,
			Dynamic: b.Dynamic,
		}
	}
	return out
}
