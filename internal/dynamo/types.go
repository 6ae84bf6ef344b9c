package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a point or displacement in simulation space.
type Vec = r2.Vec

// Handle identifies a body inside a world. Handles are assigned in
// insertion order and never reused.
type Handle int

// Body is a circle in the unit-square simulation space. Velocity is
// implicit in Pos - Prev.
type Body struct {
	Pos        Vec
	Prev       Vec
	Radius     float64
	Dynamic    bool
	Appearance string
}

// NewBody returns a dynamic body at rest.
func NewBody(pos Vec, radius float64, appearance string) (*Body, error) {
	if err := validate(pos, radius); err != nil {
		return nil, err
	}
	return &Body{
		Pos:        pos,
		Prev:       pos,
		Radius:     radius,
		Dynamic:    true,
		Appearance: appearance,
	}, nil
}

// NewBodyWithVelocity returns a dynamic body whose implicit velocity
// encodes vel (units per second) for a fixed step of dt seconds.
func NewBodyWithVelocity(pos, vel Vec, radius float64, appearance string, dt float64) (*Body, error) {
	if err := validate(pos, radius); err != nil {
		return nil, err
	}
	if !finite(vel) {
		return nil, &BodyError{Field: "velocity", Wrapped: ErrNonFinite}
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, &BodyError{Field: "dt", Wrapped: ErrNonFinite}
	}
	return &Body{
		Pos:        r2.Add(pos, r2.Scale(dt, vel)),
		Prev:       pos,
		Radius:     radius,
		Dynamic:    true,
		Appearance: appearance,
	}, nil
}

// Velocity is the displacement over the last fixed step.
func (b *Body) Velocity() Vec {
	return r2.Sub(b.Pos, b.Prev)
}

// Pin writes p to both Pos and Prev, leaving the body with zero implicit
// velocity.
func (b *Body) Pin(p Vec) {
	b.Pos = p
	b.Prev = p
}

// Contains reports whether p lies inside the body's disc.
func (b *Body) Contains(p Vec) bool {
	return r2.Norm2(r2.Sub(p, b.Pos)) <= b.Radius*b.Radius
}

// Check reports why b cannot be simulated, or nil.
func (b *Body) Check() error {
	if err := validate(b.Pos, b.Radius); err != nil {
		return err
	}
	if !finite(b.Prev) {
		return &BodyError{Field: "previous position", Wrapped: ErrNonFinite}
	}
	return nil
}

func (b *Body) IsValid() bool {
	return finite(b.Pos) && finite(b.Prev)
}

func validate(pos Vec, radius float64) error {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return &BodyError{Field: "radius", Wrapped: ErrInvalidRadius}
	}
	if !finite(pos) {
		return &BodyError{Field: "position", Wrapped: ErrNonFinite}
	}
	return nil
}

func finite(v Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Finite reports whether both components of v are finite.
func Finite(v Vec) bool { return finite(v) }

// Integrator advances one body by one fixed step under a constant
// acceleration.
type Integrator interface {
	Step(b *Body, acc Vec, dt float64)
}

// Constraint corrects a body's position and reports whether it did.
type Constraint interface {
	Name() string
	Apply(b *Body) bool
}

// StepStats summarises one simulation step.
type StepStats struct {
	Step     int
	Contacts int
}

// WorldView is the read-only surface of a world exposed to metrics.
type WorldView interface {
	Bodies() []*Body
	Gravity() Vec
	Dt() float64
}

type Metric interface {
	Name() string
	Observe(w WorldView, s StepStats)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

// Sample is one body's state at the end of a frame.
type Sample struct {
	Handle  Handle
	Pos     Vec
	Prev    Vec
	Radius  float64
	Dynamic bool
}

// Frame is the world as seen by a host after one scheduler advance.
type Frame struct {
	Time    float64
	Steps   int
	Samples []Sample
}

type Result struct {
	Frames   []Frame
	Metrics  map[string]float64
	Steps    int
	Duration float64
}
