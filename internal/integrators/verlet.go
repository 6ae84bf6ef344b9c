package integrators

import (
	"github.com/san-kum/ballpit/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Verlet is position (Störmer) Verlet. Velocity is the displacement
// Pos - Prev, so dt must be the same on every call for the scheme to
// keep its second-order accuracy.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(b *dynamo.Body, acc dynamo.Vec, dt float64) {
	if !b.Dynamic {
		return
	}
	vel := r2.Sub(b.Pos, b.Prev)
	b.Prev = b.Pos
	b.Pos = r2.Add(r2.Add(b.Pos, vel), r2.Scale(dt*dt, acc))
}
