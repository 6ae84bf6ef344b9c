// Package drag hands a body over to an external pointer and back.
//
// While a body is dragged it is kinematic: the integrator and the
// constraint solver skip it and every pointer sample is written to both
// Pos and Prev. Releasing it leaves Pos == Prev, so the body resumes with
// zero velocity instead of inheriting the pointer's speed.
package drag

import (
	"fmt"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// BodyStore resolves handles to bodies.
type BodyStore interface {
	Body(h dynamo.Handle) (*dynamo.Body, bool)
}

type Bridge struct {
	store  BodyStore
	target dynamo.Handle
	active bool
}

func New(store BodyStore) *Bridge {
	return &Bridge{store: store}
}

// Start takes control of the body named by h and pins it at p. A drag
// already in progress is ended first.
func (b *Bridge) Start(h dynamo.Handle, p dynamo.Vec) error {
	body, ok := b.store.Body(h)
	if !ok {
		return fmt.Errorf("drag start %d: %w", h, dynamo.ErrUnknownHandle)
	}
	if !dynamo.Finite(p) {
		return fmt.Errorf("drag start %d: %w", h, dynamo.ErrNonFinite)
	}
	if b.active && b.target != h {
		b.End()
	}
	body.Pin(p)
	body.Dynamic = false
	b.target, b.active = h, true
	return nil
}

// Move pins the dragged body at p. It reports false when nothing is
// being dragged or p is not finite.
func (b *Bridge) Move(p dynamo.Vec) bool {
	if !b.active || !dynamo.Finite(p) {
		return false
	}
	body, ok := b.store.Body(b.target)
	if !ok {
		return false
	}
	body.Pin(p)
	return true
}

// End returns the dragged body to the simulation.
func (b *Bridge) End() bool {
	if !b.active {
		return false
	}
	b.active = false
	body, ok := b.store.Body(b.target)
	if !ok {
		return false
	}
	body.Dynamic = true
	return true
}

func (b *Bridge) Active() (dynamo.Handle, bool) {
	return b.target, b.active
}
