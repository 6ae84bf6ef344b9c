package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/ballpit/internal/dynamo"
)

const dt = 1.0 / 480

func newBody(t *testing.T, x, y float64) *dynamo.Body {
	t.Helper()
	b, err := dynamo.NewBody(dynamo.Vec{X: x, Y: y}, 0.1, "#ff0000")
	if err != nil {
		t.Fatalf("NewBody: %v", err)
	}
	return b
}

func TestVerletAtRest(t *testing.T) {
	b := newBody(t, 0.5, 0.5)
	NewVerlet().Step(b, dynamo.Vec{}, dt)

	if b.Pos != (dynamo.Vec{X: 0.5, Y: 0.5}) {
		t.Errorf("position moved: got %v", b.Pos)
	}
	if b.Prev != b.Pos {
		t.Errorf("prev = %v, want %v", b.Prev, b.Pos)
	}
}

func TestVerletFreeFall(t *testing.T) {
	b := newBody(t, 0.5, 0.5)
	NewVerlet().Step(b, dynamo.Vec{Y: -0.8}, dt)

	wantY := 0.5 - 0.8*dt*dt
	if b.Pos.X != 0.5 {
		t.Errorf("x = %v, want 0.5", b.Pos.X)
	}
	if math.Abs(b.Pos.Y-wantY) > 1e-15 {
		t.Errorf("y = %.17f, want %.17f", b.Pos.Y, wantY)
	}
	if b.Prev != (dynamo.Vec{X: 0.5, Y: 0.5}) {
		t.Errorf("prev = %v, want start position", b.Prev)
	}
}

func TestVerletVelocityUpdate(t *testing.T) {
	b := newBody(t, 0.5, 0.5)
	b.Prev = dynamo.Vec{X: 0.499, Y: 0.5}
	acc := dynamo.Vec{X: 0.3, Y: -0.8}
	integ := NewVerlet()

	for i := 0; i < 50; i++ {
		before := b.Velocity()
		integ.Step(b, acc, dt)
		after := b.Velocity()

		wantX := before.X + acc.X*dt*dt
		wantY := before.Y + acc.Y*dt*dt
		if math.Abs(after.X-wantX) > 1e-12 || math.Abs(after.Y-wantY) > 1e-12 {
			t.Fatalf("step %d: velocity %v, want (%v, %v)", i, after, wantX, wantY)
		}
	}
}

func TestVerletSkipsKinematic(t *testing.T) {
	b := newBody(t, 0.2, 0.7)
	b.Prev = dynamo.Vec{X: 0.1, Y: 0.7}
	b.Dynamic = false

	NewVerlet().Step(b, dynamo.Vec{Y: -0.8}, dt)

	if b.Pos != (dynamo.Vec{X: 0.2, Y: 0.7}) || b.Prev != (dynamo.Vec{X: 0.1, Y: 0.7}) {
		t.Errorf("kinematic body changed: pos %v prev %v", b.Pos, b.Prev)
	}
}

func TestVerletMatchesConstantAcceleration(t *testing.T) {
	b := newBody(t, 0.5, 0.9)
	integ := NewVerlet()
	g := -0.8
	steps := 480

	for i := 0; i < steps; i++ {
		integ.Step(b, dynamo.Vec{Y: g}, dt)
	}

	// Starting from Prev == Pos the scheme gives y_n = y_0 + g dt² n(n+1)/2.
	n := float64(steps)
	want := 0.9 + g*dt*dt*n*(n+1)/2
	if math.Abs(b.Pos.Y-want) > 1e-9 {
		t.Errorf("y after %d steps = %.9f, want %.9f", steps, b.Pos.Y, want)
	}
}
