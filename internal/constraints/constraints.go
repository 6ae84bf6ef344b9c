package constraints

import (
	"github.com/san-kum/ballpit/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Slope is the half-plane {p : (p - Origin)·Normal >= 0}. Bodies whose
// centre is closer than Radius to the boundary are pushed out along
// Normal. Normal must be unit length.
type Slope struct {
	Origin dynamo.Vec
	Normal dynamo.Vec
}

// NewSlope normalises n.
func NewSlope(origin, n dynamo.Vec) Slope {
	return Slope{Origin: origin, Normal: r2.Unit(n)}
}

func (s Slope) Name() string { return "slope" }

// Distance is the signed distance from p to the boundary line.
func (s Slope) Distance(p dynamo.Vec) float64 {
	return r2.Dot(r2.Sub(p, s.Origin), s.Normal)
}

func (s Slope) Apply(b *dynamo.Body) bool {
	d := s.Distance(b.Pos)
	if d >= b.Radius {
		return false
	}
	b.Pos = r2.Add(b.Pos, r2.Scale(b.Radius-d, s.Normal))
	return true
}

type Floor struct {
	Y float64
}

func (f Floor) Name() string { return "floor" }

func (f Floor) Apply(b *dynamo.Body) bool {
	if b.Pos.Y >= f.Y+b.Radius {
		return false
	}
	b.Pos.Y = f.Y + b.Radius
	return true
}

type RightWall struct {
	X float64
}

func (w RightWall) Name() string { return "right_wall" }

func (w RightWall) Apply(b *dynamo.Body) bool {
	if b.Pos.X <= w.X-b.Radius {
		return false
	}
	b.Pos.X = w.X - b.Radius
	return true
}

type LeftWall struct {
	X float64
}

func (w LeftWall) Name() string { return "left_wall" }

func (w LeftWall) Apply(b *dynamo.Body) bool {
	if b.Pos.X >= w.X+b.Radius {
		return false
	}
	b.Pos.X = w.X + b.Radius
	return true
}
