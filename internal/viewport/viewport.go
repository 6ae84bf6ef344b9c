// Package viewport maps between host screen coordinates and the unit
// square the physics runs in.
//
// The square is fitted to the shorter side of the screen and centred on
// the longer one. Screen y grows downwards; simulation y grows upwards.
// Hosts convert every pointer sample exactly once, here, so the core
// only ever sees normalised coordinates.
package viewport

import (
	"math"

	"github.com/san-kum/ballpit/internal/dynamo"
)

type Viewport struct {
	Width  float64
	Height float64
	// Aspect is the height of one screen unit divided by its width. Zero
	// means square pixels.
	Aspect float64
}

func New(width, height float64) Viewport {
	return Viewport{Width: width, Height: height, Aspect: 1}
}

func (v Viewport) aspect() float64 {
	if v.Aspect <= 0 {
		return 1
	}
	return v.Aspect
}

// Scale is the side of the unit square in horizontal and vertical
// screen units.
func (v Viewport) Scale() (sx, sy float64) {
	a := v.aspect()
	sx = math.Min(v.Width, v.Height*a)
	return sx, sx / a
}

func (v Viewport) shift() (float64, float64) {
	sx, sy := v.Scale()
	return (v.Width - sx) * 0.5, (v.Height - sy) * 0.5
}

func (v Viewport) ToWorld(px, py float64) dynamo.Vec {
	sx, sy := v.Scale()
	ox, oy := v.shift()
	return dynamo.Vec{
		X: (px - ox) / sx,
		Y: 1 - (py-oy)/sy,
	}
}

func (v Viewport) ToScreen(p dynamo.Vec) (float64, float64) {
	sx, sy := v.Scale()
	ox, oy := v.shift()
	return p.X*sx + ox, (1-p.Y)*sy + oy
}

// Radius converts a simulation length to screen units on each axis.
func (v Viewport) Radius(r float64) (rx, ry float64) {
	sx, sy := v.Scale()
	return r * sx, r * sy
}
