// Package dynamo provides the core simulation primitives shared by every
// other package in ballpit.
//
// The package defines the body model and the contracts that the
// physics pipeline is assembled from:
//
//   - [Body]: a circle in the unit-square simulation space
//   - [Handle]: a stable identifier for a body inside a world
//   - [Integrator]: advances one body by one fixed step
//   - [Constraint]: a positional correction applied after integration
//   - [Metric] and [Observer]: hooks consumed by the headless runner
//
// # Coordinates
//
// All positions live in a normalised space where the box spans [0,1] on
// both axes and y points up. Velocity is never stored: it is implied by
// Pos - Prev, a displacement per fixed step.
//
// # Example
//
//	b, _ := dynamo.NewBody(dynamo.Vec{X: 0.3, Y: 0.9}, 0.1, "#ff0000")
//	w, _ := sim.NewWorld(dynamo.Vec{Y: -0.8}, 1.0/480)
//	h, _ := w.Add(b)
//	sched := sim.NewScheduler(w)
//	sched.Advance(1.0 / 60)
//
// # Thread Safety
//
// Bodies are plain values mutated in place. A world and everything that
// holds its bodies must be driven from a single goroutine.
package dynamo
