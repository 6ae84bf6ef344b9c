package config

import "github.com/san-kum/ballpit/internal/sim"

// dragScript grabs the ball, swings it across the box and lets go at
// rest above the right half.
func dragScript() []sim.InputEvent {
	events := []sim.InputEvent{{At: 0.5, Kind: sim.InputPress, X: 0.3, Y: 0.9}}
	for i := 1; i <= 20; i++ {
		f := float64(i) / 20
		events = append(events, sim.InputEvent{
			At:   0.5 + f,
			Kind: sim.InputMove,
			X:    0.3 + 0.45*f,
			Y:    0.9 - 0.1*f,
		})
	}
	return append(events, sim.InputEvent{At: 1.6, Kind: sim.InputRelease, X: 0.75, Y: 0.8})
}
