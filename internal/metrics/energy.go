package metrics

import (
	"math"

	"github.com/san-kum/ballpit/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// MechanicalEnergy is the specific (per unit mass) kinetic plus
// potential energy of the dynamic bodies in w. Kinematic bodies carry no
// simulated energy.
func MechanicalEnergy(w dynamo.WorldView) float64 {
	g := w.Gravity()
	dt := w.Dt()
	total := 0.0
	for _, b := range w.Bodies() {
		if !b.Dynamic {
			continue
		}
		v := r2.Scale(1/dt, b.Velocity())
		total += 0.5*r2.Norm2(v) - r2.Dot(g, b.Pos)
	}
	return total
}

type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(w dynamo.WorldView, s dynamo.StepStats) {
	e.totalEnergy += MechanicalEnergy(w)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative departure from the energy seen at
// the first observed step. Constraint projections remove energy, so in
// this sandbox the drift measures dissipation as much as integrator
// error.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(w dynamo.WorldView, s dynamo.StepStats) {
	energy := MechanicalEnergy(w)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy == 0 {
		return
	}
	drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
	if drift > e.maxDrift {
		e.maxDrift = drift
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
