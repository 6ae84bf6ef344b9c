package metrics

import "github.com/san-kum/ballpit/internal/dynamo"

// KinematicTime is the simulated time, in seconds, during which at least
// one body was held by an external driver.
type KinematicTime struct {
	name    string
	seconds float64
}

func NewKinematicTime() *KinematicTime {
	return &KinematicTime{name: "kinematic_time"}
}

func (k *KinematicTime) Name() string { return k.name }

func (k *KinematicTime) Observe(w dynamo.WorldView, s dynamo.StepStats) {
	for _, b := range w.Bodies() {
		if !b.Dynamic {
			k.seconds += w.Dt()
			return
		}
	}
}

func (k *KinematicTime) Value() float64 { return k.seconds }

func (k *KinematicTime) Reset() { k.seconds = 0 }

// Default is the metric set attached to headless runs.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewContacts(),
		NewKinematicTime(),
	}
}
