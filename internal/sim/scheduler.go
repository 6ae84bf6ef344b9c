package sim

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// OverflowPolicy decides what happens to accumulated time once a single
// Advance has run its maximum number of steps.
type OverflowPolicy int

const (
	// OverflowDrop discards the whole steps that did not fit and keeps
	// only the sub-step fraction. Simulated time falls behind wall time.
	OverflowDrop OverflowPolicy = iota
	// OverflowCarry keeps the backlog and works it off over later calls,
	// at most the cap per call.
	OverflowCarry
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowDrop:
		return "drop"
	case OverflowCarry:
		return "carry"
	}
	return fmt.Sprintf("OverflowPolicy(%d)", int(p))
}

func ParseOverflow(s string) (OverflowPolicy, error) {
	switch s {
	case "", "drop":
		return OverflowDrop, nil
	case "carry":
		return OverflowCarry, nil
	}
	return 0, fmt.Errorf("unknown overflow policy %q (want drop or carry): %w", s, dynamo.ErrInvalidConfig)
}

// Stepper is one fixed-size simulation tick.
type Stepper interface {
	Step() dynamo.StepStats
	Dt() float64
}

// Scheduler turns variable frame times into a whole number of fixed
// steps, carrying the sub-step remainder between calls.
type Scheduler struct {
	world     Stepper
	dt        float64
	remainder float64
	maxSteps  int
	overflow  OverflowPolicy
	logger    *slog.Logger
	hooks     []func(dynamo.StepStats)
	steps     int
	dropped   float64
}

type SchedulerOption func(*Scheduler)

// WithMaxSteps caps the steps run by a single Advance. Zero means no cap.
func WithMaxSteps(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n >= 0 {
			s.maxSteps = n
		}
	}
}

func WithOverflow(p OverflowPolicy) SchedulerOption {
	return func(s *Scheduler) { s.overflow = p }
}

func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewScheduler(world Stepper, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		world:  world,
		dt:     world.Dt(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnStep registers fn to run after every fixed step.
func (s *Scheduler) OnStep(fn func(dynamo.StepStats)) {
	s.hooks = append(s.hooks, fn)
}

// Advance adds elapsed seconds to the accumulator and runs as many fixed
// steps as fit. It returns the number of steps run.
func (s *Scheduler) Advance(elapsed float64) int {
	if elapsed < 0 || math.IsNaN(elapsed) || math.IsInf(elapsed, 0) {
		s.logger.Warn("ignoring invalid frame time", "elapsed", elapsed)
		return 0
	}
	s.remainder += elapsed

	n := 0
	for s.remainder >= s.dt {
		if s.maxSteps > 0 && n >= s.maxSteps {
			s.overflowed(n)
			break
		}
		stats := s.world.Step()
		for _, fn := range s.hooks {
			fn(stats)
		}
		s.remainder -= s.dt
		n++
	}
	s.steps += n
	return n
}

func (s *Scheduler) AdvanceDuration(d time.Duration) int {
	return s.Advance(d.Seconds())
}

func (s *Scheduler) overflowed(ran int) {
	if s.overflow == OverflowCarry {
		s.logger.Debug("step cap reached, carrying backlog",
			"steps", ran, "backlog", s.remainder)
		return
	}
	before := s.remainder
	s.remainder = math.Mod(s.remainder, s.dt)
	dropped := before - s.remainder
	s.dropped += dropped
	s.logger.Warn("step cap reached, dropping simulation time",
		"steps", ran, "dropped", dropped, "max_steps", s.maxSteps)
}

func (s *Scheduler) Remainder() float64 { return s.remainder }

// Alpha is how far the host is between the last step and the next one,
// in [0, 1) unless a carried backlog is pending.
func (s *Scheduler) Alpha() float64 { return s.remainder / s.dt }

// Steps is the total number of fixed steps run.
func (s *Scheduler) Steps() int { return s.steps }

// Dropped is the total simulation time discarded by OverflowDrop.
func (s *Scheduler) Dropped() float64 { return s.dropped }

func (s *Scheduler) Dt() float64 { return s.dt }
