package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/san-kum/ballpit/internal/drag"
	"github.com/san-kum/ballpit/internal/dynamo"
)

type InputKind string

const (
	InputPress   InputKind = "press"
	InputMove    InputKind = "move"
	InputRelease InputKind = "release"
)

// InputEvent is a scripted pointer event in simulation coordinates. Body
// selects the drag target on press; when nil the body under the pointer
// is used, then the runner's default target.
type InputEvent struct {
	At   float64   `yaml:"at"`
	Kind InputKind `yaml:"kind"`
	X    float64   `yaml:"x"`
	Y    float64   `yaml:"y"`
	Body *int      `yaml:"body,omitempty"`
}

type RunConfig struct {
	Duration  float64
	FrameRate float64
	Input     []InputEvent
}

// Runner is a headless host: it feeds the scheduler a synthetic frame
// clock and replays scripted input through the drag bridge.
type Runner struct {
	world      *World
	sched      *Scheduler
	bridge     *drag.Bridge
	dragTarget dynamo.Handle
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
}

func NewRunner(w *World, s *Scheduler, b *drag.Bridge) *Runner {
	r := &Runner{
		world:     w,
		sched:     s,
		bridge:    b,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		logger:    slog.Default(),
	}
	s.OnStep(r.observeStep)
	return r
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }
func (r *Runner) SetDragTarget(h dynamo.Handle) { r.dragTarget = h }
func (r *Runner) SetLogger(l *slog.Logger)      { r.logger = l }

func (r *Runner) World() *World { return r.world }

func (r *Runner) observeStep(stats dynamo.StepStats) {
	for _, m := range r.metrics {
		m.Observe(r.world, stats)
	}
}

func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*dynamo.Result, error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}

	frameDt := 1 / cfg.FrameRate
	frames := int(math.Round(cfg.Duration * cfg.FrameRate))
	input := make([]InputEvent, len(cfg.Input))
	copy(input, cfg.Input)
	sort.SliceStable(input, func(i, j int) bool { return input[i].At < input[j].At })

	for _, m := range r.metrics {
		m.Reset()
	}

	result := &dynamo.Result{
		Frames:  make([]dynamo.Frame, 0, frames+1),
		Metrics: make(map[string]float64),
	}
	r.record(result, dynamo.Frame{Time: 0, Samples: r.world.Snapshot()})

	r.logger.Info("run started",
		"bodies", len(r.world.Bodies()), "frames", frames, "dt", r.world.Dt(), "events", len(input))

	startSteps := r.sched.Steps()
	next := 0
	t := 0.0
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for next < len(input) && input[next].At <= t {
			if err := r.apply(input[next]); err != nil {
				r.logger.Warn("input event rejected", "at", input[next].At, "kind", input[next].Kind, "error", err)
			}
			next++
		}

		n := r.sched.Advance(frameDt)
		t = float64(i+1) * frameDt

		if err := r.world.Validate(); err != nil {
			return result, err
		}
		r.record(result, dynamo.Frame{Time: t, Steps: n, Samples: r.world.Snapshot()})
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Steps = r.sched.Steps() - startSteps
	result.Duration = t

	r.logger.Debug("run finished", "steps", result.Steps, "dropped", r.sched.Dropped())
	return result, nil
}

func (r *Runner) record(result *dynamo.Result, f dynamo.Frame) {
	for _, obs := range r.observers {
		obs.OnFrame(f)
	}
	result.Frames = append(result.Frames, f)
}

func (r *Runner) apply(ev InputEvent) error {
	p := dynamo.Vec{X: ev.X, Y: ev.Y}
	switch ev.Kind {
	case InputPress:
		h := r.dragTarget
		if ev.Body != nil {
			h = dynamo.Handle(*ev.Body)
		} else if hit, ok := r.world.BodyAt(p); ok {
			h = hit
		}
		return r.bridge.Start(h, p)
	case InputMove:
		r.bridge.Move(p)
	case InputRelease:
		r.bridge.End()
	default:
		return fmt.Errorf("unknown input kind %q", ev.Kind)
	}
	return nil
}

func validateRunConfig(cfg RunConfig) error {
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 0) {
		return fmt.Errorf("duration must be positive, got %v: %w", cfg.Duration, dynamo.ErrInvalidConfig)
	}
	if !(cfg.FrameRate > 0) || math.IsInf(cfg.FrameRate, 0) {
		return fmt.Errorf("frame rate must be positive, got %v: %w", cfg.FrameRate, dynamo.ErrInvalidConfig)
	}
	return nil
}
