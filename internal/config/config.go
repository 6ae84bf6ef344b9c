package config

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/san-kum/ballpit/internal/constraints"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt        = 1.0 / 480
	DefaultGravity   = -0.8
	DefaultMaxSteps  = 240
	DefaultOverflow  = "drop"
	DefaultDuration  = 10.0
	DefaultFrameRate = 60.0
	DefaultRadius    = 0.1
	DefaultColor     = "#ff0000"

	// SeedJitter bounds the start-position offset applied when Seed is
	// non-zero.
	SeedJitter = 0.01
)

type Config struct {
	Physics    PhysicsConfig `yaml:"physics"`
	Slope      SlopeConfig   `yaml:"slope"`
	Bodies     []BodyConfig  `yaml:"bodies"`
	DragTarget int           `yaml:"drag_target"`
	Run        RunConfig     `yaml:"run"`
	Seed       int64         `yaml:"seed"`
}

type PhysicsConfig struct {
	Gravity  Vec     `yaml:"gravity"`
	Dt       float64 `yaml:"dt"`
	MaxSteps int     `yaml:"max_steps"`
	Overflow string  `yaml:"overflow"`
}

type SlopeConfig struct {
	Origin Vec `yaml:"origin"`
	Normal Vec `yaml:"normal"`
}

type BodyConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	VX     float64 `yaml:"vx"`
	VY     float64 `yaml:"vy"`
	Radius float64 `yaml:"radius"`
	Color  string  `yaml:"color"`
}

type RunConfig struct {
	Duration  float64          `yaml:"duration"`
	FrameRate float64          `yaml:"fps"`
	Input     []sim.InputEvent `yaml:"input,omitempty"`
}

type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v Vec) vec() dynamo.Vec { return dynamo.Vec{X: v.X, Y: v.Y} }

// DefaultConfig is the classic scene: one red ball above a 45° slope.
func DefaultConfig() *Config {
	return &Config{
		Physics: PhysicsConfig{
			Gravity:  Vec{Y: DefaultGravity},
			Dt:       DefaultDt,
			MaxSteps: DefaultMaxSteps,
			Overflow: DefaultOverflow,
		},
		Slope: SlopeConfig{
			Origin: Vec{X: 0.5},
			Normal: Vec{X: 1, Y: 1},
		},
		Bodies: []BodyConfig{
			{X: 0.3, Y: 0.9, Radius: DefaultRadius, Color: DefaultColor},
		},
		Run: RunConfig{
			Duration:  DefaultDuration,
			FrameRate: DefaultFrameRate,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.Merge(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays the YAML file at path onto c. Keys absent from the file
// keep their current values; a bodies list replaces c's.
func (c *Config) Merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !(c.Physics.Dt > 0) || math.IsInf(c.Physics.Dt, 0) {
		bad("physics.dt must be positive, got %v", c.Physics.Dt)
	}
	if !finite(c.Physics.Gravity.X, c.Physics.Gravity.Y) {
		bad("physics.gravity must be finite")
	}
	if c.Physics.MaxSteps < 0 {
		bad("physics.max_steps must be >= 0, got %d", c.Physics.MaxSteps)
	}
	if _, err := sim.ParseOverflow(c.Physics.Overflow); err != nil {
		bad("physics.overflow: %q is not drop or carry", c.Physics.Overflow)
	}
	if !finite(c.Slope.Origin.X, c.Slope.Origin.Y, c.Slope.Normal.X, c.Slope.Normal.Y) {
		bad("slope must be finite")
	} else if c.Slope.Normal.X == 0 && c.Slope.Normal.Y == 0 {
		bad("slope.normal must be non-zero")
	}
	if len(c.Bodies) == 0 {
		bad("at least one body is required")
	}
	for i, b := range c.Bodies {
		if !(b.Radius > 0) || math.IsInf(b.Radius, 0) {
			bad("bodies[%d].radius must be positive, got %v", i, b.Radius)
		}
		if !finite(b.X, b.Y, b.VX, b.VY) {
			bad("bodies[%d] position and velocity must be finite", i)
		}
	}
	if c.DragTarget < 0 || (len(c.Bodies) > 0 && c.DragTarget >= len(c.Bodies)) {
		bad("drag_target %d out of range", c.DragTarget)
	}
	if !(c.Run.Duration > 0) {
		bad("run.duration must be positive, got %v", c.Run.Duration)
	}
	if !(c.Run.FrameRate > 0) {
		bad("run.fps must be positive, got %v", c.Run.FrameRate)
	}
	for i, ev := range c.Run.Input {
		switch ev.Kind {
		case sim.InputPress, sim.InputMove, sim.InputRelease:
		default:
			bad("run.input[%d].kind %q is not press, move or release", i, ev.Kind)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfig, errors.Join(errs...))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (c *Config) Solver() *constraints.Solver {
	return constraints.Box(constraints.NewSlope(c.Slope.Origin.vec(), c.Slope.Normal.vec()))
}

// BuildWorld validates c and returns a world holding its bodies, in
// order, with their handles. A non-zero Seed nudges every start position
// by up to SeedJitter on each axis.
func (c *Config) BuildWorld() (*sim.World, []dynamo.Handle, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	w, err := sim.NewWorld(c.Physics.Gravity.vec(), c.Physics.Dt, sim.WithSolver(c.Solver()))
	if err != nil {
		return nil, nil, err
	}
	var rng *rand.Rand
	if c.Seed != 0 {
		rng = rand.New(rand.NewSource(c.Seed))
	}
	handles := make([]dynamo.Handle, 0, len(c.Bodies))
	for i, bc := range c.Bodies {
		if rng != nil {
			bc.X += (2*rng.Float64() - 1) * SeedJitter
			bc.Y += (2*rng.Float64() - 1) * SeedJitter
		}
		color := bc.Color
		if color == "" {
			color = DefaultColor
		}
		var b *dynamo.Body
		if bc.VX != 0 || bc.VY != 0 {
			b, err = dynamo.NewBodyWithVelocity(dynamo.Vec{X: bc.X, Y: bc.Y}, dynamo.Vec{X: bc.VX, Y: bc.VY}, bc.Radius, color, c.Physics.Dt)
		} else {
			b, err = dynamo.NewBody(dynamo.Vec{X: bc.X, Y: bc.Y}, bc.Radius, color)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("bodies[%d]: %w", i, err)
		}
		h, err := w.Add(b)
		if err != nil {
			return nil, nil, fmt.Errorf("bodies[%d]: %w", i, err)
		}
		handles = append(handles, h)
	}
	return w, handles, nil
}

// SchedulerOptions translates the physics section into scheduler
// options. c must already be valid.
func (c *Config) SchedulerOptions() []sim.SchedulerOption {
	policy, _ := sim.ParseOverflow(c.Physics.Overflow)
	return []sim.SchedulerOption{
		sim.WithMaxSteps(c.Physics.MaxSteps),
		sim.WithOverflow(policy),
	}
}

func (c *Config) RunConfig() sim.RunConfig {
	return sim.RunConfig{
		Duration:  c.Run.Duration,
		FrameRate: c.Run.FrameRate,
		Input:     c.Run.Input,
	}
}

func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = append([]BodyConfig(nil), c.Bodies...)
	out.Run.Input = append([]sim.InputEvent(nil), c.Run.Input...)
	return &out
}

// Knobs are the numeric settings Set accepts.
var Knobs = []string{"dt", "gravity", "max_steps", "duration", "fps", "seed"}

// Set assigns one numeric knob by name. The result is not validated.
func (c *Config) Set(name string, v float64) error {
	switch name {
	case "dt":
		c.Physics.Dt = v
	case "gravity":
		c.Physics.Gravity.Y = v
	case "max_steps":
		c.Physics.MaxSteps = int(v)
	case "duration":
		c.Run.Duration = v
	case "fps":
		c.Run.FrameRate = v
	case "seed":
		c.Seed = int64(v)
	default:
		return fmt.Errorf("%w: unknown knob %q (want one of %v)", dynamo.ErrInvalidConfig, name, Knobs)
	}
	return nil
}
