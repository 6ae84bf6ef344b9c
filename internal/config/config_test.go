package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/ballpit/internal/drag"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/metrics"
	"github.com/san-kum/ballpit/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Physics.Dt != 1.0/480 {
		t.Errorf("dt = %v, want 1/480", cfg.Physics.Dt)
	}
	if len(cfg.Bodies) != 1 || cfg.Bodies[0].X != 0.3 || cfg.Bodies[0].Y != 0.9 {
		t.Errorf("bodies = %+v, want one ball at (0.3, 0.9)", cfg.Bodies)
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("invalid: %v", err)
			}
		})
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPreset_Copy(t *testing.T) {
	a := GetPreset("pair")
	a.Bodies[0].X = 0.99
	if b := GetPreset("pair"); b.Bodies[0].X == 0.99 {
		t.Error("preset shared between callers")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.yaml")
	data := `
physics:
  dt: 0.001
  overflow: carry
bodies:
  - {x: 0.2, y: 0.8, radius: 0.05}
  - {x: 0.7, y: 0.7, vx: 0.5, radius: 0.08, color: "#00ff00"}
drag_target: 1
run:
  duration: 2
  input:
    - {at: 0.1, kind: press, x: 0.5, y: 0.5}
    - {at: 0.5, kind: release}
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid: %v", err)
	}

	if cfg.Physics.Dt != 0.001 || cfg.Physics.Overflow != "carry" {
		t.Errorf("physics = %+v", cfg.Physics)
	}
	if cfg.Physics.Gravity.Y != DefaultGravity {
		t.Errorf("gravity default lost: %+v", cfg.Physics.Gravity)
	}
	if len(cfg.Bodies) != 2 || cfg.DragTarget != 1 {
		t.Errorf("bodies = %+v drag_target = %d", cfg.Bodies, cfg.DragTarget)
	}
	if cfg.Run.FrameRate != DefaultFrameRate {
		t.Errorf("fps default lost: %v", cfg.Run.FrameRate)
	}
	if len(cfg.Run.Input) != 2 || cfg.Run.Input[0].Kind != sim.InputPress {
		t.Errorf("input = %+v", cfg.Run.Input)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	want := GetPreset("drag")

	if err := Save(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got.Run.Input) != len(want.Run.Input) {
		t.Errorf("input events = %d, want %d", len(got.Run.Input), len(want.Run.Input))
	}
	if got.Slope != want.Slope {
		t.Errorf("slope = %+v, want %+v", got.Slope, want.Slope)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Physics.Dt = 0
	cfg.Physics.Overflow = "spill"
	cfg.Bodies[0].Radius = -1
	cfg.DragTarget = 3
	cfg.Slope.Normal = Vec{}

	err := cfg.Validate()
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
	for _, want := range []string{"physics.dt", "physics.overflow", "bodies[0].radius", "drag_target", "slope.normal"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidateRejectsNaN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bodies[0].X = math.NaN()
	if err := cfg.Validate(); err == nil {
		t.Error("NaN position accepted")
	}
}

func TestBuildWorld(t *testing.T) {
	cfg := GetPreset("pair")
	cfg.Bodies = append(cfg.Bodies, BodyConfig{X: 0.5, Y: 0.5, VX: 0.96, Radius: 0.05})

	w, handles, err := cfg.BuildWorld()
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}
	if len(handles) != 3 || len(w.Bodies()) != 3 {
		t.Fatalf("got %d handles / %d bodies, want 3", len(handles), len(w.Bodies()))
	}
	b, ok := w.Body(handles[2])
	if !ok {
		t.Fatal("handle does not resolve")
	}
	if v := b.Velocity().X / cfg.Physics.Dt; math.Abs(v-0.96) > 1e-9 {
		t.Errorf("initial speed = %v, want 0.96", v)
	}
	if b.Appearance != DefaultColor {
		t.Errorf("appearance = %q, want default colour", b.Appearance)
	}
	if w.Dt() != cfg.Physics.Dt || w.Gravity() != (dynamo.Vec{Y: DefaultGravity}) {
		t.Errorf("world physics = %v / %v", w.Dt(), w.Gravity())
	}
}

func TestBuildWorldInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bodies = nil
	if _, _, err := cfg.BuildWorld(); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}

func TestSchedulerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Physics.MaxSteps = 3
	w, _, err := cfg.BuildWorld()
	if err != nil {
		t.Fatal(err)
	}
	s := sim.NewScheduler(w, cfg.SchedulerOptions()...)
	if n := s.Advance(10 * cfg.Physics.Dt); n != 3 {
		t.Errorf("ran %d steps, want cap of 3", n)
	}
}

func TestBuildWorldSeed(t *testing.T) {
	positions := func(seed int64) []dynamo.Vec {
		cfg := GetPreset("pile")
		cfg.Seed = seed
		w, _, err := cfg.BuildWorld()
		if err != nil {
			t.Fatal(err)
		}
		out := make([]dynamo.Vec, 0, len(w.Bodies()))
		for _, b := range w.Bodies() {
			out = append(out, b.Pos)
		}
		return out
	}

	plain := positions(0)
	cfg := GetPreset("pile")
	for i, p := range plain {
		if p.X != cfg.Bodies[i].X || p.Y != cfg.Bodies[i].Y {
			t.Errorf("seed 0 moved body %d to %v", i, p)
		}
	}

	a, b := positions(7), positions(7)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("body %d: same seed gave %v and %v", i, a[i], b[i])
		}
		if dx := math.Abs(a[i].X - plain[i].X); dx > SeedJitter {
			t.Errorf("body %d jittered by %v, want <= %v", i, dx, SeedJitter)
		}
	}
}

func TestMergeOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "over.yaml")
	if err := os.WriteFile(path, []byte("run:\n  duration: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("pile")
	if err := cfg.Merge(path); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if cfg.Run.Duration != 3 {
		t.Errorf("duration = %v, want 3", cfg.Run.Duration)
	}
	if len(cfg.Bodies) != 5 {
		t.Errorf("preset bodies lost: %d", len(cfg.Bodies))
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		check func(*Config) bool
	}{
		{"dt", 0.001, func(c *Config) bool { return c.Physics.Dt == 0.001 }},
		{"gravity", -9.8, func(c *Config) bool { return c.Physics.Gravity.Y == -9.8 }},
		{"max_steps", 12, func(c *Config) bool { return c.Physics.MaxSteps == 12 }},
		{"duration", 2, func(c *Config) bool { return c.Run.Duration == 2 }},
		{"fps", 30, func(c *Config) bool { return c.Run.FrameRate == 30 }},
		{"seed", 9, func(c *Config) bool { return c.Seed == 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.name, tt.value); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("%s not set to %v", tt.name, tt.value)
			}
		})
	}

	if err := DefaultConfig().Set("mass", 1); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("unknown knob: got %v, want ErrInvalidConfig", err)
	}
}

func TestClone(t *testing.T) {
	a := GetPreset("drag")
	b := a.Clone()
	b.Bodies[0].X = 0.9
	b.Run.Input[0].X = 0.9
	b.Physics.Dt = 1

	if a.Bodies[0].X == 0.9 || a.Run.Input[0].X == 0.9 || a.Physics.Dt == 1 {
		t.Error("clone shares state with its source")
	}
}

func TestDragPresetRuns(t *testing.T) {
	cfg := GetPreset("drag")
	w, handles, err := cfg.BuildWorld()
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := sim.NewScheduler(w, append(cfg.SchedulerOptions(), sim.WithLogger(logger))...)
	r := sim.NewRunner(w, sched, drag.New(w))
	r.SetLogger(logger)
	r.SetDragTarget(handles[cfg.DragTarget])
	kt := metrics.NewKinematicTime()
	r.AddMetric(kt)

	res, err := r.Run(context.Background(), cfg.RunConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// held from the press at 0.5s to the release at 1.6s
	if held := res.Metrics[kt.Name()]; held < 1.0 || held > 1.2 {
		t.Errorf("kinematic time = %v, want about 1.1s", held)
	}
	ball, _ := w.Body(handles[0])
	if !ball.Dynamic {
		t.Error("ball still held after the script ended")
	}
	if ball.Pos.Y < ball.Radius-1e-9 || ball.Pos.X > 1-ball.Radius+1e-9 {
		t.Errorf("ball outside the box: %v", ball.Pos)
	}
}
