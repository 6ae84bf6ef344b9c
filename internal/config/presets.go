package config

import "sort"

// Presets are complete configurations keyed by name. GetPreset returns a
// copy so callers may modify it.
var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"pair": func() *Config {
		cfg := DefaultConfig()
		cfg.Bodies = []BodyConfig{
			{X: 0.3, Y: 0.9, Radius: 0.1, Color: "#ff0000"},
			{X: 0.75, Y: 0.6, Radius: 0.06, Color: "#00ccff"},
		}
		return cfg
	},
	"pile": func() *Config {
		cfg := DefaultConfig()
		cfg.Bodies = []BodyConfig{
			{X: 0.15, Y: 0.95, Radius: 0.05, Color: "#ff4444"},
			{X: 0.35, Y: 0.9, Radius: 0.07, Color: "#ffaa00"},
			{X: 0.55, Y: 0.85, Radius: 0.04, Color: "#00ff88"},
			{X: 0.75, Y: 0.8, Radius: 0.08, Color: "#00ccff"},
			{X: 0.9, Y: 0.95, Radius: 0.05, Color: "#ff88ff"},
		}
		cfg.Run.Duration = 20
		return cfg
	},
	"launch": func() *Config {
		cfg := DefaultConfig()
		cfg.Bodies = []BodyConfig{
			{X: 0.15, Y: 0.8, VX: 1.2, VY: 0.4, Radius: 0.05, Color: "#ffaa00"},
		}
		return cfg
	},
	"drag": func() *Config {
		cfg := DefaultConfig()
		cfg.Run.Duration = 4
		cfg.Run.Input = dragScript()
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
