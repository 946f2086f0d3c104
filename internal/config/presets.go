package config

import "sort"

// Presets are named optical setups. The default entry matches the factory
// prism pair.
var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"narrow": withOptics(OpticsConfig{
		WedgeAngleDeg: 5, RefractiveIndex: 1.516, ThicknessMm: 6,
		DiameterMm: 25.4, SeparationMm: 5, ScreenMm: 200,
	}),
	"wide": withOptics(OpticsConfig{
		WedgeAngleDeg: 20, RefractiveIndex: 1.7, ThicknessMm: 10,
		DiameterMm: 50.8, SeparationMm: 15, ScreenMm: 500,
	}),
	// Thin wedges pressed together shrink rd to about 0.07 mm. It never
	// reaches zero while the thickness is positive.
	"low_defect": withOptics(OpticsConfig{
		WedgeAngleDeg: 11.367, RefractiveIndex: 1.516, ThicknessMm: 0.5,
		DiameterMm: 25.4, SeparationMm: 0, ScreenMm: 200,
	}),
	"long_throw": withOptics(OpticsConfig{
		WedgeAngleDeg: 11.367, RefractiveIndex: 1.516, ThicknessMm: 8.11,
		DiameterMm: 25.4, SeparationMm: 10, ScreenMm: 1000,
	}),
}

func withOptics(o OpticsConfig) *Config {
	cfg := DefaultConfig()
	cfg.Optics = o
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	c.Targets = append([]Target(nil), cfg.Targets...)
	return &c
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
