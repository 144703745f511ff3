package audio

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"init": {
		"attack":  0.01,
		"decay":   0.1,
		"sustain": 0.7,
		"release": 0.3,
		"volume":  0.8,
		"wave":    "sine",
	},
	"pluck": {
		"attack":  0.001,
		"decay":   0.25,
		"sustain": 0.,
		"release": 0.1,
		"wave":    "saw",
	},
	"pad": {
		"attack":  1.2,
		"decay":   0.8,
		"sustain": 0.8,
		"release": 2.5,
		"wave":    "triangle",
	},
	"organ": {
		"attack":  0.005,
		"decay":   0.001,
		"sustain": 1.,
		"release": 0.05,
		"wave":    "square",
	},
	"lead": {
		"attack":  0.02,
		"decay":   0.3,
		"sustain": 0.6,
		"release": 0.2,
		"wave":    "pulse",
	},
}

// Presets returns the names of the built-in presets.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Patch is the on-disk form of the synth parameters.
type Patch struct {
	Name     string  `yaml:"name,omitempty"`
	Attack   float64 `yaml:"attack"`
	Decay    float64 `yaml:"decay"`
	Sustain  float64 `yaml:"sustain"`
	Release  float64 `yaml:"release"`
	Volume   float64 `yaml:"volume"`
	Waveform string  `yaml:"waveform"`
}

// Apply sets every parameter of the patch on d.
func (p *Patch) Apply(d Device) error {
	values := []struct {
		key string
		val interface{}
	}{
		{"attack", p.Attack},
		{"decay", p.Decay},
		{"sustain", p.Sustain},
		{"release", p.Release},
		{"volume", p.Volume},
		{"waveform", p.Waveform},
	}
	for _, v := range values {
		if err := d.Set(v.key, v.val); err != nil {
			return fmt.Errorf("patch %s: %w", p.Name, err)
		}
	}
	return nil
}

// CurrentPatch reads the current parameter values of d.
func CurrentPatch(name string, d Device) (*Patch, error) {
	p := &Patch{Name: name}
	floats := []struct {
		key  string
		dest *float64
	}{
		{"attack", &p.Attack},
		{"decay", &p.Decay},
		{"sustain", &p.Sustain},
		{"release", &p.Release},
		{"volume", &p.Volume},
	}
	for _, f := range floats {
		v, err := d.Get(f.key)
		if err != nil {
			return nil, err
		}
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("property %s is not a float64: %v", f.key, v)
		}
		*f.dest = n
	}
	v, err := d.Get("waveform")
	if err != nil {
		return nil, err
	}
	n, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("property waveform is not a float64: %v", v)
	}
	p.Waveform = Waveform(n).String()
	return p, nil
}

// LoadPatch reads a YAML patch file. Parameters missing from the file keep
// their defaults.
func LoadPatch(path string) (*Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defaults := DefaultParams()
	p := &Patch{
		Attack:   defaults.Attack,
		Decay:    defaults.Decay,
		Sustain:  defaults.Sustain,
		Release:  defaults.Release,
		Volume:   defaults.Volume,
		Waveform: defaults.Waveform.String(),
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse patch %s: %w", path, err)
	}
	return p, nil
}

// SavePatch writes p to path as YAML.
func SavePatch(path string, p *Patch) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
