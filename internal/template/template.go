package template

import (
	"errors"
	"fmt"
	"os"

	"omrscan/internal/layout"
	"omrscan/internal/service/fiducial"
	"omrscan/internal/service/normalize"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the template format this build reads and writes.
const CurrentVersion = 1

// ErrUnsupportedVersion is returned for template files written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported template version")

// Normalizer holds page normalization settings.
type Normalizer struct {
	Scale float64 `yaml:"scale" json:"scale"`
}

// Detector selects the fiducial detector variant and its settings.
type Detector struct {
	Variant         string `yaml:"variant,omitempty" json:"variant,omitempty"`
	fiducial.Config `yaml:",inline"`
}

// Template describes one answer-sheet design: how to find the page and how to cut it.
type Template struct {
	Version    int                `yaml:"version" json:"version"`
	Name       string             `yaml:"name" json:"name"`
	Detector   Detector           `yaml:"detector" json:"detector"`
	Normalizer Normalizer         `yaml:"normalizer" json:"normalizer"`
	Regions    []layout.RegionDef `yaml:"regions" json:"regions"`
}

// Validate checks the version, detector settings, scale and region tree.
func (t Template) Validate() error {
	if t.Version < 1 || t.Version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, t.Version)
	}
	if _, err := fiducial.NewDetector(t.Detector.Variant, t.Detector.Config); err != nil {
		return err
	}
	if t.Normalizer.Scale <= 0 || t.Normalizer.Scale > 1 {
		return fmt.Errorf("%w: %v", normalize.ErrInvalidScale, t.Normalizer.Scale)
	}
	if _, err := layout.Build(t.Regions); err != nil {
		return err
	}
	return nil
}

// Layout expands the template's regions into a region tree.
func (t Template) Layout() (*layout.Layout, error) {
	return layout.Build(t.Regions)
}

// Write saves the template as YAML.
func Write(t Template, path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

// Load reads a YAML template. Settings missing from the file keep their defaults.
func Load(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("failed to read template: %w", err)
	}

	t := Template{
		Version:    CurrentVersion,
		Detector:   Detector{Config: fiducial.DefaultConfig()},
		Normalizer: Normalizer{Scale: normalize.DefaultScale},
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("failed to parse template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Template{}, fmt.Errorf("template %s: %w", path, err)
	}
	return t, nil
}
