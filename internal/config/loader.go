package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}

// Load reads a parameters file and validates it. Fields missing from the
// file keep the value from the embedded defaults; mappings such as
// regional_growth_rate are merged key by key, lists are replaced.
func Load(path string) (*Parameters, error) {
	p, err := Default()
	if err != nil {
		return nil, err
	}
	if err := loadYAML(path, p); err != nil {
		return nil, fmt.Errorf("load parameters %s: %w", path, err)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse decodes parameters from raw YAML over the defaults and validates them.
func Parse(b []byte) (*Parameters, error) {
	p, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Default returns the built-in scenario.
func Default() (*Parameters, error) {
	var p Parameters
	if err := yaml.Unmarshal(defaultYAML, &p); err != nil {
		return nil, fmt.Errorf("decode default parameters: %w", err)
	}
	return &p, nil
}
