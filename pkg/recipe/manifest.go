// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package recipe

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest is the YAML description of a whole stack: a named list of
// recipes.
type Manifest struct {
	Stack   string   `yaml:"stack"`
	Recipes []Recipe `yaml:"recipes"`
}

// LoadManifest reads and validates a stack manifest.
func LoadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}

	m := &Manifest{}
	if err := yaml.Unmarshal(b, m); err != nil {
		return nil, errors.Wrapf(err, "parse manifest %s", path)
	}
	if m.Stack == "" {
		return nil, errors.Errorf("manifest %s names no stack", path)
	}
	if len(m.Recipes) == 0 {
		return nil, errors.Errorf("manifest %s contains no recipes", path)
	}
	return m, nil
}

// Register puts every recipe of the manifest into the registry.
func (m *Manifest) Register(reg *Registry) error {
	for _, r := range m.Recipes {
		if err := reg.Register(r); err != nil {
			return errors.Wrapf(err, "manifest of stack %s", m.Stack)
		}
	}
	return nil
}
