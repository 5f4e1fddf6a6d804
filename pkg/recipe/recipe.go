// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

// Package recipe models the build recipes of a software stack: what each
// package is called, where its sources live and which environment it
// contributes once installed.
package recipe

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/key4hep/stackenv/pkg/envmods"
)

// Tags every recipe of this collection carries.
var DefaultTags = []string{"hep", "key4hep"}

// EnvSpec declares the environment a package contributes once installed.
// Prepend entries are install-prefix-relative directories; set entries are
// exact values where the literal {prefix} expands to the install prefix.
type EnvSpec struct {
	Set         map[string]string `yaml:"set,omitempty"`
	PrependPath map[string]string `yaml:"prepend_path,omitempty"`
}

func (e EnvSpec) empty() bool {
	return len(e.Set) == 0 && len(e.PrependPath) == 0
}

// defaultEnv is the layout almost every package of the stack installs into.
func defaultEnv() EnvSpec {
	return EnvSpec{
		PrependPath: map[string]string{
			"PATH":              "bin",
			"LD_LIBRARY_PATH":   "lib",
			"CMAKE_PREFIX_PATH": ".",
			"MANPATH":           filepath.Join("share", "man"),
		},
	}
}

// Recipe describes one package of the stack.
type Recipe struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	// Repo is the "owner/repo" pair on the hosting service, used for
	// latest-commit pinning.
	Repo string `yaml:"repo,omitempty"`
	// URL is a release download URL, also serving as the template for
	// convention-derived URLs of other versions.
	URL       string   `yaml:"url,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty"`
	Env       EnvSpec  `yaml:"env,omitempty"`
}

func (r Recipe) String() string {
	return fmt.Sprintf("%s@%s", r.Name, r.Version)
}

// Modifications appends the recipe's environment contribution for an install
// under prefix to the log.
func (r Recipe) Modifications(prefix string, log *envmods.Log) {
	env := r.Env
	if env.empty() {
		env = defaultEnv()
	}

	names := make([]string, 0, len(env.Set))
	for name := range env.Set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Set(name, expandPrefix(env.Set[name], prefix))
	}

	names = names[:0]
	for name := range env.PrependPath {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.PrependPath(name, filepath.Join(prefix, env.PrependPath[name]))
	}
}

func expandPrefix(value, prefix string) string {
	return strings.ReplaceAll(value, "{prefix}", prefix)
}

// Registry holds the recipes the loader discovered. It replaces the old
// import-a-base-class trick: recipes register themselves (or get registered
// by the manifest loader) instead of subclassing anything.
type Registry struct {
	recipes map[string]Recipe
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{recipes: map[string]Recipe{}}
}

// Register adds a recipe, filling in the collection's default tags.
// Registering the same name twice is an error.
func (reg *Registry) Register(r Recipe) error {
	if r.Name == "" {
		return errors.New("recipe has no name")
	}
	if _, ok := reg.recipes[r.Name]; ok {
		return errors.Errorf("recipe %s is registered twice", r.Name)
	}
	if len(r.Tags) == 0 {
		r.Tags = DefaultTags
	}
	reg.recipes[r.Name] = r
	return nil
}

// Get returns the recipe registered under name.
func (reg *Registry) Get(name string) (Recipe, bool) {
	r, ok := reg.recipes[name]
	return r, ok
}

// List returns all registered recipes sorted by name.
func (reg *Registry) List() []Recipe {
	out := make([]Recipe, 0, len(reg.recipes))
	for _, r := range reg.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PrintTab prints recipes as a table. Empty target means all.
func PrintTab(target string, recipes []Recipe, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 4, 4, 1, ' ', 0)
	defer func() { _ = tw.Flush() }()

	if _, err := fmt.Fprintln(tw, "Name\tVersion\tRepo\tDependsOn"); err != nil {
		return err
	}
	for _, r := range recipes {
		if target != "" && r.Name != target {
			continue
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", r.Name, r.Version, r.Repo, r.DependsOn); err != nil {
			return err
		}
	}
	return nil
}
