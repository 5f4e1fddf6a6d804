// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

// Package setup writes the consolidated environment setup script for a built
// stack: one setup.sh covering every package of the dependency graph.
package setup

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"text/template"

	"github.com/efficientgo/core/errcapture"
	"github.com/pkg/errors"

	"github.com/key4hep/stackenv/pkg/envmods"
	"github.com/key4hep/stackenv/pkg/recipe"
	"github.com/key4hep/stackenv/pkg/version"
)

const (
	// ScriptName is the fixed name of the setup script inside the install
	// prefix.
	ScriptName = "setup.sh"

	// LoadedHashesVar accumulates the DAG hash of every package the script
	// loads. Sourcing two generated scripts keeps the variable deduplicated
	// because hashes are path-like values.
	LoadedHashesVar = "STACKENV_LOADED_HASHES"

	headerTmpl = `# Auto generated environment setup for stack '{{ .Stack }}' managed by stackenv {{ .Version }}. DO NOT EDIT.
# Source this file to load the stack on top of your current environment:
#   . {{ .Script }}

`
)

// Compiler holds the toolchain paths seeded into every setup script.
type Compiler struct {
	CC  string
	CXX string
	F77 string
	FC  string
}

// FromEnv picks the compiler up from the conventional environment variables.
func FromEnv() Compiler {
	return Compiler{
		CC:  os.Getenv("CC"),
		CXX: os.Getenv("CXX"),
		F77: os.Getenv("F77"),
		FC:  os.Getenv("FC"),
	}
}

// modifications seeds the log with the compiler variables, mirroring what
// the build environment exports during a build.
func (c Compiler) modifications(l *envmods.Log) {
	if c.CC != "" {
		l.Set("CC", c.CC)
	}
	if c.CXX != "" {
		l.Set("CXX", c.CXX)
	}
	if c.F77 != "" {
		l.Set("F77", c.F77)
	}
	if c.FC != "" {
		l.Set("FC", c.FC)
	}
	if c.CXX != "" {
		l.PrependPath("PATH", filepath.Dir(c.CXX))
	}
}

// Writer renders and installs the consolidated setup script.
type Writer struct {
	logger   *log.Logger
	stack    string
	graph    *recipe.Graph
	compiler Compiler

	// linkEnvVar names the environment variable holding the symlink target
	// path. Empty disables symlinking.
	linkEnvVar string
}

// NewWriter returns a Writer for the given stack graph.
func NewWriter(logger *log.Logger, stack string, graph *recipe.Graph, compiler Compiler, linkEnvVar string) *Writer {
	return &Writer{
		logger:     logger,
		stack:      stack,
		graph:      graph,
		compiler:   compiler,
		linkEnvVar: linkEnvVar,
	}
}

// Write walks the dependency graph bottom-up, accumulates every package's
// environment contribution and writes <prefix>/setup.sh. Packages are
// expected installed under <prefix>/<name>-<version>. When the writer was
// given a symlink environment variable, a symlink to the script is created
// best-effort at the path that variable holds; symlink failures only warn.
func (w *Writer) Write(prefix string) (err error) {
	w.logger.Printf("* stackenv: %s", version.Version)
	w.logger.Printf("* go: %s", runtime.Version())
	w.logger.Printf("* platform: %s/%s", runtime.GOOS, runtime.GOARCH)

	l := &envmods.Log{}
	w.compiler.modifications(l)

	order, err := w.graph.PostOrder()
	if err != nil {
		return errors.Wrap(err, "traverse stack")
	}
	for _, n := range order {
		mods := &envmods.Log{}
		n.Recipe.Modifications(w.prefixFor(prefix, n), mods)
		l.Extend(mods)
		l.PrependPath(LoadedHashesVar, n.Hash())
	}

	cmds, err := l.Render(w.logger, "sh")
	if err != nil {
		return errors.Wrap(err, "render setup script")
	}

	script := filepath.Join(prefix, ScriptName)
	f, err := os.Create(script)
	if err != nil {
		return errors.Wrapf(err, "create %s", script)
	}
	defer errcapture.Do(&err, f.Close, "close")

	t, err := template.New(ScriptName).Parse(headerTmpl)
	if err != nil {
		return errors.Wrap(err, "parse header template")
	}
	if err := t.Execute(f, struct {
		Stack, Version, Script string
	}{Stack: w.stack, Version: version.Version, Script: script}); err != nil {
		return errors.Wrap(err, "write header")
	}
	if _, err := f.WriteString(cmds); err != nil {
		return errors.Wrapf(err, "write %s", script)
	}

	w.symlink(script)
	return nil
}

func (w *Writer) prefixFor(prefix string, n *recipe.Node) string {
	return filepath.Join(prefix, n.Recipe.Name+"-"+n.Recipe.Version)
}

// symlink best-effort links the script to the path named by the configured
// environment variable. Every failure is swallowed into a warning; a missing
// symlink must never fail the build that wrote the script.
func (w *Writer) symlink(script string) {
	if w.linkEnvVar == "" {
		return
	}
	target := os.Getenv(w.linkEnvVar)
	if target == "" {
		return
	}
	if err := replaceSymlink(script, target); err != nil {
		w.logger.Printf("warning: could not symlink %s to %s: %v", script, target, err)
	}
}
