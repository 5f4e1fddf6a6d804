// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

// Package runner wraps invocations of an external curl binary.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"

	"github.com/key4hep/stackenv/pkg/version"
)

// Runner allows running a curl binary against HTTP endpoints.
type Runner struct {
	curlCmd string

	verbose bool

	output *bytes.Buffer
}

var curlVersionRegexp = regexp.MustCompile(`^curl ([0-9]+\.[0-9]+(\.[0-9]+)?)`)

func isSupportedVersion(foundVersion string) error {
	groups := curlVersionRegexp.FindStringSubmatch(foundVersion)
	if len(groups) >= 2 {
		v, err := semver.NewVersion(groups[1])
		if err == nil && !v.LessThan(version.MinCurl) {
			return nil
		}
	}
	return errors.Errorf("found unsupported curl version: %v; requires curl %s or higher", foundVersion, version.MinCurl)
}

// NewRunner checks curl version compatibility then returns Runner.
func NewRunner(ctx context.Context, curlCmd string) (*Runner, error) {
	r := &Runner{
		curlCmd: curlCmd,
		output:  &bytes.Buffer{},
	}

	if err := r.exec(ctx, "--version"); err != nil {
		return nil, errors.Wrap(err, "exec curl to detect the version")
	}
	firstLine, _, _ := strings.Cut(r.output.String(), "\n")
	return r, isSupportedVersion(strings.TrimRight(firstLine, "\n"))
}

func (r *Runner) Verbose() {
	r.verbose = true
}

func (r *Runner) exec(ctx context.Context, args ...string) error {
	r.output.Truncate(0)

	cmd := exec.CommandContext(ctx, r.curlCmd, args...)
	cmd.Stdout = r.output
	cmd.Stderr = r.output
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok && !r.verbose {
			return errors.New(r.output.String())
		}
		return errors.Errorf("error while running command '%s %s'; out: %s; err: %v", r.curlCmd, strings.Join(args, " "), r.output.String(), err)
	}
	if r.verbose {
		fmt.Printf("exec '%s %s'\n", r.curlCmd, strings.Join(args, " "))
	}
	return nil
}

// Fetch runs curl silently against the given URL with extra arguments and
// returns its stdout verbatim.
func (r *Runner) Fetch(ctx context.Context, url string, extraArgs ...string) (string, error) {
	args := append([]string{"-s"}, extraArgs...)
	args = append(args, url)
	if err := r.exec(ctx, args...); err != nil {
		return "", err
	}
	return r.output.String(), nil
}
