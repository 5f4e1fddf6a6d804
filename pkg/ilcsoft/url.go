// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

// Package ilcsoft implements the iLCSoft release naming convention for
// download URLs. Upstream tags releases as v01-12 or v01-12-01: dash-joined,
// zero-padded components with the patch omitted when it is zero.
package ilcsoft

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// ParseVersion parses a 1-, 2- or 3-component version string. Missing
// components count as zero, so "1.2" and "1.2.0" name the same release.
func ParseVersion(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return nil, errors.Wrapf(err, "parse version %q", v)
	}
	return parsed, nil
}

// URLForVersion translates a version into the download URL of the matching
// release tarball. The base is derived from templateURL by dropping its last
// path segment, so any existing release URL of the project works as input.
func URLForVersion(templateURL string, v *semver.Version) (string, error) {
	i := strings.LastIndex(templateURL, "/")
	if i < 0 {
		return "", errors.Errorf("url %q has no path segment to derive the base from", templateURL)
	}
	base := templateURL[:i]

	if v.Patch() == 0 {
		return fmt.Sprintf("%s/v%02d-%02d.tar.gz", base, v.Major(), v.Minor()), nil
	}
	return fmt.Sprintf("%s/v%02d-%02d-%02d.tar.gz", base, v.Major(), v.Minor(), v.Patch()), nil
}
