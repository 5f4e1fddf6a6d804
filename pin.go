// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package main

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var repoPartRegexp = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// parseRepoInfo validates the "owner/repo" pair the pin command substitutes
// into the API URL template.
func parseRepoInfo(repoInfo string) (owner, repo string, err error) {
	if strings.Contains(repoInfo, "://") {
		return "", "", errors.Errorf("%q looks like a URL; expected owner/repo (or pass --git for remote URLs)", repoInfo)
	}
	parts := strings.Split(repoInfo, "/")
	if len(parts) != 2 {
		return "", "", errors.Errorf("%q is not of the form owner/repo", repoInfo)
	}
	for _, p := range parts {
		if !repoPartRegexp.MatchString(p) {
			return "", "", errors.Errorf("%q is not of the form owner/repo", repoInfo)
		}
	}
	return parts[0], parts[1], nil
}
