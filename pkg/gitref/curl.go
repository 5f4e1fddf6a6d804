// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package gitref

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/key4hep/stackenv/pkg/runner"
)

// CurlResolver shells out to a curl binary instead of using the native HTTP
// client. It predates Resolver and is kept for environments where outbound
// HTTP has to go through the site-configured curl (proxies, netrc, custom CA
// bundles).
type CurlResolver struct {
	r           *runner.Runner
	apiTemplate string
}

// NewCurlResolver returns a CurlResolver using the given runner.
func NewCurlResolver(r *runner.Runner, apiTemplate string) (*CurlResolver, error) {
	if !strings.Contains(apiTemplate, "%s") {
		return nil, errors.Errorf("api template %q misses the %%s repository placeholder", apiTemplate)
	}
	return &CurlResolver{r: r, apiTemplate: apiTemplate}, nil
}

// LatestCommit fetches the commit SHA for repoInfo ("owner/repo") via curl,
// trusting its stdout after hexadecimal validation.
func (c *CurlResolver) LatestCommit(ctx context.Context, repoInfo string) (string, error) {
	url := fmt.Sprintf(c.apiTemplate, repoInfo)
	out, err := c.r.Fetch(ctx, url, curlArgs(os.Getenv(EnvGitHubUser), os.Getenv(EnvGitHubToken))...)
	if err != nil {
		return "", errors.Wrapf(err, "curl %s", url)
	}
	return ValidateSHA(out)
}

func curlArgs(user, token string) []string {
	args := []string{"-H", "Accept: " + acceptSHA}
	if user != "" && token != "" {
		args = append(args, "-u", user+":"+token)
	}
	return args
}
