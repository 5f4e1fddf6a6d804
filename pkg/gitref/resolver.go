// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

// Package gitref resolves the latest commit of a hosted repository so build
// recipes can pin otherwise moving branches to an exact revision.
package gitref

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"

	"github.com/efficientgo/core/errcapture"
	"github.com/pkg/errors"
)

const (
	// EnvGitHubUser and EnvGitHubToken optionally hold basic-auth
	// credentials. Unauthenticated API access tends to be rate-limited
	// quite strictly.
	EnvGitHubUser  = "GITHUB_USER"
	EnvGitHubToken = "GITHUB_TOKEN"

	// DefaultAPITemplate queries a GitHub-like API; %s is substituted with
	// the "owner/repo" pair.
	DefaultAPITemplate = "https://api.github.com/repos/%s/commits/master"

	// acceptSHA asks the API for a bare commit SHA instead of a JSON body.
	acceptSHA = "application/vnd.github.VERSION.sha"

	// bodyLimit caps how much of a response is read; a SHA fits easily and
	// error pages get quoted up to this much in diagnostics.
	bodyLimit = 1024
)

// Resolver queries a GitHub-like commits API over HTTP.
type Resolver struct {
	client      *http.Client
	apiTemplate string
}

// NewResolver returns a Resolver against the given API URL template. The
// template has to contain a %s placeholder for the "owner/repo" pair.
func NewResolver(client *http.Client, apiTemplate string) (*Resolver, error) {
	if !strings.Contains(apiTemplate, "%s") {
		return nil, errors.Errorf("api template %q misses the %%s repository placeholder", apiTemplate)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{client: client, apiTemplate: apiTemplate}, nil
}

// LatestCommit fetches the commit SHA the API reports for repoInfo
// ("owner/repo"). Credentials are taken from GITHUB_USER / GITHUB_TOKEN when
// both are present.
func (r *Resolver) LatestCommit(ctx context.Context, repoInfo string) (_ string, err error) {
	url := fmt.Sprintf(r.apiTemplate, repoInfo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrapf(err, "request %s", url)
	}
	req.Header.Set("Accept", acceptSHA)
	if user, token := os.Getenv(EnvGitHubUser), os.Getenv(EnvGitHubToken); user != "" && token != "" {
		req.SetBasicAuth(user, token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "query %s", url)
	}
	defer errcapture.ExhaustClose(&err, resp.Body, "response body")

	body, err := io.ReadAll(io.LimitReader(resp.Body, bodyLimit+1))
	if err != nil {
		return "", errors.Wrapf(err, "read response of %s", url)
	}
	if resp.StatusCode/100 != 2 {
		snippet := strings.TrimSpace(string(body))
		if len(body) > bodyLimit {
			snippet = strings.TrimSpace(string(body[:bodyLimit])) + " (truncated)"
		}
		return "", errors.Errorf("unexpected status %q querying %s: %s", resp.Status, url, snippet)
	}
	return ValidateSHA(string(body))
}

// ValidateSHA trims the raw response and ensures it parses as hexadecimal,
// which filters out error pages and rate-limit messages served with a 200.
func ValidateSHA(raw string) (string, error) {
	sha := strings.TrimSpace(raw)
	if sha == "" {
		return "", errors.New("empty commit response")
	}
	if _, ok := new(big.Int).SetString(sha, 16); !ok {
		return "", errors.Errorf("commit response %q is not a hexadecimal revision", sha)
	}
	return sha, nil
}
