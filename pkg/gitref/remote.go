// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package gitref

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/pkg/errors"
)

// RemoteHeadResolver resolves the default-branch HEAD of any git remote by
// listing its advertised references, the ls-remote way. It needs no hosting
// API, which makes it the fallback for repositories outside GitHub-like
// hosts.
type RemoteHeadResolver struct{}

// LatestCommit returns the commit the remote's HEAD points at. The argument
// is a git remote URL, not an "owner/repo" pair.
func (RemoteHeadResolver) LatestCommit(ctx context.Context, remoteURL string) (string, error) {
	rem := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{remoteURL},
	})
	refs, err := rem.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", errors.Wrapf(err, "list refs of %s", remoteURL)
	}

	// HEAD is usually advertised as a symbolic ref; resolve it against the
	// branch it targets. Some servers advertise the hash directly.
	var headTarget plumbing.ReferenceName
	byName := map[plumbing.ReferenceName]*plumbing.Reference{}
	for _, ref := range refs {
		byName[ref.Name()] = ref
		if ref.Name() == plumbing.HEAD {
			if ref.Type() == plumbing.HashReference {
				return ref.Hash().String(), nil
			}
			headTarget = ref.Target()
		}
	}
	if headTarget != "" {
		if ref, ok := byName[headTarget]; ok && ref.Type() == plumbing.HashReference {
			return ref.Hash().String(), nil
		}
	}
	for _, fallback := range []plumbing.ReferenceName{"refs/heads/main", "refs/heads/master"} {
		if ref, ok := byName[fallback]; ok && ref.Type() == plumbing.HashReference {
			return ref.Hash().String(), nil
		}
	}
	return "", errors.Errorf("remote %s does not advertise a resolvable HEAD", remoteURL)
}
