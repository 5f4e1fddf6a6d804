// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package setup

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// replaceSymlink links dst to src, creating missing parent directories and
// replacing whatever already sits at dst. Lstat, not Stat: a dangling
// symlink still has to be removed even though it does not "exist".
func replaceSymlink(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return errors.Wrapf(err, "create directory %s", filepath.Dir(dst))
	}
	if _, err := os.Lstat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return errors.Wrapf(err, "remove existing %s", dst)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "lstat %s", dst)
	}
	return os.Symlink(src, dst)
}
