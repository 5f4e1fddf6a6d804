// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package setup

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/efficientgo/core/testutil"

	"github.com/key4hep/stackenv/pkg/envmods"
	"github.com/key4hep/stackenv/pkg/recipe"
)

func testGraph(t *testing.T) *recipe.Graph {
	t.Helper()

	g, err := recipe.BuildGraph([]recipe.Recipe{
		{Name: "edm4hep", Version: "0.99", DependsOn: []string{"podio"}},
		{Name: "podio", Version: "1.1"},
	})
	testutil.Ok(t, err)
	return g
}

func TestWrite(t *testing.T) {
	prefix := t.TempDir()
	logs := bytes.Buffer{}

	w := NewWriter(log.New(&logs, "", 0), "key4hep-nightly", testGraph(t), Compiler{
		CC:  "/usr/bin/gcc",
		CXX: "/usr/bin/g++",
	}, "")
	testutil.Ok(t, w.Write(prefix))

	b, err := os.ReadFile(filepath.Join(prefix, ScriptName))
	testutil.Ok(t, err)
	script := string(b)

	testutil.Assert(t, strings.HasPrefix(script, "# Auto generated environment setup for stack 'key4hep-nightly'"), "unexpected header: %s", script)
	testutil.Assert(t, strings.Contains(script, "export CC=/usr/bin/gcc;\n"), "missing CC export: %s", script)
	testutil.Assert(t, strings.Contains(script, "export CXX=/usr/bin/g++;\n"), "missing CXX export: %s", script)
	// Compiler dir plus one bin dir per package, dependency first.
	testutil.Assert(t, strings.Contains(script,
		"export PATH="+filepath.Join(prefix, "edm4hep-0.99", "bin")+":"+filepath.Join(prefix, "podio-1.1", "bin")+":/usr/bin:$PATH;\n"),
		"unexpected PATH line: %s", script)
	testutil.Assert(t, strings.Contains(script, "export "+LoadedHashesVar+"="), "missing loaded hashes: %s", script)

	// The generated script has to be sourceable.
	env, err := envmods.Eval(context.TODO(), strings.NewReader(script), "PATH=/bin")
	testutil.Ok(t, err)
	lookup := map[string]bool{}
	for _, kv := range env {
		lookup[strings.SplitN(kv, "=", 2)[0]] = true
	}
	testutil.Equals(t, true, lookup["PATH"])
	testutil.Equals(t, true, lookup[LoadedHashesVar])
}

func TestWriteSymlink(t *testing.T) {
	prefix := t.TempDir()
	// Parent directory of the link target does not exist yet.
	link := filepath.Join(t.TempDir(), "latest", "setup.sh")
	t.Setenv("K4_LATEST_SETUP_PATH", link)

	logs := bytes.Buffer{}
	w := NewWriter(log.New(&logs, "", 0), "key4hep-nightly", testGraph(t), Compiler{}, "K4_LATEST_SETUP_PATH")
	testutil.Ok(t, w.Write(prefix))

	resolved, err := os.Readlink(link)
	testutil.Ok(t, err)
	testutil.Equals(t, filepath.Join(prefix, ScriptName), resolved)

	// Re-running replaces the existing symlink without error or warning.
	otherPrefix := t.TempDir()
	w2 := NewWriter(log.New(&logs, "", 0), "key4hep-nightly", testGraph(t), Compiler{}, "K4_LATEST_SETUP_PATH")
	testutil.Ok(t, w2.Write(otherPrefix))

	resolved, err = os.Readlink(link)
	testutil.Ok(t, err)
	testutil.Equals(t, filepath.Join(otherPrefix, ScriptName), resolved)
	testutil.Assert(t, !strings.Contains(logs.String(), "could not symlink"), "unexpected warning: %s", logs.String())
}

func TestWriteSymlinkFailureOnlyWarns(t *testing.T) {
	prefix := t.TempDir()
	// Target parent is a file, so MkdirAll fails.
	parent := filepath.Join(t.TempDir(), "blocked")
	testutil.Ok(t, os.WriteFile(parent, []byte("in the way"), os.ModePerm))
	t.Setenv("K4_LATEST_SETUP_PATH", filepath.Join(parent, "setup.sh"))

	logs := bytes.Buffer{}
	w := NewWriter(log.New(&logs, "", 0), "key4hep-nightly", testGraph(t), Compiler{}, "K4_LATEST_SETUP_PATH")

	// Script writing still succeeds.
	testutil.Ok(t, w.Write(prefix))
	_, err := os.Stat(filepath.Join(prefix, ScriptName))
	testutil.Ok(t, err)
	testutil.Assert(t, strings.Contains(logs.String(), "could not symlink"), "missing warning: %s", logs.String())
}

func TestReplaceSymlinkOverFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "setup.sh")
	testutil.Ok(t, os.WriteFile(src, []byte("export A=1;\n"), os.ModePerm))

	dst := filepath.Join(dir, "latest.sh")
	testutil.Ok(t, os.WriteFile(dst, []byte("a regular file"), os.ModePerm))

	testutil.Ok(t, replaceSymlink(src, dst))
	resolved, err := os.Readlink(dst)
	testutil.Ok(t, err)
	testutil.Equals(t, src, resolved)
}

func TestReplaceSymlinkOverDanglingLink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "setup.sh")
	testutil.Ok(t, os.WriteFile(src, []byte("export A=1;\n"), os.ModePerm))

	dst := filepath.Join(dir, "latest.sh")
	testutil.Ok(t, os.Symlink(filepath.Join(dir, "gone.sh"), dst))

	testutil.Ok(t, replaceSymlink(src, dst))
	resolved, err := os.Readlink(dst)
	testutil.Ok(t, err)
	testutil.Equals(t, src, resolved)
}
