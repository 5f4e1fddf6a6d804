// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package envmods

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/efficientgo/core/testutil"
)

func TestRenderPrependDeduplicates(t *testing.T) {
	l := &Log{}
	l.PrependPath("PATH", "/a")
	l.PrependPath("PATH", "/b")
	l.PrependPath("PATH", "/a")

	out, err := l.Render(log.New(&bytes.Buffer{}, "", 0), "sh")
	testutil.Ok(t, err)
	testutil.Equals(t, "export PATH=/a:/b:$PATH;\n", out)
}

func TestRenderSetIsNotSelfReferential(t *testing.T) {
	l := &Log{}
	l.Set("CC", "/usr/bin/gcc")

	out, err := l.Render(log.New(&bytes.Buffer{}, "", 0), "sh")
	testutil.Ok(t, err)
	testutil.Equals(t, "export CC=/usr/bin/gcc;\n", out)
}

func TestRenderDoubleSetWarnsOnce(t *testing.T) {
	warnings := bytes.Buffer{}

	l := &Log{}
	l.Set("CC", "/usr/bin/gcc")
	l.Set("CC", "/usr/bin/clang")

	out, err := l.Render(log.New(&warnings, "", 0), "sh")
	testutil.Ok(t, err)
	// Last set wins, output stays valid shell.
	testutil.Equals(t, "export CC=/usr/bin/clang;\n", out)
	testutil.Equals(t, 1, strings.Count(warnings.String(), "CC is set multiple times"))
}

func TestRenderSortsVariables(t *testing.T) {
	l := &Log{}
	l.PrependPath("PYTHONPATH", "/py")
	l.Set("CC", "/usr/bin/gcc")
	l.PrependPath("LD_LIBRARY_PATH", "/lib")

	out, err := l.Render(log.New(&bytes.Buffer{}, "", 0), "sh")
	testutil.Ok(t, err)
	testutil.Equals(t, "export CC=/usr/bin/gcc;\n"+
		"export LD_LIBRARY_PATH=/lib:$LD_LIBRARY_PATH;\n"+
		"export PYTHONPATH=/py:$PYTHONPATH;\n", out)
}

func TestRenderSetAndPrependPinsValue(t *testing.T) {
	warnings := bytes.Buffer{}

	l := &Log{}
	l.SetPath("ROOT_INCLUDE_PATH", "/opt/root/include")
	l.PrependPath("ROOT_INCLUDE_PATH", "/opt/edm4hep/include")

	out, err := l.Render(log.New(&warnings, "", 0), "sh")
	testutil.Ok(t, err)
	// Any set operation pins the variable, even if prepends follow.
	testutil.Equals(t, "export ROOT_INCLUDE_PATH=/opt/edm4hep/include:/opt/root/include;\n", out)
	testutil.Equals(t, 1, strings.Count(warnings.String(), "ROOT_INCLUDE_PATH is set multiple times"))
}

func TestRenderQuotesValues(t *testing.T) {
	l := &Log{}
	l.Set("GREETING", "hello world")

	out, err := l.Render(log.New(&bytes.Buffer{}, "", 0), "sh")
	testutil.Ok(t, err)
	testutil.Equals(t, "export GREETING='hello world';\n", out)
}

func TestRenderUnset(t *testing.T) {
	l := &Log{}
	l.Set("LC_ALL", "C")
	l.Unset("LC_ALL")

	out, err := l.Render(log.New(&bytes.Buffer{}, "", 0), "sh")
	testutil.Ok(t, err)
	testutil.Equals(t, "unset LC_ALL;\n", out)
}

func TestRenderMixedSeparators(t *testing.T) {
	l := &Log{}
	l.PrependPath("LUA_PATH", "/a/?.lua")
	l.add(Modification{Name: "LUA_PATH", Op: OpPrependPath, Value: "/b/?.lua", Separator: ";"})

	_, err := l.Render(log.New(&bytes.Buffer{}, "", 0), "sh")
	testutil.NotOk(t, err)
}

func TestRenderCustomSeparator(t *testing.T) {
	l := &Log{}
	l.add(Modification{Name: "LUA_PATH", Op: OpPrependPath, Value: "/a/?.lua", Separator: ";"})
	l.add(Modification{Name: "LUA_PATH", Op: OpPrependPath, Value: "/b/?.lua", Separator: ";"})
	l.add(Modification{Name: "LUA_PATH", Op: OpPrependPath, Value: "/a/?.lua", Separator: ";"})

	out, err := l.Render(log.New(&bytes.Buffer{}, "", 0), "sh")
	testutil.Ok(t, err)
	// Deduplication honors the variable's own separator.
	testutil.Equals(t, "export LUA_PATH='/a/?.lua;/b/?.lua':$LUA_PATH;\n", out)
}

func TestRenderUnsupportedShell(t *testing.T) {
	l := &Log{}
	l.Set("CC", "/usr/bin/gcc")

	_, err := l.Render(log.New(&bytes.Buffer{}, "", 0), "csh")
	testutil.NotOk(t, err)
}

func TestGroupByNameKeepsOrder(t *testing.T) {
	l := &Log{}
	l.PrependPath("PATH", "/a")
	l.Set("CC", "/usr/bin/gcc")
	l.AppendPath("PATH", "/b")

	grouped := l.GroupByName()
	testutil.Equals(t, 2, len(grouped))
	testutil.Equals(t, []Modification{
		{Name: "PATH", Op: OpPrependPath, Value: "/a", Separator: ":"},
		{Name: "PATH", Op: OpAppendPath, Value: "/b", Separator: ":"},
	}, grouped["PATH"])
}
