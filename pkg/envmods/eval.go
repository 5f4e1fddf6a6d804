// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package envmods

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/scanner"

	"github.com/pkg/errors"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Eval sources a setup script the way `. setup.sh` would and returns every
// variable the script assigns, resolved against the given base environment
// (os/exec style KEY=VALUE slice). Self-referential prepends expand against
// the base environment, which makes this the verification counterpart of
// Render: what would my environment look like after sourcing this file.
func Eval(ctx context.Context, r io.Reader, baseEnv ...string) (ret []string, _ error) {
	const prefix = "[[envmods.Eval]]:"

	s, err := syntax.NewParser().Parse(r, "")
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	vars := listAssignedNames(s)
	if len(vars) == 0 {
		return nil, nil
	}

	// Append an echo of every assigned variable so we can read the final
	// values back from the interpreter's stdout.
	var parts []syntax.WordPart
	for _, v := range vars {
		parts = append(parts,
			&syntax.Lit{Value: fmt.Sprintf("%v \"", v)},
			&syntax.ParamExp{Param: &syntax.Lit{Value: v}},
			&syntax.Lit{Value: "\" "},
		)
	}
	s.Stmts = append(
		s.Stmts, &syntax.Stmt{Cmd: &syntax.CallExpr{
			Args: []*syntax.Word{
				{Parts: []syntax.WordPart{&syntax.Lit{Value: "echo"}}},
				{Parts: []syntax.WordPart{&syntax.DblQuoted{Parts: append([]syntax.WordPart{&syntax.Lit{Value: prefix}}, parts...)}}},
			}}},
	)

	b := bytes.Buffer{}
	ru, err := interp.New(interp.StdIO(os.Stdin, &b, &b), interp.Env(expand.ListEnviron(baseEnv...)))
	if err != nil {
		return nil, err
	}
	if err := ru.Run(ctx, s); err != nil {
		return nil, errors.Wrap(err, "source")
	}

	// The marker echo runs as the script's last statement; an early exit
	// skips it and leaves us nothing to read the final values from.
	i := strings.Index(b.String(), prefix)
	if i < 0 {
		return nil, errors.New("script exited before its variables could be inspected")
	}

	var sc scanner.Scanner
	sc.Init(strings.NewReader(b.String()[i+len(prefix):]))
	tok := sc.Scan()
	for tok != scanner.EOF {
		k := sc.TokenText()
		_ = sc.Scan()
		v := sc.TokenText()
		ret = append(ret, fmt.Sprintf("%s=%s", k, strings.Trim(v, "\"")))
		tok = sc.Scan()
	}
	sort.Strings(ret)
	return ret, nil
}

func listAssignedNames(ast *syntax.File) (vars []string) {
	dup := map[string]struct{}{}
	for _, s := range ast.Stmts {
		syntax.Walk(s, func(node syntax.Node) bool {
			switch n := node.(type) {
			case *syntax.Assign:
				if n.Name == nil {
					return false
				}
				if _, ok := dup[n.Name.Value]; ok {
					return false
				}
				dup[n.Name.Value] = struct{}{}
				vars = append(vars, n.Name.Value)
				return false
			}
			return true
		})
	}
	return vars
}
