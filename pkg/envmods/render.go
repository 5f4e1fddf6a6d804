// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package envmods

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"mvdan.cc/sh/v3/syntax"
)

var (
	shellSetFormat = map[string]string{
		"sh": "export %s=%s;\n",
	}
	shellPrependFormat = map[string]string{
		"sh": "export %s=%s:$%s;\n",
	}
)

// Render resolves the log into shell code, one export statement per variable,
// sorted by variable name. Variables touched by a set operation are pinned to
// their exact value; everything else renders as a self-referential prepend
// (export PATH=/new/path:$PATH;), so the current process environment is never
// baked into the output. A variable with more than one set operation gets a
// single warning on the logger and the last value wins.
func (l *Log) Render(logger *log.Logger, shell string) (string, error) {
	setFormat, ok := shellSetFormat[shell]
	if !ok {
		return "", errors.Errorf("unsupported shell %q, only 'sh' is supported", shell)
	}
	prependFormat := shellPrependFormat[shell]

	grouped := l.GroupByName()
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	b := strings.Builder{}
	for _, name := range names {
		mods := grouped[name]

		pinned := false
		sep := DefaultSeparator
		for i, m := range mods {
			pinned = pinned || m.Op.IsSet()
			if m.Separator == "" {
				continue
			}
			if i > 0 && m.Separator != sep {
				return "", errors.Errorf("variable %s mixes separators %q and %q", name, sep, m.Separator)
			}
			sep = m.Separator
		}
		if pinned && len(mods) > 1 {
			logger.Printf("warning: variable %s is set multiple times", name)
		}

		value, unset := resolve(mods, sep)
		if unset {
			fmt.Fprintf(&b, "unset %s;\n", name)
			continue
		}
		value = strings.Join(pruneDuplicatePaths(strings.Split(value, sep)), sep)

		quoted, err := syntax.Quote(value, syntax.LangPOSIX)
		if err != nil {
			return "", errors.Wrapf(err, "quote value of %s", name)
		}
		if pinned {
			fmt.Fprintf(&b, setFormat, name, quoted)
			continue
		}
		fmt.Fprintf(&b, prependFormat, name, quoted, name)
	}
	return b.String(), nil
}

// resolve replays per-variable modifications in order into a final value,
// without looking at the process environment.
func resolve(mods []Modification, sep string) (value string, unset bool) {
	for _, m := range mods {
		switch m.Op {
		case OpSet, OpSetPath:
			value, unset = m.Value, false
		case OpPrependPath:
			if value == "" {
				value = m.Value
			} else {
				value = m.Value + sep + value
			}
			unset = false
		case OpAppendPath:
			if value == "" {
				value = m.Value
			} else {
				value = value + sep + m.Value
			}
			unset = false
		case OpUnset:
			value, unset = "", true
		}
	}
	return value, unset
}
