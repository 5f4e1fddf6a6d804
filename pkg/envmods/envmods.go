// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

// Package envmods records requested changes to environment variables and
// renders them as portable shell code. Resolution never consults the current
// process environment; prepends stay self-referential ($PATH and friends),
// so the generated script composes with whatever environment sources it.
package envmods

import "strings"

// DefaultSeparator joins list-like variable values.
const DefaultSeparator = ":"

type Op int

const (
	// OpSet assigns a single value, discarding previous content.
	OpSet Op = iota
	// OpSetPath assigns a list of paths joined with the separator.
	OpSetPath
	// OpPrependPath puts a path in front of the variable's current value.
	OpPrependPath
	// OpAppendPath puts a path behind the variable's current value.
	OpAppendPath
	// OpUnset removes the variable.
	OpUnset
)

// IsSet tells whether the operation pins the variable to an exact value, as
// opposed to extending whatever the runtime environment already holds.
func (o Op) IsSet() bool {
	return o == OpSet || o == OpSetPath
}

// Modification is one requested change to a single environment variable.
type Modification struct {
	Name      string
	Op        Op
	Value     string
	Separator string
}

// Log is an ordered record of environment modifications. The zero value is
// ready to use.
type Log struct {
	mods []Modification
}

func (l *Log) add(m Modification) {
	if m.Separator == "" {
		m.Separator = DefaultSeparator
	}
	l.mods = append(l.mods, m)
}

// Set records an exact single-value assignment.
func (l *Log) Set(name, value string) {
	l.add(Modification{Name: name, Op: OpSet, Value: value})
}

// SetPath records an exact assignment of a list of paths.
func (l *Log) SetPath(name string, paths ...string) {
	l.add(Modification{Name: name, Op: OpSetPath, Value: strings.Join(paths, DefaultSeparator)})
}

// PrependPath records putting path in front of name's current value.
func (l *Log) PrependPath(name, path string) {
	l.add(Modification{Name: name, Op: OpPrependPath, Value: path})
}

// AppendPath records putting path behind name's current value.
func (l *Log) AppendPath(name, path string) {
	l.add(Modification{Name: name, Op: OpAppendPath, Value: path})
}

// Unset records removal of the variable.
func (l *Log) Unset(name string) {
	l.add(Modification{Name: name, Op: OpUnset})
}

// Extend appends all modifications of other, preserving their order.
func (l *Log) Extend(other *Log) {
	l.mods = append(l.mods, other.mods...)
}

// Len returns the number of recorded modifications.
func (l *Log) Len() int { return len(l.mods) }

// GroupByName splits the log per variable, keeping per-variable order.
func (l *Log) GroupByName() map[string][]Modification {
	grouped := map[string][]Modification{}
	for _, m := range l.mods {
		grouped[m.Name] = append(grouped[m.Name], m)
	}
	return grouped
}

// pruneDuplicatePaths drops repeated elements, keeping the first occurrence.
func pruneDuplicatePaths(paths []string) []string {
	seen := map[string]struct{}{}
	pruned := paths[:0]
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pruned = append(pruned, p)
	}
	return pruned
}
