// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/pkg/errors"
)

// Node is one package in the dependency graph.
type Node struct {
	Recipe Recipe
	Deps   []*Node

	hash string
}

// Graph is the dependency graph of a stack.
type Graph struct {
	nodes map[string]*Node
	order []string
}

// BuildGraph resolves the DependsOn references of the given recipes into a
// graph. Every dependency has to name a recipe in the slice.
func BuildGraph(recipes []Recipe) (*Graph, error) {
	g := &Graph{nodes: map[string]*Node{}}
	for _, r := range recipes {
		if _, ok := g.nodes[r.Name]; ok {
			return nil, errors.Errorf("duplicate recipe %s", r.Name)
		}
		g.nodes[r.Name] = &Node{Recipe: r}
		g.order = append(g.order, r.Name)
	}
	for _, name := range g.order {
		n := g.nodes[name]
		for _, dep := range n.Recipe.DependsOn {
			d, ok := g.nodes[dep]
			if !ok {
				return nil, errors.Errorf("recipe %s depends on unknown recipe %s", name, dep)
			}
			n.Deps = append(n.Deps, d)
		}
	}
	return g, nil
}

// PostOrder returns all nodes with dependencies before their dependents,
// visiting roots in recipe order. Cycles are an error.
func (g *Graph) PostOrder() ([]*Node, error) {
	var (
		out     []*Node
		done    = map[string]bool{}
		visited = map[string]bool{}
	)
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if done[n.Recipe.Name] {
			return nil
		}
		if visited[n.Recipe.Name] {
			return errors.Errorf("dependency cycle through recipe %s", n.Recipe.Name)
		}
		visited[n.Recipe.Name] = true
		for _, d := range n.Deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		done[n.Recipe.Name] = true
		out = append(out, n)
		return nil
	}
	for _, name := range g.order {
		if err := visit(g.nodes[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Hash returns the node's DAG hash: a digest over its own name and version
// and the hashes of everything below it, so any change in the subtree
// changes the hash.
func (n *Node) Hash() string {
	if n.hash != "" {
		return n.hash
	}
	depHashes := make([]string, 0, len(n.Deps))
	for _, d := range n.Deps {
		depHashes = append(depHashes, d.Hash())
	}
	sort.Strings(depHashes)

	h := sha256.New()
	_, _ = h.Write([]byte(n.Recipe.String()))
	for _, dh := range depHashes {
		_, _ = h.Write([]byte(dh))
	}
	n.hash = hex.EncodeToString(h.Sum(nil))[:32]
	return n.hash
}
