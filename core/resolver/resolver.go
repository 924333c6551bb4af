// Package resolver orders a set of named component plugins into an execution
// sequence satisfying declared must-run-after dependencies.
package resolver

import (
	"errors"
	"fmt"
)

// ErrCyclicDependency indicates the dependency graph contains a cycle.
var ErrCyclicDependency = errors.New("resolver: cyclic dependency")

// ErrUnresolvedDependency indicates a required predecessor is absent from the
// active component set.
var ErrUnresolvedDependency = errors.New("resolver: unresolved dependency")

// Dep names a predecessor. Optional dependencies are ignored when the named
// component is not part of the active set ("run after X if X exists").
type Dep struct {
	Name     string
	Optional bool
}

// Spec declares one component and the components it must run after.
type Spec struct {
	Name  string
	After []Dep
}

// Order computes a linear execution order in which every predecessor of a
// component precedes it. Ties among unconstrained components are broken by
// declaration order so that builds are reproducible for any input
// permutation of the dependency edges.
func Order(specs []Spec) ([]string, error) {
	index := make(map[string]int, len(specs))
	for i, s := range specs {
		if _, ok := index[s.Name]; ok {
			return nil, fmt.Errorf("resolver: component %q declared twice", s.Name)
		}
		index[s.Name] = i
	}

	indegree := make([]int, len(specs))
	succs := make([][]int, len(specs))
	for i, s := range specs {
		for _, d := range s.After {
			j, ok := index[d.Name]
			if !ok {
				if d.Optional {
					continue
				}
				return nil, fmt.Errorf("%w: %q requires %q which is not in the component set", ErrUnresolvedDependency, s.Name, d.Name)
			}
			succs[j] = append(succs[j], i)
			indegree[i]++
		}
	}

	order := make([]string, 0, len(specs))
	done := make([]bool, len(specs))
	for len(order) < len(specs) {
		// Pick the ready component with the lowest declaration index.
		next := -1
		for i := range specs {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			remaining := make([]string, 0, len(specs)-len(order))
			for i, s := range specs {
				if !done[i] {
					remaining = append(remaining, s.Name)
				}
			}
			return nil, fmt.Errorf("%w: no valid order for %v", ErrCyclicDependency, remaining)
		}
		done[next] = true
		order = append(order, specs[next].Name)
		for _, s := range succs[next] {
			indegree[s]--
		}
	}
	return order, nil
}
