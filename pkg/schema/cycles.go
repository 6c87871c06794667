package schema

import (
	"fmt"
	"strings"
)

// Cycle is a chain of element types linked by required parent references,
// ending where it started.
type Cycle []string

// String renders the cycle as "A -> B -> A"
func (c Cycle) String() string {
	if len(c) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, c...), c[0]), " -> ")
}

// RequiredCycles reports cycles formed by required parent references.
//
// Definitions are never rejected because of such cycles; the first instance
// of any type on a cycle can not be constructed, so this is a diagnostic.
func (r *Registry) RequiredCycles() []Cycle {
	types := r.Elements()

	// type -> types it requires to exist first
	edges := make(map[string][]string, len(types))
	for _, t := range types {
		for _, f := range t.fields {
			if f.Required() {
				edges[t.name] = append(edges[t.name], f.Target.name)
			}
		}
	}

	var cycles []Cycle
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, next := range edges[node] {
			if !visited[next] {
				dfs(next, path)
				continue
			}
			if !onStack[next] {
				continue
			}
			for i, n := range path {
				if n == next {
					cycle := make(Cycle, len(path)-i)
					copy(cycle, path[i:])
					if key := cycleKey(cycle); !seen[key] {
						seen[key] = true
						cycles = append(cycles, cycle)
					}
					break
				}
			}
		}

		onStack[node] = false
	}

	for _, t := range types {
		if !visited[t.name] {
			dfs(t.name, nil)
		}
	}
	return cycles
}

// cycleKey normalizes a cycle to start at its smallest member
func cycleKey(c Cycle) string {
	start := 0
	for i, n := range c {
		if n < c[start] {
			start = i
		}
	}
	var b strings.Builder
	for i := range c {
		fmt.Fprintf(&b, "%s,", c[(start+i)%len(c)])
	}
	return b.String()
}
