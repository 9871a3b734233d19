package publish

import (
	"sort"
	"strings"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// Member is one unit of a batch publish: a workspace crate and the names of
// the other members it depends on.
type Member struct {
	// Name is the member's package name.
	Name string

	// Path is the member's directory relative to the workspace root.
	Path string

	// Dependencies lists the names of other batch members this one depends
	// on. Names outside the batch are ignored during ordering.
	Dependencies []string
}

// Order sorts members so every member is published after its in-batch
// dependencies. Ties are broken by ascending declared-dependency count, then
// by declaration order, which keeps runs reproducible. Returns an error when
// the dependency graph contains a cycle.
func Order(members []Member) ([]Member, error) {
	index := make(map[string]int, len(members))
	for i, m := range members {
		index[m.Name] = i
	}

	// Edges and in-degrees over in-batch dependencies only.
	indegree := make([]int, len(members))
	dependents := make(map[int][]int, len(members))
	for i, m := range members {
		for _, dep := range m.Dependencies {
			j, ok := index[dep]
			if !ok || j == i {
				continue
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	ready := make([]int, 0, len(members))
	for i := range members {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]Member, 0, len(members))
	for len(ready) > 0 {
		sort.Slice(ready, func(a, b int) bool {
			ma, mb := members[ready[a]], members[ready[b]]
			if len(ma.Dependencies) != len(mb.Dependencies) {
				return len(ma.Dependencies) < len(mb.Dependencies)
			}
			return ready[a] < ready[b]
		})

		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, members[next])

		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(ordered) != len(members) {
		var stuck []string
		for i, m := range members {
			if indegree[i] > 0 {
				stuck = append(stuck, m.Name)
			}
		}
		return nil, errors.Newf(errors.CodeInvalidInput,
			"dependency cycle among workspace members: %s", strings.Join(stuck, ", "))
	}

	return ordered, nil
}
