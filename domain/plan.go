package domain

import "sort"

// BuildPlan is a dependency-respecting build order, computed once per run
// and immutable afterwards.
type BuildPlan struct {
	order  []string
	layers [][]string
}

// Plan computes a deterministic topological order over the graph's in-graph
// edges. Packages whose dependencies are all satisfied at the same point
// form an independence layer and are ordered by ascending name within it,
// so two runs over the same recipe set always produce the same plan.
func Plan(g *Graph) (*BuildPlan, error) {
	indegree := make(map[string]int, g.Len())
	for _, name := range g.Names() {
		indegree[name] = len(g.Dependencies(name))
	}

	var ready []string
	for _, name := range g.Names() {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	plan := &BuildPlan{}
	for len(ready) > 0 {
		sort.Strings(ready)
		layer := ready
		ready = nil

		plan.layers = append(plan.layers, layer)
		plan.order = append(plan.order, layer...)

		for _, name := range layer {
			for _, dependent := range g.Dependents(name) {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					ready = append(ready, dependent)
				}
			}
		}
	}

	// BuildGraph rejects cyclic graphs, but a hand-constructed graph could
	// still reach here; report the leftover nodes as the cycle.
	if len(plan.order) != g.Len() {
		if cycle := g.findCycle(); cycle != nil {
			return nil, &CycleError{Names: cycle}
		}
	}

	return plan, nil
}

// Order returns the package names in build order.
func (p *BuildPlan) Order() []string {
	return append([]string(nil), p.order...)
}

// Layers partitions the plan into independence layers: every package in a
// layer has all of its in-graph dependencies in earlier layers, so a layer
// may build concurrently.
func (p *BuildPlan) Layers() [][]string {
	result := make([][]string, len(p.layers))
	for i, layer := range p.layers {
		result[i] = append([]string(nil), layer...)
	}
	return result
}

// Len returns the number of packages in the plan.
func (p *BuildPlan) Len() int { return len(p.order) }
