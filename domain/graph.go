package domain

import (
	"fmt"
	"sort"
)

// Graph holds the loaded recipe set keyed by package name, with adjacency
// derived from the requirement lists. Only requirements that name another
// loaded recipe become edges; the rest are recorded as external.
type Graph struct {
	specs      map[string]*PackageSpec
	deps       map[string][]string // package -> in-graph requirements
	dependents map[string][]string // package -> packages that require it
	externals  map[string][]string // package -> requirements not in the graph
}

// BuildGraph assembles the dependency graph from the loaded specs. It fails
// with *MalformedSpecError on duplicate or self-referential packages and
// with *CycleError when the in-graph edges contain a cycle. A graph that
// builds successfully is safe to plan and execute.
func BuildGraph(specs []*PackageSpec) (*Graph, error) {
	g := &Graph{
		specs:      make(map[string]*PackageSpec, len(specs)),
		deps:       make(map[string][]string, len(specs)),
		dependents: make(map[string][]string, len(specs)),
		externals:  make(map[string][]string, len(specs)),
	}

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, &MalformedSpecError{Path: spec.RecipeDir, Reason: "package name is empty"}
		}
		if spec.Version == "" {
			return nil, &MalformedSpecError{Path: spec.RecipeDir, Reason: "package version is empty"}
		}
		if _, exists := g.specs[spec.Name]; exists {
			return nil, &MalformedSpecError{
				Path:   spec.RecipeDir,
				Reason: fmt.Sprintf("duplicate package name %q", spec.Name),
			}
		}
		g.specs[spec.Name] = spec
	}

	for name, spec := range g.specs {
		for _, req := range spec.Requirements() {
			if req == name {
				return nil, &MalformedSpecError{
					Path:   spec.RecipeDir,
					Reason: fmt.Sprintf("package %q depends on itself", name),
				}
			}
			if _, inGraph := g.specs[req]; inGraph {
				g.deps[name] = append(g.deps[name], req)
				g.dependents[req] = append(g.dependents[req], name)
			} else {
				g.externals[name] = append(g.externals[name], req)
			}
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CycleError{Names: cycle}
	}

	return g, nil
}

// Len returns the number of packages in the graph.
func (g *Graph) Len() int { return len(g.specs) }

// Spec returns the spec for the given package name, or nil.
func (g *Graph) Spec(name string) *PackageSpec { return g.specs[name] }

// Names returns every package name in ascending order.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.specs))
	for name := range g.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the in-graph requirements of a package, sorted.
func (g *Graph) Dependencies(name string) []string {
	return sortedCopy(g.deps[name])
}

// Dependents returns the packages that require the given package, sorted.
func (g *Graph) Dependents(name string) []string {
	return sortedCopy(g.dependents[name])
}

// Externals returns the package's requirements that are not co-built in
// this run, in recipe order.
func (g *Graph) Externals(name string) []string {
	return append([]string(nil), g.externals[name]...)
}

func sortedCopy(names []string) []string {
	result := append([]string(nil), names...)
	sort.Strings(result)
	return result
}

const (
	colorWhite = iota // unvisited
	colorGray         // on the current DFS path
	colorBlack        // fully explored
)

// findCycle runs a depth-first search over the in-graph edges and returns
// the full ordered loop of the first back-edge found, or nil. Nodes are
// visited in ascending name order so the reported cycle is deterministic.
func (g *Graph) findCycle() []string {
	color := make(map[string]int, len(g.specs))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = colorGray
		stack = append(stack, name)

		for _, dep := range g.Dependencies(name) {
			switch color[dep] {
			case colorGray:
				// Back edge: the cycle is the stack suffix starting at dep.
				for i, on := range stack {
					if on == dep {
						cycle = append([]string(nil), stack[i:]...)
						return true
					}
				}
			case colorWhite:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[name] = colorBlack
		return false
	}

	for _, name := range g.Names() {
		if color[name] == colorWhite && visit(name) {
			return cycle
		}
	}
	return nil
}
