package resource

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
)

type graphNodes map[Name]struct{}

type graphEdges map[Name]graphNodes

// Graph maintains a collection of resources and the dependencies between them.
type Graph struct {
	nodes map[Name]interface{}
	// dependents[a] holds every node that depends on a.
	dependents graphEdges
	// dependencies[a] holds every node a depends on.
	dependencies graphEdges
}

// NewGraph creates a new, empty resource graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:        make(map[Name]interface{}),
		dependents:   make(graphEdges),
		dependencies: make(graphEdges),
	}
}

func addToSet(edges graphEdges, key, node Name) {
	nodes, ok := edges[key]
	if !ok {
		nodes = make(graphNodes)
		edges[key] = nodes
	}
	nodes[node] = struct{}{}
}

func removeFromSet(edges graphEdges, key, node Name) {
	if nodes := edges[key]; len(nodes) <= 1 {
		delete(edges, key)
	} else {
		delete(nodes, node)
	}
}

// AddNode adds a node to the graph, replacing the value of an existing node.
func (g *Graph) AddNode(node Name, value interface{}) {
	g.nodes[node] = value
}

// Node returns the value stored for a node.
func (g *Graph) Node(node Name) (interface{}, bool) {
	value, ok := g.nodes[node]
	return value, ok
}

// Names returns every node in the graph.
func (g *Graph) Names() []Name {
	names := make([]Name, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sortNames(names)
	return names
}

// AddDependency records that dependent depends on dependency. A dependency not yet added as a
// node is created with a nil value.
func (g *Graph) AddDependency(dependent, dependency Name) error {
	if dependent == dependency {
		return errors.Errorf("%q cannot depend on itself", dependent.Name)
	}
	if _, ok := g.nodes[dependent]; !ok {
		g.nodes[dependent] = nil
	}
	if _, ok := g.nodes[dependency]; !ok {
		g.nodes[dependency] = nil
	} else if g.IsDependingOn(dependency, dependent) {
		return errors.Errorf("circular dependency - %q already depends on %q", dependency.Name, dependent.Name)
	}
	addToSet(g.dependents, dependency, dependent)
	addToSet(g.dependencies, dependent, dependency)
	return nil
}

// IsDependingOn returns whether dependent transitively depends on dependency.
func (g *Graph) IsDependingOn(dependent, dependency Name) bool {
	visited := map[Name]bool{dependent: true}
	next := []Name{dependent}
	for len(next) > 0 {
		var found []Name
		for _, n := range next {
			for dep := range g.dependencies[n] {
				if dep == dependency {
					return true
				}
				if !visited[dep] {
					visited[dep] = true
					found = append(found, dep)
				}
			}
		}
		next = found
	}
	return false
}

// DependenciesOf returns the direct dependencies of a node.
func (g *Graph) DependenciesOf(node Name) []Name {
	out := make([]Name, 0, len(g.dependencies[node]))
	for dep := range g.dependencies[node] {
		out = append(out, dep)
	}
	sortNames(out)
	return out
}

// Remove removes a node and every edge touching it.
func (g *Graph) Remove(node Name) {
	for dep := range g.dependencies[node] {
		removeFromSet(g.dependents, dep, node)
	}
	for dependent := range g.dependents[node] {
		removeFromSet(g.dependencies, dependent, node)
	}
	delete(g.dependencies, node)
	delete(g.dependents, node)
	delete(g.nodes, node)
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := NewGraph()
	for name, value := range g.nodes {
		out.nodes[name] = value
	}
	for key, nodes := range g.dependents {
		for n := range nodes {
			addToSet(out.dependents, key, n)
		}
	}
	for key, nodes := range g.dependencies {
		for n := range nodes {
			addToSet(out.dependencies, key, n)
		}
	}
	return out
}

// leaves returns the nodes without dependencies, sorted by name.
func (g *Graph) leaves() []Name {
	leaves := make([]Name, 0)
	for node := range g.nodes {
		if _, ok := g.dependencies[node]; !ok {
			leaves = append(leaves, node)
		}
	}
	sortNames(leaves)
	return leaves
}

// TopologicalSort returns every node ordered so that each node comes after all of its
// dependencies. Nodes at the same depth are ordered by name.
func (g *Graph) TopologicalSort() []Name {
	ordered := []Name{}
	temp := g.Clone()
	for {
		leaves := temp.leaves()
		if len(leaves) == 0 {
			break
		}
		ordered = append(ordered, leaves...)
		for _, leaf := range leaves {
			temp.Remove(leaf)
		}
	}
	return ordered
}

func sortNames(names []Name) {
	slices.SortFunc(names, func(a, b Name) int {
		return strings.Compare(a.String(), b.String())
	})
}
