// Package knowledgegraph implements the Knowledge Graph (C2): a directed
// acyclic graph of concepts connected by prerequisite-of edges, with
// acyclicity guaranteed at construction and deterministic traversal
// queries. It is backed by github.com/dominikbraun/graph, providing a
// directed graph of typed nodes with id-keyed lookup, specialized here to
// an immutable-after-construction concept DAG.
package knowledgegraph

import (
	"sort"

	dgraph "github.com/dominikbraun/graph"

	"adaptivequiz/internal/domain"
	"adaptivequiz/internal/quizerr"
)

// Graph is an immutable-after-construction DAG of concepts. The zero value
// is not valid; use Build.
type Graph struct {
	g        dgraph.Graph[string, *domain.Concept]
	concepts map[string]*domain.Concept

	// cached query results; the graph never mutates after Build so these
	// are safe to compute lazily and keep forever. Results for identical
	// queries on an unchanged graph stay stable across calls.
	topoOnce  []string
	topoErr   error
	topoDone  bool
}

func hashConcept(c *domain.Concept) string { return c.ID }

// Build constructs a Graph from a set of concepts and prerequisite edges
// (Tail is a prerequisite of Head). It fails with quizerr.CycleDetected,
// naming an offending cycle, if any edge would close a cycle, and with
// quizerr.UnknownConcept if an edge references a concept not in concepts.
func Build(concepts []*domain.Concept, edges []domain.Edge) (*Graph, error) {
	g := dgraph.New(hashConcept, dgraph.Directed(), dgraph.Acyclic())

	byID := make(map[string]*domain.Concept, len(concepts))
	for _, c := range concepts {
		if _, exists := byID[c.ID]; exists {
			continue
		}
		byID[c.ID] = c
		if err := g.AddVertex(c); err != nil {
			return nil, quizerr.Newf(quizerr.InvalidPolicy, "knowledge graph: failed to add concept %q: %v", c.ID, err)
		}
	}

	for _, e := range edges {
		if _, ok := byID[e.Tail]; !ok {
			return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: edge references unknown prerequisite concept %q", e.Tail).WithDetails(e.Tail)
		}
		if _, ok := byID[e.Head]; !ok {
			return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: edge references unknown dependent concept %q", e.Head).WithDetails(e.Head)
		}

		creates, err := dgraph.CreatesCycle(g, e.Tail, e.Head)
		if err != nil {
			return nil, quizerr.Newf(quizerr.CycleDetected, "knowledge graph: failed to check edge %s->%s: %v", e.Tail, e.Head, err)
		}
		if creates {
			path := findPath(g, e.Head, e.Tail)
			path = append(path, e.Head)
			return nil, quizerr.Newf(quizerr.CycleDetected, "knowledge graph: edge %s->%s would close a cycle", e.Tail, e.Head).WithDetails(path)
		}

		if err := g.AddEdge(e.Tail, e.Head); err != nil {
			return nil, quizerr.Newf(quizerr.CycleDetected, "knowledge graph: failed to add edge %s->%s: %v", e.Tail, e.Head, err)
		}
	}

	return &Graph{g: g, concepts: byID}, nil
}

// findPath returns a BFS shortest path of concept ids from source to
// target along existing edges, used only to describe a detected cycle to
// the caller; it never errors because it is only invoked once CreatesCycle
// has already confirmed a path exists.
func findPath(g dgraph.Graph[string, *domain.Concept], source, target string) []string {
	adj, err := g.AdjacencyMap()
	if err != nil {
		return []string{source}
	}
	type frame struct {
		id   string
		path []string
	}
	visited := map[string]bool{source: true}
	queue := []frame{{id: source, path: []string{source}}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.id == target {
			return cur.path
		}
		neighbors := make([]string, 0, len(adj[cur.id]))
		for n := range adj[cur.id] {
			neighbors = append(neighbors, n)
		}
		sort.Strings(neighbors)
		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			visited[n] = true
			next := append(append([]string(nil), cur.path...), n)
			queue = append(queue, frame{id: n, path: next})
		}
	}
	return []string{source}
}

// Contains reports whether id names a concept in the graph.
func (gr *Graph) Contains(id string) bool {
	_, ok := gr.concepts[id]
	return ok
}

// Concept returns the concept with the given id.
func (gr *Graph) Concept(id string) (*domain.Concept, bool) {
	c, ok := gr.concepts[id]
	return c, ok
}

// ValidateNodesExist returns the subset of ids not present in the graph.
func (gr *Graph) ValidateNodesExist(ids []string) []string {
	missing := make([]string, 0)
	for _, id := range ids {
		if !gr.Contains(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// DirectPrerequisites returns the immediate upstream concept ids of x, the
// source nodes of incoming edges to x, sorted ascending for determinism.
func (gr *Graph) DirectPrerequisites(x string) ([]string, error) {
	if !gr.Contains(x) {
		return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: unknown concept %q", x).WithDetails(x)
	}
	preds, err := gr.g.PredecessorMap()
	if err != nil {
		return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: predecessor lookup failed: %v", err)
	}
	out := make([]string, 0, len(preds[x]))
	for p := range preds[x] {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Dependents returns the immediate downstream concept ids of x, sorted
// ascending for determinism.
func (gr *Graph) Dependents(x string) ([]string, error) {
	if !gr.Contains(x) {
		return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: unknown concept %q", x).WithDetails(x)
	}
	adj, err := gr.g.AdjacencyMap()
	if err != nil {
		return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: adjacency lookup failed: %v", err)
	}
	out := make([]string, 0, len(adj[x]))
	for d := range adj[x] {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// TransitivePrerequisites returns the reflexive-transitive upstream closure
// of x, excluding x itself, sorted ascending for determinism.
func (gr *Graph) TransitivePrerequisites(x string) ([]string, error) {
	if !gr.Contains(x) {
		return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: unknown concept %q", x).WithDetails(x)
	}
	preds, err := gr.g.PredecessorMap()
	if err != nil {
		return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: predecessor lookup failed: %v", err)
	}
	seen := map[string]bool{}
	var walk func(string)
	walk = func(n string) {
		for p := range preds[n] {
			if seen[p] {
				continue
			}
			seen[p] = true
			walk(p)
		}
	}
	walk(x)
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// TransitiveDependents returns the symmetric downward closure of x,
// excluding x itself, sorted ascending for determinism.
func (gr *Graph) TransitiveDependents(x string) ([]string, error) {
	if !gr.Contains(x) {
		return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: unknown concept %q", x).WithDetails(x)
	}
	adj, err := gr.g.AdjacencyMap()
	if err != nil {
		return nil, quizerr.Newf(quizerr.UnknownConcept, "knowledge graph: adjacency lookup failed: %v", err)
	}
	seen := map[string]bool{}
	var walk func(string)
	walk = func(n string) {
		for d := range adj[n] {
			if seen[d] {
				continue
			}
			seen[d] = true
			walk(d)
		}
	}
	walk(x)
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// TopologicalOrder returns a valid linearization of the graph, ties broken
// by concept identifier ascending.
func (gr *Graph) TopologicalOrder() ([]string, error) {
	if !gr.topoDone {
		order, err := dgraph.StableTopologicalSort(gr.g, func(a, b string) bool { return a < b })
		gr.topoOnce, gr.topoErr, gr.topoDone = order, err, true
	}
	if gr.topoErr != nil {
		return nil, quizerr.Newf(quizerr.CycleDetected, "knowledge graph: topological sort failed: %v", gr.topoErr)
	}
	out := make([]string, len(gr.topoOnce))
	copy(out, gr.topoOnce)
	return out, nil
}

// ConceptIDs returns every concept id in the graph, sorted ascending.
func (gr *Graph) ConceptIDs() []string {
	out := make([]string, 0, len(gr.concepts))
	for id := range gr.concepts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Order returns the number of concepts in the graph.
func (gr *Graph) Order() int { return len(gr.concepts) }
