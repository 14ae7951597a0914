package graph

import (
	"log/slog"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/brunobiangulo/sociograph/errs"
)

// edgeKey identifies an undirected edge by its node ids, smaller id first.
type edgeKey struct {
	u, v int64
}

func keyOf(a, b int64) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{u: a, v: b}
}

// Graph is an undirected interaction graph over actors. Node ids are
// dense and assigned in insertion order, which is also the iteration
// order of every query that returns nodes or edges.
//
// A Graph is built once per request and is not safe for concurrent
// mutation.
type Graph struct {
	g            *simple.UndirectedGraph
	actors       []Actor // indexed by node id
	ids          map[Actor]int64
	edges        map[edgeKey]*Edge
	interactions []Interaction
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		g:     simple.NewUndirectedGraph(),
		ids:   make(map[Actor]int64),
		edges: make(map[edgeKey]*Edge),
	}
}

// Build adds every actor as a node first, so isolated actors survive, and
// then one edge per interaction. Repeated interactions between the same
// pair collapse onto one edge.
func Build(actors []Actor, interactions []Interaction) *Graph {
	g := New()
	for _, a := range actors {
		g.AddActor(a)
	}

	dropped := 0
	for _, in := range interactions {
		if !g.AddInteraction(in) {
			dropped++
		}
	}
	if dropped > 0 {
		slog.Debug("graph: dropped self-referential interactions", "count", dropped)
	}

	slog.Debug("graph: built", "nodes", g.Order(), "edges", g.Size())
	return g
}

// AddActor adds a as a node if it is not present and returns its id.
func (g *Graph) AddActor(a Actor) int64 {
	if id, ok := g.ids[a]; ok {
		return id
	}
	id := int64(len(g.actors))
	g.g.AddNode(simple.Node(id))
	g.actors = append(g.actors, a)
	g.ids[a] = id
	return id
}

// AddInteraction records in, adding its actors as needed. Self-referential
// interactions are dropped and reported with a false return.
func (g *Graph) AddInteraction(in Interaction) bool {
	if in.SelfLoop() {
		return false
	}
	k := keyOf(g.AddActor(in.A), g.AddActor(in.B))

	e, ok := g.edges[k]
	if !ok {
		g.g.SetEdge(simple.Edge{F: simple.Node(k.u), T: simple.Node(k.v)})
		e = &Edge{A: g.actors[k.u], B: g.actors[k.v]}
		g.edges[k] = e
	}
	e.Type = in.Type
	e.Item = in.Item
	e.Count++

	g.interactions = append(g.interactions, in)
	return true
}

// Order returns the number of nodes.
func (g *Graph) Order() int { return len(g.actors) }

// Size returns the number of (collapsed) edges.
func (g *Graph) Size() int { return len(g.edges) }

// Actors returns every node in insertion order.
func (g *Graph) Actors() []Actor {
	out := make([]Actor, len(g.actors))
	copy(out, g.actors)
	return out
}

// Has reports whether an actor named name is a node.
func (g *Graph) Has(name string) bool {
	_, ok := g.ids[NewActor(name)]
	return ok
}

// ID returns the node id of the actor named name.
func (g *Graph) ID(name string) (int64, bool) {
	id, ok := g.ids[NewActor(name)]
	return id, ok
}

// ActorOf returns the actor with node id id.
func (g *Graph) ActorOf(id int64) Actor { return g.actors[id] }

// Degree returns the number of distinct neighbours of name, or 0 if name
// is not a node.
func (g *Graph) Degree(name string) int {
	id, ok := g.ID(name)
	if !ok {
		return 0
	}
	return g.degreeOf(id)
}

func (g *Graph) degreeOf(id int64) int {
	return g.g.From(id).Len()
}

// MinDegree returns the smallest degree over all nodes.
func (g *Graph) MinDegree() (int, error) {
	if g.Order() == 0 {
		return 0, &errs.EmptyGraphError{Op: "MinDegree"}
	}
	min := g.degreeOf(0)
	for id := int64(1); id < int64(g.Order()); id++ {
		if d := g.degreeOf(id); d < min {
			min = d
		}
	}
	return min, nil
}

// MaxDegree returns the largest degree over all nodes.
func (g *Graph) MaxDegree() (int, error) {
	if g.Order() == 0 {
		return 0, &errs.EmptyGraphError{Op: "MaxDegree"}
	}
	max := 0
	for id := int64(0); id < int64(g.Order()); id++ {
		if d := g.degreeOf(id); d > max {
			max = d
		}
	}
	return max, nil
}

// Neighbors returns the neighbours of name in insertion order.
func (g *Graph) Neighbors(name string) []Actor {
	id, ok := g.ID(name)
	if !ok {
		return nil
	}
	ids := g.neighborIDs(id)
	out := make([]Actor, len(ids))
	for i, nid := range ids {
		out[i] = g.actors[nid]
	}
	return out
}

// neighborIDs returns the sorted neighbour ids of id. gonum iterates
// adjacency in map order, so callers that need determinism go through here.
func (g *Graph) neighborIDs(id int64) []int64 {
	it := g.g.From(id)
	ids := make([]int64, 0, it.Len())
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NeighborIDs is the id form of Neighbors.
func (g *Graph) NeighborIDs(id int64) []int64 { return g.neighborIDs(id) }

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b string) bool {
	_, ok := g.Edge(a, b)
	return ok
}

// Edge returns the collapsed edge between a and b.
func (g *Graph) Edge(a, b string) (Edge, bool) {
	u, ok := g.ID(a)
	if !ok {
		return Edge{}, false
	}
	v, ok := g.ID(b)
	if !ok {
		return Edge{}, false
	}
	e, ok := g.edges[keyOf(u, v)]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Edges returns every edge exactly once, ordered by the insertion order of
// the lower endpoint and then the higher one.
func (g *Graph) Edges() []Edge {
	keys := g.edgeKeys()
	out := make([]Edge, len(keys))
	for i, k := range keys {
		out[i] = *g.edges[k]
	}
	return out
}

// EdgeIDs returns the endpoint ids of every edge, in Edges order.
func (g *Graph) EdgeIDs() [][2]int64 {
	keys := g.edgeKeys()
	out := make([][2]int64, len(keys))
	for i, k := range keys {
		out[i] = [2]int64{k.u, k.v}
	}
	return out
}

func (g *Graph) edgeKeys() []edgeKey {
	keys := make([]edgeKey, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].u != keys[j].u {
			return keys[i].u < keys[j].u
		}
		return keys[i].v < keys[j].v
	})
	return keys
}

// Interactions returns every recorded interaction in arrival order.
func (g *Graph) Interactions() []Interaction {
	out := make([]Interaction, len(g.interactions))
	copy(out, g.interactions)
	return out
}

// Mentions returns the distinct actors that name initiated an interaction
// with, in first-seen order. It is derived from the interaction list on
// every call.
func (g *Graph) Mentions(name string) []Actor {
	from := NewActor(name)
	seen := make(map[Actor]bool)
	var out []Actor
	for _, in := range g.interactions {
		if in.A != from || seen[in.B] {
			continue
		}
		seen[in.B] = true
		out = append(out, in.B)
	}
	return out
}

// Undirected exposes the topology for gonum algorithms. Node ids match
// ID/ActorOf. Callers must not mutate the returned graph.
func (g *Graph) Undirected() gonum.Undirected { return g.g }

// Weighted returns a copy of the topology whose edge weights are the
// number of interactions collapsed onto each edge.
func (g *Graph) Weighted() *simple.WeightedUndirectedGraph {
	w := simple.NewWeightedUndirectedGraph(0, 0)
	for id := range g.actors {
		w.AddNode(simple.Node(int64(id)))
	}
	for k, e := range g.edges {
		w.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(k.u),
			T: simple.Node(k.v),
			W: float64(e.Count),
		})
	}
	return w
}
