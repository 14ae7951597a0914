package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/topo"
)

// TopDegreeSubgraph selects the k highest-degree nodes (ties broken by
// insertion order), extends the selection with every direct neighbour of
// a selected node, and returns the subgraph induced by that set.
//
// k bounds the seed set, not the output: the result usually has more than
// k nodes. k <= 0 or k >= Order() seeds with every node.
func (g *Graph) TopDegreeSubgraph(k int) *Graph {
	seeds := g.topDegreeIDs(k)

	keep := make(map[int64]bool, len(seeds))
	for _, id := range seeds {
		keep[id] = true
		for _, nid := range g.neighborIDs(id) {
			keep[nid] = true
		}
	}
	return g.induced(keep)
}

// TopDegree returns the k highest-degree actors, ties broken by insertion
// order.
func (g *Graph) TopDegree(k int) []Actor {
	ids := g.topDegreeIDs(k)
	out := make([]Actor, len(ids))
	for i, id := range ids {
		out[i] = g.actors[id]
	}
	return out
}

func (g *Graph) topDegreeIDs(k int) []int64 {
	n := g.Order()
	if k <= 0 || k > n {
		k = n
	}

	ids := make([]int64, n)
	degree := make([]int, n)
	for i := range ids {
		ids[i] = int64(i)
		degree[i] = g.degreeOf(int64(i))
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return degree[ids[i]] > degree[ids[j]]
	})
	return ids[:k]
}

// Subgraph returns the subgraph induced by the named actors. Unknown names
// are ignored.
func (g *Graph) Subgraph(names []string) *Graph {
	keep := make(map[int64]bool, len(names))
	for _, name := range names {
		if id, ok := g.ID(name); ok {
			keep[id] = true
		}
	}
	return g.induced(keep)
}

// induced builds a new graph over the kept ids. Node order follows the
// parent's insertion order, and interactions are replayed so edge
// attributes keep their last-write values and counts.
func (g *Graph) induced(keep map[int64]bool) *Graph {
	sub := New()
	for id, a := range g.actors {
		if keep[int64(id)] {
			sub.AddActor(a)
		}
	}
	for _, in := range g.interactions {
		if keep[g.ids[in.A]] && keep[g.ids[in.B]] {
			sub.AddInteraction(in)
		}
	}
	return sub
}

// ConnectedComponents returns the connected components of the graph.
// Members are in insertion order and components are ordered by their
// first member.
func (g *Graph) ConnectedComponents() [][]Actor {
	cc := topo.ConnectedComponents(g.g)

	idComps := make([][]int64, len(cc))
	for i, comp := range cc {
		ids := make([]int64, len(comp))
		for j, n := range comp {
			ids[j] = n.ID()
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		idComps[i] = ids
	}
	sort.Slice(idComps, func(a, b int) bool { return idComps[a][0] < idComps[b][0] })

	out := make([][]Actor, len(idComps))
	for i, ids := range idComps {
		members := make([]Actor, len(ids))
		for j, id := range ids {
			members[j] = g.actors[id]
		}
		out[i] = members
	}
	return out
}
