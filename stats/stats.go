// Package stats computes per-node structural measures of an interaction
// graph: pagerank, degree, closeness and betweenness centrality, triangle
// counts and clustering coefficients.
package stats

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/graph"
)

// PageRank parameters.
const (
	Damping   = 0.85
	Tolerance = 1e-8
)

// GraphStats holds six node-indexed measures keyed by actor name.
// Centralities and clustering lie in [0,1]; pagerank sums to 1.
type GraphStats struct {
	PageRank    map[string]float64 `json:"pagerank"`
	Degree      map[string]float64 `json:"degree_centrality"`
	Closeness   map[string]float64 `json:"closeness_centrality"`
	Betweenness map[string]float64 `json:"betweenness_centrality"`
	Triangles   map[string]int     `json:"triangles"`
	Clustering  map[string]float64 `json:"clustering"`
}

// NodeStats is the measure set of a single node.
type NodeStats struct {
	Actor       string  `json:"actor"`
	PageRank    float64 `json:"pagerank"`
	Degree      float64 `json:"degree_centrality"`
	Closeness   float64 `json:"closeness_centrality"`
	Betweenness float64 `json:"betweenness_centrality"`
	Triangles   int     `json:"triangles"`
	Clustering  float64 `json:"clustering"`
}

// Node returns the measures of the named actor.
func (s *GraphStats) Node(name string) NodeStats {
	return NodeStats{
		Actor:       name,
		PageRank:    s.PageRank[name],
		Degree:      s.Degree[name],
		Closeness:   s.Closeness[name],
		Betweenness: s.Betweenness[name],
		Triangles:   s.Triangles[name],
		Clustering:  s.Clustering[name],
	}
}

// Compute derives every measure for every node of g. g is not modified.
func Compute(g *graph.Graph) (*GraphStats, error) {
	n := g.Order()
	if n == 0 {
		return nil, &errs.EmptyGraphError{Op: "stats.Compute"}
	}

	s := &GraphStats{
		PageRank:    pageRank(g),
		Degree:      make(map[string]float64, n),
		Closeness:   closeness(g),
		Betweenness: betweenness(g),
		Triangles:   make(map[string]int, n),
		Clustering:  make(map[string]float64, n),
	}

	triangles := countTriangles(g)
	for id, a := range g.Actors() {
		d := g.Degree(a.Name)
		if n > 1 {
			s.Degree[a.Name] = float64(d) / float64(n-1)
		} else {
			s.Degree[a.Name] = 0
		}

		t := triangles[id]
		s.Triangles[a.Name] = t
		if d < 2 {
			s.Clustering[a.Name] = 0
		} else {
			s.Clustering[a.Name] = 2 * float64(t) / float64(d*(d-1))
		}
	}

	slog.Debug("stats: computed", "nodes", n, "edges", g.Size())
	return s, nil
}

// pageRank runs on a directed twin of g with one arc each way per edge,
// then renormalises so the scores sum to exactly 1.
func pageRank(g *graph.Graph) map[string]float64 {
	out := make(map[string]float64, g.Order())
	if g.Order() == 1 {
		out[g.ActorOf(0).Name] = 1
		return out
	}

	d := simple.NewDirectedGraph()
	for id := range g.Actors() {
		d.AddNode(simple.Node(int64(id)))
	}
	for _, e := range g.EdgeIDs() {
		d.SetEdge(simple.Edge{F: simple.Node(e[0]), T: simple.Node(e[1])})
		d.SetEdge(simple.Edge{F: simple.Node(e[1]), T: simple.Node(e[0])})
	}

	ranks := network.PageRank(d, Damping, Tolerance)
	sum := 0.0
	for _, r := range ranks {
		sum += r
	}
	for id, a := range g.Actors() {
		r := ranks[int64(id)]
		if sum > 0 {
			r /= sum
		} else {
			r = 1 / float64(g.Order())
		}
		out[a.Name] = r
	}
	return out
}

// closeness uses the Wasserman-Faust correction so nodes in small
// components are not rated as central:
//
//	C(u) = ((r-1)/(n-1)) * ((r-1)/sum(d(u,v)))
//
// where r counts the nodes reachable from u including u.
func closeness(g *graph.Graph) map[string]float64 {
	n := g.Order()
	out := make(map[string]float64, n)
	if n == 1 {
		out[g.ActorOf(0).Name] = 0
		return out
	}

	paths := path.DijkstraAllPaths(g.Undirected())
	for uid, a := range g.Actors() {
		reach, total := 1, 0.0
		for vid := range n {
			if vid == uid {
				continue
			}
			w := paths.Weight(int64(uid), int64(vid))
			if math.IsInf(w, 1) {
				continue
			}
			reach++
			total += w
		}
		if total == 0 {
			out[a.Name] = 0
			continue
		}
		r := float64(reach - 1)
		out[a.Name] = (r / float64(n-1)) * (r / total)
	}
	return out
}

// betweenness normalises Brandes scores, which count ordered pairs, by
// the number of ordered pairs not involving the node.
func betweenness(g *graph.Graph) map[string]float64 {
	n := g.Order()
	out := make(map[string]float64, n)
	raw := map[int64]float64{}
	if n > 2 {
		raw = network.Betweenness(g.Undirected())
	}
	scale := float64((n - 1) * (n - 2))
	for id, a := range g.Actors() {
		b := raw[int64(id)]
		if scale > 0 {
			b /= scale
		}
		out[a.Name] = b
	}
	return out
}

// countTriangles returns, per node id, the number of triangles the node
// belongs to. Each triangle is found once from its lowest id.
func countTriangles(g *graph.Graph) []int {
	n := g.Order()
	counts := make([]int, n)
	adj := make([]map[int64]bool, n)
	for id := range adj {
		adj[id] = make(map[int64]bool)
		for _, nid := range g.NeighborIDs(int64(id)) {
			adj[id][nid] = true
		}
	}

	for u := range n {
		for _, v := range g.NeighborIDs(int64(u)) {
			if v <= int64(u) {
				continue
			}
			for _, w := range g.NeighborIDs(v) {
				if w <= v || !adj[u][w] {
					continue
				}
				counts[u]++
				counts[v]++
				counts[w]++
			}
		}
	}
	return counts
}
