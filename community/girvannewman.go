package community

import (
	"math"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/graph"
)

// DefaultMaxCommunities is used when GirvanNewman.MaxCommunities is zero.
const DefaultMaxCommunities = 5

// GirvanNewman is divisive clustering by edge betweenness. The edge with
// the highest betweenness is removed, ties going to the lowest endpoint
// pair, and betweenness is recomputed, until the graph falls apart into
// MaxCommunities components or runs out of edges.
//
// Each removal costs O(V·E), so the whole run is O(V·E²).
type GirvanNewman struct {
	MaxCommunities int
}

func (GirvanNewman) Name() string { return NameGirvanNewman }

func (gn GirvanNewman) validate() error {
	if gn.MaxCommunities != 0 && gn.MaxCommunities < 2 {
		return errs.Invalid("max_communities", gn.MaxCommunities, "must be >= 2")
	}
	return nil
}

func (gn GirvanNewman) target() int {
	if gn.MaxCommunities == 0 {
		return DefaultMaxCommunities
	}
	return gn.MaxCommunities
}

func (gn GirvanNewman) labels(g *graph.Graph) []int {
	work := simple.NewUndirectedGraph()
	gonum.Copy(work, g.Undirected())

	target := gn.target()
	comps := topo.ConnectedComponents(work)
	for len(comps) < target && work.Edges().Len() > 0 {
		u, v := maxBetweennessEdge(work)
		work.RemoveEdge(u, v)
		comps = topo.ConnectedComponents(work)
	}
	return fromNodes(comps, g.Order())
}

// betweennessTolerance is the relative difference below which two
// betweenness scores are treated as equal. gonum accumulates scores in
// map order, so equal scores can differ in the last bits.
const betweennessTolerance = 1e-9

// maxBetweennessEdge returns the endpoints of the edge with the highest
// betweenness, lower id first. Among edges within tolerance of the
// maximum the lowest endpoint pair wins.
func maxBetweennessEdge(g *simple.UndirectedGraph) (int64, int64) {
	scores := make(map[[2]int64]float64)
	for k, b := range network.EdgeBetweenness(g) {
		if k[0] > k[1] {
			k[0], k[1] = k[1], k[0]
		}
		scores[k] += b
	}

	var keys [][2]int64
	maxScore := math.Inf(-1)
	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge()
		k := [2]int64{e.From().ID(), e.To().ID()}
		if k[0] > k[1] {
			k[0], k[1] = k[1], k[0]
		}
		keys = append(keys, k)
		maxScore = math.Max(maxScore, scores[k])
	}

	var best [2]int64
	found := false
	for _, k := range keys {
		if !tied(scores[k], maxScore) {
			continue
		}
		if !found || pairLess(k, best) {
			best, found = k, true
		}
	}
	return best[0], best[1]
}

func tied(a, b float64) bool {
	return math.Abs(a-b) <= betweennessTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func pairLess(a, b [2]int64) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}
