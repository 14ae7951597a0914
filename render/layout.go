package render

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/mds"

	"github.com/brunobiangulo/sociograph/graph"
)

// LayoutScale converts hop distances into renderer units.
const LayoutScale = 100.0

// Point is a 2-D layout position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout places every node by classical multidimensional scaling of the
// hop-distance matrix. Unreachable pairs are treated as one hop further
// apart than the longest finite distance. Graphs with fewer than two
// nodes, or whose scaling fails, are placed at the origin.
func Layout(g *graph.Graph) map[string]Point {
	n := g.Order()
	out := make(map[string]Point, n)
	for _, a := range g.Actors() {
		out[a.Name] = Point{}
	}
	if n < 2 {
		return out
	}

	paths := path.DijkstraAllPaths(g.Undirected())
	dist := make([][]float64, n)
	maxFinite := 0.0
	for i := range n {
		dist[i] = make([]float64, n)
		for j := range n {
			w := paths.Weight(int64(i), int64(j))
			dist[i][j] = w
			if !math.IsInf(w, 1) && w > maxFinite {
				maxFinite = w
			}
		}
	}

	dis := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			d := dist[i][j]
			if math.IsInf(d, 1) {
				d = maxFinite + 1
			}
			dis.SetSym(i, j, d)
		}
	}

	var coords mat.Dense
	k, _ := mds.TorgersonScaling(&coords, nil, dis)
	if k == 0 || coords.IsEmpty() {
		return out
	}
	rows, cols := coords.Dims()
	for id, a := range g.Actors() {
		if id >= rows {
			break
		}
		var pt Point
		pt.X = coords.At(id, 0) * LayoutScale
		if cols > 1 && k > 1 {
			pt.Y = coords.At(id, 1) * LayoutScale
		}
		out[a.Name] = pt
	}
	return out
}
