package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/graph"
)

const eps = 1e-6

func link(a, b string) graph.Interaction {
	return graph.Interaction{A: graph.NewActor(a), B: graph.NewActor(b)}
}

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func pathABC() *graph.Graph {
	return graph.Build(nil, []graph.Interaction{link("A", "B"), link("B", "C")})
}

func TestComputePath(t *testing.T) {
	s, err := Compute(pathABC())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	wantDegree := map[string]float64{"A": 0.5, "B": 1.0, "C": 0.5}
	for name, want := range wantDegree {
		if got := s.Degree[name]; !near(got, want) {
			t.Errorf("Degree[%s] = %v, want %v", name, got, want)
		}
	}
	for name, c := range s.Clustering {
		if c != 0 {
			t.Errorf("Clustering[%s] = %v, want 0", name, c)
		}
	}

	if !near(s.Closeness["B"], 1) {
		t.Errorf("Closeness[B] = %v, want 1", s.Closeness["B"])
	}
	if !near(s.Closeness["A"], 2.0/3.0) {
		t.Errorf("Closeness[A] = %v, want 2/3", s.Closeness["A"])
	}

	b := s.Betweenness
	if b["B"] <= 0 || b["B"] > 1 {
		t.Errorf("Betweenness[B] = %v, want in (0,1]", b["B"])
	}
	if b["A"] != 0 || b["C"] != 0 {
		t.Errorf("Betweenness endpoints = %v/%v, want 0", b["A"], b["C"])
	}
	if s.PageRank["B"] <= s.PageRank["A"] {
		t.Errorf("PageRank[B] = %v not above PageRank[A] = %v", s.PageRank["B"], s.PageRank["A"])
	}
	if !near(s.PageRank["A"], s.PageRank["C"]) {
		t.Errorf("PageRank of symmetric endpoints differ: %v vs %v", s.PageRank["A"], s.PageRank["C"])
	}
}

func TestComputeTriangle(t *testing.T) {
	g := graph.Build(nil, []graph.Interaction{
		link("a", "b"), link("b", "c"), link("c", "a"), link("c", "d"),
	})
	s, err := Compute(g)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	wantTriangles := map[string]int{"a": 1, "b": 1, "c": 1, "d": 0}
	for name, want := range wantTriangles {
		if got := s.Triangles[name]; got != want {
			t.Errorf("Triangles[%s] = %d, want %d", name, got, want)
		}
	}
	wantClustering := map[string]float64{"a": 1, "b": 1, "c": 1.0 / 3.0, "d": 0}
	for name, want := range wantClustering {
		if got := s.Clustering[name]; !near(got, want) {
			t.Errorf("Clustering[%s] = %v, want %v", name, got, want)
		}
	}
}

func TestComputeRanges(t *testing.T) {
	g := graph.Build([]graph.Actor{graph.NewActor("isolated")}, []graph.Interaction{
		link("a", "b"), link("b", "c"), link("c", "d"), link("d", "a"), link("a", "c"),
		link("x", "y"),
	})
	s, err := Compute(g)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	sum := 0.0
	for _, r := range s.PageRank {
		sum += r
	}
	if !near(sum, 1) {
		t.Errorf("PageRank sums to %v, want 1", sum)
	}

	for _, m := range []map[string]float64{s.Degree, s.Closeness, s.Betweenness, s.Clustering} {
		if len(m) != g.Order() {
			t.Errorf("measure has %d entries, want %d", len(m), g.Order())
		}
		for name, v := range m {
			if v < 0 || v > 1+eps || math.IsNaN(v) {
				t.Errorf("measure for %s = %v, want in [0,1]", name, v)
			}
		}
	}
	if s.Closeness["isolated"] != 0 {
		t.Errorf("Closeness[isolated] = %v, want 0", s.Closeness["isolated"])
	}
}

func TestComputeSingleNode(t *testing.T) {
	g := graph.Build([]graph.Actor{graph.NewActor("solo")}, nil)
	s, err := Compute(g)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	n := s.Node("solo")
	if n.PageRank != 1 {
		t.Errorf("PageRank = %v, want 1", n.PageRank)
	}
	if n.Degree != 0 || n.Closeness != 0 || n.Betweenness != 0 || n.Clustering != 0 || n.Triangles != 0 {
		t.Errorf("single node measures = %+v, want zero centralities", n)
	}
}

func TestComputeEmptyGraph(t *testing.T) {
	_, err := Compute(graph.New())
	if !errors.Is(err, errs.ErrEmptyGraph) {
		t.Fatalf("Compute(empty) error = %v, want ErrEmptyGraph", err)
	}
}
