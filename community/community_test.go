package community

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/graph"
)

func link(a, b string) graph.Interaction {
	return graph.Interaction{A: graph.NewActor(a), B: graph.NewActor(b), Type: graph.InteractionMention}
}

// twoTriangles returns two disjoint triangles a-b-c and x-y-z.
func twoTriangles() *graph.Graph {
	return graph.Build(nil, []graph.Interaction{
		link("a", "b"), link("b", "c"), link("c", "a"),
		link("x", "y"), link("y", "z"), link("z", "x"),
	})
}

// bridged returns two triangles joined by the edge c-x.
func bridged() *graph.Graph {
	g := twoTriangles()
	g.AddInteraction(link("c", "x"))
	return g
}

func algorithms(t *testing.T) []Algorithm {
	t.Helper()
	var out []Algorithm
	for _, name := range Names() {
		alg, err := Parse(name, Params{})
		if err != nil {
			t.Fatalf("Parse(%q): %v", name, err)
		}
		out = append(out, alg)
	}
	return out
}

func assertCovers(t *testing.T, g *graph.Graph, p Partition) {
	t.Helper()
	if len(p) != g.Order() {
		t.Errorf("partition has %d entries, graph has %d nodes", len(p), g.Order())
	}
	for _, a := range g.Actors() {
		if _, ok := p[a.Name]; !ok {
			t.Errorf("partition missing node %s", a)
		}
	}
	k := p.Count()
	for name, c := range p {
		if c < 0 || c >= k {
			t.Errorf("node %s has community %d, want dense id in [0,%d)", name, c, k)
		}
	}
}

func sameCommunity(p Partition, names ...string) bool {
	for _, n := range names[1:] {
		if p[n] != p[names[0]] {
			return false
		}
	}
	return true
}

func TestDetectCoversEveryNode(t *testing.T) {
	graphs := map[string]*graph.Graph{
		"triangles": twoTriangles(),
		"bridged":   bridged(),
		"isolated":  graph.Build([]graph.Actor{graph.NewActor("solo"), graph.NewActor("other")}, nil),
	}
	withIsolate := bridged()
	withIsolate.AddActor(graph.NewActor("lonely"))
	graphs["bridged+isolate"] = withIsolate

	for gname, g := range graphs {
		for _, alg := range algorithms(t) {
			t.Run(gname+"/"+alg.Name(), func(t *testing.T) {
				p, err := Detect(g, alg)
				if err != nil {
					t.Fatalf("Detect: %v", err)
				}
				assertCovers(t, g, p)
			})
		}
	}
}

func TestDetectIsolatedNodesAreSingletons(t *testing.T) {
	g := twoTriangles()
	g.AddActor(graph.NewActor("lonely"))
	g.AddActor(graph.NewActor("alone"))

	for _, alg := range algorithms(t) {
		p, err := Detect(g, alg)
		if err != nil {
			t.Fatalf("%s: Detect: %v", alg.Name(), err)
		}
		if p["lonely"] == p["alone"] {
			t.Errorf("%s: isolated nodes share community %d", alg.Name(), p["lonely"])
		}
		for _, other := range []string{"a", "x"} {
			if p["lonely"] == p[other] {
				t.Errorf("%s: isolated node grouped with %s", alg.Name(), other)
			}
		}
	}
}

func TestDetectEmptyGraph(t *testing.T) {
	for _, alg := range algorithms(t) {
		p, err := Detect(graph.New(), alg)
		if err != nil {
			t.Fatalf("%s: Detect(empty): %v", alg.Name(), err)
		}
		if len(p) != 0 {
			t.Errorf("%s: Detect(empty) = %v, want empty", alg.Name(), p)
		}
	}
}

func TestLouvainTwoTriangles(t *testing.T) {
	g := twoTriangles()
	p, err := Detect(g, Louvain{Resolution: 1})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if p.Count() != 2 {
		t.Fatalf("got %d communities, want 2: %v", p.Count(), p)
	}
	if !sameCommunity(p, "a", "b", "c") || !sameCommunity(p, "x", "y", "z") {
		t.Errorf("triangles split across communities: %v", p)
	}
	if p["a"] != 0 || p["x"] != 1 {
		t.Errorf("ids not numbered by first appearance: %v", p)
	}
}

func TestLouvainDeterministicWithoutRandomize(t *testing.T) {
	g := bridged()
	first, err := Detect(g, Louvain{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Detect(g, Louvain{})
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		for name, c := range first {
			if again[name] != c {
				t.Fatalf("run %d: %s moved from %d to %d", i, name, c, again[name])
			}
		}
	}
}

func TestLouvainZeroResolutionMeansDefault(t *testing.T) {
	alg, err := Parse(NameLouvain, Params{Resolution: 0})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := alg.(Louvain).resolution(); got != DefaultResolution {
		t.Errorf("resolution() = %v, want %v", got, DefaultResolution)
	}
	if _, err := Parse(NameLouvain, Params{Resolution: -0.5}); !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("negative resolution error = %v, want ErrInvalidParameter", err)
	}
}

func TestLouvainCountWeight(t *testing.T) {
	g := bridged()
	for i := 0; i < 3; i++ {
		g.AddInteraction(link("a", "b"))
	}
	p, err := Detect(g, Louvain{Weight: WeightCount})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	assertCovers(t, g, p)
	if p["a"] != p["b"] {
		t.Errorf("heavily weighted pair a-b split: %v", p)
	}
}

func TestLabelPropagationTwoTriangles(t *testing.T) {
	p, err := Detect(twoTriangles(), LabelPropagation{})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if p.Count() != 2 {
		t.Fatalf("got %d communities, want 2: %v", p.Count(), p)
	}
	if !sameCommunity(p, "a", "b", "c") || !sameCommunity(p, "x", "y", "z") {
		t.Errorf("triangles split across communities: %v", p)
	}
}

func TestGirvanNewmanBridge(t *testing.T) {
	p, err := Detect(bridged(), GirvanNewman{MaxCommunities: 2})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if p.Count() != 2 {
		t.Fatalf("got %d communities, want 2: %v", p.Count(), p)
	}
	if !sameCommunity(p, "a", "b", "c") || !sameCommunity(p, "x", "y", "z") || p["a"] == p["x"] {
		t.Errorf("bridge not cut: %v", p)
	}
}

func TestGirvanNewmanRunsOutOfEdges(t *testing.T) {
	g := graph.Build(nil, []graph.Interaction{link("a", "b")})
	p, err := Detect(g, GirvanNewman{MaxCommunities: 10})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if p.Count() != 2 {
		t.Errorf("got %d communities, want 2 once edges are exhausted", p.Count())
	}
}

// grid returns a rows×cols lattice, which has many edges of equal
// betweenness.
func grid(rows, cols int) *graph.Graph {
	name := func(r, c int) string { return fmt.Sprintf("n%d_%d", r, c) }
	var in []graph.Interaction
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				in = append(in, link(name(r, c), name(r, c+1)))
			}
			if r+1 < rows {
				in = append(in, link(name(r, c), name(r+1, c)))
			}
		}
	}
	return graph.Build(nil, in)
}

func TestGirvanNewmanGridIsDeterministic(t *testing.T) {
	g := grid(6, 7)
	first, err := Detect(g, GirvanNewman{MaxCommunities: 5})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	assertCovers(t, g, first)

	for run := 1; run < 40; run++ {
		p, err := Detect(g, GirvanNewman{MaxCommunities: 5})
		if err != nil {
			t.Fatalf("run %d: Detect: %v", run, err)
		}
		for name, c := range first {
			if p[name] != c {
				t.Fatalf("run %d: %s in community %d, first run had %d", run, name, p[name], c)
			}
		}
	}
}

func TestTied(t *testing.T) {
	if !tied(10, 10+1e-12) {
		t.Error("scores differing in the last bits should tie")
	}
	if tied(10, 10.001) {
		t.Error("distinct scores should not tie")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"louvain", NameLouvain},
		{"Louvain", NameLouvain},
		{"Label Propagation", NameLabelPropagation},
		{"label_propagation", NameLabelPropagation},
		{"Girvan-Newman", NameGirvanNewman},
		{"girvan newman", NameGirvanNewman},
	}
	for _, tt := range tests {
		alg, err := Parse(tt.name, Params{})
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.name, err)
			continue
		}
		if alg.Name() != tt.want {
			t.Errorf("Parse(%q).Name() = %q, want %q", tt.name, alg.Name(), tt.want)
		}
	}
}

func TestParseUnknownAlgorithm(t *testing.T) {
	_, err := Parse("spectral", Params{})
	if !errors.Is(err, errs.ErrUnknownAlgorithm) {
		t.Fatalf("Parse(spectral) error = %v, want ErrUnknownAlgorithm", err)
	}
	var ue *errs.UnknownAlgorithmError
	if !errors.As(err, &ue) || ue.Name != "spectral" {
		t.Errorf("error = %#v, want UnknownAlgorithmError{spectral}", err)
	}
}

func TestParseInvalidParameters(t *testing.T) {
	tests := []struct {
		desc  string
		name  string
		p     Params
		param string
	}{
		{"negative resolution", NameLouvain, Params{Resolution: -1}, "resolution"},
		{"nan resolution", NameLouvain, Params{Resolution: math.NaN()}, "resolution"},
		{"unknown weight", NameLouvain, Params{Weight: "likes"}, "weight"},
		{"foreign max_communities", NameLouvain, Params{MaxCommunities: 3}, "max_communities"},
		{"too few communities", NameGirvanNewman, Params{MaxCommunities: 1}, "max_communities"},
		{"foreign resolution", NameGirvanNewman, Params{Resolution: 1}, "resolution"},
		{"foreign seed", NameLabelPropagation, Params{Seed: 4}, "seed"},
		{"foreign max_communities lp", NameLabelPropagation, Params{MaxCommunities: 2}, "max_communities"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := Parse(tt.name, tt.p)
			var pe *errs.InvalidParameterError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse error = %v, want InvalidParameterError", err)
			}
			if pe.Name != tt.param {
				t.Errorf("InvalidParameterError.Name = %q, want %q", pe.Name, tt.param)
			}
		})
	}
}

func TestDetectValidatesDirectConstruction(t *testing.T) {
	_, err := Detect(twoTriangles(), GirvanNewman{MaxCommunities: 1})
	if !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("Detect error = %v, want ErrInvalidParameter", err)
	}
	if _, err := Detect(twoTriangles(), nil); !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("Detect(nil algorithm) error = %v, want ErrInvalidParameter", err)
	}
}

func TestModularity(t *testing.T) {
	g := twoTriangles()
	p := Partition{"a": 0, "b": 0, "c": 0, "x": 1, "y": 1, "z": 1}
	if q := Modularity(g, p); math.Abs(q-0.5) > 1e-9 {
		t.Errorf("Modularity = %v, want 0.5", q)
	}

	one := Partition{"a": 0, "b": 0, "c": 0, "x": 0, "y": 0, "z": 0}
	if q := Modularity(g, one); math.Abs(q) > 1e-9 {
		t.Errorf("Modularity(single community) = %v, want 0", q)
	}

	if q := Modularity(graph.Build([]graph.Actor{graph.NewActor("a")}, nil), Partition{"a": 0}); q != 0 {
		t.Errorf("Modularity(edgeless) = %v, want 0", q)
	}
}

func TestSizes(t *testing.T) {
	p := Partition{"a": 1, "b": 1, "c": 0, "d": 2, "e": 2, "f": 2}
	got := Sizes(p)
	want := []CommunitySize{{ID: 2, Size: 3}, {ID: 1, Size: 2}, {ID: 0, Size: 1}}
	if len(got) != len(want) {
		t.Fatalf("Sizes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sizes[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if m := p.Members(1); len(m) != 2 || m[0] != "a" || m[1] != "b" {
		t.Errorf("Members(1) = %v, want [a b]", m)
	}
}
