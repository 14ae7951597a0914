package sociograph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/sociograph/community"
	"github.com/brunobiangulo/sociograph/parser"
	"github.com/brunobiangulo/sociograph/render"
)

func newTestEngine(t *testing.T, mutate ...func(*Config)) Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SkipStore = true
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// tweets has two clusters: alice, bob and carol, and dave with erin.
func tweets() *parser.Table {
	return &parser.Table{
		Columns: []string{"name", "text"},
		Rows: [][]string{
			{"alice", "hi @bob and @carol"},
			{"bob", "@alice @carol lunch?"},
			{"dave", "hello @erin"},
		},
		Source: "tweets.csv",
	}
}

func TestVisualizeContentTable(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Visualize(context.Background(), tweets(), Request{})
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if res.Shape != "content" {
		t.Errorf("Shape = %q, want content", res.Shape)
	}
	if res.Algorithm != community.NameLouvain {
		t.Errorf("Algorithm = %q, want the default %q", res.Algorithm, community.NameLouvain)
	}
	if res.Nodes != 5 || res.Edges != 4 {
		t.Errorf("graph = %d nodes/%d edges, want 5/4", res.Nodes, res.Edges)
	}
	if len(res.Render.Nodes) != 5 || len(res.Render.Edges) != 4 {
		t.Errorf("render graph = %d nodes/%d edges, want 5/4",
			len(res.Render.Nodes), len(res.Render.Edges))
	}
	if len(res.Partition) != 5 {
		t.Errorf("partition covers %d actors, want 5", len(res.Partition))
	}
	if res.Partition["alice"] == res.Partition["dave"] {
		t.Error("disconnected clusters share a community")
	}

	for _, n := range res.Render.Nodes {
		if n.Size < render.DefaultMinSize || n.Size > render.DefaultMaxSize {
			t.Errorf("node %s size %v outside [%v, %v]",
				n.Label, n.Size, render.DefaultMinSize, render.DefaultMaxSize)
		}
		if n.X != nil {
			t.Errorf("node %s has a position without layout", n.Label)
		}
	}
}

func TestVisualizeRelationalTable(t *testing.T) {
	e := newTestEngine(t)
	tbl := &parser.Table{
		Columns: []string{"who", "to_whom", "interaction_type", "who_username", "to_whom_username"},
		Rows: [][]string{
			{"u1", "u2", "reply", "ann", "ben"},
			{"u2", "u3", "like", "ben", ""},
		},
	}

	req := Request{Algorithm: AlgorithmConfig{Name: "Label Propagation"}, Layout: true}
	res, err := e.Visualize(context.Background(), tbl, req)
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}
	if res.Shape != "relational" || res.Algorithm != community.NameLabelPropagation {
		t.Errorf("Shape/Algorithm = %q/%q", res.Shape, res.Algorithm)
	}
	if _, ok := res.Partition["u3"]; !ok {
		t.Errorf("partition = %v, want u3 named by id", res.Partition)
	}
	for _, n := range res.Render.Nodes {
		if n.X == nil || n.Y == nil {
			t.Errorf("node %s has no position with layout enabled", n.Label)
		}
	}
}

func TestVisualizeMinSizeOnly(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Visualize(context.Background(), tweets(), Request{MinNodeSize: 20})
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}
	for _, n := range res.Render.Nodes {
		if n.Size < 20 || n.Size > render.DefaultMaxSize {
			t.Errorf("node %s size %v outside [20, %v]", n.Label, n.Size, render.DefaultMaxSize)
		}
	}
}

func TestVisualizeTopNeighbourSeedCount(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Visualize(context.Background(), tweets(), Request{TopNeighbourSeedCount: 1})
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}
	// The top actor and its neighbours; dave and erin are dropped.
	if res.Nodes != 3 {
		t.Errorf("Nodes = %d, want 3", res.Nodes)
	}
	if _, ok := res.Partition["dave"]; ok {
		t.Error("dave survived top-1 extraction")
	}
}

func TestVisualizeErrors(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		table *parser.Table
		req   Request
		want  error
	}{
		{"unknown columns", &parser.Table{Columns: []string{"foo"}}, Request{}, ErrSchema},
		{"no rows", &parser.Table{Columns: []string{"name", "text"}}, Request{}, ErrEmptyGraph},
		{"inverted sizes", tweets(), Request{MinNodeSize: 40, MaxNodeSize: 10}, ErrInvalidParameter},
		{"negative top", tweets(), Request{TopNeighbourSeedCount: -1}, ErrInvalidParameter},
		{"unknown algorithm", tweets(), Request{Algorithm: AlgorithmConfig{Name: "spectral"}}, ErrUnknownAlgorithm},
		{"unknown metric", tweets(), Request{NodeSizeMetric: render.Metric(99)}, ErrUnknownMetric},
		{"foreign parameter", tweets(), Request{Algorithm: AlgorithmConfig{
			Name: community.NameGirvanNewman, Params: community.Params{Resolution: 2},
		}}, ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Visualize(ctx, tt.table, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Visualize() error = %v, want %v", err, tt.want)
			}
			if !IsInputError(err) {
				t.Errorf("IsInputError(%v) = false", err)
			}
		})
	}
}

func TestVisualizeNodeCaps(t *testing.T) {
	ctx := context.Background()

	small := newTestEngine(t, func(c *Config) { c.MaxNodes = 4 })
	if _, err := small.Visualize(ctx, tweets(), Request{}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("MaxNodes cap: error = %v, want ErrInvalidParameter", err)
	}

	gn := newTestEngine(t, func(c *Config) { c.MaxGirvanNewmanNodes = 4 })
	req := Request{Algorithm: AlgorithmConfig{Name: community.NameGirvanNewman}}
	if _, err := gn.Visualize(ctx, tweets(), req); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("girvan newman cap: error = %v, want ErrInvalidParameter", err)
	}
	if _, err := gn.Visualize(ctx, tweets(), Request{}); err != nil {
		t.Errorf("louvain should ignore the girvan newman cap: %v", err)
	}
}

func TestVisualizeCancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Visualize(ctx, tweets(), Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestResultTop(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Visualize(context.Background(), tweets(), Request{})
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}

	top := res.Top(render.Degree, 2)
	if len(top) != 2 {
		t.Fatalf("Top(2) returned %d actors", len(top))
	}
	// alice and bob both have degree 2; ties sort by name.
	if top[0].Actor != "alice" || top[1].Actor != "bob" {
		t.Errorf("Top(degree, 2) = [%s %s], want [alice bob]", top[0].Actor, top[1].Actor)
	}
	if all := res.Top(render.PageRank, 0); len(all) != 5 {
		t.Errorf("Top(pagerank, 0) returned %d actors, want 5", len(all))
	}
}

func TestVisualizeFile(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	ctx := context.Background()

	csvPath := filepath.Join(dir, "tweets.csv")
	if err := os.WriteFile(csvPath, []byte("name,text\nalice,hey @bob\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := e.VisualizeFile(ctx, csvPath, Request{})
	if err != nil {
		t.Fatalf("VisualizeFile: %v", err)
	}
	if res.Source != "tweets.csv" || res.Nodes != 2 {
		t.Errorf("Source/Nodes = %q/%d, want tweets.csv/2", res.Source, res.Nodes)
	}

	pdfPath := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := e.VisualizeFile(ctx, pdfPath, Request{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("pdf: error = %v, want ErrUnsupportedFormat", err)
	}

	if _, err := e.VisualizeFile(ctx, filepath.Join(dir, "missing.csv"), Request{}); !errors.Is(err, ErrParsingFailed) {
		t.Errorf("missing file: error = %v, want ErrParsingFailed", err)
	}
}

func TestRunLogDisabled(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if e.Store() != nil {
		t.Error("Store() should be nil with SkipStore")
	}
	if _, err := e.ListRuns(ctx, 10); !errors.Is(err, ErrStoreDisabled) {
		t.Errorf("ListRuns error = %v, want ErrStoreDisabled", err)
	}
	if _, err := e.GetRun(ctx, "x"); !errors.Is(err, ErrStoreDisabled) {
		t.Errorf("GetRun error = %v, want ErrStoreDisabled", err)
	}
	if err := e.DeleteRun(ctx, "x"); !errors.Is(err, ErrStoreDisabled) {
		t.Errorf("DeleteRun error = %v, want ErrStoreDisabled", err)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(tweets(), Request{})
	if a != Fingerprint(tweets(), Request{}) {
		t.Error("Fingerprint is not stable")
	}
	if a == Fingerprint(tweets(), Request{Layout: true}) {
		t.Error("Fingerprint ignores the request")
	}

	path := filepath.Join(t.TempDir(), "t.csv")
	if err := os.WriteFile(path, []byte("name,text\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f1, err := FileFingerprint(path, Request{})
	if err != nil {
		t.Fatalf("FileFingerprint: %v", err)
	}
	f2, _ := FileFingerprint(path, Request{})
	if f1 != f2 || len(f1) != 64 {
		t.Errorf("FileFingerprint = %q/%q, want equal sha256 hex", f1, f2)
	}
}
