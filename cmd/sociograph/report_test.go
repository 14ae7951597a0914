package main

import (
	"context"
	"strings"
	"testing"

	"github.com/brunobiangulo/sociograph"
	"github.com/brunobiangulo/sociograph/parser"
	"github.com/brunobiangulo/sociograph/store"
)

func visualize(t *testing.T) *sociograph.Result {
	t.Helper()
	cfg := sociograph.DefaultConfig()
	cfg.SkipStore = true
	e, err := sociograph.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	tbl := &parser.Table{
		Columns: []string{"name", "text"},
		Rows: [][]string{
			{"alice", "@bob @carol"},
			{"bob", "@carol"},
			{"dave", "@erin"},
		},
	}
	res, err := e.Visualize(context.Background(), tbl, sociograph.Request{})
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}
	return res
}

func TestReport(t *testing.T) {
	out := report(visualize(t), 3)

	for _, want := range []string{
		"sociograph louvain",
		"5 actors, 4 interactions, 2 communities",
		"Communities",
		"Top actors by Degree",
		"alice",
		"60%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	// rank 3 keeps the three triangle members and drops the pair.
	if strings.Contains(out, "erin") {
		t.Errorf("report ranks more than 3 actors:\n%s", out)
	}
}

func TestRunsTable(t *testing.T) {
	if got := runsTable(nil); !strings.Contains(got, "no recorded runs") {
		t.Errorf("runsTable(nil) = %q", got)
	}
	got := runsTable([]store.Run{{ID: "r-1", Source: "tweets.csv", Algorithm: "louvain", Nodes: 1200, Modularity: 0.5}})
	for _, want := range []string{"r-1", "tweets.csv", "1,200", "0.5000"} {
		if !strings.Contains(got, want) {
			t.Errorf("runsTable missing %q:\n%s", want, got)
		}
	}
}

func TestShare(t *testing.T) {
	if got := share(1, 3); got != "33.3%" {
		t.Errorf("share(1, 3) = %q, want 33.3%%", got)
	}
	if got := share(0, 0); got != "0%" {
		t.Errorf("share(0, 0) = %q, want 0%%", got)
	}
}
