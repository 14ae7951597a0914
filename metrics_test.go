package sociograph

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/brunobiangulo/sociograph/parser"
)

func TestPipelineMetrics(t *testing.T) {
	e := newTestEngine(t)
	before := testutil.ToFloat64(pipeline().runs.WithLabelValues("louvain", "ok"))

	if _, err := e.Visualize(context.Background(), tweets(), Request{}); err != nil {
		t.Fatalf("Visualize: %v", err)
	}

	if got := testutil.ToFloat64(pipeline().runs.WithLabelValues("louvain", "ok")); got != before+1 {
		t.Errorf("runs_total{louvain,ok} = %v, want %v", got, before+1)
	}
	// normalize, graph, community, stats and render each observed.
	if n := testutil.CollectAndCount(pipeline().stageDuration); n < 5 {
		t.Errorf("stage_duration_seconds has %d series, want >= 5", n)
	}

	families, err := MetricsRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "sociograph_pipeline_graph_nodes" {
			found = true
		}
	}
	if !found {
		t.Error("registry does not expose sociograph_pipeline_graph_nodes")
	}
}

func TestRejectedRunsCounted(t *testing.T) {
	e := newTestEngine(t)
	counter := pipeline().runs.WithLabelValues("louvain", "rejected")
	before := testutil.ToFloat64(counter)

	bad := &parser.Table{Columns: []string{"foo"}, Rows: [][]string{{"x"}}}
	if _, err := e.Visualize(context.Background(), bad, Request{}); err == nil {
		t.Fatal("Visualize accepted a table without known columns")
	}

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("runs_total{louvain,rejected} = %v, want %v", got, before+1)
	}
}
