// Package sociograph builds social interaction graphs from tabular
// records, detects communities, computes centrality measures and
// assembles a styled graph for an external renderer. Finished runs are
// optionally recorded in a SQLite run log.
package sociograph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/brunobiangulo/sociograph/community"
	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/graph"
	"github.com/brunobiangulo/sociograph/normalize"
	"github.com/brunobiangulo/sociograph/parser"
	"github.com/brunobiangulo/sociograph/render"
	"github.com/brunobiangulo/sociograph/stats"
	"github.com/brunobiangulo/sociograph/store"
)

// Engine is the main entry point for building visualizations.
type Engine interface {
	// Visualize runs the whole pipeline over an in-memory table.
	Visualize(ctx context.Context, t *parser.Table, req Request) (*Result, error)

	// VisualizeFile reads a CSV, TSV, XLSX or JSON file and visualizes it.
	VisualizeFile(ctx context.Context, path string, req Request) (*Result, error)

	// ListRuns returns recorded runs, newest first. limit <= 0 returns all.
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)

	// GetRun returns a recorded run with its community sizes and
	// per-actor measures.
	GetRun(ctx context.Context, id string) (*RunDetail, error)

	// SimilarActors returns the k actors of a run whose measures are
	// closest to actor's.
	SimilarActors(ctx context.Context, runID, actor string, k int) ([]store.SimilarActor, error)

	// DeleteRun removes a recorded run.
	DeleteRun(ctx context.Context, id string) error

	// Store returns the run log, or nil when it is disabled.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID       string                    `json:"run_id"`
	Source      string                    `json:"source,omitempty"`
	Shape       string                    `json:"shape"`
	Algorithm   string                    `json:"algorithm"`
	Metric      render.Metric             `json:"metric"`
	Render      *render.RenderGraph       `json:"render"`
	Partition   community.Partition       `json:"partition"`
	Communities []community.CommunitySize `json:"communities"`
	Modularity  float64                   `json:"modularity"`
	Stats       *stats.GraphStats         `json:"stats"`
	Nodes       int                       `json:"nodes"`
	Edges       int                       `json:"edges"`
	ElapsedMs   int64                     `json:"elapsed_ms"`
}

// Top returns the n actors ranked highest by metric m, ties broken by
// name. n <= 0 returns every actor.
func (r *Result) Top(m render.Metric, n int) []stats.NodeStats {
	values, err := m.Values(r.Stats)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if values[names[i]] != values[names[j]] {
			return values[names[i]] > values[names[j]]
		}
		return names[i] < names[j]
	})
	if n > 0 && n < len(names) {
		names = names[:n]
	}

	out := make([]stats.NodeStats, len(names))
	for i, name := range names {
		out[i] = r.Stats.Node(name)
	}
	return out
}

// RunDetail is a recorded run with everything stored for it.
type RunDetail struct {
	store.Run
	CommunitySizes []store.RunCommunity `json:"community_sizes"`
	Actors         []store.ActorStat    `json:"actors"`
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg     Config
	store   *store.Store
	parsers *parser.Registry
}

// New creates a new engine with the given configuration.
func New(cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &engine{cfg: cfg, parsers: parser.NewRegistry()}
	if cfg.SkipStore {
		slog.Info("sociograph: run log disabled")
		return e, nil
	}

	dbPath := cfg.resolveDBPath()
	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	e.store = s
	slog.Info("sociograph: run log opened", "path", dbPath)
	return e, nil
}

// VisualizeFile reads path with the parser matching its extension.
func (e *engine) VisualizeFile(ctx context.Context, path string, req Request) (*Result, error) {
	t, err := readTable(ctx, e.parsers, path)
	if err != nil {
		return nil, err
	}
	return e.Visualize(ctx, t, req)
}

// ReadTable reads a CSV, TSV, XLSX or JSON file into a Table, choosing the
// reader by extension.
func ReadTable(ctx context.Context, path string) (*parser.Table, error) {
	return readTable(ctx, parser.NewRegistry(), path)
}

func readTable(ctx context.Context, parsers *parser.Registry, path string) (*parser.Table, error) {
	format := parser.FormatOf(path)
	if _, err := parsers.Get(format); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	done := timeStage("parse")
	t, err := parsers.ReadFile(ctx, path)
	elapsed := done()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	slog.Info("visualize: input read",
		"file", t.Source, "format", format, "rows", t.Len(), "columns", len(t.Columns),
		"elapsed", elapsed.Round(time.Millisecond))
	return t, nil
}

// Visualize runs normalisation, graph construction, optional subgraph
// extraction, community detection, statistics, sizing and assembly.
func (e *engine) Visualize(ctx context.Context, t *parser.Table, req Request) (*Result, error) {
	start := time.Now()
	req = req.withDefaults(e.cfg.Defaults)
	alg, err := req.compile()
	if err != nil {
		return nil, err
	}

	res, err := e.run(ctx, t, req, alg)
	status := "ok"
	if err != nil {
		status = "error"
		if errs.IsInput(err) {
			status = "rejected"
		}
	}
	pipeline().runs.WithLabelValues(alg.Name(), status).Inc()
	if err != nil {
		return nil, err
	}

	res.ElapsedMs = time.Since(start).Milliseconds()
	slog.Info("visualize: complete",
		"run_id", res.RunID, "algorithm", res.Algorithm,
		"nodes", res.Nodes, "edges", res.Edges, "communities", len(res.Communities),
		"modularity", res.Modularity, "elapsed_ms", res.ElapsedMs)

	e.record(ctx, res, req)
	return res, nil
}

func (e *engine) run(ctx context.Context, t *parser.Table, req Request, alg community.Algorithm) (*Result, error) {
	if t == nil {
		return nil, errs.Invalid("table", nil, "no input table")
	}
	if req.SampleRows > 0 {
		t = t.Sample(req.SampleRows, req.SampleSeed)
		slog.Debug("visualize: sampled rows", "rows", t.Len(), "seed", req.SampleSeed)
	}

	done := timeStage("normalize")
	rec, err := normalize.Normalize(t)
	done()
	if err != nil {
		return nil, err
	}

	done = timeStage("graph")
	g := graph.Build(rec.Actors, rec.Interactions)
	if req.TopNeighbourSeedCount > 0 {
		g = g.TopDegreeSubgraph(req.TopNeighbourSeedCount)
	}
	done()
	slog.Info("visualize: graph built",
		"shape", rec.Shape.String(), "actors", len(rec.Actors), "interactions", len(rec.Interactions),
		"nodes", g.Order(), "edges", g.Size(), "top_k", req.TopNeighbourSeedCount)

	if g.Order() == 0 {
		return nil, &errs.EmptyGraphError{Op: "visualize"}
	}
	if err := e.checkCaps(g, alg); err != nil {
		return nil, err
	}
	pipeline().graphNodes.Observe(float64(g.Order()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = timeStage("community")
	partition, err := community.Detect(g, alg)
	if err != nil {
		done()
		return nil, err
	}
	modularity := community.Modularity(g, partition)
	done()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = timeStage("stats")
	gs, err := stats.Compute(g)
	done()
	if err != nil {
		return nil, err
	}

	done = timeStage("render")
	sizes, err := render.SizeMap(gs, req.NodeSizeMetric, req.MinNodeSize, req.MaxNodeSize)
	if err != nil {
		done()
		return nil, err
	}
	var opts []render.Option
	if req.Layout {
		opts = append(opts, render.WithLayout())
	}
	rg := render.Assemble(g, partition, sizes, render.Tab20, opts...)
	done()

	return &Result{
		RunID:       uuid.NewString(),
		Source:      t.Source,
		Shape:       rec.Shape.String(),
		Algorithm:   alg.Name(),
		Metric:      req.NodeSizeMetric,
		Render:      rg,
		Partition:   partition,
		Communities: community.Sizes(partition),
		Modularity:  modularity,
		Stats:       gs,
		Nodes:       g.Order(),
		Edges:       g.Size(),
	}, nil
}

func (e *engine) checkCaps(g *graph.Graph, alg community.Algorithm) error {
	if e.cfg.MaxNodes > 0 && g.Order() > e.cfg.MaxNodes {
		return errs.Invalid("max_nodes", g.Order(),
			fmt.Sprintf("graph exceeds %d nodes; raise top_neighbour_seed_count filtering or sample_rows", e.cfg.MaxNodes))
	}
	if _, ok := alg.(community.GirvanNewman); ok &&
		e.cfg.MaxGirvanNewmanNodes > 0 && g.Order() > e.cfg.MaxGirvanNewmanNodes {
		return errs.Invalid("max_girvan_newman_nodes", g.Order(),
			fmt.Sprintf("girvan newman is limited to %d nodes", e.cfg.MaxGirvanNewmanNodes))
	}
	return nil
}

// record writes res to the run log. Failures are logged and do not fail
// the run.
func (e *engine) record(ctx context.Context, res *Result, req Request) {
	if e.store == nil {
		return
	}
	done := timeStage("record")
	defer done()

	params, _ := json.Marshal(req.Algorithm.Params)
	run := store.Run{
		ID:          res.RunID,
		Source:      res.Source,
		Shape:       res.Shape,
		Algorithm:   res.Algorithm,
		Params:      string(params),
		Metric:      res.Metric.String(),
		Nodes:       res.Nodes,
		Edges:       res.Edges,
		Communities: len(res.Communities),
		Modularity:  res.Modularity,
	}
	if run.Source == "" {
		run.Source = "inline"
	}

	comms := make([]store.RunCommunity, len(res.Communities))
	for i, c := range res.Communities {
		comms[i] = store.RunCommunity{RunID: res.RunID, CommunityID: c.ID, Size: c.Size}
	}

	actors := make([]store.ActorStat, 0, len(res.Render.Nodes))
	for _, n := range res.Render.Nodes {
		ns := res.Stats.Node(n.Label)
		actors = append(actors, store.ActorStat{
			RunID:            res.RunID,
			Actor:            n.Label,
			CommunityID:      n.Community,
			Degree:           degreeOf(ns.Degree, res.Nodes),
			PageRank:         ns.PageRank,
			DegreeCentrality: ns.Degree,
			Closeness:        ns.Closeness,
			Betweenness:      ns.Betweenness,
			Triangles:        ns.Triangles,
			Clustering:       ns.Clustering,
		})
	}

	if err := e.store.InsertRun(ctx, run, comms, actors); err != nil {
		slog.Warn("visualize: failed to record run", "run_id", res.RunID, "error", err)
	}
}

// degreeOf recovers the integer degree from degree centrality.
func degreeOf(centrality float64, nodes int) int {
	if nodes < 2 {
		return 0
	}
	return int(centrality*float64(nodes-1) + 0.5)
}

func (e *engine) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if e.store == nil {
		return nil, ErrStoreDisabled
	}
	return e.store.ListRuns(ctx, limit)
}

func (e *engine) GetRun(ctx context.Context, id string) (*RunDetail, error) {
	if e.store == nil {
		return nil, ErrStoreDisabled
	}
	run, err := e.store.GetRun(ctx, id)
	if err != nil {
		return nil, runError(err)
	}
	comms, err := e.store.RunCommunities(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading communities: %w", err)
	}
	actors, err := e.store.ActorStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading actor stats: %w", err)
	}
	return &RunDetail{Run: *run, CommunitySizes: comms, Actors: actors}, nil
}

func (e *engine) SimilarActors(ctx context.Context, runID, actor string, k int) ([]store.SimilarActor, error) {
	if e.store == nil {
		return nil, ErrStoreDisabled
	}
	if k <= 0 {
		return nil, errs.Invalid("k", k, "must be > 0")
	}
	if _, err := e.store.GetRun(ctx, runID); err != nil {
		return nil, runError(err)
	}
	out, err := e.store.SimilarActors(ctx, runID, actor, k)
	if err != nil {
		return nil, runError(err)
	}
	return out, nil
}

func (e *engine) DeleteRun(ctx context.Context, id string) error {
	if e.store == nil {
		return ErrStoreDisabled
	}
	return runError(e.store.DeleteRun(ctx, id))
}

func (e *engine) Store() *store.Store {
	return e.store
}

func (e *engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// runError maps store misses to ErrRunNotFound.
func runError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrRunNotFound, err)
	}
	return err
}

// Fingerprint identifies a table and request pair. Identical inputs with
// identical requests share a fingerprint.
func Fingerprint(t *parser.Table, req Request) string {
	h := sha256.New()
	json.NewEncoder(h).Encode(struct {
		Columns []string   `json:"c"`
		Rows    [][]string `json:"r"`
		Request Request    `json:"q"`
	}{t.Columns, t.Rows, req})
	return hex.EncodeToString(h.Sum(nil))
}

// FileFingerprint is Fingerprint for a file on disk, hashed by content.
func FileFingerprint(path string, req Request) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	json.NewEncoder(h).Encode(req)
	return hex.EncodeToString(h.Sum(nil)), nil
}
