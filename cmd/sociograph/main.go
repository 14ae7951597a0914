// Command sociograph builds an interaction graph from a CSV, TSV, XLSX or
// JSON file, prints community and centrality summaries, and writes the
// styled render graph as JSON.
//
// Usage:
//
//	sociograph -algorithm louvain -metric pagerank -out graph.json tweets.csv
//	sociograph -algorithm "girvan newman" -max-communities 4 -top 20 edges.xlsx
//	sociograph -record -config sociograph.yaml runs
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brunobiangulo/sociograph"
	"github.com/brunobiangulo/sociograph/render"
)

func main() {
	var (
		configPath     = flag.String("config", "", "Path to config file (YAML or JSON)")
		algorithm      = flag.String("algorithm", "", "Community detection: louvain, label propagation, girvan newman")
		resolution     = flag.Float64("resolution", 0, "Louvain resolution (default 1)")
		weight         = flag.String("weight", "", "Louvain edge weight: empty or count")
		randomize      = flag.Bool("randomize", false, "Louvain: draw a fresh random seed")
		seed           = flag.Uint64("seed", 0, "Louvain: fixed random seed")
		maxCommunities = flag.Int("max-communities", 0, "Girvan-Newman: stop at this many communities (default 5)")
		metric         = flag.String("metric", "", "Node size metric: degree, betweenness, closeness, pagerank")
		minSize        = flag.Float64("min-size", 0, "Smallest node size")
		maxSize        = flag.Float64("max-size", 0, "Largest node size")
		top            = flag.Int("top", 0, "Keep only the top-degree actors and their neighbours (0 = all)")
		sample         = flag.Int("sample", 0, "Analyse a random sample of this many rows (0 = all)")
		sampleSeed     = flag.Uint64("sample-seed", 0, "Seed for -sample")
		layout         = flag.Bool("layout", false, "Add MDS node positions")
		out            = flag.String("out", "", "Write the render graph JSON to this file (- for stdout)")
		rank           = flag.Int("rank", 10, "Rows in the top actors table")
		record         = flag.Bool("record", false, "Record the run in the run log")
		verbose        = flag.Bool("v", false, "Debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: sociograph [flags] <file>\n       sociograph [flags] runs\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := sociograph.DefaultConfig()
	if *configPath != "" {
		loaded, err := sociograph.LoadConfig(*configPath)
		if err != nil {
			fatal("loading config", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if !*record {
		cfg.SkipStore = true
	}

	level, err := cfg.Level()
	if err != nil {
		fatal("invalid log level", err)
	}
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := sociograph.New(cfg)
	if err != nil {
		fatal("creating engine", err)
	}
	defer engine.Close()

	if flag.Arg(0) == "runs" {
		runs, err := engine.ListRuns(ctx, *rank)
		if err != nil {
			fatal("listing runs", err)
		}
		fmt.Println(runsTable(runs))
		return
	}

	req := sociograph.Request{
		TopNeighbourSeedCount: *top,
		MinNodeSize:           *minSize,
		MaxNodeSize:           *maxSize,
		SampleRows:            *sample,
		SampleSeed:            *sampleSeed,
		Layout:                *layout,
	}
	req.Algorithm.Name = *algorithm
	req.Algorithm.Resolution = *resolution
	req.Algorithm.Weight = *weight
	req.Algorithm.Randomize = *randomize
	req.Algorithm.Seed = *seed
	req.Algorithm.MaxCommunities = *maxCommunities
	if *metric != "" {
		m, err := render.ParseMetric(*metric)
		if err != nil {
			fatal("invalid metric", err)
		}
		req.NodeSizeMetric = m
	} else {
		req.NodeSizeMetric = cfg.Defaults.NodeSizeMetric
	}

	res, err := engine.VisualizeFile(ctx, flag.Arg(0), req)
	if err != nil {
		fatal("visualize", err)
	}

	fmt.Println(report(res, *rank))

	if *out != "" {
		if err := writeGraph(*out, res.Render); err != nil {
			fatal("writing render graph", err)
		}
		if *out != "-" {
			slog.Info("render graph written", "path", *out)
		}
	}
}

func writeGraph(path string, g *render.RenderGraph) error {
	w := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	if sociograph.IsInputError(err) {
		os.Exit(2)
	}
	os.Exit(1)
}
