// Package render turns a partitioned graph into a renderer-neutral node and
// edge list with colours, sizes and optional layout positions.
package render

import (
	"log/slog"
	"math"

	"github.com/brunobiangulo/sociograph/community"
	"github.com/brunobiangulo/sociograph/graph"
)

// RenderGraph is the input of an external graph renderer. Node and edge
// ids refer to the same numbering.
type RenderGraph struct {
	Nodes   []Node  `json:"nodes"`
	Edges   []Edge  `json:"edges"`
	Options Options `json:"options"`
}

// Node is one styled actor.
type Node struct {
	ID        int64    `json:"id"`
	Label     string   `json:"label"`
	Color     string   `json:"color"`
	Size      float64  `json:"size"`
	Community int      `json:"community"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
}

// Edge is one undirected edge, listed once. Type is the most recent
// interaction type and Count the number of collapsed interactions.
type Edge struct {
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Type   string `json:"type,omitempty"`
	Count  int    `json:"count"`
}

// Options carries display hints for the renderer.
type Options struct {
	Background string  `json:"background"`
	FontColor  string  `json:"font_color"`
	Physics    Physics `json:"physics"`
}

// Physics configures a force-directed renderer.
type Physics struct {
	Solver       string  `json:"solver"`
	NodeDistance float64 `json:"node_distance"`
	SpringLength float64 `json:"spring_length"`
}

// DefaultOptions is a dark canvas with a repulsion solver.
func DefaultOptions() Options {
	return Options{
		Background: "#222222",
		FontColor:  "white",
		Physics: Physics{
			Solver:       "repulsion",
			NodeDistance: 120,
			SpringLength: 100,
		},
	}
}

type assembleConfig struct {
	layout  bool
	options Options
}

// Option configures Assemble.
type Option func(*assembleConfig)

// WithLayout adds x/y positions computed by Layout.
func WithLayout() Option {
	return func(c *assembleConfig) { c.layout = true }
}

// WithOptions replaces the default display options.
func WithOptions(o Options) Option {
	return func(c *assembleConfig) { c.options = o }
}

// Assemble styles every node of g. Colour comes from the node's community
// in p, size from sizes. Nodes missing from p fall into community 0; nodes
// missing from sizes get the smallest size in the map, or DefaultMinSize
// when the map is empty.
func Assemble(g *graph.Graph, p community.Partition, sizes map[string]float64, palette Palette, opts ...Option) *RenderGraph {
	cfg := assembleConfig{options: DefaultOptions()}
	for _, o := range opts {
		o(&cfg)
	}

	fallback := DefaultMinSize
	if len(sizes) > 0 {
		fallback = math.Inf(1)
		for _, s := range sizes {
			fallback = math.Min(fallback, s)
		}
	}

	var positions map[string]Point
	if cfg.layout {
		positions = Layout(g)
	}

	rg := &RenderGraph{
		Nodes:   make([]Node, 0, g.Order()),
		Edges:   make([]Edge, 0, g.Size()),
		Options: cfg.options,
	}

	for id, a := range g.Actors() {
		c := p[a.Name]
		size, ok := sizes[a.Name]
		if !ok {
			size = fallback
		}
		n := Node{
			ID:        int64(id),
			Label:     a.Name,
			Color:     palette.Color(c),
			Size:      size,
			Community: c,
		}
		if pt, ok := positions[a.Name]; ok {
			x, y := pt.X, pt.Y
			n.X, n.Y = &x, &y
		}
		rg.Nodes = append(rg.Nodes, n)
	}

	edges := g.Edges()
	for i, ids := range g.EdgeIDs() {
		rg.Edges = append(rg.Edges, Edge{
			Source: ids[0],
			Target: ids[1],
			Type:   edges[i].Type,
			Count:  edges[i].Count,
		})
	}

	slog.Debug("render: assembled", "nodes", len(rg.Nodes), "edges", len(rg.Edges), "layout", cfg.layout)
	return rg
}
