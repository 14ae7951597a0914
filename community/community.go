// Package community partitions an interaction graph into communities.
//
// The algorithm family is closed: Louvain, LabelPropagation and
// GirvanNewman. Build one by name with Parse, or construct the struct
// directly; Detect validates parameters either way.
package community

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	gonum "gonum.org/v1/gonum/graph"
	gcommunity "gonum.org/v1/gonum/graph/community"

	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/graph"
)

// Algorithm names as accepted by Parse.
const (
	NameLouvain          = "louvain"
	NameLabelPropagation = "label propagation"
	NameGirvanNewman     = "girvan newman"
)

// Partition maps every actor name to a community id. Ids are dense,
// starting at 0, and numbered in order of first node appearance. They are
// not stable across algorithms or runs.
type Partition map[string]int

// Count returns the number of distinct communities in p.
func (p Partition) Count() int {
	seen := make(map[int]bool)
	for _, c := range p {
		seen[c] = true
	}
	return len(seen)
}

// Members returns the actor names in community c, sorted.
func (p Partition) Members(c int) []string {
	var out []string
	for name, id := range p {
		if id == c {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Algorithm is a community detection algorithm with validated parameters.
// Only the types in this package implement it.
type Algorithm interface {
	// Name returns the canonical algorithm name.
	Name() string

	validate() error

	// labels returns a community label per node id. Labels need not be
	// dense; Detect renumbers them.
	labels(g *graph.Graph) []int
}

// Params is the union of every algorithm's tunables. Parse rejects fields
// that do not belong to the named algorithm.
type Params struct {
	Resolution     float64 `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Weight         string  `json:"weight,omitempty" yaml:"weight,omitempty"`
	Randomize      bool    `json:"randomize,omitempty" yaml:"randomize,omitempty"`
	Seed           uint64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	MaxCommunities int     `json:"max_communities,omitempty" yaml:"max_communities,omitempty"`
}

// Names returns the canonical names of every algorithm.
func Names() []string {
	return []string{NameLouvain, NameLabelPropagation, NameGirvanNewman}
}

// canonical lower-cases name and strips spaces, underscores and hyphens.
func canonical(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// Parse resolves name to an algorithm configured from p. Matching is
// case-insensitive and ignores spaces, underscores and hyphens, so
// "Girvan-Newman" and "girvan_newman" are the same algorithm.
func Parse(name string, p Params) (Algorithm, error) {
	var alg Algorithm
	switch canonical(name) {
	case canonical(NameLouvain):
		if p.MaxCommunities != 0 {
			return nil, errs.Invalid("max_communities", p.MaxCommunities, "not a louvain parameter")
		}
		alg = Louvain{
			Resolution: p.Resolution,
			Weight:     p.Weight,
			Randomize:  p.Randomize,
			Seed:       p.Seed,
		}
	case canonical(NameLabelPropagation):
		if err := rejectLouvainParams(p, NameLabelPropagation); err != nil {
			return nil, err
		}
		if p.MaxCommunities != 0 {
			return nil, errs.Invalid("max_communities", p.MaxCommunities, "not a label propagation parameter")
		}
		alg = LabelPropagation{}
	case canonical(NameGirvanNewman):
		if err := rejectLouvainParams(p, NameGirvanNewman); err != nil {
			return nil, err
		}
		alg = GirvanNewman{MaxCommunities: p.MaxCommunities}
	default:
		return nil, &errs.UnknownAlgorithmError{Name: name}
	}

	if err := alg.validate(); err != nil {
		return nil, err
	}
	return alg, nil
}

func rejectLouvainParams(p Params, alg string) error {
	reason := "not a " + alg + " parameter"
	switch {
	case p.Resolution != 0:
		return errs.Invalid("resolution", p.Resolution, reason)
	case p.Weight != "":
		return errs.Invalid("weight", p.Weight, reason)
	case p.Randomize:
		return errs.Invalid("randomize", p.Randomize, reason)
	case p.Seed != 0:
		return errs.Invalid("seed", p.Seed, reason)
	}
	return nil
}

// Detect partitions g with alg. The partition covers every node exactly
// once; isolated nodes are singleton communities. An empty graph yields
// an empty partition.
func Detect(g *graph.Graph, alg Algorithm) (Partition, error) {
	if alg == nil {
		return nil, errs.Invalid("algorithm", nil, "no algorithm given")
	}
	if err := alg.validate(); err != nil {
		return nil, err
	}
	if g.Order() == 0 {
		return Partition{}, nil
	}

	p := renumber(g, alg.labels(g))
	slog.Debug("community: detected",
		"algorithm", alg.Name(), "nodes", g.Order(), "communities", p.Count())
	return p, nil
}

// renumber maps raw labels to dense ids in order of first node appearance.
func renumber(g *graph.Graph, labels []int) Partition {
	dense := make(map[int]int)
	p := make(Partition, len(labels))
	for id, l := range labels {
		c, ok := dense[l]
		if !ok {
			c = len(dense)
			dense[l] = c
		}
		p[g.ActorOf(int64(id)).Name] = c
	}
	return p
}

// singletons puts every node in its own community.
func singletons(n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}
	return labels
}

// fromNodes converts gonum community membership into per-node labels.
func fromNodes(comms [][]gonum.Node, n int) []int {
	labels := singletons(n)
	for c, members := range comms {
		for _, node := range members {
			labels[node.ID()] = n + c
		}
	}
	return labels
}

// groups converts a partition into gonum community membership. Names not
// in g are ignored; nodes of g missing from p each form their own group.
func groups(g *graph.Graph, p Partition) [][]gonum.Node {
	byID := make(map[int][]gonum.Node)
	var order []int
	next := -1
	for _, a := range g.Actors() {
		id, _ := g.ID(a.Name)
		c, ok := p[a.Name]
		if !ok {
			c = next
			next--
		}
		if _, seen := byID[c]; !seen {
			order = append(order, c)
		}
		byID[c] = append(byID[c], g.Undirected().Node(id))
	}

	out := make([][]gonum.Node, len(order))
	for i, c := range order {
		out[i] = byID[c]
	}
	return out
}

// Modularity returns the modularity Q of p over g at resolution 1.
// Graphs without edges have modularity 0.
func Modularity(g *graph.Graph, p Partition) float64 {
	if g.Size() == 0 {
		return 0
	}
	q := gcommunity.Q(g.Undirected(), groups(g, p), 1)
	if math.IsNaN(q) {
		return 0
	}
	return q
}

// CommunitySize is one row of the community-size table.
type CommunitySize struct {
	ID   int `json:"id"`
	Size int `json:"size"`
}

// Sizes returns the member count of every community, largest first and
// then by id.
func Sizes(p Partition) []CommunitySize {
	counts := make(map[int]int)
	for _, c := range p {
		counts[c]++
	}
	out := make([]CommunitySize, 0, len(counts))
	for id, n := range counts {
		out = append(out, CommunitySize{ID: id, Size: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].ID < out[j].ID
	})
	return out
}
