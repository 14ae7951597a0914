package community

import "github.com/brunobiangulo/sociograph/graph"

// maxSweeps caps label propagation when labels keep oscillating.
const maxSweeps = 100

// LabelPropagation is asynchronous label propagation. Every node starts
// with its own label and, visiting nodes in insertion order, adopts the
// label most common among its neighbours. A node keeps its label when it
// is among the most common; otherwise the lowest candidate wins. It stops
// when a sweep changes nothing or after 100 sweeps.
type LabelPropagation struct{}

func (LabelPropagation) Name() string { return NameLabelPropagation }

func (LabelPropagation) validate() error { return nil }

func (LabelPropagation) labels(g *graph.Graph) []int {
	n := g.Order()
	labels := singletons(n)

	adj := make([][]int64, n)
	for id := range adj {
		adj[id] = g.NeighborIDs(int64(id))
	}

	counts := make(map[int]int)
	for sweep := 0; sweep < maxSweeps; sweep++ {
		changed := 0
		for id, neighbours := range adj {
			if len(neighbours) == 0 {
				continue
			}

			clear(counts)
			best := 0
			for _, nid := range neighbours {
				l := labels[nid]
				counts[l]++
				if counts[l] > best {
					best = counts[l]
				}
			}

			if counts[labels[id]] == best {
				continue
			}
			next := -1
			for l, c := range counts {
				if c == best && (next < 0 || l < next) {
					next = l
				}
			}
			labels[id] = next
			changed++
		}
		if changed == 0 {
			break
		}
	}
	return labels
}
