// Package network analyses the propagation graph: clusters, influencers,
// propagation paths and graph-wide metrics.
package network

import (
	"sort"

	"spreadscope/internal/graph"
	"spreadscope/internal/model"
)

// Defaults for the analyzer.
const (
	MinClusterSize      = 3
	InfluencerThreshold = 10.0
	MaxPaths            = 10
)

// Analyzer is stateless; one value can serve concurrent analyses.
type Analyzer struct {
	MinClusterSize      int
	InfluencerThreshold float64
	MaxPaths            int
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{MinClusterSize: MinClusterSize, InfluencerThreshold: InfluencerThreshold, MaxPaths: MaxPaths}
}

// AnalyzeNetwork builds the graph for ds and derives every network result.
func (an *Analyzer) AnalyzeNetwork(ds model.SpreadDataset, analysisID string) model.NetworkAnalysis {
	nodes, edges := graph.Build(ds)
	adj := newAdjacency(nodes, edges)

	scored := scoreNodes(nodes, edges, adj, ds.Original.AuthorID)
	for i := range nodes {
		nodes[i].InfluenceScore = scored[i].InfluenceScore
	}

	return model.NetworkAnalysis{
		AnalysisID:       analysisID,
		Nodes:            nodes,
		Edges:            edges,
		Clusters:         an.detectClusters(nodes, edges, adj),
		Influencers:      an.selectInfluencers(scored),
		PropagationPaths: an.tracePaths(nodes, edges, ds.Original.AuthorID),
		Metrics:          computeMetrics(nodes, edges, adj),
	}
}

// adjacency is the undirected view of the graph, self loops dropped.
type adjacency struct {
	order []string
	sets  map[string]map[string]struct{}
	lists map[string][]string // sorted
}

func newAdjacency(nodes []model.NetworkNode, edges []model.NetworkEdge) adjacency {
	adj := adjacency{sets: make(map[string]map[string]struct{}, len(nodes))}
	for _, n := range nodes {
		if _, ok := adj.sets[n.AccountID]; ok {
			continue
		}
		adj.order = append(adj.order, n.AccountID)
		adj.sets[n.AccountID] = make(map[string]struct{})
	}
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		adj.sets[e.Source][e.Target] = struct{}{}
		adj.sets[e.Target][e.Source] = struct{}{}
	}
	adj.lists = make(map[string][]string, len(adj.sets))
	for id, set := range adj.sets {
		l := make([]string, 0, len(set))
		for n := range set {
			l = append(l, n)
		}
		sort.Strings(l)
		adj.lists[id] = l
	}
	return adj
}

// neighbors returns the sorted neighbours of id. Callers must not modify it.
func (a adjacency) neighbors(id string) []string { return a.lists[id] }

func (a adjacency) connected(x, y string) bool {
	_, ok := a.sets[x][y]
	return ok
}

// pairs counts distinct undirected connected pairs.
func (a adjacency) pairs() int {
	total := 0
	for _, s := range a.sets {
		total += len(s)
	}
	return total / 2
}
