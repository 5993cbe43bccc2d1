package network

import (
	"spreadscope/internal/model"
)

func computeMetrics(nodes []model.NetworkNode, edges []model.NetworkEdge, adj adjacency) model.NetworkMetrics {
	n := len(nodes)
	m := model.NetworkMetrics{NodeCount: n, EdgeCount: len(edges), Modularity: modularity()}
	if n == 0 {
		return m
	}
	m.AverageDegree = 2 * float64(len(edges)) / float64(n)
	if n > 1 {
		m.Density = float64(adj.pairs()) / (float64(n*(n-1)) / 2)
	}
	m.ClusteringCoefficient = clusteringCoefficient(adj)
	return m
}

// clusteringCoefficient averages local clustering over nodes with at least
// two neighbours.
func clusteringCoefficient(adj adjacency) float64 {
	sum, counted := 0.0, 0
	for _, id := range adj.order {
		nb := adj.neighbors(id)
		k := len(nb)
		if k < 2 {
			continue
		}
		triangles := 0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				if adj.connected(nb[i], nb[j]) {
					triangles++
				}
			}
		}
		sum += float64(triangles) / (float64(k*(k-1)) / 2)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

// modularity is not implemented: community detection is out of scope and the
// value is always 0.
func modularity() float64 { return 0 }
