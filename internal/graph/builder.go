// Package graph turns a spread dataset into a typed propagation graph.
package graph

import (
	"spreadscope/internal/model"
)

// Edge weights per interaction type.
const (
	WeightRepost = 1.0
	WeightReply  = 1.5
	WeightQuote  = 2.0
)

// SourceInfluence is the starting influence of the original author's node.
const SourceInfluence = 100

// EdgeWeight returns the constant weight of an interaction type.
func EdgeWeight(t model.EventType) float64 {
	switch t {
	case model.EventQuote:
		return WeightQuote
	case model.EventReply:
		return WeightReply
	default:
		return WeightRepost
	}
}

// Build creates one source node for the original author, one spreader node per
// unseen participating account, and one spreader->author edge per participation.
// Node connections are the undirected, deduplicated view of the edges.
func Build(ds model.SpreadDataset) ([]model.NetworkNode, []model.NetworkEdge) {
	author := ds.Original.AuthorID
	nodes := []model.NetworkNode{{
		ID:             author,
		AccountID:      author,
		Role:           model.RoleSource,
		InfluenceScore: SourceInfluence,
		FirstSeen:      ds.Original.CreatedAt,
	}}
	index := map[string]int{author: 0}

	parts := ds.Participations()
	edges := make([]model.NetworkEdge, 0, len(parts))
	for _, p := range parts {
		if _, ok := index[p.AuthorID]; !ok {
			index[p.AuthorID] = len(nodes)
			nodes = append(nodes, model.NetworkNode{
				ID:        p.AuthorID,
				AccountID: p.AuthorID,
				Role:      model.RoleSpreader,
				FirstSeen: p.Timestamp,
			})
		} else if i := index[p.AuthorID]; p.Timestamp.Before(nodes[i].FirstSeen) && nodes[i].Role != model.RoleSource {
			nodes[i].FirstSeen = p.Timestamp
		}
		edges = append(edges, model.NetworkEdge{
			Source:    p.AuthorID,
			Target:    author,
			Type:      p.Type,
			Weight:    EdgeWeight(p.Type),
			Timestamp: p.Timestamp,
		})
	}

	seen := make([]map[string]struct{}, len(nodes))
	for i := range seen {
		seen[i] = make(map[string]struct{})
	}
	link := func(from, to string) {
		i := index[from]
		if from == to {
			return
		}
		if _, ok := seen[i][to]; ok {
			return
		}
		seen[i][to] = struct{}{}
		nodes[i].Connections = append(nodes[i].Connections, to)
	}
	for _, e := range edges {
		link(e.Source, e.Target)
		link(e.Target, e.Source)
	}
	for i := range nodes {
		if nodes[i].Connections == nil {
			nodes[i].Connections = []string{}
		}
	}
	return nodes, edges
}
