package network

import (
	"math"
	"sort"
	"time"

	"spreadscope/internal/model"
)

// BridgeConnections is the connection count above which a node is a bridge.
const BridgeConnections = 5

// scoreNodes computes an InfluencerNode for every node, in node order.
func scoreNodes(nodes []model.NetworkNode, edges []model.NetworkEdge, adj adjacency, author string) []model.InfluencerNode {
	degree := make(map[string]int, len(nodes))
	var minT, maxT time.Time
	touch := make(map[string][]time.Time, len(nodes))
	for i, e := range edges {
		degree[e.Source]++
		degree[e.Target]++
		if i == 0 || e.Timestamp.Before(minT) {
			minT = e.Timestamp
		}
		if i == 0 || e.Timestamp.After(maxT) {
			maxT = e.Timestamp
		}
		touch[e.Source] = append(touch[e.Source], e.Timestamp)
		if e.Target != e.Source {
			touch[e.Target] = append(touch[e.Target], e.Timestamp)
		}
	}
	span := maxT.Sub(minT).Seconds()

	out := make([]model.InfluencerNode, 0, len(nodes))
	for _, n := range nodes {
		reach := adj.reach(n.AccountID)
		base := 10.0
		if n.Role == model.RoleSource {
			base = 50
		}
		score := base +
			math.Min(float64(degree[n.AccountID])/10, 1)*30 +
			math.Min((float64(reach.Direct)+float64(reach.Indirect)*0.5)/20, 1)*20 +
			temporalFactor(touch[n.AccountID], minT, span)
		out = append(out, model.InfluencerNode{
			AccountID:      n.AccountID,
			InfluenceScore: math.Min(score, 100),
			Reach:          reach,
			Role:           influencerRole(n, author),
		})
	}
	return out
}

// temporalFactor awards up to 20 points for acting early in the cascade.
func temporalFactor(ts []time.Time, minT time.Time, span float64) float64 {
	if span <= 0 || len(ts) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range ts {
		sum += t.Sub(minT).Seconds()
	}
	avg := sum / float64(len(ts))
	return (1 - avg/span) * 20
}

func influencerRole(n model.NetworkNode, author string) model.InfluencerRole {
	switch {
	case n.AccountID == author:
		return model.RoleOriginator
	case len(n.Connections) > BridgeConnections:
		return model.RoleBridge
	default:
		return model.RoleAmplifier
	}
}

// reach runs a BFS from start: direct = depth 1, indirect = depth > 1.
func (a adjacency) reach(start string) model.Reach {
	var r model.Reach
	depth := map[string]int{start: 0}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range a.neighbors(cur) {
			if _, ok := depth[n]; ok {
				continue
			}
			d := depth[cur] + 1
			depth[n] = d
			if d == 1 {
				r.Direct++
			} else {
				r.Indirect++
			}
			if d > r.CascadeDepth {
				r.CascadeDepth = d
			}
			queue = append(queue, n)
		}
	}
	return r
}

// selectInfluencers keeps nodes above the threshold, highest score first.
func (an *Analyzer) selectInfluencers(scored []model.InfluencerNode) []model.InfluencerNode {
	out := []model.InfluencerNode{}
	for _, s := range scored {
		if s.InfluenceScore > an.InfluencerThreshold {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].InfluenceScore != out[j].InfluenceScore {
			return out[i].InfluenceScore > out[j].InfluenceScore
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out
}

// NodeReach returns the BFS reach of every node in an analysed network.
func NodeReach(na model.NetworkAnalysis) map[string]model.Reach {
	adj := newAdjacency(na.Nodes, na.Edges)
	out := make(map[string]model.Reach, len(na.Nodes))
	for _, n := range na.Nodes {
		out[n.AccountID] = adj.reach(n.AccountID)
	}
	return out
}
