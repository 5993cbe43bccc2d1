package network

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadscope/internal/model"
)

var t0 = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func starDataset() model.SpreadDataset {
	return model.SpreadDataset{
		Original: model.Post{ID: "p", AuthorID: "a", CreatedAt: t0},
		Reposts: []model.Participation{
			{AuthorID: "b", Timestamp: t0.Add(1 * time.Minute), Depth: 1},
			{AuthorID: "c", Timestamp: t0.Add(2 * time.Minute), Depth: 1},
			{AuthorID: "d", Timestamp: t0.Add(3 * time.Minute), Depth: 1},
		},
	}
}

func TestAnalyzeNetworkStar(t *testing.T) {
	res := NewAnalyzer().AnalyzeNetwork(starDataset(), "an-1")
	require.Equal(t, "an-1", res.AnalysisID)
	require.Len(t, res.Nodes, 4)
	require.Len(t, res.Edges, 3)

	require.Len(t, res.Clusters, 1)
	c := res.Clusters[0]
	assert.Equal(t, []string{"a", "b", "c", "d"}, c.Members)
	assert.InDelta(t, 0.5, c.Coherence, 1e-9)
	assert.InDelta(t, 1.0, c.ActivityPattern.CoordinationScore, 1e-9)
	assert.InDelta(t, 0.0, c.ActivityPattern.Burstiness, 1e-9)
	assert.InDelta(t, 0.55, c.SuspicionScore, 1e-9)
	assert.InDelta(t, 1.0, c.ActivityPattern.HourlyDistribution[9], 1e-9)

	require.Len(t, res.Influencers, 4)
	want := []struct {
		id    string
		score float64
	}{{"a", 72}, {"b", 35}, {"c", 25}, {"d", 15}}
	for i, w := range want {
		assert.Equal(t, w.id, res.Influencers[i].AccountID)
		assert.InDelta(t, w.score, res.Influencers[i].InfluenceScore, 1e-9, w.id)
	}
	assert.Equal(t, model.RoleOriginator, res.Influencers[0].Role)
	assert.Equal(t, model.RoleAmplifier, res.Influencers[1].Role)
	assert.Equal(t, model.Reach{Direct: 1, Indirect: 2, CascadeDepth: 2}, res.Influencers[1].Reach)
	assert.InDelta(t, 72, res.Nodes[0].InfluenceScore, 1e-9)

	require.Len(t, res.PropagationPaths, 3)
	p := res.PropagationPaths[0]
	assert.Equal(t, []string{"a", "b"}, p.Nodes)
	assert.Equal(t, time.Minute, p.TotalTime)
	assert.InDelta(t, 2.0, p.Velocity, 1e-9)
	assert.Equal(t, 4, p.Reach)

	m := res.Metrics
	assert.Equal(t, 4, m.NodeCount)
	assert.InDelta(t, 0.5, m.Density, 1e-9)
	assert.InDelta(t, 1.5, m.AverageDegree, 1e-9)
	assert.Zero(t, m.ClusteringCoefficient)
	assert.Zero(t, m.Modularity)
}

func TestAnalyzeNetworkNoParticipation(t *testing.T) {
	ds := model.SpreadDataset{Original: model.Post{ID: "p", AuthorID: "a", CreatedAt: t0}}
	res := NewAnalyzer().AnalyzeNetwork(ds, "an-2")
	assert.Len(t, res.Nodes, 1)
	assert.Empty(t, res.Edges)
	assert.Empty(t, res.Clusters)
	assert.Empty(t, res.PropagationPaths)
	require.Len(t, res.Influencers, 1)
	assert.InDelta(t, 50, res.Influencers[0].InfluenceScore, 1e-9)
}

func TestClustersAreBoundedAndLargeEnough(t *testing.T) {
	ds := model.SpreadDataset{Original: model.Post{ID: "p", AuthorID: "a", CreatedAt: t0}}
	for i := 0; i < 40; i++ {
		ds.Reposts = append(ds.Reposts, model.Participation{
			AuthorID:  fmt.Sprintf("u%02d", i%17),
			Timestamp: t0.Add(time.Duration(i*i) * time.Second),
			Depth:     1 + i%3,
		})
	}
	res := NewAnalyzer().AnalyzeNetwork(ds, "x")
	for _, c := range res.Clusters {
		assert.GreaterOrEqual(t, len(c.Members), 3)
		assert.GreaterOrEqual(t, c.Coherence, 0.0)
		assert.LessOrEqual(t, c.Coherence, 1.0)
		assert.GreaterOrEqual(t, c.SuspicionScore, 0.0)
		assert.LessOrEqual(t, c.SuspicionScore, 1.0)
	}
	assert.LessOrEqual(t, len(res.PropagationPaths), MaxPaths)
	for i := 1; i < len(res.Influencers); i++ {
		assert.GreaterOrEqual(t, res.Influencers[i-1].InfluenceScore, res.Influencers[i].InfluenceScore)
	}
}

func TestClusteringCoefficientTriangle(t *testing.T) {
	nodes := []model.NetworkNode{{AccountID: "x"}, {AccountID: "y"}, {AccountID: "z"}}
	edges := []model.NetworkEdge{{Source: "x", Target: "y"}, {Source: "y", Target: "z"}, {Source: "z", Target: "x"}}
	adj := newAdjacency(nodes, edges)
	assert.InDelta(t, 1.0, clusteringCoefficient(adj), 1e-9)
	assert.InDelta(t, 1.0, coherence([]string{"x", "y", "z"}, adj), 1e-9)
}

func TestAnalyzeNetworkDeterministic(t *testing.T) {
	a := NewAnalyzer()
	assert.Equal(t, a.AnalyzeNetwork(starDataset(), "r"), a.AnalyzeNetwork(starDataset(), "r"))
}
