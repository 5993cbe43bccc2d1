package network

import (
	"math"
	"sort"
	"time"

	"spreadscope/internal/model"
)

// tracePaths walks from every leaf back to the author. Information flows
// against the participation edges, so a leaf is an account nobody else
// participated on, and the way back follows participation edges forward.
func (an *Analyzer) tracePaths(nodes []model.NetworkNode, edges []model.NetworkEdge, author string) []model.PropagationPath {
	out := make(map[string][]string)
	hasIncoming := make(map[string]bool)
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		out[e.Source] = append(out[e.Source], e.Target)
		hasIncoming[e.Target] = true
	}
	byID := make(map[string]model.NetworkNode, len(nodes))
	for _, n := range nodes {
		byID[n.AccountID] = n
	}

	paths := []model.PropagationPath{}
	for _, n := range nodes {
		if n.AccountID == author || hasIncoming[n.AccountID] {
			continue
		}
		route := shortestRoute(out, n.AccountID, author)
		if len(route) < 2 {
			continue
		}
		paths = append(paths, describePath(route, byID))
	}
	sort.SliceStable(paths, func(i, j int) bool {
		if paths[i].Reach != paths[j].Reach {
			return paths[i].Reach > paths[j].Reach
		}
		return paths[i].Nodes[len(paths[i].Nodes)-1] < paths[j].Nodes[len(paths[j].Nodes)-1]
	})
	if len(paths) > an.MaxPaths {
		paths = paths[:an.MaxPaths]
	}
	return paths
}

// shortestRoute returns the BFS path author..leaf, or nil if unreachable.
func shortestRoute(out map[string][]string, leaf, author string) []string {
	parent := map[string]string{leaf: ""}
	queue := []string{leaf}
	found := false
	for len(queue) > 0 && !found {
		cur := queue[0]
		queue = queue[1:]
		next := append([]string(nil), out[cur]...)
		sort.Strings(next)
		for _, n := range next {
			if _, ok := parent[n]; ok {
				continue
			}
			parent[n] = cur
			if n == author {
				found = true
				break
			}
			queue = append(queue, n)
		}
	}
	if !found {
		return nil
	}
	route := []string{author}
	for cur := parent[author]; cur != ""; cur = parent[cur] {
		route = append(route, cur)
	}
	return route
}

func describePath(route []string, byID map[string]model.NetworkNode) model.PropagationPath {
	var first, last time.Time
	reach := 0
	for i, id := range route {
		n := byID[id]
		reach += len(n.Connections)
		if i == 0 || n.FirstSeen.Before(first) {
			first = n.FirstSeen
		}
		if i == 0 || n.FirstSeen.After(last) {
			last = n.FirstSeen
		}
	}
	total := last.Sub(first)
	// spans under a minute count as one minute
	minutes := math.Max(total.Minutes(), 1)
	return model.PropagationPath{
		Nodes:     route,
		TotalTime: total,
		Velocity:  float64(len(route)) / minutes,
		Reach:     reach,
	}
}
