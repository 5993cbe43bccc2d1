package model

import (
	"fmt"
	"sort"
	"time"
)

// Participations yields every repost, quote and reply with its event type,
// in dataset order: reposts, then quotes, then replies.
func (ds SpreadDataset) Participations() []TypedParticipation {
	out := make([]TypedParticipation, 0, len(ds.Reposts)+len(ds.Quotes)+len(ds.Replies))
	add := func(typ EventType, items []Participation) {
		for i, p := range items {
			id := p.ID
			if id == "" {
				id = fmt.Sprintf("%s_%d", typ, i)
			}
			p.ID = id
			out = append(out, TypedParticipation{Type: typ, Participation: p})
		}
	}
	add(EventRepost, ds.Reposts)
	add(EventQuote, ds.Quotes)
	add(EventReply, ds.Replies)
	return out
}

// TypedParticipation is a Participation tagged with its event type.
type TypedParticipation struct {
	Type EventType
	Participation
}

// Timeline derives the ordered event list, original post included at depth 0.
// Ties on timestamp keep dataset order.
func Timeline(ds SpreadDataset) []SpreadEvent {
	parts := ds.Participations()
	events := make([]SpreadEvent, 0, len(parts)+1)
	events = append(events, SpreadEvent{
		ID:           ds.Original.ID,
		Type:         EventOriginal,
		AccountID:    ds.Original.AuthorID,
		TargetPostID: ds.Original.ID,
		Timestamp:    ds.Original.CreatedAt,
		Depth:        0,
		Text:         ds.Original.Text,
	})
	for _, p := range parts {
		target := p.TargetPostID
		if target == "" {
			target = ds.Original.ID
		}
		events = append(events, SpreadEvent{
			ID:           p.ID,
			Type:         p.Type,
			AccountID:    p.AuthorID,
			TargetPostID: target,
			Timestamp:    p.Timestamp,
			Depth:        p.Depth,
			Text:         p.Text,
		})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
	return events
}

// ReferenceTime is the instant account ages are measured against: the
// collection time, or the latest event when the collector did not stamp one.
func (ds SpreadDataset) ReferenceTime() time.Time {
	if !ds.CollectedAt.IsZero() {
		return ds.CollectedAt
	}
	latest := ds.Original.CreatedAt
	for _, p := range ds.Participations() {
		if p.Timestamp.After(latest) {
			latest = p.Timestamp
		}
	}
	return latest
}

// AccountIDs returns every distinct participating account id, original author first.
func (ds SpreadDataset) AccountIDs() []string {
	seen := map[string]struct{}{ds.Original.AuthorID: {}}
	out := []string{ds.Original.AuthorID}
	for _, p := range ds.Participations() {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		out = append(out, p.AuthorID)
	}
	return out
}

// ParticipantAccounts returns the collected profiles of participating accounts,
// in AccountIDs order. Accounts without a collected profile are skipped.
func (ds SpreadDataset) ParticipantAccounts() []Account {
	byID := make(map[string]Account, len(ds.Accounts))
	for _, a := range ds.Accounts {
		byID[a.ID] = a
	}
	var out []Account
	for _, id := range ds.AccountIDs() {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}
