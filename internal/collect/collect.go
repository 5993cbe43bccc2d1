// Package collect materialises a SpreadDataset for one seed tweet from the X API.
package collect

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"spreadscope/internal/logging"
	"spreadscope/internal/metrics"
	"spreadscope/internal/model"
	"spreadscope/internal/xclient"
)

// DefaultLimit caps each of the repost, quote and reply lists.
const DefaultLimit = 100

// AccountCache is an optional profile cache consulted before the API.
type AccountCache interface {
	GetAccounts(ctx context.Context, ids []string) (map[string]model.Account, []string, error)
	SetAccounts(ctx context.Context, accounts []model.Account) error
}

type Collector struct {
	Client xclient.XClient
	Cache  AccountCache
	Logger *logrus.Logger
	Now    func() time.Time
}

func New(client xclient.XClient, cache AccountCache, logger *logrus.Logger) *Collector {
	return &Collector{Client: client, Cache: cache, Logger: logging.Or(logger), Now: time.Now}
}

// Collect fetches the seed tweet, its reposts, quotes and conversation
// replies, and the profiles of everyone involved. limit <= 0 uses DefaultLimit.
func (c *Collector) Collect(ctx context.Context, tweetID string, limit int) (model.SpreadDataset, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var ds model.SpreadDataset
	original, err := c.Client.GetTweet(ctx, tweetID)
	if err != nil {
		return ds, fmt.Errorf("get tweet %s: %w", tweetID, err)
	}
	ds.Original = original

	reposts, err := c.Client.SearchRecentTweets(ctx, "retweets_of:"+tweetID, limit)
	if err != nil {
		return ds, fmt.Errorf("reposts of %s: %w", tweetID, err)
	}
	for _, p := range reposts {
		ds.Reposts = append(ds.Reposts, participation(p, tweetID, 1))
	}

	quotes, err := c.Client.GetQuoteTweets(ctx, tweetID, limit)
	if err != nil {
		return ds, fmt.Errorf("quotes of %s: %w", tweetID, err)
	}
	for _, p := range quotes {
		ds.Quotes = append(ds.Quotes, participation(p, tweetID, 1))
	}

	conversation := original.ConversationID
	if conversation == "" {
		conversation = tweetID
	}
	replies, err := c.Client.SearchRecentTweets(ctx, "conversation_id:"+conversation, limit)
	if err != nil {
		return ds, fmt.Errorf("replies to %s: %w", tweetID, err)
	}
	ds.Replies = replyTree(tweetID, replies)

	ds.Accounts, err = c.authors(ctx, ds.AccountIDs())
	if err != nil {
		return ds, fmt.Errorf("authors: %w", err)
	}
	ds.CollectedAt = c.now().UTC()

	metrics.AddCollected(string(model.EventRepost), len(ds.Reposts))
	metrics.AddCollected(string(model.EventQuote), len(ds.Quotes))
	metrics.AddCollected(string(model.EventReply), len(ds.Replies))
	logging.Or(c.Logger).WithFields(logrus.Fields{
		"tweet_id": tweetID, "reposts": len(ds.Reposts), "quotes": len(ds.Quotes),
		"replies": len(ds.Replies), "accounts": len(ds.Accounts),
	}).Info("collect_done")
	return ds, nil
}

func (c *Collector) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func participation(p model.Post, target string, depth int) model.Participation {
	return model.Participation{
		ID:           p.ID,
		AuthorID:     p.AuthorID,
		Timestamp:    p.CreatedAt,
		Depth:        depth,
		Text:         p.Text,
		TargetPostID: target,
	}
}

// replyTree assigns cascade depths to conversation replies: a direct reply to
// the seed is depth 1, a reply to a known reply is one deeper than its parent
// and a reply to a post outside the collected set is depth 2.
func replyTree(seedID string, replies []model.Post) []model.Participation {
	sorted := append([]model.Post(nil), replies...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	depth := map[string]int{seedID: 0}
	var out []model.Participation
	for _, p := range sorted {
		if p.ID == seedID {
			continue
		}
		parent := repliedTo(p)
		if parent == "" {
			parent = seedID
		}
		d := 2
		if pd, ok := depth[parent]; ok {
			d = pd + 1
		}
		depth[p.ID] = d
		out = append(out, participation(p, parent, d))
	}
	return out
}

func repliedTo(p model.Post) string {
	for _, r := range p.References {
		if r.Type == model.RefRepliedTo {
			return r.ID
		}
	}
	return ""
}

// authors resolves profiles through the cache first and fetches the misses
// in batches. Cache failures fall back to the API.
func (c *Collector) authors(ctx context.Context, ids []string) ([]model.Account, error) {
	found := make(map[string]model.Account, len(ids))
	missing := ids
	if c.Cache != nil {
		hits, miss, err := c.Cache.GetAccounts(ctx, ids)
		if err != nil {
			logging.Or(c.Logger).WithError(err).Warn("account_cache_read")
		} else {
			for id, a := range hits {
				found[id] = a
			}
			missing = miss
		}
	}
	if len(missing) > 0 {
		fetched, err := c.Client.GetUsersByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, a := range fetched {
			found[a.ID] = a
		}
		if c.Cache != nil && len(fetched) > 0 {
			if err := c.Cache.SetAccounts(ctx, fetched); err != nil {
				logging.Or(c.Logger).WithError(err).Warn("account_cache_write")
			}
		}
	}
	out := make([]model.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := found[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
