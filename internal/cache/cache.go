// Package cache keeps analysis summaries and collected account profiles in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"spreadscope/internal/logging"
	"spreadscope/internal/model"
)

const (
	DefaultSummaryTTL = 24 * time.Hour
	DefaultAccountTTL = 6 * time.Hour
	keyPrefix         = "spreadscope:"
)

type Cache struct {
	client     goredis.UniversalClient
	summaryTTL time.Duration
	accountTTL time.Duration
	logger     *logrus.Logger
}

// New wraps client. Zero TTLs fall back to the defaults.
func New(client goredis.UniversalClient, summaryTTL, accountTTL time.Duration, logger *logrus.Logger) *Cache {
	if summaryTTL <= 0 {
		summaryTTL = DefaultSummaryTTL
	}
	if accountTTL <= 0 {
		accountTTL = DefaultAccountTTL
	}
	return &Cache{client: client, summaryTTL: summaryTTL, accountTTL: accountTTL, logger: logging.Or(logger)}
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func keySummary(analysisID string) string { return keyPrefix + "summary:" + analysisID }
func keyAccount(accountID string) string  { return keyPrefix + "account:" + accountID }

// SetSummary stores the JSON encoding of summary under the analysis id.
func (c *Cache) SetSummary(ctx context.Context, analysisID string, summary any) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return c.client.Set(ctx, keySummary(analysisID), data, c.summaryTTL).Err()
}

// GetSummary decodes the cached summary into dst. It reports false when
// nothing is cached.
func (c *Cache) GetSummary(ctx context.Context, analysisID string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, keySummary(analysisID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode summary: %w", err)
	}
	return true, nil
}

// SetAccounts caches account profiles in one pipeline.
func (c *Cache) SetAccounts(ctx context.Context, accounts []model.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, a := range accounts {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode account %s: %w", a.ID, err)
		}
		pipe.Set(ctx, keyAccount(a.ID), data, c.accountTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetAccounts returns the cached profiles among ids and the ids that missed.
// Entries that fail to decode count as misses.
func (c *Cache) GetAccounts(ctx context.Context, ids []string) (map[string]model.Account, []string, error) {
	found := make(map[string]model.Account, len(ids))
	if len(ids) == 0 {
		return found, nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyAccount(id)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, ids, err
	}
	var missing []string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var a model.Account
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			c.logger.WithFields(logrus.Fields{"account_id": ids[i], "error": err.Error()}).Warn("cache_account_decode")
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = a
	}
	return found, missing, nil
}
