package collect

import (
	"context"

	"spreadscope/internal/model"
)

// Item is one collected dataset, or the error that prevented it.
type Item struct {
	TweetID string
	Dataset model.SpreadDataset
	Err     error
}

// Stream collects the given tweets one by one. The channel is closed after
// the last tweet or when ctx is cancelled; the consumer pulls at its own pace.
func (c *Collector) Stream(ctx context.Context, tweetIDs []string, limit int) <-chan Item {
	out := make(chan Item)
	go func() {
		defer close(out)
		for _, id := range tweetIDs {
			if ctx.Err() != nil {
				return
			}
			ds, err := c.Collect(ctx, id, limit)
			select {
			case out <- Item{TweetID: id, Dataset: ds, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
