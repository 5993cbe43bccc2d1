package xclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"spreadscope/internal/metrics"
	"spreadscope/internal/model"
)

const (
	tweetFields = "created_at,public_metrics,author_id,conversation_id,referenced_tweets,entities"
	userFields  = "public_metrics,created_at,verified,description,location,profile_image_url"
	maxPage     = 100
)

// XClient is the subset of the X API v2 the collector uses.
type XClient interface {
	GetTweet(ctx context.Context, id string) (model.Post, error)
	SearchRecentTweets(ctx context.Context, query string, limit int) ([]model.Post, error)
	GetQuoteTweets(ctx context.Context, id string, limit int) ([]model.Post, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]model.Account, error)
}

// APIError is a non-retryable or exhausted X API response.
type APIError struct {
	Endpoint string
	Status   int
}

func (e *APIError) Error() string { return fmt.Sprintf("x api %s: status %d", e.Endpoint, e.Status) }

var ErrTweetNotFound = errors.New("tweet not found")

// Options configures an HTTPClient. Zero values take defaults.
type Options struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Limiter     *rate.Limiter
	MaxAttempts int
	BaseBackoff time.Duration
}

// HTTPClient is a bearer-token client for X API v2. The limiter is supplied
// by the caller so several clients can share one budget.
type HTTPClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewHTTPClient(opts Options) *HTTPClient {
	c := &HTTPClient{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		bearerToken: opts.BearerToken,
		httpClient:  opts.HTTPClient,
		limiter:     opts.Limiter,
		maxAttempts: opts.MaxAttempts,
		baseBackoff: opts.BaseBackoff,
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.twitter.com"
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.limiter == nil {
		c.limiter = NewLimiter(0, 0)
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 5
	}
	if c.baseBackoff <= 0 {
		c.baseBackoff = 500 * time.Millisecond
	}
	return c
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	req.Header.Set("Accept", "application/json")
}

// getJSON performs a rate-limited GET with retries and decodes the body into dst.
func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, q url.Values, dst any) error {
	u := c.baseURL + "/2" + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.auth(req)
	resp, err := c.doWithRetry(ctx, endpointLabel(endpoint), req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &APIError{Endpoint: endpoint, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// endpointLabel strips ids from a path so metric labels stay bounded.
func endpointLabel(endpoint string) string {
	parts := strings.Split(endpoint, "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

type rawTweet struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	AuthorID       string    `json:"author_id"`
	CreatedAt      time.Time `json:"created_at"`
	ConversationID string    `json:"conversation_id"`
	References     []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
		LikeCount    int `json:"like_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
	Entities *struct {
		Hashtags []struct {
			Tag string `json:"tag"`
		} `json:"hashtags"`
		Mentions []struct {
			Username string `json:"username"`
		} `json:"mentions"`
		URLs []struct {
			ExpandedURL string `json:"expanded_url"`
		} `json:"urls"`
	} `json:"entities"`
}

func (r rawTweet) post() model.Post {
	p := model.Post{
		ID:             r.ID,
		AuthorID:       r.AuthorID,
		Text:           r.Text,
		CreatedAt:      r.CreatedAt,
		RetweetCount:   r.PublicMetrics.RetweetCount,
		LikeCount:      r.PublicMetrics.LikeCount,
		ReplyCount:     r.PublicMetrics.ReplyCount,
		QuoteCount:     r.PublicMetrics.QuoteCount,
		ConversationID: r.ConversationID,
	}
	for _, ref := range r.References {
		p.References = append(p.References, model.ReferencedPost{Type: model.ReferenceType(ref.Type), ID: ref.ID})
	}
	if r.Entities != nil {
		e := &model.Entities{}
		for _, h := range r.Entities.Hashtags {
			e.Hashtags = append(e.Hashtags, h.Tag)
		}
		for _, m := range r.Entities.Mentions {
			e.Mentions = append(e.Mentions, m.Username)
		}
		for _, u := range r.Entities.URLs {
			e.URLs = append(e.URLs, u.ExpandedURL)
		}
		p.Entities = e
	}
	return p
}

type rawUser struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Username        string    `json:"username"`
	CreatedAt       time.Time `json:"created_at"`
	Verified        bool      `json:"verified"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	ProfileImageURL string    `json:"profile_image_url"`
	PublicMetrics   struct {
		FollowersCount int `json:"followers_count"`
		FollowingCount int `json:"following_count"`
		TweetCount     int `json:"tweet_count"`
	} `json:"public_metrics"`
}

func (r rawUser) account() model.Account {
	return model.Account{
		ID:             r.ID,
		Handle:         r.Username,
		DisplayName:    r.Name,
		CreatedAt:      r.CreatedAt,
		FollowersCount: r.PublicMetrics.FollowersCount,
		FollowingCount: r.PublicMetrics.FollowingCount,
		TweetCount:     r.PublicMetrics.TweetCount,
		Verified:       r.Verified,
		Bio:            r.Description,
		Location:       r.Location,
		AvatarURL:      r.ProfileImageURL,
	}
}

type page struct {
	Data []rawTweet `json:"data"`
	Meta struct {
		NextToken   string `json:"next_token"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

// GetTweet fetches a single tweet.
func (c *HTTPClient) GetTweet(ctx context.Context, id string) (model.Post, error) {
	if id == "" {
		return model.Post{}, errors.New("empty tweet id")
	}
	var raw struct {
		Data *rawTweet `json:"data"`
	}
	err := c.getJSON(ctx, "/tweets/"+url.PathEscape(id), url.Values{"tweet.fields": {tweetFields}}, &raw)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return model.Post{}, fmt.Errorf("%s: %w", id, ErrTweetNotFound)
	}
	if err != nil {
		return model.Post{}, err
	}
	if raw.Data == nil {
		return model.Post{}, fmt.Errorf("%s: %w", id, ErrTweetNotFound)
	}
	return raw.Data.post(), nil
}

// SearchRecentTweets pages through recent search until limit posts are collected.
func (c *HTTPClient) SearchRecentTweets(ctx context.Context, query string, limit int) ([]model.Post, error) {
	q := url.Values{"query": {query}, "tweet.fields": {tweetFields}}
	return c.paged(ctx, "/tweets/search/recent", q, "next_token", 10, limit)
}

// GetQuoteTweets returns up to limit quotes of a tweet.
func (c *HTTPClient) GetQuoteTweets(ctx context.Context, id string, limit int) ([]model.Post, error) {
	q := url.Values{"tweet.fields": {tweetFields}}
	return c.paged(ctx, "/tweets/"+url.PathEscape(id)+"/quote_tweets", q, "pagination_token", 10, limit)
}

func (c *HTTPClient) paged(ctx context.Context, endpoint string, q url.Values, tokenParam string, minPage, limit int) ([]model.Post, error) {
	if limit <= 0 {
		return nil, nil
	}
	var out []model.Post
	token := ""
	for len(out) < limit {
		pq := url.Values{}
		for k, v := range q {
			pq[k] = v
		}
		pq.Set("max_results", strconv.Itoa(clamp(limit-len(out), minPage, maxPage)))
		if token != "" {
			pq.Set(tokenParam, token)
		}
		var p page
		if err := c.getJSON(ctx, endpoint, pq, &p); err != nil {
			return out, err
		}
		for _, t := range p.Data {
			if len(out) == limit {
				break
			}
			out = append(out, t.post())
		}
		token = p.Meta.NextToken
		if token == "" || len(p.Data) == 0 {
			break
		}
	}
	return out, nil
}

// GetUsersByIDs fetches user profiles, batching 100 ids per request.
func (c *HTTPClient) GetUsersByIDs(ctx context.Context, ids []string) ([]model.Account, error) {
	var out []model.Account
	for start := 0; start < len(ids); start += maxPage {
		end := start + maxPage
		if end > len(ids) {
			end = len(ids)
		}
		var raw struct {
			Data []rawUser `json:"data"`
		}
		q := url.Values{"ids": {strings.Join(ids[start:end], ",")}, "user.fields": {userFields}}
		if err := c.getJSON(ctx, "/users", q, &raw); err != nil {
			return out, err
		}
		for _, u := range raw.Data {
			out = append(out, u.account())
		}
	}
	return out, nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (c *HTTPClient) doWithRetry(ctx context.Context, endpoint string, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.IncAPIRetry(endpoint)
		}
		// every attempt, retries included, spends from the shared budget
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			retryable := resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)
			if !retryable || attempt == c.maxAttempts {
				return resp, nil
			}
			wait := retryAfter(resp.Header.Get("Retry-After"), backoff)
			_ = resp.Body.Close()
			if err := sleep(ctx, jitter(wait)); err != nil {
				return nil, err
			}
			backoff *= 2
			continue
		}
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// retryAfter honours a Retry-After header in seconds or HTTP-date form.
func retryAfter(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}

// jitter spreads wait by +/-20%.
func jitter(wait time.Duration) time.Duration {
	j := time.Duration(float64(wait) * 0.2)
	if j <= 0 {
		return wait
	}
	return wait - j + time.Duration(time.Now().UnixNano()%int64(2*j))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
