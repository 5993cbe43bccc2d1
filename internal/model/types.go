package model

import "time"

// Account is a snapshot of an X profile taken at collection time.
type Account struct {
	ID             string    `json:"id" validate:"required"`
	Handle         string    `json:"handle" validate:"required"`
	DisplayName    string    `json:"display_name"`
	CreatedAt      time.Time `json:"created_at" validate:"required"`
	FollowersCount int       `json:"followers_count" validate:"min=0"`
	FollowingCount int       `json:"following_count" validate:"min=0"`
	TweetCount     int       `json:"tweet_count" validate:"min=0"`
	Verified       bool      `json:"verified"`
	Bio            string    `json:"bio,omitempty"`
	Location       string    `json:"location,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
}

// ReferenceType is how a post points at another post.
type ReferenceType string

const (
	RefReposted  ReferenceType = "retweeted"
	RefQuoted    ReferenceType = "quoted"
	RefRepliedTo ReferenceType = "replied_to"
)

// ReferencedPost links a post to the one it reposts, quotes or replies to.
type ReferencedPost struct {
	Type ReferenceType `json:"type"`
	ID   string        `json:"id"`
}

// Entities are the extracted hashtags, mentions and urls of a post.
type Entities struct {
	Hashtags []string `json:"hashtags,omitempty"`
	Mentions []string `json:"mentions,omitempty"`
	URLs     []string `json:"urls,omitempty"`
}

// Post represents a subset of X tweet fields used by the tool.
type Post struct {
	ID             string           `json:"id" validate:"required"`
	AuthorID       string           `json:"author_id" validate:"required"`
	Text           string           `json:"text"`
	CreatedAt      time.Time        `json:"created_at" validate:"required"`
	RetweetCount   int              `json:"retweet_count"`
	LikeCount      int              `json:"like_count"`
	ReplyCount     int              `json:"reply_count"`
	QuoteCount     int              `json:"quote_count"`
	Entities       *Entities        `json:"entities,omitempty"`
	ConversationID string           `json:"conversation_id,omitempty"`
	References     []ReferencedPost `json:"referenced_tweets,omitempty"`
}

// EventType is the kind of participation in a cascade.
type EventType string

const (
	EventOriginal EventType = "original"
	EventRepost   EventType = "retweet"
	EventQuote    EventType = "quote"
	EventReply    EventType = "reply"
)

// SpreadEvent is one participation in a cascade.
type SpreadEvent struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	AccountID    string    `json:"account_id"`
	TargetPostID string    `json:"target_post_id"`
	Timestamp    time.Time `json:"timestamp"`
	Depth        int       `json:"depth"` // 0 = original post
	Text         string    `json:"text,omitempty"`
}

// Participation is a repost, quote or reply as collected.
type Participation struct {
	ID           string    `json:"id,omitempty"`
	AuthorID     string    `json:"author_id" validate:"required"`
	Timestamp    time.Time `json:"created_at" validate:"required"`
	Depth        int       `json:"depth" validate:"min=0"`
	Text         string    `json:"text,omitempty"`
	TargetPostID string    `json:"target_post_id,omitempty"` // empty means the original post
}

// SpreadDataset is the aggregate root for one analysis. Read-only once built.
type SpreadDataset struct {
	Original    Post            `json:"original"`
	Reposts     []Participation `json:"retweets" validate:"dive"`
	Quotes      []Participation `json:"quotes" validate:"dive"`
	Replies     []Participation `json:"replies" validate:"dive"`
	Accounts    []Account       `json:"accounts,omitempty" validate:"dive"`
	CollectedAt time.Time       `json:"collected_at,omitempty"`
}

// NodeRole is an account's position in the propagation graph.
type NodeRole string

const (
	RoleSource   NodeRole = "source"
	RoleSpreader NodeRole = "spreader"
	// RoleEndpoint is never assigned by graph.Build, which only knows source and spreader.
	RoleEndpoint NodeRole = "endpoint"
)

// NetworkNode is one account in the graph.
type NetworkNode struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	Role           NodeRole  `json:"role"`
	InfluenceScore float64   `json:"influence_score"`
	Connections    []string  `json:"connections"`
	FirstSeen      time.Time `json:"first_seen"`
}

// NetworkEdge is a directed participation edge, spreader -> source author.
type NetworkEdge struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Type      EventType `json:"type"`
	Weight    float64   `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityPattern summarises when a cluster's members act.
type ActivityPattern struct {
	HourlyDistribution [24]float64 `json:"hourly_distribution"`
	DailyDistribution  [7]float64  `json:"daily_distribution"`
	CoordinationScore  float64     `json:"coordination_score"`
	Burstiness         float64     `json:"burstiness"`
}

// Cluster is a connected component of at least three accounts.
type Cluster struct {
	ID              string          `json:"id"`
	Members         []string        `json:"members"`
	Coherence       float64         `json:"coherence"`
	ActivityPattern ActivityPattern `json:"activity_pattern"`
	SuspicionScore  float64         `json:"suspicion_score"`
}

// InfluencerRole classifies an influencer's part in the spread.
type InfluencerRole string

const (
	RoleOriginator InfluencerRole = "originator"
	RoleAmplifier  InfluencerRole = "amplifier"
	RoleBridge     InfluencerRole = "bridge"
)

// Reach counts how far an account's neighbourhood extends.
type Reach struct {
	Direct       int `json:"direct"`
	Indirect     int `json:"indirect"`
	CascadeDepth int `json:"cascade_depth"`
}

type InfluencerNode struct {
	AccountID      string         `json:"account_id"`
	InfluenceScore float64        `json:"influence_score"`
	Reach          Reach          `json:"reach"`
	Role           InfluencerRole `json:"role"`
}

// PropagationPath is the route from the source to one leaf account.
type PropagationPath struct {
	Nodes     []string      `json:"nodes"` // source first
	TotalTime time.Duration `json:"total_time"`
	Velocity  float64       `json:"velocity"` // nodes per minute
	Reach     int           `json:"reach"`
}

// NetworkMetrics are graph-wide aggregates.
type NetworkMetrics struct {
	NodeCount             int     `json:"node_count"`
	EdgeCount             int     `json:"edge_count"`
	Density               float64 `json:"density"`
	AverageDegree         float64 `json:"average_degree"`
	ClusteringCoefficient float64 `json:"clustering_coefficient"`
	Modularity            float64 `json:"modularity"`
}

type NetworkAnalysis struct {
	AnalysisID       string            `json:"analysis_id"`
	Nodes            []NetworkNode     `json:"nodes"`
	Edges            []NetworkEdge     `json:"edges"`
	Clusters         []Cluster         `json:"clusters"`
	Influencers      []InfluencerNode  `json:"influencers"`
	PropagationPaths []PropagationPath `json:"propagation_paths"`
	Metrics          NetworkMetrics    `json:"metrics"`
}

// PatternType names the detector that produced a coordination pattern.
type PatternType string

const (
	PatternTemporal PatternType = "temporal"
	PatternContent  PatternType = "content"
	PatternNetwork  PatternType = "network"
	PatternMixed    PatternType = "mixed"
)

// Evidence is one event backing a coordination pattern.
type Evidence struct {
	EventID    string    `json:"event_id"`
	AccountID  string    `json:"account_id"`
	EventType  EventType `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	Similarity float64   `json:"similarity,omitempty"` // content patterns only
}

type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CoordinationPattern struct {
	ID         string        `json:"id"`
	AnalysisID string        `json:"analysis_id"`
	Type       PatternType   `json:"type"`
	DetectedBy []PatternType `json:"detected_by"`
	Accounts   []string      `json:"accounts"`
	Confidence float64       `json:"confidence"`
	Evidence   []Evidence    `json:"evidence"`
	TimeWindow TimeWindow    `json:"time_window"`
}

type AnomalyType string

const (
	AnomalySpike    AnomalyType = "spike"
	AnomalyPattern  AnomalyType = "pattern"
	AnomalyBehavior AnomalyType = "behavior"
	AnomalyNetwork  AnomalyType = "network"
)

// Severity is ordered low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank maps a severity to 1..4, 0 if unknown.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

type AnomalyMetrics struct {
	Deviation  float64 `json:"deviation"`
	Baseline   float64 `json:"baseline"`
	Observed   float64 `json:"observed"`
	Confidence float64 `json:"confidence"`
}

type Anomaly struct {
	ID               string         `json:"id"`
	AnalysisID       string         `json:"analysis_id"`
	Type             AnomalyType    `json:"type"`
	Severity         Severity       `json:"severity"`
	Timestamp        time.Time      `json:"timestamp"`
	Description      string         `json:"description"`
	AffectedAccounts []string       `json:"affected_accounts"`
	Metrics          AnomalyMetrics `json:"metrics"`
}

// SignalType names one bot-likelihood heuristic.
type SignalType string

const (
	SignalAccountAge          SignalType = "account_age"
	SignalTweetFrequency      SignalType = "tweet_frequency"
	SignalFollowRatio         SignalType = "follow_ratio"
	SignalProfileCompleteness SignalType = "profile_completeness"
	SignalDefaultAvatar       SignalType = "default_avatar"
	SignalUsernamePattern     SignalType = "username_pattern"
	SignalEngagementRate      SignalType = "engagement_rate"
)

type BotSignal struct {
	Type        SignalType `json:"type"`
	Value       float64    `json:"value"`
	Weight      float64    `json:"weight"`
	Description string     `json:"description"`
}

// Classification is ordered human < uncertain < cyborg < bot.
type Classification string

const (
	ClassHuman     Classification = "human"
	ClassUncertain Classification = "uncertain"
	ClassCyborg    Classification = "cyborg"
	ClassBot       Classification = "bot"
)

type BotDetectionResult struct {
	AccountID      string         `json:"account_id"`
	BotProbability float64        `json:"bot_probability"`
	Signals        []BotSignal    `json:"signals"`
	Classification Classification `json:"classification"`
	Confidence     float64        `json:"confidence"`
}

// AnalysisStatus is the lifecycle of one analysis record.
type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "pending"
	StatusRunning   AnalysisStatus = "running"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)
