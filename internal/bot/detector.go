// Package bot scores accounts for bot likelihood with fixed rule-based
// heuristics. No model is trained or loaded.
package bot

import (
	"math"
	"time"

	"spreadscope/internal/model"
	"spreadscope/internal/util"
)

// Classification thresholds on bot probability.
const (
	BotThreshold       = 0.8
	CyborgThreshold    = 0.6
	UncertainThreshold = 0.4
)

// signalWeights are the fixed weights of the seven signals, in signal order.
var signalWeights = [7]float64{0.15, 0.20, 0.15, 0.10, 0.10, 0.15, 0.15}

// featureWeights weight the 13-dimension feature vector: five normalized
// profile statistics, verified-inverse, then the seven signals. Youth,
// verified-inverse and the age signal carry most of the mass, so a new
// unverified account with a large following reaches cyborg on its own.
var featureWeights = [13]float64{
	0.25, 0.03, 0.01, 0.01, 0.03, 0.10,
	0.30, 0.06, 0.05, 0.04, 0.04, 0.05, 0.03,
}

// Detector scores each account independently of the others.
type Detector struct {
	// Now is the instant account ages are measured against.
	Now func() time.Time
}

// NewDetector returns a detector measuring age against ref.
func NewDetector(ref time.Time) *Detector {
	return &Detector{Now: func() time.Time { return ref }}
}

// DetectBots scores every account, preserving input order.
func (d *Detector) DetectBots(accounts []model.Account) []model.BotDetectionResult {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	out := make([]model.BotDetectionResult, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, score(a, now))
	}
	return out
}

func score(a model.Account, now time.Time) model.BotDetectionResult {
	ageDays := now.Sub(a.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	perDay := float64(a.TweetCount) / math.Max(ageDays, 1)

	signals := []model.BotSignal{
		{Type: model.SignalAccountAge, Value: accountAgeSignal(ageDays, a.FollowersCount), Description: "account age relative to follower count"},
		{Type: model.SignalTweetFrequency, Value: tweetFrequencySignal(perDay), Description: "tweets per day since creation"},
		{Type: model.SignalFollowRatio, Value: followRatioSignal(a.FollowingCount, a.FollowersCount), Description: "following to followers ratio"},
		{Type: model.SignalProfileCompleteness, Value: profileIncompleteness(a), Description: "missing bio, location, avatar or display name"},
		{Type: model.SignalDefaultAvatar, Value: defaultAvatarSignal(a.AvatarURL), Description: "default profile image"},
		{Type: model.SignalUsernamePattern, Value: usernameSignal(a.Handle), Description: "generated-looking handle"},
		{Type: model.SignalEngagementRate, Value: engagementRateSignal(), Description: "engagement rate (not measured, constant)"},
	}
	weighted := 0.0
	for i := range signals {
		signals[i].Weight = signalWeights[i]
		weighted += signals[i].Value * signals[i].Weight
	}

	p := probability(features(a, ageDays, perDay, signals))
	agreement := 1 - math.Abs(weighted-p)
	extremity := math.Abs(p-0.5) * 2
	return model.BotDetectionResult{
		AccountID:      a.ID,
		BotProbability: p,
		Signals:        signals,
		Classification: Classify(p),
		Confidence:     util.Clamp01(0.7*agreement + 0.3*extremity),
	}
}

// features builds the 13-dimension vector. Higher values are more bot-like
// except followers, which only adds scale.
func features(a model.Account, ageDays, perDay float64, signals []model.BotSignal) [13]float64 {
	var f [13]float64
	f[0] = 1 - math.Min(ageDays/365, 1)
	f[1] = math.Min(perDay/100, 1)
	f[2] = math.Min(math.Log10(float64(a.FollowersCount)+1)/7, 1)
	f[3] = math.Min(math.Log10(float64(a.FollowingCount)+1)/5, 1)
	f[4] = math.Min(float64(a.FollowingCount)/math.Max(float64(a.FollowersCount), 1)/50, 1)
	if !a.Verified {
		f[5] = 1
	}
	for i, s := range signals {
		f[6+i] = s.Value
	}
	return f
}

// probability is the fallback weighted sum used in place of a trained model.
func probability(f [13]float64) float64 {
	sum := 0.0
	for i, v := range f {
		sum += v * featureWeights[i]
	}
	return util.Clamp01(sum)
}

// Classify maps a probability to a class; monotonic in p.
func Classify(p float64) model.Classification {
	switch {
	case p >= BotThreshold:
		return model.ClassBot
	case p >= CyborgThreshold:
		return model.ClassCyborg
	case p >= UncertainThreshold:
		return model.ClassUncertain
	default:
		return model.ClassHuman
	}
}
