package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadscope/internal/model"
)

var ref = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func freshAmplifier(id string) model.Account {
	return model.Account{
		ID:             id,
		Handle:         "user83724615",
		CreatedAt:      ref.Add(-5 * 24 * time.Hour),
		FollowersCount: 2000,
		FollowingCount: 1995,
		TweetCount:     2000,
		AvatarURL:      "https://abs.twimg.com/sticky/default_profile_images/default_profile_normal.png",
	}
}

func regularPerson() model.Account {
	return model.Account{
		ID:             "h1",
		Handle:         "jane_doe",
		DisplayName:    "Jane Doe",
		CreatedAt:      ref.Add(-5 * 365 * 24 * time.Hour),
		FollowersCount: 300,
		FollowingCount: 250,
		TweetCount:     5000,
		Bio:            "Coffee, code and long walks",
		Location:       "Lisbon",
		AvatarURL:      "https://pbs.twimg.com/profile_images/123/me.jpg",
	}
}

func TestDetectBotsSeparatesAmplifierFromPerson(t *testing.T) {
	res := NewDetector(ref).DetectBots([]model.Account{freshAmplifier("b1"), regularPerson()})
	require.Len(t, res, 2)

	amp := res[0]
	assert.Equal(t, "b1", amp.AccountID)
	assert.InDelta(t, 0.8825, amp.BotProbability, 1e-3)
	assert.Equal(t, model.ClassBot, amp.Classification)
	require.Len(t, amp.Signals, 7)
	assert.Equal(t, model.SignalAccountAge, amp.Signals[0].Type)
	assert.InDelta(t, 0.9, amp.Signals[0].Value, 1e-9)
	assert.InDelta(t, 0.8, amp.Signals[5].Value, 1e-9)
	assert.InDelta(t, 0.3, amp.Signals[6].Value, 1e-9)
	assert.InDelta(t, 0.8753, amp.Confidence, 1e-3)

	person := res[1]
	assert.InDelta(t, 0.1597, person.BotProbability, 1e-3)
	assert.Equal(t, model.ClassHuman, person.Classification)
}

// youngPopular is new and unverified with a large following and nothing else
// bot-like: ordinary handle, modest volume, full profile, custom avatar.
func youngPopular(id string) model.Account {
	return model.Account{
		ID:             id,
		Handle:         "maria_sousa",
		DisplayName:    "Maria Sousa",
		CreatedAt:      ref.Add(-5 * 24 * time.Hour),
		FollowersCount: 2500,
		FollowingCount: 300,
		TweetCount:     50,
		Bio:            "Photographer and hiker",
		Location:       "Porto",
		AvatarURL:      "https://pbs.twimg.com/profile_images/9/m.jpg",
	}
}

func TestDetectBotsFlagsYoungPopularAccountOnAgeAlone(t *testing.T) {
	res := NewDetector(ref).DetectBots([]model.Account{youngPopular("y1")})
	require.Len(t, res, 1)
	assert.InDelta(t, 0.9, res[0].Signals[0].Value, 1e-9)
	assert.Zero(t, res[0].Signals[3].Value)
	assert.Zero(t, res[0].Signals[5].Value)
	assert.InDelta(t, 0.6495, res[0].BotProbability, 1e-3)
	assert.Equal(t, model.ClassCyborg, res[0].Classification)

	verified := youngPopular("y2")
	verified.Verified = true
	assert.Less(t, NewDetector(ref).DetectBots([]model.Account{verified})[0].BotProbability, res[0].BotProbability)
}

func TestSignalWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range signalWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	sum = 0
	for _, w := range featureWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestClassifyMonotonic(t *testing.T) {
	rank := map[model.Classification]int{model.ClassHuman: 0, model.ClassUncertain: 1, model.ClassCyborg: 2, model.ClassBot: 3}
	prev := -1
	for i := 0; i <= 1000; i++ {
		r := rank[Classify(float64(i) / 1000)]
		assert.GreaterOrEqual(t, r, prev)
		prev = r
	}
	assert.Equal(t, model.ClassBot, Classify(0.8))
	assert.Equal(t, model.ClassCyborg, Classify(0.6))
	assert.Equal(t, model.ClassUncertain, Classify(0.4))
	assert.Equal(t, model.ClassHuman, Classify(0.39))
}

func TestAccountAgeSignal(t *testing.T) {
	cases := []struct {
		age       float64
		followers int
		want      float64
	}{
		{10, 1500, 0.9},
		{60, 6000, 0.7},
		{120, 20000, 0.5},
		{2000, 10, 0.6},
		{400, 400, 0.1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, accountAgeSignal(c.age, c.followers), "age=%v followers=%d", c.age, c.followers)
	}
}

func TestTweetFrequencyAndFollowRatio(t *testing.T) {
	assert.Equal(t, 1.0, tweetFrequencySignal(150))
	assert.Equal(t, 0.8, tweetFrequencySignal(60))
	assert.Equal(t, 0.6, tweetFrequencySignal(40))
	assert.Equal(t, 0.4, tweetFrequencySignal(12))
	assert.Equal(t, 0.1, tweetFrequencySignal(20))

	assert.Equal(t, 1.0, followRatioSignal(5100, 100))
	assert.Equal(t, 0.8, followRatioSignal(2100, 100))
	assert.Equal(t, 0.6, followRatioSignal(1100, 100))
	assert.Equal(t, 0.4, followRatioSignal(600, 100))
	assert.Equal(t, 0.7, followRatioSignal(505, 500))
	assert.Equal(t, 0.1, followRatioSignal(50, 45))
}

func TestUsernameSignal(t *testing.T) {
	assert.InDelta(t, 0.8, usernameSignal("user83724615"), 1e-9)
	assert.InDelta(t, 0.4, usernameSignal("newsbot"), 1e-9)
	assert.InDelta(t, 0.2, usernameSignal("aBcDeFg"), 1e-9)
	assert.Zero(t, usernameSignal("jane_doe"))
	assert.LessOrEqual(t, usernameSignal("bot12345678aBcDeF"), 1.0)
}

func TestProfileIncompletenessMonotonic(t *testing.T) {
	full := regularPerson()
	assert.Zero(t, profileIncompleteness(full))
	noLoc := full
	noLoc.Location = ""
	noBio := noLoc
	noBio.Bio = ""
	assert.Less(t, profileIncompleteness(noLoc), profileIncompleteness(noBio))
	assert.InDelta(t, 1.0, profileIncompleteness(freshAmplifier("x")), 1e-9)
}

func TestDetectBotsDeterministicWithFixedReference(t *testing.T) {
	d := NewDetector(ref)
	accts := []model.Account{freshAmplifier("a"), regularPerson()}
	assert.Equal(t, d.DetectBots(accts), d.DetectBots(accts))
}
