package bot

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"spreadscope/internal/model"
	"spreadscope/internal/util"
)

func accountAgeSignal(ageDays float64, followers int) float64 {
	switch {
	case ageDays < 30 && followers > 1000:
		return 0.9
	case ageDays < 90 && followers > 5000:
		return 0.7
	case ageDays < 180 && followers > 10000:
		return 0.5
	case ageDays > 3*365 && followers < 50:
		return 0.6
	}
	return 0.1
}

func tweetFrequencySignal(perDay float64) float64 {
	switch {
	case perDay > 100:
		return 1.0
	case perDay > 50:
		return 0.8
	case perDay > 30:
		return 0.6
	case perDay > 10 && perDay < 15:
		// suspiciously steady scheduler-like volume
		return 0.4
	}
	return 0.1
}

func followRatioSignal(following, followers int) float64 {
	ratio := float64(following) / math.Max(float64(followers), 1)
	switch {
	case ratio > 50:
		return 1.0
	case ratio > 20:
		return 0.8
	case ratio > 10:
		return 0.6
	case ratio > 5:
		return 0.4
	}
	diff := following - followers
	if diff < 0 {
		diff = -diff
	}
	if diff < 10 && following > 100 {
		return 0.7
	}
	return 0.1
}

// Profile factor weights. The score divides by their fixed sum so adding a
// missing field never lowers it.
const (
	bioWeight      = 0.3
	locationWeight = 0.2
	avatarWeight   = 0.3
	nameWeight     = 0.2
	minBioLength   = 10
)

// profileIncompleteness is higher for emptier profiles.
func profileIncompleteness(a model.Account) float64 {
	score := 0.0
	if len(strings.TrimSpace(a.Bio)) < minBioLength {
		score += bioWeight
	}
	if strings.TrimSpace(a.Location) == "" {
		score += locationWeight
	}
	if a.AvatarURL == "" || defaultAvatarSignal(a.AvatarURL) > 0 {
		score += avatarWeight
	}
	if a.DisplayName == "" || strings.EqualFold(a.DisplayName, a.Handle) {
		score += nameWeight
	}
	return util.Clamp01(score / (bioWeight + locationWeight + avatarWeight + nameWeight))
}

var defaultAvatarMarkers = []string{"default_profile_images", "default_profile", "default-avatar"}

func defaultAvatarSignal(url string) float64 {
	if url != "" && util.ContainsAnyCaseInsensitive(url, defaultAvatarMarkers) {
		return 1
	}
	return 0
}

var (
	lettersThenDigits = regexp.MustCompile(`^[A-Za-z_]+\d{3,}$`)
	longDigitRun      = regexp.MustCompile(`\d{6,}`)
	alternatingCase   = regexp.MustCompile(`(?:[a-z][A-Z]){3,}`)
)

func usernameSignal(handle string) float64 {
	if handle == "" {
		return 0
	}
	score := 0.0
	if lettersThenDigits.MatchString(handle) {
		score += 0.3
	}
	digits := 0
	for _, r := range handle {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if float64(digits)/float64(len([]rune(handle))) > 0.4 {
		score += 0.3
	}
	if strings.Contains(strings.ToLower(handle), "bot") {
		score += 0.4
	}
	if longDigitRun.MatchString(handle) {
		score += 0.2
	}
	if alternatingCase.MatchString(handle) {
		score += 0.2
	}
	return math.Min(score, 1)
}

// engagementRateSignal is a constant: a true rate needs per-post engagement
// data that accounts do not carry.
func engagementRateSignal() float64 { return 0.3 }
