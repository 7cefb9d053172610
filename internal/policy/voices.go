package policy

import (
	"sort"
	"strings"
)

// Unbounded is the voice limit of plans without a cap.
const Unbounded = -1

type Voice struct {
	ID         string
	Name       string
	Language   string
	Gender     string
	PreviewURL string
}

var voiceLimits = map[Plan]int{
	PlanFree:    20,
	PlanPremium: 100,
	PlanPro:     Unbounded,
}

func VoiceLimit(p Plan) int {
	if limit, ok := voiceLimits[p]; ok {
		return limit
	}
	return voiceLimits[PlanFree]
}

// RankVoices returns a copy of voices ordered by: "professional" in the
// name, "lifelike" in the name, English language, presence of a preview,
// then name. Ties keep their input order.
func RankVoices(voices []Voice) []Voice {
	ranked := make([]Voice, len(voices))
	copy(ranked, voices)

	sort.SliceStable(ranked, func(i, j int) bool {
		return voiceLess(ranked[i], ranked[j])
	})
	return ranked
}

// SelectVoices ranks the catalog and trims it to the plan's limit.
func SelectVoices(voices []Voice, p Plan) []Voice {
	ranked := RankVoices(voices)
	limit := VoiceLimit(p)
	if limit != Unbounded && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func voiceLess(a, b Voice) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)

	keys := [][2]bool{
		{strings.Contains(an, "professional"), strings.Contains(bn, "professional")},
		{strings.Contains(an, "lifelike"), strings.Contains(bn, "lifelike")},
		{isEnglish(a.Language), isEnglish(b.Language)},
		{a.PreviewURL != "", b.PreviewURL != ""},
	}
	for _, k := range keys {
		if k[0] != k[1] {
			return k[0]
		}
	}
	return an < bn
}

func isEnglish(language string) bool {
	l := strings.ToLower(strings.TrimSpace(language))
	return l == "english" || l == "en" || strings.HasPrefix(l, "en-") || strings.HasPrefix(l, "english")
}
