package policy

import "strings"

const BaseCost = 1

const (
	Duration30s  = "30s"
	Duration1m   = "1min"
	Duration1m30 = "1.5min"
)

// durationKeys is ordered by ascending cost.
var durationKeys = []string{Duration30s, Duration1m, Duration1m30}

var extraCost = map[string]int{
	Duration30s:  0,
	Duration1m:   1,
	Duration1m30: 3,
}

var durationAliases = map[string]string{
	"60s": Duration1m,
	"90s": Duration1m30,
}

// Options are the job parameters that affect pricing.
type Options struct {
	Duration string
}

// NormalizeDuration maps aliases onto their canonical key. Unknown values
// are returned trimmed and lower-cased.
func NormalizeDuration(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if canonical, ok := durationAliases[d]; ok {
		return canonical
	}
	return d
}

// KnownDuration reports whether d, after normalization, has a price.
func KnownDuration(d string) bool {
	_, ok := extraCost[NormalizeDuration(d)]
	return ok
}

// Cost is the number of credits a job costs. An unknown duration costs the
// base price only.
func Cost(opts Options) int {
	return BaseCost + extraCost[NormalizeDuration(opts.Duration)]
}

func CanAfford(balance int, opts Options) bool {
	return balance >= Cost(opts)
}

// AffordableDurations lists the canonical durations whose cost fits in the
// balance, cheapest first.
func AffordableDurations(balance int) []string {
	var out []string
	for _, d := range durationKeys {
		if CanAfford(balance, Options{Duration: d}) {
			out = append(out, d)
		}
	}
	return out
}

// Durations returns every canonical duration, cheapest first.
func Durations() []string {
	return append([]string(nil), durationKeys...)
}
