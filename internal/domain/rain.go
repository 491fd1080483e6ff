package domain

import "time"

// RainCategory labels one intensity row of the history table.
type RainCategory string

const (
	LightRain    RainCategory = "Light Rain"
	ModerateRain RainCategory = "Moderate Rain"
	HeavyRain    RainCategory = "Heavy Rain"
)

// Categories lists every rain category in report order.
func Categories() []RainCategory {
	return []RainCategory{LightRain, ModerateRain, HeavyRain}
}

// RainCounts are the per-category pixel counts derived from ChannelCounts.
type RainCounts struct {
	Light    int `json:"light_rain"`
	Moderate int `json:"moderate_rain"`
	Heavy    int `json:"heavy_rain"`
}

// Get returns the count for category, or 0 for an unknown category.
func (c RainCounts) Get(category RainCategory) int {
	switch category {
	case LightRain:
		return c.Light
	case ModerateRain:
		return c.Moderate
	case HeavyRain:
		return c.Heavy
	default:
		return 0
	}
}

// NoiseFloor is a static calibration subtracted from each category to
// cancel the radar product's background noise. The defaults were tuned
// against the MGM PPI images.
type NoiseFloor struct {
	Light    int
	Moderate int
	Heavy    int
}

// DefaultNoiseFloor is the calibration used by the continuous collector.
var DefaultNoiseFloor = NoiseFloor{Light: 5000, Moderate: 5000, Heavy: 3000}

// Apply maps channels to categories (light from red, moderate from blue,
// heavy from green), subtracts the floor and clamps at zero.
// The zero NoiseFloor yields the raw channel counts.
func (n NoiseFloor) Apply(c ChannelCounts) RainCounts {
	return RainCounts{
		Light:    max(0, c.Red-n.Light),
		Moderate: max(0, c.Blue-n.Moderate),
		Heavy:    max(0, c.Green-n.Heavy),
	}
}

// SiteSample is one site's outcome for a round. Err is set when the site
// could not be fetched or processed; its counts are then meaningless.
type SiteSample struct {
	Site string        `json:"site"`
	URL  string        `json:"url"`
	Raw  ChannelCounts `json:"raw"`
	Rain RainCounts    `json:"rain"`
	Err  error         `json:"-"`
}

// OK reports whether the sample carries valid counts.
func (s SiteSample) OK() bool {
	return s.Err == nil
}

// RoundLabelLayout is the time layout of history column labels.
const RoundLabelLayout = "2006-01-02_15-04"

// Round is one pass over every configured site.
type Round struct {
	Label     string       `json:"round"`
	SampledAt time.Time    `json:"sampled_at"`
	Samples   []SiteSample `json:"samples"`
}

// NewRound labels a round by the given sample time.
func NewRound(at time.Time, samples []SiteSample) Round {
	return Round{
		Label:     at.Format(RoundLabelLayout),
		SampledAt: at,
		Samples:   samples,
	}
}

// Failed counts the samples that carry an error.
func (r Round) Failed() int {
	n := 0
	for _, s := range r.Samples {
		if !s.OK() {
			n++
		}
	}
	return n
}
