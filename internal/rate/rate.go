package rate

import (
	"math"
	"strings"
)

// Mode is a transport mode offered by the quote form.
type Mode string

const (
	Maritime Mode = "maritime"
	Air      Mode = "air"
	Road     Mode = "road"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{Maritime, Air, Road}

// ParseMode returns the mode named by s, or false when s is not exactly one
// of Modes. Case and surrounding spaces are not forgiven.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	for _, known := range Modes {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// Band is a closed numeric range.
type Band struct {
	Min float64
	Max float64
}

// Tariff holds the simulated pricing and transit parameters for one mode.
type Tariff struct {
	PerKg     Band
	Surcharge float64
	Transit   Band
	CO2       string
}

var tariffs = map[Mode]Tariff{
	Maritime: {PerKg: Band{0.8, 2.5}, Surcharge: 500, Transit: Band{15, 45}, CO2: "Low"},
	Air:      {PerKg: Band{8, 25}, Surcharge: 200, Transit: Band{1, 5}, CO2: "High"},
	Road:     {PerKg: Band{1.5, 5}, Surcharge: 100, Transit: Band{2, 10}, CO2: "Medium"},
}

// TariffFor returns the tariff of a mode. Unknown modes get the zero Tariff.
func TariffFor(m Mode) Tariff {
	return tariffs[m]
}

// Source is the uniform random source estimators sample from.
// *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Estimator defines the interface for rate estimation engines.
type Estimator interface {
	Estimate(src Source, mode Mode, weightKg float64) (price float64, transitDays int)
}

// Simulated samples a per-kg rate and transit time uniformly inside the mode's tariff.
type Simulated struct{}

func NewSimulated() *Simulated { return &Simulated{} }

func (s *Simulated) Estimate(src Source, mode Mode, weightKg float64) (float64, int) {
	t := TariffFor(mode)
	// transit is drawn before price
	days := int(math.Floor(t.Transit.Min + src.Float64()*(t.Transit.Max-t.Transit.Min)))
	perKg := t.PerKg.Min + src.Float64()*(t.PerKg.Max-t.PerKg.Min)
	return Round2(weightKg*perKg + t.Surcharge), days
}

// Midpoint prices every carrier at the middle of the tariff bands.
// It ignores the random source.
type Midpoint struct{}

func NewMidpoint() *Midpoint { return &Midpoint{} }

func (m *Midpoint) Estimate(_ Source, mode Mode, weightKg float64) (float64, int) {
	t := TariffFor(mode)
	perKg := (t.PerKg.Min + t.PerKg.Max) / 2
	days := int(math.Floor((t.Transit.Min + t.Transit.Max) / 2))
	return Round2(weightKg*perKg + t.Surcharge), days
}

// NewByName returns an Estimator by provider name.
// Unknown names fall back to Simulated.
func NewByName(name string) Estimator {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "midpoint":
		return NewMidpoint()
	default:
		return NewSimulated()
	}
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
