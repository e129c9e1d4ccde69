// Package quote validates freight quote requests and produces ranked,
// badge-annotated carrier quotes for them.
package quote

import (
	"strconv"

	"freightquote/internal/rate"
)

// Currency of every generated price.
const Currency = "BRL"

// Badge marks a quote as notable within its result set.
type Badge string

const (
	BadgeCheapest    Badge = "cheapest"
	BadgeFastest     Badge = "fastest"
	BadgeRecommended Badge = "recommended"
)

// Request is a validated quote request. Build one with Validate.
type Request struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	WeightKg    float64   `json:"weight"`
	Mode        rate.Mode `json:"mode"`
	LengthCm    *float64  `json:"length,omitempty"`
	WidthCm     *float64  `json:"width,omitempty"`
	HeightCm    *float64  `json:"height,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
}

// Form renders the request back into raw form fields.
func (r Request) Form() Form {
	f := Form{
		Origin:      r.Origin,
		Destination: r.Destination,
		Weight:      FormValue(formatFloat(r.WeightKg)),
		Mode:        string(r.Mode),
		Email:       r.Email,
		Phone:       r.Phone,
	}
	if r.LengthCm != nil {
		f.Length = FormValue(formatFloat(*r.LengthCm))
	}
	if r.WidthCm != nil {
		f.Width = FormValue(formatFloat(*r.WidthCm))
	}
	if r.HeightCm != nil {
		f.Height = FormValue(formatFloat(*r.HeightCm))
	}
	return f
}

// CarrierQuote is one synthetic carrier offer.
type CarrierQuote struct {
	ID                string    `json:"id"`
	Carrier           string    `json:"carrier"`
	CarrierLogo       string    `json:"carrier_logo"`
	Price             float64   `json:"price"`
	Currency          string    `json:"currency"`
	TransitTime       string    `json:"transit_time"`
	TransitDays       int       `json:"transit_days"`
	Mode              rate.Mode `json:"mode"`
	Badges            []Badge   `json:"badges"`
	Rating            float64   `json:"rating"`
	Reliability       string    `json:"reliability"`
	CO2Emission       string    `json:"co2_emission,omitempty"`
	IncludesInsurance bool      `json:"includes_insurance"`
}

// HasBadge reports whether q carries b.
func (q CarrierQuote) HasBadge(b Badge) bool {
	for _, have := range q.Badges {
		if have == b {
			return true
		}
	}
	return false
}

// Result is a generated quote list together with the request it answers.
type Result struct {
	Quotes          []CarrierQuote `json:"quotes"`
	Origin          string         `json:"origin"`
	Destination     string         `json:"destination"`
	EstimatedWeight float64        `json:"estimated_weight"`
	Mode            rate.Mode      `json:"mode"`
}

// NewResult wraps quotes generated for req.
func NewResult(req Request, quotes []CarrierQuote) Result {
	return Result{
		Quotes:          quotes,
		Origin:          req.Origin,
		Destination:     req.Destination,
		EstimatedWeight: req.WeightKg,
		Mode:            req.Mode,
	}
}

// LowestPrice returns the minimum price in quotes, or 0 when empty.
func LowestPrice(quotes []CarrierQuote) float64 {
	if len(quotes) == 0 {
		return 0
	}
	low := quotes[0].Price
	for _, q := range quotes[1:] {
		if q.Price < low {
			low = q.Price
		}
	}
	return low
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
