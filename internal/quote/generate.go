package quote

import (
	"fmt"
	"sort"

	"freightquote/internal/rate"
)

// minRecommendedRating is the rating a carrier needs to be recommended outright.
const minRecommendedRating = 4.6

// Generate produces the ranked quote list for req using est and src.
// It has no failure path for a validated request.
func Generate(req Request, est rate.Estimator, src rate.Source) []CarrierQuote {
	modeCarriers := carriers[req.Mode]
	tariff := rate.TariffFor(req.Mode)

	quotes := make([]CarrierQuote, 0, len(modeCarriers))
	for i, c := range modeCarriers {
		price, days := est.Estimate(src, req.Mode, req.WeightKg)
		quotes = append(quotes, CarrierQuote{
			ID:                fmt.Sprintf("quote-%s-%d", req.Mode, i),
			Carrier:           c.Name,
			CarrierLogo:       c.Logo,
			Price:             price,
			Currency:          Currency,
			TransitTime:       TransitLabel(days),
			TransitDays:       days,
			Mode:              req.Mode,
			Badges:            []Badge{},
			Rating:            c.Rating,
			Reliability:       c.Reliability,
			CO2Emission:       tariff.CO2,
			IncludesInsurance: src.Float64() > 0.5,
		})
	}
	return Rank(AssignBadges(quotes))
}

// TransitLabel renders a transit time in days as the label shown to users.
func TransitLabel(days int) string {
	switch {
	case days <= 1:
		return "1 business day"
	case days <= 5:
		return fmt.Sprintf("%d business days", days)
	case days <= 7:
		return "1 week"
	case days <= 14:
		return "2 weeks"
	case days <= 21:
		return "3 weeks"
	case days <= 30:
		return "1 month"
	default:
		return fmt.Sprintf("%d weeks", days/7)
	}
}

// AssignBadges returns copies of quotes annotated with cheapest, fastest and
// recommended badges. Any badges already present on the input are discarded.
// Ties go to the earliest quote in input order.
func AssignBadges(quotes []CarrierQuote) []CarrierQuote {
	out := make([]CarrierQuote, len(quotes))
	copy(out, quotes)
	if len(out) == 0 {
		return out
	}

	byPrice := indexesBy(out, func(a, b CarrierQuote) bool { return a.Price < b.Price })
	byTime := indexesBy(out, func(a, b CarrierQuote) bool { return a.TransitDays < b.TransitDays })
	cheapest, fastest := byPrice[0], byTime[0]

	recommended := -1
	if len(out) >= 2 {
		secondPrice := out[byPrice[1]].Price
		for i, q := range out {
			if i == cheapest || i == fastest {
				continue
			}
			if q.Rating >= minRecommendedRating && q.Price <= secondPrice {
				recommended = i
				break
			}
		}
		if recommended < 0 {
			if fb := byPrice[1]; fb != cheapest && fb != fastest {
				recommended = fb
			}
		}
	}

	for i := range out {
		badges := []Badge{}
		if i == cheapest {
			badges = append(badges, BadgeCheapest)
		}
		if i == fastest {
			badges = append(badges, BadgeFastest)
		}
		if i == recommended {
			badges = append(badges, BadgeRecommended)
		}
		out[i].Badges = badges
	}
	return out
}

// Rank orders badged quotes: recommended first, then cheapest, then the rest
// by ascending price. The input is not modified.
func Rank(quotes []CarrierQuote) []CarrierQuote {
	out := make([]CarrierQuote, len(quotes))
	copy(out, quotes)
	rank := func(q CarrierQuote) int {
		switch {
		case q.HasBadge(BadgeRecommended):
			return 0
		case q.HasBadge(BadgeCheapest):
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i]), rank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i].Price < out[j].Price
	})
	return out
}

// SortPreference selects the display order of a result list.
type SortPreference string

const (
	SortPrice SortPreference = "price"
	SortTime  SortPreference = "time"
)

// ParseSortPreference maps "time" to SortTime and anything else to SortPrice.
func ParseSortPreference(s string) SortPreference {
	if SortPreference(s) == SortTime {
		return SortTime
	}
	return SortPrice
}

// SortBy returns quotes re-ordered for display. Badges are left untouched.
func SortBy(quotes []CarrierQuote, pref SortPreference) []CarrierQuote {
	out := make([]CarrierQuote, len(quotes))
	copy(out, quotes)
	sort.SliceStable(out, func(i, j int) bool {
		if pref == SortTime {
			return out[i].TransitDays < out[j].TransitDays
		}
		return out[i].Price < out[j].Price
	})
	return out
}

// indexesBy returns the indexes of quotes stably sorted by less.
func indexesBy(quotes []CarrierQuote, less func(a, b CarrierQuote) bool) []int {
	idx := make([]int, len(quotes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return less(quotes[idx[a]], quotes[idx[b]])
	})
	return idx
}
