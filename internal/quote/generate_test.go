package quote

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightquote/internal/rate"
)

func mk(id string, price float64, days int, rating float64) CarrierQuote {
	return CarrierQuote{ID: id, Price: price, TransitDays: days, Rating: rating}
}

func ids(quotes []CarrierQuote) []string {
	out := make([]string, len(quotes))
	for i, q := range quotes {
		out[i] = q.ID
	}
	return out
}

func byID(quotes []CarrierQuote) map[string]CarrierQuote {
	m := make(map[string]CarrierQuote, len(quotes))
	for _, q := range quotes {
		m[q.ID] = q
	}
	return m
}

func countBadge(quotes []CarrierQuote, b Badge) int {
	n := 0
	for _, q := range quotes {
		if q.HasBadge(b) {
			n++
		}
	}
	return n
}

func TestTransitLabel(t *testing.T) {
	cases := map[int]string{
		1:  "1 business day",
		2:  "2 business days",
		5:  "5 business days",
		6:  "1 week",
		7:  "1 week",
		8:  "2 weeks",
		14: "2 weeks",
		15: "3 weeks",
		21: "3 weeks",
		22: "1 month",
		30: "1 month",
		31: "4 weeks",
		35: "5 weeks",
		44: "6 weeks",
	}
	for days, want := range cases {
		assert.Equal(t, want, TransitLabel(days), "days=%d", days)
	}
}

func TestAssignBadges_OutrightRecommendation(t *testing.T) {
	in := []CarrierQuote{
		mk("a", 100, 5, 4.4),
		mk("b", 150, 2, 4.5),
		mk("c", 150, 4, 4.7),
		mk("d", 300, 9, 4.8),
	}
	out := byID(AssignBadges(in))
	assert.Equal(t, []Badge{BadgeCheapest}, out["a"].Badges)
	assert.Equal(t, []Badge{BadgeFastest}, out["b"].Badges)
	assert.Equal(t, []Badge{BadgeRecommended}, out["c"].Badges)
	assert.Empty(t, out["d"].Badges)

	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(Rank(AssignBadges(in))))
}

func TestAssignBadges_FallbackToSecondCheapest(t *testing.T) {
	in := []CarrierQuote{
		mk("a", 100, 5, 4.4),
		mk("b", 150, 5, 4.5),
		mk("c", 200, 2, 4.7),
		mk("d", 300, 9, 4.8),
	}
	ranked := Rank(AssignBadges(in))
	out := byID(ranked)
	assert.Equal(t, []Badge{BadgeRecommended}, out["b"].Badges)
	assert.Equal(t, []Badge{BadgeFastest}, out["c"].Badges)
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(ranked))
}

func TestAssignBadges_FallbackAlreadyBadged(t *testing.T) {
	in := []CarrierQuote{
		mk("a", 100, 5, 4.4),
		mk("b", 100, 3, 4.5),
		mk("c", 200, 3, 4.7),
		mk("d", 300, 9, 4.8),
	}
	out := AssignBadges(in)
	assert.Zero(t, countBadge(out, BadgeRecommended))
	// price and time ties go to the earliest quote
	assert.True(t, out[0].HasBadge(BadgeCheapest))
	assert.True(t, out[1].HasBadge(BadgeFastest))
	assert.False(t, out[2].HasBadge(BadgeFastest))
}

func TestAssignBadges_CheapestAndFastestTogether(t *testing.T) {
	in := []CarrierQuote{
		mk("a", 300, 4, 4.9),
		mk("b", 100, 1, 4.4),
		mk("c", 200, 6, 4.4),
	}
	out := byID(AssignBadges(in))
	assert.Equal(t, []Badge{BadgeCheapest, BadgeFastest}, out["b"].Badges)
	// a is rated high enough but costs more than the second-lowest price
	assert.Equal(t, []Badge{BadgeRecommended}, out["c"].Badges)
	assert.Empty(t, out["a"].Badges)
}

func TestAssignBadges_SmallSets(t *testing.T) {
	assert.Empty(t, AssignBadges(nil))

	one := AssignBadges([]CarrierQuote{mk("a", 10, 3, 5)})
	require.Len(t, one, 1)
	assert.Equal(t, []Badge{BadgeCheapest, BadgeFastest}, one[0].Badges)
}

func TestAssignBadges_DoesNotMutateInput(t *testing.T) {
	in := []CarrierQuote{mk("a", 100, 5, 4.4), mk("b", 50, 9, 4.8)}
	in[0].Badges = []Badge{BadgeRecommended}
	out := AssignBadges(in)
	assert.Equal(t, []Badge{BadgeRecommended}, in[0].Badges)
	assert.Empty(t, in[1].Badges)
	assert.Equal(t, []Badge{BadgeFastest}, out[0].Badges)
}

func TestSortBy_KeepsBadges(t *testing.T) {
	ranked := Rank(AssignBadges([]CarrierQuote{
		mk("a", 100, 5, 4.4),
		mk("b", 150, 2, 4.5),
		mk("c", 150, 4, 4.7),
		mk("d", 300, 9, 4.8),
	}))
	byTime := SortBy(ranked, SortTime)
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(byTime))
	byPrice := SortBy(ranked, SortPrice)
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(byPrice))

	assert.Equal(t, byID(ranked), byID(byTime))
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(ranked))
}

func TestParseSortPreference(t *testing.T) {
	assert.Equal(t, SortTime, ParseSortPreference("time"))
	assert.Equal(t, SortPrice, ParseSortPreference("price"))
	assert.Equal(t, SortPrice, ParseSortPreference(""))
}

func TestGenerate_RoadScenario(t *testing.T) {
	req, err := Validate(Form{Origin: "01001-000", Destination: "88010-000", Weight: "500", Mode: "road"})
	require.NoError(t, err)

	quotes := Generate(req, rate.NewSimulated(), rand.New(rand.NewSource(42)))
	require.Len(t, quotes, 4)
	for _, q := range quotes {
		assert.Equal(t, rate.Road, q.Mode)
		assert.Equal(t, "Medium", q.CO2Emission)
		assert.Equal(t, Currency, q.Currency)
		assert.GreaterOrEqual(t, q.Price, 850.0)
		assert.LessOrEqual(t, q.Price, 2600.0)
		assert.GreaterOrEqual(t, q.TransitDays, 2)
		assert.Less(t, q.TransitDays, 10)
		assert.Equal(t, TransitLabel(q.TransitDays), q.TransitTime)
	}
}

func TestGenerate_Invariants(t *testing.T) {
	weights := []float64{0.1, 1, 37.5, 500, 12000, 100000}
	for seed := int64(0); seed < 50; seed++ {
		src := rand.New(rand.NewSource(seed))
		for _, m := range rate.Modes {
			for _, w := range weights {
				quotes := Generate(Request{Origin: "Santos", Destination: "Manaus", WeightKg: w, Mode: m}, rate.NewSimulated(), src)
				require.Len(t, quotes, CarrierCount(m))

				seen := map[string]bool{}
				low := LowestPrice(quotes)
				for _, q := range quotes {
					assert.False(t, seen[q.ID], "duplicate id %s", q.ID)
					seen[q.ID] = true
					assert.Greater(t, q.Price, 0.0)
					assert.GreaterOrEqual(t, q.TransitDays, 1)
					if q.HasBadge(BadgeRecommended) {
						assert.False(t, q.HasBadge(BadgeCheapest) || q.HasBadge(BadgeFastest))
					}
					if q.HasBadge(BadgeCheapest) {
						assert.Equal(t, low, q.Price)
					}
				}
				assert.Equal(t, 1, countBadge(quotes, BadgeCheapest))
				assert.Equal(t, 1, countBadge(quotes, BadgeFastest))
				assert.LessOrEqual(t, countBadge(quotes, BadgeRecommended), 1)

				lead := quotes[0]
				if countBadge(quotes, BadgeRecommended) == 1 {
					assert.True(t, lead.HasBadge(BadgeRecommended))
					assert.True(t, quotes[1].HasBadge(BadgeCheapest))
				} else {
					assert.True(t, lead.HasBadge(BadgeCheapest))
				}
			}
		}
	}
}

func TestGenerate_Midpoint(t *testing.T) {
	quotes := Generate(Request{Origin: "Santos", Destination: "Rotterdam", WeightKg: 1000, Mode: rate.Maritime}, rate.NewMidpoint(), rand.New(rand.NewSource(1)))
	require.Len(t, quotes, 4)
	// every price ties, so the first carrier is cheapest and fastest
	first := byID(quotes)["quote-maritime-0"]
	assert.Equal(t, []Badge{BadgeCheapest, BadgeFastest}, first.Badges)
	assert.Equal(t, "1 month", first.TransitTime)
	assert.Equal(t, 2150.0, first.Price)
	// MSC (4.6) qualifies outright
	assert.Equal(t, []Badge{BadgeRecommended}, byID(quotes)["quote-maritime-1"].Badges)
	assert.Equal(t, "quote-maritime-1", quotes[0].ID)
}
