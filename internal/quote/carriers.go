package quote

import "freightquote/internal/rate"

// Carrier is a configured carrier for one transport mode.
type Carrier struct {
	Name        string  `json:"name"`
	Logo        string  `json:"logo"`
	Rating      float64 `json:"rating"`
	Reliability string  `json:"reliability"`
}

var carriers = map[rate.Mode][]Carrier{
	rate.Maritime: {
		{Name: "Maersk Line", Logo: "🚢", Rating: 4.8, Reliability: "98%"},
		{Name: "MSC Shipping", Logo: "🚢", Rating: 4.6, Reliability: "96%"},
		{Name: "CMA CGM", Logo: "🚢", Rating: 4.5, Reliability: "95%"},
		{Name: "Hapag-Lloyd", Logo: "🚢", Rating: 4.7, Reliability: "97%"},
	},
	rate.Air: {
		{Name: "LATAM Cargo", Logo: "✈️", Rating: 4.7, Reliability: "99%"},
		{Name: "Azul Cargo", Logo: "✈️", Rating: 4.5, Reliability: "97%"},
		{Name: "Emirates SkyCargo", Logo: "✈️", Rating: 4.9, Reliability: "99%"},
		{Name: "FedEx Express", Logo: "✈️", Rating: 4.8, Reliability: "98%"},
	},
	rate.Road: {
		{Name: "JSL Logística", Logo: "🚚", Rating: 4.6, Reliability: "96%"},
		{Name: "Expresso Nepomuceno", Logo: "🚚", Rating: 4.4, Reliability: "94%"},
		{Name: "Braspress", Logo: "🚚", Rating: 4.7, Reliability: "97%"},
		{Name: "TNT Mercúrio", Logo: "🚚", Rating: 4.5, Reliability: "95%"},
	},
}

// CarriersFor returns a copy of the carriers configured for mode, in quote order.
func CarriersFor(mode rate.Mode) []Carrier {
	list := carriers[mode]
	out := make([]Carrier, len(list))
	copy(out, list)
	return out
}

// CarrierCount is the number of quotes Generate returns for mode.
func CarrierCount(mode rate.Mode) int {
	return len(carriers[mode])
}
