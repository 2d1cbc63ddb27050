package normalize

import (
	"strings"

	"github.com/veridex/veridex/internal/vocab"
)

// unitAliases maps raw unit spellings to a canonical symbol and unit type.
// Resolution is exact after lowercasing and trimming; an unknown unit stays
// unresolved and flows into the open-question path.
var unitAliases = map[string]struct {
	symbol string
	kind   vocab.UnitType
}{
	"usd":     {"USD", vocab.UnitMoney},
	"$":       {"USD", vocab.UnitMoney},
	"us$":     {"USD", vocab.UnitMoney},
	"dollar":  {"USD", vocab.UnitMoney},
	"dollars": {"USD", vocab.UnitMoney},
	"eur":     {"EUR", vocab.UnitMoney},
	"€":       {"EUR", vocab.UnitMoney},
	"euro":    {"EUR", vocab.UnitMoney},
	"euros":   {"EUR", vocab.UnitMoney},
	"gbp":     {"GBP", vocab.UnitMoney},
	"£":       {"GBP", vocab.UnitMoney},
	"pound":   {"GBP", vocab.UnitMoney},
	"pounds":  {"GBP", vocab.UnitMoney},
	"jpy":     {"JPY", vocab.UnitMoney},
	"¥":       {"JPY", vocab.UnitMoney},
	"chf":     {"CHF", vocab.UnitMoney},

	"%":          {"percent", vocab.UnitPercent},
	"percent":    {"percent", vocab.UnitPercent},
	"percentage": {"percent", vocab.UnitPercent},
	"pct":        {"percent", vocab.UnitPercent},
	"bps":        {"percent", vocab.UnitPercent},

	"count":     {"count", vocab.UnitCount},
	"#":         {"count", vocab.UnitCount},
	"units":     {"count", vocab.UnitCount},
	"people":    {"count", vocab.UnitCount},
	"employees": {"count", vocab.UnitCount},
	"customers": {"count", vocab.UnitCount},
	"seats":     {"count", vocab.UnitCount},

	"x":        {"ratio", vocab.UnitRatio},
	"ratio":    {"ratio", vocab.UnitRatio},
	"multiple": {"ratio", vocab.UnitRatio},

	"months": {"months", vocab.UnitDuration},
	"month":  {"months", vocab.UnitDuration},
	"mo":     {"months", vocab.UnitDuration},
}

// isoCurrency matches the ISO 4217 codes the aliases above resolve to.
var isoCurrency = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CHF": true,
}

// currencySymbols found inside a raw value ("$10M") imply a currency even
// when the currency field is empty.
var currencySymbols = map[string]string{
	"$": "USD", "€": "EUR", "£": "GBP", "¥": "JPY",
}

func resolveUnit(raw string) (string, vocab.UnitType) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", vocab.UnitUnknown
	}
	if u, ok := unitAliases[key]; ok {
		return u.symbol, u.kind
	}
	if iso := strings.ToUpper(key); len(iso) == 3 && isoCurrency[iso] {
		return iso, vocab.UnitMoney
	}
	return "", vocab.UnitUnknown
}

// resolveCurrency determines an ISO code from the currency field, the unit,
// or a symbol embedded in the raw value, in that order. Unresolvable stays
// empty rather than guessed.
func resolveCurrency(currency, unit, raw string) string {
	for _, candidate := range []string{currency, unit} {
		key := strings.ToLower(strings.TrimSpace(candidate))
		if key == "" {
			continue
		}
		if u, ok := unitAliases[key]; ok && u.kind == vocab.UnitMoney {
			return u.symbol
		}
		if iso := strings.ToUpper(key); len(iso) == 3 && isoCurrency[iso] {
			return iso
		}
	}
	for symbol, iso := range currencySymbols {
		if strings.Contains(raw, symbol) {
			return iso
		}
	}
	return ""
}
