// Package symbols resolves the raw instrument text of a CSV row into a
// canonical ticker and classifies the instrument as stock or crypto.
package symbols

import (
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

// tickerShape matches strings that already look like a ticker: 1-5 letters
// with an optional single-letter class suffix after a dash (BRK-B).
var tickerShape = regexp.MustCompile(`^[A-Za-z]{1,5}(-[A-Za-z])?$`)

// exchangePrefix strips "NYSE:", "NASDAQ:" and similar qualifiers.
var exchangePrefix = regexp.MustCompile(`^[A-Za-z]{2,10}:\s*`)

// legalSuffixes are trailing legal-entity designators stripped from
// name-derived symbols before lookup.
var legalSuffixes = []string{
	"inc.", "inc", "incorporated",
	"corp.", "corp", "corporation",
	"ltd.", "ltd", "limited",
	"plc", "co.", "co",
	"s.a.", "sa", "ag", "nv", "se",
	"holdings", "holding", "group",
}

// classSuffix removes "Class A" style qualifiers left at the end of a name.
var classSuffix = regexp.MustCompile(`(?i)\s+class\s+[a-z]$`)

// nameToTicker maps well-known company names (lowercased, suffix-stripped)
// to their tickers. Intentionally a closed table; unmapped names pass
// through uppercased and the parser records a confidence warning.
var nameToTicker = map[string]string{
	"apple":      "AAPL",
	"microsoft":  "MSFT",
	"alphabet":   "GOOGL",
	"google":     "GOOGL",
	"amazon":     "AMZN",
	"amazon.com": "AMZN",
	"facebook":   "META",
	"tesla":      "TSLA",
	"nvidia":     "NVDA",
	"netflix":    "NFLX",
	"intel":      "INTC",
	"visa":       "V",
	"mastercard": "MA",
	"disney":     "DIS",
	"coca-cola":  "KO",
	"coca cola":  "KO",
	"pepsico":    "PEP",
	"mcdonald's": "MCD",
	"mcdonalds":  "MCD",
	"nike":       "NKE",
	"adobe":      "ADBE",
	"salesforce": "CRM",
	"paypal":     "PYPL",
	"shopify":    "SHOP",
	"palantir":   "PLTR",
	"airbnb":     "ABNB",
	"uber":       "UBER",
	"bitcoin":    "BTC",
	"ethereum":   "ETH",
	"cardano":    "ADA",
	"solana":     "SOL",
	"dogecoin":   "DOGE",
	"ripple":     "XRP",
	"litecoin":   "LTC",
	"polkadot":   "DOT",

	"meta platforms":                  "META",
	"walt disney":                     "DIS",
	"advanced micro devices":          "AMD",
	"international business machines": "IBM",
	"berkshire hathaway":              "BRK-B",
	"jpmorgan chase":                  "JPM",
	"johnson & johnson":               "JNJ",
	"palantir technologies":           "PLTR",
	"uber technologies":               "UBER",
	"vanguard s&p 500 ucits etf":      "VUSA",
	"ishares core msci world":         "IWDA",
}

// cryptoTickers is the static set used by the asset-type heuristic.
var cryptoTickers = map[string]bool{
	"BTC": true, "ETH": true, "ADA": true, "SOL": true, "XRP": true,
	"DOGE": true, "LTC": true, "DOT": true, "AVAX": true, "MATIC": true,
	"LINK": true, "ATOM": true, "XLM": true, "ALGO": true, "UNI": true,
	"SHIB": true, "TRX": true, "BNB": true, "USDC": true, "USDT": true,
}

var cryptoQuoteSuffixes = []string{"USDT", "USD", "BTC", "ETH"}

// Resolution carries the normalized symbol plus how confidently it was
// resolved; Confident=false means the input was neither ticker-shaped nor
// present in the lookup table.
type Resolution struct {
	Symbol    string
	Confident bool
}

// Normalize maps raw instrument text to a canonical ticker.
//
// Ticker-shaped input is still checked against the lookup table (short
// ambiguous names like "Visa" also satisfy the ticker shape), then passed
// through uppercased. Anything else is cleaned of exchange prefixes and
// legal suffixes and looked up; a fuzzy pass catches near-miss spellings
// before the uppercased cleaned name falls through as a best effort.
func Normalize(raw string) Resolution {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return Resolution{}
	}

	if tickerShape.MatchString(cleaned) {
		if mapped, ok := nameToTicker[strings.ToLower(cleaned)]; ok {
			return Resolution{Symbol: mapped, Confident: true}
		}
		return Resolution{Symbol: strings.ToUpper(cleaned), Confident: true}
	}

	name := cleanCompanyName(cleaned)
	key := strings.ToLower(name)
	if mapped, ok := nameToTicker[key]; ok {
		return Resolution{Symbol: mapped, Confident: true}
	}
	if mapped, ok := fuzzyLookup(key); ok {
		return Resolution{Symbol: mapped, Confident: true}
	}

	// Best effort: collapse the cleaned name into a pseudo-symbol.
	return Resolution{Symbol: strings.ToUpper(strings.Join(strings.Fields(name), " "))}
}

// IsTickerShaped reports whether the input already looks like a ticker.
func IsTickerShaped(s string) bool {
	return tickerShape.MatchString(s)
}

// CleanTicker uppercases a ticker and trims exchange suffixes like ".L" or
// ".US" that some exports append.
func CleanTicker(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if idx := strings.IndexByte(s, '.'); idx > 0 {
		s = s[:idx]
	}
	return s
}

// Classify applies the crypto heuristic: a known crypto ticker or a known
// quote suffix means crypto, everything else is a stock.
func Classify(symbol string) trades.AssetType {
	s := strings.ToUpper(symbol)
	if cryptoTickers[s] {
		return trades.AssetCrypto
	}
	for _, suffix := range cryptoQuoteSuffixes {
		if base, ok := strings.CutSuffix(s, suffix); ok && base != "" {
			if cryptoTickers[base] {
				return trades.AssetCrypto
			}
		}
	}
	return trades.AssetStock
}

// cleanCompanyName strips exchange prefixes, class qualifiers, and trailing
// legal-entity suffixes.
func cleanCompanyName(name string) string {
	name = exchangePrefix.ReplaceAllString(name, "")
	name = classSuffix.ReplaceAllString(name, "")
	name = strings.TrimRight(name, " ,.")

	for changed := true; changed; {
		changed = false
		lower := strings.ToLower(name)
		for _, suffix := range legalSuffixes {
			if strings.HasSuffix(lower, " "+suffix) {
				name = strings.TrimRight(name[:len(name)-len(suffix)], " ,.")
				changed = true
				break
			}
		}
	}
	return strings.TrimSpace(name)
}

// fuzzyLookup ranks the lookup-table keys against the cleaned name and
// accepts only a close match, so "Appel" still resolves but "Acme Mining"
// does not get invented a ticker.
func fuzzyLookup(key string) (string, bool) {
	const maxDistance = 2

	bestDistance := maxDistance + 1
	best := ""
	for candidate, ticker := range nameToTicker {
		rank := fuzzy.LevenshteinDistance(key, candidate)
		if rank < bestDistance {
			bestDistance = rank
			best = ticker
		}
	}
	if bestDistance <= maxDistance {
		return best, true
	}
	return "", false
}
