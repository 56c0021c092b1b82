package parser

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

// ignoredActions covers every non-trade row type seen in broker exports:
// cash movements, income, corporate actions, fees. Matching any of these
// skips the row with an "Ignored: <action>" reason rather than an error.
var ignoredActions = []string{
	"deposit", "withdrawal", "withdraw",
	"dividend", "distribution",
	"interest", "lending",
	"currency conversion", "fx", "forex", "exchange",
	"fee", "tax", "stamp duty", "commission adjustment",
	"transfer", "internal transfer",
	"split", "stock split", "reverse split",
	"merger", "spinoff", "spin-off", "corporate action",
	"cash in", "cash out", "card debit", "card credit",
	"adjustment", "rebate", "result", "cash movement",
}

// buyWords and sellWords classify the remaining actions. Matching is
// bidirectional containment so "Market buy", "BUY", and abbreviated "B"
// exports all resolve. Single-letter codes are matched exactly, never by
// containment.
var (
	buyWords  = []string{"buy", "bought", "purchase", "long", "bto"}
	sellWords = []string{"sell", "sold", "sale", "short", "stc"}
	buyExact  = []string{"b"}
	sellExact = []string{"s"}
)

// ignoreMatcher is built once; the Aho-Corasick automaton checks all ignore
// patterns in a single pass over the action text.
var ignoreMatcher = newIgnoreMatcher()

func newIgnoreMatcher() *ahocorasick.Matcher {
	patterns := make([][]byte, len(ignoredActions))
	for i, p := range ignoredActions {
		patterns[i] = []byte(p)
	}
	return ahocorasick.NewMatcher(patterns)
}

// actionOutcome is the result of classifying a row's action text.
type actionOutcome int

const (
	actionUnknown actionOutcome = iota
	actionBuy
	actionSell
	actionIgnored
)

// classifyAction normalizes the action text and resolves it to buy, sell,
// ignored, or unknown. The ignore list is consulted first: "Dividend (Bonds)"
// must not fall through to a side match.
func classifyAction(raw string) (actionOutcome, trades.Side) {
	action := strings.ToLower(strings.TrimSpace(raw))
	if action == "" {
		return actionUnknown, ""
	}

	if len(ignoreMatcher.Match([]byte(action))) > 0 {
		return actionIgnored, ""
	}

	if matchesWord(action, buyWords, buyExact) {
		return actionBuy, trades.SideBuy
	}
	if matchesWord(action, sellWords, sellExact) {
		return actionSell, trades.SideSell
	}
	return actionUnknown, ""
}

// matchesWord checks bidirectional containment: the action contains a known
// verb, or a known verb contains the whole action (tolerates abbreviations
// like "bu"). Actions shorter than two characters only match the exact list.
func matchesWord(action string, words, exact []string) bool {
	for _, w := range exact {
		if action == w {
			return true
		}
	}
	for _, w := range words {
		if strings.Contains(action, w) {
			return true
		}
		if len(action) >= 2 && strings.Contains(w, action) {
			return true
		}
	}
	return false
}
