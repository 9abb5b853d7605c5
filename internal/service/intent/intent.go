package intent

import "strings"

// Category is the detected topic of a user message. Classification is a
// pure function so the offline tier, profiling, and summarization all agree
// on bucket boundaries.
type Category string

const (
	CategoryMarket    Category = "market"
	CategoryFinancial Category = "financial"
	CategoryProperty  Category = "property"
	CategoryTools     Category = "tools"
	CategoryGeneral   Category = "general"
)

// Priority order for ties: a message naming both market and property terms
// equally reads as a market question first.
var ordered = []Category{CategoryMarket, CategoryFinancial, CategoryProperty, CategoryTools}

var keywords = map[Category][]string{
	CategoryMarket: {
		"market", "trend", "cap rate", "appreciation", "demand",
		"inventory", "comps", "vacancy", "pricing",
	},
	CategoryFinancial: {
		"financial", "cash flow", "roi", "noi", "mortgage", "loan",
		"interest", "tax", "expense", "income", "budget", "valuation",
	},
	CategoryProperty: {
		"property", "properties", "building", "unit", "tenant", "lease",
		"maintenance", "inspection", "portfolio", "analysis",
	},
	CategoryTools: {
		"tool", "lookup", "found via", "what did we find",
	},
}

// Classify buckets a message by keyword occurrence counts.
func Classify(text string) Category {
	lower := strings.ToLower(text)

	best := CategoryGeneral
	bestHits := 0
	for _, cat := range ordered {
		hits := 0
		for _, kw := range keywords[cat] {
			hits += strings.Count(lower, kw)
		}
		if hits > bestHits {
			best = cat
			bestHits = hits
		}
	}
	return best
}
