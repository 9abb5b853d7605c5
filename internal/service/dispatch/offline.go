package dispatch

import (
	"hash/fnv"

	"github.com/porchlabs/porch/internal/service/intent"
)

// OfflineResponder produces a canned, topic-aware answer without any
// network dependency. It cannot fail, which is what makes the cascade total.
type OfflineResponder struct{}

func NewOfflineResponder() *OfflineResponder {
	return &OfflineResponder{}
}

var fallbackTemplates = map[intent.Category][]string{
	intent.CategoryMarket: {
		"I'm temporarily unable to reach my analysis services, so I can't pull live market data right now. Market questions like this usually come down to local supply, recent comps and rate trends; please try again in a moment for a full market analysis.",
		"Live market data is unavailable at the moment. For market trend questions I'd normally look at inventory levels, days on market and cap rate movement in the area; retry shortly and I'll run the full market analysis.",
	},
	intent.CategoryFinancial: {
		"My financial analysis services are temporarily unreachable. For financial questions like this, the key inputs are cash flow, financing terms and operating expenses; please ask again shortly and I'll work through the numbers properly.",
		"I can't run financial calculations right now due to a temporary service issue. Questions about ROI, cash flow or financing deserve real numbers rather than a guess, so please retry in a moment.",
	},
	intent.CategoryProperty: {
		"I'm temporarily unable to access my full analysis capabilities, so I can't evaluate this property in depth right now. Property questions like this benefit from comps, condition and rent-roll data; please try again shortly.",
		"Detailed property analysis is unavailable for a moment. When my services are back I can look at the property's fundamentals, comparable sales and portfolio fit; please retry soon.",
	},
	intent.CategoryTools: {
		"I can't reach the stored tool results right now due to a temporary issue. The lookups we ran earlier are saved and will be available again shortly; please ask again in a moment.",
	},
	intent.CategoryGeneral: {
		"I'm experiencing a temporary issue reaching my analysis services. Your message was saved and I'll be able to give a proper answer as soon as they recover; please try again in a moment.",
		"Something went wrong on my side while processing that. Nothing was lost, and a retry in a few seconds should go through normally.",
	},
}

// Respond picks a template for the message's topic bucket. Selection is
// deterministic per message text, so repeats of the same question get the
// same canned answer.
func (o *OfflineResponder) Respond(message string) string {
	templates := fallbackTemplates[intent.Classify(message)]

	h := fnv.New32a()
	h.Write([]byte(message))
	return templates[int(h.Sum32())%len(templates)]
}
