package upstream

import (
	"fmt"
	"strings"
)

const searchSystemPrompt = `You are a shopping research assistant. Answer only with a JSON object of the form
{"products": [{"productName": string, "productImageUrl": string, "averageRating": number,
"reviewCount": number, "pros": string, "cons": string, "priceMin": number, "priceMax": number,
"retailers": [{"name": string, "url": string, "price": number, "isLowestPrice": boolean,
"isReputable": boolean}]}]}.
Recommend between 3 and 5 products that are currently sold by reputable retailers.`

// BuildSearchPrompt phrases the user query and optional price filter as a
// product research request.
func BuildSearchPrompt(query, priceFilter string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find the best products for: %q.", strings.TrimSpace(query))

	if pf := strings.TrimSpace(priceFilter); pf != "" {
		if isPlainNumber(pf) {
			fmt.Fprintf(&b, " Only include products priced at or below $%s.", pf)
		} else {
			fmt.Fprintf(&b, " Price preference: %s.", pf)
		}
	}

	b.WriteString(" Summarise the main pros and cons from customer reviews and list where to buy each product, marking the retailer with the lowest price.")
	return b.String()
}

func isPlainNumber(s string) bool {
	dot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot && i > 0:
			dot = true
		default:
			return false
		}
	}
	return s != ""
}
