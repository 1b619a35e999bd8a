package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harshitajha4680/cryptobot/bot/coingecko"
)

// Quote renders a price snapshot as the plain-text message shown to users.
// Missing figures degrade to N/A instead of hiding the line.
func Quote(q *coingecko.Quote) string {
	cur := strings.ToUpper(q.Currency)
	var b strings.Builder
	fmt.Fprintf(&b, "💰 %s (%s)\n", Capitalize(q.AssetID), cur)
	fmt.Fprintf(&b, "Price: %s %s\n", Number(q.Price), cur)
	fmt.Fprintf(&b, "24h Change: %s%%\n", OptionalNumber(q.Change24h))
	fmt.Fprintf(&b, "Market Cap: %s %s\n", OptionalNumber(q.MarketCap), cur)
	fmt.Fprintf(&b, "24h Trading Volume: %s %s\n", OptionalNumber(q.Volume24h), cur)
	return b.String()
}

// Number renders a float without trailing zeros.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// OptionalNumber renders a possibly-absent figure, using N/A when nil.
func OptionalNumber(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return Number(*v)
}

// Capitalize upper-cases the first letter of an asset identifier.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
