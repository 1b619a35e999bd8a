package format

import (
	"strings"
	"testing"

	"github.com/harshitajha4680/cryptobot/bot/coingecko"
)

func f(v float64) *float64 { return &v }

func TestQuoteFull(t *testing.T) {
	q := &coingecko.Quote{
		AssetID:   "bitcoin",
		Currency:  "usd",
		Price:     50000.5,
		Change24h: f(-1.25),
		MarketCap: f(900000000),
		Volume24h: f(35000000),
	}

	got := Quote(q)
	want := "💰 Bitcoin (USD)\n" +
		"Price: 50000.5 USD\n" +
		"24h Change: -1.25%\n" +
		"Market Cap: 900000000 USD\n" +
		"24h Trading Volume: 35000000 USD\n"
	if got != want {
		t.Fatalf("quote mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestQuoteMissingFiguresDegradeToNA(t *testing.T) {
	q := &coingecko.Quote{
		AssetID:  "dogecoin",
		Currency: "eur",
		Price:    0.1,
	}

	got := Quote(q)
	for _, line := range []string{
		"24h Change: N/A%",
		"Market Cap: N/A EUR",
		"24h Trading Volume: N/A EUR",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("expected %q in:\n%s", line, got)
		}
	}
	if !strings.Contains(got, "Price: 0.1 EUR") {
		t.Fatalf("price line missing in:\n%s", got)
	}
}

func TestCapitalize(t *testing.T) {
	cases := map[string]string{
		"bitcoin": "Bitcoin",
		"":        "",
		"eth":     "Eth",
	}
	for in, want := range cases {
		if got := Capitalize(in); got != want {
			t.Fatalf("Capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}
