package conversation

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/harshitajha4680/cryptobot/bot/coingecko"
	"github.com/harshitajha4680/cryptobot/core/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

type fakeData struct {
	markets    []coingecko.Market
	marketsErr error
	trending   []coingecko.TrendingCoin
	trendErr   error
	search     []coingecko.SearchCoin
	searchErr  error
	quote      *coingecko.Quote
	quoteErr   error

	marketCalls int
	quoteCalls  int
}

func (f *fakeData) TopMarkets(ctx context.Context, vs string, limit int) ([]coingecko.Market, error) {
	f.marketCalls++
	return f.markets, f.marketsErr
}

func (f *fakeData) Trending(ctx context.Context) ([]coingecko.TrendingCoin, error) {
	return f.trending, f.trendErr
}

func (f *fakeData) Search(ctx context.Context, query string) ([]coingecko.SearchCoin, error) {
	return f.search, f.searchErr
}

func (f *fakeData) SimplePrice(ctx context.Context, asset, currency string) (*coingecko.Quote, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	q := *f.quote
	q.AssetID = asset
	q.Currency = currency
	return &q, nil
}

type fakeRecorder struct {
	quotes []*coingecko.Quote
}

func (r *fakeRecorder) RecordQuote(ctx context.Context, userID int64, q *coingecko.Quote) {
	r.quotes = append(r.quotes, q)
}

func twoMarkets() []coingecko.Market {
	return []coingecko.Market{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
	}
}

func cb(key, payload string) Event {
	return Event{Kind: EventCallback, Key: key, Payload: payload}
}

func TestStartShowsFourOptions(t *testing.T) {
	e := NewEngine(&fakeData{}, nil)
	s := Session{State: StateCompareSelection, Asset: "bitcoin"}

	msgs := e.Handle(context.Background(), 1, &s, Event{Kind: EventStart})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if s.State != StateMainMenu {
		t.Fatalf("state = %v, want main menu", s.State)
	}
	if got := len(msgs[0].Keyboard); got != 4 {
		t.Fatalf("expected 4 option rows, got %d", got)
	}
	wantKeys := []string{KeyTop100, KeyTrending, KeySearch, KeyQuit}
	for i, key := range wantKeys {
		if msgs[0].Keyboard[i][0].Key != key {
			t.Fatalf("row %d key = %q, want %q", i, msgs[0].Keyboard[i][0].Key, key)
		}
	}
}

func TestTop100RendersRowsOfTwo(t *testing.T) {
	e := NewEngine(&fakeData{markets: twoMarkets()}, nil)
	s := Session{}

	msgs := e.Handle(context.Background(), 1, &s, cb(KeyTop100, ""))
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if s.State != StateChoosingAsset {
		t.Fatalf("state = %v, want choosing asset", s.State)
	}

	kb := msgs[0].Keyboard
	if len(kb) != 2 {
		t.Fatalf("expected 1 asset row + 1 back row, got %d rows", len(kb))
	}
	if len(kb[0]) != 2 {
		t.Fatalf("expected 2 assets in first row, got %d", len(kb[0]))
	}
	if kb[0][0].Key != KeyCrypto || kb[0][0].Payload != "bitcoin" {
		t.Fatalf("unexpected first button: %+v", kb[0][0])
	}
	if kb[0][0].Text != "Bitcoin (BTC)" {
		t.Fatalf("unexpected label: %q", kb[0][0].Text)
	}
	back := kb[len(kb)-1]
	if len(back) != 1 || back[0].Key != KeyMainMenu {
		t.Fatalf("unexpected back row: %+v", back)
	}
}

func TestAssetListRowCount(t *testing.T) {
	for n := 0; n <= 7; n++ {
		markets := make([]coingecko.Market, n)
		for i := range markets {
			markets[i] = coingecko.Market{ID: "coin", Symbol: "c", Name: "Coin"}
		}
		e := NewEngine(&fakeData{markets: markets}, nil)
		s := Session{}

		msgs := e.Handle(context.Background(), 1, &s, cb(KeyTop100, ""))
		kb := msgs[0].Keyboard
		wantRows := (n+1)/2 + 1
		if len(kb) != wantRows {
			t.Fatalf("n=%d: expected %d rows, got %d", n, wantRows, len(kb))
		}
		for i, row := range kb[:len(kb)-1] {
			if len(row) == 0 || len(row) > 2 {
				t.Fatalf("n=%d: row %d has %d buttons", n, i, len(row))
			}
		}
	}
}

func TestChooseAssetShowsCurrencies(t *testing.T) {
	e := NewEngine(&fakeData{}, nil)
	s := Session{State: StateChoosingAsset}

	msgs := e.Handle(context.Background(), 1, &s, cb(KeyCrypto, "bitcoin"))
	if s.State != StateChoosingCurrency {
		t.Fatalf("state = %v, want choosing currency", s.State)
	}
	if s.Asset != "bitcoin" {
		t.Fatalf("asset = %q, want bitcoin", s.Asset)
	}

	kb := msgs[0].Keyboard
	if len(kb) != len(SupportedCurrencies)+1 {
		t.Fatalf("expected %d rows, got %d", len(SupportedCurrencies)+1, len(kb))
	}
	if kb[0][0].Key != KeyCurrency || kb[0][0].Payload != "usd" {
		t.Fatalf("unexpected first currency button: %+v", kb[0][0])
	}
}

func TestChooseCurrencyRendersQuote(t *testing.T) {
	change := 1.5
	data := &fakeData{quote: &coingecko.Quote{Price: 50000, Change24h: &change}}
	rec := &fakeRecorder{}
	e := NewEngine(data, rec)
	s := Session{State: StateChoosingCurrency, Asset: "bitcoin"}

	msgs := e.Handle(context.Background(), 7, &s, cb(KeyCurrency, "usd"))
	if s.State != StateCompareSelection {
		t.Fatalf("state = %v, want compare selection", s.State)
	}
	if s.Currency != "usd" {
		t.Fatalf("currency = %q, want usd", s.Currency)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected quote + options messages, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "💰 Bitcoin (USD)") {
		t.Fatalf("quote header missing:\n%s", msgs[0].Text)
	}
	if !msgs[0].Edit {
		t.Fatal("quote message should edit in place")
	}

	kb := msgs[1].Keyboard
	if len(kb) != 3 {
		t.Fatalf("expected 3 option rows, got %d", len(kb))
	}
	if kb[0][0].Key != KeyCompare || kb[1][0].Key != KeyMainMenu || kb[2][0].Key != KeyQuit {
		t.Fatalf("unexpected option keys: %+v", kb)
	}
	if len(rec.quotes) != 1 || rec.quotes[0].AssetID != "bitcoin" {
		t.Fatalf("recorder not invoked: %+v", rec.quotes)
	}
}

func TestQuoteFetchFailureOffersNoOptions(t *testing.T) {
	data := &fakeData{quoteErr: coingecko.ErrUnavailable}
	e := NewEngine(data, nil)
	s := Session{State: StateChoosingCurrency, Asset: "bitcoin"}

	msgs := e.Handle(context.Background(), 1, &s, cb(KeyCurrency, "usd"))
	if len(msgs) != 1 {
		t.Fatalf("expected a single notice, got %d messages", len(msgs))
	}
	if msgs[0].Keyboard != nil {
		t.Fatal("failure notice must not offer options")
	}
	if !strings.Contains(msgs[0].Text, "Unable to retrieve") {
		t.Fatalf("unexpected notice: %q", msgs[0].Text)
	}
}

func TestCurrencyWithoutAssetIsGuarded(t *testing.T) {
	data := &fakeData{}
	e := NewEngine(data, nil)
	s := Session{State: StateChoosingCurrency}

	msgs := e.Handle(context.Background(), 1, &s, cb(KeyCurrency, "usd"))
	if data.quoteCalls != 0 {
		t.Fatal("must not fetch with an undefined asset")
	}
	if s.State != StateChoosingCurrency {
		t.Fatalf("guard must not change state, got %v", s.State)
	}
	if msgs[0].Text != textNoAssetForCur {
		t.Fatalf("unexpected guard message: %q", msgs[0].Text)
	}
}

func TestCompareGuardWithoutAsset(t *testing.T) {
	data := &fakeData{markets: twoMarkets()}
	e := NewEngine(data, nil)
	s := Session{State: StateCompareSelection}

	msgs := e.Handle(context.Background(), 1, &s, cb(KeyCompare, ""))
	if s.State != StateCompareSelection {
		t.Fatalf("guard must not change state, got %v", s.State)
	}
	if data.marketCalls != 0 {
		t.Fatal("guard must not trigger a fetch")
	}
	if msgs[0].Text != textNoAssetYet {
		t.Fatalf("unexpected guard message: %q", msgs[0].Text)
	}
}

func TestCompareWithAssetFetchesTopList(t *testing.T) {
	data := &fakeData{markets: twoMarkets()}
	e := NewEngine(data, nil)
	s := Session{State: StateCompareSelection, Asset: "bitcoin"}

	msgs := e.Handle(context.Background(), 1, &s, cb(KeyCompare, ""))
	if s.State != StateChoosingAsset {
		t.Fatalf("state = %v, want choosing asset", s.State)
	}
	if data.marketCalls != 1 {
		t.Fatalf("expected fresh top list fetch, got %d calls", data.marketCalls)
	}
	if !strings.Contains(msgs[0].Text, "Compare bitcoin") {
		t.Fatalf("unexpected title: %q", msgs[0].Text)
	}
}

func TestUnrecognizedSelection(t *testing.T) {
	e := NewEngine(&fakeData{}, nil)
	s := Session{State: StateChoosingAsset, Asset: "bitcoin"}

	msgs := e.Handle(context.Background(), 1, &s, cb("bogus", ""))
	if s.State != StateMainMenu {
		t.Fatalf("state = %v, want main menu", s.State)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected notice + main menu, got %d messages", len(msgs))
	}
	if msgs[0].Text != textInvalid {
		t.Fatalf("unexpected notice: %q", msgs[0].Text)
	}
	if len(msgs[1].Keyboard) != 4 {
		t.Fatalf("expected main menu options, got %d rows", len(msgs[1].Keyboard))
	}
}

func TestListFetchFailureKeepsState(t *testing.T) {
	data := &fakeData{marketsErr: coingecko.ErrUnavailable}
	e := NewEngine(data, nil)
	s := Session{}

	msgs := e.Handle(context.Background(), 1, &s, cb(KeyTop100, ""))
	if s.State != StateMainMenu {
		t.Fatalf("failed fetch must not advance state, got %v", s.State)
	}
	if msgs[0].Keyboard != nil {
		t.Fatal("failure notice must not offer options")
	}
}

func TestSearchFlow(t *testing.T) {
	data := &fakeData{search: []coingecko.SearchCoin{{ID: "dogecoin", Name: "Dogecoin", Symbol: "doge"}}}
	e := NewEngine(data, nil)
	s := Session{}

	msgs := e.Handle(context.Background(), 1, &s, cb(KeySearch, ""))
	if s.State != StateTypingSearch {
		t.Fatalf("state = %v, want typing search", s.State)
	}
	if msgs[0].Text != textSearchPrompt {
		t.Fatalf("unexpected prompt: %q", msgs[0].Text)
	}

	msgs = e.Handle(context.Background(), 1, &s, Event{Kind: EventText, Text: "doge"})
	if s.State != StateChoosingAsset {
		t.Fatalf("state = %v, want choosing asset", s.State)
	}
	kb := msgs[0].Keyboard
	if len(kb) != 2 || kb[0][0].Payload != "dogecoin" {
		t.Fatalf("unexpected search result keyboard: %+v", kb)
	}
}

func TestSearchNoResultsKeepsPrompting(t *testing.T) {
	e := NewEngine(&fakeData{}, nil)
	s := Session{State: StateTypingSearch}

	msgs := e.Handle(context.Background(), 1, &s, Event{Kind: EventText, Text: "nope"})
	if s.State != StateTypingSearch {
		t.Fatalf("state = %v, want typing search", s.State)
	}
	if msgs[0].Text != textSearchEmpty {
		t.Fatalf("unexpected message: %q", msgs[0].Text)
	}
}

// Every (state, event) pair must resolve to a known state and at least one
// render instruction.
func TestTransitionsAreTotal(t *testing.T) {
	states := []State{StateMainMenu, StateChoosingAsset, StateChoosingCurrency, StateTypingSearch, StateCompareSelection}
	events := []Event{
		{Kind: EventStart},
		{Kind: EventText, Text: "bitcoin"},
		cb(KeyMainMenu, ""),
		cb(KeyTop100, ""),
		cb(KeyTrending, ""),
		cb(KeySearch, ""),
		cb(KeyQuit, ""),
		cb(KeyCrypto, "bitcoin"),
		cb(KeyCurrency, "usd"),
		cb(KeyCompare, ""),
		cb("garbage", "x"),
	}

	price := 1.0
	data := &fakeData{
		markets: twoMarkets(),
		search:  []coingecko.SearchCoin{{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc"}},
		quote:   &coingecko.Quote{Price: price},
	}
	e := NewEngine(data, nil)

	for _, st := range states {
		for _, ev := range events {
			s := Session{State: st, Asset: "bitcoin"}
			msgs := e.Handle(context.Background(), 1, &s, ev)
			if len(msgs) == 0 {
				t.Fatalf("state %v, event %+v: no render instruction", st, ev)
			}
			if s.State.String() == "unknown" {
				t.Fatalf("state %v, event %+v: undefined next state %d", st, ev, s.State)
			}
		}
	}
}
