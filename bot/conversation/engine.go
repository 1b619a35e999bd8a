package conversation

import (
	"context"
	"strings"

	"github.com/harshitajha4680/cryptobot/bot/coingecko"
	"github.com/harshitajha4680/cryptobot/bot/format"
	"github.com/harshitajha4680/cryptobot/core/logger"

	"log/slog"
)

// EventKind discriminates the inbound event shapes the engine understands.
type EventKind int

const (
	EventStart EventKind = iota
	EventCallback
	EventText
)

// Event is a single inbound conversation event.
type Event struct {
	Kind    EventKind
	Key     string
	Payload string
	Text    string
}

// Button is one pressable option of a reply keyboard.
type Button struct {
	Text    string
	Key     string
	Payload string
}

// Message is a render instruction for the transport. Edit asks the transport
// to update the conversation's last message in place instead of sending a
// new one.
type Message struct {
	Text     string
	Keyboard [][]Button
	Edit     bool
}

// MarketData is the upstream price API surface the engine depends on.
type MarketData interface {
	TopMarkets(ctx context.Context, vsCurrency string, limit int) ([]coingecko.Market, error)
	Trending(ctx context.Context) ([]coingecko.TrendingCoin, error)
	Search(ctx context.Context, query string) ([]coingecko.SearchCoin, error)
	SimplePrice(ctx context.Context, assetID, currency string) (*coingecko.Quote, error)
}

// Recorder receives successfully fetched quotes. May be nil.
type Recorder interface {
	RecordQuote(ctx context.Context, userID int64, q *coingecko.Quote)
}

const (
	textWelcome       = "Welcome to the Crypto Price Bot! What would you like to do?"
	textQuit          = "You can return to the main menu anytime by using /start."
	textSearchPrompt  = "Please enter the name of the cryptocurrency you want to check:"
	textSearchEmpty   = "No cryptocurrencies found. Try another name:"
	textChooseOption  = "Select an option:"
	textChooseCur     = "Choose a currency:"
	textInvalid       = "Invalid selection. Returning to main menu."
	textNoAssetYet    = "Please select a cryptocurrency before comparing."
	textNoAssetForCur = "Please select a cryptocurrency first."
	textUnavailable   = "🚫 Unable to retrieve cryptocurrency details."
	textListFailed    = "🚫 Unable to retrieve cryptocurrency data."
)

// Engine implements the navigation state machine. Handle is a total
// function of (session state, event); it mutates the session and returns
// the render instructions for the transport.
type Engine struct {
	data     MarketData
	recorder Recorder
}

func NewEngine(data MarketData, recorder Recorder) *Engine {
	return &Engine{data: data, recorder: recorder}
}

// Handle processes one event for the given session.
func (e *Engine) Handle(ctx context.Context, userID int64, s *Session, ev Event) []Message {
	switch ev.Kind {
	case EventStart:
		s.State = StateMainMenu
		return []Message{mainMenu(textWelcome, false)}
	case EventText:
		return e.handleText(ctx, s, ev.Text)
	case EventCallback:
		return e.handleCallback(ctx, userID, s, ev)
	default:
		s.State = StateMainMenu
		return []Message{
			{Text: textInvalid, Edit: true},
			mainMenu(textWelcome, false),
		}
	}
}

func (e *Engine) handleCallback(ctx context.Context, userID int64, s *Session, ev Event) []Message {
	switch ev.Key {
	case KeyMainMenu:
		s.State = StateMainMenu
		return []Message{mainMenu(textWelcome, true)}

	case KeyQuit:
		s.State = StateMainMenu
		return []Message{{Text: textQuit, Edit: true}}

	case KeyTop100:
		markets, err := e.data.TopMarkets(ctx, "usd", 100)
		if err != nil {
			return []Message{{Text: textListFailed, Edit: true}}
		}
		s.State = StateChoosingAsset
		return []Message{assetList("Top 100 Cryptocurrencies:", marketItems(markets))}

	case KeyTrending:
		coins, err := e.data.Trending(ctx)
		if err != nil {
			return []Message{{Text: textListFailed, Edit: true}}
		}
		s.State = StateChoosingAsset
		return []Message{assetList("Trending Cryptocurrencies:", trendingItems(coins))}

	case KeySearch:
		s.State = StateTypingSearch
		return []Message{{Text: textSearchPrompt, Edit: true}}

	case KeyCrypto:
		if ev.Payload == "" {
			return e.invalid(s)
		}
		s.Asset = ev.Payload
		s.State = StateChoosingCurrency
		return []Message{currencyList()}

	case KeyCurrency:
		if s.Asset == "" {
			return []Message{{Text: textNoAssetForCur, Edit: true}}
		}
		return e.quote(ctx, userID, s, ev.Payload)

	case KeyCompare:
		if s.Asset == "" {
			return []Message{{Text: textNoAssetYet, Edit: true}}
		}
		markets, err := e.data.TopMarkets(ctx, "usd", 100)
		if err != nil {
			return []Message{{Text: textListFailed, Edit: true}}
		}
		s.State = StateChoosingAsset
		return []Message{assetList("Compare "+s.Asset+" with another currency:", marketItems(markets))}

	default:
		return e.invalid(s)
	}
}

func (e *Engine) handleText(ctx context.Context, s *Session, text string) []Message {
	if s.State != StateTypingSearch {
		return e.invalid(s)
	}

	query := strings.TrimSpace(text)
	if query == "" {
		return []Message{{Text: textSearchPrompt}}
	}

	coins, err := e.data.Search(ctx, query)
	if err != nil {
		return []Message{{Text: textListFailed}}
	}
	if len(coins) == 0 {
		return []Message{{Text: textSearchEmpty}}
	}
	if len(coins) > 10 {
		coins = coins[:10]
	}

	s.State = StateChoosingAsset
	return []Message{assetList("Search results for "+query+":", searchItems(coins))}
}

func (e *Engine) quote(ctx context.Context, userID int64, s *Session, currency string) []Message {
	s.Currency = currency
	s.State = StateCompareSelection

	q, err := e.data.SimplePrice(ctx, s.Asset, currency)
	if err != nil {
		return []Message{{Text: textUnavailable, Edit: true}}
	}

	if e.recorder != nil {
		e.recorder.RecordQuote(ctx, userID, q)
	}
	logger.TG.Debug("quote rendered",
		slog.String("event", "dialog.quote"),
		slog.String("asset", q.AssetID),
		slog.String("currency", q.Currency),
	)

	return []Message{
		{Text: format.Quote(q), Edit: true},
		{Text: textChooseOption, Keyboard: [][]Button{
			{{Text: "Compare with another Cryptocurrency", Key: KeyCompare}},
			{{Text: "Main Menu", Key: KeyMainMenu}},
			{{Text: "Quit", Key: KeyQuit}},
		}},
	}
}

func (e *Engine) invalid(s *Session) []Message {
	s.State = StateMainMenu
	return []Message{
		{Text: textInvalid, Edit: true},
		mainMenu(textWelcome, false),
	}
}

func mainMenu(text string, edit bool) Message {
	return Message{
		Text: text,
		Keyboard: [][]Button{
			{{Text: "Top 100 Cryptocurrencies", Key: KeyTop100}},
			{{Text: "Trending Cryptocurrencies", Key: KeyTrending}},
			{{Text: "Search Cryptocurrency", Key: KeySearch}},
			{{Text: "Quit", Key: KeyQuit}},
		},
		Edit: edit,
	}
}

type listItem struct {
	label string
	id    string
}

func marketItems(markets []coingecko.Market) []listItem {
	items := make([]listItem, 0, len(markets))
	for _, m := range markets {
		items = append(items, listItem{
			label: m.Name + " (" + strings.ToUpper(m.Symbol) + ")",
			id:    m.ID,
		})
	}
	return items
}

func trendingItems(coins []coingecko.TrendingCoin) []listItem {
	items := make([]listItem, 0, len(coins))
	for _, c := range coins {
		items = append(items, listItem{
			label: c.Name + " (" + strings.ToUpper(c.Symbol) + ")",
			id:    c.ID,
		})
	}
	return items
}

func searchItems(coins []coingecko.SearchCoin) []listItem {
	items := make([]listItem, 0, len(coins))
	for _, c := range coins {
		items = append(items, listItem{
			label: c.Name + " (" + strings.ToUpper(c.Symbol) + ")",
			id:    c.ID,
		})
	}
	return items
}

// assetList renders selectable assets two per row, keeping input order, with
// a trailing back-to-menu row.
func assetList(title string, items []listItem) Message {
	rows := make([][]Button, 0, len(items)/2+2)
	for i := 0; i < len(items); i += 2 {
		row := make([]Button, 0, 2)
		for _, it := range items[i:min(i+2, len(items))] {
			row = append(row, Button{Text: it.label, Key: KeyCrypto, Payload: it.id})
		}
		rows = append(rows, row)
	}
	rows = append(rows, []Button{{Text: "Back to Main Menu", Key: KeyMainMenu}})
	return Message{Text: title, Keyboard: rows, Edit: true}
}

func currencyList() Message {
	rows := make([][]Button, 0, len(SupportedCurrencies)+1)
	for _, cur := range SupportedCurrencies {
		rows = append(rows, []Button{{Text: strings.ToUpper(cur), Key: KeyCurrency, Payload: cur}})
	}
	rows = append(rows, []Button{{Text: "Back to Main Menu", Key: KeyMainMenu}})
	return Message{Text: textChooseCur, Keyboard: rows, Edit: true}
}
