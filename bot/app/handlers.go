package app

import (
	"strings"

	"github.com/harshitajha4680/cryptobot/bot/conversation"
	"github.com/harshitajha4680/cryptobot/bot/format"
	"github.com/harshitajha4680/cryptobot/core/logger"
	coretelegram "github.com/harshitajha4680/cryptobot/core/telegram"
	"github.com/harshitajha4680/cryptobot/core/telegram/callbacks"
	"github.com/harshitajha4680/cryptobot/core/telegram/commands"
	tghelpers "github.com/harshitajha4680/cryptobot/core/telegram/helpers"
	"github.com/harshitajha4680/cryptobot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

const helpText = "Welcome to the Crypto Price Bot!\n\n" +
	"Commands:\n" +
	"/start - Show main menu\n" +
	"/help - Show this help message\n" +
	"/pricehistory - Get historical prices\n" +
	"/news - Get latest crypto news\n"

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Show main menu",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "Show usage help",
	})
	reg.RegisterCommand("/pricehistory", commands.Command{
		Handler:     a.handlePriceHistory,
		Description: "Get historical prices",
	})
	reg.RegisterCommand("/news", commands.Command{
		Handler:     a.handleNews,
		Description: "Get latest crypto news",
	})
}

func (a *App) registerCallbacks(reg *coretelegram.Registry) error {
	keys := []string{
		conversation.KeyMainMenu,
		conversation.KeyTop100,
		conversation.KeyTrending,
		conversation.KeySearch,
		conversation.KeyQuit,
		conversation.KeyCrypto,
		conversation.KeyCurrency,
		conversation.KeyCompare,
	}
	for _, key := range keys {
		if err := reg.RegisterCallback(key, a.handleCallback); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(a.handleUnknownCallback)
	// stray text outside a search prompt lands on the invalid-selection path
	reg.SetTextFallback(a.HandleText)
	return nil
}

func (a *App) handleStart(c tele.Context) error {
	return a.dispatch(c, conversation.Event{Kind: conversation.EventStart})
}

func (a *App) handleHelp(c tele.Context) error {
	return tghelpers.SendText(c, helpText)
}

// handlePriceHistory is a stub until a historical-price source is wired in.
func (a *App) handlePriceHistory(c tele.Context) error {
	asset := "bitcoin"
	if args := c.Args(); len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		asset = strings.ToLower(strings.TrimSpace(args[0]))
	}
	return tghelpers.SendText(c, "Price history for "+format.Capitalize(asset)+":\nHistorical prices are not yet implemented.")
}

// handleNews is a stub until a news source is wired in.
func (a *App) handleNews(c tele.Context) error {
	return tghelpers.SendText(c, "Latest crypto news:\nLatest crypto news are not yet implemented.")
}

func (a *App) handleCallback(c tele.Context) error {
	ev := conversation.Event{
		Kind:    conversation.EventCallback,
		Key:     callbacks.CallbackKey(c),
		Payload: callbacks.CallbackPayload(c),
	}
	logger.Debug(tghelpers.BuildContext(c), "tg", "dialog.callback",
		slog.String("payload", logger.Sanitize(callbacks.Data(c))),
	)
	return a.dispatch(c, ev)
}

func (a *App) handleUnknownCallback(c tele.Context) error {
	return a.dispatch(c, conversation.Event{
		Kind: conversation.EventCallback,
		Key:  callbacks.CallbackKey(c),
	})
}

// ExpectsText reports whether the sender's dialog is waiting for text input.
func (a *App) ExpectsText(userID int64) bool {
	return a.sessions.ExpectsText(userID)
}

// HandleText feeds free-form text into the sender's dialog.
func (a *App) HandleText(c tele.Context) error {
	return a.dispatch(c, conversation.Event{Kind: conversation.EventText, Text: c.Text()})
}

// dispatch runs one event through the sender's session and renders the
// engine's reply. Events for the same user are serialized by the session
// manager.
func (a *App) dispatch(c tele.Context, ev conversation.Event) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	var msgs []conversation.Message
	a.sessions.With(sender.ID, func(s *conversation.Session) {
		msgs = a.engine.Handle(ctx, sender.ID, s, ev)
	})

	for _, m := range msgs {
		if err := render(c, m); err != nil {
			return err
		}
	}
	return nil
}

func render(c tele.Context, m conversation.Message) error {
	markup := toMarkup(m.Keyboard)
	switch {
	case m.Edit:
		if markup != nil {
			return tghelpers.EditOrSend(c, m.Text, markup)
		}
		return tghelpers.EditOrSend(c, m.Text)
	case markup != nil:
		return tghelpers.SendKeyboard(c, m.Text, markup)
	default:
		return tghelpers.SendText(c, m.Text)
	}
}

func toMarkup(rows [][]conversation.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	btnRows := make([][]keyboard.InlineBtn, len(rows))
	for i, row := range rows {
		r := make([]keyboard.InlineBtn, len(row))
		for j, b := range row {
			r[j] = keyboard.InlineBtn{Text: b.Text, Unique: b.Key, Data: b.Payload}
		}
		btnRows[i] = r
	}
	return keyboard.InlineButtonsRows(btnRows...)
}
