// Package telegram binds the workflow core to the Telegram Bot API. It
// translates updates into domain events and implements the outbound sender;
// nothing above this package knows it is talking to Telegram.
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

// Transport wraps one bot connection. It is both the update source (Run)
// and the ports.Sender implementation.
type Transport struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
	log         zerolog.Logger
}

var _ ports.Sender = (*Transport)(nil)

// New authenticates the bot against the Telegram API.
func New(token string, pollTimeout int, log zerolog.Logger) (*Transport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")
	return &Transport{api: api, pollTimeout: pollTimeout, log: log}, nil
}

// Run long-polls for updates and hands each translated event to enqueue.
// Blocks until ctx is cancelled.
func (t *Transport) Run(ctx context.Context, enqueue func(domain.Event)) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = t.pollTimeout
	updates := t.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if ev, ok := translate(update); ok {
				enqueue(ev)
			}
		}
	}
}

// translate maps a Telegram update onto a domain event. Updates the core
// does not route on (edits, channel posts, etc.) are skipped.
func translate(update tgbotapi.Update) (domain.Event, bool) {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return domain.Event{
			Kind:           domain.KindMessage,
			ConversationID: update.Message.Chat.ID,
			MessageID:      update.Message.MessageID,
			Text:           update.Message.Text,
		}, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		cb := update.CallbackQuery
		return domain.Event{
			Kind:           domain.KindCallback,
			ConversationID: cb.Message.Chat.ID,
			MessageID:      cb.Message.MessageID,
			CallbackID:     cb.ID,
			CallbackData:   cb.Data,
		}, true
	default:
		return domain.Event{}, false
	}
}

func (t *Transport) Send(_ context.Context, conversationID int64, reply domain.Reply) error {
	msg := tgbotapi.NewMessage(conversationID, reply.Text)
	if kb := renderKeyboard(reply.Keyboard); kb != nil {
		msg.ReplyMarkup = kb
	}
	_, err := t.api.Send(msg)
	return err
}

func (t *Transport) Delete(_ context.Context, conversationID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(conversationID, messageID))
	return err
}

func (t *Transport) SendDocument(_ context.Context, conversationID int64, path string) error {
	_, err := t.api.Send(tgbotapi.NewDocument(conversationID, tgbotapi.FilePath(path)))
	return err
}

func (t *Transport) AckCallback(_ context.Context, callbackID, notice string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, notice))
	return err
}

// renderKeyboard maps the transport-neutral keyboard onto Telegram markup.
func renderKeyboard(kb *domain.Keyboard) interface{} {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return tgbotapi.NewRemoveKeyboard(false)
	case kb.Inline:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.CallbackData))
			}
			rows = append(rows, buttons)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	default:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Label))
			}
			rows = append(rows, buttons)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = true
		return markup
	}
}
