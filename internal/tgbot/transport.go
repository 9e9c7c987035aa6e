package tgbot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/models"
)

// botAPI is the part of *tgbotapi.BotAPI the bot needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Transport sends, edits and deletes chat messages. It implements the
// messenger interfaces of the training and promotion packages and the
// directory's Deleter.
type Transport struct {
	api botAPI
}

func NewTransport(api botAPI) *Transport {
	return &Transport{api: api}
}

func (t *Transport) Send(ctx context.Context, chatID int64, text string, kb models.Keyboard) (models.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return models.MessageRef{}, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if len(kb) > 0 {
		msg.ReplyMarkup = inlineMarkup(kb)
	}
	sent, err := t.api.Send(msg)
	if err != nil {
		return models.MessageRef{}, apperr.Transport("send message", err)
	}
	ref := models.MessageRef{ChatID: chatID, MessageID: sent.MessageID}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	return ref, nil
}

// Edit replaces the text of ref. A nil keyboard removes the buttons.
func (t *Transport) Edit(ctx context.Context, ref models.MessageRef, text string, kb models.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	markup := inlineMarkup(kb)
	edit := tgbotapi.NewEditMessageTextAndMarkup(ref.ChatID, ref.MessageID, text, markup)
	if _, err := t.api.Request(edit); err != nil {
		if notModified(err) {
			return nil
		}
		return apperr.Transport("edit message "+ref.String(), err)
	}
	return nil
}

func (t *Transport) Delete(ctx context.Context, ref models.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return apperr.Transport("delete message "+ref.String(), err)
	}
	return nil
}

func inlineMarkup(kb models.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// notModified matches Telegram's answer to an edit that changes nothing.
func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
