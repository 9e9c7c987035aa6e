package tgbot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/models"
)

// fakeAPI records everything the bot sends. Sent messages get ids 100, 101, ...
type fakeAPI struct {
	nextID     int
	sent       []tgbotapi.Chattable
	requests   []tgbotapi.Chattable
	failSend   error
	failEdit   error
	failDelete error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.failSend != nil {
		return tgbotapi.Message{}, f.failSend
	}
	f.sent = append(f.sent, c)
	msg := tgbotapi.Message{MessageID: 100 + f.nextID}
	f.nextID++
	if mc, ok := c.(tgbotapi.MessageConfig); ok {
		msg.Chat = &tgbotapi.Chat{ID: mc.ChatID}
		msg.Text = mc.Text
	}
	return msg, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	switch c.(type) {
	case tgbotapi.EditMessageTextConfig:
		if f.failEdit != nil {
			return nil, f.failEdit
		}
	case tgbotapi.DeleteMessageConfig:
		if f.failDelete != nil {
			return nil, f.failDelete
		}
	}
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if mc, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, mc)
		}
	}
	return out
}

func (f *fakeAPI) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	if len(msgs) == 0 {
		t.Fatalf("nothing sent")
	}
	return msgs[len(msgs)-1]
}

func (f *fakeAPI) edits() []tgbotapi.EditMessageTextConfig {
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.requests {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeAPI) answers() []tgbotapi.CallbackConfig {
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (f *fakeAPI) lastAnswer(t *testing.T) tgbotapi.CallbackConfig {
	t.Helper()
	a := f.answers()
	if len(a) == 0 {
		t.Fatalf("callback not answered")
	}
	return a[len(a)-1]
}

func TestTransportSendAttachesKeyboard(t *testing.T) {
	api := &fakeAPI{}
	tr := NewTransport(api)

	ref, err := tr.Send(context.Background(), -100, "hello", models.SignupKeyboard())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ref != (models.MessageRef{ChatID: -100, MessageID: 100}) {
		t.Fatalf("ref = %v", ref)
	}
	mc := api.lastMessage(t)
	markup, ok := mc.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("markup = %T", mc.ReplyMarkup)
	}
	if len(markup.InlineKeyboard) != 2 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("rows = %+v", markup.InlineKeyboard)
	}
	if d := *markup.InlineKeyboard[1][0].CallbackData; d != models.DataCancel {
		t.Fatalf("cancel button data = %q", d)
	}
}

func TestTransportSendWithoutKeyboard(t *testing.T) {
	api := &fakeAPI{}
	tr := NewTransport(api)
	if _, err := tr.Send(context.Background(), 5, "plain", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if mc := api.lastMessage(t); mc.ReplyMarkup != nil {
		t.Fatalf("markup = %v, want none", mc.ReplyMarkup)
	}
}

func TestTransportErrors(t *testing.T) {
	ctx := context.Background()
	ref := models.MessageRef{ChatID: -100, MessageID: 7}

	cases := []struct {
		name    string
		api     *fakeAPI
		call    func(*Transport) error
		wantNil bool
	}{
		{
			name: "send rejected",
			api:  &fakeAPI{failSend: errors.New("Forbidden: bot was blocked by the user")},
			call: func(tr *Transport) error { _, err := tr.Send(ctx, 1, "x", nil); return err },
		},
		{
			name: "edit rejected",
			api:  &fakeAPI{failEdit: errors.New("Bad Request: message to edit not found")},
			call: func(tr *Transport) error { return tr.Edit(ctx, ref, "x", nil) },
		},
		{
			name:    "edit not modified",
			api:     &fakeAPI{failEdit: errors.New("Bad Request: message is not modified: specified new message content is exactly the same")},
			call:    func(tr *Transport) error { return tr.Edit(ctx, ref, "x", nil) },
			wantNil: true,
		},
		{
			name: "delete rejected",
			api:  &fakeAPI{failDelete: errors.New("Bad Request: message can't be deleted")},
			call: func(tr *Transport) error { return tr.Delete(ctx, ref) },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call(NewTransport(tc.api))
			if tc.wantNil {
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, apperr.ErrTransport) {
				t.Fatalf("err = %v, want transport error", err)
			}
		})
	}
}

func TestTransportDelete(t *testing.T) {
	api := &fakeAPI{}
	ref := models.MessageRef{ChatID: -100, MessageID: 7}
	if err := NewTransport(api).Delete(context.Background(), ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	del, ok := api.requests[0].(tgbotapi.DeleteMessageConfig)
	if !ok || del.ChatID != -100 || del.MessageID != 7 {
		t.Fatalf("request = %+v", api.requests[0])
	}
}

func TestTransportHonoursContext(t *testing.T) {
	api := &fakeAPI{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewTransport(api).Send(ctx, 1, "x", nil); err == nil {
		t.Fatalf("Send on cancelled context succeeded")
	}
	if len(api.sent) != 0 {
		t.Fatalf("sent %d messages", len(api.sent))
	}
}
