package tgbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/models"
	"training-roster-bot/internal/training"
	"training-roster-bot/internal/util"
)

const (
	dataCreateTemplatePrefix = "create:tpl:"
	dataCreateYes            = "create:yes"
	dataCreateNo             = "create:no"
)

// ---------- Registration ----------

func (a *App) handleRegisterFlow(ctx context.Context, m *tgbotapi.Message, txt string) error {
	if len(strings.Fields(txt)) < 2 {
		_, err := a.replyErr(ctx, m.Chat.ID, apperr.Validation("enter last and first name separated by a space, e.g. Ivanov Ivan"))
		return err
	}
	p := models.Person{
		UserID:           m.From.ID,
		TelegramName:     m.From.UserName,
		FullName:         strings.TrimSpace(m.From.FirstName + " " + m.From.LastName),
		Message:          strings.Join(strings.Fields(txt), " "),
		RegistrationDate: util.NowISO(),
	}
	if err := a.users.AddRecord(ctx, p); err != nil {
		retry, rerr := a.replyErr(ctx, m.Chat.ID, err)
		if !retry {
			a.sessions.clear(m.From.ID)
		}
		return rerr
	}
	a.sessions.clear(m.From.ID)
	return a.reply(ctx, m.Chat.ID, fmt.Sprintf("✅ Saved:\nName: %s", p.Message))
}

// ---------- Creating a training ----------

func (a *App) startCreateTraining(ctx context.Context, userID, chatID int64) error {
	names, err := a.templates.List()
	if err != nil {
		_, err = a.replyErr(ctx, chatID, err)
		return err
	}
	a.sessions.set(userID, session{Flow: flowCreateTraining, Step: stepTemplate, ChatID: chatID})
	kb := models.Keyboard{}
	for _, n := range names {
		kb = append(kb, []models.Button{{Text: n, Data: dataCreateTemplatePrefix + n}})
	}
	_, err = a.out.Send(ctx, chatID, "📋 Choose a template or type its name:", kb)
	return err
}

func (a *App) handleCreateTrainingFlow(ctx context.Context, userID, chatID int64, txt string, st session) error {
	switch st.Step {
	case stepTemplate:
		return a.chooseTemplate(ctx, userID, chatID, txt, st)

	case stepDate:
		start, err := a.svc.ParseStart(txt)
		if err != nil {
			return a.flowErr(ctx, userID, chatID, err)
		}
		st.Draft.Start = start
		st.Step = stepLocation
		a.sessions.set(userID, st)
		return a.reply(ctx, chatID, "📍 Enter the location:")

	case stepLocation:
		if txt == "" {
			return a.flowErr(ctx, userID, chatID, apperr.Validation("the location cannot be empty"))
		}
		st.Draft.Location = txt
		st.Step = stepDetails
		a.sessions.set(userID, st)
		return a.reply(ctx, chatID, "📝 Enter extra details, or - to skip:")

	case stepDetails:
		if txt != "-" {
			st.Draft.Details = txt
		}
		st.Step = stepLimit
		a.sessions.set(userID, st)
		return a.reply(ctx, chatID, "👥 Enter the player limit (0 for no limit):")

	case stepLimit:
		limit, err := training.ParseLimit(txt)
		if err != nil {
			return a.flowErr(ctx, userID, chatID, err)
		}
		st.Draft.Limit = limit
		preview, err := a.svc.Preview(st.Draft)
		if err != nil {
			return a.flowErr(ctx, userID, chatID, err)
		}
		st.Step = stepConfirm
		a.sessions.set(userID, st)
		kb := models.Keyboard{{
			{Text: "✅ Publish", Data: dataCreateYes},
			{Text: "❌ Cancel", Data: dataCreateNo},
		}}
		_, err = a.out.Send(ctx, chatID, "👀 Preview:\n\n"+preview, kb)
		return err

	case stepConfirm:
		return a.reply(ctx, chatID, "Use the buttons under the preview, or /cancel")
	}

	a.sessions.clear(userID)
	return a.reply(ctx, chatID, "Dialog reset. Send /createtrain")
}

func (a *App) chooseTemplate(ctx context.Context, userID, chatID int64, name string, st session) error {
	if _, err := a.templates.Get(name); err != nil {
		return a.flowErr(ctx, userID, chatID, err)
	}
	st.Draft.Template = strings.ToLower(strings.TrimSpace(name))
	st.Step = stepDate
	a.sessions.set(userID, st)
	return a.reply(ctx, chatID, fmt.Sprintf("Template '%s'.\n📅 Enter the date and time as DD.MM.YYYY HH:MM:", st.Draft.Template))
}

// flowErr reports err and either keeps the dialog at the current step
// or ends it.
func (a *App) flowErr(ctx context.Context, userID, chatID int64, err error) error {
	retry, rerr := a.replyErr(ctx, chatID, err)
	if !retry {
		a.sessions.clear(userID)
	}
	return rerr
}

func (a *App) handleCreateCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	userID := q.From.ID
	st := a.sessions.get(userID)
	if st.Flow != flowCreateTraining {
		return a.answer(q.ID, "This dialog is over, start again with /createtrain", true)
	}

	switch {
	case strings.HasPrefix(q.Data, dataCreateTemplatePrefix):
		if st.Step != stepTemplate {
			return a.answer(q.ID, "", false)
		}
		if err := a.answer(q.ID, "", false); err != nil {
			return err
		}
		return a.chooseTemplate(ctx, userID, st.ChatID, strings.TrimPrefix(q.Data, dataCreateTemplatePrefix), st)

	case q.Data == dataCreateYes:
		if st.Step != stepConfirm {
			return a.answer(q.ID, "", false)
		}
		a.sessions.clear(userID)
		if _, err := a.svc.CreateTraining(ctx, st.Draft); err != nil {
			a.closeButtons(ctx, q, "❌ The training was not published")
			return a.answerErr(q, err)
		}
		a.closeButtons(ctx, q, fmt.Sprintf("✅ Training created from template '%s'!", st.Draft.Template))
		return a.answer(q.ID, "Published", false)

	case q.Data == dataCreateNo:
		a.sessions.clear(userID)
		a.closeButtons(ctx, q, "❌ Training creation cancelled")
		return a.answer(q.ID, "", false)
	}
	return a.answer(q.ID, "", false)
}

// ---------- Cancelling a training ----------

func (a *App) handleCancelTrainingFlow(ctx context.Context, userID, chatID int64, txt string) error {
	report, err := a.svc.CancelDate(ctx, txt)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			return a.flowErr(ctx, userID, chatID, err)
		}
		a.sessions.clear(userID)
		if report.Date == "" {
			_, err = a.replyErr(ctx, chatID, err)
			return err
		}
		// The messages are gone but the sheet was not updated.
		logger.Error("cancel training %s: %v", report.Date, err)
		return a.reply(ctx, chatID, fmt.Sprintf("⛔️ Training on %s is cancelled, but the spreadsheet could not be updated (deleted %d of %d messages)",
			report.Date, report.Deleted, report.Total))
	}
	a.sessions.clear(userID)
	return a.reply(ctx, chatID, report.String())
}
