package tgbot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/config"
	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/models"
	"training-roster-bot/internal/promotion"
	"training-roster-bot/internal/training"
)

type Users interface {
	GetUserRecord(ctx context.Context, userID int64) (*models.Person, error)
	AddRecord(ctx context.Context, p models.Person) error
	ListUsers(ctx context.Context) ([]models.Person, error)
}

type Templates interface {
	Add(name, text string) error
	Edit(name, text string) error
	Get(name string) (string, error)
	List() ([]string, error)
	Delete(name string) error
}

type Admins interface {
	IsAdmin(id int64) bool
	Add(actor, target int64) error
	Remove(actor, target int64) error
	List() ([]int64, error)
}

type Promoter interface {
	Confirm(ctx context.Context, actorID int64, token string) error
	Decline(ctx context.Context, actorID int64, token string) error
}

type Deps struct {
	Users     Users
	Templates Templates
	Admins    Admins
	Training  *training.Service
	Promotion Promoter
}

type App struct {
	cfg config.Config
	bot *tgbotapi.BotAPI
	api botAPI
	out *Transport

	users     Users
	templates Templates
	admins    Admins
	svc       *training.Service
	promo     Promoter

	sessions *sessionStore
}

// New builds the bot around bot and tr; tr should wrap the same bot.
func New(cfg config.Config, bot *tgbotapi.BotAPI, tr *Transport, d Deps) *App {
	a := newApp(cfg, bot, tr, d)
	a.bot = bot
	return a
}

func newApp(cfg config.Config, api botAPI, tr *Transport, d Deps) *App {
	return &App{
		cfg:       cfg,
		api:       api,
		out:       tr,
		users:     d.Users,
		templates: d.Templates,
		admins:    d.Admins,
		svc:       d.Training,
		promo:     d.Promotion,
		sessions:  newSessionStore(),
	}
}

// Run processes updates one at a time until ctx is done.
func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)
	defer a.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return errors.New("update channel closed")
			}
			a.handleUpdate(ctx, upd)
		}
	}
}

func (a *App) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		if err := a.handleMessage(ctx, upd.Message); err != nil {
			logger.Error("handle msg: %v", err)
		}
	} else if upd.CallbackQuery != nil {
		if err := a.handleCallback(ctx, upd.CallbackQuery); err != nil {
			logger.Error("handle cb: %v", err)
		}
	}
}

func (a *App) isAdmin(tgID int64) bool {
	return a.admins.IsAdmin(tgID)
}

func (a *App) reply(ctx context.Context, chatID int64, text string) error {
	_, err := a.out.Send(ctx, chatID, text, nil)
	return err
}

// replyErr reports err to the user and says whether the dialog should
// ask again. Transport and persistence failures are logged here.
func (a *App) replyErr(ctx context.Context, chatID int64, err error) (bool, error) {
	text, retry := apperr.Reply(err)
	if !errors.Is(err, apperr.ErrValidation) && !errors.Is(err, apperr.ErrNotFound) && !errors.Is(err, apperr.ErrDuplicate) {
		logger.Error("chat %d: %v", chatID, err)
	}
	return retry, a.reply(ctx, chatID, text)
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.From == nil || m.Chat == nil {
		return nil
	}
	if m.Chat.ID == a.cfg.TrainingChatID && !m.IsCommand() {
		ref := models.MessageRef{ChatID: m.Chat.ID, MessageID: m.MessageID}
		if a.svc.Observe(ref, m.Text) {
			logger.Info("observed training announcement %s", ref)
			return nil
		}
	}
	if m.IsCommand() {
		return a.handleCommand(ctx, m)
	}

	st := a.sessions.get(m.From.ID)
	if st.Flow != "" && st.ChatID == m.Chat.ID {
		return a.handleFlowInput(ctx, m, strings.TrimSpace(m.Text), st)
	}
	return nil
}

func (a *App) handleFlowInput(ctx context.Context, m *tgbotapi.Message, txt string, st session) error {
	switch st.Flow {
	case flowRegister:
		return a.handleRegisterFlow(ctx, m, txt)
	case flowCreateTraining:
		return a.handleCreateTrainingFlow(ctx, m.From.ID, m.Chat.ID, txt, st)
	case flowCancelTraining:
		return a.handleCancelTrainingFlow(ctx, m.From.ID, m.Chat.ID, txt)
	default:
		a.sessions.clear(m.From.ID)
		return a.reply(ctx, m.Chat.ID, "Dialog reset. Send /help")
	}
}

// ---------- Callback handling ----------

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.From == nil {
		return nil
	}
	data := q.Data

	switch {
	case strings.HasPrefix(data, "train:"):
		return a.handleSignupCallback(ctx, q)
	case strings.HasPrefix(data, "promo:"):
		return a.handlePromotionCallback(ctx, q)
	case strings.HasPrefix(data, "tpl:"), strings.HasPrefix(data, "create:"):
		if !a.isAdmin(q.From.ID) {
			return a.answer(q.ID, "⛔ Not enough rights!", true)
		}
		if strings.HasPrefix(data, "tpl:") {
			return a.handleTemplateCallback(ctx, q)
		}
		return a.handleCreateCallback(ctx, q)
	}
	return a.answer(q.ID, "", false)
}

func (a *App) answer(callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	_, err := a.api.Request(cb)
	return err
}

// answerErr shows err as an alert on the pressed button.
func (a *App) answerErr(q *tgbotapi.CallbackQuery, err error) error {
	text, _ := apperr.Reply(err)
	if !errors.Is(err, apperr.ErrNotFound) && !errors.Is(err, apperr.ErrDuplicate) && !errors.Is(err, apperr.ErrValidation) {
		logger.Error("callback %q from %d: %v", q.Data, q.From.ID, err)
	}
	return a.answer(q.ID, text, true)
}

func (a *App) handleSignupCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.Message == nil || q.Message.Chat == nil {
		return a.answer(q.ID, "", false)
	}
	ref := models.MessageRef{ChatID: q.Message.Chat.ID, MessageID: q.Message.MessageID}
	text := q.Message.Text

	switch q.Data {
	case models.DataJoinPlayer, models.DataJoinGoalie:
		role := models.RolePlayer
		if q.Data == models.DataJoinGoalie {
			role = models.RoleGoalie
		}
		outcome, err := a.svc.Join(ctx, q.From.ID, ref, text, role)
		if err != nil {
			return a.answerErr(q, err)
		}
		return a.answer(q.ID, joinReply(outcome), false)
	case models.DataCancel:
		if _, err := a.svc.Cancel(ctx, q.From.ID, ref, text); err != nil {
			return a.answerErr(q, err)
		}
		return a.answer(q.ID, "✅ Your sign-up is cancelled", false)
	}
	return a.answer(q.ID, "", false)
}

func (a *App) handlePromotionCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	var err error
	reply := ""
	switch {
	case strings.HasPrefix(q.Data, promotion.DataConfirmPrefix):
		err = a.promo.Confirm(ctx, q.From.ID, strings.TrimPrefix(q.Data, promotion.DataConfirmPrefix))
		reply = "✅ You are in!"
	case strings.HasPrefix(q.Data, promotion.DataDeclinePrefix):
		err = a.promo.Decline(ctx, q.From.ID, strings.TrimPrefix(q.Data, promotion.DataDeclinePrefix))
		reply = "👌 Declined"
	}
	if err != nil {
		return a.answerErr(q, err)
	}
	return a.answer(q.ID, reply, false)
}
