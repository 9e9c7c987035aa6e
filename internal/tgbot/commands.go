package tgbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/engine"
	"training-roster-bot/internal/models"
	"training-roster-bot/internal/roster"
	"training-roster-bot/internal/server"
)

var adminCommands = map[string]bool{
	"addtemplate":    true,
	"edittemplate":   true,
	"deletetemplate": true,
	"listtemplates":  true,
	"createtrain":    true,
	"canceltrain":    true,
	"addadmin":       true,
	"removeadmin":    true,
	"admins":         true,
	"users":          true,
	"export":         true,
}

func (a *App) handleCommand(ctx context.Context, m *tgbotapi.Message) error {
	cmd := m.Command()
	chatID := m.Chat.ID
	tgID := m.From.ID

	if adminCommands[cmd] && !a.isAdmin(tgID) {
		return a.reply(ctx, chatID, "⛔ Not enough rights!")
	}
	// A new command always ends the dialog in progress.
	a.sessions.clear(tgID)

	switch cmd {
	case "start", "help":
		return a.reply(ctx, chatID, a.helpText(tgID))
	case "cancel":
		return a.reply(ctx, chatID, "Cancelled.")
	case "register":
		return a.startRegister(ctx, m)
	case "admin":
		if a.isAdmin(tgID) {
			return a.reply(ctx, chatID, "🛡 You are an admin!")
		}
		return a.reply(ctx, chatID, "⛔ You have no admin rights")
	case "addadmin":
		return a.changeAdmin(ctx, m, true)
	case "removeadmin":
		return a.changeAdmin(ctx, m, false)
	case "users":
		return a.showUsers(ctx, chatID)
	case "admins":
		return a.showAdmins(ctx, chatID)
	case "addtemplate", "edittemplate":
		return a.saveTemplate(ctx, m, cmd == "addtemplate")
	case "deletetemplate":
		return a.askDeleteTemplate(ctx, m)
	case "listtemplates":
		return a.showTemplates(ctx, chatID)
	case "createtrain":
		return a.startCreateTraining(ctx, tgID, chatID)
	case "canceltrain":
		a.sessions.set(tgID, session{Flow: flowCancelTraining, ChatID: chatID})
		return a.reply(ctx, chatID, "📅 Enter the date of the training to cancel as DD.MM.YYYY:")
	case "export":
		return a.sendExportLinks(ctx, chatID, strings.TrimSpace(m.CommandArguments()))
	}
	return nil
}

func (a *App) helpText(tgID int64) string {
	text := `📌 Commands

🏋️ Sign up for a training
Press "Player" or "Goalie" under the training announcement.
Press "❌ Cancel sign-up" to withdraw.
When the main list is full you go to the reserve list. If a spot frees up, the first reserve gets a private offer to take it.

/register - register once with your last and first name
/help - this message`
	if !a.isAdmin(tgID) {
		return text
	}
	return text + `

🔐 Admin commands
/addtemplate - add a template:
/addtemplate
name
text with {date}, {location} and {details}
/edittemplate - replace a template (same format)
/deletetemplate name - delete a template
/listtemplates - show templates
/createtrain - create a training step by step
/canceltrain - cancel a future training
/addadmin, /removeadmin - reply to a user's message
/admin - check your rights
/admins - list admins
/users - registered users
/export DD.MM.YYYY - roster CSV link

Dates: DD.MM.YYYY, date and time: DD.MM.YYYY HH:MM
Admins from the configuration cannot be removed, and nobody can remove their own rights.`
}

// ---------- Users & admins ----------

func (a *App) startRegister(ctx context.Context, m *tgbotapi.Message) error {
	p, err := a.users.GetUserRecord(ctx, m.From.ID)
	if err != nil {
		_, err = a.replyErr(ctx, m.Chat.ID, err)
		return err
	}
	if p != nil {
		return a.reply(ctx, m.Chat.ID, "⚠ You are already registered!")
	}
	a.sessions.set(m.From.ID, session{Flow: flowRegister, ChatID: m.Chat.ID})
	return a.reply(ctx, m.Chat.ID, "Enter your last and first name separated by a space:")
}

func (a *App) showUsers(ctx context.Context, chatID int64) error {
	users, err := a.users.ListUsers(ctx)
	if err != nil {
		_, err = a.replyErr(ctx, chatID, err)
		return err
	}
	if len(users) == 0 {
		return a.reply(ctx, chatID, "Nobody is registered yet.")
	}
	b := strings.Builder{}
	b.WriteString("📊 Registered users:\n\n")
	for _, u := range users {
		admin := ""
		if u.IsAdmin || a.isAdmin(u.UserID) {
			admin = " (admin)"
		}
		fmt.Fprintf(&b, "👤 %s (%s)%s\n", u.FullName, u.Message, admin)
	}
	return a.reply(ctx, chatID, strings.TrimRight(b.String(), "\n"))
}

func (a *App) showAdmins(ctx context.Context, chatID int64) error {
	ids, err := a.admins.List()
	if err != nil {
		_, err = a.replyErr(ctx, chatID, err)
		return err
	}
	b := strings.Builder{}
	b.WriteString("🛡 Admins:\n")
	for _, id := range ids {
		name := "not registered"
		if p, err := a.users.GetUserRecord(ctx, id); err == nil && p != nil {
			name = p.FullName
		}
		fmt.Fprintf(&b, "\n%d (%s)", id, name)
	}
	return a.reply(ctx, chatID, b.String())
}

func (a *App) changeAdmin(ctx context.Context, m *tgbotapi.Message, grant bool) error {
	if m.ReplyToMessage == nil || m.ReplyToMessage.From == nil {
		return a.reply(ctx, m.Chat.ID, "ℹ Reply to a message of the user whose rights you want to change")
	}
	target := m.ReplyToMessage.From
	var err error
	if grant {
		err = a.admins.Add(m.From.ID, target.ID)
	} else {
		err = a.admins.Remove(m.From.ID, target.ID)
	}
	if err != nil {
		_, err = a.replyErr(ctx, m.Chat.ID, err)
		return err
	}
	if grant {
		return a.reply(ctx, m.Chat.ID, fmt.Sprintf("✅ %s is an admin now!", displayName(target)))
	}
	return a.reply(ctx, m.Chat.ID, fmt.Sprintf("✅ %s is no longer an admin", displayName(target)))
}

func (a *App) sendExportLinks(ctx context.Context, chatID int64, date string) error {
	if date == "" {
		return a.reply(ctx, chatID, "📤 Training directory: "+server.DirectoryURL(a.cfg))
	}
	if _, err := time.Parse(roster.DateLayout, date); err != nil {
		_, err = a.replyErr(ctx, chatID, apperr.Validation("bad date, use DD.MM.YYYY"))
		return err
	}
	return a.reply(ctx, chatID, "📤 Roster CSV for "+date+": "+server.ExportURL(a.cfg, date))
}

// ---------- Templates ----------

func (a *App) saveTemplate(ctx context.Context, m *tgbotapi.Message, add bool) error {
	name, text, err := parseTemplateCommand(m.Text, m.Command())
	if err == nil {
		if add {
			err = a.templates.Add(name, text)
		} else {
			err = a.templates.Edit(name, text)
		}
	}
	if err != nil {
		_, err = a.replyErr(ctx, m.Chat.ID, err)
		return err
	}
	if add {
		return a.reply(ctx, m.Chat.ID, fmt.Sprintf("✅ Template '%s' added!", strings.ToLower(name)))
	}
	return a.reply(ctx, m.Chat.ID, fmt.Sprintf("✅ Template '%s' updated!", strings.ToLower(name)))
}

// parseTemplateCommand splits "/cmd\nname\ntext..." into name and text.
func parseTemplateCommand(msg, cmd string) (string, string, error) {
	parts := strings.SplitN(msg, "\n", 3)
	if len(parts) < 3 || strings.TrimSpace(parts[1]) == "" || strings.TrimSpace(parts[2]) == "" {
		return "", "", apperr.Validation("wrong format, use:\n/%s\nname\ntemplate text\n\n"+
			"Example:\n/%s\nsummer\nSummer training {date}\nLocation: {location}", cmd, cmd)
	}
	return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

func (a *App) askDeleteTemplate(ctx context.Context, m *tgbotapi.Message) error {
	name := strings.TrimSpace(m.CommandArguments())
	if name == "" {
		if parts := strings.SplitN(m.Text, "\n", 2); len(parts) == 2 {
			name = strings.TrimSpace(parts[1])
		}
	}
	if name == "" {
		return a.reply(ctx, m.Chat.ID, "Use: /deletetemplate name")
	}
	if _, err := a.templates.Get(name); err != nil {
		_, err = a.replyErr(ctx, m.Chat.ID, err)
		return err
	}
	name = strings.ToLower(name)
	kb := models.Keyboard{{
		{Text: "🗑 Delete", Data: "tpl:del:" + name},
		{Text: "Keep", Data: "tpl:keep"},
	}}
	_, err := a.out.Send(ctx, m.Chat.ID, fmt.Sprintf("Delete template '%s'?", name), kb)
	return err
}

func (a *App) showTemplates(ctx context.Context, chatID int64) error {
	names, err := a.templates.List()
	if err != nil {
		_, err = a.replyErr(ctx, chatID, err)
		return err
	}
	if len(names) == 0 {
		return a.reply(ctx, chatID, "No templates yet. Add one with /addtemplate")
	}
	kb := models.Keyboard{}
	for _, n := range names {
		kb = append(kb, []models.Button{{Text: n, Data: "tpl:show:" + n}})
	}
	_, err = a.out.Send(ctx, chatID, "📋 Templates:", kb)
	return err
}

func (a *App) handleTemplateCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	chatID := q.From.ID
	if q.Message != nil && q.Message.Chat != nil {
		chatID = q.Message.Chat.ID
	}

	switch {
	case strings.HasPrefix(q.Data, "tpl:show:"):
		name := strings.TrimPrefix(q.Data, "tpl:show:")
		text, err := a.templates.Get(name)
		if err != nil {
			return a.answerErr(q, err)
		}
		if err := a.answer(q.ID, "", false); err != nil {
			return err
		}
		return a.reply(ctx, chatID, fmt.Sprintf("📄 Template '%s':\n\n%s", name, text))
	case strings.HasPrefix(q.Data, "tpl:del:"):
		name := strings.TrimPrefix(q.Data, "tpl:del:")
		if err := a.templates.Delete(name); err != nil {
			return a.answerErr(q, err)
		}
		a.closeButtons(ctx, q, fmt.Sprintf("🗑 Template '%s' deleted", name))
		return a.answer(q.ID, "Deleted", false)
	case q.Data == "tpl:keep":
		a.closeButtons(ctx, q, "Deletion cancelled")
		return a.answer(q.ID, "", false)
	}
	return a.answer(q.ID, "", false)
}

// closeButtons replaces the text of the message q came from and drops
// its keyboard.
func (a *App) closeButtons(ctx context.Context, q *tgbotapi.CallbackQuery, text string) {
	if q.Message == nil || q.Message.Chat == nil {
		return
	}
	ref := models.MessageRef{ChatID: q.Message.Chat.ID, MessageID: q.Message.MessageID}
	_ = a.out.Edit(ctx, ref, text, nil)
}

// ---------- helpers ----------

func joinReply(o engine.JoinOutcome) string {
	switch o {
	case engine.JoinedGoalie:
		return "✅ You are signed up as a goalie"
	case engine.JoinedReserve:
		return "📋 The main list is full, you are in the reserve list"
	default:
		return "✅ You are signed up as a player"
	}
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return fmt.Sprintf("user %d", u.ID)
	}
	return name
}
