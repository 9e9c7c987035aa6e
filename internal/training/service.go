// Package training wires the roster core to its collaborators: every
// button press or admin command goes parse, mutate, serialize, edit,
// then forwards attendance.
package training

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/directory"
	"training-roster-bot/internal/engine"
	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/models"
	"training-roster-bot/internal/promotion"
	"training-roster-bot/internal/roster"
	"training-roster-bot/internal/templates"
)

type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, kb models.Keyboard) (models.MessageRef, error)
	Edit(ctx context.Context, ref models.MessageRef, text string, kb models.Keyboard) error
	Delete(ctx context.Context, ref models.MessageRef) error
}

// People is the attendance spreadsheet as seen by the roster flow.
type People interface {
	GetUserRecord(ctx context.Context, userID int64) (*models.Person, error)
	RecordAttendance(ctx context.Context, personID int64, date time.Time, present bool, role models.Role) error
	CancelTrainingDate(ctx context.Context, date time.Time) (bool, error)
}

type Templates interface {
	Render(name string, v templates.Vars) (string, error)
}

type Promoter interface {
	Trigger(ctx context.Context, origin models.MessageRef, text string) error
	Forget(origin models.MessageRef)
}

type Service struct {
	msg       Messenger
	people    People
	templates Templates
	dir       *directory.Directory
	promo     Promoter

	chatID int64
	loc    *time.Location
	now    func() time.Time
}

type Options struct {
	// ChatID is where new announcements are posted.
	ChatID   int64
	Location *time.Location
	Now      func() time.Time
}

func New(msg Messenger, people People, tpl Templates, dir *directory.Directory, promo Promoter, opts Options) *Service {
	s := &Service{
		msg:       msg,
		people:    people,
		templates: tpl,
		dir:       dir,
		promo:     promo,
		chatID:    opts.ChatID,
		loc:       opts.Location,
		now:       opts.Now,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ---------- sign-up buttons ----------

// Join signs actorID up on the announcement ref whose current text is text.
func (s *Service) Join(ctx context.Context, actorID int64, ref models.MessageRef, text string, role models.Role) (engine.JoinOutcome, error) {
	person, err := s.registered(ctx, actorID)
	if err != nil {
		return engine.JoinRejected, err
	}

	r := roster.Parse(text)
	updated, outcome, err := engine.Join(r, person.Message, person.Message, role)
	if err != nil {
		return outcome, err
	}
	newText := roster.Serialize(updated)
	if err := s.publishEdit(ctx, ref, newText); err != nil {
		return engine.JoinRejected, err
	}
	logger.Info("training: %q %s on %s", person.Message, outcome, ref)

	if outcome != engine.JoinedReserve {
		s.forwardAttendance(ctx, person, newText, true, role)
	}
	return outcome, nil
}

// Cancel withdraws actorID from the announcement. A main-list vacancy
// with reserves waiting starts the promotion protocol.
func (s *Service) Cancel(ctx context.Context, actorID int64, ref models.MessageRef, text string) (engine.CancelOutcome, error) {
	person, err := s.registered(ctx, actorID)
	if err != nil {
		return engine.NotFound, err
	}

	r := roster.Parse(text)
	section, _, _ := r.Find(person.Message)
	updated, outcome, vacated := engine.Cancel(r, person.Message)
	if outcome == engine.NotFound {
		return outcome, apperr.NotFound("you are not signed up for this training")
	}
	newText := roster.Serialize(updated)
	if err := s.publishEdit(ctx, ref, newText); err != nil {
		return engine.NotFound, err
	}
	logger.Info("training: %q %s on %s", person.Message, outcome, ref)

	role := models.RolePlayer
	if section == roster.Goalies {
		role = models.RoleGoalie
	}
	s.forwardAttendance(ctx, person, newText, false, role)

	if vacated {
		if err := s.promo.Trigger(ctx, ref, newText); err != nil {
			if errors.Is(err, promotion.ErrOfferOutstanding) {
				logger.Warn("training: vacancy on %s waits for the running offer", ref)
			} else {
				logger.Error("training: start promotion on %s: %v", ref, err)
			}
		}
	}
	return outcome, nil
}

func (s *Service) registered(ctx context.Context, userID int64) (*models.Person, error) {
	p, err := s.people.GetUserRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("you are not registered, use /register")
	}
	if strings.TrimSpace(p.Message) == "" {
		return nil, apperr.NotFound("your registration data was not found")
	}
	return p, nil
}

func (s *Service) publishEdit(ctx context.Context, ref models.MessageRef, text string) error {
	if err := s.msg.Edit(ctx, ref, text, models.SignupKeyboard()); err != nil {
		return apperr.Transport("edit roster", err)
	}
	s.dir.UpdateText(ref, text)
	return nil
}

// forwardAttendance mirrors a roster change into the spreadsheet. The
// roster edit is already done, so failures are only logged.
func (s *Service) forwardAttendance(ctx context.Context, p *models.Person, text string, present bool, role models.Role) {
	date, err := roster.TrainingDate(text, s.loc)
	if err != nil {
		logger.Warn("training: no date for attendance of %q: %v", p.Message, err)
		return
	}
	if err := s.people.RecordAttendance(ctx, p.UserID, date, present, role); err != nil {
		logger.Error("training: attendance of %q on %s: %v", p.Message, roster.DateKey(date), err)
	}
}

// ---------- creating a training ----------

// Draft collects what an admin typed in the creation dialog.
type Draft struct {
	Template string
	Start    time.Time
	Location string
	Details  string
	Limit    int
}

// ParseStart reads a "DD.MM.YYYY HH:MM" start time that must lie in the
// future.
func (s *Service) ParseStart(input string) (time.Time, error) {
	t, err := time.ParseInLocation(roster.DateTimeLayout, strings.TrimSpace(input), s.loc)
	if err != nil {
		return time.Time{}, apperr.Validation("bad date, use DD.MM.YYYY HH:MM, e.g. 15.04.2025 19:30")
	}
	if !t.After(s.now()) {
		return time.Time{}, apperr.Validation("the date must be in the future")
	}
	return t, nil
}

// ParseLimit reads a player limit; 0 means unlimited.
func ParseLimit(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 0 {
		return 0, apperr.Validation("bad number, use a whole number ≥ 0")
	}
	return n, nil
}

// Preview renders the announcement d would produce.
func (s *Service) Preview(d Draft) (string, error) {
	when := d.Start.Format(roster.DateTimeLayout)
	body, err := s.templates.Render(d.Template, templates.Vars{
		Date:     when,
		Location: d.Location,
		Details:  d.Details,
	})
	if err != nil {
		return "", err
	}
	body = strings.TrimRight(body, "\n")
	if _, err := roster.TrainingDate(body, s.loc); err != nil {
		// The announcement must carry its date marker to be found again.
		body = "Training " + when + "\n" + body
	}
	return roster.Serialize(roster.New(body, d.Limit)), nil
}

// CreateTraining posts the announcement for d to the training chat and
// records it in the directory.
func (s *Service) CreateTraining(ctx context.Context, d Draft) (models.MessageRef, error) {
	text, err := s.Preview(d)
	if err != nil {
		return models.MessageRef{}, err
	}
	ref, err := s.msg.Send(ctx, s.chatID, text, models.SignupKeyboard())
	if err != nil {
		return models.MessageRef{}, apperr.Transport("post training", err)
	}
	s.dir.Record(directory.Entry{DateKey: roster.DateKey(d.Start), Ref: ref, Text: text})
	logger.Info("training: created %s from template %q as %s", d.Start.Format(roster.DateTimeLayout), d.Template, ref)
	return ref, nil
}

// ---------- cancelling a training ----------

// CancelReport tells the admin what a cancellation managed to do.
type CancelReport struct {
	Date         string
	Deleted      int
	Total        int
	SheetUpdated bool
}

func (r CancelReport) String() string {
	msg := fmt.Sprintf("⛔️ Training on %s is cancelled!", r.Date)
	if r.Deleted < r.Total {
		msg += fmt.Sprintf("\n(Deleted %d of %d messages)", r.Deleted, r.Total)
	}
	if !r.SheetUpdated {
		msg += "\n⚠ Nobody was marked for this date in the spreadsheet."
	}
	return msg
}

// ParseCancelDate reads a "DD.MM.YYYY" date strictly after today.
func (s *Service) ParseCancelDate(input string) (time.Time, error) {
	d, err := time.ParseInLocation(roster.DateLayout, strings.TrimSpace(input), s.loc)
	if err != nil {
		return time.Time{}, apperr.Validation("bad date, use DD.MM.YYYY")
	}
	y, m, dd := s.now().In(s.loc).Date()
	today := time.Date(y, m, dd, 0, 0, 0, 0, s.loc)
	if !d.After(today) {
		return time.Time{}, apperr.Validation("only future trainings can be cancelled")
	}
	return d, nil
}

// CancelDate deletes every announcement of the day, drops their pending
// offers and removes the day from the attendance sheet. Message deletion
// is best-effort; the report says how much of it worked.
func (s *Service) CancelDate(ctx context.Context, input string) (CancelReport, error) {
	date, err := s.ParseCancelDate(input)
	if err != nil {
		return CancelReport{}, err
	}
	key := roster.DateKey(date)
	deleted, total, refs := s.dir.CancelDate(ctx, key, s.msg)
	for _, ref := range refs {
		s.promo.Forget(ref)
	}
	report := CancelReport{Date: key, Deleted: deleted, Total: total}

	ok, err := s.people.CancelTrainingDate(ctx, date)
	if err != nil {
		return report, err
	}
	report.SheetUpdated = ok
	logger.Info("training: cancelled %s (%d/%d messages deleted)", key, deleted, total)
	return report, nil
}

// Observe indexes a chat message that may be an announcement.
func (s *Service) Observe(ref models.MessageRef, text string) bool {
	return s.dir.Observe(ref, text)
}
