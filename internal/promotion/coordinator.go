// Package promotion runs the reserve offer protocol: when a main-list
// player cancels while reserves wait, the first reachable reserve gets a
// private offer that lapses after a fixed time, and the spot is only
// given away on explicit confirmation.
package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/engine"
	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/models"
	"training-roster-bot/internal/roster"
)

// DefaultTTL is how long a reserve has to answer an offer.
const DefaultTTL = time.Hour

// Callback data prefixes of the offer buttons; the offer token follows.
const (
	DataConfirmPrefix = "promo:yes:"
	DataDeclinePrefix = "promo:no:"
)

// ErrOfferOutstanding is returned by Trigger while the origin message
// already has an unanswered offer.
var ErrOfferOutstanding = errors.New("promotion offer already outstanding")

type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, kb models.Keyboard) (models.MessageRef, error)
	Edit(ctx context.Context, ref models.MessageRef, text string, kb models.Keyboard) error
}

// People resolves reserves to chat users and receives attendance.
type People interface {
	FindPersonIDByDisplayName(ctx context.Context, name string) (int64, bool, error)
	RecordAttendance(ctx context.Context, personID int64, date time.Time, present bool, role models.Role) error
}

// Texts gives the latest rendered text of an announcement.
type Texts interface {
	Lookup(ref models.MessageRef) (string, bool)
	UpdateText(ref models.MessageRef, text string)
}

// Pending is an outstanding offer. It owns its timer.
type Pending struct {
	Token               string
	Origin              models.MessageRef
	ReserveIndexOffered int
	ReserveName         string
	PersonID            int64
	Offer               models.MessageRef
	ExpiresAt           time.Time

	timer Timer
}

type Options struct {
	TTL      time.Duration
	Clock    Clock
	Location *time.Location
	// NewToken generates offer tokens; uuid.NewString when nil.
	NewToken func() string
}

type Coordinator struct {
	msg    Messenger
	people People
	texts  Texts

	ttl      time.Duration
	clock    Clock
	loc      *time.Location
	newToken func() string

	mu       sync.Mutex
	byOrigin map[models.MessageRef]*Pending
	byToken  map[string]*Pending
}

func New(msg Messenger, people People, texts Texts, opts Options) *Coordinator {
	c := &Coordinator{
		msg:      msg,
		people:   people,
		texts:    texts,
		ttl:      opts.TTL,
		clock:    opts.Clock,
		loc:      opts.Location,
		newToken: opts.NewToken,
		byOrigin: map[models.MessageRef]*Pending{},
		byToken:  map[string]*Pending{},
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.clock == nil {
		c.clock = RealClock()
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.newToken == nil {
		c.newToken = uuid.NewString
	}
	return c
}

// Trigger starts the protocol for origin, whose current text is text.
// Nothing happens when the roster has no reserves or no free spot.
func (c *Coordinator) Trigger(ctx context.Context, origin models.MessageRef, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byOrigin[origin]; ok {
		return ErrOfferOutstanding
	}
	r := roster.Parse(text)
	if len(r.Reserves) == 0 || !engine.HasVacancy(r) {
		return nil
	}
	c.offerFrom(ctx, origin, r, 0)
	return nil
}

// Confirm gives the free spot to the reserve the offer was made to.
func (c *Coordinator) Confirm(ctx context.Context, actorID int64, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.claim(actorID, token)
	if err != nil {
		return err
	}

	text, ok := c.texts.Lookup(p.Origin)
	if !ok {
		c.editOffer(ctx, p, "⚠ The training announcement is no longer available.")
		return apperr.NotFound("the training announcement is no longer available")
	}
	r := roster.Parse(text)
	idx := engine.FindReserve(r, p.ReserveName)
	if idx < 0 {
		c.editOffer(ctx, p, "⚠ You are no longer in the reserve list.")
		c.advance(ctx, p)
		return apperr.NotFound("you are no longer in the reserve list")
	}
	if !engine.HasVacancy(r) {
		c.editOffer(ctx, p, "⚠ Sorry, the spot has already been taken.")
		return apperr.NotFound("the spot has already been taken")
	}

	promoted, _ := engine.Promote(r, idx)
	newText := roster.Serialize(promoted)
	if err := c.msg.Edit(ctx, p.Origin, newText, models.SignupKeyboard()); err != nil {
		c.restore(p)
		return apperr.Transport("edit roster", err)
	}
	c.texts.UpdateText(p.Origin, newText)
	logger.Info("promotion: %s promoted on %s", p.ReserveName, p.Origin)

	if date, err := roster.TrainingDate(newText, c.loc); err == nil {
		if err := c.people.RecordAttendance(ctx, p.PersonID, date, true, models.RolePlayer); err != nil {
			logger.Error("promotion: attendance for %s: %v", p.ReserveName, err)
		}
	} else {
		logger.Warn("promotion: no training date on %s: %v", p.Origin, err)
	}

	c.editOffer(ctx, p, "✅ You are in the main list now. See you at training!")

	if engine.HasVacancy(promoted) && len(promoted.Reserves) > 0 {
		c.offerFrom(ctx, p.Origin, promoted, 0)
	}
	return nil
}

// Decline passes the offer on to the next reserve straight away.
func (c *Coordinator) Decline(ctx context.Context, actorID int64, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.claim(actorID, token)
	if err != nil {
		return err
	}
	c.editOffer(ctx, p, "👌 Offer declined, you stay in the reserve list.")
	c.advance(ctx, p)
	return nil
}

// Forget drops the offer for origin, if any. Used when the training is
// cancelled; a timer that still fires afterwards finds nothing to do.
func (c *Coordinator) Forget(origin models.MessageRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.byOrigin[origin]; ok {
		p.timer.Stop()
		c.remove(p)
	}
}

// Pending returns a copy of the outstanding offer for origin.
func (c *Coordinator) Pending(origin models.MessageRef) (Pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.byOrigin[origin]
	if !ok {
		return Pending{}, false
	}
	cp := *p
	cp.timer = nil
	return cp, true
}

// Outstanding returns the number of open offers.
func (c *Coordinator) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byOrigin)
}

func (c *Coordinator) expire(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.byToken[token]
	if !ok {
		return
	}
	logger.Info("promotion: offer to %s on %s expired", p.ReserveName, p.Origin)
	ctx := context.Background()
	c.remove(p)
	c.editOffer(ctx, p, "⌛ The offer has expired.")
	c.advance(ctx, p)
}

// claim looks up token for actorID, stops its timer and removes it.
func (c *Coordinator) claim(actorID int64, token string) (*Pending, error) {
	p, ok := c.byToken[token]
	if !ok {
		return nil, apperr.NotFound("this offer is no longer valid")
	}
	if p.PersonID != actorID {
		return nil, apperr.NotFound("this offer was made to someone else")
	}
	p.timer.Stop()
	c.remove(p)
	return p, nil
}

// restore puts a claimed offer back so the reserve can press Confirm
// again. The timer keeps the original deadline; an offer already past it
// expires right away.
func (c *Coordinator) restore(p *Pending) {
	c.byOrigin[p.Origin] = p
	c.byToken[p.Token] = p
	left := p.ExpiresAt.Sub(c.clock.Now())
	if left < 0 {
		left = 0
	}
	token := p.Token
	p.timer = c.clock.AfterFunc(left, func() { c.expire(token) })
	logger.Warn("promotion: offer to %s on %s kept open after a failed roster edit", p.ReserveName, p.Origin)
}

// advance offers the spot to the reserve after the one p was made to,
// or closes the protocol when there is none.
func (c *Coordinator) advance(ctx context.Context, p *Pending) {
	text, ok := c.texts.Lookup(p.Origin)
	if !ok {
		logger.Info("promotion: %s is gone, closing", p.Origin)
		return
	}
	r := roster.Parse(text)
	if !engine.HasVacancy(r) {
		logger.Info("promotion: no free spot left on %s", p.Origin)
		return
	}
	next := p.ReserveIndexOffered
	if pos := engine.FindReserve(r, p.ReserveName); pos >= 0 {
		next = pos + 1
	}
	if next >= len(r.Reserves) {
		logger.Info("promotion: no more reserves on %s, spot stays open", p.Origin)
		return
	}
	c.offerFrom(ctx, p.Origin, r, next)
}

// offerFrom sends an offer to the first reserve at or after start that
// can be reached. Callers hold c.mu, which also covers the lookups and
// sends made here.
func (c *Coordinator) offerFrom(ctx context.Context, origin models.MessageRef, r roster.Roster, start int) {
	for i := start; i < len(r.Reserves); i++ {
		name := r.Reserves[i].DisplayName
		personID, ok, err := c.people.FindPersonIDByDisplayName(ctx, name)
		if err != nil {
			logger.Error("promotion: look up %q: %v", name, err)
			continue
		}
		if !ok {
			logger.Warn("promotion: reserve %q is not registered, skipping", name)
			continue
		}

		token := c.newToken()
		kb := models.Keyboard{{
			{Text: "✅ Take the spot", Data: DataConfirmPrefix + token},
			{Text: "Decline", Data: DataDeclinePrefix + token},
		}}
		offer, err := c.msg.Send(ctx, personID, c.offerText(r), kb)
		if err != nil {
			logger.Error("promotion: send offer to %q: %v", name, err)
			continue
		}

		p := &Pending{
			Token:               token,
			Origin:              origin,
			ReserveIndexOffered: i,
			ReserveName:         name,
			PersonID:            personID,
			Offer:               offer,
			ExpiresAt:           c.clock.Now().Add(c.ttl),
		}
		p.timer = c.clock.AfterFunc(c.ttl, func() { c.expire(token) })
		c.byOrigin[origin] = p
		c.byToken[token] = p
		logger.Info("promotion: offered spot on %s to %s (until %s)",
			origin, name, p.ExpiresAt.Format(time.RFC3339))
		return
	}
	logger.Info("promotion: no reachable reserve on %s, spot stays open", origin)
}

func (c *Coordinator) offerText(r roster.Roster) string {
	when := "the training"
	if date, err := roster.TrainingDate(strings.Join(r.Preamble, "\n"), c.loc); err == nil {
		when = "the training on " + date.Format(roster.DateLayout)
	}
	return fmt.Sprintf("🏒 A spot opened up for %s.\nYou are next in the reserve list. "+
		"Confirm within %s to take it, otherwise it goes to the next reserve.", when, humanize(c.ttl))
}

func (c *Coordinator) editOffer(ctx context.Context, p *Pending, text string) {
	if err := c.msg.Edit(ctx, p.Offer, text, nil); err != nil {
		logger.Warn("promotion: update offer message %s: %v", p.Offer, err)
	}
}

func (c *Coordinator) remove(p *Pending) {
	if cur, ok := c.byOrigin[p.Origin]; ok && cur == p {
		delete(c.byOrigin, p.Origin)
	}
	delete(c.byToken, p.Token)
}

func humanize(d time.Duration) string {
	switch {
	case d%time.Hour == 0 && d >= time.Hour:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d%time.Minute == 0 && d >= time.Minute:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
	return d.String()
}
