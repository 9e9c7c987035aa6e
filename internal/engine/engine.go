// Package engine holds the roster state transitions. Every function takes
// a parsed roster and returns a new one; nothing is kept between calls.
package engine

import (
	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/models"
	"training-roster-bot/internal/roster"
)

type JoinOutcome int

const (
	JoinRejected JoinOutcome = iota
	JoinedPlayer
	JoinedReserve
	JoinedGoalie
)

func (o JoinOutcome) String() string {
	switch o {
	case JoinedPlayer:
		return "joinedPlayer"
	case JoinedReserve:
		return "joinedReserve"
	case JoinedGoalie:
		return "joinedGoalie"
	}
	return "rejected"
}

type CancelOutcome int

const (
	NotFound CancelOutcome = iota
	Cancelled
	CancelledWithPromotionPending
)

func (o CancelOutcome) String() string {
	switch o {
	case Cancelled:
		return "cancelled"
	case CancelledWithPromotionPending:
		return "cancelledWithPromotionPending"
	}
	return "notFound"
}

// Contains reports whether personKey matches any entry in any section.
func Contains(r roster.Roster, personKey string) bool {
	_, _, ok := r.Find(personKey)
	return ok
}

// HasVacancy reports whether a player could join the main list now.
func HasVacancy(r roster.Roster) bool {
	return r.PlayerLimit == 0 || len(r.Players) < r.PlayerLimit
}

// Join appends a new entry. Goalies are never limited; players beyond the
// limit go to the reserve list with the reserve marker.
func Join(r roster.Roster, personKey, displayName string, role models.Role) (roster.Roster, JoinOutcome, error) {
	if Contains(r, personKey) {
		return r, JoinRejected, apperr.Duplicate("you are already signed up for this training")
	}
	if displayName == "" {
		displayName = personKey
	}

	if role == models.RoleGoalie {
		return r.WithEntries(roster.Goalies, append(r.Goalies, roster.Entry{DisplayName: displayName})), JoinedGoalie, nil
	}
	if HasVacancy(r) {
		return r.WithEntries(roster.Players, append(r.Players, roster.Entry{DisplayName: displayName})), JoinedPlayer, nil
	}
	e := roster.Entry{DisplayName: displayName, ReserveMarked: true}
	return r.WithEntries(roster.Reserves, append(r.Reserves, e)), JoinedReserve, nil
}

// Cancel removes personKey from the one section that holds it. When a
// main-list player leaves while reserves wait, the reserves are left as
// they are and vacated is true: promotion needs the reserve's consent.
func Cancel(r roster.Roster, personKey string) (out roster.Roster, outcome CancelOutcome, vacated bool) {
	section, idx, ok := r.Find(personKey)
	if !ok {
		return r, NotFound, false
	}

	entries := r.Entries(section)
	rest := make([]roster.Entry, 0, len(entries)-1)
	rest = append(rest, entries[:idx]...)
	rest = append(rest, entries[idx+1:]...)
	out = r.WithEntries(section, rest)

	if section == roster.Players && len(r.Reserves) > 0 {
		return out, CancelledWithPromotionPending, true
	}
	return out, Cancelled, false
}

// Promote moves the reserve at 0-based reserveIndex to the end of the
// main list without its reserve marker.
func Promote(r roster.Roster, reserveIndex int) (roster.Roster, bool) {
	if reserveIndex < 0 || reserveIndex >= len(r.Reserves) {
		return r, false
	}
	e := r.Reserves[reserveIndex]
	e.ReserveMarked = false

	rest := make([]roster.Entry, 0, len(r.Reserves)-1)
	rest = append(rest, r.Reserves[:reserveIndex]...)
	rest = append(rest, r.Reserves[reserveIndex+1:]...)

	out := r.WithEntries(roster.Reserves, rest)
	return out.WithEntries(roster.Players, append(out.Players, e)), true
}

// FindReserve returns the 0-based position of personKey in the reserve list.
func FindReserve(r roster.Roster, personKey string) int {
	for i, e := range r.Reserves {
		if e.Matches(personKey) {
			return i
		}
	}
	return -1
}
