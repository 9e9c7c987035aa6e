// Package roster owns the text layout of a training announcement.
//
// A roster lives only inside the text of one chat message:
//
//	<template body lines...>
//	Player limit: <int>
//
//	Players:
//	1. <name>
//	Reserve:
//	1. <name> (reserve)
//	Goalies:
//	1. <name>
//
// Parse decodes that text into a Roster and Serialize writes it back.
// Numbering is never stored; it is derived from position on output.
package roster

import (
	"fmt"
	"strings"
)

// Wire strings. Messages already posted in the chat depend on these,
// so they must not change.
const (
	HeaderPlayers  = "Players:"
	HeaderReserves = "Reserve:"
	HeaderGoalies  = "Goalies:"
	ReserveSuffix  = " (reserve)"
	LimitLabel     = "Player limit"
)

type Section int

const (
	Players Section = iota
	Reserves
	Goalies
)

var canonicalOrder = []Section{Players, Reserves, Goalies}

func (s Section) Header() string {
	switch s {
	case Players:
		return HeaderPlayers
	case Reserves:
		return HeaderReserves
	case Goalies:
		return HeaderGoalies
	}
	return ""
}

func (s Section) String() string {
	switch s {
	case Players:
		return "players"
	case Reserves:
		return "reserves"
	case Goalies:
		return "goalies"
	}
	return "unknown"
}

// Entry is one participant line without its number.
type Entry struct {
	DisplayName   string
	ReserveMarked bool
}

// Text is the entry as printed after "N. ".
func (e Entry) Text() string {
	if e.ReserveMarked {
		return e.DisplayName + ReserveSuffix
	}
	return e.DisplayName
}

// Line renders the entry at 1-based position n.
func (e Entry) Line(n int) string {
	return fmt.Sprintf("%d. %s", n, e.Text())
}

// Matches reports whether personKey identifies this entry. Identity is
// substring containment of the registered display text in the printed
// line, so "Ivanov I." also matches "Ivanov Iv.".
func (e Entry) Matches(personKey string) bool {
	if personKey == "" {
		return false
	}
	return strings.Contains(e.Text(), personKey)
}

type Roster struct {
	// Preamble holds every line before the first section header,
	// including the limit line, verbatim.
	Preamble    []string
	PlayerLimit int

	Players  []Entry
	Reserves []Entry
	Goalies  []Entry

	// order lists sections in the order their headers appeared.
	order []Section
	// tails holds non-entry lines found under a section header. They are
	// written back after that section's entries.
	tails [3][]string
}

// New builds the text of a fresh announcement: the template body, the
// limit line, a blank line and three empty sections.
func New(body string, playerLimit int) Roster {
	if playerLimit < 0 {
		playerLimit = 0
	}
	pre := splitLines(strings.TrimRight(body, "\n"))
	pre = append(pre, fmt.Sprintf("%s: %d", LimitLabel, playerLimit), "")
	return Roster{
		Preamble:    pre,
		PlayerLimit: playerLimit,
		order:       append([]Section(nil), canonicalOrder...),
	}
}

// Entries returns the sequence for s.
func (r Roster) Entries(s Section) []Entry {
	switch s {
	case Players:
		return r.Players
	case Reserves:
		return r.Reserves
	case Goalies:
		return r.Goalies
	}
	return nil
}

// WithEntries returns a copy of r where the sequence for s is entries.
func (r Roster) WithEntries(s Section, entries []Entry) Roster {
	out := r.Clone()
	cp := append([]Entry(nil), entries...)
	switch s {
	case Players:
		out.Players = cp
	case Reserves:
		out.Reserves = cp
	case Goalies:
		out.Goalies = cp
	}
	return out
}

// Clone returns a deep copy; mutating the copy never touches r.
func (r Roster) Clone() Roster {
	out := r
	out.Preamble = append([]string(nil), r.Preamble...)
	out.Players = append([]Entry(nil), r.Players...)
	out.Reserves = append([]Entry(nil), r.Reserves...)
	out.Goalies = append([]Entry(nil), r.Goalies...)
	out.order = append([]Section(nil), r.order...)
	for i := range r.tails {
		out.tails[i] = append([]string(nil), r.tails[i]...)
	}
	return out
}

// Find returns the section and 0-based position of the first entry that
// matches personKey, searching players, reserves, goalies in that order.
func (r Roster) Find(personKey string) (Section, int, bool) {
	for _, s := range canonicalOrder {
		for i, e := range r.Entries(s) {
			if e.Matches(personKey) {
				return s, i, true
			}
		}
	}
	return 0, -1, false
}

// Equal reports structural equality. Nil and empty sequences are equal.
func Equal(a, b Roster) bool {
	if a.PlayerLimit != b.PlayerLimit {
		return false
	}
	if !equalStrings(a.Preamble, b.Preamble) {
		return false
	}
	for _, s := range canonicalOrder {
		ea, eb := a.Entries(s), b.Entries(s)
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if ea[i] != eb[i] {
				return false
			}
		}
		if !equalStrings(a.tails[s], b.tails[s]) {
			return false
		}
	}
	oa, ob := a.sectionOrder(), b.sectionOrder()
	if len(oa) != len(ob) {
		return false
	}
	for i := range oa {
		if oa[i] != ob[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
