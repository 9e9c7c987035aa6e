package roster

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	entryRe = regexp.MustCompile(`^\d+\.`)
	limitRe = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(LimitLabel) + `\s*:\s*(-?\d+)`)
)

// Parse decodes an announcement. It never fails: unknown lines become
// preamble or section tails, and a missing or broken limit reads as 0.
func Parse(text string) Roster {
	var r Roster
	current := Section(-1)
	seen := [3]bool{}

	for _, line := range splitLines(text) {
		if s, ok := headerOf(line); ok && !seen[s] {
			seen[s] = true
			current = s
			r.order = append(r.order, s)
			continue
		}
		if current < 0 {
			r.Preamble = append(r.Preamble, line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		if loc := entryRe.FindStringIndex(trimmed); loc != nil {
			r = appendEntry(r, current, parseEntry(trimmed[loc[1]:], current))
			continue
		}
		r.tails[current] = append(r.tails[current], line)
	}

	r.PlayerLimit = parseLimit(text)
	return r
}

func headerOf(line string) (Section, bool) {
	switch strings.TrimSpace(line) {
	case HeaderPlayers:
		return Players, true
	case HeaderReserves:
		return Reserves, true
	case HeaderGoalies:
		return Goalies, true
	}
	return 0, false
}

func parseEntry(rest string, s Section) Entry {
	name := strings.TrimSpace(rest)
	if s == Reserves && strings.HasSuffix(name, ReserveSuffix) {
		return Entry{DisplayName: strings.TrimSuffix(name, ReserveSuffix), ReserveMarked: true}
	}
	return Entry{DisplayName: name}
}

func appendEntry(r Roster, s Section, e Entry) Roster {
	switch s {
	case Players:
		r.Players = append(r.Players, e)
	case Reserves:
		r.Reserves = append(r.Reserves, e)
	case Goalies:
		r.Goalies = append(r.Goalies, e)
	}
	return r
}

// parseLimit takes the first line carrying "Player limit: <int>". Lines
// that only mention the label in prose are skipped.
func parseLimit(text string) int {
	for _, line := range splitLines(text) {
		m := limitRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}
