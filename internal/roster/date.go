package roster

import (
	"regexp"
	"strings"
	"time"

	"training-roster-bot/internal/apperr"
)

const (
	DateLayout     = "02.01.2006"
	DateTimeLayout = "02.01.2006 15:04"
	marker         = "training"
)

var dateTokenRe = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})(?:\s+(\d{1,2}:\d{2}))?`)

// TrainingDate finds the first line containing the word "training" and
// returns the DD.MM.YYYY token that follows it, in loc. A HH:MM token
// right after the date is applied when present.
func TrainingDate(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, line := range splitLines(text) {
		lower := strings.ToLower(line)
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		m := dateTokenRe.FindStringSubmatch(lower[idx+len(marker):])
		if m == nil {
			continue
		}
		if m[2] != "" {
			if t, err := time.ParseInLocation(DateTimeLayout, m[1]+" "+zeroPadClock(m[2]), loc); err == nil {
				return t, nil
			}
		}
		t, err := time.ParseInLocation(DateLayout, m[1], loc)
		if err != nil {
			return time.Time{}, apperr.Validation("bad training date %q", m[1])
		}
		return t, nil
	}
	return time.Time{}, apperr.NotFound("no training date in message")
}

// DateKey is the directory and spreadsheet key for a training day.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// LooksLikeAnnouncement reports whether text has the shape of a roster
// announcement: a dated training marker and at least one section header.
func LooksLikeAnnouncement(text string) bool {
	if _, err := TrainingDate(text, time.UTC); err != nil {
		return false
	}
	for _, line := range splitLines(text) {
		if _, ok := headerOf(line); ok {
			return true
		}
	}
	return false
}

func zeroPadClock(s string) string {
	if len(s) == 4 {
		return "0" + s
	}
	return s
}
