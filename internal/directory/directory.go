// Package directory indexes which chat messages announce which training
// day. It is process-local and rebuildable from chat history; the
// messages themselves stay the source of truth.
package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/models"
	"training-roster-bot/internal/roster"
)

type Entry struct {
	DateKey string            `json:"date"`
	Ref     models.MessageRef `json:"ref"`
	Text    string            `json:"text"`
}

// Deleter removes a chat message. The Telegram transport implements it.
type Deleter interface {
	Delete(ctx context.Context, ref models.MessageRef) error
}

type Directory struct {
	mu      sync.Mutex
	buckets map[string][]Entry
	loc     *time.Location
}

func New(loc *time.Location) *Directory {
	if loc == nil {
		loc = time.Local
	}
	return &Directory{buckets: map[string][]Entry{}, loc: loc}
}

// Record adds e to its date bucket. A second record for the same message
// replaces the stored text.
func (d *Directory) Record(e Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bucket := d.buckets[e.DateKey]
	for i := range bucket {
		if bucket[i].Ref == e.Ref {
			bucket[i].Text = e.Text
			return
		}
	}
	d.buckets[e.DateKey] = append(bucket, e)
}

// Observe records text if it has the shape of a roster announcement.
func (d *Directory) Observe(ref models.MessageRef, text string) bool {
	if !roster.LooksLikeAnnouncement(text) {
		return false
	}
	date, err := roster.TrainingDate(text, d.loc)
	if err != nil {
		return false
	}
	d.Record(Entry{DateKey: roster.DateKey(date), Ref: ref, Text: text})
	return true
}

// Lookup returns the latest known text of ref.
func (d *Directory) Lookup(ref models.MessageRef) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, bucket := range d.buckets {
		for _, e := range bucket {
			if e.Ref == ref {
				return e.Text, true
			}
		}
	}
	return "", false
}

// UpdateText stores text as the latest rendering of ref. Unknown
// messages are recorded when the text carries a training date.
func (d *Directory) UpdateText(ref models.MessageRef, text string) {
	d.mu.Lock()
	for _, bucket := range d.buckets {
		for i := range bucket {
			if bucket[i].Ref == ref {
				bucket[i].Text = text
				d.mu.Unlock()
				return
			}
		}
	}
	d.mu.Unlock()
	d.Observe(ref, text)
}

// Entries returns a copy of the bucket for dateKey.
func (d *Directory) Entries(dateKey string) []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Entry(nil), d.buckets[dateKey]...)
}

// PurgeExpired drops every bucket dated before today and returns how many
// buckets went away. Keys that do not parse are left alone.
func (d *Directory) PurgeExpired(today time.Time) int {
	y, m, dd := today.In(d.loc).Date()
	cutoff := time.Date(y, m, dd, 0, 0, 0, 0, d.loc)

	d.mu.Lock()
	defer d.mu.Unlock()
	purged := 0
	for key := range d.buckets {
		date, err := time.ParseInLocation(roster.DateLayout, key, d.loc)
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			delete(d.buckets, key)
			purged++
		}
	}
	return purged
}

// CancelDate asks del to remove every message recorded for dateKey and
// then drops the bucket whatever the individual results were. It returns
// the number of successful deletions, the bucket size and the refs that
// were in it.
func (d *Directory) CancelDate(ctx context.Context, dateKey string, del Deleter) (deleted, total int, refs []models.MessageRef) {
	d.mu.Lock()
	bucket := d.buckets[dateKey]
	delete(d.buckets, dateKey)
	d.mu.Unlock()

	for _, e := range bucket {
		refs = append(refs, e.Ref)
		if err := del.Delete(ctx, e.Ref); err != nil {
			logger.Warn("directory: delete %s for %s: %v", e.Ref, dateKey, err)
			continue
		}
		deleted++
	}
	return deleted, len(bucket), refs
}

// Snapshot returns all entries ordered by training day, then message id.
func (d *Directory) Snapshot() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Entry
	for _, bucket := range d.buckets {
		out = append(out, bucket...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateKey != out[j].DateKey {
			ti, ei := time.Parse(roster.DateLayout, out[i].DateKey)
			tj, ej := time.Parse(roster.DateLayout, out[j].DateKey)
			if ei != nil || ej != nil {
				return out[i].DateKey < out[j].DateKey
			}
			return ti.Before(tj)
		}
		return out[i].Ref.MessageID < out[j].Ref.MessageID
	})
	return out
}
