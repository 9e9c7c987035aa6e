package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"training-roster-bot/internal/models"
	"training-roster-bot/internal/roster"
)

type fakeDeleter struct {
	fail    map[int]bool
	deleted []models.MessageRef
}

func (f *fakeDeleter) Delete(ctx context.Context, ref models.MessageRef) error {
	if f.fail[ref.MessageID] {
		return errors.New("message can't be deleted")
	}
	f.deleted = append(f.deleted, ref)
	return nil
}

func ref(id int) models.MessageRef { return models.MessageRef{ChatID: -100, MessageID: id} }

func TestRecordDedup(t *testing.T) {
	d := New(time.UTC)
	d.Record(Entry{DateKey: "15.04.2025", Ref: ref(1), Text: "v1"})
	d.Record(Entry{DateKey: "15.04.2025", Ref: ref(1), Text: "v2"})
	d.Record(Entry{DateKey: "15.04.2025", Ref: ref(2), Text: "other"})

	entries := d.Entries("15.04.2025")
	if len(entries) != 2 {
		t.Fatalf("bucket has %d entries, want 2", len(entries))
	}
	if text, ok := d.Lookup(ref(1)); !ok || text != "v2" {
		t.Errorf("Lookup() = %q, %v; want v2, true", text, ok)
	}
}

func TestObserveAndUpdateText(t *testing.T) {
	d := New(time.UTC)
	text := roster.Serialize(roster.New("Training 15.04.2025 19:30", 10))

	if d.Observe(ref(1), "Training 15.04.2025 was great, thanks all") {
		t.Errorf("chat message without sections was recorded")
	}
	if !d.Observe(ref(1), text) {
		t.Fatalf("announcement not recorded")
	}
	d.UpdateText(ref(1), text+"\n1. late line")
	if got, _ := d.Lookup(ref(1)); got != text+"\n1. late line" {
		t.Errorf("Lookup() after UpdateText = %q", got)
	}

	d.UpdateText(ref(7), text)
	if len(d.Entries("15.04.2025")) != 2 {
		t.Errorf("UpdateText of unknown announcement was not recorded")
	}
}

func TestPurgeExpired(t *testing.T) {
	d := New(time.UTC)
	d.Record(Entry{DateKey: "14.04.2025", Ref: ref(1)})
	d.Record(Entry{DateKey: "15.04.2025", Ref: ref(2)})
	d.Record(Entry{DateKey: "20.04.2025", Ref: ref(3)})
	d.Record(Entry{DateKey: "garbage", Ref: ref(4)})

	today := time.Date(2025, 4, 15, 23, 0, 0, 0, time.UTC)
	if n := d.PurgeExpired(today); n != 1 {
		t.Errorf("PurgeExpired() = %d, want 1", n)
	}
	if len(d.Entries("14.04.2025")) != 0 {
		t.Errorf("past bucket survived")
	}
	if len(d.Entries("15.04.2025")) != 1 || len(d.Entries("20.04.2025")) != 1 {
		t.Errorf("today or future bucket purged")
	}
}

func TestCancelDateIsBestEffort(t *testing.T) {
	d := New(time.UTC)
	for i := 1; i <= 3; i++ {
		d.Record(Entry{DateKey: "20.04.2025", Ref: ref(i)})
	}
	d.Record(Entry{DateKey: "21.04.2025", Ref: ref(9)})

	del := &fakeDeleter{fail: map[int]bool{2: true}}
	deleted, total, refs := d.CancelDate(context.Background(), "20.04.2025", del)

	if deleted != 2 || total != 3 {
		t.Errorf("CancelDate() = %d of %d, want 2 of 3", deleted, total)
	}
	if len(refs) != 3 || len(del.deleted) != 2 {
		t.Errorf("refs = %v, deleted = %v", refs, del.deleted)
	}
	if len(d.Entries("20.04.2025")) != 0 {
		t.Errorf("bucket kept after cancel")
	}
	if len(d.Entries("21.04.2025")) != 1 {
		t.Errorf("other date touched")
	}
}

func TestSnapshotOrder(t *testing.T) {
	d := New(time.UTC)
	d.Record(Entry{DateKey: "21.04.2025", Ref: ref(5)})
	d.Record(Entry{DateKey: "20.04.2025", Ref: ref(9)})
	d.Record(Entry{DateKey: "20.04.2025", Ref: ref(3)})

	snap := d.Snapshot()
	want := []int{3, 9, 5}
	for i, e := range snap {
		if e.Ref.MessageID != want[i] {
			t.Fatalf("Snapshot() order = %+v", snap)
		}
	}
}

func TestJanitorRejectsBadSpec(t *testing.T) {
	if _, err := NewJanitor(New(time.UTC), "every day please", nil); err == nil {
		t.Errorf("NewJanitor() accepted a bad cron spec")
	}
	j, err := NewJanitor(New(time.UTC), "0 3 * * *", nil)
	if err != nil {
		t.Fatalf("NewJanitor() error = %v", err)
	}
	j.Start()
	j.Stop()
}

func TestSnapshotOrdersAcrossMonths(t *testing.T) {
	d := New(time.UTC)
	d.Record(Entry{DateKey: "02.05.2025", Ref: ref(1)})
	d.Record(Entry{DateKey: "30.04.2025", Ref: ref(2)})

	snap := d.Snapshot()
	if snap[0].DateKey != "30.04.2025" {
		t.Errorf("Snapshot()[0] = %s, want 30.04.2025", snap[0].DateKey)
	}
}
