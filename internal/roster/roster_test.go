package roster

import (
	"strings"
	"testing"
	"time"
)

const announcement = `Training 15.04.2025 19:30
Arena North, bring dark and light jerseys
Player limit: 2

Players:
1. Ivanov I.
2. Petrov P.
Reserve:
1. Sidorov S. (reserve)
Goalies:
1. Smirnov A.`

func TestParse(t *testing.T) {
	r := Parse(announcement)

	if r.PlayerLimit != 2 {
		t.Errorf("PlayerLimit = %d, want 2", r.PlayerLimit)
	}
	if len(r.Preamble) != 4 {
		t.Fatalf("Preamble has %d lines, want 4: %q", len(r.Preamble), r.Preamble)
	}
	if r.Preamble[2] != "Player limit: 2" || r.Preamble[3] != "" {
		t.Errorf("Preamble = %q", r.Preamble)
	}
	wantPlayers := []Entry{{DisplayName: "Ivanov I."}, {DisplayName: "Petrov P."}}
	if len(r.Players) != 2 || r.Players[0] != wantPlayers[0] || r.Players[1] != wantPlayers[1] {
		t.Errorf("Players = %+v, want %+v", r.Players, wantPlayers)
	}
	if len(r.Reserves) != 1 || r.Reserves[0] != (Entry{DisplayName: "Sidorov S.", ReserveMarked: true}) {
		t.Errorf("Reserves = %+v", r.Reserves)
	}
	if len(r.Goalies) != 1 || r.Goalies[0].DisplayName != "Smirnov A." {
		t.Errorf("Goalies = %+v", r.Goalies)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"full roster", announcement},
		{"fresh announcement", Serialize(New("Training 01.05.2025 20:00\nRink", 0))},
		{"empty sections", "Training 01.05.2025\nPlayer limit: 10\n\nPlayers:\nReserve:\nGoalies:"},
		{"custom section order", "Training 01.05.2025\nPlayers:\n1. A\nGoalies:\n1. B\nReserve:"},
		{"text under a section", "Training 01.05.2025\nPlayers:\n1. A\nsee you there\nReserve:\nGoalies:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Serialize(Parse(tt.text))
			if got != tt.text {
				t.Errorf("Serialize(Parse(t)) =\n%s\nwant\n%s", got, tt.text)
			}
		})
	}
}

func TestParseSerializeStructuralRoundTrip(t *testing.T) {
	r := New("Training 10.10.2025 18:00\nDetails", 3)
	r.Players = []Entry{{DisplayName: "A"}, {DisplayName: "B"}, {DisplayName: "C"}}
	r.Reserves = []Entry{{DisplayName: "D", ReserveMarked: true}}
	r.Goalies = []Entry{{DisplayName: "E"}}

	back := Parse(Serialize(r))
	if !Equal(r, back) {
		t.Errorf("Parse(Serialize(r)) = %+v, want %+v", back, r)
	}

	empty := New("Training 10.10.2025 18:00", 0)
	empty.Players = []Entry{}
	if !Equal(empty, Parse(Serialize(empty))) {
		t.Errorf("round trip of an empty roster is not equal")
	}
}

func TestSerializeRenumbers(t *testing.T) {
	text := "Training 01.05.2025\nPlayers:\n3. A\n7. B\nReserve:\n2. C (reserve)\nGoalies:"
	want := "Training 01.05.2025\nPlayers:\n1. A\n2. B\nReserve:\n1. C (reserve)\nGoalies:"
	if got := Serialize(Parse(text)); got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestParseEdgeCases(t *testing.T) {
	t.Run("numbered line before any header is preamble", func(t *testing.T) {
		r := Parse("Training 01.05.2025\n1. Warm-up at 19:00\nPlayers:\n1. A")
		if len(r.Players) != 1 {
			t.Errorf("Players = %+v, want one entry", r.Players)
		}
		if r.Preamble[1] != "1. Warm-up at 19:00" {
			t.Errorf("Preamble = %q", r.Preamble)
		}
	})

	t.Run("missing sections are appended on output", func(t *testing.T) {
		got := Serialize(Parse("Training 01.05.2025\nPlayers:\n1. A"))
		want := "Training 01.05.2025\nPlayers:\n1. A\nReserve:\nGoalies:"
		if got != want {
			t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("double-digit entries", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("Training 01.05.2025\nPlayers:")
		for i := 1; i <= 12; i++ {
			b.WriteString("\n")
			b.WriteString(Entry{DisplayName: string(rune('A' + i))}.Line(i))
		}
		if n := len(Parse(b.String()).Players); n != 12 {
			t.Errorf("parsed %d players, want 12", n)
		}
	})
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plain", "Player limit: 14", 14},
		{"lower case", "player limit:3", 3},
		{"absent", "Training 01.05.2025", 0},
		{"not a number", "Player limit: many", 0},
		{"negative", "Player limit: -4", 0},
		{"first wins", "Player limit: 5\nPlayer limit: 9", 5},
		{"label in prose", "The player limit is strict\nPlayer limit: 2", 2},
		{"prose only", "The player limit is strict", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.text).PlayerLimit; got != tt.want {
				t.Errorf("PlayerLimit = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRoundTripWithLimitInProse(t *testing.T) {
	built := New("Training 15.04.2025 19:30\nThe player limit is strict, goalies are free", 2)
	got := Parse(Serialize(built))
	if got.PlayerLimit != 2 {
		t.Fatalf("PlayerLimit = %d, want 2", got.PlayerLimit)
	}
	if !Equal(got, built) {
		t.Errorf("Parse(Serialize(New(...))) differs from the built roster")
	}
}

func TestEntryMatches(t *testing.T) {
	e := Entry{DisplayName: "Ivanov Ivan", ReserveMarked: true}
	if !e.Matches("Ivanov Ivan") {
		t.Errorf("exact key should match")
	}
	if !e.Matches("Ivanov") {
		t.Errorf("prefix key matches by substring")
	}
	if e.Matches("") {
		t.Errorf("empty key must not match")
	}
	if e.Line(2) != "2. Ivanov Ivan (reserve)" {
		t.Errorf("Line() = %q", e.Line(2))
	}
}

func TestTrainingDate(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name    string
		text    string
		want    time.Time
		wantErr bool
	}{
		{"date and time", "Training 15.04.2025 19:30\nArena", time.Date(2025, 4, 15, 19, 30, 0, 0, loc), false},
		{"date only", "Ice time\nNext training: 01.12.2025", time.Date(2025, 12, 1, 0, 0, 0, 0, loc), false},
		{"upper case marker", "TRAINING 02.03.2026 7:05", time.Date(2026, 3, 2, 7, 5, 0, 0, loc), false},
		{"no marker", "Match 15.04.2025", time.Time{}, true},
		{"impossible date", "Training 31.02.2025", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TrainingDate(tt.text, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TrainingDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("TrainingDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLooksLikeAnnouncement(t *testing.T) {
	if !LooksLikeAnnouncement(announcement) {
		t.Errorf("announcement not recognised")
	}
	if LooksLikeAnnouncement("Training 15.04.2025 is moved, details later") {
		t.Errorf("plain chat message recognised as announcement")
	}
	if DateKey(time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)) != "05.04.2025" {
		t.Errorf("DateKey() layout changed")
	}
}
