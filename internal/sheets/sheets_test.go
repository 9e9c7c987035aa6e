package sheets

import (
	"reflect"
	"testing"

	"training-roster-bot/internal/models"
)

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for idx, want := range tests {
		if got := columnLetter(idx); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", idx, got, want)
		}
	}
}

func TestQuote(t *testing.T) {
	if got := quote("Attendance"); got != "'Attendance'" {
		t.Errorf("quote() = %q", got)
	}
	if got := quote("Bob's"); got != "'Bob''s'" {
		t.Errorf("quote() = %q", got)
	}
}

func TestAttendanceMark(t *testing.T) {
	tests := []struct {
		present bool
		role    models.Role
		want    string
	}{
		{true, models.RolePlayer, "1"},
		{true, models.RoleGoalie, "G"},
		{false, models.RolePlayer, ""},
		{false, models.RoleGoalie, ""},
	}
	for _, tt := range tests {
		if got := attendanceMark(tt.present, tt.role); got != tt.want {
			t.Errorf("attendanceMark(%v, %s) = %q, want %q", tt.present, tt.role, got, tt.want)
		}
	}
}

var sheet = [][]interface{}{
	{"Name", "Total", "01.04.2025", "08.04.2025", "15.04.2025"},
	{"Ivanov I.", "2", "1", "", "1"},
	{"Petrov P.", "1", "", "G"},
	{},
	{"Sidorov S."},
}

func TestFindColumnAndRow(t *testing.T) {
	if got := findColumn(sheet[0], "08.04.2025"); got != 3 {
		t.Errorf("findColumn() = %d, want 3", got)
	}
	if got := findColumn(sheet[0], "22.04.2025"); got != -1 {
		t.Errorf("findColumn(missing) = %d", got)
	}
	if got := findRow(sheet, "Petrov P."); got != 3 {
		t.Errorf("findRow() = %d, want 3", got)
	}
	if got := findRow(sheet, "Name"); got != 0 {
		t.Errorf("findRow() matched the header row")
	}
}

func TestRecountTotals(t *testing.T) {
	want := [][]interface{}{{2}, {1}, {0}, {0}}
	if got := recountTotals(sheet); !reflect.DeepEqual(got, want) {
		t.Errorf("recountTotals() = %v, want %v", got, want)
	}
}

func TestPersonIDByName(t *testing.T) {
	users := [][]interface{}{
		usersHeader,
		{"11", "ivan", "Ivan Ivanov", "Ivanov I.", "2025-01-01", ""},
		{"22", "petr", "Petr Petrov", "Petrov P.", "2025-01-02", "TRUE"},
		{"oops", "", "", "Broken B."},
	}
	tests := []struct {
		name   string
		wantID int64
		wantOK bool
	}{
		{"Ivanov I.", 11, true},
		{"Petrov P. (reserve)", 22, true},
		{"  Petrov P.  ", 22, true},
		{"Petrov", 0, false},
		{"Broken B.", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		id, ok := personIDByName(users, tt.name)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("personIDByName(%q) = %d, %v; want %d, %v", tt.name, id, ok, tt.wantID, tt.wantOK)
		}
	}

	p, ok := parsePerson(users[2])
	if !ok || !p.IsAdmin || p.FullName != "Petr Petrov" {
		t.Errorf("parsePerson() = %+v, %v", p, ok)
	}
}
