package apperr

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapKeepsBothCauses(t *testing.T) {
	cause := errors.New("message to edit not found")
	err := Transport("edit", cause)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("errors.Is(err, ErrTransport) = false")
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false")
	}
	if Transport("edit", nil) != nil {
		t.Errorf("Transport(nil) should be nil")
	}
}

func TestReply(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantText  string
		wantRetry bool
	}{
		{"validation", Validation("date must be in the future"), "date must be in the future", true},
		{"not found", NotFound("template %q", "summer"), `template "summer"`, false},
		{"duplicate", Duplicate("already signed up"), "already signed up", false},
		{"transport", Transport("edit", errors.New("boom")), "Something went wrong", false},
		{"persistence", Persistence("append", errors.New("quota")), "Something went wrong", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, retry := Reply(tt.err)
			if !strings.Contains(text, tt.wantText) {
				t.Errorf("Reply() text = %q, want it to contain %q", text, tt.wantText)
			}
			if strings.Contains(text, "validation:") || strings.Contains(text, "not found:") {
				t.Errorf("Reply() leaked taxonomy prefix: %q", text)
			}
			if retry != tt.wantRetry {
				t.Errorf("Reply() retry = %v, want %v", retry, tt.wantRetry)
			}
		})
	}
}
