package models

import "fmt"

// Person is one row of the Users sheet. Message is the display text the
// person chose at registration; it is what appears in roster lines.
type Person struct {
	UserID           int64
	TelegramName     string
	FullName         string
	Message          string
	RegistrationDate string
	IsAdmin          bool
}

type Role string

const (
	RolePlayer Role = "player"
	RoleGoalie Role = "goalie"
)

// MessageRef addresses one chat message.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

func (r MessageRef) String() string {
	return fmt.Sprintf("%d/%d", r.ChatID, r.MessageID)
}

type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, one slice per row.
type Keyboard [][]Button

// Callback data carried by the buttons under a training announcement.
const (
	DataJoinPlayer = "train:player"
	DataJoinGoalie = "train:goalie"
	DataCancel     = "train:cancel"
)

// SignupKeyboard is attached to every training announcement and must be
// re-attached on every edit.
func SignupKeyboard() Keyboard {
	return Keyboard{
		{{Text: "Player", Data: DataJoinPlayer}, {Text: "Goalie", Data: DataJoinGoalie}},
		{{Text: "❌ Cancel sign-up", Data: DataCancel}},
	}
}
