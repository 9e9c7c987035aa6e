package sheets

import (
	"context"
	"strconv"
	"strings"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/models"
	"training-roster-bot/internal/roster"
	"training-roster-bot/internal/util"
)

// ---------- Users ----------
// user_id | telegram_name | full_name | message | registration_date | is_admin

func (c *Client) GetUserRecord(ctx context.Context, userID int64) (*models.Person, error) {
	values, err := c.readAll(ctx, c.usersSheet)
	if err != nil {
		return nil, apperr.Persistence("read users", err)
	}
	id := strconv.FormatInt(userID, 10)
	for i := 1; i < len(values); i++ {
		if get(values[i], 0) == id {
			p, ok := parsePerson(values[i])
			if ok {
				return &p, nil
			}
		}
	}
	return nil, nil
}

func (c *Client) IsUserExists(ctx context.Context, userID int64) (bool, error) {
	p, err := c.GetUserRecord(ctx, userID)
	return p != nil, err
}

// AddRecord registers p. Registering twice is a duplicate.
func (c *Client) AddRecord(ctx context.Context, p models.Person) error {
	exists, err := c.IsUserExists(ctx, p.UserID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Duplicate("you are already registered")
	}
	if p.RegistrationDate == "" {
		p.RegistrationDate = util.NowISO()
	}
	admin := ""
	if p.IsAdmin {
		admin = "TRUE"
	}
	err = c.appendRow(ctx, c.usersSheet, []interface{}{
		strconv.FormatInt(p.UserID, 10), p.TelegramName, p.FullName, p.Message, p.RegistrationDate, admin,
	})
	return apperr.Persistence("add user", err)
}

func (c *Client) ListUsers(ctx context.Context) ([]models.Person, error) {
	values, err := c.readAll(ctx, c.usersSheet)
	if err != nil {
		return nil, apperr.Persistence("read users", err)
	}
	out := []models.Person{}
	for i := 1; i < len(values); i++ {
		if p, ok := parsePerson(values[i]); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindPersonIDByDisplayName maps a roster entry back to its user. The
// reserve marker is ignored.
func (c *Client) FindPersonIDByDisplayName(ctx context.Context, name string) (int64, bool, error) {
	values, err := c.readAll(ctx, c.usersSheet)
	if err != nil {
		return 0, false, apperr.Persistence("read users", err)
	}
	id, ok := personIDByName(values, name)
	return id, ok, nil
}

func personIDByName(values [][]interface{}, name string) (int64, bool) {
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), roster.ReserveSuffix))
	if name == "" {
		return 0, false
	}
	for i := 1; i < len(values); i++ {
		p, ok := parsePerson(values[i])
		if ok && strings.TrimSpace(p.Message) == name {
			return p.UserID, true
		}
	}
	return 0, false
}

func parsePerson(row []interface{}) (models.Person, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(get(row, 0)), 10, 64)
	if err != nil {
		return models.Person{}, false
	}
	return models.Person{
		UserID:           id,
		TelegramName:     get(row, 1),
		FullName:         get(row, 2),
		Message:          get(row, 3),
		RegistrationDate: get(row, 4),
		IsAdmin:          util.NormalizeBool(get(row, 5)),
	}, true
}
