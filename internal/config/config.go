package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"training-roster-bot/internal/logger"
)

type Config struct {
	TelegramToken  string
	TrainingChatID int64

	SpreadsheetID            string
	GoogleServiceAccountJSON string
	UsersSheet               string
	AttendanceSheet          string

	AdminTGIDs map[int64]bool

	StoragePath       string
	TemplatesSeedFile string

	OfferTTL  time.Duration
	PurgeCron string
	Location  *time.Location

	HTTPAddr      string
	BasePublicURL string
	OpsSecret     string

	LogLevel logger.Level
}

func FromEnv() (Config, error) {
	var c Config
	c.TelegramToken = env("TELEGRAM_BOT_TOKEN", "")
	c.SpreadsheetID = env("GOOGLE_SHEETS_SPREADSHEET_ID", "")
	c.GoogleServiceAccountJSON = env("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	c.UsersSheet = env("USERS_SHEET", "Users")
	c.AttendanceSheet = env("ATTENDANCE_SHEET", "Attendance")

	c.StoragePath = env("STORAGE_PATH", "data/bot.db")
	c.TemplatesSeedFile = env("TEMPLATES_SEED_FILE", "")
	c.PurgeCron = env("DIRECTORY_PURGE_CRON", "0 3 * * *")

	c.HTTPAddr = env("HTTP_ADDR", ":8080")
	c.BasePublicURL = strings.TrimRight(env("BASE_PUBLIC_URL", ""), "/")
	c.OpsSecret = env("OPS_SECRET", "change-me")
	c.LogLevel = logger.ParseLevel(env("LOG_LEVEL", "INFO"))

	if c.TelegramToken == "" {
		return c, fmt.Errorf("TELEGRAM_BOT_TOKEN is empty")
	}
	if c.SpreadsheetID == "" {
		return c, fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID is empty")
	}
	if c.GoogleServiceAccountJSON == "" {
		return c, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is empty")
	}

	rawChat := env("TRAINING_CHAT_ID", "")
	if rawChat == "" {
		return c, fmt.Errorf("TRAINING_CHAT_ID is empty")
	}
	chatID, err := strconv.ParseInt(rawChat, 10, 64)
	if err != nil {
		return c, fmt.Errorf("TRAINING_CHAT_ID: %w", err)
	}
	c.TrainingChatID = chatID

	c.OfferTTL, err = time.ParseDuration(env("PROMOTION_OFFER_TTL", "1h"))
	if err != nil {
		return c, fmt.Errorf("PROMOTION_OFFER_TTL: %w", err)
	}
	if c.OfferTTL <= 0 {
		return c, fmt.Errorf("PROMOTION_OFFER_TTL must be positive")
	}

	c.Location = time.Local
	if tz := env("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return c, fmt.Errorf("TIMEZONE: %w", err)
		}
		c.Location = loc
	}

	c.AdminTGIDs = parseAdminIDs(os.Getenv("ADMIN_TG_IDS"))

	return c, nil
}

// PublicURL is the base for links to the ops server.
func (c Config) PublicURL() string {
	if c.BasePublicURL != "" {
		return c.BasePublicURL
	}
	return "http://localhost" + c.HTTPAddr
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseAdminIDs(raw string) map[int64]bool {
	m := map[int64]bool{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		m[v] = true
	}
	return m
}
