package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"training-roster-bot/internal/logger"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", " token ")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "/secrets/sa.json")
	t.Setenv("TRAINING_CHAT_ID", "-100123")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"USERS_SHEET", "ATTENDANCE_SHEET", "STORAGE_PATH", "PROMOTION_OFFER_TTL",
		"DIRECTORY_PURGE_CRON", "HTTP_ADDR", "OPS_SECRET", "LOG_LEVEL", "TIMEZONE", "ADMIN_TG_IDS", "BASE_PUBLIC_URL"} {
		t.Setenv(k, "")
	}

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if c.TelegramToken != "token" || c.TrainingChatID != -100123 {
		t.Errorf("token/chat = %q/%d", c.TelegramToken, c.TrainingChatID)
	}
	if c.UsersSheet != "Users" || c.AttendanceSheet != "Attendance" || c.StoragePath != "data/bot.db" {
		t.Errorf("sheet/storage defaults = %+v", c)
	}
	if c.OfferTTL != time.Hour || c.PurgeCron != "0 3 * * *" || c.HTTPAddr != ":8080" || c.OpsSecret != "change-me" {
		t.Errorf("runtime defaults = %+v", c)
	}
	if c.LogLevel != logger.InfoLevel || c.Location != time.Local || len(c.AdminTGIDs) != 0 {
		t.Errorf("level/location/admins = %v/%v/%v", c.LogLevel, c.Location, c.AdminTGIDs)
	}
	if c.PublicURL() != "http://localhost:8080" {
		t.Errorf("PublicURL() = %q", c.PublicURL())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PROMOTION_OFFER_TTL", "30m")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ADMIN_TG_IDS", "1, 2,,x,3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BASE_PUBLIC_URL", "https://bot.example.com/")

	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.OfferTTL != 30*time.Minute || c.Location != time.UTC || c.LogLevel != logger.DebugLevel {
		t.Errorf("overrides = %v %v %v", c.OfferTTL, c.Location, c.LogLevel)
	}
	if want := map[int64]bool{1: true, 2: true, 3: true}; !reflect.DeepEqual(c.AdminTGIDs, want) {
		t.Errorf("AdminTGIDs = %v", c.AdminTGIDs)
	}
	if c.PublicURL() != "https://bot.example.com" {
		t.Errorf("PublicURL() = %q", c.PublicURL())
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"TELEGRAM_BOT_TOKEN", "", "TELEGRAM_BOT_TOKEN"},
		{"GOOGLE_SHEETS_SPREADSHEET_ID", " ", "GOOGLE_SHEETS_SPREADSHEET_ID"},
		{"TRAINING_CHAT_ID", "", "TRAINING_CHAT_ID"},
		{"TRAINING_CHAT_ID", "chat", "TRAINING_CHAT_ID"},
		{"PROMOTION_OFFER_TTL", "soon", "PROMOTION_OFFER_TTL"},
		{"PROMOTION_OFFER_TTL", "-1m", "PROMOTION_OFFER_TTL"},
		{"TIMEZONE", "Mars/Olympus", "TIMEZONE"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("FromEnv() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
