package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

func NowISO() string {
	return time.Now().Format(time.RFC3339)
}

// NormalizeBool reads the yes/no cells people type into spreadsheets.
func NormalizeBool(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "yes", "true", "1", "y", "да":
		return true
	default:
		return false
	}
}

func HMACSHA256Hex(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// CheckHMAC compares token with the HMAC of msg in constant time.
func CheckHMAC(secret, msg, token string) bool {
	want := HMACSHA256Hex(secret, msg)
	return hmac.Equal([]byte(want), []byte(token))
}
