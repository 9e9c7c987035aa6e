package server

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"training-roster-bot/internal/config"
	"training-roster-bot/internal/directory"
	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/roster"
	"training-roster-bot/internal/util"
)

// Directory is the part of the training directory the ops pages read.
type Directory interface {
	Snapshot() []directory.Entry
	Entries(dateKey string) []directory.Entry
}

const directoryPurpose = "directory"

func exportPurpose(date string) string { return "export:" + date }

// DirectoryURL is the signed link to the directory snapshot.
func DirectoryURL(cfg config.Config) string {
	return cfg.PublicURL() + "/directory?token=" + util.HMACSHA256Hex(cfg.OpsSecret, directoryPurpose)
}

// ExportURL is the signed link to the roster CSV of one training day.
func ExportURL(cfg config.Config, date string) string {
	q := url.Values{}
	q.Set("date", date)
	q.Set("token", util.HMACSHA256Hex(cfg.OpsSecret, exportPurpose(date)))
	return cfg.PublicURL() + "/export/roster.csv?" + q.Encode()
}

func New(cfg config.Config, dir Directory) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	// Directory snapshot (admin link with token = HMAC)
	mux.HandleFunc("/directory", func(w http.ResponseWriter, r *http.Request) {
		if !util.CheckHMAC(cfg.OpsSecret, directoryPurpose, r.URL.Query().Get("token")) {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"entries": dir.Snapshot(),
			"ts":      util.NowISO(),
		})
	})

	// CSV export of every roster posted for a day
	mux.HandleFunc("/export/roster.csv", func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		token := r.URL.Query().Get("token")
		if date == "" || token == "" {
			http.Error(w, "date and token required", http.StatusBadRequest)
			return
		}
		if _, err := time.Parse(roster.DateLayout, date); err != nil {
			http.Error(w, "date must be DD.MM.YYYY", http.StatusBadRequest)
			return
		}
		if !util.CheckHMAC(cfg.OpsSecret, exportPurpose(date), token) {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="roster_`+date+`.csv"`)
		if err := writeRosterCSV(w, dir.Entries(date)); err != nil {
			logger.Error("server: export %s: %v", date, err)
		}
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func writeRosterCSV(w io.Writer, entries []directory.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"chat_id", "message_id", "section", "index", "name"}); err != nil {
		return err
	}
	for _, e := range entries {
		r := roster.Parse(e.Text)
		for _, s := range []roster.Section{roster.Players, roster.Reserves, roster.Goalies} {
			for i, entry := range r.Entries(s) {
				err := cw.Write([]string{
					strconv.FormatInt(e.Ref.ChatID, 10),
					strconv.Itoa(e.Ref.MessageID),
					s.String(),
					strconv.Itoa(i + 1),
					entry.DisplayName,
				})
				if err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
