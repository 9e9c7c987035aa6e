package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"training-roster-bot/internal/admins"
	"training-roster-bot/internal/config"
	"training-roster-bot/internal/directory"
	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/promotion"
	"training-roster-bot/internal/server"
	"training-roster-bot/internal/sheets"
	"training-roster-bot/internal/storage"
	"training-roster-bot/internal/templates"
	"training-roster-bot/internal/tgbot"
	"training-roster-bot/internal/training"
)

func fatal(format string, args ...any) {
	logger.Error(format, args...)
	os.Exit(1)
}

// serveHTTP runs srv until it is shut down. Any other failure stops the
// whole process through stop so deferred cleanup still runs.
func serveHTTP(srv *http.Server, stop context.CancelFunc) {
	logger.Info("HTTP listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server: %v", err)
		stop()
	}
}

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fatal("env file %s: %v", *envFile, err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fatal("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	db, err := storage.Open(cfg.StoragePath, templates.Bucket, admins.Bucket)
	if err != nil {
		fatal("storage: %v", err)
	}
	defer db.Close()

	tpl := templates.New(db)
	if err := tpl.Seed(cfg.TemplatesSeedFile); err != nil {
		fatal("templates: %v", err)
	}
	adminRegistry := admins.New(db, cfg.AdminTGIDs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sheetsClient, err := sheets.New(ctx, cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID, cfg.UsersSheet, cfg.AttendanceSheet)
	if err != nil {
		fatal("sheets: %v", err)
	}
	if err := sheetsClient.EnsureSheets(ctx); err != nil {
		fatal("sheets: %v", err)
	}

	dir := directory.New(cfg.Location)
	janitor, err := directory.NewJanitor(dir, cfg.PurgeCron, time.Now)
	if err != nil {
		fatal("directory janitor: %v", err)
	}
	janitor.Start()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		fatal("telegram: %v", err)
	}
	logger.Info("authorized as @%s", api.Self.UserName)
	tr := tgbot.NewTransport(api)

	coord := promotion.New(tr, sheetsClient, dir, promotion.Options{
		TTL:      cfg.OfferTTL,
		Location: cfg.Location,
	})
	svc := training.New(tr, sheetsClient, tpl, dir, coord, training.Options{
		ChatID:   cfg.TrainingChatID,
		Location: cfg.Location,
	})

	botApp := tgbot.New(cfg, api, tr, tgbot.Deps{
		Users:     sheetsClient,
		Templates: tpl,
		Admins:    adminRegistry,
		Training:  svc,
		Promotion: coord,
	})

	httpSrv := server.New(cfg, dir)

	// Start HTTP server
	go serveHTTP(httpSrv, cancel)

	// Start Telegram
	go func() {
		if err := botApp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("bot stopped: %v", err)
			cancel()
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	cancel()
	janitor.Stop()
	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(ctxTimeout)

	logger.Info("bye")
}
