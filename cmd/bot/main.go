package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/bot"
	"github.com/Spok95/sklad-bot/internal/config"
	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/domain/users"
	"github.com/Spok95/sklad-bot/internal/infra/db"
	httpx "github.com/Spok95/sklad-bot/internal/infra/http"
	"github.com/Spok95/sklad-bot/internal/infra/logger"
	"github.com/Spok95/sklad-bot/internal/infra/metrics"
	"github.com/Spok95/sklad-bot/internal/search"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	m := metrics.New()
	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, m.Registry())
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	if exp, ok := api.TokenExpiry(cfg.API.Token); ok {
		if time.Until(exp) < 7*24*time.Hour {
			log.Warn("api token expires soon", "exp", exp)
		} else {
			log.Info("api token", "exp", exp)
		}
	}
	client := api.New(cfg.API.BaseURL, cfg.API.Token,
		api.WithLogger(log),
		api.WithObserver(m),
		api.WithTimeout(cfg.API.Timeout),
	)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("unknown timezone, using local", "tz", cfg.App.Timezone, "err", err)
		loc = time.Local
	}

	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram init failed", "err", err)
		return
	}
	log.Info("telegram authorized", "username", tg.Self.UserName)

	searches := search.New(cfg.Search.Debounce)
	defer searches.Close()

	b := bot.New(bot.Deps{
		API:       tg,
		Log:       log.With("component", "bot"),
		Users:     users.NewRepo(pool),
		States:    dialog.NewRepo(pool),
		AdminChat: cfg.Telegram.AdminChatID,
		Location:  loc,
		Limit:     cfg.List.Limit,
		Metrics:   m,
		Search:    searches,
		Client:    client,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.Timeout
	updates := tg.GetUpdatesChan(u)

	if err := b.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bot stopped", "err", err)
	}
	tg.StopReceivingUpdates()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
