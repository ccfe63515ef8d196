package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tubegate/tubegate/internal/api"
	"github.com/tubegate/tubegate/internal/cache"
	"github.com/tubegate/tubegate/internal/config"
	"github.com/tubegate/tubegate/internal/engine"
	"github.com/tubegate/tubegate/internal/handlers"
	"github.com/tubegate/tubegate/internal/repository/postgres"
	"github.com/tubegate/tubegate/internal/schedule"
	"github.com/tubegate/tubegate/internal/telegram"
	"github.com/tubegate/tubegate/internal/youtube"
	"github.com/tubegate/tubegate/pkg/logger"
)

func main() {
	// Local development convenience; the file is optional.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting TubeGate...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	profileRepo := postgres.NewProfileRepository(db.DB)
	settingRepo := postgres.NewSettingRepository(db.DB)
	channelRepo := postgres.NewChannelRepository(db.DB)
	videoRepo := postgres.NewVideoRepository(db.DB)
	watchLogRepo := postgres.NewWatchLogRepository(db.DB)
	wordFilterRepo := postgres.NewWordFilterRepository(db.DB)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Content provider
	provider, err := youtube.NewClient(ctx, cfg.YouTubeAPIKey, l)
	if err != nil {
		l.Fatalf("Failed to create YouTube client: %v", err)
	}

	resolver := schedule.NewResolver(settingRepo, cfg.Timezone, l)

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, cfg.AdminChatID, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}

	notifier := telegram.NewNotifier(bot, cfg.AdminChatID, profileRepo, resolver, l)

	// Gating engine and content cache
	eng := engine.New(resolver, videoRepo, channelRepo, watchLogRepo, l, notifier.NotifyLimit)
	catalogs := cache.NewManager(
		provider, profileRepo, channelRepo, videoRepo, wordFilterRepo,
		resolver, l, cfg.CacheTTL, cfg.CacheMaxResults, cfg.ShortsEnabled,
	)
	go catalogs.Run(ctx)

	// Register command handlers
	session := handlers.NewSession()
	bot.RegisterCommand("start", handlers.NewStartHandler(l))
	bot.RegisterCommand("help", handlers.NewHelpHandler(l))
	bot.RegisterCommand("time", handlers.NewTimeHandler(settingRepo, eng, session, l))
	bot.RegisterCommand("channels", handlers.NewChannelsHandler(channelRepo, catalogs, provider, session, l))
	bot.RegisterCommand("filter", handlers.NewFilterHandler(wordFilterRepo, catalogs, l))
	bot.RegisterCommand("profiles", handlers.NewProfilesHandler(profileRepo, catalogs, session, l))
	bot.RegisterCommand("approve", handlers.NewApproveHandler(videoRepo, catalogs, session, l))
	bot.RegisterCommand("deny", handlers.NewDenyHandler(videoRepo, catalogs, session, l))
	bot.RegisterCommand("pending", handlers.NewPendingHandler(videoRepo, session, l))

	// Start HTTP server
	apiServer := api.NewServer(
		eng, catalogs, provider,
		profileRepo, settingRepo, channelRepo, videoRepo, wordFilterRepo,
		cfg.SearchMaxResults, notifier.NotifyRequest,
		l,
	)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Start Telegram bot polling
	go func() {
		if err := bot.Start(ctx); err != nil {
			l.Errorf("Bot error: %v", err)
		}
	}()

	l.Info("TubeGate started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("TubeGate stopped")
}
