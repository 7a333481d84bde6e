package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/config"
	"github.com/daybreak-kr/daybreak/internal/database"
	"github.com/daybreak-kr/daybreak/internal/database/repositories"
	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/internal/llm"
	"github.com/daybreak-kr/daybreak/internal/market"
	"github.com/daybreak-kr/daybreak/internal/news"
	"github.com/daybreak-kr/daybreak/internal/notify"
	"github.com/daybreak-kr/daybreak/internal/picker"
	"github.com/daybreak-kr/daybreak/internal/report"
	"github.com/daybreak-kr/daybreak/internal/scheduler"
	"github.com/daybreak-kr/daybreak/internal/server"
	"github.com/daybreak-kr/daybreak/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting daybreak")

	heuristics, err := cfg.LoadHeuristics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load heuristics override")
	}

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	store := repositories.NewReportStore(db.Conn(), log)
	metricsCache := repositories.NewMetricsCacheRepository(db.Conn(), log)

	// News and market providers
	newsProvider, err := news.NewProvider(cfg.NewsProvider, cfg.NewsQueries, cfg.NewsMaxPerQuery, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build news provider")
	}
	marketProvider, err := market.New(cfg.MarketProvider, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build market provider")
	}

	financial := market.NewFinancialFetcher(metricsCache, log)

	// Optional model-assisted selection
	var generator llm.Generator
	if cfg.LLMEnabled {
		client, err := llm.NewClient(llm.Config{
			APIKey:            cfg.LLMAPIKey,
			Model:             cfg.LLMModel,
			MaxTokens:         int64(cfg.LLMMaxTokens),
			Temperature:       cfg.LLMTemperature,
			DailyBudgetTokens: cfg.LLMDailyBudget,
			RequestsPerMinute: cfg.LLMRequestsPerMin,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build model client")
		}
		generator = client
	}

	picks := picker.New(cfg.Watchlist, financial, generator, log)

	var signals report.SignalsFunc
	if cfg.OvernightEnabled {
		signals = func(ctx context.Context, day time.Time) map[string]domain.OvernightSignal {
			return market.FetchOvernightSignals(ctx, marketProvider, nil, day, log)
		}
	}

	digests := news.NewDigestBuilder(log).WithHeuristics(heuristics)

	morning := report.NewMorning(report.MorningConfig{
		WindowMode:       cfg.NewsWindowMode,
		LookbackHours:    cfg.NewsLookbackHrs,
		OvernightEnabled: cfg.OvernightEnabled,
		DebugTags:        cfg.NewsDebugTags,
		MaxWatchStocks:   cfg.MaxWatchStocks,
	}, newsProvider, digests, picks, signals, store, log)

	evening := report.NewEvening(report.EveningConfig{
		MarketProvider:   cfg.MarketProvider,
		PaperTradeAmount: float64(cfg.PaperTradeAmount),
		DevMode:          cfg.NewsWindowMode == "now",
	}, marketProvider, store, log)

	monthly := report.NewMonthly(report.MonthlyConfig{
		MonthOverride:    cfg.MonthOverride,
		IncludeDummy:     cfg.MonthlyIncludeDummy,
		PaperTradeAmount: float64(cfg.PaperTradeAmount),
	}, store, log)

	var notifier notify.Notifier
	if cfg.DryRun() {
		log.Info().Msg("Telegram not configured, reports print to stdout")
		notifier = notify.NewLogNotifier(log)
	} else {
		notifier = notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, log)
	}

	state := report.NewState()

	// Initialize scheduler on Korean wall-clock time
	sched := scheduler.New(log, report.KST)
	if err := registerJobs(sched, cfg, db, morning, evening, monthly, state, notifier, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		State:   state,
		Store:   store,
		DevMode: cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	db *database.DB,
	morning *report.Morning,
	evening *report.Evening,
	monthly *report.Monthly,
	state *report.State,
	notifier notify.Notifier,
	log zerolog.Logger,
) error {
	if err := sched.AddJob(cfg.MorningCron, scheduler.NewMorningJob(scheduler.MorningJobConfig{
		Log:              log,
		Morning:          morning,
		State:            state,
		Notifier:         notifier,
		DeliveryRequired: cfg.TelegramRequired,
	})); err != nil {
		return err
	}

	if err := sched.AddJob(cfg.EveningCron, scheduler.NewEveningJob(scheduler.EveningJobConfig{
		Log:              log,
		Evening:          evening,
		State:            state,
		Notifier:         notifier,
		DeliveryRequired: cfg.TelegramRequired,
	})); err != nil {
		return err
	}

	if err := sched.AddJob(cfg.MonthlyCron, scheduler.NewMonthlyJob(scheduler.MonthlyJobConfig{
		Log:              log,
		Monthly:          monthly,
		Notifier:         notifier,
		DeliveryRequired: cfg.TelegramRequired,
	})); err != nil {
		return err
	}

	return sched.AddJob("0 */6 * * *", scheduler.NewHealthCheckJob(db, log))
}
