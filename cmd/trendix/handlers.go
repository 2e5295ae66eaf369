package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/gganddabbiya/trendix-ai-server/internal/config"
	"github.com/gganddabbiya/trendix-ai-server/internal/scheduler"
	"github.com/gganddabbiya/trendix-ai-server/internal/store"
	"github.com/gganddabbiya/trendix-ai-server/pkg/alert"
	"github.com/gganddabbiya/trendix-ai-server/pkg/embedding"
	"github.com/gganddabbiya/trendix-ai-server/pkg/server"
	"github.com/gganddabbiya/trendix-ai-server/pkg/similarity"
	"github.com/gganddabbiya/trendix-ai-server/pkg/trend"
)

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildSimilarity(cfg *config.Config, log zerolog.Logger) *similarity.Engine {
	var embedder similarity.Embedder
	if cfg.Embedding.APIKey != "" {
		embedder = embedding.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, 0)
		log.Info().Str("model", cfg.Embedding.Model).Msg("embedding provider configured")
	}

	prototypes := make([]similarity.Prototype, len(cfg.Intent.Prototypes))
	for i, p := range cfg.Intent.Prototypes {
		prototypes[i] = similarity.Prototype{Label: p.Label, Description: p.Description}
	}
	return similarity.New(embedder, prototypes, cfg.Intent.DefaultLabel, log)
}

func buildEngine(cfg *config.Config, db store.Store, log zerolog.Logger) *trend.Engine {
	engine := trend.NewEngine(db, buildSimilarity(cfg, log), log)
	if cfg.Chat.Enabled && cfg.Chat.APIKey != "" {
		engine.SetReplyGenerator(trend.NewLLMClient(
			cfg.Chat.Provider,
			cfg.Chat.Model,
			cfg.Chat.APIKey,
			cfg.Chat.BaseURL,
		))
		log.Info().Str("provider", cfg.Chat.Provider).Str("model", cfg.Chat.Model).Msg("chat reply generator configured")
	}
	return engine
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	engine := buildEngine(cfg, db, log)
	srv := server.New(db, engine, port, cfg.Ranking.Platform, cfg.Ranking.VelocityDays, log)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	engine := buildEngine(cfg, db, log)
	alertMgr := buildAlertManager(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(engine, alertMgr,
		trend.SurgeOptions{
			Platform:     cfg.Ranking.Platform,
			Limit:        cfg.Ranking.SurgeLimit,
			Days:         cfg.Ranking.SurgeDays,
			VelocityDays: cfg.Ranking.VelocityDays,
		},
		cfg.Schedule.ParseSurgeInterval(),
		cfg.Ranking.AlertMinScore,
		cfg.Schedule.ParseAlertCooldown(),
		log,
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("scheduler error")
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
	}()

	srv := server.New(db, engine, port, cfg.Ranking.Platform, cfg.Ranking.VelocityDays, log)
	return srv.ListenAndServe()
}

func runSurge(jsonOutput bool, limit, days int, platform string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if platform == "" {
		platform = cfg.Ranking.Platform
	}

	engine := buildEngine(cfg, db, log)
	items, err := engine.SurgeRanking(context.Background(), trend.SurgeOptions{
		Platform:     platform,
		Limit:        limit,
		Days:         days,
		VelocityDays: cfg.Ranking.VelocityDays,
	})
	if err != nil {
		return fmt.Errorf("surge ranking: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Println("no surge candidates (ingest some video metrics first)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSURGE\tGROWTH%\tVIEWS\tCHANNEL\tTITLE")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%.1f\t%.1f\t%d\t%s\t%s\n",
			item.TrendingRank, item.SurgeScore, item.GrowthRatePercentage,
			item.ViewCount, item.ChannelTitle, item.Title)
	}
	return w.Flush()
}

func runFeatured(jsonOutput bool, query, platform string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if platform == "" {
		platform = cfg.Ranking.Platform
	}

	engine := buildEngine(cfg, db, log)
	featured, err := engine.GetFeatured(context.Background(), trend.FeaturedOptions{
		Platform:     platform,
		Query:        query,
		LimitPopular: cfg.Ranking.LimitPopular,
		LimitRising:  cfg.Ranking.LimitRising,
		VelocityDays: cfg.Ranking.VelocityDays,
	})
	if err != nil {
		return fmt.Errorf("featured feed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(featured)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tVIEWS\tCHANNEL\tTITLE")
	for _, item := range featured.Popular {
		fmt.Fprintf(w, "popular\t%d\t%s\t%s\n", item.ViewCount, item.ChannelTitle, item.Title)
	}
	for _, item := range featured.Rising {
		fmt.Fprintf(w, "rising\t%d\t%s\t%s\n", item.ViewCount, item.ChannelTitle, item.Title)
	}
	for _, item := range featured.Recommended {
		fmt.Fprintf(w, "recommended\t%d\t%s\t%s\n", item.ViewCount, item.ChannelTitle, item.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println("\n" + featured.Summary)
	return nil
}
