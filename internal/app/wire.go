package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	localblob "github.com/dawg2324/moneypuck-mirror/internal/blob/local"
	s3blob "github.com/dawg2324/moneypuck-mirror/internal/blob/s3"
	"github.com/dawg2324/moneypuck-mirror/internal/cache/redis"
	"github.com/dawg2324/moneypuck-mirror/internal/config"
	"github.com/dawg2324/moneypuck-mirror/internal/domain"
	"github.com/dawg2324/moneypuck-mirror/internal/notify"
	"github.com/dawg2324/moneypuck-mirror/internal/pipeline"
	"github.com/dawg2324/moneypuck-mirror/internal/platform/dailyfaceoff"
	"github.com/dawg2324/moneypuck-mirror/internal/platform/moneypuck"
	"github.com/dawg2324/moneypuck-mirror/internal/platform/nhle"
	"github.com/dawg2324/moneypuck-mirror/internal/platform/oddsapi"
	"github.com/dawg2324/moneypuck-mirror/internal/teams"
)

// oddsQuotaKey names the shared limiter bucket for The Odds API.
const oddsQuotaKey = "odds_api"

// Dependencies bundles the collaborators the modes run against. Optional
// members are nil when not configured.
type Dependencies struct {
	Teams *teams.Registry

	Odds     domain.OddsSource
	Rates    domain.TeamRateSource
	Starters domain.StarterFetcher
	Schedule domain.ScheduleSource

	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader

	RunLock     domain.RunLock
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	Notifier *notify.Notifier
}

// Wire constructs the concrete collaborators from cfg and returns a cleanup
// function that releases them.
func Wire(ctx context.Context, cfg *config.Config, dateET string, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	reg := teams.NewRegistry(cfg.Teams.Aliases)
	deps := &Dependencies{Teams: reg}

	// --- Sources ---
	deps.Odds = oddsapi.NewClient(oddsapi.Options{
		BaseURL:    cfg.Odds.BaseURL,
		APIKey:     cfg.Odds.APIKey,
		Regions:    cfg.Odds.Regions,
		Bookmakers: cfg.Odds.Bookmakers,
		Timeout:    cfg.Odds.Timeout.Duration,
	}, reg)

	season := cfg.MoneyPuck.Season
	if season == 0 {
		day, err := time.ParseInLocation(time.DateOnly, dateET, teams.Eastern)
		if err != nil {
			return nil, nil, fmt.Errorf("wire: date_et %q: %w", dateET, err)
		}
		season = moneypuck.SeasonFor(day)
	}
	deps.Rates = moneypuck.NewClient(cfg.MoneyPuck.BaseURL, season, cfg.MoneyPuck.Timeout.Duration, reg)
	deps.Schedule = nhle.NewClient(cfg.Schedule.BaseURL, cfg.Schedule.UserAgent, cfg.Schedule.Timeout.Duration, reg)
	if cfg.DailyFaceoff.Enabled {
		deps.Starters = dailyfaceoff.NewClient(cfg.DailyFaceoff.BaseURL, cfg.DailyFaceoff.UserAgent, cfg.DailyFaceoff.Timeout.Duration, reg)
	}

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RunLock = redis.NewRunLock(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)

		if cfg.Odds.QuotaPerHour > 0 {
			deps.Odds = pipeline.NewQuotaOdds(deps.Odds, deps.RateLimiter, oddsQuotaKey, cfg.Odds.QuotaPerHour, time.Hour)
		}
	}

	// --- Artifact storage ---
	switch cfg.Output.Backend {
	case "s3":
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
	default:
		store := localblob.New(cfg.Output.Dir)
		deps.BlobWriter = store
		deps.BlobReader = store
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender("", cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, cfg.Notify.Timeout.Duration))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL, cfg.Notify.Timeout.Duration))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	return deps, cleanup, nil
}
