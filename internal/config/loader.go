package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load decodes the TOML file at path over Defaults, loads .env if present,
// and applies NHLSIG_* environment overrides. A missing file is not an
// error: defaults plus environment are enough to run. The result is not
// validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets operators inject secrets and per-run settings
// without editing the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Odds ──
	setStr(&cfg.Odds.BaseURL, "NHLSIG_ODDS_BASE_URL")
	setStr(&cfg.Odds.APIKey, "ODDS_API_KEY")
	setStr(&cfg.Odds.APIKey, "NHLSIG_ODDS_API_KEY")
	setStr(&cfg.Odds.Regions, "NHLSIG_ODDS_REGIONS")
	setStringSlice(&cfg.Odds.Bookmakers, "NHLSIG_ODDS_BOOKMAKERS")
	setDuration(&cfg.Odds.Timeout, "NHLSIG_ODDS_TIMEOUT")
	setInt(&cfg.Odds.QuotaPerHour, "NHLSIG_ODDS_QUOTA_PER_HOUR")

	// ── MoneyPuck ──
	setStr(&cfg.MoneyPuck.BaseURL, "NHLSIG_MONEYPUCK_BASE_URL")
	setInt(&cfg.MoneyPuck.Season, "NHLSIG_MONEYPUCK_SEASON")
	setDuration(&cfg.MoneyPuck.Timeout, "NHLSIG_MONEYPUCK_TIMEOUT")

	// ── Schedule ──
	setStr(&cfg.Schedule.BaseURL, "NHLSIG_SCHEDULE_BASE_URL")
	setStr(&cfg.Schedule.UserAgent, "NHLSIG_SCHEDULE_USER_AGENT")
	setDuration(&cfg.Schedule.Timeout, "NHLSIG_SCHEDULE_TIMEOUT")

	// ── DailyFaceoff ──
	setBool(&cfg.DailyFaceoff.Enabled, "NHLSIG_DAILYFACEOFF_ENABLED")
	setStr(&cfg.DailyFaceoff.BaseURL, "NHLSIG_DAILYFACEOFF_BASE_URL")
	setStr(&cfg.DailyFaceoff.UserAgent, "NHLSIG_DAILYFACEOFF_USER_AGENT")
	setDuration(&cfg.DailyFaceoff.Timeout, "NHLSIG_DAILYFACEOFF_TIMEOUT")

	// ── Rest ──
	setIntSlice(&cfg.Rest.LookbackDays, "NHLSIG_REST_LOOKBACK_DAYS")
	setInt(&cfg.Rest.Workers, "NHLSIG_REST_WORKERS")

	// ── Signals ──
	setFloat64(&cfg.Signals.RestGoalsPerDay, "NHLSIG_SIGNALS_REST_GOALS_PER_DAY")
	setFloat64(&cfg.Signals.EdgeMinPP, "NHLSIG_SIGNALS_EDGE_MIN_PP")
	setInt(&cfg.Signals.MLPriceMin, "NHLSIG_SIGNALS_ML_PRICE_MIN")
	setInt(&cfg.Signals.MLPriceMax, "NHLSIG_SIGNALS_ML_PRICE_MAX")
	setFloat64(&cfg.Signals.MeanFloor, "NHLSIG_SIGNALS_MEAN_FLOOR")
	setInt(&cfg.Signals.MinSignals, "NHLSIG_SIGNALS_MIN_SIGNALS")
	setInt(&cfg.Signals.TopN, "NHLSIG_SIGNALS_TOP_N")
	setInt(&cfg.Signals.MaxSkipped, "NHLSIG_SIGNALS_MAX_SKIPPED")

	// ── Output ──
	setStr(&cfg.Output.Backend, "NHLSIG_OUTPUT_BACKEND")
	setStr(&cfg.Output.Dir, "NHLSIG_OUTPUT_DIR")
	setStr(&cfg.Output.Prefix, "NHLSIG_OUTPUT_PREFIX")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "NHLSIG_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "NHLSIG_S3_REGION")
	setStr(&cfg.S3.Bucket, "NHLSIG_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "NHLSIG_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "NHLSIG_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "NHLSIG_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "NHLSIG_S3_FORCE_PATH_STYLE")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "NHLSIG_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "NHLSIG_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "NHLSIG_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "NHLSIG_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "NHLSIG_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "NHLSIG_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "NHLSIG_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.SignalStream, "NHLSIG_REDIS_SIGNAL_STREAM")
	setStr(&cfg.Redis.SignalChannel, "NHLSIG_REDIS_SIGNAL_CHANNEL")
	setDuration(&cfg.Redis.LockTTL, "NHLSIG_REDIS_LOCK_TTL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "NHLSIG_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "NHLSIG_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "NHLSIG_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "NHLSIG_NOTIFY_EVENTS")
	setInt(&cfg.Notify.TopN, "NHLSIG_NOTIFY_TOP_N")

	// ── Metrics ──
	setStr(&cfg.Metrics.PushgatewayURL, "NHLSIG_METRICS_PUSHGATEWAY_URL")
	setStr(&cfg.Metrics.Job, "NHLSIG_METRICS_JOB")
	setDuration(&cfg.Metrics.Timeout, "NHLSIG_METRICS_TIMEOUT")

	// ── Top-level ──
	setStr(&cfg.Mode, "NHLSIG_MODE")
	setStr(&cfg.LogLevel, "NHLSIG_LOG_LEVEL")
	setStr(&cfg.DateET, "NHLSIG_DATE_ET")
}

// Typed env helpers. Each mutates dst only when the variable is set,
// non-empty and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		if parts := splitList(v); len(parts) > 0 {
			*dst = parts
		}
	}
}

// setIntSlice leaves dst untouched if any element fails to parse.
func setIntSlice(dst *[]int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := splitList(v)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return
		}
		out = append(out, n)
	}
	if len(out) > 0 {
		*dst = out
	}
}
