// Package config defines the configuration for the NHL signals run and its
// validation.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Config is the root configuration. Fields come from a TOML file and may be
// overridden by NHLSIG_* environment variables.
type Config struct {
	Odds         OddsConfig         `toml:"odds"`
	MoneyPuck    MoneyPuckConfig    `toml:"moneypuck"`
	Schedule     ScheduleConfig     `toml:"schedule"`
	DailyFaceoff DailyFaceoffConfig `toml:"dailyfaceoff"`
	Rest         RestConfig         `toml:"rest"`
	Signals      SignalsConfig      `toml:"signals"`
	Output       OutputConfig       `toml:"output"`
	S3           S3Config           `toml:"s3"`
	Redis        RedisConfig        `toml:"redis"`
	Notify       NotifyConfig       `toml:"notify"`
	Teams        TeamsConfig        `toml:"teams"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Mode         string             `toml:"mode"`
	LogLevel     string             `toml:"log_level"`
	// DateET selects the slate date (YYYY-MM-DD). Empty means today in
	// America/New_York.
	DateET string `toml:"date_et"`
}

// OddsConfig holds The Odds API settings.
type OddsConfig struct {
	BaseURL    string   `toml:"base_url"`
	APIKey     string   `toml:"api_key"`
	Regions    string   `toml:"regions"`
	Bookmakers []string `toml:"bookmakers"`
	Timeout    duration `toml:"timeout"`
	// QuotaPerHour caps odds requests across processes when redis is
	// enabled. Zero disables the guard.
	QuotaPerHour int `toml:"quota_per_hour"`
}

// MoneyPuckConfig holds the team-rate download settings.
type MoneyPuckConfig struct {
	BaseURL string `toml:"base_url"`
	// Season is the start year of the season, e.g. 2024 for 2024-25. Zero
	// derives it from the slate date.
	Season  int      `toml:"season"`
	Timeout duration `toml:"timeout"`
}

// ScheduleConfig holds the NHL schedule API settings.
type ScheduleConfig struct {
	BaseURL   string   `toml:"base_url"`
	UserAgent string   `toml:"user_agent"`
	Timeout   duration `toml:"timeout"`
}

// DailyFaceoffConfig holds the starting-goalie scrape settings.
type DailyFaceoffConfig struct {
	Enabled   bool     `toml:"enabled"`
	BaseURL   string   `toml:"base_url"`
	UserAgent string   `toml:"user_agent"`
	Timeout   duration `toml:"timeout"`
}

// RestConfig tunes the rest computation.
type RestConfig struct {
	LookbackDays []int `toml:"lookback_days"`
	Workers      int   `toml:"workers"`
}

// SignalsConfig holds the model thresholds and report layout.
type SignalsConfig struct {
	RestGoalsPerDay float64 `toml:"rest_goals_per_day"`
	EdgeMinPP       float64 `toml:"edge_min_pp"`
	MLPriceMin      int     `toml:"ml_price_min"`
	MLPriceMax      int     `toml:"ml_price_max"`
	MeanFloor       float64 `toml:"mean_floor"`
	MinSignals      int     `toml:"min_signals"`
	TopN            int     `toml:"top_n"`
	MaxSkipped      int     `toml:"max_skipped"`
}

// OutputConfig selects the artifact backend.
type OutputConfig struct {
	// Backend is "local" or "s3".
	Backend string `toml:"backend"`
	// Dir is the root directory for the local backend.
	Dir    string `toml:"dir"`
	Prefix string `toml:"prefix"`
}

// S3Config holds S3-compatible storage settings.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// RedisConfig holds Redis connection parameters and the bus destinations.
type RedisConfig struct {
	Enabled       bool     `toml:"enabled"`
	Addr          string   `toml:"addr"`
	Password      string   `toml:"password"`
	DB            int      `toml:"db"`
	PoolSize      int      `toml:"pool_size"`
	MaxRetries    int      `toml:"max_retries"`
	TLSEnabled    bool     `toml:"tls_enabled"`
	SignalStream  string   `toml:"signal_stream"`
	SignalChannel string   `toml:"signal_channel"`
	LockTTL       duration `toml:"lock_ttl"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	TopN              int      `toml:"top_n"`
	Timeout           duration `toml:"timeout"`
}

// TeamsConfig extends the built-in team registry.
type TeamsConfig struct {
	// Aliases maps extra labels (full names or codes) to abbreviations.
	Aliases map[string]string `toml:"aliases"`
}

// MetricsConfig sets where run metrics are pushed. An empty PushgatewayURL
// disables the push.
type MetricsConfig struct {
	PushgatewayURL string   `toml:"pushgateway_url"`
	Job            string   `toml:"job"`
	Timeout        duration `toml:"timeout"`
}

// duration wraps time.Duration so TOML strings like "20s" decode.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config that runs end to end with only an odds API key
// supplied.
func Defaults() Config {
	return Config{
		Odds: OddsConfig{
			BaseURL: "https://api.the-odds-api.com",
			Regions: "us",
			Timeout: duration{30 * time.Second},
		},
		MoneyPuck: MoneyPuckConfig{
			BaseURL: "https://moneypuck.com/moneypuck/playerData/seasonSummary",
			Timeout: duration{30 * time.Second},
		},
		Schedule: ScheduleConfig{
			BaseURL:   "https://api-web.nhle.com",
			UserAgent: "nhl_daily_slim/1.0",
			Timeout:   duration{20 * time.Second},
		},
		DailyFaceoff: DailyFaceoffConfig{
			Enabled: true,
			BaseURL: "https://www.dailyfaceoff.com",
			Timeout: duration{25 * time.Second},
		},
		Rest: RestConfig{
			LookbackDays: []int{14, 30},
			Workers:      4,
		},
		Signals: SignalsConfig{
			RestGoalsPerDay: 0.08,
			EdgeMinPP:       2.0,
			MLPriceMin:      -250,
			MLPriceMax:      250,
			MeanFloor:       0.1,
			MinSignals:      3,
			TopN:            10,
			MaxSkipped:      25,
		},
		Output: OutputConfig{
			Backend: "local",
			Dir:     "data",
			Prefix:  "nhl",
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			PoolSize:      10,
			MaxRetries:    3,
			SignalStream:  "nhl:signals",
			SignalChannel: "nhl:signals:latest",
			LockTTL:       duration{10 * time.Minute},
		},
		Notify: NotifyConfig{
			Events:  []string{"signals_ready", "run_failed"},
			TopN:    5,
			Timeout: duration{10 * time.Second},
		},
		Metrics: MetricsConfig{
			Job:     "nhlsignals",
			Timeout: duration{10 * time.Second},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"build":   true,
	"signals": true,
	"full":    true,
	"rest":    true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate checks Config for invalid or missing values and returns one error
// listing every problem found.
func (c *Config) Validate() error {
	var errs []string
	mode := strings.ToLower(c.Mode)

	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: build, signals, full, rest)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if c.DateET != "" {
		if _, err := time.Parse(time.DateOnly, c.DateET); err != nil || !dateRe.MatchString(c.DateET) {
			errs = append(errs, fmt.Sprintf("date_et must be YYYY-MM-DD, got %q", c.DateET))
		}
	}

	// Odds are read by every mode except signals, which replays a stored slate.
	if mode != "signals" {
		if strings.TrimSpace(c.Odds.APIKey) == "" {
			errs = append(errs, "odds: api_key is required for mode "+c.Mode)
		}
		if c.Odds.BaseURL == "" {
			errs = append(errs, "odds: base_url must not be empty")
		}
	}
	if c.Odds.QuotaPerHour < 0 {
		errs = append(errs, "odds: quota_per_hour must be >= 0")
	}
	if c.MoneyPuck.Season != 0 && (c.MoneyPuck.Season < 2008 || c.MoneyPuck.Season > 2100) {
		errs = append(errs, fmt.Sprintf("moneypuck: season %d out of range", c.MoneyPuck.Season))
	}

	if len(c.Rest.LookbackDays) == 0 {
		errs = append(errs, "rest: lookback_days must not be empty")
	}
	for i, d := range c.Rest.LookbackDays {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("rest: lookback_days[%d] must be > 0", i))
		}
		if i > 0 && d <= c.Rest.LookbackDays[i-1] {
			errs = append(errs, "rest: lookback_days must be increasing")
		}
	}
	if c.Rest.Workers < 1 {
		errs = append(errs, "rest: workers must be >= 1")
	}

	s := c.Signals
	if s.EdgeMinPP < 0 {
		errs = append(errs, "signals: edge_min_pp must be >= 0")
	}
	if s.RestGoalsPerDay < 0 {
		errs = append(errs, "signals: rest_goals_per_day must be >= 0")
	}
	if s.MLPriceMin >= s.MLPriceMax {
		errs = append(errs, fmt.Sprintf("signals: ml_price_min (%d) must be below ml_price_max (%d)", s.MLPriceMin, s.MLPriceMax))
	}
	if s.MeanFloor <= 0 {
		errs = append(errs, "signals: mean_floor must be > 0")
	}
	if s.TopN < 1 || s.MinSignals < 0 || s.MaxSkipped < 0 {
		errs = append(errs, "signals: top_n must be >= 1, min_signals and max_skipped >= 0")
	}

	switch c.Output.Backend {
	case "local":
		if c.Output.Dir == "" {
			errs = append(errs, "output: dir must not be empty for the local backend")
		}
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf("output: unknown backend %q (valid: local, s3)", c.Output.Backend))
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.LockTTL.Duration <= 0 {
			errs = append(errs, "redis: lock_ttl must be > 0")
		}
	}

	if c.Metrics.PushgatewayURL != "" && c.Metrics.Job == "" {
		errs = append(errs, "metrics: job must not be empty when pushgateway_url is set")
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
