package config

// RedactedConfig returns a copy of cfg with secrets replaced by "***", for
// logging the active configuration.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Odds.APIKey)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Redis.Password)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices and maps so the redacted value shares nothing mutable with
	// cfg.
	out.Odds.Bookmakers = append([]string(nil), cfg.Odds.Bookmakers...)
	out.Rest.LookbackDays = append([]int(nil), cfg.Rest.LookbackDays...)
	out.Notify.Events = append([]string(nil), cfg.Notify.Events...)
	if cfg.Teams.Aliases != nil {
		out.Teams.Aliases = make(map[string]string, len(cfg.Teams.Aliases))
		for k, v := range cfg.Teams.Aliases {
			out.Teams.Aliases[k] = v
		}
	}
	return out
}

const redacted = "***"

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
