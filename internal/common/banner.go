package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective settings.
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("Kabuka", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("storage", config.Storage.Type).
		Str("mode", config.Events.DefaultMode).
		Str("provider", string(config.LLM.DefaultProvider)).
		Msg("Kabuka starting")
}
