package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, loaded from the environment with an
// optional .env file on top.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	// CommandPrefix is the leading key of the built-in commands, e.g.
	// ".beep" yields ".beep help", ".beep ping" and so on.
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:".beep"`

	// Masters hold the highest permission level everywhere.
	Masters []string `env:"DISCORD_MASTERS" envSeparator:","`
	// SupportGuilds/SupportRoles define the support tier: holding one of
	// the roles in one of the guilds grants the support level.
	SupportGuilds []string `env:"DISCORD_SUPPORT_GUILDS" envSeparator:","`
	SupportRoles  []string `env:"DISCORD_SUPPORT_ROLES" envSeparator:","`

	// ChannelLevels maps channel ids to permission level names
	// ("none", "support", "master"), e.g. "123:support,456:master".
	// Channels without an entry never receive permission-gated replies.
	ChannelLevels map[string]string `env:"DISCORD_CHANNEL_LEVELS" envSeparator:"," envKeyValSeparator:":"`

	// JobTimeout bounds a queued command's execution.
	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"1m"`

	// Status messages older than StatusRetention are purged every
	// StatusSweepPeriod.
	StatusRetention   time.Duration `env:"STATUS_RETENTION" envDefault:"1h"`
	StatusSweepPeriod time.Duration `env:"STATUS_SWEEP_PERIOD" envDefault:"1h"`
}

// New loads the configuration from the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
