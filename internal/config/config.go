// /internal/config/config.go
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings. Values come from the environment,
// optionally seeded from a .env file in the working directory.
type Config struct {
	BotName string `env:"BOT_NAME" envDefault:"raven-md"`

	// OwnerNumbers are bare phone numbers (no JID suffix) that bypass all
	// permission checks. At least one must be set.
	OwnerNumbers []string `env:"OWNER_NUMBERS" envSeparator:","`

	Prefix string `env:"PREFIX" envDefault:"."`

	SessionPath string `env:"SESSION_PATH" envDefault:"session.db"`
	StoragePath string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	CommandsDir string `env:"COMMANDS_DIR" envDefault:"commands"`

	LogPath  string `env:"LOG_PATH" envDefault:""`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DefaultCooldown is the per-user cooldown in seconds for commands whose
	// manifest does not set one. Zero disables cooldowns.
	DefaultCooldown int `env:"DEFAULT_COOLDOWN" envDefault:"3"`

	// SendRate is outbound messages per second across all chats.
	SendRate  float64 `env:"SEND_RATE" envDefault:"1"`
	SendBurst int     `env:"SEND_BURST" envDefault:"3"`

	// GroupCacheTTL is how long group metadata stays fresh, in seconds.
	GroupCacheTTL int `env:"GROUP_CACHE_TTL" envDefault:"300"`
}

// New loads the configuration, terminating on invalid or missing required
// values the way a misconfigured bot should: before connecting.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("parse environment: %v", err)
	}
	if err := cfg.validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if len(c.OwnerNumbers) == 0 {
		return fmt.Errorf("OWNER_NUMBERS is not set")
	}
	for i, n := range c.OwnerNumbers {
		n = strings.TrimSpace(strings.TrimPrefix(n, "+"))
		if n == "" {
			return fmt.Errorf("OWNER_NUMBERS entry %d is empty", i)
		}
		c.OwnerNumbers[i] = n
	}
	if c.Prefix == "" {
		return fmt.Errorf("PREFIX must not be empty")
	}
	if c.DefaultCooldown < 0 {
		return fmt.Errorf("DEFAULT_COOLDOWN must not be negative")
	}
	if c.SendRate <= 0 {
		return fmt.Errorf("SEND_RATE must be positive")
	}
	return nil
}

// IsOwner reports whether the bare number is configured as an owner.
func (c *Config) IsOwner(number string) bool {
	for _, n := range c.OwnerNumbers {
		if n == number {
			return true
		}
	}
	return false
}
