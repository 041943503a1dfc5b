package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// LogSettings selects the slog handler. See logger.Options.
type LogSettings struct {
	Level  string `env:"PHONEBOOK_LOG_LEVEL"`
	File   string `env:"PHONEBOOK_LOG_FILE"`
	Format string `env:"PHONEBOOK_LOG_FORMAT" envDefault:"text"`
}

// ServerSettings configures `phonebook serve`.
type ServerSettings struct {
	Addr       string  `env:"PHONEBOOK_ADDR"       envDefault:":3001"`
	DataDir    string  `env:"PHONEBOOK_DATA_DIR"`
	Advertise  bool    `env:"PHONEBOOK_ADVERTISE"  envDefault:"true"`
	RateLimit  float64 `env:"PHONEBOOK_RATE_LIMIT" envDefault:"20"`
	RateBurst  int     `env:"PHONEBOOK_RATE_BURST" envDefault:"40"`
	BackupDir  string  `env:"PHONEBOOK_BACKUP_DIR"`
	BackupKeep int     `env:"PHONEBOOK_BACKUP_KEEP" envDefault:"14"`
	Log        LogSettings
}

// ClientSettings configures `phonebook ui` and `phonebook list`.
type ClientSettings struct {
	Server      string        `env:"PHONEBOOK_SERVER"`
	APIKey      string        `env:"PHONEBOOK_API_KEY"`
	Timeout     time.Duration `env:"PHONEBOOK_TIMEOUT"      envDefault:"10s"`
	BannerDelay time.Duration `env:"PHONEBOOK_BANNER_DELAY" envDefault:"5s"`
	Log         LogSettings
}

// LoadServerSettings reads server settings from the environment and fills in
// the data directory under the user's config dir when unset. BackupDir is
// left as given; use BackupPath once flags have been applied.
func LoadServerSettings() (ServerSettings, error) {
	var s ServerSettings
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parse env: %w", err)
	}
	if s.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return s, err
		}
		s.DataDir = dir
	}
	return s, nil
}

// BackupPath returns BackupDir, or the backups folder inside DataDir.
func (s ServerSettings) BackupPath() string {
	if s.BackupDir != "" {
		return s.BackupDir
	}
	return filepath.Join(s.DataDir, "backups")
}

// LoadClientSettings reads client settings from the environment.
func LoadClientSettings() (ClientSettings, error) {
	var s ClientSettings
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "phonebook"), nil
}
