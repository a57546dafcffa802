package client

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config holds the command-line client's settings.
type Config struct {
	APIURL         string `env:"REELTRACK_API_URL" envDefault:"http://localhost:5000"`
	TMDBAPIKey     string `env:"TMDB_API_KEY"`
	TMDBBaseURL    string `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	FirebaseAPIKey string `env:"FIREBASE_API_KEY"`
	// Auth endpoint overrides, for the Firebase emulator.
	FirebaseAuthURL  string `env:"FIREBASE_AUTH_URL"`
	FirebaseTokenURL string `env:"FIREBASE_TOKEN_URL"`
	// SessionFile defaults to DefaultSessionFile.
	SessionFile string `env:"REELTRACK_SESSION_FILE"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if cfg.SessionFile == "" {
		path, err := DefaultSessionFile()
		if err != nil {
			return nil, fmt.Errorf("locate session file: %w", err)
		}
		cfg.SessionFile = path
	}
	return cfg, nil
}
