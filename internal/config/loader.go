package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime configuration of the scheduling service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	CalendarBaseURL string
	CalendarTimeout time.Duration
	RefreshAttempts int
	RankingBaseURL  string
	RankingAPIKey   string
	RankingTimeout  time.Duration
	CredentialKey   []byte
	Timezone        string
}

// fileConfig mirrors Config for the optional YAML configuration file.
// Durations are expressed in Go duration syntax and the credential key as a
// 64-character hex string.
type fileConfig struct {
	HTTPPort        int    `yaml:"http_port"`
	SQLiteDSN       string `yaml:"sqlite_dsn"`
	CalendarBaseURL string `yaml:"calendar_base_url"`
	CalendarTimeout string `yaml:"calendar_timeout"`
	RefreshAttempts int    `yaml:"refresh_attempts"`
	RankingBaseURL  string `yaml:"ranking_base_url"`
	RankingAPIKey   string `yaml:"ranking_api_key"`
	RankingTimeout  string `yaml:"ranking_timeout"`
	CredentialKey   string `yaml:"credential_key"`
	Timezone        string `yaml:"timezone"`
}

// Load assembles configuration from defaults, an optional YAML file and the
// process environment, in that order of precedence. path may be empty.
func Load(path string) (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:talent-scheduler.db",
		CalendarTimeout: 10 * time.Second,
		RefreshAttempts: 3,
		RankingTimeout:  15 * time.Second,
		Timezone:        "UTC",
	}

	var missing, invalid []string
	credentialKey := ""

	if path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		if fc.HTTPPort > 0 {
			cfg.HTTPPort = fc.HTTPPort
		}
		if fc.SQLiteDSN != "" {
			cfg.SQLiteDSN = fc.SQLiteDSN
		}
		if fc.CalendarBaseURL != "" {
			cfg.CalendarBaseURL = fc.CalendarBaseURL
		}
		if fc.CalendarTimeout != "" {
			if d, err := time.ParseDuration(fc.CalendarTimeout); err != nil || d <= 0 {
				invalid = append(invalid, "calendar_timeout")
			} else {
				cfg.CalendarTimeout = d
			}
		}
		if fc.RefreshAttempts > 0 {
			cfg.RefreshAttempts = fc.RefreshAttempts
		}
		if fc.RankingBaseURL != "" {
			cfg.RankingBaseURL = fc.RankingBaseURL
		}
		if fc.RankingAPIKey != "" {
			cfg.RankingAPIKey = fc.RankingAPIKey
		}
		if fc.RankingTimeout != "" {
			if d, err := time.ParseDuration(fc.RankingTimeout); err != nil || d <= 0 {
				invalid = append(invalid, "ranking_timeout")
			} else {
				cfg.RankingTimeout = d
			}
		}
		if fc.CredentialKey != "" {
			credentialKey = fc.CredentialKey
		}
		if fc.Timezone != "" {
			cfg.Timezone = fc.Timezone
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("ATSCHED_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ATSCHED_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ATSCHED_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if baseURL := strings.TrimSpace(os.Getenv("ATSCHED_CALENDAR_BASE_URL")); baseURL != "" {
		cfg.CalendarBaseURL = baseURL
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("ATSCHED_CALENDAR_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "ATSCHED_CALENDAR_TIMEOUT")
		} else {
			cfg.CalendarTimeout = timeout
		}
	}

	if attemptsValue := strings.TrimSpace(os.Getenv("ATSCHED_REFRESH_ATTEMPTS")); attemptsValue != "" {
		attempts, err := strconv.Atoi(attemptsValue)
		if err != nil || attempts <= 0 {
			invalid = append(invalid, "ATSCHED_REFRESH_ATTEMPTS")
		} else {
			cfg.RefreshAttempts = attempts
		}
	}

	if baseURL := strings.TrimSpace(os.Getenv("ATSCHED_RANKING_BASE_URL")); baseURL != "" {
		cfg.RankingBaseURL = baseURL
	}

	if apiKey := strings.TrimSpace(os.Getenv("ATSCHED_RANKING_API_KEY")); apiKey != "" {
		cfg.RankingAPIKey = apiKey
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("ATSCHED_RANKING_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "ATSCHED_RANKING_TIMEOUT")
		} else {
			cfg.RankingTimeout = timeout
		}
	}

	if keyValue := strings.TrimSpace(os.Getenv("ATSCHED_CREDENTIAL_KEY")); keyValue != "" {
		credentialKey = keyValue
	}

	if tz := strings.TrimSpace(os.Getenv("ATSCHED_TIMEZONE")); tz != "" {
		cfg.Timezone = tz
	}

	if cfg.CalendarBaseURL == "" {
		missing = append(missing, "ATSCHED_CALENDAR_BASE_URL")
	}
	if cfg.RankingBaseURL == "" {
		missing = append(missing, "ATSCHED_RANKING_BASE_URL")
	}
	if cfg.RankingAPIKey == "" {
		missing = append(missing, "ATSCHED_RANKING_API_KEY")
	}

	if credentialKey == "" {
		missing = append(missing, "ATSCHED_CREDENTIAL_KEY")
	} else {
		key, err := hex.DecodeString(credentialKey)
		if err != nil || len(key) != 32 {
			invalid = append(invalid, "ATSCHED_CREDENTIAL_KEY")
		} else {
			cfg.CredentialKey = key
		}
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		invalid = append(invalid, "ATSCHED_TIMEZONE")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required configuration is missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("configuration values are invalid: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func loadFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("reading configuration file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parsing configuration file: %w", err)
	}
	return fc, nil
}
