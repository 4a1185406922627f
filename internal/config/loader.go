package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime configuration of the attendance service. Values
// come from an optional YAML file overlaid by ATTENDANCE_* environment
// variables, with the environment winning.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	SessionTTL time.Duration

	// Timezone anchors "today" for the date engine. The default suits a
	// team working in India.
	Timezone string

	// PurgeSchedule is the cron expression for the nightly expired-session
	// sweep.
	PurgeSchedule string

	Classifier ClassifierConfig
	Bootstrap  BootstrapConfig
}

// ClassifierConfig points the assistant at a chat-completions endpoint.
// Workbot is disabled when BaseURL is empty.
type ClassifierConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// BootstrapConfig seeds the first administrator account on startup when the
// user table is empty.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

// fileConfig mirrors Config for YAML decoding. Durations are Go duration
// strings such as "72h".
type fileConfig struct {
	HTTPPort      int    `yaml:"http_port"`
	SQLiteDSN     string `yaml:"sqlite_dsn"`
	SessionTTL    string `yaml:"session_ttl"`
	Timezone      string `yaml:"timezone"`
	PurgeSchedule string `yaml:"purge_schedule"`
	Classifier    struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"classifier"`
	Bootstrap struct {
		AdminEmail    string `yaml:"admin_email"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"bootstrap"`
}

// Load parses configuration from the optional file named by
// ATTENDANCE_CONFIG_FILE and the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// the rest and reporting every invalid entry in one error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:attendance.db?_foreign_keys=on",
		SessionTTL:    24 * time.Hour,
		Timezone:      "Asia/Kolkata",
		PurgeSchedule: "0 3 * * *",
		Classifier: ClassifierConfig{
			Model:   "gpt-4o-mini",
			Timeout: 15 * time.Second,
		},
	}

	if path := strings.TrimSpace(os.Getenv("ATTENDANCE_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := applyFile(&cfg, file); err != nil {
			return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ATTENDANCE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ATTENDANCE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ATTENDANCE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ATTENDANCE_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ATTENDANCE_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if tz := strings.TrimSpace(os.Getenv("ATTENDANCE_TIMEZONE")); tz != "" {
		cfg.Timezone = tz
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		invalid = append(invalid, "ATTENDANCE_TIMEZONE")
	}

	if schedule := strings.TrimSpace(os.Getenv("ATTENDANCE_PURGE_SCHEDULE")); schedule != "" {
		cfg.PurgeSchedule = schedule
	}

	if baseURL := strings.TrimSpace(os.Getenv("ATTENDANCE_CLASSIFIER_BASE_URL")); baseURL != "" {
		cfg.Classifier.BaseURL = baseURL
	}
	if apiKey := strings.TrimSpace(os.Getenv("ATTENDANCE_CLASSIFIER_API_KEY")); apiKey != "" {
		cfg.Classifier.APIKey = apiKey
	}
	if model := strings.TrimSpace(os.Getenv("ATTENDANCE_CLASSIFIER_MODEL")); model != "" {
		cfg.Classifier.Model = model
	}
	if timeoutValue := strings.TrimSpace(os.Getenv("ATTENDANCE_CLASSIFIER_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "ATTENDANCE_CLASSIFIER_TIMEOUT")
		} else {
			cfg.Classifier.Timeout = timeout
		}
	}

	if email := strings.TrimSpace(os.Getenv("ATTENDANCE_ADMIN_EMAIL")); email != "" {
		cfg.Bootstrap.AdminEmail = email
	}
	if password := os.Getenv("ATTENDANCE_ADMIN_PASSWORD"); password != "" {
		cfg.Bootstrap.AdminPassword = password
	}
	if cfg.Bootstrap.AdminEmail != "" && cfg.Bootstrap.AdminPassword == "" {
		invalid = append(invalid, "ATTENDANCE_ADMIN_PASSWORD")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, file fileConfig) error {
	if file.HTTPPort > 0 {
		cfg.HTTPPort = file.HTTPPort
	}
	if file.SQLiteDSN != "" {
		cfg.SQLiteDSN = file.SQLiteDSN
	}
	if file.SessionTTL != "" {
		ttl, err := time.ParseDuration(file.SessionTTL)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("session_ttl: %q is not a positive duration", file.SessionTTL)
		}
		cfg.SessionTTL = ttl
	}
	if file.Timezone != "" {
		cfg.Timezone = file.Timezone
	}
	if file.PurgeSchedule != "" {
		cfg.PurgeSchedule = file.PurgeSchedule
	}
	if file.Classifier.BaseURL != "" {
		cfg.Classifier.BaseURL = file.Classifier.BaseURL
	}
	if file.Classifier.APIKey != "" {
		cfg.Classifier.APIKey = file.Classifier.APIKey
	}
	if file.Classifier.Model != "" {
		cfg.Classifier.Model = file.Classifier.Model
	}
	if file.Classifier.Timeout != "" {
		timeout, err := time.ParseDuration(file.Classifier.Timeout)
		if err != nil || timeout <= 0 {
			return fmt.Errorf("classifier.timeout: %q is not a positive duration", file.Classifier.Timeout)
		}
		cfg.Classifier.Timeout = timeout
	}
	if file.Bootstrap.AdminEmail != "" {
		cfg.Bootstrap.AdminEmail = file.Bootstrap.AdminEmail
	}
	if file.Bootstrap.AdminPassword != "" {
		cfg.Bootstrap.AdminPassword = file.Bootstrap.AdminPassword
	}
	return nil
}
