// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like TOURVISOR_AUTH_LOGIN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if absent
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Tourvisor.AuthLogin == "" {
		if val := os.Getenv("TOURVISOR_AUTH_LOGIN"); val != "" {
			cfg.Tourvisor.AuthLogin = val
		}
	}
	if cfg.Tourvisor.AuthPass == "" {
		if val := os.Getenv("TOURVISOR_AUTH_PASS"); val != "" {
			cfg.Tourvisor.AuthPass = val
		}
	}
	if cfg.Session.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Session.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
// The async-protocol numbers are deliberate configuration constants, not
// values inferred at runtime.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	// Tourvisor protocol defaults
	if cfg.Tourvisor.Timeout == 0 {
		cfg.Tourvisor.Timeout = 30000
	}
	if cfg.Tourvisor.PollInterval == 0 {
		cfg.Tourvisor.PollInterval = 2000
	}
	if cfg.Tourvisor.MaxPollAttempts == 0 {
		cfg.Tourvisor.MaxPollAttempts = 60
	}
	if cfg.Tourvisor.MinProgressToFetch == 0 {
		cfg.Tourvisor.MinProgressToFetch = 70
	}
	if cfg.Tourvisor.MinWaitBeforeFetch == 0 {
		cfg.Tourvisor.MinWaitBeforeFetch = 25000
	}
	if cfg.Tourvisor.MaxRetries == 0 {
		cfg.Tourvisor.MaxRetries = 3
	}

	// Search shaping defaults
	if cfg.Search.DateWidenDays == 0 {
		cfg.Search.DateWidenDays = 2
	}
	if cfg.Search.FallbackWidenDays == 0 {
		cfg.Search.FallbackWidenDays = 3
	}
	if cfg.Search.MaxOffers == 0 {
		cfg.Search.MaxOffers = 5
	}
	if cfg.Search.MinOffers == 0 {
		cfg.Search.MinOffers = 3
	}
	if cfg.Search.QualityMinStars == 0 {
		cfg.Search.QualityMinStars = 3
	}
	if cfg.Search.HorizonDays == 0 {
		cfg.Search.HorizonDays = 365
	}
	if cfg.Search.HotTourItems == 0 {
		cfg.Search.HotTourItems = 10
	}

	// Session defaults
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 30
	}

	if cfg.Dialogue.EscalationPartySize == 0 {
		cfg.Dialogue.EscalationPartySize = 6
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
