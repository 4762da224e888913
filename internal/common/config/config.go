// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Tourvisor     TourvisorConfig    `mapstructure:"tourvisor"`
	Search        SearchConfig       `mapstructure:"search"`
	Session       SessionConfig      `mapstructure:"session"`
	Dialogue      DialogueConfig     `mapstructure:"dialogue"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// TourvisorConfig holds settings for the external inventory search API.
type TourvisorConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AuthLogin string `mapstructure:"auth_login"`
	AuthPass  string `mapstructure:"auth_pass"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds, per call

	// Async search protocol. GDS/regular flights load slowly; cutting the
	// poll budget short loses most of the inventory.
	PollInterval       int `mapstructure:"poll_interval"`        // milliseconds between status polls
	MaxPollAttempts    int `mapstructure:"max_poll_attempts"`    // ceiling before SEARCH_TIMEOUT
	MinProgressToFetch int `mapstructure:"min_progress_percent"` // fetch once progress crosses this
	MinWaitBeforeFetch int `mapstructure:"min_wait_before_fetch"` // milliseconds before first fetch

	MaxRetries int `mapstructure:"max_retries"` // per-call HTTP retries before UPSTREAM_UNAVAILABLE
}

// SearchConfig holds request-shaping and filtering policy.
type SearchConfig struct {
	DateWidenDays     int `mapstructure:"date_widen_days"`      // ±days applied on every submit
	FallbackWidenDays int `mapstructure:"fallback_widen_days"`  // ±days proposed on empty results
	MaxOffers         int `mapstructure:"max_offers"`           // top-N ceiling
	MinOffers         int `mapstructure:"min_offers"`           // preferred minimum card count
	QualityMinStars   int `mapstructure:"quality_min_stars"`    // quality gate for broad search
	HorizonDays       int `mapstructure:"horizon_days"`         // sellable booking horizon
	HotTourItems      int `mapstructure:"hot_tour_items"`       // bounded hot-tours result count

	// AlternateDepartures maps a departure city to the city proposed when
	// a search comes back empty.
	AlternateDepartures map[string]string `mapstructure:"alternate_departures"`

	// AlternateDestinations maps a country to a similar country proposed
	// as the last fallback step.
	AlternateDestinations map[string]string `mapstructure:"alternate_destinations"`
}

type SessionConfig struct {
	Backend    string      `mapstructure:"backend"` // "memory" or "redis"
	TTLMinutes int         `mapstructure:"ttl_minutes"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DialogueConfig holds cascade policy knobs.
type DialogueConfig struct {
	// DefaultDeparture, when set, is injected by policy before the
	// departure-city question would be asked. Empty means always ask.
	DefaultDeparture string `mapstructure:"default_departure"`

	// EscalationPartySize is the party size above which the conversation
	// is handed to a manager.
	EscalationPartySize int `mapstructure:"escalation_party_size"`
}

// NotificationConfig holds settings for manager escalation hand-offs.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool   `mapstructure:"enabled"`
		Phone   string `mapstructure:"phone"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Validate checks critical configuration fields.
func (c *Config) Validate() error {
	if c.Tourvisor.BaseURL == "" {
		return fmt.Errorf("tourvisor.base_url is required")
	}
	if c.Session.Backend == "redis" && c.Session.Redis.Address == "" {
		return fmt.Errorf("session.redis.address is required for the redis backend")
	}
	if c.Search.MaxOffers < c.Search.MinOffers {
		return fmt.Errorf("search.max_offers must be >= search.min_offers")
	}
	return nil
}
