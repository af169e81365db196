package guauth

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable of the client and the flow controller.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	API           APIConfig
	Country       CountryConfig
	UsernameCheck UsernameCheckConfig
	Password      PasswordConfig
	Session       SessionConfig
	Flow          FlowConfig
	Events        EventConfig
	Metrics       MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the backend and bounds request time.
type APIConfig struct {
	// BaseURL is the backend root every endpoint path is resolved against.
	BaseURL string `env:"GUAUTH_BASE_URL"`
	// Timeout bounds each request unless the caller's context is stricter.
	Timeout time.Duration `env:"GUAUTH_HTTP_TIMEOUT"`
}

/*
====================================
COUNTRY CONFIG
====================================
*/

// CountryConfig selects the dial-code defaults presented before the user
// picks a country.
type CountryConfig struct {
	// Default is an ISO 3166-1 alpha-2 code from the bundled dataset.
	Default string `env:"GUAUTH_DEFAULT_COUNTRY"`
}

/*
====================================
USERNAME CHECK CONFIG
====================================
*/

// UsernameCheckConfig tunes the availability sub-protocol.
type UsernameCheckConfig struct {
	// Debounce is the quiet period measured from the last username edit
	// before a check is issued.
	Debounce time.Duration `env:"GUAUTH_USERNAME_DEBOUNCE"`
	// Timeout bounds one availability request.
	Timeout time.Duration `env:"GUAUTH_USERNAME_CHECK_TIMEOUT"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig is the client-side password policy. Characters outside the
// letter, digit, and Symbols classes make a password invalid.
type PasswordConfig struct {
	MinLength int    `env:"GUAUTH_PASSWORD_MIN_LENGTH"`
	Symbols   string `env:"GUAUTH_PASSWORD_SYMBOLS"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig names the persisted-session keys. TokenKey and UserIDKey are
// a boundary contract with previously persisted sessions; changing them
// orphans existing credentials.
type SessionConfig struct {
	TokenKey    string `env:"GUAUTH_SESSION_TOKEN_KEY"`
	UserIDKey   string `env:"GUAUTH_SESSION_USER_ID_KEY"`
	RedisPrefix string `env:"GUAUTH_SESSION_REDIS_PREFIX"`
}

/*
====================================
FLOW CONFIG
====================================
*/

// FlowConfig tunes the state machine.
type FlowConfig struct {
	// ResetStep is where a full reset lands. Must be a non-authenticated step.
	ResetStep Step
	// OTPLength is the digit count gated before an OTP submit.
	OTPLength int `env:"GUAUTH_FLOW_OTP_LENGTH"`
}

/*
====================================
EVENTS / METRICS CONFIG
====================================
*/

// EventConfig tunes the asynchronous event dispatcher.
type EventConfig struct {
	Enabled    bool `env:"GUAUTH_EVENTS_ENABLED"`
	BufferSize int  `env:"GUAUTH_EVENTS_BUFFER"`
	// DropIfFull drops events instead of blocking emitters when the buffer
	// is full. Dropped counts are observable via Client.EventsDropped.
	DropIfFull bool `env:"GUAUTH_EVENTS_DROP_IF_FULL"`
}

// MetricsConfig enables the atomic counter set.
type MetricsConfig struct {
	Enabled bool `env:"GUAUTH_METRICS_ENABLED"`
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "https://vvgatewaybck.net.au/",
			Timeout: 30 * time.Second,
		},
		Country: CountryConfig{
			Default: "AU",
		},
		UsernameCheck: UsernameCheckConfig{
			Debounce: 500 * time.Millisecond,
			Timeout:  10 * time.Second,
		},
		Password: PasswordConfig{
			MinLength: 8,
			Symbols:   "!@#$%^&*",
		},
		Session: SessionConfig{
			TokenKey:    "authToken",
			UserIDKey:   "currentUserId",
			RedisPrefix: "guauth",
		},
		Flow: FlowConfig{
			ResetStep: StepMobileRegistration,
			OTPLength: 4,
		},
		Events: EventConfig{
			Enabled:    true,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the configuration matching the production backend
// and the source defaults (AU dial code, 500ms debounce, 4-digit OTP).
func DefaultConfig() Config {
	return defaultConfig()
}

// ConfigFromEnv starts from DefaultConfig and overrides from GUAUTH_*
// environment variables.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values Build cannot work with.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New("API.BaseURL must be an absolute URL")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API.Timeout must be positive")
	}
	if _, ok := CountryByCode(c.Country.Default); !ok {
		return fmt.Errorf("Country.Default %q is not in the country dataset", c.Country.Default)
	}
	if c.UsernameCheck.Debounce <= 0 {
		return errors.New("UsernameCheck.Debounce must be positive")
	}
	if c.UsernameCheck.Timeout <= 0 {
		return errors.New("UsernameCheck.Timeout must be positive")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password.MinLength must be at least 1")
	}
	if c.Password.Symbols == "" {
		return errors.New("Password.Symbols must not be empty")
	}
	if c.Session.TokenKey == "" || c.Session.UserIDKey == "" {
		return errors.New("Session keys must not be empty")
	}
	if !c.Flow.ResetStep.valid() || c.Flow.ResetStep == StepAuthenticated {
		return errors.New("Flow.ResetStep must be a non-authenticated step")
	}
	if c.Flow.OTPLength < 1 {
		return errors.New("Flow.OTPLength must be at least 1")
	}
	if c.Events.Enabled && c.Events.BufferSize < 1 {
		return errors.New("Events.BufferSize must be at least 1 when events are enabled")
	}
	return nil
}
