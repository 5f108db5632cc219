package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MaxMockDelay caps the simulated latency of the mock services
const MaxMockDelay = 10 * time.Second

// AppConfig is the site configuration, read from the environment.
type AppConfig struct {
	HTTP    HTTPConfig
	Redis   RedisConfig `envPrefix:"REDIS_"`
	Mock    MockConfig
	Logging LoggingConfig `envPrefix:"LOG_"`
	SMTP    SMTPConfig    `envPrefix:"SMTP_"`

	// StaffSource selects where the staff directory is read from: static | redis
	StaffSource string `env:"STAFF_SOURCE" envDefault:"static"`

	// MailBackend selects what happens to contact messages: log | redis
	MailBackend string `env:"MAIL_BACKEND" envDefault:"log"`
}

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	Addr    string `env:"HTTP_ADDR" envDefault:":8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	// AdminToken guards the staff import endpoint. Empty disables the endpoint.
	AdminToken string `env:"ADMIN_TOKEN"`

	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Addr     string `env:"ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB" envDefault:"8"`
}

// MockConfig holds the simulated latency of the mock services.
type MockConfig struct {
	ResultsDelay time.Duration `env:"RESULTS_DELAY" envDefault:"1500ms"`
	MailDelay    time.Duration `env:"MAIL_DELAY" envDefault:"1500ms"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	Development bool   `env:"DEVELOPMENT" envDefault:"false"`
}

// SMTPConfig describes an outgoing mail server. No mailer sends through it
// yet; it is validated so a deployment can be prepared ahead of time.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

const (
	StaffSourceStatic = "static"
	StaffSourceRedis  = "redis"

	MailBackendLog   = "log"
	MailBackendRedis = "redis"
)

// Load reads .env (if present) and the environment.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	return Parse(env.Options{})
}

// Parse decodes the configuration with the given env options and validates it.
func Parse(opts env.Options) (AppConfig, error) {
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *AppConfig) Sanitize() {
	c.StaffSource = strings.ToLower(strings.TrimSpace(c.StaffSource))
	c.MailBackend = strings.ToLower(strings.TrimSpace(c.MailBackend))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.HTTP.GinMode = strings.ToLower(strings.TrimSpace(c.HTTP.GinMode))
	c.Mock.ResultsDelay = clampDelay(c.Mock.ResultsDelay)
	c.Mock.MailDelay = clampDelay(c.Mock.MailDelay)
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
}

func clampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxMockDelay {
		return MaxMockDelay
	}
	return d
}

// Validate rejects combinations the server cannot run with.
func (c *AppConfig) Validate() error {
	switch c.StaffSource {
	case StaffSourceStatic:
	case StaffSourceRedis:
		if !c.Redis.Enabled {
			return errors.New("STAFF_SOURCE=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown STAFF_SOURCE %q", c.StaffSource)
	}

	switch c.MailBackend {
	case MailBackendLog:
	case MailBackendRedis:
		if !c.Redis.Enabled {
			return errors.New("MAIL_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown MAIL_BACKEND %q", c.MailBackend)
	}

	switch c.HTTP.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown GIN_MODE %q", c.HTTP.GinMode)
	}

	if c.SMTP.Host != "" && (c.SMTP.Port <= 0 || c.SMTP.Port > 65535) {
		return fmt.Errorf("invalid SMTP_PORT %d", c.SMTP.Port)
	}
	return nil
}

// NeedsRedis reports whether any component has to talk to Redis.
func (c *AppConfig) NeedsRedis() bool {
	return c.Redis.Enabled
}
