package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	JwtSecret string `env:"JWT_SECRET,required=true"`
	JwtIssuer string `env:"JWT_ISSUER"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`

	ImageDir      string `env:"IMAGE_DIR,required=true"`
	ImageBaseURL  string `env:"IMAGE_BASE_URL,default=/images"`
	MaxImageBytes int    `env:"MAX_IMAGE_BYTES,default=5242880"`

	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	ReadTimeout          time.Duration `env:"READ_TIMEOUT,default=60s"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=25s"`
	ReadLimit            int64         `env:"READ_LIMIT,default=8388608"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS,default=*"`

	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=2s"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	EnableModeration bool   `env:"ENABLE_MODERATION,default=false"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`
	CensoredDir      string `env:"CENSORED_DIR"`
}

// Validate checks the values go-env cannot express in tags.
func (c Config) Validate() error {
	// Tickers and deadlines need strictly positive durations
	for name, d := range map[string]time.Duration{
		"PING_INTERVAL":    c.PingInterval,
		"READ_TIMEOUT":     c.ReadTimeout,
		"DELIVERY_TIMEOUT": c.DeliveryTimeout,
		"METRIC_INTERVAL":  c.MetricInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.PingInterval >= c.ReadTimeout {
		return fmt.Errorf("PING_INTERVAL (%s) must be shorter than READ_TIMEOUT (%s)", c.PingInterval, c.ReadTimeout)
	}
	if c.ConnectionBufferSize <= 0 {
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", c.ConnectionBufferSize)
	}
	if c.EnableModeration {
		if _, err := CharacterRune(c.CharReplacement); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins splits ALLOWED_ORIGINS on commas. An empty list accepts every origin.
func (c Config) Origins() []string {
	return lo.Compact(lo.Map(strings.Split(c.AllowedOrigins, ","), func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
