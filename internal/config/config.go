package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Default configuration values
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8080
	DefaultSendBuffer     = 256
	DefaultMaxMessageSize = 64 * 1024 // 64 KB
	DefaultRelayURL       = "ws://localhost:8080/ws"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// Config holds application configuration
type Config struct {
	// Host and Port are where the relay listens
	Host string
	Port int

	// AllowedOrigins restricts websocket upgrades. Empty allows all.
	AllowedOrigins []string

	// Per-connection buffers
	SendBuffer     int
	MaxMessageSize int64

	// RelayURL is the websocket endpoint the client commands dial
	RelayURL string

	LogLevel  string
	LogFormat string
}

// Options for loading config with CLI flag overrides
type Options struct {
	Host           string
	Port           int
	AllowedOrigins string
	SendBuffer     int
	RelayURL       string
	LogLevel       string
	LogFormat      string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	port, err := intSetting(opts.Port, "PORT", DefaultPort)
	if err != nil {
		return nil, err
	}

	sendBuffer, err := intSetting(opts.SendBuffer, "SEND_BUFFER", DefaultSendBuffer)
	if err != nil {
		return nil, err
	}

	maxMessageSize, err := intSetting(0, "MAX_MESSAGE_SIZE", DefaultMaxMessageSize)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:           stringSetting(opts.Host, "HOST", DefaultHost),
		Port:           port,
		AllowedOrigins: splitList(stringSetting(opts.AllowedOrigins, "ALLOWED_ORIGINS", "")),
		SendBuffer:     sendBuffer,
		MaxMessageSize: int64(maxMessageSize),
		RelayURL:       stringSetting(opts.RelayURL, "RELAY_URL", DefaultRelayURL),
		LogLevel:       stringSetting(opts.LogLevel, "LOG_LEVEL", DefaultLogLevel),
		LogFormat:      stringSetting(opts.LogFormat, "LOG_FORMAT", DefaultLogFormat),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	var err error

	if c.Port < 1 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.SendBuffer <= 0 {
		err = multierr.Append(err, fmt.Errorf("send buffer must be positive, got %d", c.SendBuffer))
	}
	if c.MaxMessageSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("max message size must be positive, got %d", c.MaxMessageSize))
	}
	if u, perr := url.Parse(c.RelayURL); perr != nil {
		err = multierr.Append(err, fmt.Errorf("relay url: %w", perr))
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		err = multierr.Append(err, fmt.Errorf("relay url %q must use ws or wss", c.RelayURL))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// OriginAllowed reports whether a websocket upgrade from origin is accepted.
// Requests without an Origin header (non-browser clients) are always allowed.
func (c *Config) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// HTTPBaseURL derives the relay's HTTP base URL from RelayURL, for the
// admin endpoints.
func (c *Config) HTTPBaseURL() (string, error) {
	u, err := url.Parse(c.RelayURL)
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = ""
	u.RawQuery = ""
	return strings.TrimSuffix(u.String(), "/"), nil
}

func stringSetting(flag, env, def string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func intSetting(flag int, env string, def int) (int, error) {
	if flag != 0 {
		return flag, nil
	}
	if v := os.Getenv(env); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", env, v, err)
		}
		return n, nil
	}
	return def, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
