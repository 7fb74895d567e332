// Package httpclient provides an HTTP client for talking to external
// systems: configurable timeouts, pluggable authentication (static or
// dynamic/refreshable), rate limiting, and retry with backoff.
package httpclient

import "time"

// LogLevel gates how chatty Client is about retries and auth refreshes.
// Mirrors the original implementation's log_level. LogError is the zero
// value so a Config left unset logs only failures, matching the original's
// LogLevel.ERROR default.
type LogLevel int

const (
	LogError LogLevel = iota
	LogQuiet
	LogInfo
	LogDebug
)

// Config holds the connection-level settings for a Client.
type Config struct {
	// BaseURL is prefixed to every relative path passed to Client.Do.
	BaseURL string

	// ConnectTimeout bounds establishing the TCP/TLS connection.
	ConnectTimeout time.Duration

	// ReadTimeout, added to ConnectTimeout, bounds the full
	// request/response round trip.
	ReadTimeout time.Duration

	// DefaultHeaders are merged into every request, overridden by
	// per-request headers of the same name.
	DefaultHeaders map[string]string

	// VerifySSL disables certificate verification when false. Leave true
	// outside of local development against self-signed endpoints.
	VerifySSL bool

	// LogLevel controls how much Client logs about retries and auth
	// refreshes via the standard logger. Defaults to LogError.
	LogLevel LogLevel
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return c.ConnectTimeout
	}
	return 5 * time.Second
}

func (c Config) readTimeout() time.Duration {
	if c.ReadTimeout > 0 {
		return c.ReadTimeout
	}
	return 30 * time.Second
}

// Credentials holds static, non-refreshable authentication material:
// an API key, login/password, or OAuth client credentials. An AuthStrategy
// decides which of these fields apply to a given request.
type Credentials struct {
	APIKey       string
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// HasClientCreds reports whether both OAuth client id and secret are set.
func (c Credentials) HasClientCreds() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// HasLoginPassword reports whether both username and password are set.
func (c Credentials) HasLoginPassword() bool {
	return c.Username != "" && c.Password != ""
}
