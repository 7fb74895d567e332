package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RequestOptions carries the per-call parts of an HTTP request that vary
// by endpoint: query string, body, and any headers on top of Config's
// defaults.
type RequestOptions struct {
	Query   url.Values
	Body    io.Reader
	Headers map[string]string
}

// Client performs HTTP calls against one external system: it merges
// Config.DefaultHeaders with RequestOptions.Headers, lets AuthStrategy
// stamp the request, checks an optional RateGuard before sending, and
// retries according to RetryPolicy — including a single authentication
// refresh when a request comes back 401/403.
type Client struct {
	config       Config
	httpClient   *http.Client
	authStrategy AuthStrategy
	retryPolicy  RetryPolicy
	rateGuard    *RateGuard
}

// New builds a Client. A nil authStrategy defaults to NoAuthStrategy; a
// zero-value retryPolicy defaults to DefaultRetryPolicy(); a nil rateGuard
// disables rate limiting.
func New(config Config, authStrategy AuthStrategy, retryPolicy RetryPolicy, rateGuard *RateGuard) *Client {
	if authStrategy == nil {
		authStrategy = NoAuthStrategy{}
	}
	if retryPolicy.MaxAttempts == 0 {
		retryPolicy = DefaultRetryPolicy()
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.connectTimeout() + config.readTimeout(),
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: config.connectTimeout()}).DialContext,
				TLSHandshakeTimeout: config.connectTimeout(),
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: !config.VerifySSL}, //nolint:gosec
			},
		},
		authStrategy: authStrategy,
		retryPolicy:  retryPolicy,
		rateGuard:    rateGuard,
	}
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := path
	if c.config.BaseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do executes method against path, retrying transport errors and
// RetryPolicy.RetryStatuses responses with backoff, and refreshing
// authentication once on a 401/403 before giving up.
//
// The caller owns the returned response body and must close it.
func (c *Client) Do(ctx context.Context, method, path string, opts RequestOptions) (*http.Response, error) {
	var bodyBytes []byte
	if opts.Body != nil {
		b, err := io.ReadAll(opts.Body)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("read request body: %v", err), Err: err}
		}
		bodyBytes = b
	}

	authRefreshed := false
	targetURL := c.buildURL(path, opts.Query)

	var lastResp *http.Response
	operation := func() error {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
		if err != nil {
			return backoff.Permanent(&Error{Message: fmt.Sprintf("build request: %v", err), Err: err})
		}
		for k, v := range c.config.DefaultHeaders {
			req.Header.Set(k, v)
		}
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
		c.authStrategy.Apply(req)

		if err := c.rateGuard.Wait(ctx); err != nil {
			return backoff.Permanent(&RateLimitError{Message: fmt.Sprintf("rate limit wait: %v", err)})
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &Error{Message: err.Error(), Retryable: true, Err: err}
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			if !authRefreshed && c.authStrategy.HandleUnauthorized(resp) {
				authRefreshed = true
				_ = resp.Body.Close()
				c.logf(LogInfo, "%s %s: %d, auth refreshed, retrying", method, targetURL, resp.StatusCode)
				return &Error{StatusCode: resp.StatusCode, Message: "auth refreshed, retrying", Retryable: true}
			}
			_ = resp.Body.Close()
			return backoff.Permanent(&Error{StatusCode: resp.StatusCode, Message: "authentication failed"})
		}

		if c.retryPolicy.IsRetryStatus(resp.StatusCode) {
			_ = resp.Body.Close()
			return &Error{StatusCode: resp.StatusCode, Message: "retryable status", Retryable: true}
		}

		lastResp = resp
		return nil
	}

	notify := func(err error, delay time.Duration) {
		c.logf(LogDebug, "%s %s: retrying after %v: %v", method, targetURL, delay, err)
	}
	if err := backoff.RetryNotify(operation, c.retryPolicy.newBackOff(), notify); err != nil {
		c.logf(LogError, "%s %s: %v", method, targetURL, err)
		return nil, err
	}
	return lastResp, nil
}

// logf writes a diagnostic line via the standard logger when the Client's
// configured LogLevel is at least as verbose as level. LogQuiet suppresses
// everything.
func (c *Client) logf(level LogLevel, format string, args ...any) {
	if c.config.LogLevel == LogQuiet || level > c.config.LogLevel {
		return
	}
	log.Printf("[httpclient] "+format, args...)
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
