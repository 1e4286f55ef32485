package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"socialhub-backend/internal/domains/publishing/model"
)

const maxResponseBody = 1 << 20

// ClientConfig controls how every platform API is called.
type ClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	BreakerFailures   uint
	BreakerWindow     uint
	BreakerDelay      time.Duration
	RequestsPerSecond float64
	Burst             int
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:           15 * time.Second,
		MaxRetries:        2,
		RetryBaseDelay:    200 * time.Millisecond,
		RetryMaxDelay:     5 * time.Second,
		BreakerFailures:   5,
		BreakerWindow:     10,
		BreakerDelay:      30 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
	}
}

// APIError is a non-2xx answer from a platform API.
type APIError struct {
	Platform   model.Platform
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s api returned status %d", e.Platform, e.StatusCode)
	}
	return fmt.Sprintf("%s api returned status %d: %s", e.Platform, e.StatusCode, e.Message)
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type apiResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *apiResponse) decode(v interface{}) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// apiClient is shared by every adapter of one platform so that retry state,
// the circuit breaker and the rate limit apply per platform, not per account.
type apiClient struct {
	platform model.Platform
	baseURL  string
	http     *http.Client
	// reads retries anything transient; writes only retries failures the
	// platform cannot have acted on, so a post is never sent twice.
	reads   failsafe.Executor[*apiResponse]
	writes  failsafe.Executor[*apiResponse]
	limiter *rate.Limiter
}

func newRetryPolicy(cfg ClientConfig, handle func(error) bool) retrypolicy.RetryPolicy[*apiResponse] {
	return retrypolicy.NewBuilder[*apiResponse]().
		WithBackoff(cfg.RetryBaseDelay, cfg.RetryMaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ *apiResponse, err error) bool {
			return handle(err)
		}).
		Build()
}

func newAPIClient(platform model.Platform, baseURL string, cfg ClientConfig) *apiClient {

	breaker := circuitbreaker.NewBuilder[*apiResponse]().
		WithFailureThresholdRatio(cfg.BreakerFailures, cfg.BreakerWindow).
		WithDelay(cfg.BreakerDelay).
		WithSuccessThreshold(1).
		HandleIf(func(_ *apiResponse, err error) bool {
			return isRetryable(err)
		}).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			log.Warn().
				Str("platform", string(platform)).
				Str("from", stateName(event.OldState)).
				Str("to", stateName(event.NewState)).
				Msg("[PlatformClient] Circuit breaker state changed")
		}).
		Build()

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &apiClient{
		platform: platform,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		reads:    failsafe.With[*apiResponse](newRetryPolicy(cfg, isRetryable), breaker),
		writes:   failsafe.With[*apiResponse](newRetryPolicy(cfg, isSafeToResend), breaker),
		limiter:  rate.NewLimiter(limit, burst),
	}
}

func stateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.OpenState:
		return "open"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	default:
		return "closed"
	}
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.retryable()
	}
	// transport errors
	return true
}

// isSafeToResend reports failures that happened before the platform accepted
// the request: rate limiting and connections that were never established.
func isSafeToResend(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// do sends one request through the rate limiter, retry policy and circuit breaker.
func (c *apiClient) do(ctx context.Context, method, path, token string, query url.Values, body interface{}) (*apiResponse, error) {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", c.platform, err)
		}
		payload = raw
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	executor := c.writes
	if idempotent(method) {
		executor = c.reads
	}
	return executor.WithContext(ctx).Get(func() (*apiResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{
				Platform:   c.platform,
				StatusCode: resp.StatusCode,
				Message:    extractErrorMessage(data),
			}
		}
		return &apiResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
	})
}

// extractErrorMessage pulls a human readable message out of the error bodies
// the supported platforms return.
func extractErrorMessage(body []byte) string {
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return strings.TrimSpace(string(body))
	}
	if e, ok := doc["error"].(map[string]interface{}); ok {
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	if msg, ok := doc["error"].(string); ok {
		return msg
	}
	for _, key := range []string{"message", "detail", "title"} {
		if msg, ok := doc[key].(string); ok && msg != "" {
			return msg
		}
	}
	if list, ok := doc["errors"].([]interface{}); ok && len(list) > 0 {
		if e, ok := list[0].(map[string]interface{}); ok {
			if msg, ok := e["message"].(string); ok {
				return msg
			}
		}
	}
	return ""
}

// describeError turns any call failure into the message stored on a failed result.
func describeError(platform model.Platform, err error) string {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Sprintf("%s is temporarily unavailable, try again later", platform.DisplayName())
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return fmt.Sprintf("%s request failed: %v", platform, err)
}

func failure(platform model.Platform, err error) PublishResult {
	return PublishResult{Success: false, Error: describeError(platform, err)}
}

var errMissingPostID = errors.New("response did not include a post id")

// published builds the result of an accepted publish. A 2xx answer without an
// id is a failure, the post cannot be tracked.
func published(platform model.Platform, id string, raw map[string]interface{}) PublishResult {
	if id == "" {
		return failure(platform, errMissingPostID)
	}
	return PublishResult{Success: true, PlatformPostID: id, Raw: raw}
}
