package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kjstillabower/mountain-weather-poller/internal/observability"
)

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 30 * time.Second

const maxBodyBytes = 4 << 20

// BreakerConfig configures the per-provider circuit breaker.
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold uint32        // consecutive failures before opening
	OpenTimeout      time.Duration // time spent open before a half-open probe
}

// Options configures the HTTP plumbing shared by a provider's adapters.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    BreakerConfig
	Logger     *zap.Logger
}

type requestIDKey struct{}

// WithRequestID attaches an id sent upstream as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

var errServerStatus = errors.New("upstream server error")

// transport performs GETs for one provider with a timeout, optional breaker and metrics.
type transport struct {
	provider string
	client   *http.Client
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker
}

type response struct {
	status int
	body   []byte
}

// newTransport builds the plumbing for provider. concurrency is the number of
// requests one poll pass issues at once; a half-open breaker admits that many.
func newTransport(provider string, opts Options, concurrency uint32) *transport {
	t := &transport{
		provider: provider,
		client:   opts.HTTPClient,
		timeout:  opts.Timeout,
	}
	if t.client == nil {
		t.client = &http.Client{}
	}
	if t.timeout <= 0 {
		t.timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Breaker.Enabled {
		threshold := opts.Breaker.FailureThreshold
		if threshold == 0 {
			threshold = 5
		}
		if concurrency == 0 {
			concurrency = 1
		}
		observability.CircuitBreakerState.WithLabelValues(provider).Set(0)
		t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        provider,
			MaxRequests: concurrency,
			Timeout:     opts.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				observability.CircuitBreakerState.WithLabelValues(name).Set(breakerGauge(to))
				logger.Warn("circuit breaker state change",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	return t
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// get issues a GET and returns the response for any status below 500.
// Transport failures and 5xx responses count against the breaker; 4xx do not.
func (t *transport) get(ctx context.Context, rawURL string, header http.Header) (response, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return response{}, transportError(t.provider, "request not started", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, protocolError(t.provider, 0, "build request", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", observability.ServiceName)
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	var (
		out       response
		callerErr error
	)
	call := func() (interface{}, error) {
		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				// The caller went away; the upstream is not at fault.
				callerErr = err
				return nil, nil
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			if ctx.Err() != nil {
				callerErr = err
				return nil, nil
			}
			return nil, fmt.Errorf("read response body: %w", err)
		}
		out = response{status: resp.StatusCode, body: body}
		if resp.StatusCode >= 500 {
			return nil, errServerStatus
		}
		return nil, nil
	}

	if t.breaker != nil {
		_, err = t.breaker.Execute(call)
	} else {
		_, err = call()
	}

	switch {
	case callerErr != nil:
		t.observe("cancelled", start)
		return response{}, transportError(t.provider, "request abandoned", callerErr)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		t.observe("circuit_open", start)
		return response{}, transportError(t.provider, "circuit open", err)
	case errors.Is(err, errServerStatus):
		t.observe(statusLabel(out.status), start)
		return response{}, protocolError(t.provider, out.status, upstreamReason(out.body), nil)
	case err != nil:
		if errors.Is(err, context.DeadlineExceeded) {
			t.observe("timeout", start)
			return response{}, transportError(t.provider, fmt.Sprintf("request timed out after %s", t.timeout), err)
		}
		t.observe("error", start)
		return response{}, transportError(t.provider, "request failed", err)
	}

	t.observe(statusLabel(out.status), start)
	return out, nil
}

func (t *transport) observe(status string, start time.Time) {
	observability.ProviderCallsTotal.WithLabelValues(t.provider, status).Inc()
	observability.ProviderDuration.WithLabelValues(t.provider, status).Observe(time.Since(start).Seconds())
}

// requireOK turns any non-2xx response into a protocol error.
func (t *transport) requireOK(resp response) error {
	if resp.status >= 200 && resp.status < 300 {
		return nil
	}
	return protocolError(t.provider, resp.status, upstreamReason(resp.body), nil)
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// upstreamReason extracts a short reason from an error body for messages.
func upstreamReason(body []byte) string {
	var payload struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if err := decodeJSON(body, &payload); err == nil {
		if payload.Reason != "" {
			return payload.Reason
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	const maxReason = 200
	if len(body) > maxReason {
		return string(body[:maxReason])
	}
	return string(body)
}

func withQuery(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
