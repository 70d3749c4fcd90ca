// Package remote talks to the spreadsheet-backed ScrapConnect API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable is the only error Call returns. The underlying cause is logged
// and wrapped for diagnostics but callers should only test errors.Is(err, ErrUnavailable).
var ErrUnavailable = errors.New("remote store unavailable")

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 30 * time.Second

const (
	placeholderMarker = "REPLACE_WITH_YOUR"
	maxResponseBytes  = 8 << 20
)

// Caller is implemented by Gateway and by test doubles.
type Caller interface {
	Call(ctx context.Context, action, method string, payload map[string]any) (json.RawMessage, error)
}

// Options tunes a Gateway. Zero values select defaults.
type Options struct {
	Timeout    time.Duration
	Limiter    *rate.Limiter
	HTTPClient *http.Client
	Indicator  *Indicator
	Logger     *zap.Logger
}

// Gateway issues operation-tagged requests to a single endpoint. It keeps no state between calls.
type Gateway struct {
	endpoint  string
	timeout   time.Duration
	limiter   *rate.Limiter
	client    *http.Client
	indicator *Indicator
	logger    *zap.Logger
}

var _ Caller = (*Gateway)(nil)

// NewGateway constructs a gateway for endpoint.
func NewGateway(endpoint string, opts Options) *Gateway {
	g := &Gateway{
		endpoint:  strings.TrimSpace(endpoint),
		timeout:   opts.Timeout,
		limiter:   opts.Limiter,
		client:    opts.HTTPClient,
		indicator: opts.Indicator,
		logger:    opts.Logger,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	if g.indicator == nil {
		g.indicator = NewIndicator(nil)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Configured reports whether the endpoint looks like a real deployment URL.
func (g *Gateway) Configured() bool {
	return g.endpoint != "" && !strings.Contains(g.endpoint, placeholderMarker)
}

// Indicator exposes the loading flag toggled around each call.
func (g *Gateway) Indicator() *Indicator {
	return g.indicator
}

// Call performs action against the remote store and returns the envelope's data field.
// GET requests carry action and payload as a query string, POST requests as a JSON body.
func (g *Gateway) Call(ctx context.Context, action, method string, payload map[string]any) (json.RawMessage, error) {
	g.indicator.set(true)
	defer g.indicator.set(false)

	start := time.Now()
	data, err := g.call(ctx, action, method, payload)
	if err != nil {
		g.logger.Warn("remote call failed",
			zap.String("action", action),
			zap.String("method", method),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, action, err)
	}

	g.logger.Debug("remote call succeeded", zap.String("action", action), zap.Duration("elapsed", time.Since(start)))
	return data, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (g *Gateway) call(ctx context.Context, action, method string, payload map[string]any) (json.RawMessage, error) {
	if !g.Configured() {
		return nil, errors.New("api url not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := g.newRequest(ctx, action, method, payload)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http error status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		if env.Error != "" {
			return nil, errors.New(env.Error)
		}
		return nil, errors.New("api call failed")
	}
	return env.Data, nil
}

func (g *Gateway) newRequest(ctx context.Context, action, method string, payload map[string]any) (*http.Request, error) {
	switch method {
	case http.MethodGet:
		u, err := url.Parse(g.endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		q := u.Query()
		for k, v := range payload {
			q.Set(k, fmt.Sprint(v))
		}
		q.Set("action", action)
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		return req, nil

	case http.MethodPost:
		body := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			body[k] = v
		}
		body["action"] = action

		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil

	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}
}
