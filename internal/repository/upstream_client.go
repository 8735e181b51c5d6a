package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/study-portal/internal/models"
	appErrors "github.com/noah-isme/study-portal/pkg/errors"
	"github.com/noah-isme/study-portal/pkg/middleware/requestid"
)

const maxUpstreamBody = 8 << 20

// AttemptObserver receives one callback per candidate attempt.
type AttemptObserver interface {
	ObserveUpstreamAttempt(operation, baseURL, outcome string, duration time.Duration)
}

// UpstreamClient calls the remote materials API, trying each configured base
// URL in priority order until one answers. Every logical call starts again
// from the first candidate.
type UpstreamClient struct {
	baseURLs       []string
	client         *http.Client
	attemptTimeout time.Duration
	logger         *zap.Logger
	observer       AttemptObserver
}

// NewUpstreamClient constructs a client over an ordered candidate list.
func NewUpstreamClient(baseURLs []string, attemptTimeout time.Duration, logger *zap.Logger, observer AttemptObserver) *UpstreamClient {
	if attemptTimeout <= 0 {
		attemptTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	candidates := make([]string, 0, len(baseURLs))
	for _, raw := range baseURLs {
		if trimmed := strings.TrimRight(strings.TrimSpace(raw), "/"); trimmed != "" {
			candidates = append(candidates, trimmed)
		}
	}
	return &UpstreamClient{
		baseURLs:       candidates,
		client:         &http.Client{},
		attemptTimeout: attemptTimeout,
		logger:         logger,
		observer:       observer,
	}
}

// Candidates returns a copy of the configured base URLs in priority order.
func (c *UpstreamClient) Candidates() []string {
	return append([]string(nil), c.baseURLs...)
}

// upstreamRequest describes one logical call. Write calls stop failing over
// once a backend has definitively rejected the request.
type upstreamRequest struct {
	operation   string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	write       bool
}

type upstreamResponse struct {
	BaseURL    string
	StatusCode int
	Body       []byte
	Attempts   []models.UpstreamAttempt
}

// ExhaustedError reports that no candidate produced a usable answer.
type ExhaustedError struct {
	Operation string
	Attempts  []models.UpstreamAttempt
}

func (e *ExhaustedError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, fmt.Sprintf("%s: %s", a.BaseURL, a.Error))
	}
	if len(reasons) == 0 {
		return fmt.Sprintf("%s: no backends configured", e.Operation)
	}
	return fmt.Sprintf("%s: all backends failed (%s)", e.Operation, strings.Join(reasons, "; "))
}

// AsOffline converts the exhaustion into the user-facing all-offline error.
func (e *ExhaustedError) AsOffline() *appErrors.Error {
	urls := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		urls = append(urls, a.BaseURL)
	}
	msg := fmt.Sprintf("all %d backends are unreachable", len(urls))
	if len(urls) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(urls, ", "))
	}
	return appErrors.Wrap(e, appErrors.ErrAllBackendsOffline.Code, appErrors.ErrAllBackendsOffline.Status, msg)
}

// rejection is a definitive 4xx answer to a write call.
type rejection struct {
	baseURL    string
	statusCode int
	body       string
}

func (r *rejection) Error() string {
	return fmt.Sprintf("%s answered %d: %s", r.baseURL, r.statusCode, r.body)
}

func (c *UpstreamClient) do(ctx context.Context, req upstreamRequest) (*upstreamResponse, error) {
	attempts := make([]models.UpstreamAttempt, 0, len(c.baseURLs))
	for _, base := range c.baseURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		status, body, err := c.attempt(ctx, base, req)
		attempt := models.UpstreamAttempt{
			Operation:  req.operation,
			BaseURL:    base,
			StatusCode: status,
			Duration:   time.Since(start),
		}

		if err == nil && status >= 200 && status < 300 {
			attempt.Outcome = models.AttemptSuccess
			attempts = append(attempts, attempt)
			c.record(attempt)
			return &upstreamResponse{BaseURL: base, StatusCode: status, Body: body, Attempts: attempts}, nil
		}

		if err == nil {
			err = fmt.Errorf("unexpected status %d", status)
		}
		attempt.Outcome = models.AttemptFailure
		attempt.Error = err.Error()
		attempts = append(attempts, attempt)
		c.record(attempt)

		if req.write && status >= 400 && status < 500 {
			return nil, &rejection{baseURL: base, statusCode: status, body: snippet(body)}
		}
	}
	return nil, &ExhaustedError{Operation: req.operation, Attempts: attempts}
}

func (c *UpstreamClient) attempt(ctx context.Context, base string, req upstreamRequest) (int, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	target := base + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.method, target, body)
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if id := requestid.FromContext(ctx); id != "" {
		httpReq.Header.Set(requestid.HeaderKey, id)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, payload, nil
}

func (c *UpstreamClient) record(a models.UpstreamAttempt) {
	fields := []zap.Field{
		zap.String("operation", a.Operation),
		zap.String("base_url", a.BaseURL),
		zap.Int("status", a.StatusCode),
		zap.Duration("duration", a.Duration),
	}
	if a.Outcome == models.AttemptSuccess {
		c.logger.Info("upstream attempt succeeded", fields...)
	} else {
		c.logger.Warn("upstream attempt failed", append(fields, zap.String("reason", a.Error))...)
	}
	if c.observer != nil {
		c.observer.ObserveUpstreamAttempt(a.Operation, a.BaseURL, a.Outcome, a.Duration)
	}
}

// writeError maps the outcome of a failed write call to the portal taxonomy.
func writeError(err error) error {
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.AsOffline()
	}
	var rejected *rejection
	if errors.As(err, &rejected) {
		if rejected.statusCode == http.StatusNotFound {
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrUpstreamRejected.Code, appErrors.ErrUpstreamRejected.Status,
			fmt.Sprintf("backend rejected the request with status %d", rejected.statusCode))
	}
	return err
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
