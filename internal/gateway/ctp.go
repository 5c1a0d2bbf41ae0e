package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/ayo6706/payment-notification/internal/observability"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/semaphore"
)

// ClientConfig configures the commerce platform client.
type ClientConfig struct {
	APIURL         string
	AuthURL        string
	ProjectKey     string
	ClientID       string
	ClientSecret   string
	Concurrency    int
	RequestTimeout time.Duration
	MaxRetries     uint64
	RetryInterval  time.Duration
	UserAgent      string
}

// Client talks to the commerce platform's payment API. Outbound calls are bounded by
// Concurrency and transient failures are retried with exponential backoff.
type Client struct {
	http       *http.Client
	baseURL    string
	sem        *semaphore.Weighted
	timeout    time.Duration
	maxRetries uint64
	retryEvery time.Duration
	userAgent  string
}

// NewClient builds a client authenticated with the client-credentials flow. The token is
// cached and refreshed by the oauth2 transport.
func NewClient(cfg ClientConfig) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     strings.TrimRight(cfg.AuthURL, "/") + "/oauth/token",
		Scopes:       []string{"manage_project:" + cfg.ProjectKey},
	}
	return NewClientWithHTTP(cc.Client(context.Background()), cfg)
}

// NewClientWithHTTP builds a client on top of an already authenticated http.Client.
func NewClientWithHTTP(httpClient *http.Client, cfg ClientConfig) *Client {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "payment-notification"
	}
	return &Client{
		http:       httpClient,
		baseURL:    strings.TrimRight(cfg.APIURL, "/") + "/" + url.PathEscape(cfg.ProjectKey),
		sem:        semaphore.NewWeighted(int64(cfg.Concurrency)),
		timeout:    cfg.RequestTimeout,
		maxRetries: cfg.MaxRetries,
		retryEvery: cfg.RetryInterval,
		userAgent:  cfg.UserAgent,
	}
}

type updateBody struct {
	Version int64                 `json:"version"`
	Actions []domain.UpdateAction `json:"actions"`
}

// errorResponse is the platform's error envelope.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Errors     []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e errorResponse) hasCode(code string) bool {
	for _, item := range e.Errors {
		if item.Code == code {
			return true
		}
	}
	return false
}

type response struct {
	status int
	body   []byte
}

func (r *response) platformError() errorResponse {
	var e errorResponse
	_ = json.Unmarshal(r.body, &e)
	return e
}

func (c *Client) FetchByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	resp, err := c.do(ctx, "fetch_payment", http.MethodGet, "/payments/key="+url.PathEscape(reference), nil, false)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.status == http.StatusOK:
		var p domain.Payment
		if err := json.Unmarshal(resp.body, &p); err != nil {
			return nil, fmt.Errorf("%w: decode payment: %v", domain.ErrTransport, err)
		}
		return &p, nil
	case resp.status == http.StatusNotFound:
		return nil, fmt.Errorf("payment %q: %w", reference, domain.ErrPaymentNotFound)
	default:
		return nil, fmt.Errorf("%w: fetch payment %q: status %d: %s", domain.ErrTransport, reference, resp.status, resp.platformError().Message)
	}
}

func (c *Client) ConditionalUpdate(ctx context.Context, reference string, expectedVersion int64, actions []domain.UpdateAction) UpdateResult {
	body, err := json.Marshal(updateBody{Version: expectedVersion, Actions: actions})
	if err != nil {
		return transportFailure(fmt.Errorf("%w: encode update: %v", domain.ErrTransport, err))
	}

	resp, err := c.do(ctx, "update_payment", http.MethodPost, "/payments/key="+url.PathEscape(reference), body, true)
	if err != nil {
		return transportFailure(err)
	}

	switch resp.status {
	case http.StatusOK:
		var p domain.Payment
		if err := json.Unmarshal(resp.body, &p); err != nil {
			return transportFailure(fmt.Errorf("%w: decode updated payment: %v", domain.ErrTransport, err))
		}
		return applied(p.Version)
	case http.StatusConflict:
		return conflict(fmt.Errorf("payment %q at version %d: %w", reference, expectedVersion, domain.ErrVersionConflict))
	case http.StatusNotFound:
		return notFound(fmt.Errorf("payment %q: %w", reference, domain.ErrPaymentNotFound))
	default:
		return transportFailure(fmt.Errorf("%w: update payment %q: status %d: %s", domain.ErrTransport, reference, resp.status, resp.platformError().Message))
	}
}

// do performs one logical request. Network errors, 429 and 5xx are retried; any other
// status is returned to the caller. Writes are detached from ctx cancellation once sent,
// but cancellation still stops further retries.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, write bool) (*response, error) {
	ctx, span := otel.Tracer("gateway").Start(ctx, "ctp."+op)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("ctp.path", path))

	var resp *response
	attempt := 0
	operation := func() error {
		attempt++
		r, err := c.roundTrip(ctx, method, path, body, write)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			zap.L().Debug("ctp request failed", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		if r.status == http.StatusTooManyRequests || r.status >= http.StatusInternalServerError {
			zap.L().Debug("ctp request retryable status", zap.String("op", op), zap.Int("attempt", attempt), zap.Int("status", r.status))
			return fmt.Errorf("status %d", r.status)
		}
		resp = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryEvery
	policy.MaxElapsedTime = 0
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx))
	if err != nil {
		observability.IncrementGatewayRequest(op, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s canceled after %d attempts: %w", domain.ErrTransport, op, attempt, err)
		}
		return nil, fmt.Errorf("%w: %s failed after %d attempts: %v", domain.ErrTransport, op, attempt, err)
	}
	observability.IncrementGatewayRequest(op, strconv.Itoa(resp.status))
	span.SetAttributes(attribute.Int("http.status_code", resp.status))
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, write bool) (*response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	reqCtx := ctx
	if write {
		reqCtx = context.WithoutCancel(ctx)
	}
	reqCtx, cancel := context.WithTimeout(reqCtx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{status: res.StatusCode, body: payload}, nil
}
