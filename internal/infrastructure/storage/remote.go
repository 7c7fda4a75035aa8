package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/cardspace/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// RemoteStore reads and writes records on another cardspace server
type RemoteStore struct {
	client  *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// NewRemoteStore creates a client for the server at baseURL
func NewRemoteStore(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("User-Agent", "cardspace-sync/1.0").
		SetHeader("Accept", "application/json")
	client.SetTransport(retryClient.HTTPClient.Transport)
	client.JSONMarshal = sonic.Marshal
	client.JSONUnmarshal = sonic.Unmarshal

	s := &RemoteStore{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(20), 40),
		logger:  logger,
	}
	s.breaker = resilience.New("remote-store", resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Remote store breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return s
}

// Name implements RecordStore
func (s *RemoteStore) Name() string { return "remote" }

// Breaker exposes the breaker guarding remote calls
func (s *RemoteStore) Breaker() *resilience.Breaker { return s.breaker }

// Load implements RecordStore
func (s *RemoteStore) Load(ctx context.Context, userID string) (*types.LayoutRecord, error) {
	var (
		rec      types.LayoutRecord
		notFound bool
	)
	err := s.do(ctx, func(ctx context.Context) error {
		resp, err := s.request(ctx).
			SetResult(&rec).
			Get("/records/" + url.PathEscape(userID))
		if err != nil {
			return fmt.Errorf("failed to fetch record: %w", err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			// not a failure of the remote
			notFound = true
			return nil
		}
		if resp.IsError() {
			return fmt.Errorf("fetch record returned %s", resp.Status())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Save implements RecordStore
func (s *RemoteStore) Save(ctx context.Context, rec *types.LayoutRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	return s.do(ctx, func(ctx context.Context) error {
		resp, err := s.request(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(rec).
			Put("/records/" + url.PathEscape(rec.UserID))
		if err != nil {
			return fmt.Errorf("failed to push record: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("push record returned %s", resp.Status())
		}
		return nil
	})
}

// request carries the caller's trace to the remote server
func (s *RemoteStore) request(ctx context.Context) *resty.Request {
	headers := make(map[string]string, 2)
	tracing.InjectTraceContext(ctx, headers)
	return s.client.R().SetContext(ctx).SetHeaders(headers)
}

func (s *RemoteStore) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	err := s.breaker.Do(ctx, fn)
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return fmt.Errorf("remote store unavailable: %w", err)
	}
	return err
}
