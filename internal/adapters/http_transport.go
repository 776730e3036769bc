package adapters

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"minapt/internal/shared"
)

const defaultHTTPTimeout = 60 * time.Second
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second

// HTTPConfig holds the transport settings shared by the index and archive
// fetchers. Zero values fall back to defaults.
type HTTPConfig struct {
	TimeoutSec   int
	Retries      int
	RetryDelayMs int
}

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(cfg HTTPConfig) httpRetryConfig {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := cfg.Retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(cfg.RetryDelayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retryCount,
		baseDelay: baseDelay,
	}
}

// doRequest issues a GET and retries transport errors and 5xx/429 answers.
// The last attempt hands any response back with its body open so callers
// can report the status themselves.
func doRequest(ctx context.Context, client *http.Client, url string, cfg httpRetryConfig) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create request").
			WithCause(err)
	}

	var lastErr error
	for attempt := 0; attempt < cfg.retries; attempt++ {
		if attempt > 0 {
			log.Ctx(ctx).Debug().Str("url", url).Int("attempt", attempt+1).Err(lastErr).Msg("retrying request")
			if err := sleepContext(ctx, cfg.backoff(attempt-1)); err != nil {
				return nil, requestCanceled(err)
			}
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, requestCanceled(ctx.Err())
			}
			lastErr = err
			continue
		}
		if retryableStatus(resp.StatusCode) && attempt < cfg.retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = shared.HTTPStatusError(resp.StatusCode, url)
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no attempts made")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("request failed: %s", url)).
		WithCause(lastErr)
}

func retryableStatus(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// backoff doubles the base delay per attempt up to maxHTTPRetryDelay and
// adds up to half of it again as jitter.
func (c httpRetryConfig) backoff(attempt int) time.Duration {
	delay := min(c.baseDelay<<attempt, maxHTTPRetryDelay)
	return delay + rand.N(delay/2+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func requestCanceled(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request canceled").
		WithCause(err)
}
