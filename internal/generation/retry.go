package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retrying retries failed backend calls with exponential backoff. Missing
// credentials and rate limiting are returned immediately.
type Retrying struct {
	next     Backend
	attempts uint64
	backoff  time.Duration
}

var _ Backend = (*Retrying)(nil)

// NewRetrying wraps next with up to attempts retries after the first call.
func NewRetrying(next Backend, attempts uint64, backoff time.Duration) *Retrying {
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Retrying{next: next, attempts: attempts, backoff: backoff}
}

func (r *Retrying) policy() retry.Backoff {
	return retry.WithMaxRetries(r.attempts, retry.NewExponential(r.backoff))
}

// GenerateText calls the wrapped backend, retrying transient failures.
func (r *Retrying) GenerateText(ctx context.Context, req Request, creds Credentials, provider Provider) (string, error) {
	var text string
	attempt := 0
	err := retry.Do(ctx, r.policy(), func(ctx context.Context) error {
		attempt++
		var err error
		text, err = r.next.GenerateText(ctx, req, creds, provider)
		return classify(err, attempt)
	})
	return text, err
}

// GenerateImage calls the wrapped backend, retrying transient failures.
func (r *Retrying) GenerateImage(ctx context.Context, prompt string, creds Credentials) (*Image, error) {
	var img *Image
	attempt := 0
	err := retry.Do(ctx, r.policy(), func(ctx context.Context) error {
		attempt++
		var err error
		img, err = r.next.GenerateImage(ctx, prompt, creds)
		return classify(err, attempt)
	})
	return img, err
}

func classify(err error, attempt int) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	slog.Warn("generation attempt failed",
		"component", "generation",
		"attempt", attempt,
		"error", err,
	)
	return retry.RetryableError(err)
}
