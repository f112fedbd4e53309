package generation

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum interval between consecutive calls. Calls inside the
// interval are rejected with ErrRateLimited rather than queued.
type Gate struct {
	next    Backend
	limiter *rate.Limiter
}

var _ Backend = (*Gate)(nil)

// NewGate wraps next. A non-positive interval disables the gate.
func NewGate(next Backend, minInterval time.Duration) *Gate {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Gate{next: next, limiter: rate.NewLimiter(limit, 1)}
}

// GenerateText forwards to the wrapped backend if the interval has elapsed.
func (g *Gate) GenerateText(ctx context.Context, req Request, creds Credentials, provider Provider) (string, error) {
	if !g.limiter.Allow() {
		return "", ErrRateLimited
	}
	return g.next.GenerateText(ctx, req, creds, provider)
}

// GenerateImage forwards to the wrapped backend if the interval has elapsed.
func (g *Gate) GenerateImage(ctx context.Context, prompt string, creds Credentials) (*Image, error) {
	if !g.limiter.Allow() {
		return nil, ErrRateLimited
	}
	return g.next.GenerateImage(ctx, prompt, creds)
}
