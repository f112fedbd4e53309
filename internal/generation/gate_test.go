package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// countingBackend records calls and fails the calls listed in failOn (1-based).
type countingBackend struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]error
	reply  string
}

func (b *countingBackend) next() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.calls, b.failOn[b.calls]
}

func (b *countingBackend) GenerateText(ctx context.Context, req Request, creds Credentials, provider Provider) (string, error) {
	if _, err := b.next(); err != nil {
		return "", err
	}
	return b.reply, nil
}

func (b *countingBackend) GenerateImage(ctx context.Context, prompt string, creds Credentials) (*Image, error) {
	if _, err := b.next(); err != nil {
		return nil, err
	}
	return &Image{URL: "https://img.example/x.png"}, nil
}

func TestGate_RejectsWithinInterval(t *testing.T) {
	inner := &countingBackend{reply: "ok"}
	gate := NewGate(inner, time.Hour)

	if _, err := gate.GenerateText(context.Background(), Request{}, Credentials{}, ""); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := gate.GenerateText(context.Background(), Request{}, Credentials{}, ""); !errors.Is(err, ErrRateLimited) {
		t.Errorf("second call: expected ErrRateLimited, got %v", err)
	}
	if _, err := gate.GenerateImage(context.Background(), "p", Credentials{}); !errors.Is(err, ErrRateLimited) {
		t.Errorf("image call: expected ErrRateLimited, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("rejected calls must not reach the backend, got %d calls", inner.calls)
	}
}

func TestGate_AllowsAfterInterval(t *testing.T) {
	inner := &countingBackend{reply: "ok"}
	gate := NewGate(inner, 20*time.Millisecond)

	if _, err := gate.GenerateText(context.Background(), Request{}, Credentials{}, ""); err != nil {
		t.Fatal(err)
	}
	time.Sleep(40 * time.Millisecond)
	if _, err := gate.GenerateText(context.Background(), Request{}, Credentials{}, ""); err != nil {
		t.Errorf("call after interval: %v", err)
	}
}

func TestGate_ZeroIntervalDisabled(t *testing.T) {
	inner := &countingBackend{reply: "ok"}
	gate := NewGate(inner, 0)
	for i := 0; i < 5; i++ {
		if _, err := gate.GenerateText(context.Background(), Request{}, Credentials{}, ""); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}
