package upstream

import (
	"context"
	"errors"
	"sync"
)

// ErrAuthExpired is returned when a 401 survives the single refresh attempt.
// It propagates to the session boundary; nothing below retries further.
var ErrAuthExpired = errors.New("upstream: authentication expired")

// TokenSource supplies bearer tokens for marketplace calls. Implementations
// own the refresh contract; the client only ever asks for a token and
// reports the one that was rejected.
type TokenSource interface {
	// Token returns a bearer token usable right now.
	Token(ctx context.Context) (string, error)
	// Invalidate tells the source a token was rejected upstream. The next
	// Token call is expected to produce a fresh one, or fail.
	Invalidate(rejected string)
}

// StaticTokenSource returns a fixed token and cannot refresh.
type StaticTokenSource struct {
	Value string
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s.Value == "" {
		return "", ErrAuthExpired
	}
	return s.Value, nil
}

func (s *StaticTokenSource) Invalidate(rejected string) {
	if rejected == s.Value {
		s.Value = ""
	}
}

// RefreshFunc exchanges a refresh credential for a new access token.
type RefreshFunc func(ctx context.Context) (string, error)

// RefreshingTokenSource caches an access token and refreshes it on demand.
// Concurrent callers hitting 401s share a single in-flight refresh: the
// first rejection triggers the exchange, the rest wait for its result
// instead of storming the refresh endpoint.
type RefreshingTokenSource struct {
	Refresh RefreshFunc

	mu      sync.Mutex
	current string
	pending chan struct{} // closed when the in-flight refresh finishes
	lastErr error
}

func NewRefreshingTokenSource(initial string, refresh RefreshFunc) *RefreshingTokenSource {
	return &RefreshingTokenSource{Refresh: refresh, current: initial}
}

func (s *RefreshingTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	for {
		if s.current != "" {
			tok := s.current
			s.mu.Unlock()
			return tok, nil
		}
		if s.pending == nil {
			// This caller performs the refresh; others wait on pending.
			done := make(chan struct{})
			s.pending = done
			s.mu.Unlock()

			tok, err := s.Refresh(ctx)

			s.mu.Lock()
			s.pending = nil
			close(done)
			if err != nil {
				// One attempt per rejection. The performer and every waiter
				// fail hard; the next Token call may try again.
				s.lastErr = ErrAuthExpired
				s.mu.Unlock()
				return "", ErrAuthExpired
			}
			s.current = tok
			s.lastErr = nil
			continue
		}

		done := s.pending
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		s.mu.Lock()
		if s.lastErr != nil {
			err := s.lastErr
			s.mu.Unlock()
			return "", err
		}
	}
}

func (s *RefreshingTokenSource) Invalidate(rejected string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == rejected {
		s.current = ""
	}
}

type ctxKey int

const bearerKey ctxKey = 0

// WithBearer attaches a caller-supplied bearer token to the context. A
// context token takes precedence over the client's TokenSource and is never
// refreshed; a rejection surfaces as ErrAuthExpired to the caller.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// BearerFromContext extracts a caller-supplied bearer token, if any.
func BearerFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(bearerKey).(string)
	return tok, ok && tok != ""
}
