package upstream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRefreshingTokenSource_RefreshesAfterInvalidate(t *testing.T) {
	var attempts int32
	src := NewRefreshingTokenSource("tok-1", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&attempts, 1)
		return "tok-2", nil
	})

	tok, err := src.Token(context.Background())
	if err != nil || tok != "tok-1" {
		t.Fatalf("initial token = %q, %v", tok, err)
	}
	src.Invalidate("tok-1")

	tok, err = src.Token(context.Background())
	if err != nil || tok != "tok-2" {
		t.Fatalf("refreshed token = %q, %v", tok, err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("refresh attempts = %d, want 1", got)
	}
}

func TestRefreshingTokenSource_FailedRefreshFailsHard(t *testing.T) {
	var attempts int32
	src := NewRefreshingTokenSource("", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&attempts, 1)
		return "", errors.New("refresh endpoint down")
	})

	if _, err := src.Token(context.Background()); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("error = %v, want ErrAuthExpired", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("refresh attempts = %d, want exactly 1 per Token call", got)
	}

	// The failure is not sticky: a later call makes one fresh attempt.
	if _, err := src.Token(context.Background()); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("second call error = %v, want ErrAuthExpired", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("refresh attempts = %d, want 2", got)
	}
}

func TestRefreshingTokenSource_ConcurrentCallersShareOneRefresh(t *testing.T) {
	var attempts int32
	release := make(chan struct{})
	src := NewRefreshingTokenSource("", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&attempts, 1)
		<-release
		return "tok-fresh", nil
	})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = src.Token(context.Background())
		}(i)
	}
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("refresh attempts = %d, want 1 shared across callers", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil || results[i] != "tok-fresh" {
			t.Errorf("caller %d: token = %q, err = %v", i, results[i], errs[i])
		}
	}
}

func TestRefreshingTokenSource_WaitersSeeSharedFailure(t *testing.T) {
	var attempts int32
	started := make(chan struct{})
	release := make(chan struct{})
	src := NewRefreshingTokenSource("", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&attempts, 1)
		close(started)
		<-release
		return "", errors.New("refresh endpoint down")
	})

	performerErr := make(chan error, 1)
	go func() {
		_, err := src.Token(context.Background())
		performerErr <- err
	}()
	<-started

	// The refresh is in flight; this caller must wait on it rather than
	// start a second attempt.
	waiterErr := make(chan error, 1)
	go func() {
		_, err := src.Token(context.Background())
		waiterErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-performerErr; !errors.Is(err, ErrAuthExpired) {
		t.Errorf("performer err = %v, want ErrAuthExpired", err)
	}
	if err := <-waiterErr; !errors.Is(err, ErrAuthExpired) {
		t.Errorf("waiter err = %v, want ErrAuthExpired", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("refresh attempts = %d, want 1", got)
	}
}
