package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerAnimatesAndStops(t *testing.T) {
	var out syncBuffer
	s := startSpinner(context.Background(), &out, "Rendering...")
	time.Sleep(3 * spinnerInterval)
	s.stop()
	s.stop()

	if !strings.Contains(out.String(), "Rendering...") {
		t.Errorf("output %q does not show the message", out.String())
	}
}

func TestSpinnerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := startSpinner(ctx, &syncBuffer{}, "Waiting...")
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after context cancellation")
	}
	s.stop()
}

func TestWithSpinner(t *testing.T) {
	wantErr := errors.New("boom")
	err := withSpinner(context.Background(), &syncBuffer{}, "Working...", func(ctx context.Context) error {
		if ctx.Err() != nil {
			t.Error("context passed to fn is already done")
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("withSpinner() = %v, want %v", err, wantErr)
	}
}
