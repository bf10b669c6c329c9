package async

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeGo_RunsTask(t *testing.T) {
	done := make(chan struct{})
	SafeGo(context.Background(), time.Second, "test task", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	done := make(chan struct{})
	SafeGo(context.Background(), time.Second, "panicking task", func(ctx context.Context) error {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	// Reaching here without the test binary crashing is the assertion.
}

func TestSafeGo_SurvivesParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	ran := make(chan error, 1)
	SafeGo(parent, time.Second, "detached task", func(ctx context.Context) error {
		ran <- ctx.Err()
		return nil
	})

	select {
	case err := <-ran:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}
