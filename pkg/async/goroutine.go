// Package async provides safe concurrent execution for background tasks
// such as post-response search history recording.
package async

import (
	"context"
	"log"
	"runtime/debug"
	"time"
)

// SafeGo executes fn in a goroutine with context cancellation, panic
// recovery, and timeout enforcement. Use this instead of a bare `go func()`
// for fire-and-forget work that must never crash the process.
//
// The task context is detached from request cancellation: history recording
// should complete even though the response has already been written.
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic in background task %q: %v\n%s", taskName, r, debug.Stack())
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("background task %q failed: %v", taskName, err)
		}
	}()
}
