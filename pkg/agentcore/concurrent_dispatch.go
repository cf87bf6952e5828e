package agentcore

import (
	"context"
	"sync"
	"time"

	"github.com/haasonsaas/orchestrator-core/internal/retry"
)

// ConcurrentDispatcherConfig configures the opt-in concurrent extension,
// grounded on the teacher's ExecutorConfig (internal/agent/executor.go).
type ConcurrentDispatcherConfig struct {
	MaxConcurrency int
	RetryConfig    retry.Config
}

// DefaultConcurrentDispatcherConfig mirrors the teacher's
// DefaultExecutorConfig defaults.
func DefaultConcurrentDispatcherConfig() ConcurrentDispatcherConfig {
	return ConcurrentDispatcherConfig{
		MaxConcurrency: 5,
		RetryConfig: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Factor:       2.0,
			Jitter:       true,
		},
	}
}

// ConcurrentDispatcher is the explicit opt-in extension named in spec
// §4.4: it executes tool calls in parallel, bounded by a semaphore, with
// retry/backoff per call via internal/retry, trimmed from the teacher's
// fuller retry package down to the Do/DoWithValue path this dispatcher
// actually drives. Despite overlapping execution, results preserve the
// original provider-emitted order, so invariant M1 (tool_call_id
// correlation) still holds downstream.
type ConcurrentDispatcher struct {
	cfg ConcurrentDispatcherConfig
	sem chan struct{}
}

// NewConcurrentDispatcher builds a dispatcher with the given config.
func NewConcurrentDispatcher(cfg ConcurrentDispatcherConfig) *ConcurrentDispatcher {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}
	return &ConcurrentDispatcher{cfg: cfg, sem: make(chan struct{}, cfg.MaxConcurrency)}
}

func (d *ConcurrentDispatcher) Dispatch(ctx context.Context, rc *RunContext, agent *Agent, calls []ToolCall) ([]ToolResult, error) {
	registry := newToolRegistry(agent.Tools)
	results := make([]ToolResult, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(idx int, call ToolCall) {
			defer wg.Done()

			select {
			case d.sem <- struct{}{}:
				defer func() { <-d.sem }()
			case <-ctx.Done():
				results[idx] = ToolResult{ToolCallID: call.ID, Content: "dispatch cancelled", IsError: true}
				return
			}

			var result ToolResult
			_, _ = retry.DoWithValue(ctx, d.cfg.RetryConfig, func() (struct{}, error) {
				result = dispatchOne(ctx, rc, registry, call)
				if result.IsError {
					return struct{}{}, errDispatchRetry
				}
				return struct{}{}, nil
			})
			results[idx] = result
		}(i, call)
	}

	wg.Wait()
	return results, nil
}

// errDispatchRetry signals retry.Do to retry a failed tool call; it is
// never surfaced to callers since results[idx] always carries the last
// attempt's ToolResult regardless of how retry.Do concluded.
var errDispatchRetry = retryableDispatchError{}

type retryableDispatchError struct{}

func (retryableDispatchError) Error() string { return "tool call did not succeed" }
