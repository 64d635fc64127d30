package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

// RetryPolicy bounds one suspension point: a first attempt, and on timeout a
// single retry with a longer deadline.
type RetryPolicy struct {
	Timeout      time.Duration
	RetryTimeout time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.RetryTimeout <= 0 {
		p.RetryTimeout = DefaultRetryTimeout
	}

	return p
}

// withRetry runs call under the policy. Any error that survives is wrapped
// with domain.ErrTransport.
func withRetry[T any](ctx context.Context, policy RetryPolicy, call func(context.Context) (T, error)) (T, error) {
	policy = policy.withDefaults()

	result, err := attempt(ctx, policy.Timeout, call)
	if err == nil {
		return result, nil
	}
	if !isTimeout(err) || ctx.Err() != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	result, err = attempt(ctx, policy.RetryTimeout, call)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: retry: %w", domain.ErrTransport, err)
	}

	return result, nil
}

func attempt[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return call(callCtx)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
