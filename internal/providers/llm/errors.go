package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/porchlabs/porch/internal/core"
)

// classifyStatus maps an HTTP error response to the core provider taxonomy
// so the dispatcher can distinguish tier-fall-through causes in its logs.
func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: http %d: %s", core.ErrProviderAuth, status, truncateBody(body))
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: http %d: %s", core.ErrProviderRateLimited, status, truncateBody(body))
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", core.ErrProviderUnavailable, status, truncateBody(body))
	default:
		return fmt.Errorf("provider error: http %d: %s", status, truncateBody(body))
	}
}

func classifyTransportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%w: %v", core.ErrProviderTimeout, err)
	case errors.Is(err, context.Canceled):
		// Caller cancellation is not a provider failure; preserve it so the
		// dispatcher stops the cascade instead of falling through.
		return err
	default:
		return fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err)
	}
}

func truncateBody(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
