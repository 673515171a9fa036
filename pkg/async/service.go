package async

import (
	"context"
	"time"
)

// Service is a long-running background task driven at a fixed interval. Start
// blocks until the context is cancelled.
type Service interface {
	Start(ctx context.Context, interval time.Duration) error
}
