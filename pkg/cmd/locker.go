package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/bizflow/pkg/locker"
)

// NewLocker returns the instance locker named by lockerURL and a function that
// releases its resources. An empty URL or "memory" keeps locks in process, which
// is only safe with a single engine replica.
func NewLocker(ctx context.Context, lockerURL string, logger *slog.Logger) (locker.Locker, func() error) {
	switch {
	case lockerURL == "" || lockerURL == "memory":
		return locker.NewMemoryLocker(), func() error { return nil }
	case strings.HasPrefix(lockerURL, "redis://"), strings.HasPrefix(lockerURL, "rediss://"):
		redisLocker, err := locker.NewRedisLockerFromURL(ctx, lockerURL, logger)
		if err != nil {
			panic(fmt.Errorf("failed to create redis locker: %w", err))
		}

		return redisLocker, redisLocker.Close
	default:
		panic("Unsupported locker URL: " + lockerURL)
	}
}
