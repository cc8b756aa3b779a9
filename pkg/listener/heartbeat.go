package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/replicatedhq/chartsmith-preview/pkg/logger"
	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/realtime"
	"go.uber.org/zap"
)

var (
	heartbeatOnce sync.Once
	heartbeatDone chan struct{}
)

// StartHeartbeat initiates a goroutine that periodically pings database
// connections to prevent them from becoming stale during idle periods
func StartHeartbeat(ctx context.Context) {
	heartbeatOnce.Do(func() {
		heartbeatDone = make(chan struct{})

		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					if err := ensureActiveConnection(ctx); err != nil {
						logger.Warn("Connection heartbeat check failed", zap.Error(err))
					}

					if err := realtime.Ping(ctx); err != nil {
						logger.Warn("Realtime system heartbeat check failed", zap.Error(err))
					}

				case <-ctx.Done():
					logger.Info("Stopping connection heartbeat due to context cancellation")
					close(heartbeatDone)
					return

				case <-heartbeatDone:
					logger.Info("Stopping connection heartbeat")
					return
				}
			}
		}()

		logger.Info("Started connection heartbeat")
	})
}

func ensureActiveConnection(ctx context.Context) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	var result int
	if err := conn.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("connection check failed: %w", err)
	}

	return nil
}
