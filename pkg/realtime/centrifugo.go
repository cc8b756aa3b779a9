package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/replicatedhq/chartsmith-preview/pkg/logger"
	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/realtime/types"
	"github.com/tuvistavie/securerandom"
)

var (
	centrifugoConfig *types.Config
)

func Init(c *types.Config) {
	centrifugoConfig = c

	// clients that reconnect replay recent events from the table; keep
	// it short
	go func() {
		for {
			time.Sleep(5 * time.Second)

			func() {
				conn := persistence.MustGetPooledPostgresSession()
				defer conn.Release()

				_, err := conn.Exec(context.Background(), `
				DELETE FROM realtime_replay
				WHERE created_at < NOW() - INTERVAL '10 seconds'
			`)
				if err != nil {
					logger.Errorf("Failed to delete old realtime_replay records: %v", err)
				}
			}()
		}
	}()
}

func SendEvent(ctx context.Context, r types.Recipient, e types.Event) error {
	messageData, err := e.GetMessageData()
	if err != nil {
		return err
	}

	for _, userID := range r.GetUserIDs() {
		if err := storeEventForReplay(ctx, r, e, messageData); err != nil {
			logger.Errorf("Failed to store event for replay: %v", err)
		}

		userChannelName := fmt.Sprintf("%s#%s", e.GetChannelName(), userID)
		if err := sendMessage(ctx, userChannelName, messageData); err != nil {
			logger.Errorf("Failed to send message to user %s: %v", userID, err)
		}
	}

	return nil
}

func storeEventForReplay(ctx context.Context, r types.Recipient, e types.Event, messageData map[string]interface{}) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	id, err := securerandom.Hex(16)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO realtime_replay (id, created_at, user_id, channel_name, message_data)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = conn.Exec(ctx, query, id, time.Now(), r.GetUserIDs()[0], e.GetChannelName(), messageData)
	if err != nil {
		return err
	}

	return nil
}

// Ping checks that both the replay table and the Centrifugo API are
// reachable.
func Ping(ctx context.Context) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	var count int
	err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM realtime_replay LIMIT 1").Scan(&count)
	if err != nil {
		return fmt.Errorf("realtime database check failed: %w", err)
	}

	if centrifugoConfig == nil {
		return fmt.Errorf("centrifugo config not initialized")
	}

	requestBody := map[string]interface{}{
		"method": "info",
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("error encoding ping JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", centrifugoConfig.Address, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating ping request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "apikey "+centrifugoConfig.APIKey)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending ping to Centrifugo server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("centrifugo ping failed with status code: %d", resp.StatusCode)
	}

	return nil
}

func sendMessage(ctx context.Context, channelName string, data map[string]interface{}) error {
	if centrifugoConfig == nil {
		return fmt.Errorf("centrifugo config not initialized")
	}

	requestBody := map[string]interface{}{
		"method": "publish",
		"params": map[string]interface{}{
			"channel": channelName,
			"data":    data,
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("error encoding publish JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", centrifugoConfig.Address, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating publish request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "apikey "+centrifugoConfig.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request to Centrifugo server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send message, status code: %d", resp.StatusCode)
	}

	return nil
}
