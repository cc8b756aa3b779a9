package listener

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/replicatedhq/chartsmith-preview/pkg/logger"
	"github.com/replicatedhq/chartsmith-preview/pkg/param"
	"go.uber.org/zap"
)

// NotificationHandler is a function type that handles notifications
type NotificationHandler func(notification *pgconn.Notification) error

// LockKeyExtractor is a function type that extracts the lock key from the payload
type LockKeyExtractor func(payload []byte) (string, error)

// Listener manages PostgreSQL LISTEN/NOTIFY subscriptions
type Listener struct {
	conn              *pgx.Conn
	handlers          map[string]NotificationHandler
	reconnectInterval time.Duration
	processors        map[string]*queueProcessor
	pgURI             string
	queueLocks        map[string]map[string]chan struct{}
	mu                sync.Mutex
}

const (
	WorkQueueTable = "work_queue"
)

type queueProcessor struct {
	channel          string
	handler          NotificationHandler
	workerPool       chan struct{}
	processing       bool
	pollTicker       *time.Ticker
	maxWorkers       int
	maxDuration      time.Duration // time a task can be processing before considered failed
	lockKeyExtractor LockKeyExtractor
}

// NewListener creates a new Listener instance
func NewListener() *Listener {
	return &Listener{
		handlers:          make(map[string]NotificationHandler),
		reconnectInterval: 5 * time.Second,
		processors:        make(map[string]*queueProcessor),
		pgURI:             param.Get().PGURI,
		queueLocks:        make(map[string]map[string]chan struct{}),
	}
}

// AddHandler registers a handler for a specific type of work
func (l *Listener) AddHandler(ctx context.Context, channel string, maxWorkers int, maxDuration time.Duration, handler NotificationHandler, lockKeyExtractor LockKeyExtractor) error {
	l.handlers[channel] = handler

	l.processors[channel] = &queueProcessor{
		channel:          channel,
		handler:          handler,
		workerPool:       make(chan struct{}, maxWorkers),
		pollTicker:       time.NewTicker(5 * time.Second),
		maxWorkers:       maxWorkers,
		maxDuration:      maxDuration,
		lockKeyExtractor: lockKeyExtractor,
	}

	return nil
}

// Start begins listening for notifications
func (l *Listener) Start(ctx context.Context) error {
	logger.Info("Starting listener")

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var err error
	l.conn, err = pgx.Connect(connectCtx, l.pgURI)
	if err != nil {
		logger.Error(fmt.Errorf("failed to connect to database: %w", err))
		if reconnectErr := l.reconnect(ctx); reconnectErr != nil {
			return fmt.Errorf("failed to establish initial database connection: %w", reconnectErr)
		}
	}

	var one int
	if err := l.conn.QueryRow(connectCtx, "SELECT 1").Scan(&one); err != nil {
		logger.Error(fmt.Errorf("initial connection test failed: %w", err))
		if reconnectErr := l.reconnect(ctx); reconnectErr != nil {
			return fmt.Errorf("failed to establish valid database connection: %w", reconnectErr)
		}
	}

	if err := l.listenAll(ctx); err != nil {
		return err
	}

	// start processing any work that queued while we were offline
	for _, processor := range l.processors {
		if !processor.processing {
			processor.processing = true
			go l.processQueue(ctx, processor)
		}
	}

	go l.processNotifications(ctx)

	logger.Info("Listener started",
		zap.Int("channelCount", len(l.handlers)))
	return nil
}

// listenAll subscribes the current connection to every registered channel.
func (l *Listener) listenAll(ctx context.Context) error {
	for channel := range l.handlers {
		listenCtx, listenCancel := context.WithTimeout(ctx, 10*time.Second)

		var listenErr error
		for attempt := 0; attempt < 3; attempt++ {
			if _, err := l.conn.Exec(listenCtx, fmt.Sprintf("LISTEN %s", channel)); err != nil {
				listenErr = err
				logger.Warn("LISTEN command failed, retrying",
					zap.String("channel", channel),
					zap.Int("attempt", attempt+1),
					zap.Error(err))

				wait := 100 * time.Millisecond
				if strings.Contains(err.Error(), "conn busy") {
					wait = 500 * time.Millisecond
				}
				select {
				case <-time.After(wait):
				case <-listenCtx.Done():
				}
			} else {
				listenErr = nil
				break
			}
		}
		listenCancel()

		if listenErr != nil {
			return fmt.Errorf("failed to listen on channel %s: %w", channel, listenErr)
		}
	}

	return nil
}

// processNotifications waits for notifications and wakes the matching queue
// processor. The actual work is always pulled from the work_queue table, so a
// missed notification only delays processing until the next poll tick.
func (l *Listener) processNotifications(ctx context.Context) {
	consecutiveErrors := 0
	maxConsecutiveErrors := 3

	for {
		if ctx.Err() != nil {
			logger.Info("Context canceled, exiting notification processor")
			return
		}

		if l.conn == nil {
			if err := l.reconnect(ctx); err != nil {
				logger.Error(fmt.Errorf("failed to reconnect: %w", err))
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}
		}

		waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		notification, err := l.conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}

			if strings.Contains(err.Error(), "conn busy") {
				select {
				case <-time.After(500 * time.Millisecond):
				case <-ctx.Done():
					return
				}
				continue
			}

			if strings.Contains(err.Error(), "closed network connection") ||
				strings.Contains(err.Error(), "connection reset by peer") {
				logger.Warn("Connection appears to be closed, forcing reconnection")
				l.conn = nil
				continue
			}

			consecutiveErrors++
			if strings.Contains(err.Error(), "context deadline exceeded") || strings.Contains(err.Error(), "timeout") {
				// expected during periods of inactivity
				logger.Debug("No notification received before wait timeout",
					zap.Int("consecutiveErrors", consecutiveErrors))
			} else {
				logger.Error(fmt.Errorf("failed to wait for notification: %w", err),
					zap.Int("consecutiveErrors", consecutiveErrors))
			}

			if consecutiveErrors >= maxConsecutiveErrors ||
				strings.Contains(err.Error(), "terminating connection") {
				if err := l.reconnect(ctx); err != nil {
					logger.Error(fmt.Errorf("failed to reconnect: %w", err))
					select {
					case <-time.After(5 * time.Second):
					case <-ctx.Done():
						return
					}
				} else {
					consecutiveErrors = 0
				}
			}
			continue
		}

		consecutiveErrors = 0

		processor, exists := l.processors[notification.Channel]
		if !exists {
			logger.Warn("no processor registered for channel", zap.String("channel", notification.Channel))
			continue
		}

		if !processor.processing {
			processor.processing = true
			go l.processQueue(ctx, processor)
		}
	}
}

type queuedMessage struct {
	id           string
	payload      []byte
	attemptCount int
}

// processQueue drains available work for a channel. Messages are claimed
// atomically with FOR UPDATE SKIP LOCKED so multiple processes can share a
// queue; a message whose processing exceeds maxDuration becomes claimable
// again with an incremented attempt count.
func (l *Listener) processQueue(ctx context.Context, processor *queueProcessor) {
	defer func() { processor.processing = false }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-processor.pollTicker.C:
		default:
		}

		messages, err := l.claimMessages(ctx, processor)
		if err != nil {
			logger.Error(fmt.Errorf("failed to claim messages for channel %s: %w", processor.channel, err))
			return
		}

		if len(messages) == 0 {
			// nothing queued; sleep until the next notification
			return
		}

		logger.Info("processing messages",
			zap.Int("count", len(messages)),
			zap.String("channel", processor.channel))

		for _, msg := range messages {
			if msg.attemptCount > 0 {
				logger.Info("processing message retry",
					zap.String("id", msg.id),
					zap.Int("attempt", msg.attemptCount))
			}

			processor.workerPool <- struct{}{}
			go l.processMessage(ctx, processor, msg)
		}
	}
}

func (l *Listener) claimMessages(ctx context.Context, processor *queueProcessor) ([]queuedMessage, error) {
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(dbCtx, l.pgURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(dbCtx)

	rows, err := conn.Query(dbCtx, fmt.Sprintf(`
		WITH next_available_messages AS (
			SELECT id, payload
			FROM %s
			WHERE completed_at IS NULL
			AND channel = $1
			AND (
				processing_started_at IS NULL
				OR processing_started_at < NOW() - $2::interval
			)
			ORDER BY created_at ASC
			LIMIT %d
			FOR UPDATE SKIP LOCKED
		)
		UPDATE %s AS wq
		SET processing_started_at = NOW(),
			attempt_count = CASE
				WHEN wq.processing_started_at IS NOT NULL THEN COALESCE(wq.attempt_count, 0) + 1
				ELSE 0
			END
		FROM next_available_messages
		WHERE wq.id = next_available_messages.id
		RETURNING wq.id, wq.payload, COALESCE(wq.attempt_count, 0)::int`,
		WorkQueueTable, processor.maxWorkers, WorkQueueTable),
		processor.channel, processor.maxDuration.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []queuedMessage{}
	for rows.Next() {
		var msg queuedMessage
		if err := rows.Scan(&msg.id, &msg.payload, &msg.attemptCount); err != nil {
			logger.Error(fmt.Errorf("failed to scan message: %w", err))
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

func (l *Listener) processMessage(ctx context.Context, processor *queueProcessor, msg queuedMessage) {
	defer func() { <-processor.workerPool }()

	startTime := time.Now()

	notification := &pgconn.Notification{
		Channel: processor.channel,
		Payload: string(msg.payload),
	}

	if processor.lockKeyExtractor != nil {
		lockKey, err := processor.lockKeyExtractor(msg.payload)
		if err != nil {
			logger.Error(fmt.Errorf("failed to extract lock key: %w", err))
			return
		}
		if lockKey != "" {
			lockChan := l.getQueueLock(processor.channel, lockKey)
			<-lockChan
			defer func() {
				lockChan <- struct{}{}
			}()
		}
	}

	handlerErr := processor.handler(notification)

	updateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(updateCtx, l.pgURI)
	if err != nil {
		logger.Error(fmt.Errorf("failed to connect to database for message update: %w", err))
		return
	}
	defer conn.Close(updateCtx)

	if handlerErr != nil {
		// release the claim so the message is retried
		_, err := conn.Exec(updateCtx, fmt.Sprintf(`
			UPDATE %s
			SET processing_started_at = NULL,
				last_error = $2,
				attempt_count = attempt_count + 1
			WHERE id = $1`, WorkQueueTable),
			msg.id, handlerErr.Error())
		if err != nil {
			logger.Error(fmt.Errorf("failed to mark message %s as failed: %w", msg.id, err))
		}
		return
	}

	if _, err := conn.Exec(updateCtx, fmt.Sprintf(`
		UPDATE %s
		SET completed_at = NOW()
		WHERE id = $1`, WorkQueueTable), msg.id); err != nil {
		logger.Error(fmt.Errorf("failed to mark message %s as completed: %w", msg.id, err))
		return
	}

	logger.Info("message processed",
		zap.String("id", msg.id),
		zap.String("channel", processor.channel),
		zap.Duration("duration", time.Since(startTime)))
}

// getQueueLock returns the lock channel for a queue and lockKey, creating it if it doesn't exist
func (l *Listener) getQueueLock(queueName, lockKey string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.queueLocks[queueName]; !exists {
		l.queueLocks[queueName] = make(map[string]chan struct{})
	}

	lockChan, exists := l.queueLocks[queueName][lockKey]
	if !exists {
		// single worker per lock key
		lockChan = make(chan struct{}, 1)
		lockChan <- struct{}{}
		l.queueLocks[queueName][lockKey] = lockChan
	}
	return lockChan
}

// reconnect attempts to reestablish the database connection using exponential backoff
func (l *Listener) reconnect(ctx context.Context) error {
	backoffInterval := l.reconnectInterval
	maxBackoff := 5 * time.Minute
	attempt := 0

	logger.Info("Database connection lost, attempting to reconnect...")

	for {
		attempt++

		if l.conn != nil {
			l.conn.Close(ctx)
			l.conn = nil
		}

		if ctx.Err() != nil {
			return fmt.Errorf("context canceled during reconnection: %w", ctx.Err())
		}

		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		conn, err := pgx.Connect(connectCtx, l.pgURI)
		cancel()

		if err == nil {
			testCtx, testCancel := context.WithTimeout(ctx, 10*time.Second)
			var one int
			err = conn.QueryRow(testCtx, "SELECT 1").Scan(&one)
			testCancel()

			if err == nil {
				l.conn = conn

				if listenErr := l.listenAll(ctx); listenErr != nil {
					logger.Error(fmt.Errorf("failed to resubscribe after reconnect: %w", listenErr))
					conn.Close(ctx)
					l.conn = nil
				} else {
					logger.Info("Successfully reconnected and resubscribed to all channels",
						zap.Int("attempt", attempt))

					// check for work that queued while we were disconnected
					for _, processor := range l.processors {
						if !processor.processing {
							processor.processing = true
							go l.processQueue(ctx, processor)
						}
					}

					return nil
				}
			} else {
				logger.Error(fmt.Errorf("connection test failed: %w", err))
				conn.Close(ctx)
			}
		} else {
			logger.Error(fmt.Errorf("failed to connect to database: %w", err))
		}

		if backoffInterval*2 <= maxBackoff {
			backoffInterval *= 2
		} else {
			backoffInterval = maxBackoff
		}

		// jitter of plus or minus 20%
		jitter := time.Duration(float64(backoffInterval) * (0.8 + 0.4*rand.Float64()))

		logger.Info("Will retry connection after backoff",
			zap.Duration("backoff", jitter),
			zap.Int("attempt", attempt))

		timer := time.NewTimer(jitter)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context canceled during reconnection backoff: %w", ctx.Err())
		}
	}
}

// Stop gracefully shuts down the listener
func (l *Listener) Stop(ctx context.Context) error {
	if l.conn != nil {
		return l.conn.Close(ctx)
	}
	return nil
}
