package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/config"
)

// DispatchWorker drains the dispatch event queue and delivers each event to
// the configured control-room webhook with retries.
type DispatchWorker struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	cfg         config.WebhookConfig
	httpClient  *http.Client
}

// NewDispatchWorker creates a new dispatch worker
func NewDispatchWorker(redisClient *redis.Client, logger *logrus.Logger, cfg config.WebhookConfig) *DispatchWorker {
	return &DispatchWorker{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Start launches the delivery loop. The loop exits when ctx is cancelled.
func (w *DispatchWorker) Start(ctx context.Context) {
	w.logger.Info("Starting dispatch webhook worker")
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping dispatch webhook worker")
				return
			default:
				result, err := w.redisClient.BRPop(ctx, 0, dispatchQueueKey).Result()
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue
					}
					w.logger.WithError(err).Error("Failed to pop dispatch event from Redis")
					time.Sleep(w.cfg.Timeout)
					continue
				}

				payload := result[1]
				var event DispatchEvent
				if err := json.Unmarshal([]byte(payload), &event); err != nil {
					w.logger.WithError(err).Error("Failed to unmarshal dispatch event")
					continue
				}

				w.deliver(ctx, event, payload)
			}
		}
	}()
}

func (w *DispatchWorker) deliver(ctx context.Context, event DispatchEvent, rawPayload string) {
	log := w.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"driver_id":  event.DriverID,
	})

	if w.cfg.URL == "" {
		log.Warn("Dispatch webhook URL is not configured, skipping delivery")
		return
	}

	delay := w.cfg.BaseDelay
	for i := 0; i < w.cfg.MaxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewBufferString(rawPayload))
		if err != nil {
			log.WithError(err).Error("Failed to create dispatch webhook request")
			return
		}

		req.Header.Set("Content-Type", "application/json")
		if w.cfg.Secret != "" {
			req.Header.Set("X-Dispatch-Signature", signPayload(rawPayload, w.cfg.Secret))
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			log.WithError(err).Warnf("Dispatch webhook delivery failed, retrying in %v", delay)
			if !w.backoff(ctx, &delay) {
				return
			}
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			log.Info("Dispatch webhook delivered")
			return
		}

		log.Warnf("Dispatch webhook returned status %d, retrying in %v", resp.StatusCode, delay)
		if !w.backoff(ctx, &delay) {
			return
		}
	}

	log.Errorf("Dispatch webhook delivery abandoned after %d attempts", w.cfg.MaxRetries)
}

// backoff waits out the current delay and doubles it for the next attempt.
// Returns false when the context is cancelled during the wait.
func (w *DispatchWorker) backoff(ctx context.Context, delay *time.Duration) bool {
	timer := time.NewTimer(*delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		*delay *= 2
		return true
	}
}

// signPayload computes the HMAC-SHA256 signature receivers use to verify origin
func signPayload(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
