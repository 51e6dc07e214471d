package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dispatchQueueKey = "dispatch_events"

// Dispatch event types pushed to the control-room webhook
const (
	EventAlertTriggered    = "alert.triggered"
	EventAlertAcknowledged = "alert.acknowledged"
	EventAlertResolved     = "alert.resolved"
	EventAlertCancelled    = "alert.cancelled"
	EventIncidentReported  = "incident.reported"
	EventIncidentVerified  = "incident.verified"
)

// DispatchEvent is the payload queued for webhook delivery
type DispatchEvent struct {
	Type       string    `json:"type"`
	AlertID    int64     `json:"alert_id,omitempty"`
	IncidentID int64     `json:"incident_id,omitempty"`
	DriverID   int64     `json:"driver_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Priority   string    `json:"priority,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// DispatchPublisher queues dispatch events for asynchronous webhook delivery
type DispatchPublisher interface {
	Publish(ctx context.Context, event DispatchEvent) error
}

// RedisDispatchPublisher implements DispatchPublisher over a Redis list
type RedisDispatchPublisher struct {
	redisClient *redis.Client
}

// NewRedisDispatchPublisher creates a new Redis-backed publisher
func NewRedisDispatchPublisher(client *redis.Client) *RedisDispatchPublisher {
	return &RedisDispatchPublisher{
		redisClient: client,
	}
}

// Publish pushes an event onto the queue. Delivery order is FIFO: LPUSH here,
// BRPop in the worker.
func (p *RedisDispatchPublisher) Publish(ctx context.Context, event DispatchEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch event: %w", err)
	}

	if err := p.redisClient.LPush(ctx, dispatchQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to queue dispatch event: %w", err)
	}
	return nil
}

// NoopDispatchPublisher drops events; used when Redis is not configured
type NoopDispatchPublisher struct{}

// Publish discards the event
func (NoopDispatchPublisher) Publish(ctx context.Context, event DispatchEvent) error {
	return nil
}
