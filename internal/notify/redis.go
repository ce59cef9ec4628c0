package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PublishedEvent is the payload broadcast when a timetable goes live.
// Downstream consumers (the notification fan-out service) subscribe to the
// channel and deliver per-audience messages.
type PublishedEvent struct {
	Event        string    `json:"event"`
	AcademicYear string    `json:"academic_year"`
	Semester     string    `json:"semester"`
	Audiences    []string  `json:"audiences"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// RedisNotifier publishes timetable events over a Redis channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisNotifier builds a notifier for the given channel.
func NewRedisNotifier(client *redis.Client, channel string, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

// NotifyTimetablePublished broadcasts the publish event. The caller treats
// a failure as non-fatal; this method only reports it.
func (n *RedisNotifier) NotifyTimetablePublished(ctx context.Context, academicYear, semester string, audiences []string) error {
	if n.client == nil {
		return fmt.Errorf("redis client not configured")
	}
	event := PublishedEvent{
		Event:        "timetable.published",
		AcademicYear: academicYear,
		Semester:     semester,
		Audiences:    audiences,
		OccurredAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal publish event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	n.logger.Debug("publish event broadcast",
		zap.String("channel", n.channel),
		zap.String("academic_year", academicYear),
		zap.String("semester", semester),
	)
	return nil
}

// NopNotifier drops every event. Used when Redis is not configured.
type NopNotifier struct{}

// NotifyTimetablePublished does nothing.
func (NopNotifier) NotifyTimetablePublished(context.Context, string, string, []string) error {
	return nil
}
