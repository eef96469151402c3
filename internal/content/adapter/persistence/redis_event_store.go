package persistence

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/repository"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const maxStreamLength = 10000

// RedisEventStore implements EventStore using Redis Streams. One stream per
// collection path keeps event history for replay; the stream message id
// doubles as the resume token.
type RedisEventStore struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisEventStore creates a new Redis-based event store
func NewRedisEventStore(client *redis.Client, log logger.Logger) *RedisEventStore {
	return &RedisEventStore{
		client: client,
		logger: log,
	}
}

// StoreEvent appends an event to its collection path's stream.
func (r *RedisEventStore) StoreEvent(ctx context.Context, event model.RealtimeEvent) error {
	eventData, err := json.Marshal(event.Data)
	if err != nil {
		r.logger.Error("Failed to serialize event data", zap.Error(err))
		return err
	}

	oldData, err := json.Marshal(event.OldData)
	if err != nil {
		r.logger.Error("Failed to serialize old data", zap.Error(err))
		return err
	}

	streamName := event.FullPath

	_, err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		MaxLen: maxStreamLength,
		Approx: true,
		Values: map[string]interface{}{
			"type":       string(event.Type),
			"fullPath":   event.FullPath,
			"namespace":  event.Namespace,
			"collection": event.Collection,
			"recordId":   event.RecordID,
			"data":       eventData,
			"oldData":    oldData,
			"timestamp":  event.Timestamp.UnixNano(),
		},
	}).Result()

	if err != nil {
		r.logger.Error("Failed to store event in Redis",
			zap.String("stream", streamName),
			zap.String("eventType", string(event.Type)),
			zap.Error(err))
		return err
	}

	r.logger.Debug("Event stored in Redis",
		zap.String("stream", streamName),
		zap.String("eventType", string(event.Type)))

	return nil
}

// GetEventsSince retrieves events on a path after the resume token.
func (r *RedisEventStore) GetEventsSince(ctx context.Context, path string, resumeToken model.ResumeToken) ([]model.RealtimeEvent, error) {
	streamName := path
	lastID := "0"
	if resumeToken != "" {
		lastID = string(resumeToken)
	}

	exists, err := r.client.Exists(ctx, streamName).Result()
	if err != nil {
		r.logger.Error("Failed to check stream existence",
			zap.String("stream", streamName),
			zap.Error(err))
		return nil, err
	}
	if exists == 0 {
		return []model.RealtimeEvent{}, nil
	}

	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.client.XRead(readCtx, &redis.XReadArgs{
		Streams: []string{streamName, lastID},
		Count:   1000,
		Block:   0,
	}).Result()

	if err != nil {
		if err == redis.Nil || err == context.DeadlineExceeded {
			return []model.RealtimeEvent{}, nil
		}
		r.logger.Error("Failed to read events from Redis",
			zap.String("stream", streamName),
			zap.Error(err))
		return nil, err
	}

	var events []model.RealtimeEvent
	for _, streamRes := range res {
		for _, msg := range streamRes.Messages {
			event, err := r.parseEventFromMessage(msg)
			if err != nil {
				r.logger.Warn("Failed to parse event from Redis message",
					zap.String("messageId", msg.ID),
					zap.Error(err))
				continue
			}
			event.ResumeToken = model.ResumeToken(msg.ID)
			events = append(events, event)
		}
	}

	return events, nil
}

// CleanupOldEvents drops events older than the retention period from every
// content stream. Stream ids are millisecond timestamps, so a MINID trim
// implements age-based retention; XAdd already caps stream length.
func (r *RedisEventStore) CleanupOldEvents(ctx context.Context, retentionPeriod time.Duration) error {
	streams, err := r.client.Keys(ctx, "artifacts/*").Result()
	if err != nil {
		r.logger.Error("Failed to get stream names for cleanup", zap.Error(err))
		return err
	}

	minID := strconv.FormatInt(time.Now().Add(-retentionPeriod).UnixMilli(), 10) + "-0"
	trimmedEvents := int64(0)
	for _, stream := range streams {
		trimmed, err := r.client.XTrimMinID(ctx, stream, minID).Result()
		if err != nil {
			r.logger.Warn("Failed to trim stream",
				zap.String("stream", stream),
				zap.Error(err))
			continue
		}
		trimmedEvents += trimmed
	}

	if trimmedEvents > 0 {
		r.logger.Info("Trimmed old events from Redis streams",
			zap.Int64("events", trimmedEvents))
	}
	return nil
}

// parseEventFromMessage converts a Redis Stream message to a RealtimeEvent.
func (r *RedisEventStore) parseEventFromMessage(msg redis.XMessage) (model.RealtimeEvent, error) {
	event := model.RealtimeEvent{}

	if typeStr, ok := msg.Values["type"].(string); ok {
		event.Type = model.EventType(typeStr)
	}
	if fullPath, ok := msg.Values["fullPath"].(string); ok {
		event.FullPath = fullPath
	}
	if namespace, ok := msg.Values["namespace"].(string); ok {
		event.Namespace = namespace
	}
	if collection, ok := msg.Values["collection"].(string); ok {
		event.Collection = collection
	}
	if recordID, ok := msg.Values["recordId"].(string); ok {
		event.RecordID = recordID
	}

	if timestampStr, ok := msg.Values["timestamp"].(string); ok {
		if timestamp, err := strconv.ParseInt(timestampStr, 10, 64); err == nil {
			event.Timestamp = time.Unix(0, timestamp)
		}
	}

	if dataStr, ok := msg.Values["data"].(string); ok && dataStr != "" && dataStr != "null" {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(dataStr), &data); err == nil {
			event.Data = data
		}
	}

	if oldDataStr, ok := msg.Values["oldData"].(string); ok && oldDataStr != "" && oldDataStr != "null" {
		var oldData map[string]interface{}
		if err := json.Unmarshal([]byte(oldDataStr), &oldData); err == nil {
			event.OldData = oldData
		}
	}

	return event, nil
}

var _ repository.EventStore = (*RedisEventStore)(nil)
