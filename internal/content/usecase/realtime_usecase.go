package usecase

import (
	"context"
	"sync"

	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"go.uber.org/zap"
)

// RealtimeUsecase defines the interface for managing real-time subscriptions
// and event broadcasting.
type RealtimeUsecase interface {
	// Subscribe registers a channel to receive events for a collection path.
	// subscriberID must be unique per client connection or mirror.
	Subscribe(ctx context.Context, subscriberID string, path string, eventChannel chan<- model.RealtimeEvent) error

	// Unsubscribe removes one subscription.
	Unsubscribe(ctx context.Context, subscriberID string, path string) error

	// UnsubscribeAll removes every subscription held by a subscriber.
	UnsubscribeAll(ctx context.Context, subscriberID string) error

	// PublishEvent broadcasts an event to all subscribers of its path.
	PublishEvent(ctx context.Context, event model.RealtimeEvent) error
}

type realtimeUsecaseImpl struct {
	// subscriptions maps a collection path to subscriber ids to channels.
	subscriptions map[string]map[string]chan<- model.RealtimeEvent
	mu            sync.RWMutex
	log           logger.Logger
}

// NewRealtimeUsecase creates a new instance of RealtimeUsecase.
func NewRealtimeUsecase(log logger.Logger) RealtimeUsecase {
	return &realtimeUsecaseImpl{
		subscriptions: make(map[string]map[string]chan<- model.RealtimeEvent),
		log:           log.WithComponent("realtime"),
	}
}

func (uc *realtimeUsecaseImpl) Subscribe(ctx context.Context, subscriberID string, path string, eventChannel chan<- model.RealtimeEvent) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.subscriptions[path]; !ok {
		uc.subscriptions[path] = make(map[string]chan<- model.RealtimeEvent)
	}

	if _, ok := uc.subscriptions[path][subscriberID]; ok {
		uc.log.Warn("Subscriber already subscribed to path, overwriting subscription",
			zap.String("subscriberID", subscriberID), zap.String("path", path))
	}

	uc.subscriptions[path][subscriberID] = eventChannel
	uc.log.Debug("Client subscribed",
		zap.String("subscriberID", subscriberID), zap.String("path", path))
	return nil
}

func (uc *realtimeUsecaseImpl) Unsubscribe(ctx context.Context, subscriberID string, path string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.removeLocked(subscriberID, path)
	return nil
}

func (uc *realtimeUsecaseImpl) UnsubscribeAll(ctx context.Context, subscriberID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	for path := range uc.subscriptions {
		uc.removeLocked(subscriberID, path)
	}
	return nil
}

// removeLocked removes one subscription. Caller holds the write lock. The
// subscriber owns its channel and is responsible for closing it.
func (uc *realtimeUsecaseImpl) removeLocked(subscriberID, path string) {
	subscribers, ok := uc.subscriptions[path]
	if !ok {
		return
	}
	if _, ok := subscribers[subscriberID]; !ok {
		return
	}
	delete(subscribers, subscriberID)
	if len(subscribers) == 0 {
		delete(uc.subscriptions, path)
	}
	uc.log.Debug("Client unsubscribed",
		zap.String("subscriberID", subscriberID), zap.String("path", path))
}

// PublishEvent broadcasts to exact path matches. Sends are non-blocking: a
// slow subscriber with a full channel drops the event rather than stalling
// the distribution loop.
func (uc *realtimeUsecaseImpl) PublishEvent(ctx context.Context, event model.RealtimeEvent) error {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	pathSubscribers, ok := uc.subscriptions[event.FullPath]
	if !ok {
		return nil
	}

	for subID, ch := range pathSubscribers {
		select {
		case ch <- event:
		default:
			uc.log.Warn("Dropping event for slow subscriber",
				zap.String("subscriberID", subID), zap.String("path", event.FullPath))
		}
	}
	return nil
}
