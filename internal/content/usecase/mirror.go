package usecase

import (
	"context"
	"sort"
	"sync"

	appconfig "github.com/Gogfather/thegogfather.com/internal/config"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/repository"
	apperrors "github.com/Gogfather/thegogfather.com/internal/shared/errors"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/google/uuid"
)

const mirrorChannelBuffer = 64

// Mirror keeps the five content collections live in memory for one namespace.
// It loads an initial snapshot from the store, then applies the event stream;
// its own writes become visible only when their events echo back. Lists stay
// ordered by creation timestamp descending.
//
// All five subscriptions are created together in Start and torn down together
// in Stop. A per-collection read-rule denial marks only that collection
// denied; the other four keep flowing.
type Mirror struct {
	mu      sync.RWMutex
	lists   map[string][]model.Record
	denied  map[string]error
	started bool

	subscriberID string
	events       chan model.RealtimeEvent
	cancel       context.CancelFunc
	done         chan struct{}

	repo     repository.ContentRepository
	rules    repository.AccessRules
	realtime RealtimeUsecase
	appCfg   *appconfig.Config
	log      logger.Logger
}

// NewMirror creates a stopped mirror for the resolved namespace.
func NewMirror(
	repo repository.ContentRepository,
	rules repository.AccessRules,
	realtime RealtimeUsecase,
	appCfg *appconfig.Config,
	log logger.Logger,
) *Mirror {
	return &Mirror{
		lists:        make(map[string][]model.Record),
		denied:       make(map[string]error),
		subscriberID: "mirror-" + uuid.NewString(),
		repo:         repo,
		rules:        rules,
		realtime:     realtime,
		appCfg:       appCfg,
		log:          log.WithComponent("content-mirror"),
	}
}

// Start snapshots every readable collection and subscribes to all five
// collection paths. It refuses to run against the fallback namespace: a
// subscription there would query a meaningless path.
func (m *Mirror) Start(ctx context.Context) error {
	if !m.appCfg.Valid() {
		return apperrors.NewConfigurationError("refusing to mirror the fallback namespace")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.events = make(chan model.RealtimeEvent, mirrorChannelBuffer)
	m.done = make(chan struct{})
	m.mu.Unlock()

	namespace := m.appCfg.Namespace

	for _, collection := range model.Collections {
		allowed, err := m.rules.CanRead(ctx, collection, repository.AccessContext{Namespace: namespace})
		if err != nil || !allowed {
			m.mu.Lock()
			m.denied[collection] = apperrors.NewPermissionDeniedError(collection)
			m.mu.Unlock()
			m.log.Warnf("Read denied for collection %s, mirroring without it", collection)
			continue
		}

		records, err := m.repo.ListRecords(ctx, namespace, collection)
		if err != nil {
			m.mu.Lock()
			m.denied[collection] = err
			m.mu.Unlock()
			m.log.Warnf("Snapshot failed for collection %s: %v", collection, err)
			continue
		}

		m.mu.Lock()
		m.lists[collection] = records
		m.mu.Unlock()

		path := model.CollectionPath(namespace, collection)
		if err := m.realtime.Subscribe(ctx, m.subscriberID, path, m.events); err != nil {
			_ = m.realtime.UnsubscribeAll(ctx, m.subscriberID)
			m.mu.Lock()
			m.started = false
			close(m.done)
			m.done = nil
			m.mu.Unlock()
			return err
		}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.run(loopCtx)

	return nil
}

// Stop tears down all five subscriptions together and drains the loop.
func (m *Mirror) Stop(ctx context.Context) {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	_ = m.realtime.UnsubscribeAll(ctx, m.subscriberID)
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Mirror) run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.events:
			m.apply(event)
		}
	}
}

// apply folds one event into the mirrored list for its collection.
func (m *Mirror) apply(event model.RealtimeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, denied := m.denied[event.Collection]; denied {
		return
	}

	list := m.lists[event.Collection]

	switch event.Type {
	case model.EventTypeCreated, model.EventTypeUpdated:
		record := model.RecordFromData(event.Namespace, event.Collection, event.Data)
		if record.ID == "" {
			record.ID = event.RecordID
		}
		list = removeRecord(list, record.ID)
		list = append(list, record)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
	case model.EventTypeDeleted:
		list = removeRecord(list, event.RecordID)
	}

	m.lists[event.Collection] = list
}

func removeRecord(list []model.Record, id string) []model.Record {
	for i := range list {
		if list[i].ID == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// List returns the live ordered list for a collection. The error reports a
// per-collection denial without affecting siblings.
func (m *Mirror) List(collection string) ([]model.Record, error) {
	if !model.KnownCollection(collection) {
		return nil, apperrors.ErrUnknownCollection
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, denied := m.denied[collection]; denied {
		return nil, err
	}

	list := m.lists[collection]
	out := make([]model.Record, len(list))
	copy(out, list)
	return out, nil
}

// Photos partitions the photo list into the one featured photo, if any, and
// all others. This is a derived view recomputed per call, not a separate
// query.
func (m *Mirror) Photos() (featured *model.Record, others []model.Record, err error) {
	list, err := m.List(model.CollectionPhotos)
	if err != nil {
		return nil, nil, err
	}

	others = make([]model.Record, 0, len(list))
	for i := range list {
		if featured == nil && list[i].IsFeatured {
			photo := list[i]
			featured = &photo
			continue
		}
		others = append(others, list[i])
	}
	return featured, others, nil
}

// Denied returns the denial condition for a collection, or nil.
func (m *Mirror) Denied(collection string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.denied[collection]
}
