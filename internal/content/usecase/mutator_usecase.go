package usecase

import (
	"context"
	"fmt"
	"time"

	authmodel "github.com/Gogfather/thegogfather.com/internal/auth/domain/model"
	appconfig "github.com/Gogfather/thegogfather.com/internal/config"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/repository"
	apperrors "github.com/Gogfather/thegogfather.com/internal/shared/errors"
	"github.com/Gogfather/thegogfather.com/internal/shared/eventbus"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/google/uuid"
)

// Authorizer evaluates the authorization predicate for an identity. Computed
// fresh per call, never cached.
type Authorizer interface {
	IsAuthorizedIdentity(identity authmodel.Identity) bool
}

// ContentMutatorInterface defines the mutating operations on content
// collections. Every operation requires the authorization predicate; local
// state is never mutated optimistically, the change only becomes visible when
// the published event echoes back through the live subscription.
type ContentMutatorInterface interface {
	Add(ctx context.Context, identity authmodel.Identity, collection string, fields map[string]interface{}) (*model.Record, error)
	SetFeatured(ctx context.Context, identity authmodel.Identity, photoID string) error
	Delete(ctx context.Context, identity authmodel.Identity, collection, id string) error
}

// MutatorOptions tune mutator behavior.
type MutatorOptions struct {
	// AtomicFeature switches SetFeatured from the two-phase sequence to a
	// single bulk write. The non-racing end state is identical; only the
	// transient window differs.
	AtomicFeature bool
}

// ContentMutator implements ContentMutatorInterface.
type ContentMutator struct {
	repo       repository.ContentRepository
	rules      repository.AccessRules
	realtime   RealtimeUsecase
	eventStore repository.EventStore
	bus        eventbus.EventBusInterface
	authorizer Authorizer
	appCfg     *appconfig.Config
	opts       MutatorOptions
	log        logger.Logger
}

// NewContentMutator creates a ContentMutator. eventStore may be nil when no
// event history backend is configured.
func NewContentMutator(
	repo repository.ContentRepository,
	rules repository.AccessRules,
	realtime RealtimeUsecase,
	eventStore repository.EventStore,
	bus eventbus.EventBusInterface,
	authorizer Authorizer,
	appCfg *appconfig.Config,
	opts MutatorOptions,
	log logger.Logger,
) *ContentMutator {
	return &ContentMutator{
		repo:       repo,
		rules:      rules,
		realtime:   realtime,
		eventStore: eventStore,
		bus:        bus,
		authorizer: authorizer,
		appCfg:     appCfg,
		opts:       opts,
		log:        log.WithComponent("content-mutator"),
	}
}

// guard runs the checks common to every mutation: valid namespace, predicate,
// write rule. It refuses before any store call.
func (m *ContentMutator) guard(ctx context.Context, identity authmodel.Identity, collection string) error {
	if !m.appCfg.Valid() {
		return apperrors.NewConfigurationError("project configuration is missing or invalid")
	}
	if !model.KnownCollection(collection) {
		return apperrors.ErrUnknownCollection
	}
	if !m.authorizer.IsAuthorizedIdentity(identity) {
		return apperrors.NewAuthorizationError("not authorized to modify content")
	}

	allowed, err := m.rules.CanWrite(ctx, collection, repository.AccessContext{
		UserID:     identity.UserID,
		Anonymous:  identity.Anonymous,
		Authorized: true,
		Namespace:  m.appCfg.Namespace,
	})
	if err != nil || !allowed {
		if m.bus != nil {
			m.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(
				eventbus.EventTypeRuleViolation,
				map[string]interface{}{"collection": collection, "userId": identity.UserID},
				"content-mutator"))
		}
		return apperrors.NewPermissionDeniedError(collection)
	}
	return nil
}

// Add creates a record with a server-assigned id, a fresh creation timestamp
// and the current identity as owner. Required fields must be non-empty; the
// store is not assumed to validate.
func (m *ContentMutator) Add(ctx context.Context, identity authmodel.Identity, collection string, fields map[string]interface{}) (*model.Record, error) {
	if err := m.guard(ctx, identity, collection); err != nil {
		return nil, err
	}

	required, err := model.RequiredFields(collection)
	if err != nil {
		return nil, err
	}
	for _, name := range required {
		value, _ := fields[name].(string)
		if value == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("field %q is required", name))
		}
	}

	record := &model.Record{
		ID:         uuid.New().String(),
		Namespace:  m.appCfg.Namespace,
		Collection: collection,
		OwnerID:    identity.UserID,
		CreatedAt:  time.Now(),
		Fields:     fields,
	}

	if err := m.repo.CreateRecord(ctx, record); err != nil {
		return nil, err
	}

	m.emit(ctx, model.RealtimeEvent{
		Type:       model.EventTypeCreated,
		FullPath:   model.CollectionPath(record.Namespace, collection),
		Namespace:  record.Namespace,
		Collection: collection,
		RecordID:   record.ID,
		Data:       record.Data(),
		Timestamp:  time.Now(),
	})

	return record, nil
}

// SetFeatured guarantees the at-most-one-featured-photo invariant. The
// default mode runs two separate write phases: unfeature every currently
// featured photo (zero or several tolerated), then feature the target.
// Concurrent callers can transiently observe zero or two featured photos;
// this is a bounded, self-correcting inconsistency, not strict
// serializability. The atomic mode collapses both phases into one bulk write.
func (m *ContentMutator) SetFeatured(ctx context.Context, identity authmodel.Identity, photoID string) error {
	if err := m.guard(ctx, identity, model.CollectionPhotos); err != nil {
		return err
	}

	namespace := m.appCfg.Namespace
	var unfeatured []string
	var err error

	if m.opts.AtomicFeature {
		unfeatured, err = m.repo.SetFeaturedAtomic(ctx, namespace, photoID)
		if err != nil {
			return err
		}
	} else {
		unfeatured, err = m.repo.UnfeatureAll(ctx, namespace)
		if err != nil {
			return err
		}
		if err := m.repo.Feature(ctx, namespace, photoID); err != nil {
			return err
		}
	}

	path := model.CollectionPath(namespace, model.CollectionPhotos)
	now := time.Now()

	for _, id := range unfeatured {
		if id == photoID {
			continue
		}
		m.emitUpdated(ctx, namespace, path, id, now)
	}
	m.emitUpdated(ctx, namespace, path, photoID, now)

	return nil
}

// Delete unconditionally removes the record. Operator confirmation is a UI
// concern.
func (m *ContentMutator) Delete(ctx context.Context, identity authmodel.Identity, collection, id string) error {
	if err := m.guard(ctx, identity, collection); err != nil {
		return err
	}

	if err := m.repo.DeleteRecord(ctx, m.appCfg.Namespace, collection, id); err != nil {
		return err
	}

	m.emit(ctx, model.RealtimeEvent{
		Type:       model.EventTypeDeleted,
		FullPath:   model.CollectionPath(m.appCfg.Namespace, collection),
		Namespace:  m.appCfg.Namespace,
		Collection: collection,
		RecordID:   id,
		Timestamp:  time.Now(),
	})

	return nil
}

// emitUpdated re-reads a photo and publishes its fresh state.
func (m *ContentMutator) emitUpdated(ctx context.Context, namespace, path, photoID string, now time.Time) {
	record, err := m.repo.GetRecord(ctx, namespace, model.CollectionPhotos, photoID)
	if err != nil {
		m.log.Warnf("Failed to load photo %s for update event: %v", photoID, err)
		return
	}
	m.emit(ctx, model.RealtimeEvent{
		Type:       model.EventTypeUpdated,
		FullPath:   path,
		Namespace:  namespace,
		Collection: model.CollectionPhotos,
		RecordID:   photoID,
		Data:       record.Data(),
		Timestamp:  now,
	})
}

// emit fans the event out to live subscribers, appends it to the history
// store when one is configured, and notifies bus observers.
func (m *ContentMutator) emit(ctx context.Context, event model.RealtimeEvent) {
	if err := m.realtime.PublishEvent(ctx, event); err != nil {
		m.log.Warnf("Failed to publish realtime event: %v", err)
	}

	if m.eventStore != nil {
		if err := m.eventStore.StoreEvent(ctx, event); err != nil {
			m.log.Warnf("Failed to store event history: %v", err)
		}
	}

	if m.bus != nil {
		m.bus.PublishAndForget(ctx, eventbus.NewBasicEvent(busEventType(event.Type), event))
	}
}

func busEventType(t model.EventType) string {
	switch t {
	case model.EventTypeCreated:
		return eventbus.EventTypeRecordCreated
	case model.EventTypeUpdated:
		return eventbus.EventTypeRecordUpdated
	default:
		return eventbus.EventTypeRecordDeleted
	}
}

var _ ContentMutatorInterface = (*ContentMutator)(nil)
