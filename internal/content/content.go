package content

import (
	"context"
	"fmt"
	"time"

	authhttp "github.com/Gogfather/thegogfather.com/internal/auth/adapter/http"
	appconfig "github.com/Gogfather/thegogfather.com/internal/config"
	contenthttp "github.com/Gogfather/thegogfather.com/internal/content/adapter/http"
	"github.com/Gogfather/thegogfather.com/internal/content/adapter/persistence"
	"github.com/Gogfather/thegogfather.com/internal/content/adapter/persistence/mongodb"
	"github.com/Gogfather/thegogfather.com/internal/content/adapter/rules"
	"github.com/Gogfather/thegogfather.com/internal/content/config"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/repository"
	"github.com/Gogfather/thegogfather.com/internal/content/usecase"
	"github.com/Gogfather/thegogfather.com/internal/shared/eventbus"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// ContentModule wires the content collections: storage, access rules,
// realtime fan-out, the mutation pipeline and the in-memory mirror.
type ContentModule struct {
	repo       repository.ContentRepository
	rules      repository.AccessRules
	realtime   usecase.RealtimeUsecase
	eventStore repository.EventStore
	mutator    usecase.ContentMutatorInterface
	mirror     *usecase.Mirror
	handler    *contenthttp.ContentHTTPHandler
	wsHandler  *contenthttp.WebSocketHandler
	janitor    *persistence.RetentionJanitor
	config     *config.Config
}

// retentionSweepInterval is how often stored event history is trimmed back
// to the configured retention period.
const retentionSweepInterval = time.Hour

// NewContentModule creates the content module. redisClient may be nil, in
// which case event history is disabled and mutations only fan out live.
func NewContentModule(
	db *mongo.Database,
	redisClient *redis.Client,
	cfg *config.Config,
	appCfg *appconfig.Config,
	authorizer usecase.Authorizer,
	bus eventbus.EventBusInterface,
	log logger.Logger,
) (*ContentModule, error) {
	repo, err := mongodb.NewMongoContentRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create content repository: %w", err)
	}

	rulesEngine, err := rules.NewCELRulesEngine(rules.DefaultRules(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create rules engine: %w", err)
	}

	realtime := usecase.NewRealtimeUsecase(log)

	var eventStore repository.EventStore
	var janitor *persistence.RetentionJanitor
	if redisClient != nil && cfg.EventHistoryEnabled {
		eventStore = persistence.NewRedisEventStore(redisClient, log)
		if cfg.EventRetention > 0 {
			janitor = persistence.NewRetentionJanitor(eventStore, cfg.EventRetention, retentionSweepInterval, log)
		}
	}

	mutator := usecase.NewContentMutator(
		repo,
		rulesEngine,
		realtime,
		eventStore,
		bus,
		authorizer,
		appCfg,
		usecase.MutatorOptions{AtomicFeature: cfg.AtomicFeature},
		log,
	)

	mirror := usecase.NewMirror(repo, rulesEngine, realtime, appCfg, log)

	registerAuditTrail(bus, log.WithComponent("content-audit"))

	return &ContentModule{
		repo:       repo,
		rules:      rulesEngine,
		realtime:   realtime,
		eventStore: eventStore,
		mutator:    mutator,
		mirror:     mirror,
		handler:    contenthttp.NewContentHTTPHandler(mirror, mutator, log),
		wsHandler:  contenthttp.NewWebSocketHandler(realtime, rulesEngine, eventStore, appCfg, log),
		janitor:    janitor,
		config:     cfg,
	}, nil
}

// registerAuditTrail logs every record lifecycle event published on the bus.
func registerAuditTrail(bus eventbus.EventBusInterface, log logger.Logger) {
	if bus == nil {
		return
	}
	handler := func(ctx context.Context, ev eventbus.Event) error {
		change, ok := ev.Data().(model.RealtimeEvent)
		if !ok {
			return nil
		}
		log.Infof("%s %s/%s", ev.Type(), change.Collection, change.RecordID)
		return nil
	}
	bus.Subscribe(eventbus.EventTypeRecordCreated, handler)
	bus.Subscribe(eventbus.EventTypeRecordUpdated, handler)
	bus.Subscribe(eventbus.EventTypeRecordDeleted, handler)

	bus.Subscribe(eventbus.EventTypeRuleViolation, func(ctx context.Context, ev eventbus.Event) error {
		details, ok := ev.Data().(map[string]interface{})
		if !ok {
			return nil
		}
		log.Warnf("write rule violation on %v by %v", details["collection"], details["userId"])
		return nil
	})
}

// RegisterRoutes registers the content REST and WebSocket routes.
func (cm *ContentModule) RegisterRoutes(router fiber.Router, middleware *authhttp.AuthMiddleware) {
	cm.handler.SetupContentRoutes(router, middleware)
	cm.wsHandler.RegisterRoutes(router)
}

// Start brings the mirror live: snapshot every readable collection and
// subscribe to change events. It also starts the event history retention
// sweep when one is configured.
func (cm *ContentModule) Start(ctx context.Context) error {
	if cm.janitor != nil {
		cm.janitor.Start()
	}
	return cm.mirror.Start(ctx)
}

// GetMirror returns the live content mirror.
func (cm *ContentModule) GetMirror() *usecase.Mirror {
	return cm.mirror
}

// GetMutator returns the mutation pipeline.
func (cm *ContentModule) GetMutator() usecase.ContentMutatorInterface {
	return cm.mutator
}

// Stop detaches the mirror from the realtime broker and halts the retention
// sweep.
func (cm *ContentModule) Stop() error {
	if cm.janitor != nil {
		cm.janitor.Stop()
	}
	cm.mirror.Stop(context.Background())
	return nil
}
