package http

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	appconfig "github.com/Gogfather/thegogfather.com/internal/config"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/repository"
	"github.com/Gogfather/thegogfather.com/internal/content/usecase"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsEventBuffer  = 32
	wsPingInterval = 30 * time.Second
	wsReadDeadline = 60 * time.Second
)

// WebSocketHandler manages WebSocket connections for real-time content
// updates. Clients subscribe per collection; each subscription is checked
// against the collection's read rule, and a denial affects only that
// collection.
type WebSocketHandler struct {
	realtimeUC usecase.RealtimeUsecase
	rules      repository.AccessRules
	eventStore repository.EventStore
	appCfg     *appconfig.Config
	log        logger.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler. eventStore may be nil;
// resume-token replay is then unavailable and subscriptions start live-only.
func NewWebSocketHandler(
	rtuc usecase.RealtimeUsecase,
	rules repository.AccessRules,
	eventStore repository.EventStore,
	appCfg *appconfig.Config,
	log logger.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		realtimeUC: rtuc,
		rules:      rules,
		eventStore: eventStore,
		appCfg:     appCfg,
		log:        log.WithComponent("content-ws"),
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *WebSocketHandler) RegisterRoutes(router fiber.Router) {
	wsGroup := router.Group("/ws")

	wsGroup.Use("/listen", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	wsGroup.Get("/listen", websocket.New(h.handleConnection))
}

// WebSocketMessage is an outbound frame.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// wsError is an outbound error frame. Collection-scoped denials carry the
// collection so the client can mark only that list degraded.
type wsError struct {
	Error      string `json:"error"`
	Collection string `json:"collection,omitempty"`
}

func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	subscriberID := uuid.NewString()
	events := make(chan model.RealtimeEvent, wsEventBuffer)
	var writeMu sync.Mutex

	h.log.Info("WebSocket connection established",
		zap.String("subscriberID", subscriberID))

	defer func() {
		if err := h.realtimeUC.UnsubscribeAll(ctx, subscriberID); err != nil {
			h.log.Error("Error unsubscribing all paths",
				zap.String("subscriberID", subscriberID),
				zap.Error(err))
		}
		h.log.Info("WebSocket connection closed",
			zap.String("subscriberID", subscriberID))
	}()

	go h.forwardEvents(ctx, conn, &writeMu, events)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req model.SubscriptionRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			h.writeJSON(conn, &writeMu, WebSocketMessage{Type: "error", Data: wsError{Error: "malformed frame"}})
			continue
		}

		h.handleRequest(ctx, conn, &writeMu, subscriberID, req, events)
	}
}

func (h *WebSocketHandler) handleRequest(
	ctx context.Context,
	conn *websocket.Conn,
	writeMu *sync.Mutex,
	subscriberID string,
	req model.SubscriptionRequest,
	events chan model.RealtimeEvent,
) {
	if !model.KnownCollection(req.Collection) {
		h.writeJSON(conn, writeMu, WebSocketMessage{Type: "error", Data: wsError{
			Error:      "unknown collection",
			Collection: req.Collection,
		}})
		return
	}

	path := model.CollectionPath(h.appCfg.Namespace, req.Collection)

	switch req.Action {
	case "subscribe":
		allowed, err := h.rules.CanRead(ctx, req.Collection, repository.AccessContext{
			Namespace: h.appCfg.Namespace,
		})
		if err != nil || !allowed {
			h.writeJSON(conn, writeMu, WebSocketMessage{Type: "error", Data: wsError{
				Error:      "permission denied for " + req.Collection,
				Collection: req.Collection,
			}})
			return
		}

		if err := h.realtimeUC.Subscribe(ctx, subscriberID, path, events); err != nil {
			h.writeJSON(conn, writeMu, WebSocketMessage{Type: "error", Data: wsError{
				Error:      "subscription failed",
				Collection: req.Collection,
			}})
			return
		}
		h.writeJSON(conn, writeMu, WebSocketMessage{Type: "subscribed", Data: req.Collection})

		if req.ResumeToken != "" && h.eventStore != nil {
			history, err := h.eventStore.GetEventsSince(ctx, path, req.ResumeToken)
			if err != nil {
				h.log.Warn("Event replay failed",
					zap.String("collection", req.Collection),
					zap.Error(err))
			}
			for _, event := range history {
				h.writeJSON(conn, writeMu, WebSocketMessage{Type: "event", Data: event})
			}
		}

	case "unsubscribe":
		_ = h.realtimeUC.Unsubscribe(ctx, subscriberID, path)
		h.writeJSON(conn, writeMu, WebSocketMessage{Type: "unsubscribed", Data: req.Collection})

	default:
		h.writeJSON(conn, writeMu, WebSocketMessage{Type: "error", Data: wsError{Error: "unknown action"}})
	}
}

// forwardEvents pushes broker events out to the socket until the context is
// cancelled.
func (h *WebSocketHandler) forwardEvents(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex, events <-chan model.RealtimeEvent) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			h.writeJSON(conn, writeMu, WebSocketMessage{Type: "event", Data: event})
		case <-ticker.C:
			writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			_ = conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
		}
	}
}

func (h *WebSocketHandler) writeJSON(conn *websocket.Conn, writeMu *sync.Mutex, msg WebSocketMessage) {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug("WebSocket write failed", zap.Error(err))
	}
}
