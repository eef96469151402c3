package http_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	appconfig "github.com/Gogfather/thegogfather.com/internal/config"
	contenthttp "github.com/Gogfather/thegogfather.com/internal/content/adapter/http"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/repository"
	"github.com/Gogfather/thegogfather.com/internal/content/usecase"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// historyEventStore serves a canned replay and records what was asked for.
type historyEventStore struct {
	history  []model.RealtimeEvent
	gotPath  string
	gotToken model.ResumeToken
}

func (s *historyEventStore) StoreEvent(ctx context.Context, event model.RealtimeEvent) error {
	return nil
}

func (s *historyEventStore) GetEventsSince(ctx context.Context, path string, resumeToken model.ResumeToken) ([]model.RealtimeEvent, error) {
	s.gotPath = path
	s.gotToken = resumeToken
	return s.history, nil
}

func (s *historyEventStore) CleanupOldEvents(ctx context.Context, retentionPeriod time.Duration) error {
	return nil
}

type wsTestEnv struct {
	realtime usecase.RealtimeUsecase
	url      string
}

// startWSServer serves the WebSocket endpoint on a loopback listener so the
// frame contract can be exercised through a real client connection.
func startWSServer(t *testing.T, denied map[string]bool, eventStore repository.EventStore) *wsTestEnv {
	t.Helper()
	log := logger.NewLogger()
	realtime := usecase.NewRealtimeUsecase(log)
	appCfg := &appconfig.Config{Namespace: "the-gogfather", Source: appconfig.SourceEnvironment}
	handler := contenthttp.NewWebSocketHandler(realtime, &stubAccessRules{denied: denied}, eventStore, appCfg, log)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.RegisterRoutes(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return &wsTestEnv{realtime: realtime, url: "ws://" + ln.Addr().String() + "/ws/listen"}
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	dialer := &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	var conn *websocket.Conn
	var err error
	for i := 0; i < 20; i++ {
		conn, _, err = dialer.Dial(url, nil)
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsClientFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsErrorFrame struct {
	Error      string `json:"error"`
	Collection string `json:"collection,omitempty"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wsClientFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wsClientFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func readErrorFrame(t *testing.T, conn *websocket.Conn) wsErrorFrame {
	t.Helper()
	frame := readFrame(t, conn)
	require.Equal(t, "error", frame.Type)
	var out wsErrorFrame
	require.NoError(t, json.Unmarshal(frame.Data, &out))
	return out
}

func subscribeTo(t *testing.T, conn *websocket.Conn, collection string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(model.SubscriptionRequest{Action: "subscribe", Collection: collection}))
	frame := readFrame(t, conn)
	require.Equal(t, "subscribed", frame.Type)
	var confirmed string
	require.NoError(t, json.Unmarshal(frame.Data, &confirmed))
	require.Equal(t, collection, confirmed)
}

func photoEvent(recordID string) model.RealtimeEvent {
	return model.RealtimeEvent{
		Type:       model.EventTypeCreated,
		FullPath:   model.CollectionPath("the-gogfather", model.CollectionPhotos),
		Namespace:  "the-gogfather",
		Collection: model.CollectionPhotos,
		RecordID:   recordID,
		Data:       map[string]interface{}{"caption": "Hi", "url": "https://example.com/p.jpg"},
		Timestamp:  time.Now(),
	}
}

func TestWebSocket_SubscribeDeliversEvents(t *testing.T) {
	env := startWSServer(t, map[string]bool{}, nil)
	conn := dialWS(t, env.url)

	subscribeTo(t, conn, model.CollectionPhotos)
	require.NoError(t, env.realtime.PublishEvent(context.Background(), photoEvent("p1")))

	frame := readFrame(t, conn)
	require.Equal(t, "event", frame.Type)
	var got model.RealtimeEvent
	require.NoError(t, json.Unmarshal(frame.Data, &got))
	assert.Equal(t, "p1", got.RecordID)
	assert.Equal(t, model.EventTypeCreated, got.Type)
	assert.Equal(t, model.CollectionPhotos, got.Collection)
}

func TestWebSocket_DeniedCollectionIsScoped(t *testing.T) {
	env := startWSServer(t, map[string]bool{model.CollectionBlog: true}, nil)
	conn := dialWS(t, env.url)

	subscribeTo(t, conn, model.CollectionPhotos)

	require.NoError(t, conn.WriteJSON(model.SubscriptionRequest{Action: "subscribe", Collection: model.CollectionBlog}))
	denial := readErrorFrame(t, conn)
	assert.Equal(t, "permission denied for blog", denial.Error)
	assert.Equal(t, model.CollectionBlog, denial.Collection)

	// The sibling subscription keeps flowing.
	require.NoError(t, env.realtime.PublishEvent(context.Background(), photoEvent("p1")))
	frame := readFrame(t, conn)
	require.Equal(t, "event", frame.Type)
	var got model.RealtimeEvent
	require.NoError(t, json.Unmarshal(frame.Data, &got))
	assert.Equal(t, "p1", got.RecordID)
}

func TestWebSocket_Unsubscribe(t *testing.T) {
	env := startWSServer(t, map[string]bool{}, nil)
	conn := dialWS(t, env.url)

	subscribeTo(t, conn, model.CollectionPhotos)

	require.NoError(t, conn.WriteJSON(model.SubscriptionRequest{Action: "unsubscribe", Collection: model.CollectionPhotos}))
	frame := readFrame(t, conn)
	require.Equal(t, "unsubscribed", frame.Type)

	require.NoError(t, env.realtime.PublishEvent(context.Background(), photoEvent("p2")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var stray wsClientFrame
	assert.Error(t, conn.ReadJSON(&stray), "no frames expected after unsubscribe")
}

func TestWebSocket_UnknownCollectionAndAction(t *testing.T) {
	env := startWSServer(t, map[string]bool{}, nil)
	conn := dialWS(t, env.url)

	require.NoError(t, conn.WriteJSON(model.SubscriptionRequest{Action: "subscribe", Collection: "recipes"}))
	unknown := readErrorFrame(t, conn)
	assert.Equal(t, "unknown collection", unknown.Error)
	assert.Equal(t, "recipes", unknown.Collection)

	require.NoError(t, conn.WriteJSON(model.SubscriptionRequest{Action: "dance", Collection: model.CollectionPhotos}))
	assert.Equal(t, "unknown action", readErrorFrame(t, conn).Error)
}

func TestWebSocket_MalformedFrame(t *testing.T) {
	env := startWSServer(t, map[string]bool{}, nil)
	conn := dialWS(t, env.url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "malformed frame", readErrorFrame(t, conn).Error)
}

func TestWebSocket_ResumeReplaysHistory(t *testing.T) {
	store := &historyEventStore{history: []model.RealtimeEvent{photoEvent("p1"), photoEvent("p2")}}
	env := startWSServer(t, map[string]bool{}, store)
	conn := dialWS(t, env.url)

	require.NoError(t, conn.WriteJSON(model.SubscriptionRequest{
		Action:      "subscribe",
		Collection:  model.CollectionPhotos,
		ResumeToken: "1700000000000-0",
	}))

	frame := readFrame(t, conn)
	require.Equal(t, "subscribed", frame.Type)

	for _, want := range []string{"p1", "p2"} {
		frame = readFrame(t, conn)
		require.Equal(t, "event", frame.Type)
		var got model.RealtimeEvent
		require.NoError(t, json.Unmarshal(frame.Data, &got))
		assert.Equal(t, want, got.RecordID)
	}

	assert.Equal(t, model.CollectionPath("the-gogfather", model.CollectionPhotos), store.gotPath)
	assert.Equal(t, model.ResumeToken("1700000000000-0"), store.gotToken)
}

func TestWebSocket_UpgradeRequired(t *testing.T) {
	log := logger.NewLogger()
	realtime := usecase.NewRealtimeUsecase(log)
	appCfg := &appconfig.Config{Namespace: "the-gogfather", Source: appconfig.SourceEnvironment}
	handler := contenthttp.NewWebSocketHandler(realtime, &stubAccessRules{denied: map[string]bool{}}, nil, appCfg, log)

	app := fiber.New()
	handler.RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/listen", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
