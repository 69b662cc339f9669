package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopstream/internal/app/presence"
	"shopstream/internal/app/realtime"
	"shopstream/internal/app/store"
	"shopstream/internal/configs"
	"shopstream/internal/pkg/auth/jwt"
)

const testSecret = "router-test-secret"

// recorderBroadcaster captures trigger calls so handler tests can assert the
// request body reached the broadcast layer without a live hub fanout.
type recorderBroadcaster struct {
	mu            sync.Mutex
	products      []store.Product
	orders        []store.Order
	users         []realtime.UserPayload
	alerts        []realtime.AlertPayload
	notifications map[string]realtime.NotificationPayload
}

func newRecorderBroadcaster() *recorderBroadcaster {
	return &recorderBroadcaster{notifications: make(map[string]realtime.NotificationPayload)}
}

func (b *recorderBroadcaster) TriggerProductUpdate(p store.Product) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = append(b.products, p)
}

func (b *recorderBroadcaster) TriggerOrderUpdate(o store.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = append(b.orders, o)
}

func (b *recorderBroadcaster) TriggerUserUpdate(u realtime.UserPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append(b.users, u)
}

func (b *recorderBroadcaster) TriggerSystemAlert(a realtime.AlertPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = append(b.alerts, a)
}

func (b *recorderBroadcaster) SendNotification(userID string, n realtime.NotificationPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications[userID] = n
}

func newTestRouter(t *testing.T) (http.Handler, *recorderBroadcaster) {
	t.Helper()

	tracker := presence.NewTracker(presence.DefaultTTL, presence.WithReapInterval(time.Hour))
	t.Cleanup(tracker.Stop)

	verifier := jwt.NewHMACVerifier(testSecret)
	metrics := realtime.NewMetrics(prometheus.NewRegistry())
	hub := realtime.NewHub(verifier, tracker, metrics)

	memStore := store.NewMemoryStore()
	stats := realtime.NewStats(hub, memStore, tracker)
	broadcaster := newRecorderBroadcaster()
	hub.Bind(broadcaster, stats)

	deps := &AppDeps{
		Hub:         hub,
		Broadcaster: broadcaster,
		Stats:       stats,
		Presence:    tracker,
		Store:       memStore,
		Verifier:    verifier,
		Config: &configs.AppConfig{
			Environment: "development",
			JWTSecret:   testSecret,
		},
	}

	return Router(deps), broadcaster
}

func bearerFor(t *testing.T, role jwt.Role) string {
	t.Helper()

	token, err := jwt.GenerateToken(jwt.Identity{UID: "u-" + string(role), Role: role}, testSecret, time.Hour)
	require.NoError(t, err)

	return "Bearer " + token
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestTriggerRequiresIdentity(t *testing.T) {
	router, broadcaster := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/trigger/product", strings.NewReader(`{"id":"p1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, broadcaster.products)
}

func TestTriggerRejectsNonAdmin(t *testing.T) {
	router, broadcaster := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/trigger/product", strings.NewReader(`{"id":"p1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, jwt.RoleUser))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, broadcaster.products)
}

func TestTriggerProductAsAdmin(t *testing.T) {
	router, broadcaster := newTestRouter(t)

	body := `{"id":"p1","name":"Lamp","price":19.99,"stock":3,"active":true}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/trigger/product", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, jwt.RoleAdmin))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, broadcaster.products, 1)
	assert.Equal(t, "Lamp", broadcaster.products[0].Name)
	assert.Equal(t, 3, broadcaster.products[0].Stock)
}

func TestTriggerRejectsMalformedBody(t *testing.T) {
	router, broadcaster := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/trigger/product", strings.NewReader(`{"id":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, jwt.RoleAdmin))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, broadcaster.products)
}

func TestSendNotificationAsAdmin(t *testing.T) {
	router, broadcaster := newTestRouter(t)

	body := `{"userId":"u42","level":"info","message":"Your order shipped"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/trigger/notification", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, jwt.RoleAdmin))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, broadcaster.notifications, "u42")
	assert.Equal(t, "Your order shipped", broadcaster.notifications["u42"].Message)
}

func TestConnectionStatsIsPublic(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/connections", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connectedClients":0`)
}

func TestDashboardStatsRequiresAdmin(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats/dashboard", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt.RoleAdmin))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPresenceStatsReflectsTracker(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats/presence", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt.RoleAdmin))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"onlineCount":0`)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidTokenTreatedAsAnonymous(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/trigger/alert", strings.NewReader(`{"message":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
