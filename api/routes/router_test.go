package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bloodbank-backend/api/controllers"
	"github.com/angelmondragon/bloodbank-backend/api/middleware"
	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/pkg/config"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox"
	pkgredis "github.com/angelmondragon/bloodbank-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key], _ = value.(string)
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "bb:idempotency:" + scope + ":" + id
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithStore(t, nil)
}

func newTestRouterWithStore(t *testing.T, store pkgredis.IdempotencyStore) http.Handler {
	t.Helper()
	client := dbtest.Open(t)
	auditSvc, err := audit.NewService(audit.NewRepository(client.DB()))
	require.NoError(t, err)
	stock, err := inventory.NewService(inventory.ServiceParams{
		Repo:   inventory.NewRepository(client.DB()),
		Tx:     client,
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), nil),
		Audit:  auditSvc,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		App:  config.AppConfig{Env: "test"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "# metrics\n")
	})

	return NewRouter(cfg, logg, map[string]controllers.Pinger{"db": stubPinger{}}, store, metrics, Services{
		Inventory: stock,
		Audit:     auditSvc,
	})
}

func do(t *testing.T, h http.Handler, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if role != "" {
		req.Header.Set(middleware.ActorIDHeader, uuid.NewString())
		req.Header.Set(middleware.ActorRoleHeader, role)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics", "/api/public/ping"} {
		resp := do(t, router, http.MethodGet, path, "", "")
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestAPIRoutesRequireActor(t *testing.T) {
	router := newTestRouter(t)

	resp := do(t, router, http.MethodGet, "/api/v1/stock", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	resp = do(t, router, http.MethodGet, "/api/v1/stock", "staff", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestStockAdjustmentIsAdminOnly(t *testing.T) {
	router := newTestRouter(t)
	body := `{"blood_group":"A+","delta":6,"note":"opening count"}`

	resp := do(t, router, http.MethodPost, "/api/v1/stock/adjustments", "staff", body)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	resp = do(t, router, http.MethodPost, "/api/v1/stock/adjustments", "admin", body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = do(t, router, http.MethodGet, "/api/v1/stock/a-pos", "staff", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data inventory.Balance `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, 6, envelope.Data.UnitsAvailable)
}

func TestThresholdUpdateIsAdminOnly(t *testing.T) {
	router := newTestRouter(t)

	resp := do(t, router, http.MethodPut, "/api/v1/stock/O-/threshold", "staff", `{"low_stock_threshold":4}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	resp = do(t, router, http.MethodPut, "/api/v1/stock/O-/threshold", "admin", `{"low_stock_threshold":4}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestAuditLogsAreAdminOnly(t *testing.T) {
	router := newTestRouter(t)

	resp := do(t, router, http.MethodGet, "/api/admin/v1/audit-logs", "staff", "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	resp = do(t, router, http.MethodGet, "/api/admin/v1/audit-logs", "admin", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestUnwiredServiceReturnsServerError(t *testing.T) {
	router := newTestRouter(t)

	resp := do(t, router, http.MethodGet, "/api/v1/donors", "staff", "")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestMutatingRoutesRequireIdempotencyKey(t *testing.T) {
	store := newMemoryStore()
	router := newTestRouterWithStore(t, store)
	actorID := uuid.NewString()
	body := `{"blood_group":"A+","delta":6,"note":"opening count"}`

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/adjustments", strings.NewReader(body))
		req.Header.Set(middleware.ActorIDHeader, actorID)
		req.Header.Set(middleware.ActorRoleHeader, "admin")
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	resp := send("")
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = send("count-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Len(t, store.data, 1)

	replay := send("count-1")
	require.Equal(t, http.StatusOK, replay.Code)
	require.JSONEq(t, resp.Body.String(), replay.Body.String())

	resp = do(t, router, http.MethodGet, "/api/v1/stock/a-pos", "staff", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data inventory.Balance `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, 6, envelope.Data.UnitsAvailable)
}

func TestReadRoutesSkipIdempotency(t *testing.T) {
	router := newTestRouterWithStore(t, newMemoryStore())

	resp := do(t, router, http.MethodGet, "/api/v1/stock", "staff", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}
