package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/belldesk-backend/internal/deposits"
	"github.com/angelmondragon/belldesk-backend/internal/luggage"
	"github.com/angelmondragon/belldesk-backend/internal/staff"
	"github.com/angelmondragon/belldesk-backend/internal/testdb"
	"github.com/angelmondragon/belldesk-backend/pkg/config"
	"github.com/angelmondragon/belldesk-backend/pkg/db"
	"github.com/angelmondragon/belldesk-backend/pkg/lock"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	"github.com/angelmondragon/belldesk-backend/pkg/metrics"
	"github.com/angelmondragon/belldesk-backend/pkg/outbox"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryLockStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] != value {
		return false, nil
	}
	delete(m.keys, key)
	return true, nil
}

func testConfig(staticDir string) *config.Config {
	return &config.Config{
		App:          config.AppConfig{Env: "test"},
		Desk:         config.DeskConfig{StaticDir: staticDir, CORSOrigins: []string{"*"}},
		FeatureFlags: config.FeatureFlagsConfig{ServeStatic: staticDir != ""},
	}
}

func newTestRouter(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	conn := testdb.New(t)
	logg := logger.Nop()
	tx := db.NewFromGorm(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	reg := prometheus.NewRegistry()

	locks, err := lock.NewKeyed(&memoryLockStore{keys: map[string]string{}}, time.Minute, func(id string) string {
		return "test:lock:" + id
	})
	require.NoError(t, err)

	luggageSvc, err := luggage.NewService(luggage.ServiceParams{
		Repo:   luggage.NewRepository(conn),
		Tx:     tx,
		Outbox: emitter,
		Logger: logg,
	})
	require.NoError(t, err)

	depositSvc, err := deposits.NewService(deposits.ServiceParams{
		Repo:    deposits.NewRepository(conn),
		Tx:      tx,
		Outbox:  emitter,
		Locks:   locks,
		Metrics: metrics.NewDepositReleaseMetrics(reg),
		Logger:  logg,
	})
	require.NoError(t, err)

	staffSvc, err := staff.NewService(staff.ServiceParams{Repo: staff.NewRepository(conn), Logger: logg})
	require.NoError(t, err)

	return NewRouter(Params{
		Config:      testConfig(staticDir),
		Logger:      logg,
		DB:          stubPinger{},
		Redis:       stubPinger{},
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
		Luggage:     luggageSvc,
		Deposits:    depositSvc,
		Staff:       staffSvc,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestDepositReleaseScenario(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/api/deposit", `{"tag":"T1","guest":"Doe","pcs":"2","location":"Locker A"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.NotZero(t, created["timestamp"])
	assert.Equal(t, "2", created["pcs"])

	rec = do(t, h, http.MethodPost, "/api/deposit/release/"+id, `{"releasePorter":"Mario"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Riconsegnato", decode[map[string]string](t, rec)["message"])

	rec = do(t, h, http.MethodGet, "/api/deposit/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]map[string]any](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, "T1", history[0]["tag"])
	assert.Equal(t, "Mario", history[0]["releasePorter"])
	assert.NotEmpty(t, history[0]["releaseDate"])
	assert.NotEmpty(t, history[0]["releaseTime"])

	rec = do(t, h, http.MethodGet, "/api/deposit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, d := range decode[[]map[string]any](t, rec) {
		assert.NotEqual(t, id, d["id"])
	}

	rec = do(t, h, http.MethodPost, "/api/deposit/release/"+id, `{"releasePorter":"Mario"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDepositReleaseMalformedID(t *testing.T) {
	h := newTestRouter(t, "")
	rec := do(t, h, http.MethodPost, "/api/deposit/release/65f1c0ffee", `{"releasePorter":"Mario"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/deposit/65f1c0ffee", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLuggageLifecycle(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/api/luggage", `{"guest":"John Smith","room":"101","pcs":3,"deliveryDate":"2026-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[map[string]any](t, rec)
	id := task["id"].(string)
	assert.Equal(t, "PENDING", task["status"])
	assert.EqualValues(t, 3, task["pcs"])

	rec = do(t, h, http.MethodPatch, "/api/luggage/"+id, `{"status":"DONE"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "DONE", decode[map[string]any](t, rec)["status"])

	rec = do(t, h, http.MethodPost, "/api/luggage/"+id+"/archive", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/archivio-dedicato?date=2026-03-01&filter=smith", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]map[string]any](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0]["sourceTaskId"])

	rec = do(t, h, http.MethodGet, "/api/luggage", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodPatch, "/api/luggage/"+id, `{"status":"DONE"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaffRoutes(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/api/users", `{"nome":"Mario","cognome":"Rossi","codice":"ST01","ruolo":"porter"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[map[string]any](t, rec)
	assert.Equal(t, "porter", user["role"])

	rec = do(t, h, http.MethodGet, "/api/users", "")
	require.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = do(t, h, http.MethodDelete, "/api/users/"+user["id"].(string), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/users", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, "")

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health/ready", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "belldesk_http_requests_total")
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(\"desk\")"), 0o600))
	h := newTestRouter(t, dir)

	rec := do(t, h, http.MethodGet, "/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "desk")
}

func TestStaticFilesHidesDotfilesAndListings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BELLDESK_DB_DSN=postgres://desk:secret@db/desk"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("[core]"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "notes.txt"), []byte("notes"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "app"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app", "index.html"), []byte("<h1>desk</h1>"), 0o600))
	h := newTestRouter(t, dir)

	for _, p := range []string{"/.env", "/.git/config", "/sub/", "/"} {
		rec := do(t, h, http.MethodGet, p, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, p)
		assert.NotContains(t, rec.Body.String(), "secret", p)
		assert.NotContains(t, rec.Body.String(), "<pre>", p)
	}

	rec := do(t, h, http.MethodGet, "/sub/notes.txt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "notes", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/app/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "desk")
}
