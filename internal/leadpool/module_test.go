package leadpool

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadpool_backend/internal/events"
	apphttp "leadpool_backend/internal/http"
	"leadpool_backend/internal/http/router"
	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/maintenance"
	"leadpool_backend/internal/leadpool/repository"
	"leadpool_backend/platform/config"
	"leadpool_backend/platform/logger"
	"leadpool_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	engine *gin.Engine
	store  *repository.Memory
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTAccessSecret:         testSecret,
		CORSOrigins:             []string{"http://localhost:4200"},
		DistributionMode:        "top_up",
		DistributionConcurrency: 2,
		PoolBatchSize:           50,
		PoolScanPageSize:        100,
	}
	store := repository.NewMemory()
	log := logger.Nop()

	module, err := NewModule(store, maintenance.NewStoreGate(store), events.NewInMemoryBus(log), validator.New(), cfg, nil, log)
	require.NoError(t, err)

	engine := router.New(&apphttp.App{Config: cfg, Logger: log, Modules: []apphttp.Module{module}})
	return &testServer{engine: engine, store: store, token: signToken(t, "admin")}
}

func signToken(t *testing.T, roles ...string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"type":  "access",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const base = "/api/v1/admin/lead-pool"

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, base+"/analytics", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/analytics", nil, signToken(t, "dispatcher"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/analytics", nil, s.token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestImportDistributeAndAnalytics(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.store.SaveTenant(ctx, domain.TenantConfig{ID: uuid.New(), Name: "Acme", DailyQuota: 2, IsActive: true}))

	rec := s.do(t, http.MethodPost, base+"/leads", map[string]any{"leads": []map[string]any{
		{"firstName": "Ana", "lastName": "Lopez", "email": "ana@fleet.io", "phone": "312-555-0101"},
		{"firstName": "Ben", "lastName": "Okafor", "email": "ben@fleet.io", "phone": "312-555-0102"},
		{"firstName": "Cy", "lastName": "Park", "email": "cy@fleet.io", "phone": "312-555-0103"},
	}}, s.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decode(t, rec)["inserted"])

	rec = s.do(t, http.MethodPost, base+"/distribute", nil, s.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decode(t, rec)
	assert.Equal(t, "completed", run["outcome"])
	assert.EqualValues(t, 2, run["totalAllocated"])
	assert.Len(t, run["perTenant"], 1)

	rec = s.do(t, http.MethodGet, base+"/analytics", nil, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode(t, rec)
	supply := snap["supply"].(map[string]any)
	health := snap["health"].(map[string]any)
	assert.EqualValues(t, 1, supply["availableNow"])
	assert.Equal(t, "deficit", health["status"])
	assert.EqualValues(t, -1, health["gap"])

	rec = s.do(t, http.MethodGet, base+"/companies", nil, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	companies := decode(t, rec)["companies"].([]any)
	require.Len(t, companies, 1)
	assert.EqualValues(t, 2, companies[0].(map[string]any)["platformLeadsCount"])
}

func TestRecallRequiresConfirmation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, base+"/recall", map[string]any{}, s.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/recall", map[string]any{"confirm": false}, s.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/recall", map[string]any{"confirm": true}, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 0, body["deletedCount"])
	assert.EqualValues(t, 0, body["unlockedCount"])
}

func TestMaintenanceModePausesDistribution(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, base+"/maintenance", map[string]any{"enabled": true}, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["enabled"])

	rec = s.do(t, http.MethodGet, base+"/maintenance", nil, s.token)
	assert.Equal(t, true, decode(t, rec)["enabled"])

	rec = s.do(t, http.MethodPost, base+"/distribute", map[string]any{"force": true}, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "maintenance_paused", decode(t, rec)["outcome"])

	rec = s.do(t, http.MethodPost, base+"/cleanup", nil, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "maintenance_paused", decode(t, rec)["outcome"])

	rec = s.do(t, http.MethodPut, base+"/maintenance", map[string]any{}, s.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "enabled is required")
}

func TestCompanyUpdates(t *testing.T) {
	s := newTestServer(t)
	id := uuid.New()
	require.NoError(t, s.store.SaveTenant(context.Background(), domain.TenantConfig{ID: id, Name: "Acme", DailyQuota: 2, IsActive: true}))

	rec := s.do(t, http.MethodPatch, base+"/companies/not-a-uuid/active", map[string]any{"isActive": false}, s.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, base+"/companies/"+uuid.NewString()+"/active", map[string]any{"isActive": false}, s.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, base+"/companies/"+id.String()+"/active", map[string]any{"isActive": false}, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["isActive"])

	rec = s.do(t, http.MethodPut, base+"/companies/"+id.String()+"/quota", map[string]any{"dailyQuota": -3}, s.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, base+"/companies/"+id.String()+"/quota", map[string]any{"dailyQuota": 9, "distributionIntervalHours": 12}, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 9, body["dailyQuota"])
	assert.EqualValues(t, 12, body["distributionIntervalHours"])
}

func TestUnlockReportsMessage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, base+"/unlock", nil, s.token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 0, body["unlockedCount"])
	assert.NotEmpty(t, body["message"])
}
