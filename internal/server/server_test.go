package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/momcare/mealplan/backend/internal/catalog"
	"github.com/momcare/mealplan/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(t *testing.T, s *Server, path string) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	s.Handler().ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealth(t *testing.T) {
	s := New(":0", catalog.NewStore(nil), nil)
	code, body := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestReady(t *testing.T) {
	ix, err := catalog.NewIndex(7, testhelpers.CatalogItems(2))
	require.NoError(t, err)

	db := testhelpers.SetupSQLite(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	s := New(":0", catalog.NewStore(ix), nil, Check{Name: "database", Probe: sqlDB.PingContext})
	code, body := get(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, float64(7), body["catalog_version"])
	assert.Equal(t, float64(ix.Len()), body["catalog_items"])
	assert.Equal(t, map[string]interface{}{"catalog": "ok", "database": "ok"}, body["checks"])
}

func TestReadyUnavailable(t *testing.T) {
	t.Run("catalog not loaded", func(t *testing.T) {
		s := New(":0", catalog.NewStore(nil), nil)
		code, body := get(t, s, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unavailable", body["status"])
		assert.NotContains(t, body, "catalog_version")
	})

	t.Run("failing probe", func(t *testing.T) {
		ix, err := catalog.NewIndex(1, testhelpers.CatalogItems(1))
		require.NoError(t, err)

		s := New(":0", catalog.NewStore(ix), nil, Check{
			Name:  "redis",
			Probe: func(ctx context.Context) error { return errors.New("connection refused") },
		})
		code, body := get(t, s, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "connection refused", body["checks"].(map[string]interface{})["redis"])
	})
}

func TestStartStop(t *testing.T) {
	s := New("127.0.0.1:0", catalog.NewStore(nil), nil)
	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	require.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, <-done)
}
