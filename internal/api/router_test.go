package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jengzang/geolife-backend-go/internal/config"
	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/handler"
	"github.com/jengzang/geolife-backend-go/internal/middleware"
	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/repository"
	"github.com/jengzang/geolife-backend-go/internal/service"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T, cfg *config.Config, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver:   database.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "geolife_test.db"),
		MaxConns: 2,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	start := time.Date(2008, 5, 1, 9, 0, 0, 0, time.UTC)
	walk := "walk"
	require.NoError(t, repository.NewIngestRepository(db, false).SaveUserBatch(ctx, models.UserBatch{
		User: models.User{ID: 112, HasLabels: true},
		Activities: []models.ActivityBatch{{
			Activity: models.Activity{TransportationMode: &walk, StartTime: start, EndTime: start.Add(10 * time.Minute)},
			Points: []models.TrackPoint{
				{Lat: 39.916, Lon: 116.397, Timestamp: start},
				{Lat: 39.926, Lon: 116.397, Timestamp: start.Add(10 * time.Minute)},
			},
		}},
	}))

	svc := service.NewQueryService(repository.NewQueryRepository(db), 2, zap.NewNop())
	return SetupRouter(cfg, handler.NewQueryHandler(svc), limiter, zap.NewNop())
}

func get(r http.Handler, path string, header http.Header) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestQueryEndpoints(t *testing.T) {
	r := setupRouter(t, &config.Config{}, nil)

	w, env := get(r, "/api/v1/queries/distance?userId=112&mode=walk&year=2008", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var distance models.DistanceResult
	require.NoError(t, json.Unmarshal(env.Data, &distance))
	assert.Equal(t, 1, distance.Activities)
	assert.InDelta(t, 1.112, distance.TotalKm, 0.001)

	w, _ = get(r, "/api/v1/queries/distance?userId=112&mode=hover&year=2008", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = get(r, "/api/v1/queries/distance?userId=abc&mode=walk&year=2008", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = get(r, "/api/v1/queries/invalid-activities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"userId":112,"count":1}],"count":1}`, string(env.Data))

	w, env = get(r, "/api/v1/queries/nearby", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var nearby struct {
		Users []int64 `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &nearby))
	assert.Equal(t, []int64{112}, nearby.Users)

	w, env = get(r, "/api/v1/queries/altitude-gain?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"userId":112,"total":0}],"count":1}`, string(env.Data))

	w, _ = get(r, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth(t *testing.T) {
	secret := "test-secret"
	r := setupRouter(t, &config.Config{JWTSecret: secret}, nil)
	path := "/api/v1/queries/invalid-activities"

	w, _ := get(r, path, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = get(r, path, http.Header{"Authorization": {"Bearer not-a-token"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "analyst",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	w, _ = get(r, path, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = get(r, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	r := setupRouter(t, &config.Config{}, limiter)

	path := "/api/v1/queries/altitude-gain"
	for i := 0; i < 2; i++ {
		w, _ := get(r, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w, env := get(r, path, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, http.StatusTooManyRequests, env.Code)
}
