package ginmetrics

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cap-mahdi/TP2-devops/pkg/httpmetrics"
	"github.com/cap-mahdi/TP2-devops/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*gin.Engine, *metrics.Registry, *httpmetrics.ConnectionTracker) {
	t.Helper()

	reg := metrics.NewRegistry()
	require.NoError(t, metrics.RegisterStandard(reg))
	tracker, err := httpmetrics.NewConnectionTracker(reg)
	require.NoError(t, err)
	collector, err := httpmetrics.NewCollector(reg, httpmetrics.WithSkipPaths("/metrics"))
	require.NoError(t, err)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Middleware(tracker, collector))

	r.GET("/users", func(c *gin.Context) {
		c.JSON(http.StatusOK, []string{})
	})
	r.PUT("/users/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, "")
	})
	return r, reg, tracker
}

func value(t *testing.T, reg *metrics.Registry, name string, labels ...string) float64 {
	t.Helper()
	c, err := reg.Counter(name)
	require.NoError(t, err)
	v, err := c.Value(labels...)
	require.NoError(t, err)
	return v
}

func TestMiddleware_RecordsRouteTemplate(t *testing.T) {
	r, reg, tracker := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/users/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, value(t, reg, metrics.RequestsTotal, "PUT", "/users/:id", "404"))
	assert.Equal(t, 1.0, value(t, reg, metrics.ApplicationErrorsTotal, "client_error", "/users/:id"))
	assert.Zero(t, tracker.Active())
}

func TestMiddleware_Unmatched(t *testing.T) {
	r, reg, _ := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/does/not/exist", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, value(t, reg, metrics.RequestsTotal, "GET", httpmetrics.UnmatchedRoute, "404"))
}

func TestMiddleware_Panic(t *testing.T) {
	r, reg, tracker := setup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	assert.Equal(t, 1.0, value(t, reg, metrics.RequestsTotal, "GET", "/boom", "500"))
	assert.Equal(t, 1.0, value(t, reg, metrics.ApplicationErrorsTotal, "server_error", "/boom"))
	assert.Zero(t, tracker.Active())
}

func TestMiddleware_SkipPaths(t *testing.T) {
	r, reg, _ := setup(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Zero(t, value(t, reg, metrics.RequestsTotal, "GET", "/metrics", "200"))
}

func TestMiddleware_Concurrent(t *testing.T) {
	r, reg, tracker := setup(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users", nil))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10.0, value(t, reg, metrics.RequestsTotal, "GET", "/users", "200"))
	assert.Zero(t, tracker.Active())
}

func TestMiddleware_NilHooks(t *testing.T) {
	r := gin.New()
	r.Use(Middleware(nil, nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
