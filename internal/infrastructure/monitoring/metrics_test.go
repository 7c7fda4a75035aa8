package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}

func TestSnapshotTracksCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordHTTPRequest("GET", "/workspace", "200", 5*time.Millisecond, 0, 120)
	m.RecordHTTPRequest("POST", "/workspace/cards", "400", time.Millisecond, 10, 30)
	m.RecordCardChange("added")
	m.RecordSave("memory", time.Millisecond, nil)
	m.RecordSave("memory", time.Millisecond, errors.New("disk full"))
	m.SetWorkspacesOpen(3)
	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.TotalRequests)
	assert.EqualValues(t, 1, snap.TotalErrors)
	assert.EqualValues(t, 1, snap.CardChanges)
	assert.EqualValues(t, 2, snap.Saves)
	assert.EqualValues(t, 1, snap.SaveErrors)
	assert.EqualValues(t, 3, snap.OpenWorkspaces)
	assert.EqualValues(t, 1, snap.ActiveConnections)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Saves.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
}

func TestCountersByLabel(t *testing.T) {
	m := NewMetrics()

	m.RecordPull("applied")
	m.RecordPull("noop")
	m.RecordPull("noop")
	m.AddImportSkipped(0)
	m.AddImportSkipped(2)
	m.IncCatalogReloads()
	m.RecordWSMessage("in", "visible")
	m.AddCardsOpen(2)
	m.AddCardsOpen(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Pulls.WithLabelValues("noop")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogReloads))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSMessages.WithLabelValues("in", "visible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CardsOpen))
}

func TestMiddlewareLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.DELETE("/workspace/cards/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("DELETE", "/workspace/cards/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/missing", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("DELETE", "/workspace/cards/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.UpdateUptime()
	m.IncCatalogReloads()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cardspace_catalog_reloads_total 1")
	assert.Contains(t, w.Body.String(), "cardspace_uptime_seconds")
}
