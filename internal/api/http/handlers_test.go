package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/api/middleware"
	"github.com/GriffinCanCode/cardspace/internal/domain/card"
	"github.com/GriffinCanCode/cardspace/internal/domain/catalog"
	"github.com/GriffinCanCode/cardspace/internal/domain/workspace"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/storage"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

type testEnv struct {
	router  *gin.Engine
	hub     *workspace.Hub
	records *storage.MemoryStore
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	records := storage.NewMemoryStore()
	metrics := monitoring.NewMetrics()
	hub := workspace.NewHub(workspace.Options{
		Records:  records,
		Metrics:  metrics,
		Debounce: time.Hour,
	})
	t.Cleanup(func() { _ = hub.CloseAll(context.Background()) })

	h := NewHandlers(hub, metrics, zap.NewNop())
	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/catalog", h.Catalog)
	r.GET("/records/:user", h.GetRecord)
	r.PUT("/records/:user", h.PutRecord)

	w := r.Group("/workspace", middleware.Identity())
	w.GET("", h.GetWorkspace)
	w.DELETE("", h.CloseWorkspace)
	w.PUT("/bounds", h.SetBounds)
	w.PUT("/mode", h.SetMode)
	w.POST("/sync", h.Sync)
	w.POST("/flush", h.Flush)
	w.GET("/minimized", h.Minimized)
	w.GET("/cards", h.ListCards)
	w.POST("/cards", h.AddCard)
	w.DELETE("/cards/:id", h.RemoveCard)
	w.POST("/cards/:id/focus", h.FocusCard)
	w.POST("/cards/:id/move", h.MoveCard)
	w.POST("/cards/:id/resize", h.ResizeCard)
	w.POST("/cards/:id/minimize", h.MinimizeCard)
	w.POST("/cards/:id/restore", h.RestoreCard)
	w.POST("/cards/:id/maximize", h.MaximizeCard)
	w.POST("/cards/:id/unmaximize", h.UnmaximizeCard)
	w.POST("/cards/:id/toggle-maximize", h.ToggleMaximize)
	w.POST("/cards/:id/title", h.SetTitle)
	w.POST("/cards/:id/meta", h.SetMeta)
	w.POST("/cards/:id/reorder", h.ReorderCard)
	w.POST("/cards/:id/shuffle", h.ShuffleCard)
	w.POST("/focus/next", h.FocusNext)
	w.POST("/focus/prev", h.FocusPrev)
	w.POST("/drag/begin", h.DragBegin)
	w.POST("/drag/move", h.DragMove)
	w.POST("/drag/end", h.DragEnd)
	w.POST("/drag/cancel", h.DragCancel)
	w.POST("/mobile/touch-start", h.TouchStart)
	w.POST("/mobile/touch-move", h.TouchMove)
	w.POST("/mobile/touch-end", h.TouchEnd)
	w.POST("/mobile/jump", h.Jump)

	return &testEnv{router: r, hub: hub, records: records}
}

// call sends a request as user alice from device
func (e *testEnv) call(t *testing.T, device, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if device != "" {
		req.Header.Set(middleware.HeaderUserID, "alice")
		req.Header.Set(middleware.HeaderDeviceID, device)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (e *testEnv) addCard(t *testing.T, device, cardType string) string {
	t.Helper()
	code, resp := e.call(t, device, "POST", "/workspace/cards", fmt.Sprintf(`{"type":%q}`, cardType))
	require.Equal(t, http.StatusOK, code, resp)
	return resp["card_id"].(string)
}

func TestRootAndHealth(t *testing.T) {
	env := setupTestRouter(t)

	code, resp := env.call(t, "", "GET", "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "online", resp["status"])
	assert.Equal(t, "cardspace", resp["service"])

	env.addCard(t, "desk", "terminal")

	code, resp = env.call(t, "", "GET", "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "memory", resp["storage"])
	assert.EqualValues(t, 13, resp["catalog"])

	ws := resp["workspaces"].(map[string]interface{})
	assert.EqualValues(t, 1, ws["workspaces"])
	assert.EqualValues(t, 1, ws["cards"])
	assert.Contains(t, resp, "metrics")

	code, resp = env.call(t, "", "GET", "/catalog", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["types"], 13)
}

func TestWorkspaceRequiresIdentity(t *testing.T) {
	env := setupTestRouter(t)

	code, resp := env.call(t, "", "GET", "/workspace", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp["error"], "user_id")
}

func TestGetWorkspace(t *testing.T) {
	env := setupTestRouter(t)
	id := env.addCard(t, "desk", "chat")

	code, resp := env.call(t, "desk", "GET", "/workspace", "")
	require.Equal(t, http.StatusOK, code)

	snap := resp["workspace"].(map[string]interface{})
	assert.Equal(t, id, snap["focused_id"])
	assert.Len(t, snap["cards"], 1)
	assert.Equal(t, "freeform", snap["layout_mode"])

	mobile := resp["mobile"].(map[string]interface{})
	assert.EqualValues(t, 1, mobile["count"])
	assert.Contains(t, resp, "sync")
}

func TestCardLifecycle(t *testing.T) {
	env := setupTestRouter(t)
	id := env.addCard(t, "desk", "terminal")
	path := "/workspace/cards/" + id

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		wantStatus  int
		wantSuccess bool
	}{
		{"move", "POST", path + "/move", `{"x":200,"y":150}`, http.StatusOK, true},
		{"move without body", "POST", path + "/move", "", http.StatusBadRequest, false},
		{"resize", "POST", path + "/resize", `{"width":600,"height":400}`, http.StatusOK, true},
		{"resize missing height", "POST", path + "/resize", `{"width":600}`, http.StatusBadRequest, false},
		{"title", "POST", path + "/title", `{"title":"Build logs"}`, http.StatusOK, true},
		{"meta", "POST", path + "/meta", `{"meta":{"cwd":"/srv"}}`, http.StatusOK, true},
		{"minimize", "POST", path + "/minimize", "", http.StatusOK, true},
		{"restore", "POST", path + "/restore", "", http.StatusOK, true},
		{"maximize", "POST", path + "/maximize", "", http.StatusOK, true},
		{"unmaximize", "POST", path + "/unmaximize", "", http.StatusOK, true},
		{"toggle", "POST", path + "/toggle-maximize", "", http.StatusOK, true},
		{"toggle back", "POST", path + "/toggle-maximize", "", http.StatusOK, true},
		{"focus", "POST", path + "/focus", "", http.StatusOK, true},
		{"reorder", "POST", path + "/reorder", `{"index":0}`, http.StatusOK, true},
		{"unknown card", "POST", "/workspace/cards/nope/focus", "", http.StatusOK, false},
		{"invalid card id", "POST", "/workspace/cards/bad%20id/focus", "", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := env.call(t, "desk", tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, code, resp)
			if code == http.StatusOK {
				assert.Equal(t, tt.wantSuccess, resp["success"])
			} else {
				assert.NotEmpty(t, resp["error"])
			}
		})
	}

	ws, ok := env.hub.Get("alice", "desk")
	require.True(t, ok)
	c, ok := ws.Store.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Build logs", c.Title)
	assert.Equal(t, "/srv", c.Meta["cwd"])
	assert.False(t, c.Maximized)
	assert.Equal(t, types.Rect{X: 200, Y: 150, Width: 600, Height: 400}, c.Geometry.Rect())

	code, resp := env.call(t, "desk", "DELETE", path, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])

	code, resp = env.call(t, "desk", "DELETE", path, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["success"])
}

func TestAddCardValidation(t *testing.T) {
	env := setupTestRouter(t)

	code, _ := env.call(t, "desk", "POST", "/workspace/cards", `{"type":"spreadsheet"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.call(t, "desk", "POST", "/workspace/cards", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	// singleton types hand back the open card
	first := env.addCard(t, "desk", "settings")
	second := env.addCard(t, "desk", "settings")
	assert.Equal(t, first, second)

	code, resp := env.call(t, "desk", "POST", "/workspace/cards", `{"type":"conversation","title":"Ideas","data_ref":"conv-9"}`)
	require.Equal(t, http.StatusOK, code)
	created := resp["card"].(map[string]interface{})
	assert.Equal(t, "Ideas", created["title"])
}

func TestViews(t *testing.T) {
	env := setupTestRouter(t)
	term := env.addCard(t, "desk", "terminal")
	env.addCard(t, "desk", "chat")
	env.addCard(t, "desk", "terminal")

	code, resp := env.call(t, "desk", "GET", "/workspace/cards?type=terminal", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, resp["count"])

	code, resp = env.call(t, "desk", "GET", "/workspace/cards", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, resp["count"])

	code, _ = env.call(t, "desk", "GET", "/workspace/cards?type=spreadsheet", "")
	assert.Equal(t, http.StatusBadRequest, code)

	env.call(t, "desk", "POST", "/workspace/cards/"+term+"/minimize", "")
	code, resp = env.call(t, "desk", "GET", "/workspace/minimized", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp["cards"], 1)
	assert.Equal(t, term, resp["cards"].([]interface{})[0].(map[string]interface{})["id"])
}

func TestModeAndBounds(t *testing.T) {
	env := setupTestRouter(t)
	env.addCard(t, "desk", "terminal")
	env.addCard(t, "desk", "chat")

	code, resp := env.call(t, "desk", "PUT", "/workspace/mode", `{"mode":"tile"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "tile", resp["mode"])
	assert.Len(t, resp["placements"], 2)

	code, _ = env.call(t, "desk", "PUT", "/workspace/mode", `{"mode":"mosaic"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = env.call(t, "desk", "PUT", "/workspace/bounds", `{"width":1024,"height":768}`)
	require.Equal(t, http.StatusOK, code)
	bounds := resp["bounds"].(map[string]interface{})
	assert.EqualValues(t, 1024, bounds["width"])

	code, _ = env.call(t, "desk", "PUT", "/workspace/bounds", `{"width":0,"height":768}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestShuffle(t *testing.T) {
	env := setupTestRouter(t)
	first := env.addCard(t, "desk", "terminal")
	second := env.addCard(t, "desk", "chat")

	code, _ := env.call(t, "desk", "POST", "/workspace/cards/"+first+"/shuffle", "")
	assert.Equal(t, http.StatusConflict, code, "freeform has no stack")

	env.call(t, "desk", "PUT", "/workspace/mode", `{"mode":"stack"}`)

	code, resp := env.call(t, "desk", "POST", "/workspace/cards/"+first+"/shuffle", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["transitions"])

	code, _ = env.call(t, "desk", "POST", "/workspace/cards/"+first+"/shuffle", "")
	assert.Equal(t, http.StatusConflict, code, "already primary")

	code, resp = env.call(t, "desk", "POST", "/workspace/cards/ghost/shuffle", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["success"])

	ws, _ := env.hub.Get("alice", "desk")
	focused, ok := ws.Store.Focused()
	require.True(t, ok)
	assert.Equal(t, first, focused.ID)
	assert.NotEqual(t, second, focused.ID)
}

func TestFocusCycle(t *testing.T) {
	env := setupTestRouter(t)
	a := env.addCard(t, "desk", "terminal")
	b := env.addCard(t, "desk", "chat")

	code, resp := env.call(t, "desk", "POST", "/workspace/focus/next", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, a, resp["card_id"])

	_, resp = env.call(t, "desk", "POST", "/workspace/focus/prev", "")
	assert.Equal(t, b, resp["card_id"])
}

func TestFreeformDrag(t *testing.T) {
	env := setupTestRouter(t)
	id := env.addCard(t, "desk", "terminal")
	ws, _ := env.hub.Get("alice", "desk")
	c, _ := ws.Store.Get(id)
	origin := c.Geometry.Rect()

	code, resp := env.call(t, "desk", "POST", "/workspace/drag/begin", fmt.Sprintf(`{"card_id":%q,"x":100,"y":100}`, id))
	require.Equal(t, http.StatusOK, code, resp)

	code, _ = env.call(t, "desk", "POST", "/workspace/drag/begin", fmt.Sprintf(`{"card_id":%q,"x":100,"y":100}`, id))
	assert.Equal(t, http.StatusConflict, code)

	_, resp = env.call(t, "desk", "POST", "/workspace/drag/move", `{"x":150,"y":120}`)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, id, resp["dragging"])

	_, resp = env.call(t, "desk", "POST", "/workspace/drag/end", "")
	assert.Equal(t, true, resp["success"])
	result := resp["result"].(map[string]interface{})
	assert.Equal(t, true, result["committed"])

	c, _ = ws.Store.Get(id)
	assert.Equal(t, origin.X+50, c.Geometry.X)
	assert.Equal(t, origin.Y+20, c.Geometry.Y)

	_, resp = env.call(t, "desk", "POST", "/workspace/drag/end", "")
	assert.Equal(t, false, resp["success"])

	// a cancelled drag puts the card back
	env.call(t, "desk", "POST", "/workspace/drag/begin", fmt.Sprintf(`{"card_id":%q,"x":0,"y":0}`, id))
	env.call(t, "desk", "POST", "/workspace/drag/move", `{"x":30,"y":30}`)
	_, resp = env.call(t, "desk", "POST", "/workspace/drag/cancel", "")
	assert.Equal(t, true, resp["success"])
	c, _ = ws.Store.Get(id)
	assert.Equal(t, origin.X+50, c.Geometry.X)

	code, resp = env.call(t, "desk", "POST", "/workspace/drag/begin", `{"card_id":"ghost","x":0,"y":0}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["success"])
}

func TestMobileSwipe(t *testing.T) {
	env := setupTestRouter(t)
	env.addCard(t, "phone", "chat")
	second := env.addCard(t, "phone", "terminal")
	third := env.addCard(t, "phone", "git")

	env.call(t, "phone", "POST", "/workspace/mobile/touch-start", `{"x":300,"t":0}`)
	_, resp := env.call(t, "phone", "POST", "/workspace/mobile/touch-move", `{"x":200,"t":50}`)
	assert.EqualValues(t, -100, resp["offset"])

	code, resp := env.call(t, "phone", "POST", "/workspace/mobile/touch-end", `{"x":100,"t":100}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, second, resp["card_id"])
	outcome := resp["outcome"].(map[string]interface{})
	assert.EqualValues(t, 1, outcome["active_index"])

	_, resp = env.call(t, "phone", "POST", "/workspace/mobile/jump", `{"index":99}`)
	assert.EqualValues(t, 2, resp["active_index"], "clamped")
	assert.Equal(t, third, resp["card_id"])
}

func TestFlushAndSync(t *testing.T) {
	env := setupTestRouter(t)
	env.addCard(t, "desk", "terminal")

	code, resp := env.call(t, "desk", "POST", "/workspace/flush", "")
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, 1, env.records.Len())

	// a second device picks the layout up when it opens
	_, resp = env.call(t, "phone", "GET", "/workspace/cards", "")
	assert.EqualValues(t, 1, resp["count"])

	env.addCard(t, "desk", "chat")
	env.call(t, "desk", "POST", "/workspace/flush", "")

	code, resp = env.call(t, "phone", "POST", "/workspace/sync", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])

	_, resp = env.call(t, "phone", "POST", "/workspace/sync", "")
	assert.Equal(t, false, resp["success"], "same record is a no-op")
	pull := resp["pull"].(map[string]interface{})
	assert.Equal(t, "noop", pull["result"])

	_, resp = env.call(t, "phone", "GET", "/workspace/cards", "")
	assert.EqualValues(t, 2, resp["count"])

	code, resp = env.call(t, "phone", "DELETE", "/workspace", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	_, open := env.hub.Get("alice", "phone")
	assert.False(t, open)
}

func TestRecords(t *testing.T) {
	env := setupTestRouter(t)

	code, _ := env.call(t, "", "GET", "/records/alice", "")
	assert.Equal(t, http.StatusNotFound, code)

	// an open device learns about records pushed by another server
	env.call(t, "phone", "GET", "/workspace", "")

	remote := card.NewStore(catalog.New(), types.Bounds{Width: 1280, Height: 800}, zap.NewNop())
	_, err := remote.AddCard(context.Background(), types.CardGit, card.Payload{})
	require.NoError(t, err)
	rec := remote.Export("alice", "tablet")
	body, err := json.Marshal(rec)
	require.NoError(t, err)

	code, resp := env.call(t, "", "PUT", "/records/alice", string(body))
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, rec.Hash, resp["hash"])
	assert.EqualValues(t, 1, resp["pulled"])

	ws, _ := env.hub.Get("alice", "phone")
	assert.Equal(t, 1, ws.Store.Len())

	code, resp = env.call(t, "", "GET", "/records/alice", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", resp["user_id"])
	assert.Len(t, resp["cards"], 1)

	code, _ = env.call(t, "", "PUT", "/records/bob", string(body))
	assert.Equal(t, http.StatusBadRequest, code, "user mismatch")

	code, resp = env.call(t, "", "PUT", "/records/carol", `{"cards":[]}`)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, resp["hash"], "hash computed when missing")

	code, _ = env.call(t, "", "GET", "/records/bad%20user", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
