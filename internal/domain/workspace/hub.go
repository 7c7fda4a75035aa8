// Package workspace keeps one live card store per user device.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/domain/card"
	"github.com/GriffinCanCode/cardspace/internal/domain/catalog"
	"github.com/GriffinCanCode/cardspace/internal/domain/layout"
	"github.com/GriffinCanCode/cardspace/internal/domain/mobile"
	"github.com/GriffinCanCode/cardspace/internal/domain/session"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/storage"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

// Workspace is one device's view of a user's cards
type Workspace struct {
	UserID   string
	DeviceID string
	Store    *card.Store
	Saver    *session.Saver
	Syncer   *session.Syncer
	Mobile   *mobile.Controller
	OpenedAt time.Time

	unsubscribe func()
}

// Sync pulls the user's record
func (w *Workspace) Sync(ctx context.Context) (session.PullResult, error) {
	return w.Syncer.Pull(ctx)
}

// follow keeps the mobile controller's card count in step with the store
func (w *Workspace) follow(ch card.Change) {
	switch ch.Kind {
	case card.ChangeRemoved:
		w.Mobile.Removed(ch.Index)
	case card.ChangeAdded, card.ChangeImported:
		w.Mobile.SetCount(w.Store.Len())
	case card.ChangeBounds:
		w.Mobile.SetWidth(float64(w.Store.Bounds().Width))
	}
}

// Options configures a hub
type Options struct {
	Catalog       *catalog.Catalog
	Records       storage.RecordStore
	Providers     *card.Registry
	Metrics       *monitoring.Metrics
	Logger        *zap.Logger
	Debounce      time.Duration
	DefaultBounds types.Bounds
	Layout        layout.Options
	Transitions   layout.TransitionOptions
}

type key struct {
	user, device string
}

// Hub owns the open workspaces
type Hub struct {
	mu         sync.RWMutex
	workspaces map[key]*Workspace // Protected by mu
	opts       Options
	logger     *zap.Logger
}

// NewHub creates a hub. Missing options fall back to defaults.
func NewHub(opts Options) *Hub {
	if opts.Catalog == nil {
		opts.Catalog = catalog.New()
	}
	if opts.Records == nil {
		opts.Records = storage.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = session.DefaultDebounce
	}
	if !opts.DefaultBounds.Valid() {
		opts.DefaultBounds = types.Bounds{Width: 1280, Height: 800}
	}
	if opts.Layout == (layout.Options{}) {
		opts.Layout = layout.DefaultOptions()
	}
	if opts.Transitions.Duration == 0 && opts.Transitions.FPS == 0 {
		reduced := opts.Transitions.ReducedMotion
		opts.Transitions = layout.DefaultTransitionOptions()
		opts.Transitions.ReducedMotion = reduced
	}
	return &Hub{
		workspaces: make(map[key]*Workspace),
		opts:       opts,
		logger:     opts.Logger,
	}
}

// Records returns the hub's record store
func (h *Hub) Records() storage.RecordStore {
	return h.opts.Records
}

// Catalog returns the card catalog shared by all workspaces
func (h *Hub) Catalog() *catalog.Catalog {
	return h.opts.Catalog
}

// Open returns the device's workspace, creating it and pulling the user's
// record on first open. Valid bounds replace the workspace bounds.
func (h *Hub) Open(ctx context.Context, userID, deviceID string, bounds types.Bounds) (*Workspace, error) {
	if err := utils.ValidateID(userID, "user_id", true); err != nil {
		return nil, err
	}
	if err := utils.ValidateID(deviceID, "device_id", true); err != nil {
		return nil, err
	}
	k := key{userID, deviceID}

	h.mu.RLock()
	ws, ok := h.workspaces[k]
	h.mu.RUnlock()
	if ok {
		if bounds.Valid() && bounds != ws.Store.Bounds() {
			if err := ws.Store.SetBounds(bounds); err != nil {
				return nil, err
			}
		}
		return ws, nil
	}

	if !bounds.Valid() {
		bounds = h.opts.DefaultBounds
	}
	ws = h.build(userID, deviceID, bounds)

	h.mu.Lock()
	if existing, ok := h.workspaces[k]; ok {
		// lost the race; discard ours
		h.mu.Unlock()
		ws.unsubscribe()
		_ = ws.Saver.Close(ctx)
		return existing, nil
	}
	h.workspaces[k] = ws
	count := len(h.workspaces)
	h.mu.Unlock()

	if h.opts.Metrics != nil {
		h.opts.Metrics.SetWorkspacesOpen(count)
	}

	res, err := ws.Syncer.Pull(ctx)
	if err != nil {
		// the workspace still works locally; the next sync retries
		h.logger.Warn("Initial pull failed",
			zap.String("user_id", userID),
			zap.String("device_id", deviceID),
			zap.Error(err))
	}
	h.logger.Info("Workspace opened",
		zap.String("user_id", userID),
		zap.String("device_id", deviceID),
		zap.String("pull", res.Result),
		zap.Int("cards", ws.Store.Len()))
	return ws, nil
}

func (h *Hub) build(userID, deviceID string, bounds types.Bounds) *Workspace {
	logger := h.logger.With(zap.String("user_id", userID), zap.String("device_id", deviceID))

	store := card.NewStore(h.opts.Catalog, bounds, logger).
		WithLayout(h.opts.Layout).
		WithTransitions(h.opts.Transitions)
	if h.opts.Providers != nil {
		store.WithProviders(h.opts.Providers)
	}
	if h.opts.Metrics != nil {
		store.WithMetrics(h.opts.Metrics)
	}

	saver := session.NewSaver(store, h.opts.Records, userID, deviceID, logger).WithDebounce(h.opts.Debounce)
	if h.opts.Metrics != nil {
		saver.WithMetrics(h.opts.Metrics)
	}

	ctrl := mobile.New(float64(bounds.Width), store.Len())
	ctrl.SetReducedMotion(h.opts.Transitions.ReducedMotion)

	ws := &Workspace{
		UserID:   userID,
		DeviceID: deviceID,
		Store:    store,
		Saver:    saver,
		Syncer:   session.NewSyncer(saver),
		Mobile:   ctrl,
		OpenedAt: time.Now(),
	}
	ws.unsubscribe = store.Subscribe(ws.follow)
	return ws
}

// Get returns an open workspace
func (h *Hub) Get(userID, deviceID string) (*Workspace, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ws, ok := h.workspaces[key{userID, deviceID}]
	return ws, ok
}

// Close flushes and forgets a workspace. Returns false if it was not open.
func (h *Hub) Close(ctx context.Context, userID, deviceID string) (bool, error) {
	k := key{userID, deviceID}

	h.mu.Lock()
	ws, ok := h.workspaces[k]
	if ok {
		delete(h.workspaces, k)
	}
	count := len(h.workspaces)
	h.mu.Unlock()

	if !ok {
		return false, nil
	}
	if h.opts.Metrics != nil {
		h.opts.Metrics.SetWorkspacesOpen(count)
	}
	ws.unsubscribe()
	if err := ws.Saver.Close(ctx); err != nil {
		return true, fmt.Errorf("failed to flush workspace %s/%s: %w", userID, deviceID, err)
	}
	return true, nil
}

// CloseAll flushes every workspace, used on shutdown
func (h *Hub) CloseAll(ctx context.Context) error {
	h.mu.RLock()
	keys := make([]key, 0, len(h.workspaces))
	for k := range h.workspaces {
		keys = append(keys, k)
	}
	h.mu.RUnlock()

	var errs []error
	for _, k := range keys {
		if _, err := h.Close(ctx, k.user, k.device); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Notify forwards a change notice to the user's other devices
func (h *Hub) Notify(ctx context.Context, notice storage.Notice) int {
	h.mu.RLock()
	var targets []*Workspace
	for k, ws := range h.workspaces {
		if k.user == notice.UserID && k.device != notice.DeviceID {
			targets = append(targets, ws)
		}
	}
	h.mu.RUnlock()

	pulled := 0
	for _, ws := range targets {
		if ws.Syncer.Notify(ctx, notice) {
			pulled++
		}
	}
	return pulled
}

// Watch subscribes to backend change notices when the backend supports
// them. It blocks until ctx is done.
func (h *Hub) Watch(ctx context.Context) error {
	n, ok := h.opts.Records.(storage.Notifier)
	if !ok {
		<-ctx.Done()
		return nil
	}
	h.logger.Info("Watching layout change notices", zap.String("backend", h.opts.Records.Name()))
	return n.Watch(ctx, func(notice storage.Notice) {
		h.Notify(ctx, notice)
	})
}

// Stats summarizes the open workspaces
func (h *Hub) Stats() types.HubStats {
	h.mu.RLock()
	list := make([]*Workspace, 0, len(h.workspaces))
	for _, ws := range h.workspaces {
		list = append(list, ws)
	}
	h.mu.RUnlock()

	users := make(map[string]struct{})
	stats := types.HubStats{Workspaces: len(list), Modes: make(map[string]int)}
	for _, ws := range list {
		users[ws.UserID] = struct{}{}
		stats.Cards += ws.Store.Len()
		stats.Modes[string(ws.Store.Mode())]++
		if ws.Saver.Pending() {
			stats.PendingSaves++
		}
	}
	stats.Users = len(users)
	return stats
}
