package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/domain/card"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/storage"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultSaveTimeout = 10 * time.Second
)

// Saver writes the store's layout to a record store after changes settle
type Saver struct {
	store    *card.Store
	records  storage.RecordStore
	breaker  *resilience.Breaker
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	userID   string
	deviceID string
	debounce time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	dirty    bool
	closed   bool
	lastHash string
	stats    types.SyncStats

	saveMu      sync.Mutex // serializes saves
	unsubscribe func()
}

// NewSaver creates a saver and subscribes it to the store
func NewSaver(store *card.Store, records storage.RecordStore, userID, deviceID string, logger *zap.Logger) *Saver {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Saver{
		store:    store,
		records:  records,
		logger:   logger.With(zap.String("user_id", userID), zap.String("device_id", deviceID)),
		userID:   userID,
		deviceID: deviceID,
		debounce: DefaultDebounce,
		timeout:  DefaultSaveTimeout,
	}
	s.breaker = resilience.New("layout-save:"+records.Name(), resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to resilience.State) {
			s.logger.Warn("Save breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	s.unsubscribe = store.Subscribe(s.onChange)
	return s
}

// WithDebounce sets the quiet period before a save
func (s *Saver) WithDebounce(d time.Duration) *Saver {
	s.mu.Lock()
	s.debounce = d
	s.mu.Unlock()
	return s
}

// WithMetrics adds save metrics
func (s *Saver) WithMetrics(m *monitoring.Metrics) *Saver {
	s.metrics = m
	return s
}

// WithBreaker replaces the save breaker
func (s *Saver) WithBreaker(b *resilience.Breaker) *Saver {
	s.breaker = b
	return s
}

// Breaker returns the breaker guarding saves
func (s *Saver) Breaker() *resilience.Breaker {
	return s.breaker
}

func (s *Saver) onChange(ch card.Change) {
	if ch.Source == card.SourceSync {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.dirty = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.fire)
		return
	}
	s.timer.Reset(s.debounce)
}

func (s *Saver) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	// errors are logged and counted in save
	_ = s.save(ctx)
}

// Flush saves pending changes now
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return s.save(ctx)
}

// Close stops listening to the store and flushes pending changes
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.unsubscribe()
	// waits for a save already in flight
	return s.save(ctx)
}

func (s *Saver) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	s.dirty = false
	last := s.lastHash
	s.mu.Unlock()

	// Export and I/O happen without holding mu
	rec := s.store.Export(s.userID, s.deviceID)
	if rec.Hash != "" && rec.Hash == last {
		return nil
	}

	start := time.Now()
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.records.Save(ctx, rec)
	})
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordSave(s.records.Name(), duration, err)
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// retried on the next change or Flush
		s.dirty = true
		s.stats.SaveErrors++
		level := s.logger.Warn
		if errors.Is(err, resilience.ErrCircuitOpen) {
			level = s.logger.Debug
		}
		level("Failed to save layout",
			zap.String("backend", s.records.Name()),
			zap.Uint64("version", rec.Version),
			zap.Error(err))
		return fmt.Errorf("failed to save layout: %w", err)
	}

	s.stats.Saves++
	s.stats.LastSaved = &now
	s.lastHash = rec.Hash
	s.logger.Debug("Saved layout",
		zap.String("backend", s.records.Name()),
		zap.Uint64("version", rec.Version),
		zap.Int("cards", len(rec.Cards)),
		zap.Duration("duration", duration))
	return nil
}

// Pending reports whether local changes have not been saved yet
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Stats returns persistence statistics
func (s *Saver) Stats() types.SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats
	st.LastHash = s.lastHash
	st.PendingSave = s.dirty
	return st
}

// applied records a hash that was pulled and imported. Local state now
// matches the record, so nothing is pending.
func (s *Saver) applied(hash string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastHash = hash
	s.dirty = false
	if s.timer != nil {
		s.timer.Stop()
	}
	s.stats.Pulls++
	s.stats.LastPulled = &at
}

func (s *Saver) pulledNoop(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Pulls++
	s.stats.PullsNoop++
	s.stats.LastPulled = &at
}

func (s *Saver) hash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHash
}
