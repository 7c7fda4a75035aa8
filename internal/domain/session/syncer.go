package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/domain/card"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/storage"
	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

// Pull outcomes
const (
	PullApplied = "applied"
	PullNoop    = "noop"
	PullMissing = "missing"
	PullError   = "error"
)

// PullResult describes one pull
type PullResult struct {
	Result  string            `json:"result"`
	Hash    string            `json:"hash,omitempty"`
	Version uint64            `json:"version,omitempty"`
	Import  *card.ImportResult `json:"import,omitempty"`
}

// Applied reports whether the pull replaced local state
func (r PullResult) Applied() bool {
	return r.Result == PullApplied
}

// Syncer replaces local state with the stored record (last write wins)
type Syncer struct {
	saver  *Saver
	hasher *utils.Hasher
}

// NewSyncer creates a syncer sharing the saver's store, backend and hash
func NewSyncer(saver *Saver) *Syncer {
	return &Syncer{saver: saver, hasher: utils.DefaultHasher()}
}

// Pull loads the user's record and imports it unless it is the layout this
// device last saved or applied. Bounds stay local.
func (y *Syncer) Pull(ctx context.Context) (PullResult, error) {
	s := y.saver
	rec, err := s.records.Load(ctx, s.userID)
	if errors.Is(err, storage.ErrNotFound) {
		y.record(PullMissing)
		return PullResult{Result: PullMissing}, nil
	}
	if err != nil {
		y.record(PullError)
		s.logger.Warn("Failed to pull layout", zap.String("backend", s.records.Name()), zap.Error(err))
		return PullResult{Result: PullError}, fmt.Errorf("failed to pull layout: %w", err)
	}

	hash := rec.Hash
	if hash == "" {
		if hash, err = y.hasher.HashRecord(rec); err != nil {
			y.record(PullError)
			return PullResult{Result: PullError}, fmt.Errorf("failed to hash layout: %w", err)
		}
	}

	now := time.Now()
	if hash == s.hash() {
		s.pulledNoop(now)
		y.record(PullNoop)
		return PullResult{Result: PullNoop, Hash: hash, Version: rec.Version}, nil
	}

	res := s.store.Import(ctx, rec)
	s.applied(hash, now)
	y.record(PullApplied)

	s.logger.Info("Applied pulled layout",
		zap.String("from_device", rec.DeviceID),
		zap.Uint64("version", rec.Version),
		zap.Int("applied", res.Applied),
		zap.Int("skipped", res.Skipped))
	for _, reason := range res.Reasons {
		s.logger.Debug("Skipped record entry", zap.String("reason", reason))
	}

	return PullResult{Result: PullApplied, Hash: hash, Version: rec.Version, Import: &res}, nil
}

// Notify pulls when a change notice comes from another device of this user.
// It reports whether a pull was attempted.
func (y *Syncer) Notify(ctx context.Context, notice storage.Notice) bool {
	s := y.saver
	if notice.UserID != s.userID || notice.DeviceID == s.deviceID {
		return false
	}
	if notice.Hash != "" && notice.Hash == s.hash() {
		return false
	}
	if _, err := y.Pull(ctx); err != nil {
		s.logger.Debug("Pull after change notice failed", zap.Error(err))
	}
	return true
}

// Watch pulls whenever another device announces a change for this user.
// It blocks until ctx is done.
func (y *Syncer) Watch(ctx context.Context, n storage.Notifier) error {
	return n.Watch(ctx, func(notice storage.Notice) {
		y.Notify(ctx, notice)
	})
}

func (y *Syncer) record(result string) {
	if m := y.saver.metrics; m != nil {
		m.RecordPull(result)
	}
}
