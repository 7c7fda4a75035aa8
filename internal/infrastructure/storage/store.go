package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

var (
	ErrNotFound      = errors.New("layout record not found")
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrInvalidRecord = errors.New("invalid layout record")
)

// RecordStore persists one layout record per user
type RecordStore interface {
	Load(ctx context.Context, userID string) (*types.LayoutRecord, error)
	Save(ctx context.Context, rec *types.LayoutRecord) error
	Name() string
}

// Notice announces that a user's record was replaced
type Notice struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Hash     string `json:"hash"`
	Version  uint64 `json:"version"`
}

// Notifier is implemented by backends that can push change notices
type Notifier interface {
	Watch(ctx context.Context, fn func(Notice)) error
}

// Options selects and configures a backend
type Options struct {
	Driver     string // memory | sqlite | redis | remote
	SQLitePath string
	RedisAddr  string
	RemoteURL  string
	Timeout    time.Duration
}

// Open creates the backend named by opts.Driver
func Open(ctx context.Context, opts Options, logger *zap.Logger) (RecordStore, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, opts.SQLitePath)
	case "redis":
		return NewRedisStore(ctx, opts.RedisAddr, logger)
	case "remote":
		return NewRemoteStore(opts.RemoteURL, opts.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

// Close releases backend resources when the store holds any
func Close(s RecordStore) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func validate(rec *types.LayoutRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: nil", ErrInvalidRecord)
	}
	if rec.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidRecord)
	}
	return nil
}
