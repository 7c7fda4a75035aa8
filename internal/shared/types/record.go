package types

import "time"

// LayoutRecord is the persisted, device-independent layout of a user's workspace
type LayoutRecord struct {
	UserID     string       `json:"user_id"`
	DeviceID   string       `json:"device_id,omitempty"` // Device that wrote the record
	Version    uint64       `json:"version"`
	UpdatedAt  time.Time    `json:"updated_at"`
	LayoutMode LayoutMode   `json:"layout_mode"`
	Bounds     Bounds       `json:"bounds"`
	NextZ      uint64       `json:"next_z"`
	FocusedID  *string      `json:"focused_id,omitempty"`
	Cards      []CardRecord `json:"cards"`
	Hash       string       `json:"hash,omitempty"` // Content hash for idempotent apply
}

// CardRecord captures one card for persistence.
// Type stays a string so entries of unknown kinds can be skipped on load.
type CardRecord struct {
	ID              string                 `json:"id"`
	Type            string                 `json:"type"`
	Title           string                 `json:"title"`
	Geometry        Geometry               `json:"geometry"`
	State           CardStateRecord        `json:"state"`
	RestoreGeometry *Rect                  `json:"restore_geometry,omitempty"`
	DataRef         string                 `json:"data_ref,omitempty"`
	Meta            map[string]interface{} `json:"meta,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// CardStateRecord holds the persisted card flags
type CardStateRecord struct {
	Minimized bool `json:"minimized"`
	Maximized bool `json:"maximized"`
}

// HashContent is the part of a record that identifies its layout.
// Writer, version and timestamps are excluded so re-saving the same layout hashes equal.
type HashContent struct {
	LayoutMode LayoutMode   `json:"layout_mode"`
	NextZ      uint64       `json:"next_z"`
	FocusedID  *string      `json:"focused_id,omitempty"`
	Cards      []CardRecord `json:"cards"`
}

// Content extracts the hashed portion of the record
func (r *LayoutRecord) Content() HashContent {
	return HashContent{
		LayoutMode: r.LayoutMode,
		NextZ:      r.NextZ,
		FocusedID:  r.FocusedID,
		Cards:      r.Cards,
	}
}

// RecordMetadata summarizes a stored record
type RecordMetadata struct {
	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id,omitempty"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	CardCount int       `json:"card_count"`
	Hash      string    `json:"hash,omitempty"`
}

// ToMetadata extracts metadata from a record
func (r *LayoutRecord) ToMetadata() RecordMetadata {
	return RecordMetadata{
		UserID:    r.UserID,
		DeviceID:  r.DeviceID,
		Version:   r.Version,
		UpdatedAt: r.UpdatedAt,
		CardCount: len(r.Cards),
		Hash:      r.Hash,
	}
}

// SyncStats contains persistence statistics for one workspace
type SyncStats struct {
	Saves       int        `json:"saves"`
	SaveErrors  int        `json:"save_errors"`
	Pulls       int        `json:"pulls"`
	PullsNoop   int        `json:"pulls_noop"`
	LastSaved   *time.Time `json:"last_saved,omitempty"`
	LastPulled  *time.Time `json:"last_pulled,omitempty"`
	LastHash    string     `json:"last_hash,omitempty"`
	PendingSave bool       `json:"pending_save"`
}

// Clone returns a deep copy of the record
func (r *LayoutRecord) Clone() *LayoutRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.FocusedID != nil {
		f := *r.FocusedID
		cp.FocusedID = &f
	}
	cp.Cards = make([]CardRecord, len(r.Cards))
	for i, c := range r.Cards {
		if c.RestoreGeometry != nil {
			g := *c.RestoreGeometry
			c.RestoreGeometry = &g
		}
		if c.Meta != nil {
			meta := make(map[string]interface{}, len(c.Meta))
			for k, v := range c.Meta {
				meta[k] = v
			}
			c.Meta = meta
		}
		cp.Cards[i] = c
	}
	return &cp
}
