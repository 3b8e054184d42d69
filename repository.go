package authflow

import (
	"context"
	"encoding/json"
	"time"
)

const (
	// DefaultStorageKey namespaces the snapshot in the durable store.
	DefaultStorageKey = "auth.session"
	// DefaultSnapshotVersion is the current snapshot schema version.
	DefaultSnapshotVersion = 1
)

// persistedEnvelope wraps the snapshot with its schema version on disk.
type persistedEnvelope struct {
	Version  int                   `json:"version"`
	Snapshot PersistedAuthSnapshot `json:"snapshot"`
}

// RepositoryOption customizes repository construction.
type RepositoryOption func(*Repository)

// WithStorageKey overrides the store key the snapshot lives under.
func WithStorageKey(key string) RepositoryOption {
	return func(r *Repository) {
		if key != "" {
			r.key = key
		}
	}
}

// WithSnapshotVersion overrides the snapshot schema version. A stored
// envelope with a different version loads as "no snapshot".
func WithSnapshotVersion(version int) RepositoryOption {
	return func(r *Repository) {
		if version > 0 {
			r.version = version
		}
	}
}

// WithRepositoryLogger overrides the logger used for swallowed failures.
func WithRepositoryLogger(logger Logger) RepositoryOption {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRepositoryClock injects a custom clock (useful for tests).
func WithRepositoryClock(clock func() time.Time) RepositoryOption {
	return func(r *Repository) {
		if clock != nil {
			r.now = clock
		}
	}
}

// Repository persists the auth snapshot through an injected KeyValueStore.
// Every operation is best-effort: store and codec failures are logged and
// swallowed, so a broken store degrades to "no persistence" instead of
// unwinding a committed in-memory transition.
type Repository struct {
	store   KeyValueStore
	key     string
	version int
	logger  Logger
	now     func() time.Time
}

// NewRepository returns a repository bound to the given store.
func NewRepository(store KeyValueStore, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:   store,
		key:     DefaultStorageKey,
		version: DefaultSnapshotVersion,
		logger:  defLogger{},
		now:     time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Load reads the stored snapshot. It returns nil when the key is absent,
// the payload cannot be decoded, the schema version does not match, or the
// store fails. Version mismatches are not migrated.
func (r *Repository) Load(ctx context.Context) *PersistedAuthSnapshot {
	if r.store == nil {
		return nil
	}

	raw, err := r.store.Load(ctx, r.key)
	if err != nil {
		r.logger.Warn("auth snapshot load failed: %v", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	var envelope persistedEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		r.logger.Warn("auth snapshot decode failed: %v", err)
		return nil
	}

	if envelope.Version != r.version {
		r.logger.Debug("auth snapshot version mismatch: stored=%d want=%d", envelope.Version, r.version)
		return nil
	}

	return &envelope.Snapshot
}

// Save writes the snapshot. Incomplete snapshots (missing session or user)
// are never written; the durable unit is all-or-nothing.
func (r *Repository) Save(ctx context.Context, snapshot PersistedAuthSnapshot) {
	if r.store == nil {
		return
	}

	if !snapshot.Complete() {
		r.logger.Debug("auth snapshot save skipped: incomplete snapshot")
		return
	}

	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = r.now()
	}

	raw, err := json.Marshal(persistedEnvelope{
		Version:  r.version,
		Snapshot: snapshot,
	})
	if err != nil {
		r.logger.Error("auth snapshot encode failed: %v", err)
		return
	}

	if err := r.store.Save(ctx, r.key, raw); err != nil {
		r.logger.Error("auth snapshot save failed: %v", err)
	}
}

// Clear removes the stored snapshot.
func (r *Repository) Clear(ctx context.Context) {
	if r.store == nil {
		return
	}

	if err := r.store.Clear(ctx, r.key); err != nil {
		r.logger.Error("auth snapshot clear failed: %v", err)
	}
}
