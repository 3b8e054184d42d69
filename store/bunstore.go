package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// snapshotRow is the single-table layout for persisted snapshots. The value
// column is opaque to the store; the repository owns the envelope format.
type snapshotRow struct {
	bun.BaseModel `bun:"table:auth_snapshots,alias:snap"`

	Key       string    `bun:"key,pk"`
	Value     []byte    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Bun is a KeyValueStore backed by a bun.DB. It works against any dialect
// bun supports; OpenSQLite wires the common embedded case.
type Bun struct {
	db *bun.DB
}

// NewBun returns a store over an existing bun.DB. Call Init once to create
// the snapshot table.
func NewBun(db *bun.DB) *Bun {
	return &Bun{db: db}
}

// OpenSQLite opens a SQLite database at the given DSN and returns a ready
// store with its table created. Use ":memory:" for an ephemeral database.
func OpenSQLite(ctx context.Context, dsn string) (*Bun, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	s := NewBun(db)

	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Init creates the snapshot table when it does not exist.
func (s *Bun) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*snapshotRow)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Close closes the underlying database.
func (s *Bun) Close() error {
	return s.db.Close()
}

func (s *Bun) Load(ctx context.Context, key string) ([]byte, error) {
	row := &snapshotRow{}
	err := s.db.NewSelect().
		Model(row).
		Where("snap.key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.Value, nil
}

func (s *Bun) Save(ctx context.Context, key string, value []byte) error {
	row := &snapshotRow{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Bun) Clear(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*snapshotRow)(nil)).
		Where("snap.key = ?", key).
		Exec(ctx)
	return err
}
