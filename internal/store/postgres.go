package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied by EnsureSchema. The envelope is stored as BYTEA so the
// checksum is computed over exactly the bytes that were written.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	sequence    BIGINT PRIMARY KEY,
	captured_at TIMESTAMPTZ NOT NULL,
	document    BYTEA NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_head (
	id       SMALLINT PRIMARY KEY CHECK (id = 1),
	sequence BIGINT NOT NULL
);

INSERT INTO snapshot_head (id, sequence) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;

CREATE TABLE IF NOT EXISTS mistake_records (
	id          UUID PRIMARY KEY,
	sequence    BIGINT NOT NULL REFERENCES snapshots(sequence),
	recorded_at TIMESTAMPTZ NOT NULL,
	document    JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mistake_records_sequence ON mistake_records(sequence DESC);

CREATE TABLE IF NOT EXISTS advisory_flags (
	id        UUID PRIMARY KEY,
	raised_at TIMESTAMPTZ NOT NULL,
	document  JSONB NOT NULL
);
`

type PostgresSnapshotStore struct {
	db *pgxpool.Pool
}

func NewPostgresSnapshotStore(db *pgxpool.Pool) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

func (s *PostgresSnapshotStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	return err
}

func (s *PostgresSnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	var head int64
	err := s.db.QueryRow(ctx, `SELECT sequence FROM snapshot_head WHERE id = 1`).Scan(&head)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && head == 0) {
		return domain.EmptySnapshot(), nil
	}
	if err != nil {
		return nil, err
	}

	snap, err := s.LoadSequence(ctx, head)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: head %d has no snapshot", domain.ErrCorruptState, head)
	}
	return snap, err
}

func (s *PostgresSnapshotStore) LoadSequence(ctx context.Context, sequence int64) (*domain.Snapshot, error) {
	if sequence == 0 {
		return domain.EmptySnapshot(), nil
	}
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT document FROM snapshots WHERE sequence = $1`,
		sequence,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(doc)
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, c domain.Commit) error {
	if err := validateCommit(c); err != nil {
		return err
	}
	doc, err := EncodeSnapshot(c.Snapshot)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE snapshot_head SET sequence = $1 WHERE id = 1 AND sequence = $2`,
		c.Snapshot.CycleSequence, c.ExpectedSequence,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: head moved past %d", domain.ErrConcurrentCycleConflict, c.ExpectedSequence)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO snapshots (sequence, captured_at, document) VALUES ($1, $2, $3)`,
		c.Snapshot.CycleSequence, c.Snapshot.CapturedAt, doc,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: snapshot %d already exists", domain.ErrConcurrentCycleConflict, c.Snapshot.CycleSequence)
		}
		return err
	}

	for _, m := range c.Mistakes {
		data, err := encodeMistake(m)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO mistake_records (id, sequence, recorded_at, document) VALUES ($1, $2, $3, $4)`,
			m.ID, c.Snapshot.CycleSequence, m.RecordedAt, data,
		); err != nil {
			return err
		}
	}

	if len(c.ConsumedFlags) > 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM advisory_flags WHERE id = ANY($1::uuid[])`,
			flagIDs(c.ConsumedFlags),
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresSnapshotStore) Mistakes(ctx context.Context, limit int) ([]domain.MistakeRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(ctx,
		`SELECT document FROM mistake_records
		 ORDER BY sequence DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.MistakeRecord{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		m, err := decodeMistake(data)
		if err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

func (s *PostgresSnapshotStore) EnqueueFlags(ctx context.Context, flags []domain.AdvisoryFlag) error {
	batch := &pgx.Batch{}
	for _, f := range flags {
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		batch.Queue(
			`INSERT INTO advisory_flags (id, raised_at, document) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO NOTHING`,
			f.ID, f.RaisedAt, data,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	return s.db.SendBatch(ctx, batch).Close()
}

func (s *PostgresSnapshotStore) PendingFlags(ctx context.Context) ([]domain.AdvisoryFlag, error) {
	rows, err := s.db.Query(ctx, `SELECT document FROM advisory_flags ORDER BY raised_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := []domain.AdvisoryFlag{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		f, err := decodeFlag(data)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortFlags(flags)
	return flags, nil
}
