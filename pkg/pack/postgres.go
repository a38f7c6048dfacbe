package pack

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// Schema creates the packs table.
const Schema = `CREATE TABLE IF NOT EXISTS auto_apply_packs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	input_urls JSONB NOT NULL,
	generated_outputs JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const (
	insertPackSQL = `INSERT INTO auto_apply_packs (id, user_id, input_urls, generated_outputs, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`
	selectPackSQL = `SELECT id, user_id, input_urls, generated_outputs, created_at FROM auto_apply_packs WHERE id = $1`

	pqUniqueViolation = "23505"
)

// PostgresStore persists packs in the auto_apply_packs table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) (store *PostgresStore) {
	store = &PostgresStore{db: db}
	return store
}

// OpenPostgres opens and pings a lib/pq connection.
func OpenPostgres(ctx context.Context, databaseURL string) (db *sql.DB, err error) {
	db, err = sql.Open("postgres", databaseURL)
	if err != nil {
		err = errors.Wrap(err, "failed to open database")
		return db, err
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		err = errors.Wrap(err, "failed to ping database")
		return nil, err
	}

	return db, err
}

// EnsureSchema creates the packs table if it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) (err error) {
	_, err = s.db.ExecContext(ctx, Schema)
	if err != nil {
		err = errors.Wrap(err, "failed to create auto_apply_packs table")
		return err
	}
	return err
}

// Save inserts the pack in a single statement.
func (s *PostgresStore) Save(ctx context.Context, p ApplicationPack) (err error) {
	err = p.Validate()
	if err != nil {
		err = errors.Wrap(err, "refusing to save invalid pack")
		return err
	}

	var inputs, outputs []byte
	inputs, err = json.Marshal(p.InputIdentifiers)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal input identifiers")
		return err
	}

	outputs, err = json.Marshal(p.Results)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal pack results")
		return err
	}

	_, err = s.db.ExecContext(ctx, insertPackSQL, p.ID, p.OwnerID, inputs, outputs, p.CreatedAt.UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			err = errors.Errorf("pack %s already exists", p.ID)
			return err
		}
		err = errors.Wrapf(err, "failed to insert pack %s", p.ID)
		return err
	}

	return err
}

// Load reads a pack by id.
func (s *PostgresStore) Load(ctx context.Context, id string) (p ApplicationPack, err error) {
	var inputs, outputs []byte
	var createdAt time.Time

	err = s.db.QueryRowContext(ctx, selectPackSQL, id).Scan(&p.ID, &p.OwnerID, &inputs, &outputs, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Wrapf(ErrNotFound, "pack %s", id)
			return p, err
		}
		err = errors.Wrapf(err, "failed to load pack %s", id)
		return p, err
	}

	err = json.Unmarshal(inputs, &p.InputIdentifiers)
	if err != nil {
		err = errors.Wrap(err, "failed to parse input identifiers")
		return p, err
	}

	if len(outputs) > 0 {
		err = json.Unmarshal(outputs, &p.Results)
		if err != nil {
			err = errors.Wrap(err, "failed to parse pack results")
			return p, err
		}
	}

	p.CreatedAt = createdAt.UTC()
	return p, err
}
