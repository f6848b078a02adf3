package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// DecodeFunc turns a stored JSONB document back into its typed read model.
// Collections without a registered decoder come back as json.RawMessage.
type DecodeFunc func(data []byte) (any, error)

// PostgresReadStore keeps every read model collection in a single JSONB
// document table. Lookups that need to be indexed (user email, order
// tracking number) go through expression indexes on the document.
type PostgresReadStore struct {
	db       *sql.DB
	decoders map[string]DecodeFunc
}

func NewPostgresReadStore(db *sql.DB, decoders map[string]DecodeFunc) *PostgresReadStore {
	if decoders == nil {
		decoders = make(map[string]DecodeFunc)
	}
	return &PostgresReadStore{db: db, decoders: decoders}
}

// EnsureReadSchema creates the document table and its expression indexes.
func EnsureReadSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS read_models (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_read_models_email
			ON read_models ((doc->>'email')) WHERE collection = 'users'`,
		`CREATE INDEX IF NOT EXISTS idx_read_models_tracking
			ON read_models ((doc->>'tracking_number')) WHERE collection = 'orders'`,
		`CREATE INDEX IF NOT EXISTS idx_read_models_order_user
			ON read_models ((doc->>'user_id')) WHERE collection = 'orders'`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure read schema: %w", err)
		}
	}
	return nil
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = rs.db.Exec(
		`INSERT INTO read_models (collection, id, doc) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		collection, id, doc,
	)
	return err
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool, error) {
	var doc []byte
	err := rs.db.QueryRow(
		`SELECT doc FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	model, err := rs.decode(collection, doc)
	if err != nil {
		return nil, false, err
	}
	return model, true, nil
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) ([]any, error) {
	rows, err := rs.db.Query(
		`SELECT doc FROM read_models WHERE collection = $1 ORDER BY updated_at DESC`,
		collection,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		model, err := rs.decode(collection, doc)
		if err != nil {
			return nil, err
		}
		items = append(items, model)
	}
	return items, rows.Err()
}

// FindOne retrieves the first document whose top-level field matches value
func (rs *PostgresReadStore) FindOne(collection, field, value string) (any, bool, error) {
	var doc []byte
	err := rs.db.QueryRow(
		`SELECT doc FROM read_models WHERE collection = $1 AND doc->>$2 = $3 LIMIT 1`,
		collection, field, value,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	model, err := rs.decode(collection, doc)
	if err != nil {
		return nil, false, err
	}
	return model, true, nil
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(collection, id string) error {
	_, err := rs.db.Exec(
		`DELETE FROM read_models WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	return err
}

// Update modifies a read model inside a row-locking transaction so that
// concurrent projections of the same document do not lose writes.
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) (bool, error) {
	tx, err := rs.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRow(
		`SELECT doc FROM read_models WHERE collection = $1 AND id = $2 FOR UPDATE`,
		collection, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	current, err := rs.decode(collection, doc)
	if err != nil {
		return false, err
	}

	updated, err := json.Marshal(updateFn(current))
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(
		`UPDATE read_models SET doc = $3, updated_at = now() WHERE collection = $1 AND id = $2`,
		collection, id, updated,
	)
	if err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (rs *PostgresReadStore) decode(collection string, doc []byte) (any, error) {
	if decoder, ok := rs.decoders[collection]; ok {
		return decoder(doc)
	}
	return json.RawMessage(doc), nil
}
