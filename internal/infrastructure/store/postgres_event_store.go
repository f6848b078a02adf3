package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresEventStore stores events in PostgreSQL
type PostgresEventStore struct {
	db       *sql.DB
	producer *kafka.Producer
}

func NewPostgresEventStore(db *sql.DB, producer *kafka.Producer) *PostgresEventStore {
	return &PostgresEventStore{
		db:       db,
		producer: producer,
	}
}

// Append stores an event in PostgreSQL and publishes it to Kafka
func (es *PostgresEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	var currentVersion int
	err := es.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM events WHERE aggregate_id = $1",
		aggregateID,
	).Scan(&currentVersion)
	if err != nil {
		return nil, err
	}
	return es.insert(ctx, aggregateID, aggregateType, eventType, data, currentVersion)
}

// AppendAt stores an event at expectedVersion+1. The unique index on
// (aggregate_id, version) turns a lost race into ErrVersionConflict instead
// of a double-applied event.
func (es *PostgresEventStore) AppendAt(ctx context.Context, aggregateID, aggregateType, eventType string, data any, expectedVersion int) (*Event, error) {
	return es.insert(ctx, aggregateID, aggregateType, eventType, data, expectedVersion)
}

func (es *PostgresEventStore) insert(ctx context.Context, aggregateID, aggregateType, eventType string, data any, baseVersion int) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       baseVersion + 1,
	}

	_, err = es.db.ExecContext(ctx,
		`INSERT INTO events (id, aggregate_id, aggregate_type, event_type, data, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		event.Data,
		event.Version,
		event.Timestamp,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrVersionConflict
		}
		return nil, err
	}

	if es.producer != nil {
		if err := es.producer.Publish(ctx, aggregateID, event); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

func (es *PostgresEventStore) queryEvents(ctx context.Context, query string, args ...any) []Event {
	rows, err := es.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Data, &e.Version, &e.Timestamp); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events
}

// GetEvents returns all events for an aggregate
func (es *PostgresEventStore) GetEvents(aggregateID string) []Event {
	return es.queryEvents(context.Background(),
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events WHERE aggregate_id = $1 ORDER BY version ASC`,
		aggregateID,
	)
}

// GetEventsFromVersion returns events after the given version (snapshot replay)
func (es *PostgresEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, version int) []Event {
	return es.queryEvents(ctx,
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events WHERE aggregate_id = $1 AND version > $2 ORDER BY version ASC`,
		aggregateID, version,
	)
}

// GetEventsByType returns all events of a specific aggregate type
func (es *PostgresEventStore) GetEventsByType(aggregateType string) []Event {
	return es.queryEvents(context.Background(),
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events WHERE aggregate_type = $1 ORDER BY created_at ASC`,
		aggregateType,
	)
}

// GetAllEvents returns all events ordered by time (startup replay)
func (es *PostgresEventStore) GetAllEvents() []Event {
	return es.queryEvents(context.Background(),
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events ORDER BY created_at ASC`,
	)
}

// GetSnapshot returns the latest snapshot for an aggregate, or nil
func (es *PostgresEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	var s Snapshot
	err := es.db.QueryRowContext(ctx,
		`SELECT aggregate_id, aggregate_type, version, state, created_at
		 FROM snapshots WHERE aggregate_id = $1 ORDER BY version DESC LIMIT 1`,
		aggregateID,
	).Scan(&s.AggregateID, &s.AggregateType, &s.Version, &s.State, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSnapshot stores a snapshot
func (es *PostgresEventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	_, err := es.db.ExecContext(ctx,
		`INSERT INTO snapshots (aggregate_id, aggregate_type, version, state, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (aggregate_id, version) DO NOTHING`,
		snapshot.AggregateID,
		snapshot.AggregateType,
		snapshot.Version,
		snapshot.State,
		snapshot.CreatedAt,
	)
	return err
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// EnsureEventSchema creates the event store tables if they do not exist.
func EnsureEventSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			aggregate_id TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			event_type TEXT NOT NULL,
			data JSONB NOT NULL,
			version INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (aggregate_id, version)
		);
		CREATE INDEX IF NOT EXISTS idx_events_aggregate_type ON events (aggregate_type, created_at);
		CREATE TABLE IF NOT EXISTS snapshots (
			aggregate_id TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			version INT NOT NULL,
			state JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (aggregate_id, version)
		);
	`)
	return err
}
