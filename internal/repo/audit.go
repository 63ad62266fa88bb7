package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/crucial707/assettrack/internal/models"
)

// DefaultActor is recorded on audit events when the caller passes an empty
// actor. Automated paths (create, retire) use it unless told otherwise.
const DefaultActor = "system"

// Event is one fact to append to the audit trail.
type Event struct {
	AssetTag string
	Type     string // created, updated, retired, custody_state_changed, ...
	Date     string
	Actor    string         // empty means DefaultActor
	Notes    string         // empty stored as NULL
	Payload  map[string]any // nil stored as NULL
}

// execer is the subset of *sql.DB / *sql.Tx used for appends.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AuditLog persists asset events. It is append-only and does not enforce
// business rules; if a caller appends a strange event, it is stored as given.
type AuditLog struct {
	db *sql.DB
}

// NewAuditLog returns a new AuditLog.
func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Append inserts one event row. The payload, when present, is serialized to
// JSON text; a nil payload is stored as NULL. Pass the transaction of the
// mutation being documented so the pair commits or rolls back together.
func (l *AuditLog) Append(ctx context.Context, tx execer, ev Event) error {
	actor := ev.Actor
	if actor == "" {
		actor = DefaultActor
	}

	var payload sql.NullString
	if ev.Payload != nil {
		b, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		payload = sql.NullString{String: string(b), Valid: true}
	}

	var notes sql.NullString
	if ev.Notes != "" {
		notes = sql.NullString{String: ev.Notes, Valid: true}
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO asset_events (asset_tag, event_type, event_date, actor, notes, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.AssetTag, ev.Type, ev.Date, actor, notes, payload,
	)
	return err
}

// List returns events for one asset tag in insertion order.
func (l *AuditLog) List(ctx context.Context, assetTag string, limit, offset int) ([]models.AssetEvent, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, asset_tag, event_type, event_date, actor, notes, payload
		 FROM asset_events WHERE asset_tag = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		assetTag, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AssetEvent
	for rows.Next() {
		var (
			e       models.AssetEvent
			actor   sql.NullString
			notes   sql.NullString
			payload sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.AssetTag, &e.EventType, &e.EventDate, &actor, &notes, &payload); err != nil {
			return nil, err
		}
		if actor.Valid {
			e.Actor = &actor.String
		}
		if notes.Valid {
			e.Notes = &notes.String
		}
		if payload.Valid {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, err
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
