package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Gateway is the one path for controlled asset state changes. It pairs the
// row update with its audit event in a single transaction, so no caller can
// move an asset without leaving a trail. New controlled transitions
// (condition, accountability) belong here, not as direct store calls.
type Gateway struct {
	db    *sql.DB
	store *AssetStore
	audit *AuditLog
}

// NewGateway returns a Gateway over the given store and log. All three must
// share the same database handle.
func NewGateway(db *sql.DB, store *AssetStore, audit *AuditLog) *Gateway {
	return &Gateway{db: db, store: store, audit: audit}
}

// TransitionCustodyState moves an asset to a new custody state and appends a
// "custody_state_changed" event carrying the new state, actor and notes.
// The update and the event commit together or not at all.
func (g *Gateway) TransitionCustodyState(ctx context.Context, tag, newState, actor, notes string) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := g.store.update(ctx, tx, tag, map[string]any{"custody_state": newState}); err != nil {
		tx.Rollback()
		return err
	}

	ev := Event{
		AssetTag: strings.TrimSpace(tag),
		Type:     "custody_state_changed",
		Date:     time.Now().UTC().Format(time.RFC3339),
		Actor:    actor,
		Notes:    notes,
		Payload:  map[string]any{"custody_state": newState},
	}
	if err := g.audit.Append(ctx, tx, ev); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// UpdateFields applies a raw field edit and appends an "updated" event whose
// payload is the field set actually written (unknown and protected columns
// stripped). The event date is the supplied updated_date, empty when none.
func (g *Gateway) UpdateFields(ctx context.Context, tag string, fields map[string]any, actor string) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	applied, err := g.store.update(ctx, tx, tag, fields)
	if err != nil {
		tx.Rollback()
		return err
	}

	ev := Event{
		AssetTag: strings.TrimSpace(tag),
		Type:     "updated",
		Date:     stringField(fields, "updated_date"),
		Actor:    actor,
		Payload:  applied,
	}
	if err := g.audit.Append(ctx, tx, ev); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
