package repo

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
)

const assetTable = "assets"

// Columns that no update may overwrite. Identity and creation time are
// fixed at create.
var protectedColumns = []string{"id", "asset_tag", "created_date"}

// ========================
// ASSET STORE
// ========================

// AssetStore holds validated, schema-tolerant CRUD over asset rows. Every
// mutation runs in one transaction with the audit event that documents it,
// so a crash cannot leave an unaudited change or an event for a change that
// never committed.
//
// The raw field update is unexported; code outside this package changes
// asset fields through the Gateway only.
type AssetStore struct {
	db      *sql.DB
	audit   *AuditLog
	columns Introspector
}

// NewAssetStore returns an AssetStore that discovers the assets columns from
// information_schema before every write.
func NewAssetStore(db *sql.DB, audit *AuditLog) *AssetStore {
	return &AssetStore{db: db, audit: audit, columns: IntrospectColumns(db)}
}

// WithColumns replaces the column discovery, e.g. with FixedColumns for a
// pinned schema. Returns the store for chaining.
func (s *AssetStore) WithColumns(in Introspector) *AssetStore {
	s.columns = in
	return s
}

// ========================
// CREATE
// ========================

// Create inserts a new asset row and appends a "created" event in the same
// transaction. fields must carry a non-blank asset_tag; fields that are not
// columns of the assets table are dropped. A duplicate tag surfaces as
// ConflictError. actor is recorded on the event, empty means DefaultActor.
func (s *AssetStore) Create(ctx context.Context, fields map[string]any, actor string) error {
	tag := strings.TrimSpace(stringField(fields, "asset_tag"))
	if tag == "" {
		return &ValidationError{Msg: "asset_tag is required"}
	}

	cols, err := s.columns(ctx, assetTable)
	if err != nil {
		return err
	}

	insert := cols.Filter(fields)
	insert["asset_tag"] = tag

	// Not-retired defaults when the schema carries the columns.
	if cols.Has("accountability_status") {
		if _, ok := insert["accountability_status"]; !ok {
			insert["accountability_status"] = "active"
		}
	}
	if cols.Has("retired") {
		if _, ok := insert["retired"]; !ok {
			insert["retired"] = 0
		}
	}
	if cols.Has("created_date") {
		if _, ok := insert["created_date"]; !ok {
			insert["created_date"] = time.Now().UTC().Format(time.RFC3339)
		}
	}

	names := sortedKeys(insert)
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = insert[n]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		assetTable, strings.Join(names, ", "), strings.Join(placeholders, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &ConflictError{Msg: fmt.Sprintf("asset %q already exists", tag), Cause: err}
		}
		return err
	}

	ev := Event{
		AssetTag: tag,
		Type:     "created",
		Date:     stringField(fields, "created_date"),
		Actor:    actor,
		Payload:  fields,
	}
	if err := s.audit.Append(ctx, tx, ev); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ========================
// GET BY TAG
// ========================

// GetByTag returns the full row as a column-to-value map, or nil when the
// tag is blank or unknown. Read-only, no event.
func (s *AssetStore) GetByTag(ctx context.Context, tag string) (map[string]any, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT * FROM assets WHERE asset_tag = $1`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	record := make(map[string]any, len(names))
	for i, n := range names {
		if b, ok := values[i].([]byte); ok {
			record[n] = string(b)
		} else {
			record[n] = values[i]
		}
	}
	return record, nil
}

// ========================
// UPDATE (internal)
// ========================

// update applies a raw field edit inside the caller's transaction and
// returns the applied set so the caller can record it on the paired event.
// Protected columns are stripped first; an empty remainder is a
// ValidationError. When the schema has updated_date and the caller did not
// supply one, it is set explicitly to NULL: an unknown date stays unknown
// rather than defaulting to now.
func (s *AssetStore) update(ctx context.Context, tx *sql.Tx, tag string, fields map[string]any) (map[string]any, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, &ValidationError{Msg: "asset_tag is required"}
	}

	cols, err := s.columns(ctx, assetTable)
	if err != nil {
		return nil, err
	}

	applied := cols.Filter(fields)
	for _, p := range protectedColumns {
		delete(applied, p)
	}
	if len(applied) == 0 {
		return nil, &ValidationError{Msg: "no updatable fields"}
	}

	if cols.Has("updated_date") {
		if _, ok := applied["updated_date"]; !ok {
			applied["updated_date"] = nil
		}
	}

	names := sortedKeys(applied)
	assignments := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, n := range names {
		assignments[i] = fmt.Sprintf("%s = $%d", n, i+1)
		args = append(args, applied[n])
	}
	args = append(args, tag)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE asset_tag = $%d",
		assetTable, strings.Join(assignments, ", "), len(names)+1)

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &NotFoundError{Tag: tag}
	}
	return applied, nil
}

// ========================
// RETIRE
// ========================

// Retire soft-retires an asset: accountability_status becomes "retired" and
// updated_date is set to updatedDate (NULL when nil). There is no hard
// delete. A second Retire on the same tag succeeds and appends another
// "retired" event; repeats are not guarded here.
func (s *AssetStore) Retire(ctx context.Context, tag string, updatedDate *string, actor string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return &ValidationError{Msg: "asset_tag is required"}
	}

	cols, err := s.columns(ctx, assetTable)
	if err != nil {
		return err
	}

	set := map[string]any{"accountability_status": "retired"}
	if cols.Has("retired") {
		set["retired"] = 1
	}
	if cols.Has("updated_date") {
		if updatedDate != nil {
			set["updated_date"] = *updatedDate
		} else {
			set["updated_date"] = nil
		}
	}

	names := sortedKeys(set)
	assignments := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, n := range names {
		assignments[i] = fmt.Sprintf("%s = $%d", n, i+1)
		args = append(args, set[n])
	}
	args = append(args, tag)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE asset_tag = $%d",
		assetTable, strings.Join(assignments, ", "), len(names)+1)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if n == 0 {
		tx.Rollback()
		return &NotFoundError{Tag: tag}
	}

	eventDate := ""
	if updatedDate != nil {
		eventDate = *updatedDate
	}
	ev := Event{AssetTag: tag, Type: "retired", Date: eventDate, Actor: actor}
	if err := s.audit.Append(ctx, tx, ev); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ========================
// HELPERS
// ========================

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
