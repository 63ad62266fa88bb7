package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newTestGateway(t *testing.T) (*Gateway, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	audit := NewAuditLog(db)
	store := NewAssetStore(db, audit).WithColumns(FixedColumns(assetColumns()))
	return NewGateway(db, store, audit), mock, func() { db.Close() }
}

func TestGateway_TransitionCustodyState(t *testing.T) {
	gw, mock, done := newTestGateway(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assets SET custody_state = \$1, updated_date = \$2 WHERE asset_tag = \$3`).
		WithArgs("issued", nil, "AT-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO asset_events \(asset_tag, event_type, event_date, actor, notes, payload\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs("AT-1", "custody_state_changed", sqlmock.AnyArg(), "jdoe", "handed out for exercise", `{"custody_state":"issued"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := gw.TransitionCustodyState(context.Background(), "AT-1", "issued", "jdoe", "handed out for exercise")
	if err != nil {
		t.Fatalf("TransitionCustodyState: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGateway_TransitionCustodyState_NotFound(t *testing.T) {
	gw, mock, done := newTestGateway(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assets SET custody_state`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := gw.TransitionCustodyState(context.Background(), "AT-404", "issued", "", "")
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	// The rollback above is the whole point: no event row for a failed move.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGateway_TransitionCustodyState_DefaultActor(t *testing.T) {
	gw, mock, done := newTestGateway(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assets SET custody_state`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO asset_events`).
		WithArgs("AT-1", "custody_state_changed", sqlmock.AnyArg(), "system", nil, `{"custody_state":"in_repair"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := gw.TransitionCustodyState(context.Background(), "AT-1", "in_repair", "", ""); err != nil {
		t.Fatalf("TransitionCustodyState: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGateway_UpdateFields(t *testing.T) {
	gw, mock, done := newTestGateway(t)
	defer done()

	fields := map[string]any{
		"condition": "worn",
		"asset_tag": "AT-999", // protected, stripped before the write
		"id":        99,       // protected
		"bogus":     "x",      // not a column
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assets SET condition = \$1, updated_date = \$2 WHERE asset_tag = \$3`).
		WithArgs("worn", nil, "AT-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO asset_events`).
		WithArgs("AT-1", "updated", "", "jdoe", nil, `{"condition":"worn","updated_date":null}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := gw.UpdateFields(context.Background(), "AT-1", fields, "jdoe"); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGateway_UpdateFields_SuppliedDate(t *testing.T) {
	gw, mock, done := newTestGateway(t)
	defer done()

	fields := map[string]any{
		"issued_to_name": "B. Ortiz",
		"updated_date":   "2024-03-15",
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assets SET issued_to_name = \$1, updated_date = \$2 WHERE asset_tag = \$3`).
		WithArgs("B. Ortiz", "2024-03-15", "AT-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO asset_events`).
		WithArgs("AT-1", "updated", "2024-03-15", "system", nil,
			`{"issued_to_name":"B. Ortiz","updated_date":"2024-03-15"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := gw.UpdateFields(context.Background(), "AT-1", fields, ""); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGateway_UpdateFields_OnlyProtectedFields(t *testing.T) {
	gw, mock, done := newTestGateway(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := gw.UpdateFields(context.Background(), "AT-1",
		map[string]any{"id": 1, "asset_tag": "AT-2", "created_date": "2020-01-01"}, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGateway_UpdateFields_NotFound(t *testing.T) {
	gw, mock, done := newTestGateway(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assets SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := gw.UpdateFields(context.Background(), "AT-404", map[string]any{"condition": "good"}, "")
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
