package repo

import (
	"context"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestIntrospectColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT column_name FROM information_schema.columns WHERE table_name = \$1`).
		WithArgs("assets").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("id").
			AddRow("asset_tag").
			AddRow("custody_state"))

	cs, err := IntrospectColumns(db)(context.Background(), "assets")
	if err != nil {
		t.Fatalf("IntrospectColumns: %v", err)
	}
	if got := cs.Names(); !reflect.DeepEqual(got, []string{"asset_tag", "custody_state", "id"}) {
		t.Errorf("unexpected columns: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestColumnSet_Filter(t *testing.T) {
	cs := NewColumnSet("asset_tag", "condition")

	in := map[string]any{
		"asset_tag": "AT-1",
		"condition": "good",
		"warranty":  "3y",
		"firmware":  "1.2.0",
	}
	out := cs.Filter(in)

	// Unknown keys are dropped, never rejected.
	if len(out) != 2 || out["asset_tag"] != "AT-1" || out["condition"] != "good" {
		t.Errorf("unexpected filtered set: %+v", out)
	}
	if _, ok := in["warranty"]; !ok {
		t.Error("Filter must not mutate its input")
	}
}

func TestFixedColumns(t *testing.T) {
	want := NewColumnSet("a", "b")
	got, err := FixedColumns(want)(context.Background(), "anything")
	if err != nil {
		t.Fatalf("FixedColumns: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
