package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/assettrack/internal/config"
)

// TestAPI_LoginThenTransition is an integration test: it builds the full
// router with a sqlmock-backed DB, logs in to get a JWT, then moves an asset
// through the custody transition endpoint with the token. It checks that the
// recorded audit actor is the authenticated username.
func TestAPI_LoginThenTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// Login: GetByUsername("integration")
	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("integration").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}).
			AddRow(1, "integration", nil))

	// Transition: one tx wrapping update + event; the column introspection
	// runs on the main handle after the tx opens.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT column_name FROM information_schema.columns`).
		WithArgs("assets").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("id").AddRow("asset_tag").AddRow("custody_state").
			AddRow("accountability_status").AddRow("created_date").AddRow("updated_date"))
	mock.ExpectExec(`UPDATE assets SET custody_state = \$1, updated_date = \$2 WHERE asset_tag = \$3`).
		WithArgs("issued", nil, "AT-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO asset_events`).
		WithArgs("AT-1", "custody_state_changed", sqlmock.AnyArg(), "integration", nil, `{"custody_state":"issued"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// Read-back for the response body
	mock.ExpectQuery(`SELECT \* FROM assets WHERE asset_tag = \$1`).
		WithArgs("AT-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "asset_tag", "custody_state"}).
			AddRow(1, "AT-1", "issued"))

	cfg := config.Config{
		JWTSecret: "test-secret-for-integration",
	}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	// 1) Login
	loginBody, _ := json.Marshal(map[string]string{"username": "integration"})
	loginResp, err := http.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login status: got %d, want 200", loginResp.StatusCode)
	}
	var loginOut struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&loginOut); err != nil || loginOut.Token == "" {
		t.Fatalf("login response: %v", err)
	}

	// 2) Transition custody state with Bearer token
	body, _ := json.Marshal(map[string]string{"custody_state": "issued"})
	req, _ := http.NewRequest("POST", srv.URL+"/assets/AT-1/transition", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+loginOut.Token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("transition request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transition status: got %d, want 200", resp.StatusCode)
	}
	var record map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if record["custody_state"] != "issued" {
		t.Errorf("unexpected record: %+v", record)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_TransitionWithoutToken confirms that the asset surface is closed
// off to unauthenticated callers.
func TestAPI_TransitionWithoutToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	r := newRouter(db, config.Config{JWTSecret: "test-secret"})
	srv := httptest.NewServer(r)
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"custody_state": "issued"})
	resp, err := http.Post(srv.URL+"/assets/AT-1/transition", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
