package repo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(username, password_hash\) VALUES \(\$1, \$2\) RETURNING id, username`).
		WithArgs("jdoe", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(3, "jdoe"))

	repo := NewUserRepo(db)
	user, err := repo.Create(context.Background(), "jdoe", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != 3 || user.Username != "jdoe" {
		t.Errorf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash FROM users WHERE username = \$1`).
		WithArgs("jdoe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}).
			AddRow(3, "jdoe", nil))

	repo := NewUserRepo(db)
	user, err := repo.GetByUsername(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if user.PasswordHash != "" {
		t.Errorf("expected empty hash, got %q", user.PasswordHash)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
