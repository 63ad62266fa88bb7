package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/assettrack/internal/models"
)

// ==========================
// UserRepo
// ==========================

// UserRepo manages the operator accounts the API authenticates. Usernames
// become audit actors, which is why accounts live next to the asset store.
type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// Create inserts a user. passwordHash may be empty for accounts without a
// password (dev setups).
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := &models.User{PasswordHash: passwordHash}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, username`,
		username, passwordHash,
	).Scan(&user.ID, &user.Username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	var hash sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash
		 FROM users
		 WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &hash)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash.String
	return user, nil
}
