package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// Admin is a user allowed to manage the catalog.
type Admin struct {
	UserID   int64   `json:"userId" yaml:"user_id"`
	Username string  `json:"username" yaml:"username"`
	Email    *string `json:"email" yaml:"email"`
}

// UpsertAdmin creates the user as an active admin, or resets the password,
// email and flags of the existing user with that username. A blank email is
// stored as NULL.
func (s *Service) UpsertAdmin(ctx context.Context, username, email, password string) (int64, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, false, &ValidationError{Field: "username", Message: "username is required"}
	}
	if password == "" {
		return 0, false, &ValidationError{Field: "password", Message: "password is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, false, &ValidationError{Field: "password", Message: err.Error()}
	}
	mail := ToPgText(strings.TrimSpace(email))

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var (
		userID  int64
		created bool
	)
	err = s.withTx(ctx, "upsert admin", "users", func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"SELECT user_id FROM users WHERE username = $1 FOR UPDATE", username).Scan(&userID)
		switch {
		case err == nil:
			_, err = tx.Exec(ctx, `
				UPDATE users
				SET email = $1, password_hash = $2, created_at = now(), is_active = TRUE, is_admin = TRUE
				WHERE user_id = $3`, mail, string(hash), userID)
			return err
		case errors.Is(err, pgx.ErrNoRows):
			created = true
			desc, err := describeTable(ctx, tx, s.schema, "users")
			if err != nil {
				return err
			}
			userID, err = insertRow(ctx, tx, desc, Fields(
				"username", username,
				"email", mail,
				"password_hash", string(hash),
				"created_at", time.Now(),
				"is_active", true,
				"is_admin", true,
			))
			return err
		default:
			return err
		}
	})
	if err != nil {
		return 0, false, err
	}

	s.record(ctx, AuditLogParams{
		Action:  ActionAdminUpsert,
		Table:   "users",
		RowKey:  userID,
		RowData: map[string]any{"username": username, "created": created},
	})
	return userID, created, nil
}

// ListAdmins returns every admin user ordered by id.
func (s *Service) ListAdmins(ctx context.Context) ([]Admin, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx,
		"SELECT user_id, username, email FROM users WHERE is_admin ORDER BY user_id")
	if err != nil {
		return nil, classifyDBError("list admins", "users", err)
	}
	admins, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Admin])
	if err != nil {
		return nil, classifyDBError("list admins", "users", err)
	}
	if admins == nil {
		admins = []Admin{}
	}
	return admins, nil
}
