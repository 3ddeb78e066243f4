package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"naalli/internal/models"

	"github.com/doug-martin/goqu/v9"
)

var userColumns = []interface{}{"email", "name", "password_hash", "must_change_password", "role", "created_at"}

func (db *DB) scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		user      models.User
		createdAt string
	)
	if err := row.Scan(&user.Email, &user.Name, &user.PasswordHash, &user.MustChangePassword, &user.Role, &createdAt); err != nil {
		return nil, err
	}
	user.CreatedAt = db.parseTimestamp(createdAt)
	return &user, nil
}

// GetUserByEmail returns ErrNotFound when no user has the e-mail.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query, args, err := db.from("users").
		Select(userColumns...).
		Where(goqu.Ex{"email": models.NormalizeEmail(email)}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	user, err := db.scanUser(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser inserts a user; ErrDuplicateEmail when the e-mail is taken.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	countQuery, args, err := db.from("users").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"email": user.Email}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	var existing int
	if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check e-mail: %w", err)
	}
	if existing > 0 {
		return ErrDuplicateEmail
	}

	insertQuery, args, err := db.insert("users").Rows(goqu.Record{
		"email":                user.Email,
		"name":                 user.Name,
		"password_hash":        user.PasswordHash,
		"must_change_password": user.MustChangePassword,
		"role":                 user.Role,
		"created_at":           db.formatTimestamp(user.CreatedAt),
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}
	return nil
}

// UpdatePassword stores a new hash and the forced-change flag.
func (db *DB) UpdatePassword(ctx context.Context, email, passwordHash string, mustChange bool) error {
	query, args, err := db.update("users").
		Set(goqu.Record{"password_hash": passwordHash, "must_change_password": mustChange}).
		Where(goqu.Ex{"email": models.NormalizeEmail(email)}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns users ordered by name.
func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	query, args, err := db.from("users").
		Select(userColumns...).
		Order(goqu.C("name").Asc(), goqu.C("email").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := db.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (db *DB) CountUsers(ctx context.Context) (int, error) {
	query, args, err := db.from("users").Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
