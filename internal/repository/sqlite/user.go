package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, first_name, last_name, email, age, sex, password_hash,
	organisation, title, telephone, member, allergies, account_banned,
	joined_events, created_at, updated_at`

func scanUser(s scanner) (*model.User, error) {
	var (
		u      model.User
		joined string
	)
	err := s.Scan(
		&u.ID,
		&u.Name,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Age,
		&u.Sex,
		&u.PasswordHash,
		&u.Organisation,
		&u.Title,
		&u.Telephone,
		&u.Member,
		&u.Allergies,
		&u.AccountBanned,
		&joined,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if u.JoinedEvents, err = decodeIDs(joined); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts user with a fresh id. The email is normalised before
// insert; a taken email returns apperror.ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.Email = model.NormalizeEmail(user.Email)
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Member == "" {
		user.Member = "no"
	}
	if user.JoinedEvents == nil {
		user.JoinedEvents = []string{}
	}

	joined, err := encodeIDs(user.JoinedEvents)
	if err != nil {
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Age,
		user.Sex,
		user.PasswordHash,
		user.Organisation,
		user.Title,
		user.Telephone,
		user.Member,
		user.Allergies,
		user.AccountBanned,
		joined,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("email", "email already in use")
		}
		return wrap("inserting user", err)
	}
	return nil
}

// GetUser returns apperror.ErrNotFound if no user has that id.
func (db *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, db.conn, id)
}

func getUser(ctx context.Context, q querier, id string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, wrap("getting user "+id, err)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("user not found")
		}
		return nil, wrap("getting user by email", err)
	}
	return u, nil
}

// UpdateUser writes the profile fields and password hash. The membership set
// and ban flag are owned by other operations and left alone.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.Email = model.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, first_name = ?, last_name = ?, email = ?, age = ?, sex = ?,
		     password_hash = ?, organisation = ?, title = ?, telephone = ?,
		     member = ?, allergies = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Age,
		user.Sex,
		user.PasswordHash,
		user.Organisation,
		user.Title,
		user.Telephone,
		user.Member,
		user.Allergies,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("email", "email already in use")
		}
		return wrap("updating user "+user.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// SetUserBanned sets or flips the ban flag in one statement.
func (db *DB) SetUserBanned(ctx context.Context, id string, banned *bool) (bool, error) {
	var target any
	if banned != nil {
		target = *banned
	}

	var stored bool
	err := db.conn.QueryRowContext(ctx,
		`UPDATE users
		 SET account_banned = CASE WHEN ?1 IS NULL THEN NOT account_banned ELSE ?1 END,
		     updated_at = ?2
		 WHERE id = ?3
		 RETURNING account_banned`,
		target, time.Now().UTC(), id,
	).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperror.NotFound("user", id)
		}
		return false, wrap("setting ban flag for user "+id, err)
	}
	return stored, nil
}

// DeleteUser removes the user and purges its id from every event's
// joined_users in the same transaction.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	return db.withTx(ctx, "deleting user", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return wrap("deleting user "+id, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rows == 0 {
			return apperror.NotFound("user", id)
		}

		return purgeMember(ctx, tx, "events", "joined_users", id)
	})
}

// ListUsers returns users in creation order. A non-nil ids restricts the
// result to those users.
func (db *DB) ListUsers(ctx context.Context, ids []string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if ids != nil {
		if len(ids) == 0 {
			return []model.User{}, nil
		}
		query += ` WHERE id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY created_at ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("listing users", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}
	return users, nil
}
