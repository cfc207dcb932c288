package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
)

var _ repository.AdminRepository = (*DB)(nil)

func (db *DB) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	admin.ID = xid.New().String()
	admin.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO admins (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		admin.ID, admin.Username, admin.PasswordHash, admin.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("username", "admin already exists")
		}
		return wrap("inserting admin", err)
	}
	return nil
}

func (db *DB) GetAdmin(ctx context.Context, id string) (*model.Admin, error) {
	return db.getAdmin(ctx, `id = ?`, id)
}

func (db *DB) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	return db.getAdmin(ctx, `username = ?`, username)
}

func (db *DB) getAdmin(ctx context.Context, where string, arg string) (*model.Admin, error) {
	var a model.Admin
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM admins WHERE `+where, arg,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("admin", arg)
		}
		return nil, wrap("getting admin", err)
	}
	return &a, nil
}
