package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
)

var _ repository.RegistrationRepository = (*DB)(nil)

// InTx runs fn inside one SQLite transaction. Writes made through the
// MembershipTx commit together when fn returns nil and are rolled back
// otherwise.
func (db *DB) InTx(ctx context.Context, fn func(tx repository.MembershipTx) error) error {
	return db.withTx(ctx, "membership transaction", func(tx *sql.Tx) error {
		return fn(&membershipTx{tx: tx})
	})
}

// withTx is the shared begin/rollback/commit skeleton. The deferred Rollback
// is a no-op after a successful Commit.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrap("beginning "+op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap("committing "+op, err)
	}
	return nil
}

type membershipTx struct {
	tx *sql.Tx
}

func (m *membershipTx) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, m.tx, id)
}

func (m *membershipTx) GetUser(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, m.tx, id)
}

func (m *membershipTx) SetEventMembers(ctx context.Context, eventID string, userIDs []string) error {
	return setMembers(ctx, m.tx, "events", "joined_users", eventID, userIDs)
}

func (m *membershipTx) SetUserEvents(ctx context.Context, userID string, eventIDs []string) error {
	return setMembers(ctx, m.tx, "users", "joined_events", userID, eventIDs)
}

func setMembers(ctx context.Context, tx *sql.Tx, table, column, id string, set []string) error {
	raw, err := encodeIDs(set)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s.%s: %w", table, column, err)
	}

	result, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = ?, updated_at = ? WHERE id = ?`, table, column),
		raw, time.Now().UTC(), id,
	)
	if err != nil {
		return wrap("writing "+table+"."+column+" for "+id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sqlite: %s %s vanished inside transaction", table, id)
	}
	return nil
}
