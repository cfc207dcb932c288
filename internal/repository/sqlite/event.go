package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/eventhub/internal/apperror"
	"github.com/sakif/eventhub/internal/model"
	"github.com/sakif/eventhub/internal/repository"
)

var _ repository.EventRepository = (*DB)(nil)

const eventColumns = `id, title, description, image, youtube_link, date, time,
	published, joined_users, created_at, updated_at`

// querier is the subset of *sql.DB and *sql.Tx the row helpers need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*model.Event, error) {
	var (
		e      model.Event
		date   string
		joined string
	)
	err := s.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Image,
		&e.YoutubeLink,
		&date,
		&e.Time,
		&e.Published,
		&joined,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if e.Date, err = model.ParseDate(date); err != nil {
		return nil, err
	}
	if e.JoinedUsers, err = decodeIDs(joined); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent assigns the id and timestamps and inserts event.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	event.ID = xid.New().String()
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.JoinedUsers == nil {
		event.JoinedUsers = []string{}
	}

	joined, err := encodeIDs(event.JoinedUsers)
	if err != nil {
		return fmt.Errorf("sqlite: creating event: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Title,
		event.Description,
		event.Image,
		event.YoutubeLink,
		event.Date.String(),
		event.Time,
		event.Published,
		joined,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return wrap("creating event", err)
	}
	return nil
}

func (db *DB) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, db.conn, id)
}

func getEvent(ctx context.Context, q querier, id string) (*model.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("event", id)
		}
		return nil, wrap("getting event "+id, err)
	}
	return e, nil
}

// UpdateEvent writes the editable fields of event. The membership set is
// left alone.
func (db *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, description = ?, image = ?, youtube_link = ?,
		     date = ?, time = ?, published = ?, updated_at = ?
		 WHERE id = ?`,
		event.Title,
		event.Description,
		event.Image,
		event.YoutubeLink,
		event.Date.String(),
		event.Time,
		event.Published,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return wrap("updating event "+event.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("event", event.ID)
	}
	return nil
}

// DeleteEvent removes the event and purges its id from every user's
// joined_events in the same transaction.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	return db.withTx(ctx, "deleting event", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
		if err != nil {
			return wrap("deleting event "+id, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rows == 0 {
			return apperror.NotFound("event", id)
		}

		return purgeMember(ctx, tx, "users", "joined_events", id)
	})
}

// ListEvents returns events matching filter.
func (db *DB) ListEvents(ctx context.Context, filter repository.EventFilter) ([]model.Event, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []model.Event{}, nil
	}

	var (
		where []string
		args  []any
	)
	if filter.PublishedOnly {
		where = append(where, "published = 1")
	}
	if filter.WithMembersOnly {
		where = append(where, "json_array_length(joined_users) > 0")
	}
	if filter.IDs != nil {
		where = append(where, "id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.Order == repository.DateAsc {
		query += " ORDER BY date ASC, created_at ASC"
	} else {
		query += " ORDER BY date DESC, created_at DESC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("listing events", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating event rows: %w", err)
	}
	return events, nil
}

// purgeMember removes id from the JSON membership column of every row in
// table that contains it. table and column are package constants, never
// user input.
func purgeMember(ctx context.Context, tx *sql.Tx, table, column, id string) error {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, %[2]s FROM %[1]s
		 WHERE EXISTS (SELECT 1 FROM json_each(%[1]s.%[2]s) WHERE value = ?)`, table, column),
		id,
	)
	if err != nil {
		return wrap("finding "+table+" referencing "+id, err)
	}

	type member struct {
		id  string
		set []string
	}
	var affected []member
	for rows.Next() {
		var rowID, raw string
		if err := rows.Scan(&rowID, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning %s row: %w", table, err)
		}
		set, err := decodeIDs(raw)
		if err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: %s %s: %w", table, rowID, err)
		}
		affected = append(affected, member{id: rowID, set: set})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("sqlite: iterating %s rows: %w", table, err)
	}
	rows.Close()

	for _, m := range affected {
		raw, err := encodeIDs(model.RemoveMember(m.set, id))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET %s = ?, updated_at = ? WHERE id = ?`, table, column),
			raw, time.Now().UTC(), m.id,
		)
		if err != nil {
			return wrap("purging "+id+" from "+table+" "+m.id, err)
		}
	}
	return nil
}
