// Package sqlite stores recorded takes in SQLite. A take is a named
// junctionbox.Document: the saved Junction layout plus the recorded events.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/phanxgames/junctionbox"
	"github.com/phanxgames/junctionbox/storage/sqlite/migrations"
)

// ErrNotFound is returned when a take id does not exist.
var ErrNotFound = errors.New("take not found")

// TakeInfo summarizes a stored take.
type TakeInfo struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Junctions int
	Events    int
	Duration  time.Duration
}

// Store persists takes in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a SQLite take store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveTake stores doc under name and returns the new take id.
func (s *Store) SaveTake(ctx context.Context, name string, doc junctionbox.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("take name is required")
	}

	id := uuid.NewString()
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO takes (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, s.now().UTC().UnixMilli(),
	); err != nil {
		return "", fmt.Errorf("insert take: %w", err)
	}

	for i, j := range doc.Junctions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO take_junctions (
			   take_id, position, route_order, label,
			   center_x, center_y, width, height, angle, toggle
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, j.Order, j.Label,
			j.CenterX, j.CenterY, j.Width, j.Height, j.Angle, boolToInt(j.Toggle),
		); err != nil {
			return "", fmt.Errorf("insert take junction %d: %w", i, err)
		}
	}

	for i, e := range doc.Events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO take_events (take_id, seq, type, contact_id, x, y, delay_ns)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, int(e.Type), e.ID, e.X, e.Y, int64(e.Delay),
		); err != nil {
			return "", fmt.Errorf("insert take event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit take: %w", err)
	}
	return id, nil
}

// LoadTake returns the document stored under id.
func (s *Store) LoadTake(ctx context.Context, id string) (junctionbox.Document, error) {
	if err := ctx.Err(); err != nil {
		return junctionbox.Document{}, err
	}
	if s == nil || s.sqlDB == nil {
		return junctionbox.Document{}, fmt.Errorf("storage is not configured")
	}
	id, err := parseID(id)
	if err != nil {
		return junctionbox.Document{}, err
	}

	var found int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM takes WHERE id = ?`, id).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return junctionbox.Document{}, ErrNotFound
		}
		return junctionbox.Document{}, fmt.Errorf("get take: %w", err)
	}

	var doc junctionbox.Document
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT route_order, label, center_x, center_y, width, height, angle, toggle
		   FROM take_junctions
		  WHERE take_id = ?
		  ORDER BY position`,
		id,
	)
	if err != nil {
		return junctionbox.Document{}, fmt.Errorf("query take junctions: %w", err)
	}
	for rows.Next() {
		var j junctionbox.JunctionRecord
		var toggle int64
		if err := rows.Scan(&j.Order, &j.Label, &j.CenterX, &j.CenterY, &j.Width, &j.Height, &j.Angle, &toggle); err != nil {
			_ = rows.Close()
			return junctionbox.Document{}, fmt.Errorf("scan take junction: %w", err)
		}
		j.Toggle = toggle != 0
		doc.Junctions = append(doc.Junctions, j)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return junctionbox.Document{}, fmt.Errorf("iterate take junctions: %w", err)
	}
	_ = rows.Close()

	rows, err = s.sqlDB.QueryContext(ctx,
		`SELECT type, contact_id, x, y, delay_ns
		   FROM take_events
		  WHERE take_id = ?
		  ORDER BY seq`,
		id,
	)
	if err != nil {
		return junctionbox.Document{}, fmt.Errorf("query take events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e junctionbox.EventRecord
		var typ int
		var delay int64
		if err := rows.Scan(&typ, &e.ID, &e.X, &e.Y, &delay); err != nil {
			return junctionbox.Document{}, fmt.Errorf("scan take event: %w", err)
		}
		e.Type = junctionbox.EventType(typ)
		e.Delay = time.Duration(delay)
		doc.Events = append(doc.Events, e)
	}
	if err := rows.Err(); err != nil {
		return junctionbox.Document{}, fmt.Errorf("iterate take events: %w", err)
	}
	return doc, nil
}

// ListTakes returns every take, newest first.
func (s *Store) ListTakes(ctx context.Context) ([]TakeInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT t.id, t.name, t.created_at,
		        (SELECT COUNT(*) FROM take_junctions j WHERE j.take_id = t.id),
		        (SELECT COUNT(*) FROM take_events e WHERE e.take_id = t.id),
		        (SELECT COALESCE(MAX(e.delay_ns), 0) FROM take_events e WHERE e.take_id = t.id)
		   FROM takes t
		  ORDER BY t.created_at DESC, t.rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list takes: %w", err)
	}
	defer rows.Close()

	var takes []TakeInfo
	for rows.Next() {
		var info TakeInfo
		var createdAt, duration int64
		if err := rows.Scan(&info.ID, &info.Name, &createdAt, &info.Junctions, &info.Events, &duration); err != nil {
			return nil, fmt.Errorf("scan take: %w", err)
		}
		info.CreatedAt = time.UnixMilli(createdAt).UTC()
		info.Duration = time.Duration(duration)
		takes = append(takes, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate takes: %w", err)
	}
	return takes, nil
}

// DeleteTake removes a take and its rows.
func (s *Store) DeleteTake(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id, err := parseID(id)
	if err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"take_events", "take_junctions"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE take_id = ?`, id); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM takes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete take: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func parseID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("invalid take id %q: %w", id, err)
	}
	return u.String(), nil
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}
