// Package sqlstore implements store.Store on sqlx, against postgres (pgx) or sqlite3.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"moodcircle/internal/db"
	"moodcircle/internal/models"
	"moodcircle/internal/store"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

type SQLStore struct {
	db *sqlx.DB
}

var _ store.Store = (*SQLStore)(nil)

// Open connects, pings and migrates. For sqlite the DSN is a file path or ":memory:".
func Open(ctx context.Context, driverName, dsn string) (*SQLStore, error) {
	if driverName == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}
	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	switch driverName {
	case DriverSQLite:
		// A second connection to ":memory:" would see a different database.
		conn.SetMaxOpenConns(1)
	default:
		conn.SetMaxOpenConns(10)
		conn.SetConnMaxLifetime(2 * time.Hour)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed migrations: %w", err)
	}
	return &SQLStore{db: conn}, nil
}

// New wraps an already migrated connection.
func New(conn *sqlx.DB) *SQLStore {
	return &SQLStore{db: conn}
}

func sqliteDSN(path string) string {
	params := url.Values{}
	params.Add("_foreign_keys", "on")
	if strings.Contains(path, "?") {
		return path + "&" + params.Encode()
	}
	return path + "?" + params.Encode()
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) Close() error { return s.db.Close() }

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.ErrConflict
		case "23503":
			return store.ErrNotFound
		}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return store.ErrConflict
		case sqlite3.ErrConstraintForeignKey:
			return store.ErrNotFound
		}
	}
	return err
}

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	q := s.db.Rebind(`INSERT INTO users (username, password_hash) VALUES (?, ?) RETURNING id`)
	return translate(s.db.QueryRowxContext(ctx, q, user.Username, user.PasswordHash).Scan(&user.ID))
}

func (s *SQLStore) GetUser(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	q := s.db.Rebind(`SELECT id, username, password_hash FROM users WHERE id = ?`)
	if err := s.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	q := s.db.Rebind(`SELECT id, username, password_hash FROM users WHERE username = ?`)
	if err := s.db.GetContext(ctx, &u, q, username); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

const journalColumns = `id, user_id, title, content, category, mood, mood_color, is_public, shared_with_circle_id, created_at`

func (s *SQLStore) CreateJournal(ctx context.Context, j *models.Journal) error {
	q := s.db.Rebind(`INSERT INTO journals (user_id, title, content, category, mood, mood_color, is_public, shared_with_circle_id, created_at)
	                  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := s.db.QueryRowxContext(ctx, q,
		j.UserID, j.Title, j.Content, j.Category, string(j.Mood), j.MoodColor, j.IsPublic, j.SharedWithCircleID, j.CreatedAt,
	).Scan(&j.ID)
	return translate(err)
}

func (s *SQLStore) GetJournal(ctx context.Context, id int) (*models.Journal, error) {
	var j models.Journal
	q := s.db.Rebind(`SELECT ` + journalColumns + ` FROM journals WHERE id = ?`)
	if err := s.db.GetContext(ctx, &j, q, id); err != nil {
		return nil, translate(err)
	}
	return &j, nil
}

func (s *SQLStore) ListJournals(ctx context.Context) ([]models.Journal, error) {
	out := []models.Journal{}
	if err := s.db.SelectContext(ctx, &out, `SELECT `+journalColumns+` FROM journals ORDER BY id`); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) ListJournalsByUser(ctx context.Context, userID int) ([]models.Journal, error) {
	out := []models.Journal{}
	q := s.db.Rebind(`SELECT ` + journalColumns + ` FROM journals WHERE user_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) UpdateJournalSharing(ctx context.Context, id int, circleID *int) (*models.Journal, error) {
	q := s.db.Rebind(`UPDATE journals SET shared_with_circle_id = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, circleID, id)
	if err != nil {
		return nil, translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetJournal(ctx, id)
}

func (s *SQLStore) CreateCircle(ctx context.Context, c *models.Circle) (*models.CircleMember, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // Rollback on any error.

	q := tx.Rebind(`INSERT INTO circles (name, owner_id, description) VALUES (?, ?, ?) RETURNING id`)
	if err := tx.QueryRowxContext(ctx, q, c.Name, c.OwnerID, c.Description).Scan(&c.ID); err != nil {
		return nil, translate(err)
	}

	admin := models.CircleMember{CircleID: c.ID, UserID: c.OwnerID, Role: models.RoleAdmin}
	q = tx.Rebind(`INSERT INTO circle_members (circle_id, user_id, role) VALUES (?, ?, ?) RETURNING id`)
	if err := tx.QueryRowxContext(ctx, q, admin.CircleID, admin.UserID, string(admin.Role)).Scan(&admin.ID); err != nil {
		return nil, translate(err)
	}
	q = tx.Rebind(`SELECT username FROM users WHERE id = ?`)
	if err := tx.GetContext(ctx, &admin.Username, q, admin.UserID); err != nil {
		return nil, translate(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *SQLStore) GetCircle(ctx context.Context, id int) (*models.Circle, error) {
	var c models.Circle
	q := s.db.Rebind(`SELECT id, name, owner_id, description FROM circles WHERE id = ?`)
	if err := s.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *SQLStore) ListCirclesForUser(ctx context.Context, userID int) ([]models.Circle, error) {
	out := []models.Circle{}
	q := s.db.Rebind(`SELECT id, name, owner_id, description FROM circles
	                  WHERE owner_id = ?
	                     OR id IN (SELECT circle_id FROM circle_members WHERE user_id = ?)
	                  ORDER BY id`)
	if err := s.db.SelectContext(ctx, &out, q, userID, userID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) AddCircleMember(ctx context.Context, m *models.CircleMember) error {
	q := s.db.Rebind(`INSERT INTO circle_members (circle_id, user_id, role) VALUES (?, ?, ?) RETURNING id`)
	if err := s.db.QueryRowxContext(ctx, q, m.CircleID, m.UserID, string(m.Role)).Scan(&m.ID); err != nil {
		return translate(err)
	}
	q = s.db.Rebind(`SELECT username FROM users WHERE id = ?`)
	return translate(s.db.GetContext(ctx, &m.Username, q, m.UserID))
}

func (s *SQLStore) RemoveCircleMember(ctx context.Context, circleID, userID int) error {
	q := s.db.Rebind(`DELETE FROM circle_members WHERE circle_id = ? AND user_id = ?`)
	_, err := s.db.ExecContext(ctx, q, circleID, userID)
	return err
}

func (s *SQLStore) ListCircleMembers(ctx context.Context, circleID int) ([]models.CircleMember, error) {
	out := []models.CircleMember{}
	q := s.db.Rebind(`SELECT m.id, m.circle_id, m.user_id, m.role, u.username
	                  FROM circle_members m JOIN users u ON u.id = m.user_id
	                  WHERE m.circle_id = ? ORDER BY m.id`)
	if err := s.db.SelectContext(ctx, &out, q, circleID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) IsCircleMember(ctx context.Context, circleID, userID int) (bool, error) {
	var ok bool
	q := s.db.Rebind(`SELECT EXISTS (SELECT 1 FROM circle_members WHERE circle_id = ? AND user_id = ?)`)
	if err := s.db.QueryRowxContext(ctx, q, circleID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
