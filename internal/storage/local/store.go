package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS notification_reads (
	user_id INTEGER NOT NULL,
	key     TEXT NOT NULL,
	read_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, key)
);

CREATE TABLE IF NOT EXISTS profile (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	user_id    INTEGER NOT NULL,
	role       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Store локальное хранилище клиента: прочитанные ключи уведомлений (отдельно по пользователям) и профиль
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Profile текущий пользователь клиента
type Profile struct {
	UserID int64
	Role   model.Role
}

// Open открывает (или создаёт) sqlite файл и накатывает схему
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	// один писатель: записи идут последовательно
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply local schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ReadKeys все ключи, отмеченные прочитанными пользователем userID
func (s *Store) ReadKeys(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM notification_reads WHERE user_id = ? ORDER BY read_at, key`, userID)
	if err != nil {
		return nil, fmt.Errorf("query read keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan read key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// IsRead отмечен ли ключ прочитанным
func (s *Store) IsRead(ctx context.Context, userID int64, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM notification_reads WHERE user_id = ? AND key = ?`, userID, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check read key: %w", err)
	}
	return true, nil
}

// MarkRead добавляет ключи в набор прочитанных пользователя. Уже отмеченные не трогаются
func (s *Store) MarkRead(ctx context.Context, userID int64, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO notification_reads (user_id, key, read_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare mark read: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC()
	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, userID, key, now); err != nil {
			return fmt.Errorf("mark %q read: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark read: %w", err)
	}
	return nil
}

// SaveProfile запоминает пользователя, под которым выполнен вход
func (s *Store) SaveProfile(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, user_id, role, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, role = excluded.role, updated_at = excluded.updated_at`,
		p.UserID, string(p.Role), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Profile сохранённый пользователь или nil, если входа не было
func (s *Store) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT user_id, role FROM profile WHERE id = 1`).Scan(&p.UserID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p.Role = model.Role(role)
	return &p, nil
}

// ClearProfile забывает пользователя. Прочитанные ключи остаются
func (s *Store) ClearProfile(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profile`); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}
