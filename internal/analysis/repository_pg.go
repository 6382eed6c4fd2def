package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) SessionStore {
	return &postgresStore{db: db}
}

const sessionCols = `id, user_id, report, analysis_result, source, created_at`

// Append inserts the session and trims the user's history in one
// transaction. The advisory lock serializes concurrent appends for the
// same user across processes so the trim never loses a fresh row.
func (r *postgresStore) Append(ctx context.Context, s *Session, keep int) error {
	report, err := json.Marshal(s.SymptomReport)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, s.UserID); err != nil {
		return fmt.Errorf("lock user history: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO analysis_sessions (id, user_id, report, analysis_result, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.UserID, report, []byte(s.AnalysisResult), string(s.Source), s.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if keep > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM analysis_sessions
			WHERE user_id = $1 AND id NOT IN (
				SELECT id FROM analysis_sessions
				WHERE user_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT $2
			)`, s.UserID, keep); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresStore) List(ctx context.Context, userID string, offset, limit int) ([]Session, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analysis_sessions WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	if offset < 0 || limit <= 0 || offset >= total {
		return []Session{}, total, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+sessionCols+` FROM analysis_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, total, rows.Err()
}

func (r *postgresStore) Get(ctx context.Context, userID string, id uuid.UUID) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM analysis_sessions
		WHERE user_id = $1 AND id = $2`, userID, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

func (r *postgresStore) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM analysis_sessions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		s              Session
		report, result []byte
		source         string
	)
	if err := row.Scan(&s.ID, &s.UserID, &report, &result, &source, &s.CreatedAt); err != nil {
		return nil, err
	}
	if len(report) > 0 {
		if err := json.Unmarshal(report, &s.SymptomReport); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	s.AnalysisResult = json.RawMessage(result)
	s.Source = Source(source)
	return &s, nil
}
