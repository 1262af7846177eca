package sqlite

import (
	"context"
)

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	// Questions are stored per session in display order; a session is never
	// updated after the handoff.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			difficulty TEXT NOT NULL,
			question_count INTEGER NOT NULL,
			total_seconds INTEGER NOT NULL,
			started_at_unix INTEGER NOT NULL,
			deadline_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_questions (
			session_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			question_id TEXT NOT NULL,
			question_json TEXT NOT NULL,
			PRIMARY KEY (session_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at_unix DESC);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
