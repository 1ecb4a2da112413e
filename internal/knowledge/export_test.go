package knowledge

import (
	"database/sql"
	"strings"
)

// DB exposes the internal *sql.DB for test helpers in knowledge_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// FailCommits makes every following transaction fail at commit time.
func (s *Store) FailCommits(err error) {
	s.hooks.commit = func(*sql.Tx) error { return err }
}

// FailExec makes statements containing substr fail with err.
func (s *Store) FailExec(substr string, err error) {
	s.hooks.exec = func(db execer, query string, args ...any) (sql.Result, error) {
		if strings.Contains(query, substr) {
			return nil, err
		}
		return db.Exec(query, args...)
	}
}

// ResetHooks restores the default database calls.
func (s *Store) ResetHooks() {
	s.hooks = storeHooks{}
}
