package database

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNewerSchema is returned when the file was written by a newer build.
var ErrNewerSchema = errors.New("database schema is newer than this build")

func schemaVersion(conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// migrate applies every migration above the stored user_version, in order.
func migrate(conn *sql.DB) error {
	current, err := schemaVersion(conn)
	if err != nil {
		return err
	}
	latest := latestVersion()
	if current > latest {
		return fmt.Errorf("%w: version %d, supported %d", ErrNewerSchema, current, latest)
	}

	for _, m := range migrations[current:] {
		zap.L().Info("applying migration",
			zap.Int("version", m.Version),
			zap.String("description", m.Description))
		if err := apply(conn, m); err != nil {
			return err
		}
	}
	return nil
}

func apply(conn *sql.DB, m Migration) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	if err := m.Up(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}

	// modernc/sqlite ignores user_version writes inside a transaction, so
	// every Up must be safe to re-run if this step is lost.
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("setting version %d: %w", m.Version, err)
	}
	return nil
}
