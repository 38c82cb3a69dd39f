package database

import (
	"database/sql"
	"fmt"
)

// InsertAnalysis stores an analysis record.
func (db *DB) InsertAnalysis(id, tier, analysisJSON string) error {
	_, err := db.conn.Exec(
		`INSERT INTO analyses (id, tier, analysis_json) VALUES (?, ?, ?)`,
		id, tier, analysisJSON,
	)
	return err
}

// GetAnalysis returns a single analysis by ID, or nil if it does not exist.
func (db *DB) GetAnalysis(id string) (*Analysis, error) {
	row := db.conn.QueryRow(
		`SELECT id, tier, analysis_json, created_at FROM analyses WHERE id = ?`, id,
	)
	var a Analysis
	if err := row.Scan(&a.ID, &a.Tier, &a.AnalysisJSON, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// GetRecentAnalyses returns the newest analyses first. limit <= 0 returns all.
func (db *DB) GetRecentAnalyses(limit int) ([]Analysis, error) {
	query := `SELECT id, tier, analysis_json, created_at FROM analyses ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.Tier, &a.AnalysisJSON, &a.CreatedAt); err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// DeleteAnalysis removes an analysis together with its saved replies.
// It reports whether the analysis existed.
func (db *DB) DeleteAnalysis(id string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM saved_replies WHERE analysis_id = ?`, id); err != nil {
		return false, fmt.Errorf("deleting saved replies: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting analysis: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	return n > 0, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{ByTier: make(map[string]int)}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM analyses", &s.Analyses},
		{"SELECT COUNT(*) FROM saved_replies", &s.SavedReplies},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	rows, err := db.conn.Query(`SELECT tier, COUNT(*) FROM analyses GROUP BY tier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		s.ByTier[tier] = n
	}
	return s, rows.Err()
}
