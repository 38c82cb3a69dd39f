package database

import (
	"database/sql"
	"strings"
)

// InsertSavedReply stores a reply, optionally linked to the analysis it came from.
func (db *DB) InsertSavedReply(analysisID *string, replyText string, replyType *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO saved_replies (analysis_id, reply_text, reply_type) VALUES (?, ?, ?)`,
		analysisID, replyText, replyType,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetSavedReplies returns saved replies newest first. A non-empty search
// keeps only replies whose text contains it, ignoring case.
func (db *DB) GetSavedReplies(search string) ([]SavedReply, error) {
	query := `SELECT id, analysis_id, reply_text, reply_type, created_at FROM saved_replies`
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE instr(lower(reply_text), ?) > 0`
		args = append(args, strings.ToLower(search))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replies []SavedReply
	for rows.Next() {
		var r SavedReply
		if err := rows.Scan(&r.ID, &r.AnalysisID, &r.ReplyText, &r.ReplyType, &r.CreatedAt); err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	return replies, rows.Err()
}

// GetSavedReply returns a single saved reply by ID.
func (db *DB) GetSavedReply(id int64) (*SavedReply, error) {
	row := db.conn.QueryRow(
		`SELECT id, analysis_id, reply_text, reply_type, created_at FROM saved_replies WHERE id = ?`, id,
	)
	var r SavedReply
	if err := row.Scan(&r.ID, &r.AnalysisID, &r.ReplyText, &r.ReplyType, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// DeleteSavedReply removes a saved reply.
func (db *DB) DeleteSavedReply(id int64) error {
	_, err := db.conn.Exec(`DELETE FROM saved_replies WHERE id = ?`, id)
	return err
}
