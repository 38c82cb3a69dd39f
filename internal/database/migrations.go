package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations. Versions start
// at 1 and increase by one; migrate indexes the slice by version.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    tier TEXT NOT NULL DEFAULT 'free',
    analysis_json TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "saved replies",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS saved_replies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    analysis_id TEXT REFERENCES analyses(id) ON DELETE CASCADE,
    reply_text TEXT NOT NULL,
    reply_type TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_saved_replies_analysis ON saved_replies(analysis_id);
`)
			return err
		},
	},
	{
		Version:     3,
		Description: "promote viral_summary to viral_card",
		Up: func(tx *sql.Tx) error {
			// Older records carry their card only under viral_summary.
			_, err := tx.Exec(`
UPDATE analyses
SET analysis_json = json_set(analysis_json, '$.viral_card', json(json_extract(analysis_json, '$.viral_summary')))
WHERE CASE WHEN json_valid(analysis_json)
    THEN json_type(analysis_json, '$.viral_card') IS NULL
     AND json_type(analysis_json, '$.viral_summary') = 'object'
    ELSE 0 END;
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
