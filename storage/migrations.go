package storage

import (
	"database/sql"
	"fmt"
)

type dialect struct {
	name              string
	migrationTable    string
	registerMigration string
	migrations        []string
	get               string
	put               string
}

var postgresDialect = dialect{
	name: "postgres",
	migrationTable: `CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`,
	registerMigration: `INSERT INTO migration (query) VALUES ($1)`,
	migrations: []string{
		`CREATE TABLE IF NOT EXISTS channel_state (
channel_id VARCHAR(255) PRIMARY KEY,
last_published_at VARCHAR(20) COLLATE "C" NOT NULL
)`,
	},
	get: `SELECT last_published_at FROM channel_state WHERE channel_id = $1`,
	put: `INSERT INTO channel_state (channel_id, last_published_at) VALUES ($1, $2)
ON CONFLICT (channel_id) DO UPDATE SET last_published_at = excluded.last_published_at
WHERE channel_state.last_published_at < excluded.last_published_at`,
}

var sqliteDialect = dialect{
	name: "sqlite",
	migrationTable: `CREATE TABLE IF NOT EXISTS migration
(id INTEGER PRIMARY KEY AUTOINCREMENT, query TEXT)`,
	registerMigration: `INSERT INTO migration (query) VALUES (?)`,
	migrations: []string{
		`CREATE TABLE IF NOT EXISTS channel_state (channel_id TEXT PRIMARY KEY, last_published_at TEXT)`,
	},
	get: `SELECT last_published_at FROM channel_state WHERE channel_id = ?`,
	put: `INSERT INTO channel_state (channel_id, last_published_at) VALUES (?, ?)
ON CONFLICT (channel_id) DO UPDATE SET last_published_at = excluded.last_published_at
WHERE channel_state.last_published_at IS NULL OR channel_state.last_published_at < excluded.last_published_at`,
}

// migrate brings the schema of db up to the migrations of d. Applied
// migrations are recorded in order and must match d exactly.
func migrate(db *sql.DB, d dialect) error {
	if _, err := db.Exec(d.migrationTable); err != nil {
		return fmt.Errorf("%s: create migration table: %w", d.name, err)
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return fmt.Errorf("%s: read applied migrations: %w", d.name, err)
	}
	pending, err := d.pending(applied)
	if err != nil {
		return err
	}

	for i, query := range pending {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("%s: migration %d: %w", d.name, len(applied)+i+1, err)
		}
		if _, err := db.Exec(d.registerMigration, query); err != nil {
			return fmt.Errorf("%s: record migration %d: %w", d.name, len(applied)+i+1, err)
		}
	}

	return nil
}

func appliedMigrations(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applied []string
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return nil, err
		}
		applied = append(applied, query)
	}

	return applied, rows.Err()
}

// pending returns the migrations of d that come after applied. The state
// database must not be ahead of this binary or disagree with it.
func (d dialect) pending(applied []string) ([]string, error) {
	if len(applied) > len(d.migrations) {
		return nil, fmt.Errorf("%s: channel state schema has %d migrations, this build knows %d", d.name, len(applied), len(d.migrations))
	}
	for i, query := range applied {
		if query != d.migrations[i] {
			return nil, fmt.Errorf("%s: channel state migration %d differs from this build: %q", d.name, i+1, query)
		}
	}

	return d.migrations[len(applied):], nil
}
