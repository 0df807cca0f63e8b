package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ewintr.nl/chanwatch/model"
	_ "github.com/lib/pq"
)

type PostgresInfo struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

func (p PostgresInfo) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", p.Host, p.Port, p.User, p.Password, p.Database)
}

func OpenPostgres(info PostgresInfo) (*sql.DB, error) {
	db, err := sql.Open("postgres", info.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// SQL stores watermarks in the channel_state table of a Postgres or SQLite
// database.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

func NewPostgres(db *sql.DB) (*SQL, error) {
	return newSQL(db, postgresDialect)
}

func newSQL(db *sql.DB, d dialect) (*SQL, error) {
	s := &SQL{db: db, dialect: d}
	if err := migrate(db, d); err != nil {
		return nil, fmt.Errorf("%s migration: %w", d.name, err)
	}

	return s, nil
}

func (s *SQL) Get(ctx context.Context, channelID model.YoutubeChannelID) (model.Watermark, bool, error) {
	var wm sql.NullString
	err := s.db.QueryRowContext(ctx, s.dialect.get, string(channelID)).Scan(&wm)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("%w: get watermark for %s: %w", model.ErrStorage, channelID, err)
	case !wm.Valid || wm.String == "":
		return "", false, nil
	}

	return model.Watermark(wm.String), true, nil
}

func (s *SQL) Put(ctx context.Context, channelID model.YoutubeChannelID, watermark model.Watermark) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.put, string(channelID), string(watermark)); err != nil {
		return fmt.Errorf("%w: put watermark for %s: %w", model.ErrStorage, channelID, err)
	}

	return nil
}
