package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/foodshare/internal/apperr"
)

// Postgres backs the store with lib/pq. Sub-records (acknowledgement,
// feedback, locations, items, skills) live in JSONB columns; status
// transitions are single conditional UPDATEs checked via RowsAffected.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// Exec runs raw SQL; cmd/server uses it for the optional migration pass.
func (p *Postgres) Exec(stmt string) error {
	_, err := p.db.Exec(stmt)
	return err
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalJSON(b []byte, target any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, target)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func internalErr(err error) error {
	return apperr.Wrap(apperr.Internal, "store operation failed", err)
}
