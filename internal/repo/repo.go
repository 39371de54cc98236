package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Record is one row of the result table. Column order for display and
// export is Alpha, X, Q, R, Lambda.
type Record struct {
	ID        string    `json:"id"`
	Section   string    `json:"section"`
	Alpha     float64   `json:"alpha"`
	X         float64   `json:"x"`
	Q         float64   `json:"q"`
	R         float64   `json:"r"`
	Lambda    float64   `json:"lambda"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository is an append-only, insertion-ordered result log.
type Repository interface {
	Append(ctx context.Context, rec Record) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Clear(ctx context.Context) error
}

func stamp(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

type PostgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultDB(db *sql.DB) *PostgresResultRepository {
	return &PostgresResultRepository{db: db}
}

const schema = `CREATE TABLE IF NOT EXISTS results (
	seq        BIGSERIAL PRIMARY KEY,
	id         UUID NOT NULL UNIQUE,
	section    TEXT NOT NULL,
	alpha      DOUBLE PRECISION NOT NULL,
	x          DOUBLE PRECISION NOT NULL,
	q          DOUBLE PRECISION NOT NULL,
	r          DOUBLE PRECISION NOT NULL,
	lambda     DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

func (r *PostgresResultRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *PostgresResultRepository) Append(ctx context.Context, rec Record) (Record, error) {
	rec = stamp(rec)
	query := "INSERT INTO results (id, section, alpha, x, q, r, lambda, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.Section, rec.Alpha, rec.X, rec.Q, rec.R, rec.Lambda, rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *PostgresResultRepository) List(ctx context.Context) ([]Record, error) {
	query := "SELECT id, section, alpha, x, q, r, lambda, created_at FROM results ORDER BY seq"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Section, &rec.Alpha, &rec.X, &rec.Q, &rec.R, &rec.Lambda, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresResultRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "TRUNCATE results RESTART IDENTITY")
	return err
}

// InitDB opens a pooled connection to connStr, requiring TLS unless the
// string already chooses an sslmode.
func InitDB(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", withSSL(connStr))
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}
	return db, nil
}

func withSSL(connStr string) string {
	if strings.Contains(connStr, "sslmode=") {
		return connStr
	}
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		sep := "?"
		if strings.Contains(connStr, "?") {
			sep = "&"
		}
		return connStr + sep + "sslmode=require"
	}
	return connStr + " sslmode=require"
}
