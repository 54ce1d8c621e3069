package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"homemoney/internal/core"
	"homemoney/internal/log"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS expenses (
		id BIGSERIAL PRIMARY KEY,
		type TEXT NOT NULL,
		remark TEXT NOT NULL DEFAULT '',
		amount DOUBLE PRECISION NOT NULL,
		time DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_time ON expenses(time);
`

// PostgresRepository stores records in PostgreSQL through the pgx stdlib driver.
type PostgresRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// NormalizeDatabaseURL rewrites postgresql:// to postgres:// and adds
// sslmode=disable when no sslmode is given.
func NormalizeDatabaseURL(url string) string {
	if strings.HasPrefix(url, "postgresql://") {
		url = "postgres://" + strings.TrimPrefix(url, "postgresql://")
	}
	if url != "" && !strings.Contains(url, "sslmode=") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "sslmode=disable"
	}
	return url
}

// NewPostgresRepository connects, retrying until ctx is done, and ensures the
// schema exists.
func NewPostgresRepository(ctx context.Context, databaseURL string, logger *log.Logger) (*PostgresRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	cfg, err := pgx.ParseConfig(NormalizeDatabaseURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	db := stdlib.OpenDB(*cfg)
	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		logger.Warn("Database not ready, retrying", "attempt", attempt, log.FieldError, err.Error())
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		case <-time.After(2 * time.Second):
		}
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("Database connection established", log.FieldBackend, "postgres")
	return &PostgresRepository{db: db, logger: logger}, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Add(ctx context.Context, rec core.ExpenseRecord) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (type, remark, amount, time) VALUES ($1, $2, $3, $4) RETURNING id`,
		rec.Type, rec.Remark, rec.Amount, rec.Time).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	r.logger.InfoContext(ctx, "Expense saved to PostgreSQL", "id", id, log.FieldOperation, log.OpCreate)
	return id, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]core.ExpenseRecord, error) {
	return queryRecords(ctx, r.db,
		`SELECT type, remark, amount, to_char(time, 'YYYY-MM-DD') FROM expenses ORDER BY id`)
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (StoredExpense, error) {
	return queryOne(ctx, r.db,
		`SELECT id, type, remark, amount, to_char(time, 'YYYY-MM-DD') FROM expenses WHERE id = $1`, id)
}
