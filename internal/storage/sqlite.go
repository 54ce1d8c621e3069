package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"homemoney/internal/core"
	"homemoney/internal/log"
)

type SQLiteRepository struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		path:   dbPath,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Path() string {
	return r.path
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Add(ctx context.Context, rec core.ExpenseRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (type, remark, amount, time) VALUES (?, ?, ?, ?)`,
		rec.Type, rec.Remark, rec.Amount, rec.Time)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	fields := log.NewFields().
		WithOperation(log.OpCreate).
		WithExpense(rec.Type, rec.Remark, rec.Amount, rec.Time)
	fields["id"] = id
	r.logger.InfoContext(ctx, "Expense saved to SQLite", fields.ToSlice()...)
	return id, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.ExpenseRecord, error) {
	return queryRecords(ctx, r.db, `SELECT type, COALESCE(remark, ''), amount, time FROM expenses ORDER BY id`)
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (StoredExpense, error) {
	return queryOne(ctx, r.db,
		`SELECT id, type, COALESCE(remark, ''), amount, time FROM expenses WHERE id = ?`, id)
}

// queryRecords and queryOne are shared by the SQL backends.
func queryRecords(ctx context.Context, db *sql.DB, query string, args ...any) ([]core.ExpenseRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	records := []core.ExpenseRecord{}
	for rows.Next() {
		var rec core.ExpenseRecord
		if err := rows.Scan(&rec.Type, &rec.Remark, &rec.Amount, &rec.Time); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return records, nil
}

func queryOne(ctx context.Context, db *sql.DB, query string, id int64) (StoredExpense, error) {
	var e StoredExpense
	err := db.QueryRowContext(ctx, query, id).
		Scan(&e.ID, &e.Type, &e.Remark, &e.Amount, &e.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredExpense{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return StoredExpense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}
