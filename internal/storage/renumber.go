package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"homemoney/internal/log"
)

// RenumberResult describes a completed renumbering.
type RenumberResult struct {
	Backup string
	Count  int
}

var renumberStatements = []string{
	`CREATE TABLE expenses_renumbered (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		remark TEXT,
		amount REAL NOT NULL,
		time TEXT NOT NULL
	)`,
	`INSERT INTO expenses_renumbered (type, remark, amount, time)
		SELECT type, remark, amount, time FROM expenses ORDER BY time ASC, id ASC`,
	`DROP TABLE expenses`,
	`ALTER TABLE expenses_renumbered RENAME TO expenses`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_time ON expenses(time)`,
	`DELETE FROM sqlite_sequence WHERE name = 'expenses'`,
}

// Renumber rewrites ids so they follow chronological order. The database is
// first copied next to itself as expenses_backup_<unix millis>.db; the rewrite
// runs in one transaction.
func (r *SQLiteRepository) Renumber(ctx context.Context, now time.Time) (RenumberResult, error) {
	backup := filepath.Join(filepath.Dir(r.path),
		fmt.Sprintf("expenses_backup_%d.db", now.UnixMilli()))
	if _, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, backup); err != nil {
		return RenumberResult{}, fmt.Errorf("backup database: %w", err)
	}
	r.logger.InfoContext(ctx, "Database backed up", "backup", backup)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return RenumberResult{}, fmt.Errorf("begin renumber: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&count); err != nil {
		return RenumberResult{}, fmt.Errorf("count expenses: %w", err)
	}

	for _, stmt := range renumberStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return RenumberResult{}, fmt.Errorf("renumber %q: %w", firstLine(stmt), err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sqlite_sequence (name, seq) VALUES ('expenses', ?)`, count); err != nil {
		return RenumberResult{}, fmt.Errorf("reset sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return RenumberResult{}, fmt.Errorf("commit renumber: %w", err)
	}

	r.logger.InfoContext(ctx, "Expenses renumbered by time",
		log.FieldCount, count, "backup", backup)
	return RenumberResult{Backup: backup, Count: count}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
