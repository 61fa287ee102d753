package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"presupuesto/internal/core"
	applog "presupuesto/internal/log"
	"presupuesto/internal/persistence"
	"presupuesto/internal/state"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists state snapshots in a SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ persistence.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements persistence.Loader. It returns nil when no snapshot exists.
func (r *SQLiteRepository) Load(ctx context.Context) (*state.State, error) {
	var (
		s        state.State
		editing  string
		category string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT budget_cents, editing_id, active_category FROM budget_state WHERE id = 1`,
	).Scan(&s.Budget.Cents, &editing, &category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read budget state: %w", err)
	}
	s.EditingID = editing
	s.ActiveCategory = core.CategoryID(category)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, expense_name, amount, category, entry_date, icon
		 FROM entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e core.Entry
		var typ, amount, cat, date string
		if err := rows.Scan(&e.ID, &typ, &e.ExpenseName, &amount, &cat, &date, &e.Icon); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Type = core.EntryType(typ)
		e.Category = core.CategoryID(cat)

		if cents, err := core.ParseDecimalToCents(amount); err == nil {
			e.Amount = core.Money{Cents: cents}
		} else {
			// Kept with a zero amount; the aggregator skips it.
			slog.WarnContext(ctx, "Stored entry has an unreadable amount",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldOperation, applog.OpParse,
				applog.FieldEntryID, e.ID,
				"amount", amount)
		}
		if d, err := core.ParseDate(date); err == nil {
			e.Date = d
		} else {
			slog.WarnContext(ctx, "Stored entry has an unreadable date",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldOperation, applog.OpParse,
				applog.FieldEntryID, e.ID,
				"date", date)
		}

		s.Expenses = append(s.Expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	if _, ok := s.Editing(); !ok {
		s.EditingID = ""
	}

	return &s, nil
}

// Save implements persistence.Saver by rewriting the snapshot in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, s state.State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO budget_state (id, budget_cents, editing_id, active_category, updated_at)
		 VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		   budget_cents = excluded.budget_cents,
		   editing_id = excluded.editing_id,
		   active_category = excluded.active_category,
		   updated_at = excluded.updated_at`,
		s.Budget.Cents, s.EditingID, string(s.ActiveCategory))
	if err != nil {
		return fmt.Errorf("write budget state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (id, position, type, expense_name, amount, category, entry_date, icon)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range s.Expenses {
		_, err := stmt.ExecContext(ctx,
			e.ID, i, string(e.Type), e.ExpenseName, e.Amount.String(),
			string(e.Category), e.Date.String(), e.Icon)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Budget state saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpSave,
		applog.FieldEntries, len(s.Expenses),
		applog.FieldBudgetCents, s.Budget.Cents)

	return nil
}
