package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"quiver/internal/domain"
)

// Run is one journaled simulation run with its summary metrics.
type Run struct {
	ID          int64
	CreatedAt   time.Time
	Ticker      string
	Strategy    string
	InitialCash float64
	FinalEquity float64
	CAGR        float64
	Sharpe      float64
	MaxDrawdown float64
}

// Journal records completed simulation runs and their transaction logs in
// a SQLite database.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite database at dbPath and ensures
// the journal schema exists.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at   TEXT NOT NULL,
			ticker       TEXT NOT NULL,
			strategy     TEXT NOT NULL,
			initial_cash REAL NOT NULL,
			final_equity REAL NOT NULL,
			cagr         REAL NOT NULL,
			sharpe       REAL NOT NULL,
			max_drawdown REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS transactions (
			run_id    INTEGER NOT NULL REFERENCES runs(id),
			seq       INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			action    TEXT NOT NULL,
			price     REAL NOT NULL,
			units     REAL NOT NULL,
			cash      REAL NOT NULL,
			equity    REAL NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
	`)
	return err
}

// SaveRun inserts a run record and returns its assigned ID.
func (j *Journal) SaveRun(ctx context.Context, run Run) (int64, error) {
	res, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (created_at, ticker, strategy, initial_cash, final_equity, cagr, sharpe, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Ticker, run.Strategy, run.InitialCash, run.FinalEquity,
		run.CAGR, run.Sharpe, run.MaxDrawdown,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// SaveTransactions appends the transaction log of a run. seq preserves the
// in-run ordering.
func (j *Journal) SaveTransactions(ctx context.Context, runID int64, txns []domain.Transaction) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (run_id, seq, timestamp, action, price, units, cash, equity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range txns {
		if _, err := stmt.ExecContext(ctx, runID, i,
			t.Timestamp.UTC().Format(time.RFC3339Nano),
			string(t.Action), t.Price, t.Units, t.Cash, t.Equity,
		); err != nil {
			return fmt.Errorf("inserting transaction %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListTransactions returns the transaction log of a run in its original
// order.
func (j *Journal) ListTransactions(ctx context.Context, runID int64) ([]domain.Transaction, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT timestamp, action, price, units, cash, equity
		FROM transactions WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var (
			ts     string
			action string
			t      domain.Transaction
		)
		if err := rows.Scan(&ts, &action, &t.Price, &t.Units, &t.Cash, &t.Equity); err != nil {
			return nil, err
		}
		t.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing transaction timestamp %q: %w", ts, err)
		}
		t.Action = domain.Action(action)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, created_at, ticker, strategy, initial_cash, final_equity, cagr, sharpe, max_drawdown
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r  Run
			ts string
		)
		if err := rows.Scan(&r.ID, &ts, &r.Ticker, &r.Strategy, &r.InitialCash,
			&r.FinalEquity, &r.CAGR, &r.Sharpe, &r.MaxDrawdown); err != nil {
			return nil, err
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp %q: %w", ts, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
