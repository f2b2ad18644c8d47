package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before handing out the pool
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const ruleColumns = `id, name, amount_cents, type, category_id, frequency, schedule_day, last_applied_date`

func (r *SQLiteRepository) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

func (r *SQLiteRepository) GetRule(ctx context.Context, id string) (core.RecurringRule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringRule{}, fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
	}
	return rule, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRule decodes a row without validating it. A row with an unknown
// frequency yields a rule with a nil Schedule, which the automation engine
// treats as never due.
func scanRule(s rowScanner) (core.RecurringRule, error) {
	var (
		rule        core.RecurringRule
		amountCents int64
		typ, freq   string
		day         int
		category    sql.NullString
		lastApplied sql.NullString
	)
	if err := s.Scan(&rule.ID, &rule.Name, &amountCents, &typ, &category, &freq, &day, &lastApplied); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rule, err
		}
		return rule, fmt.Errorf("scan rule: %w", err)
	}
	rule.Amount = core.Money{Cents: amountCents}
	rule.Type = core.TransactionType(typ)
	rule.CategoryID = category.String
	if sched, err := core.ScheduleFor(core.Frequency(freq), day); err == nil {
		rule.Schedule = sched
	}
	if lastApplied.Valid && lastApplied.String != "" {
		d, err := core.ParseDate(lastApplied.String, time.UTC)
		if err != nil {
			return rule, fmt.Errorf("rule %s last_applied_date: %w", rule.ID, err)
		}
		rule.LastAppliedDate = d
	}
	return rule, nil
}

// SaveRule inserts or replaces a rule by ID, keeping its original position.
// A stored LastAppliedDate is never moved backwards.
func (r *SQLiteRepository) SaveRule(ctx context.Context, rule core.RecurringRule) error {
	var freq core.Frequency
	var day int
	if rule.Schedule != nil {
		freq, day = rule.Schedule.Frequency(), rule.Schedule.Day()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_rules (id, name, amount_cents, type, category_id, frequency, schedule_day, last_applied_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount_cents = excluded.amount_cents,
			type = excluded.type,
			category_id = excluded.category_id,
			frequency = excluded.frequency,
			schedule_day = excluded.schedule_day,
			last_applied_date = CASE
				WHEN recurring_rules.last_applied_date IS NULL
					OR recurring_rules.last_applied_date < excluded.last_applied_date
				THEN excluded.last_applied_date
				ELSE recurring_rules.last_applied_date
			END,
			updated_at = CURRENT_TIMESTAMP`,
		rule.ID, rule.Name, rule.Amount.Cents, string(rule.Type), nullString(rule.CategoryID),
		string(freq), day, nullString(rule.LastAppliedDate.String()))
	if err != nil {
		return fmt.Errorf("save rule: %w", err)
	}

	slog.DebugContext(ctx, "Recurring rule saved to SQLite",
		"id", rule.ID,
		"name", rule.Name,
		"frequency", freq)
	return nil
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return requireAffected(res, "rule", id)
}

func (r *SQLiteRepository) MarkApplied(ctx context.Context, id string, day core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_rules
		SET last_applied_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND (last_applied_date IS NULL OR last_applied_date < ?)`,
		day.String(), id, day.String())
	if err != nil {
		return fmt.Errorf("mark rule applied: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Nothing updated: either the rule is gone or it already has a later date
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM recurring_rules WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("rule %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check rule: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, date, description, amount_cents, type, category_id, recurring_rule_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.String(), t.Description, t.Amount.Cents, string(t.Type),
		nullString(t.CategoryID), nullString(t.RecurringRuleID))
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("transaction %s: %w", t.ID, ports.ErrDuplicate)
		}
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"description", t.Description,
		"amount_cents", t.Amount.Cents,
		"type", t.Type,
		"date", t.Date.String())
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res, "transaction", id)
}

const transactionColumns = `id, date, description, amount_cents, type, category_id, recurring_rule_id`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
	}
	return t, err
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1 = 1`
	var args []any
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, to.String())
	}
	query += ` ORDER BY date, rowid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                core.Transaction
		date, typ        string
		amountCents      int64
		category, ruleID sql.NullString
	)
	if err := s.Scan(&t.ID, &date, &t.Description, &amountCents, &typ, &category, &ruleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	d, err := core.ParseDate(date, time.UTC)
	if err != nil {
		return t, fmt.Errorf("transaction %s date: %w", t.ID, err)
	}
	t.Date = d
	t.Amount = core.Money{Cents: amountCents}
	t.Type = core.TransactionType(typ)
	t.CategoryID = category.String
	t.RecurringRuleID = ruleID.String
	return t, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, kind, budget_cents FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.Name, &kind, &c.Budget.Cents); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.TransactionType(kind)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) SaveCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, kind, budget_cents) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			budget_cents = excluded.budget_cents`,
		c.ID, c.Name, string(c.Kind), c.Budget.Cents)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("category %q: %w", c.Name, ports.ErrDuplicate)
		}
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(res, "category", id)
}

func (r *SQLiteRepository) GetState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get state %s: %w", key, err)
	}
	return value, true, nil
}

// CompareAndSwapState performs the swap as a single conditional statement so
// concurrent processes sharing the database cannot both win.
func (r *SQLiteRepository) CompareAndSwapState(ctx context.Context, key, prev, next string) (bool, error) {
	var (
		res sql.Result
		err error
	)
	switch {
	case prev == "" && next == "":
		_, ok, err := r.GetState(ctx, key)
		return !ok, err
	case prev == "":
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO app_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, key, next)
	case next == "":
		res, err = r.db.ExecContext(ctx,
			`DELETE FROM app_state WHERE key = ? AND value = ?`, key, prev)
	default:
		res, err = r.db.ExecContext(ctx,
			`UPDATE app_state SET value = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ? AND value = ?`, next, key, prev)
	}
	if err != nil {
		return false, fmt.Errorf("swap state %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap state %s: %w", key, err)
	}
	return n == 1, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ports.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
