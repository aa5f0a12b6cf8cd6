package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"tokendesk/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the application state relationally. Save replaces
// the stored state wholesale inside one transaction, which keeps the
// last-write-wins blob semantics of the file store.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
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

	return &SQLiteStore{db: db}, nil
}

func (r *SQLiteStore) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteStore) Save(ctx context.Context, st core.AppState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"tokens", "locations", "meal_types", "meal_prices", "free_reasons"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, t := range st.Tokens {
		var amount, status, method, paidAt any
		if t.Payment != nil {
			amount = t.Payment.Amount.Paise
			status = string(t.Payment.Status)
			method = string(t.Payment.Method)
			if t.Payment.PaidAt != nil {
				paidAt = t.Payment.PaidAt.Format(time.RFC3339Nano)
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tokens (id, receiver_name, department, location, meal_type,
				payment_type, reason, issued_by, issued_at,
				paid_amount_paise, payment_status, payment_method, payment_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.ReceiverName, t.Department, t.Location, t.MealType,
			string(t.PaymentType), t.Reason, t.IssuedBy, t.IssuedAt.Format(time.RFC3339Nano),
			amount, status, method, paidAt)
		if err != nil {
			return fmt.Errorf("insert token %s: %w", t.ID, err)
		}
	}

	for _, name := range st.Locations {
		if _, err := tx.ExecContext(ctx, "INSERT INTO locations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("insert location %q: %w", name, err)
		}
	}
	for _, name := range st.MealTypes {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meal_types (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("insert meal type %q: %w", name, err)
		}
	}
	for name, price := range st.MealPrices {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meal_prices (name, price_paise) VALUES (?, ?)", name, price.Paise); err != nil {
			return fmt.Errorf("insert meal price %q: %w", name, err)
		}
	}
	for _, name := range st.CommonFreeReasons {
		if _, err := tx.ExecContext(ctx, "INSERT INTO free_reasons (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("insert free reason %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save transaction: %w", err)
	}

	slog.DebugContext(ctx, "State saved to SQLite", "tokens", len(st.Tokens))
	return nil
}

func (r *SQLiteStore) Load(ctx context.Context) (core.AppState, error) {
	st := core.AppState{MealPrices: map[string]core.Money{}}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, receiver_name, department, location, meal_type,
			payment_type, reason, issued_by, issued_at,
			paid_amount_paise, payment_status, payment_method, payment_date
		FROM tokens ORDER BY issued_at`)
	if err != nil {
		return core.AppState{}, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t core.Token
		var paymentType, issuedAt string
		var amount sql.NullInt64
		var status, method, paidAt sql.NullString
		if err := rows.Scan(&t.ID, &t.ReceiverName, &t.Department, &t.Location, &t.MealType,
			&paymentType, &t.Reason, &t.IssuedBy, &issuedAt,
			&amount, &status, &method, &paidAt); err != nil {
			return core.AppState{}, fmt.Errorf("scan token: %w", err)
		}
		t.PaymentType = core.PaymentType(paymentType)
		t.IssuedAt, err = time.Parse(time.RFC3339Nano, issuedAt)
		if err != nil {
			return core.AppState{}, fmt.Errorf("parse issued_at for %s: %w", t.ID, err)
		}
		if t.PaymentType == core.Paid && amount.Valid {
			p := &core.Payment{
				Amount: core.Money{Paise: amount.Int64},
				Status: core.PaymentStatus(status.String),
				Method: core.PaymentMethod(method.String),
			}
			if paidAt.Valid && paidAt.String != "" {
				ts, err := time.Parse(time.RFC3339Nano, paidAt.String)
				if err != nil {
					return core.AppState{}, fmt.Errorf("parse payment_date for %s: %w", t.ID, err)
				}
				p.PaidAt = &ts
			}
			t.Payment = p
		}
		st.Tokens = append(st.Tokens, t)
	}
	if err := rows.Err(); err != nil {
		return core.AppState{}, fmt.Errorf("iterate tokens: %w", err)
	}

	if st.Locations, err = r.names(ctx, "SELECT name FROM locations ORDER BY position"); err != nil {
		return core.AppState{}, err
	}
	if st.MealTypes, err = r.names(ctx, "SELECT name FROM meal_types"); err != nil {
		return core.AppState{}, err
	}
	sort.Strings(st.MealTypes)
	if st.CommonFreeReasons, err = r.names(ctx, "SELECT name FROM free_reasons"); err != nil {
		return core.AppState{}, err
	}
	sort.Strings(st.CommonFreeReasons)

	prices, err := r.db.QueryContext(ctx, "SELECT name, price_paise FROM meal_prices")
	if err != nil {
		return core.AppState{}, fmt.Errorf("query meal prices: %w", err)
	}
	defer prices.Close()
	for prices.Next() {
		var name string
		var paise int64
		if err := prices.Scan(&name, &paise); err != nil {
			return core.AppState{}, fmt.Errorf("scan meal price: %w", err)
		}
		st.MealPrices[name] = core.Money{Paise: paise}
	}
	if err := prices.Err(); err != nil {
		return core.AppState{}, fmt.Errorf("iterate meal prices: %w", err)
	}

	return st.WithDefaults(), nil
}

func (r *SQLiteStore) names(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
