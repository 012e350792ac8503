// Package portfolio loads the set of symbols a gateway run should
// subscribe to from a SQLite catalog, replacing what the original
// system selected at compile time via preprocessor defines.
package portfolio

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrPortfolioNotFound is returned by Load when no symbols are on file
// for the requested portfolio.
var ErrPortfolioNotFound = errors.New("portfolio: no symbols found for portfolio")

// Open opens (creating if necessary) the SQLite catalog at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("portfolio: open %s: %w", path, err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS portfolio_symbols (
			portfolio TEXT NOT NULL,
			seq       INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			PRIMARY KEY (portfolio, seq)
		)`)
	if err != nil {
		return fmt.Errorf("portfolio: create schema: %w", err)
	}
	return nil
}

// Seed populates the catalog with the built-in portfolios
// (bitmex-3, kraken-3, kraken-50, kraken-92, kraken-122) if they aren't
// already present. It is idempotent and safe to call on every startup.
func Seed(db *sql.DB) error {
	for name, symbols := range builtinPortfolios {
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM portfolio_symbols WHERE portfolio = ?`, name).Scan(&count); err != nil {
			return fmt.Errorf("portfolio: count %s: %w", name, err)
		}
		if count > 0 {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("portfolio: begin seed tx for %s: %w", name, err)
		}
		stmt, err := tx.Prepare(`INSERT INTO portfolio_symbols (portfolio, seq, symbol) VALUES (?, ?, ?)`)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("portfolio: prepare insert for %s: %w", name, err)
		}
		for i, sym := range symbols {
			if _, err := stmt.Exec(name, i, sym); err != nil {
				stmt.Close()
				tx.Rollback()
				return fmt.Errorf("portfolio: insert %s[%d]: %w", name, i, err)
			}
		}
		stmt.Close()
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("portfolio: commit seed tx for %s: %w", name, err)
		}
	}
	return nil
}

// Load retrieves the symbol list for a named portfolio, in subscription
// order, pre-allocating the result slice to the exact row count.
func Load(db *sql.DB, name string) ([]string, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM portfolio_symbols WHERE portfolio = ?`, name).Scan(&count); err != nil {
		return nil, fmt.Errorf("portfolio: count %s: %w", name, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPortfolioNotFound, name)
	}

	symbols := make([]string, 0, count)
	rows, err := db.Query(`SELECT symbol FROM portfolio_symbols WHERE portfolio = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("portfolio: query %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("portfolio: scan %s row: %w", name, err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("portfolio: iterate %s: %w", name, err)
	}
	return symbols, nil
}
