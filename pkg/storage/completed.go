package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"flipswap/pkg/order"
)

// CompletedStore persists completed transactions in SQLite, at most
// one row per order id.
type CompletedStore struct {
	db *sql.DB
}

// NewCompletedStore opens (or creates) the store at dbPath.
func NewCompletedStore(dbPath string) (*CompletedStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS completed_transactions (
			order_id   TEXT PRIMARY KEY,
			payload    BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create completed_transactions table: %w", err)
	}

	return &CompletedStore{db: db}, nil
}

// Put upserts the completed record for tx.OrderID. Repeating the call
// for the same order id leaves a single row.
func (s *CompletedStore) Put(ctx context.Context, tx *order.CompletedTransaction) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO completed_transactions (order_id, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(order_id) DO UPDATE SET payload=excluded.payload`,
		tx.OrderID, payload, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

// Get returns the completed record for orderID, or nil when none
// exists.
func (s *CompletedStore) Get(ctx context.Context, orderID string) (*order.CompletedTransaction, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM completed_transactions WHERE order_id = ?", orderID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}

	var tx order.CompletedTransaction
	if err := json.Unmarshal(payload, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &tx, nil
}

// List returns all completed records, newest first.
func (s *CompletedStore) List(ctx context.Context) ([]*order.CompletedTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM completed_transactions ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*order.CompletedTransaction
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		var tx order.CompletedTransaction
		if err := json.Unmarshal(payload, &tx); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
		}
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return txs, nil
}

// Close closes the database connection.
func (s *CompletedStore) Close() error {
	return s.db.Close()
}
