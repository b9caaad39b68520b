// Package store keeps nexusctl's local state in SQLite: user settings and
// the set of tracked wallet addresses. Conversations are never persisted
// here; those live in the remote archive.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Wallet chains supported by the backend's balance lookup.
const (
	ChainSol = "sol"
	ChainEth = "eth"
	ChainBtc = "btc"
)

// Wallet is one tracked wallet address.
type Wallet struct {
	ID      string
	Chain   string
	Address string
	Label   string
}

// Store wraps the local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the local database at path. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createSettingsTable := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT
	);`

	createWalletsTable := `
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		chain TEXT NOT NULL,
		address TEXT NOT NULL,
		label TEXT
	);`

	if _, err := db.Exec(createSettingsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}
	if _, err := db.Exec(createWalletsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create wallets table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Setting returns the value for key, or defaultValue when unset.
func (s *Store) Setting(key, defaultValue string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return defaultValue, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a key/value pair, replacing any existing value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// Wallets returns all tracked wallets.
func (s *Store) Wallets() ([]Wallet, error) {
	rows, err := s.db.Query("SELECT id, chain, address, label FROM wallets ORDER BY label")
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		var w Wallet
		if err := rows.Scan(&w.ID, &w.Chain, &w.Address, &w.Label); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// AddWallet tracks a new wallet address and returns its generated ID.
func (s *Store) AddWallet(chain, address, label string) (Wallet, error) {
	switch chain {
	case ChainSol, ChainEth, ChainBtc:
	default:
		return Wallet{}, fmt.Errorf("unsupported chain: %s", chain)
	}

	w := Wallet{
		ID:      uuid.NewString(),
		Chain:   chain,
		Address: address,
		Label:   label,
	}
	_, err := s.db.Exec(
		"INSERT INTO wallets (id, chain, address, label) VALUES (?, ?, ?, ?)",
		w.ID, w.Chain, w.Address, w.Label,
	)
	if err != nil {
		return Wallet{}, fmt.Errorf("failed to add wallet: %w", err)
	}
	return w, nil
}

// RemoveWallet stops tracking a wallet by ID.
func (s *Store) RemoveWallet(id string) error {
	result, err := s.db.Exec("DELETE FROM wallets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to remove wallet: %w", err)
	}
	n, err := result.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// SeedDefaultWallets inserts the default wallet set when no wallets are
// tracked yet. Safe to call on every startup.
func (s *Store) SeedDefaultWallets() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM wallets").Scan(&count); err != nil {
		return fmt.Errorf("failed to count wallets: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []Wallet{
		{Chain: ChainSol, Address: "FVWrHjTRovyU6D8Rfma7L6wEPnJvxGckrWhyZ6f13weR", Label: "Main SOL"},
		{Chain: ChainEth, Address: "0x172c623E3B340e32e3961497F3772Cb80AF40b34", Label: "Main ETH"},
		{Chain: ChainBtc, Address: "bc1qk78gvuaz4xjvf7qxhdk9rpq64967hdfy5a5jj5", Label: "Main BTC"},
	}
	for _, w := range defaults {
		if _, err := s.AddWallet(w.Chain, w.Address, w.Label); err != nil {
			return err
		}
	}
	return nil
}
