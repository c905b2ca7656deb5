package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noxius/grana/internal/model"
)

type WalletStore struct {
	db DBTX
}

func NewWalletStore(db DBTX) *WalletStore {
	return &WalletStore{db: db}
}

func scanWallet(scanner interface{ Scan(...any) error }) (*model.Wallet, error) {
	var w model.Wallet

	err := scanner.Scan(&w.ID, &w.Name, &w.Balance, &w.Type, &w.Icon, &w.Color, &w.Description, &w.OwnerID, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

const walletCols = `id, name, balance, type, icon, color, description, owner_id, created_at`

func (s *WalletStore) Create(ctx context.Context, w model.Wallet) (*model.Wallet, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO wallets (name, balance, type, icon, color, description, owner_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.Name, w.Balance, w.Type, w.Icon, w.Color, w.Description, w.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert wallet: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *WalletStore) GetByID(ctx context.Context, id int64) (*model.Wallet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+walletCols+` FROM wallets WHERE id = ?`, id)
	w, err := scanWallet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func (s *WalletStore) ListByOwner(ctx context.Context, ownerID int64) ([]model.Wallet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+walletCols+` FROM wallets WHERE owner_id = ? ORDER BY created_at ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list wallets by owner: %w", err)
	}
	defer rows.Close()

	var wallets []model.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, *w)
	}
	return wallets, rows.Err()
}

// Update changes the descriptive fields only. Balance and owner are never
// touched here: balance belongs to the ledger engine, the owner is fixed.
func (s *WalletStore) Update(ctx context.Context, id int64, name string, walletType model.WalletType, icon, color, description string) (*model.Wallet, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE wallets SET name = ?, type = ?, icon = ?, color = ?, description = ? WHERE id = ?`,
		name, walletType, icon, color, description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update wallet: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *WalletStore) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `UPDATE wallets SET balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	return nil
}

func (s *WalletStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM wallets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}
