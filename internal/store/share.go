package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/noxius/grana/internal/model"
)

type WalletShareStore struct {
	db DBTX
}

func NewWalletShareStore(db DBTX) *WalletShareStore {
	return &WalletShareStore{db: db}
}

func scanShare(scanner interface{ Scan(...any) error }) (*model.WalletShare, error) {
	var sh model.WalletShare

	err := scanner.Scan(&sh.ID, &sh.WalletID, &sh.UserID, &sh.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

const shareCols = `id, wallet_id, user_id, created_at`

func (s *WalletShareStore) Create(ctx context.Context, walletID, userID int64) (*model.WalletShare, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO wallet_shares (wallet_id, user_id) VALUES (?, ?)`,
		walletID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert wallet share: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+shareCols+` FROM wallet_shares WHERE id = ?`, id)
	sh, err := scanShare(row)
	if err != nil {
		return nil, fmt.Errorf("get wallet share: %w", err)
	}
	return sh, nil
}

// GetByWalletAndUser returns the share for a (wallet, grantee) pair, or nil.
func (s *WalletShareStore) GetByWalletAndUser(ctx context.Context, walletID, userID int64) (*model.WalletShare, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shareCols+` FROM wallet_shares WHERE wallet_id = ? AND user_id = ?`,
		walletID, userID,
	)
	sh, err := scanShare(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet share: %w", err)
	}
	return sh, nil
}

func (s *WalletShareStore) ListByUser(ctx context.Context, userID int64) ([]model.WalletShare, error) {
	return s.list(ctx, `SELECT `+shareCols+` FROM wallet_shares WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
}

func (s *WalletShareStore) ListByWallet(ctx context.Context, walletID int64) ([]model.WalletShare, error) {
	return s.list(ctx, `SELECT `+shareCols+` FROM wallet_shares WHERE wallet_id = ? ORDER BY created_at ASC, id ASC`, walletID)
}

func (s *WalletShareStore) list(ctx context.Context, query string, arg any) ([]model.WalletShare, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list wallet shares: %w", err)
	}
	defer rows.Close()

	var shares []model.WalletShare
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet share: %w", err)
		}
		shares = append(shares, *sh)
	}
	return shares, rows.Err()
}

func (s *WalletShareStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM wallet_shares WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete wallet share: %w", err)
	}
	return nil
}
