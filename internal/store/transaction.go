package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/noxius/grana/internal/model"
)

type TransactionStore struct {
	db DBTX
}

func NewTransactionStore(db DBTX) *TransactionStore {
	return &TransactionStore{db: db}
}

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction

	err := scanner.Scan(&t.ID, &t.Amount, &t.Description, &t.TransactionDate, &t.Type, &t.Category, &t.Notes, &t.WalletID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const transactionCols = `id, amount, description, transaction_date, type, category, notes, wallet_id`

// History is always newest first; same-date rows fall back to identifier order.
const transactionOrder = ` ORDER BY transaction_date DESC, id DESC`

func (s *TransactionStore) Create(ctx context.Context, t model.Transaction) (*model.Transaction, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (amount, description, transaction_date, type, category, notes, wallet_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Amount, t.Description, t.TransactionDate, t.Type, t.Category, t.Notes, t.WalletID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TransactionStore) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// Update rewrites every mutable field. The wallet_id column is deliberately
// not part of the SET list: a transaction never moves between wallets.
func (s *TransactionStore) Update(ctx context.Context, t model.Transaction) (*model.Transaction, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, description = ?, transaction_date = ?, type = ?, category = ?, notes = ? WHERE id = ?`,
		t.Amount, t.Description, t.TransactionDate, t.Type, t.Category, t.Notes, t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return s.GetByID(ctx, t.ID)
}

func (s *TransactionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *TransactionStore) CountByWallet(ctx context.Context, walletID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE wallet_id = ?`, walletID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *TransactionStore) ListByWallet(ctx context.Context, walletID int64) ([]model.Transaction, error) {
	return s.list(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE wallet_id = ?`+transactionOrder,
		walletID)
}

func (s *TransactionStore) ListByWalletAndCategory(ctx context.Context, walletID int64, category string) ([]model.Transaction, error) {
	return s.list(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE wallet_id = ? AND category = ?`+transactionOrder,
		walletID, category)
}

func (s *TransactionStore) ListByWalletAndType(ctx context.Context, walletID int64, txType model.TransactionType) ([]model.Transaction, error) {
	return s.list(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE wallet_id = ? AND type = ?`+transactionOrder,
		walletID, txType)
}

func (s *TransactionStore) ListByWalletAndDateRange(ctx context.Context, walletID int64, start, end time.Time) ([]model.Transaction, error) {
	return s.list(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE wallet_id = ? AND transaction_date BETWEEN ? AND ?`+transactionOrder,
		walletID, start, end)
}

func (s *TransactionStore) ListByWalletAndTypeAndDateRange(ctx context.Context, walletID int64, txType model.TransactionType, start, end time.Time) ([]model.Transaction, error) {
	return s.list(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE wallet_id = ? AND type = ? AND transaction_date BETWEEN ? AND ?`+transactionOrder,
		walletID, txType, start, end)
}

func (s *TransactionStore) list(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}
