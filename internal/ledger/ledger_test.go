package ledger

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noxius/grana/internal/apperr"
	"github.com/noxius/grana/internal/database"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

type fixture struct {
	db       *sql.DB
	engine   *Engine
	owner    *model.User
	grantee  *model.User
	stranger *model.User
	wallet   *model.Wallet
}

func setupLedgerTest(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := store.NewUserStore(db)
	wallets := store.NewWalletStore(db)
	shares := store.NewWalletShareStore(db)

	owner, err := users.Create(ctx, "marina", "Marina", "")
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	grantee, err := users.Create(ctx, "alice", "Alice", "")
	if err != nil {
		t.Fatalf("create grantee: %v", err)
	}
	stranger, err := users.Create(ctx, "bob", "Bob", "")
	if err != nil {
		t.Fatalf("create stranger: %v", err)
	}

	wallet, err := wallets.Create(ctx, model.Wallet{
		Name:    "Household",
		Balance: decimal.NewFromInt(50),
		Type:    model.WalletShared,
		OwnerID: owner.ID,
	})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	if _, err := shares.Create(ctx, wallet.ID, grantee.ID); err != nil {
		t.Fatalf("create share: %v", err)
	}

	return &fixture{
		db:       db,
		engine:   NewEngine(db, slog.Default()),
		owner:    owner,
		grantee:  grantee,
		stranger: stranger,
		wallet:   wallet,
	}
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	w, err := store.NewWalletStore(f.db).GetByID(context.Background(), f.wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return w.Balance
}

// checkInvariant verifies that the stored balance equals the initial
// balance plus the sum of signed effects of all remaining transactions.
func (f *fixture) checkInvariant(t *testing.T, initial decimal.Decimal) {
	t.Helper()
	transactions, err := store.NewTransactionStore(f.db).ListByWallet(context.Background(), f.wallet.ID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	sum := initial
	for _, tr := range transactions {
		sum = sum.Add(tr.SignedEffect())
	}
	if got := f.balance(t); !got.Equal(sum) {
		t.Errorf("balance = %s, want %s (sum of signed effects)", got, sum)
	}
}

func TestCreateIncomeAndExpense(t *testing.T) {
	f := setupLedgerTest(t)
	ctx := context.Background()

	created, err := f.engine.Create(ctx, f.owner, model.Transaction{
		Amount:      decimal.NewFromInt(100),
		Description: "Salary",
		Type:        model.Income,
		WalletID:    f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected assigned id")
	}
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("balance after income = %s, want 150", got)
	}

	_, err = f.engine.Create(ctx, f.owner, model.Transaction{
		Amount:      decimal.NewFromInt(40),
		Description: "Groceries",
		Type:        model.Expense,
		WalletID:    f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(110)) {
		t.Errorf("balance after expense = %s, want 110", got)
	}

	f.checkInvariant(t, decimal.NewFromInt(50))
}

func TestCreateDefaultsTransactionDate(t *testing.T) {
	f := setupLedgerTest(t)

	before := time.Now().Add(-time.Minute)
	created, err := f.engine.Create(context.Background(), f.owner, model.Transaction{
		Amount:      decimal.NewFromInt(10),
		Description: "Allowance",
		Type:        model.Income,
		WalletID:    f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.TransactionDate.Before(before) {
		t.Errorf("transaction date %v not defaulted to now", created.TransactionDate)
	}
}

func TestCreateRejectsPresetID(t *testing.T) {
	f := setupLedgerTest(t)

	_, err := f.engine.Create(context.Background(), f.owner, model.Transaction{
		ID:          42,
		Amount:      decimal.NewFromInt(10),
		Description: "Preset",
		Type:        model.Income,
		WalletID:    f.wallet.ID,
	})
	if !errors.Is(err, apperr.ErrIDAlreadyExists) {
		t.Errorf("err = %v, want ErrIDAlreadyExists", err)
	}
}

func TestCreateUnknownWallet(t *testing.T) {
	f := setupLedgerTest(t)

	_, err := f.engine.Create(context.Background(), f.owner, model.Transaction{
		Amount:      decimal.NewFromInt(10),
		Description: "Nowhere",
		Type:        model.Income,
		WalletID:    999,
	})
	if !errors.Is(err, apperr.ErrWalletNotFound) {
		t.Errorf("err = %v, want ErrWalletNotFound", err)
	}
}

func TestCreateForbiddenForStranger(t *testing.T) {
	f := setupLedgerTest(t)

	_, err := f.engine.Create(context.Background(), f.stranger, model.Transaction{
		Amount:      decimal.NewFromInt(10),
		Description: "Sneaky",
		Type:        model.Income,
		WalletID:    f.wallet.ID,
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("balance = %s, want untouched 50", got)
	}
}

func TestGranteeCanWrite(t *testing.T) {
	f := setupLedgerTest(t)

	_, err := f.engine.Create(context.Background(), f.grantee, model.Transaction{
		Amount:      decimal.NewFromInt(25),
		Description: "Shared expense",
		Type:        model.Expense,
		WalletID:    f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("grantee create: %v", err)
	}
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("balance = %s, want 25", got)
	}
}

func TestUpdateReappliesSignedEffect(t *testing.T) {
	f := setupLedgerTest(t)
	ctx := context.Background()

	created, err := f.engine.Create(ctx, f.owner, model.Transaction{
		Amount:      decimal.NewFromInt(100),
		Description: "Bonus",
		Type:        model.Income,
		WalletID:    f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// 50 + 100 = 150

	updated, err := f.engine.Update(ctx, f.owner, model.Transaction{
		ID:          created.ID,
		Amount:      decimal.NewFromInt(30),
		Description: "Correction",
		Type:        model.Expense,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	// 150 - 100 - 30 = 20
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("balance after update = %s, want 20", got)
	}
	if updated.Type != model.Expense {
		t.Errorf("type = %s, want EXPENSE", updated.Type)
	}
	if updated.WalletID != f.wallet.ID {
		t.Errorf("wallet id = %d, want %d (immutable)", updated.WalletID, f.wallet.ID)
	}

	f.checkInvariant(t, decimal.NewFromInt(50))
}

func TestUpdateIgnoresCallerWallet(t *testing.T) {
	f := setupLedgerTest(t)
	ctx := context.Background()

	wallets := store.NewWalletStore(f.db)
	other, err := wallets.Create(ctx, model.Wallet{
		Name:    "Other",
		Balance: decimal.Zero,
		Type:    model.WalletPersonal,
		OwnerID: f.owner.ID,
	})
	if err != nil {
		t.Fatalf("create other wallet: %v", err)
	}

	created, err := f.engine.Create(ctx, f.owner, model.Transaction{
		Amount:      decimal.NewFromInt(10),
		Description: "Movable?",
		Type:        model.Income,
		WalletID:    f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.engine.Update(ctx, f.owner, model.Transaction{
		ID:          created.ID,
		Amount:      decimal.NewFromInt(10),
		Description: "Movable?",
		Type:        model.Income,
		WalletID:    other.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.WalletID != f.wallet.ID {
		t.Errorf("wallet id = %d, want original %d", updated.WalletID, f.wallet.ID)
	}

	otherAfter, err := wallets.GetByID(ctx, other.ID)
	if err != nil {
		t.Fatalf("get other wallet: %v", err)
	}
	if !otherAfter.Balance.Equal(decimal.Zero) {
		t.Errorf("other wallet balance = %s, want 0", otherAfter.Balance)
	}
}

func TestUpdateNotFound(t *testing.T) {
	f := setupLedgerTest(t)

	_, err := f.engine.Update(context.Background(), f.owner, model.Transaction{
		ID:          999,
		Amount:      decimal.NewFromInt(10),
		Description: "Ghost",
		Type:        model.Income,
	})
	if !errors.Is(err, apperr.ErrTransactionNotFound) {
		t.Errorf("err = %v, want ErrTransactionNotFound", err)
	}
}

func TestDeleteReversesEffect(t *testing.T) {
	f := setupLedgerTest(t)
	ctx := context.Background()

	income, err := f.engine.Create(ctx, f.owner, model.Transaction{
		Amount:      decimal.NewFromInt(100),
		Description: "Salary",
		Type:        model.Income,
		WalletID:    f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	expense, err := f.engine.Create(ctx, f.owner, model.Transaction{
		Amount:      decimal.NewFromInt(40),
		Description: "Groceries",
		Type:        model.Expense,
		WalletID:    f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	// 50 + 100 - 40 = 110

	if err := f.engine.Delete(ctx, f.owner, expense.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("balance after delete = %s, want 150", got)
	}

	if _, err := f.engine.Get(ctx, f.owner, expense.ID); !errors.Is(err, apperr.ErrTransactionNotFound) {
		t.Errorf("deleted transaction still fetchable: %v", err)
	}

	if err := f.engine.Delete(ctx, f.owner, income.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("balance after deleting all = %s, want 50", got)
	}

	f.checkInvariant(t, decimal.NewFromInt(50))
}

func TestDeleteForbiddenForStranger(t *testing.T) {
	f := setupLedgerTest(t)
	ctx := context.Background()

	created, err := f.engine.Create(ctx, f.owner, model.Transaction{
		Amount:      decimal.NewFromInt(10),
		Description: "Protected",
		Type:        model.Income,
		WalletID:    f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.engine.Delete(ctx, f.stranger, created.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestRoundTrip(t *testing.T) {
	f := setupLedgerTest(t)
	ctx := context.Background()

	date := time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC)
	created, err := f.engine.Create(ctx, f.owner, model.Transaction{
		Amount:          decimal.RequireFromString("12.34"),
		Description:     "Book",
		TransactionDate: date,
		Type:            model.Expense,
		Category:        "leisure",
		Notes:           "paperback",
		WalletID:        f.wallet.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.engine.Get(ctx, f.owner, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("amount = %s, want 12.34", got.Amount)
	}
	if got.Description != "Book" || got.Category != "leisure" || got.Notes != "paperback" {
		t.Errorf("fields did not round-trip: %+v", got)
	}
	if got.Type != model.Expense {
		t.Errorf("type = %s, want EXPENSE", got.Type)
	}
	if !got.TransactionDate.Equal(date) {
		t.Errorf("date = %v, want %v", got.TransactionDate, date)
	}
}

func seedHistory(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	day := func(d int) time.Time {
		return time.Date(2025, 6, d, 12, 0, 0, 0, time.UTC)
	}

	entries := []model.Transaction{
		{Amount: decimal.NewFromInt(100), Description: "Salary", TransactionDate: day(1), Type: model.Income, Category: "work", WalletID: f.wallet.ID},
		{Amount: decimal.NewFromInt(20), Description: "Cinema", TransactionDate: day(2), Type: model.Expense, Category: "leisure", WalletID: f.wallet.ID},
		{Amount: decimal.NewFromInt(30), Description: "Groceries", TransactionDate: day(3), Type: model.Expense, Category: "food", WalletID: f.wallet.ID},
		{Amount: decimal.NewFromInt(50), Description: "Gift", TransactionDate: day(4), Type: model.Income, Category: "leisure", WalletID: f.wallet.ID},
	}
	for _, e := range entries {
		if _, err := f.engine.Create(ctx, f.owner, e); err != nil {
			t.Fatalf("seed %q: %v", e.Description, err)
		}
	}
}

func TestListOrdering(t *testing.T) {
	f := setupLedgerTest(t)
	seedHistory(t, f)

	all, err := f.engine.List(context.Background(), f.owner, f.wallet.ID, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len = %d, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].TransactionDate.After(all[i-1].TransactionDate) {
			t.Errorf("list not ordered newest first at index %d", i)
		}
	}
	if all[0].Description != "Gift" {
		t.Errorf("first = %q, want Gift", all[0].Description)
	}
}

func TestListCategoryWinsOverTypeAndRange(t *testing.T) {
	f := setupLedgerTest(t)
	seedHistory(t, f)

	got, err := f.engine.List(context.Background(), f.owner, f.wallet.ID, Filter{
		Category: "leisure",
		Type:     model.Income,
		Start:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Category filter alone applies: both leisure entries, not the
	// type/date-filtered set.
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, tr := range got {
		if tr.Category != "leisure" {
			t.Errorf("category = %q, want leisure", tr.Category)
		}
	}
}

func TestListTypeAndRange(t *testing.T) {
	f := setupLedgerTest(t)
	seedHistory(t, f)

	got, err := f.engine.List(context.Background(), f.owner, f.wallet.ID, Filter{
		Type:  model.Expense,
		Start: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 3, 23, 59, 59, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (Cinema, Groceries)", len(got))
	}
	if got[0].Description != "Groceries" || got[1].Description != "Cinema" {
		t.Errorf("got %q, %q; want Groceries, Cinema", got[0].Description, got[1].Description)
	}
}

func TestListTypeOnly(t *testing.T) {
	f := setupLedgerTest(t)
	seedHistory(t, f)

	got, err := f.engine.List(context.Background(), f.owner, f.wallet.ID, Filter{Type: model.Income})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, tr := range got {
		if tr.Type != model.Income {
			t.Errorf("type = %s, want INCOME", tr.Type)
		}
	}
}

func TestListForbiddenForStranger(t *testing.T) {
	f := setupLedgerTest(t)

	_, err := f.engine.List(context.Background(), f.stranger, f.wallet.ID, Filter{})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}
