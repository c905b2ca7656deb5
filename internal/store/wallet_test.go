package store_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

func TestWalletRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "marina")
	wallets := store.NewWalletStore(db)

	created, err := wallets.Create(ctx, model.Wallet{
		Name:        "Vacation",
		Balance:     decimal.RequireFromString("123.45"),
		Type:        model.WalletSavings,
		Icon:        "beach",
		Color:       "#00AACC",
		Description: "Summer trip",
		OwnerID:     owner.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := wallets.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Balance.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("balance = %s, want 123.45", got.Balance)
	}
	if got.Type != model.WalletSavings || got.Icon != "beach" || got.Color != "#00AACC" || got.Description != "Summer trip" {
		t.Errorf("fields did not survive: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestWalletGetMissing(t *testing.T) {
	db := openTestDB(t)

	w, err := store.NewWalletStore(db).GetByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if w != nil {
		t.Errorf("got %+v, want nil for missing wallet", w)
	}
}

func TestWalletUpdateLeavesBalance(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "marina")
	wallets := store.NewWalletStore(db)

	created, err := wallets.Create(ctx, model.Wallet{
		Name:    "Old name",
		Balance: decimal.NewFromInt(80),
		Type:    model.WalletPersonal,
		OwnerID: owner.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := wallets.Update(ctx, created.ID, "New name", model.WalletShared, "piggy", "#FF0000", "renamed")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New name" || updated.Type != model.WalletShared {
		t.Errorf("update not applied: %+v", updated)
	}
	if !updated.Balance.Equal(decimal.NewFromInt(80)) {
		t.Errorf("balance = %s, want untouched 80", updated.Balance)
	}
	if updated.OwnerID != owner.ID {
		t.Errorf("owner = %d, want untouched %d", updated.OwnerID, owner.ID)
	}
}

func TestWalletUpdateBalance(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := seedUser(t, db, "marina")
	wallets := store.NewWalletStore(db)
	w := seedWallet(t, db, owner.ID, "Main")

	if err := wallets.UpdateBalance(ctx, w.ID, decimal.RequireFromString("-12.50")); err != nil {
		t.Fatalf("update balance: %v", err)
	}
	got, err := wallets.GetByID(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Balance.Equal(decimal.RequireFromString("-12.50")) {
		t.Errorf("balance = %s, want -12.50", got.Balance)
	}
}

func TestWalletListByOwner(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	marina := seedUser(t, db, "marina")
	bob := seedUser(t, db, "bob")

	first := seedWallet(t, db, marina.ID, "First")
	second := seedWallet(t, db, marina.ID, "Second")
	seedWallet(t, db, bob.ID, "Other")

	wallets, err := store.NewWalletStore(db).ListByOwner(ctx, marina.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(wallets) != 2 {
		t.Fatalf("len = %d, want 2", len(wallets))
	}
	if wallets[0].ID != first.ID || wallets[1].ID != second.ID {
		t.Errorf("order = %d, %d; want creation order", wallets[0].ID, wallets[1].ID)
	}
}
