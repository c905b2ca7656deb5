package store_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/noxius/grana/internal/database"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, username string) *model.User {
	t.Helper()
	u, err := store.NewUserStore(db).Create(context.Background(), username, username, "")
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedWallet(t *testing.T, db *sql.DB, ownerID int64, name string) *model.Wallet {
	t.Helper()
	w, err := store.NewWalletStore(db).Create(context.Background(), model.Wallet{
		Name:    name,
		Type:    model.WalletPersonal,
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("seed wallet %s: %v", name, err)
	}
	return w
}
