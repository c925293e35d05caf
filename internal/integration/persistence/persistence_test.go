package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	"github.com/finance-tracker/ledgersync/internal/infra/db"
	"github.com/finance-tracker/ledgersync/internal/integration/persistence/model"
)

func openTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(models...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func openLocalDB(t *testing.T) *gorm.DB {
	return openTestDB(t, model.LocalModels()...)
}

func openRemoteDB(t *testing.T) *gorm.DB {
	return openTestDB(t, model.RemoteModels()...)
}

// localFixture seeds one owner with accounts, categories and transactions.
type localFixture struct {
	seeder *LocalSeeder
	owner  *entity.User
}

func newLocalFixture(t *testing.T, gdb *gorm.DB) *localFixture {
	t.Helper()

	f := &localFixture{seeder: NewLocalSeeder(gdb)}
	f.owner = &entity.User{Email: "a@x.io", DisplayName: "Alice"}
	if err := f.seeder.CreateUser(context.Background(), f.owner); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return f
}

func (f *localFixture) account(t *testing.T, name string) *entity.Account {
	t.Helper()
	a := entity.NewAccount(f.owner.ID, name, entity.AccountTypeCash, "USD", decimal.RequireFromString("10.50"))
	if err := f.seeder.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return a
}

func (f *localFixture) category(t *testing.T, name string, parentID *int64) *entity.Category {
	t.Helper()
	c := entity.NewCategory(f.owner.ID, parentID, name, entity.CategoryTypeIncome)
	if err := f.seeder.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
	return c
}

func (f *localFixture) transaction(t *testing.T, clientUUID string, accountID, categoryID int64, date time.Time) *entity.Transaction {
	t.Helper()
	txn := entity.NewTransaction(f.owner.ID, accountID, categoryID, entity.TransactionTypeIncome, decimal.NewFromInt(500), date, nil)
	txn.ClientUUID = clientUUID
	if err := f.seeder.CreateTransaction(context.Background(), txn); err != nil {
		t.Fatalf("failed to seed transaction: %v", err)
	}
	return txn
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}
