// Package testdb opens isolated sqlite databases for repository and
// service tests.
package testdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/carni-kridi/attar-backend/pkg/config"
	"github.com/carni-kridi/attar-backend/pkg/db"
	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
)

// Open returns a migrated in-memory database private to t.
func Open(t testing.TB) *db.Client {
	t.Helper()

	client, err := db.New(context.Background(), config.DBConfig{
		Driver:    config.DriverSQLite,
		SQLiteDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(models.All()...))
	return client
}

// Store inserts an active store owned by ownerID.
func Store(t testing.TB, client *db.Client, ownerID uuid.UUID, name string) models.Store {
	t.Helper()
	store := models.Store{
		Name:    name,
		Address: "12 Rue de Marseille, Tunis",
		Phone:   "71123456",
		OwnerID: ownerID,
		Active:  true,
		Settings: models.StoreSettings{
			Currency:       enums.DefaultCurrency,
			Language:       enums.LanguageArabic,
			MaxCreditLimit: decimal.NewFromInt(1000),
		},
	}
	require.NoError(t, client.DB().Create(&store).Error)
	return store
}

// Client inserts an active client in storeID.
func Client(t testing.TB, client *db.Client, storeID uuid.UUID, name, phone string) models.Client {
	t.Helper()
	c := models.Client{
		StoreID:     storeID,
		Name:        name,
		Phone:       phone,
		CreditLimit: decimal.NewFromInt(500),
		Active:      true,
	}
	require.NoError(t, client.DB().Create(&c).Error)
	return c
}

// Entry inserts a ledger line with the given paid amount already applied.
func Entry(t testing.TB, client *db.Client, c models.Client, typ enums.EntryType, amount, paid int64, createdAt time.Time) models.KridiEntry {
	t.Helper()
	e := models.KridiEntry{
		ClientID:   c.ID,
		StoreID:    c.StoreID,
		Amount:     decimal.NewFromInt(amount),
		PaidAmount: decimal.NewFromInt(paid),
		Reason:     "groceries",
		Type:       typ,
		CreatedBy:  uuid.New(),
		CreatedAt:  createdAt.UTC(),
	}
	require.NoError(t, client.DB().Create(&e).Error)
	return e
}
