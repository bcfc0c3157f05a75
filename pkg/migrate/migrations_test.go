package migrate_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/carni-kridi/attar-backend/pkg/config"
	"github.com/carni-kridi/attar-backend/pkg/db"
	"github.com/carni-kridi/attar-backend/pkg/logger"
	"github.com/carni-kridi/attar-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestLedgerMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_kridi_entries.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS kridi_entries",
		"FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE CASCADE",
		"CHECK (amount > 0)",
		"CHECK (paid_amount >= 0 AND paid_amount <= amount)",
		"CHECK (type IN ('debt', 'payment'))",
		"idx_kridi_entries_client_created",
		"DROP TABLE IF EXISTS kridi_entries",
	} {
		require.Containsf(t, content, sub, "missing expected statement %q", sub)
	}
}

func TestClientPhoneUniquePerStore(t *testing.T) {
	data, err := migrate.Embedded.ReadFile("migrations/20260301090100_create_clients.sql")
	require.NoError(t, err)
	require.Contains(t, string(data), "CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_phone_store ON clients (phone, store_id)")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Client Tags!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_client_tags.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "  !!  ")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestAutoRunMigratesSQLite(t *testing.T) {
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		Driver:    config.DriverSQLite,
		SQLiteDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		App:          config.AppConfig{Env: "test"},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	logg := logger.New(logger.Options{ServiceName: "migrate-test", Output: &strings.Builder{}})
	require.NoError(t, migrate.AutoRun(ctx, cfg, logg, client))

	for _, table := range []string{"users", "stores", "clients", "kridi_entries"} {
		require.Truef(t, client.DB().Migrator().HasTable(table), "table %s missing", table)
	}
}

func TestAutoRunDisabled(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	require.NoError(t, migrate.AutoRun(context.Background(), cfg, nil, nil))
}

func TestValidateDirRejectsUnbalancedStatements(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_broken.sql"), []byte(body), 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "StatementBegin")
}
