package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/belldesk-backend/pkg/config"
	"github.com/angelmondragon/belldesk-backend/pkg/db"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
)

func TestMaybeRunDevSQLiteCreatesTables(t *testing.T) {
	cfg := &config.Config{
		App:          config.AppConfig{Env: "dev"},
		DB:           config.DBConfig{SQLitePath: "file::memory:"},
		FeatureFlags: config.FeatureFlagsConfig{UseSQLite: true},
	}
	client, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), client))

	for _, table := range []string{"luggage_tasks", "luggage_archive", "deposits", "deposit_archive", "staff_users", "outbox_events", "outbox_dlq"} {
		assert.True(t, client.DB().Migrator().HasTable(table), table)
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), nil))
}
