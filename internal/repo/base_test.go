package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type lockedRow struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)
	assert.Same(t, db, base.db)
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx)
	require.NotNil(t, withCtx.Statement)
	assert.Equal(t, ctx, withCtx.Statement.Context)

	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, db, base.DB(nil))
}

func TestBindUsesTransaction(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&lockedRow{}))
	base := NewBase(db)

	assert.Equal(t, base, base.Bind(nil))

	err := db.Transaction(func(tx *gorm.DB) error {
		bound := base.Bind(tx)
		if err := bound.DB(context.Background()).Create(&lockedRow{Name: "a"}).Error; err != nil {
			return err
		}
		var row lockedRow
		return ForUpdate(bound.DB(context.Background())).First(&row).Error
	})
	require.NoError(t, err)
}
