package gorm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	gormstore "github.com/dietcompass/planner/internal/infrastructure/persistence/gorm"
	"github.com/dietcompass/planner/internal/infrastructure/persistence/sqlite"
	"github.com/dietcompass/planner/internal/ports/outbound"
	"github.com/dietcompass/planner/test/testutils"
)

func newSQLiteStore(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := sqlite.SetupDatabase(":memory:", logger.Silent)
	require.NoError(t, err)
	return gormstore.NewStore(db, zap.NewNop())
}

func TestStoreContract_SQLite(t *testing.T) {
	suite.Run(t, &testutils.KeyValueStoreSuite{
		NewStore: func() outbound.KeyValueStore { return newSQLiteStore(t) },
	})
}

func TestStore_KeysEscapesPattern(t *testing.T) {
	// Arrange
	store := newSQLiteStore(t)
	defer store.Close()
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, nil, func(tx outbound.KVTx) error {
		for _, k := range []string{"ns_1:a", "nsx1:b", "ns_1:c"} {
			if err := tx.Put(k, []byte(`{}`)); err != nil {
				return err
			}
		}
		return nil
	}))

	// Act
	keys, err := store.Keys(ctx, "ns_1:")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"ns_1:a", "ns_1:c"}, keys)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormstore.LogLevel("warn", true))
	assert.Equal(t, logger.Silent, gormstore.LogLevel("silent", false))
	assert.Equal(t, logger.Error, gormstore.LogLevel("error", false))
	assert.Equal(t, logger.Warn, gormstore.LogLevel("", false))
}
