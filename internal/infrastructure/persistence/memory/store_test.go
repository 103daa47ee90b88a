package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dietcompass/planner/internal/ports/outbound"
	"github.com/dietcompass/planner/test/testutils"
)

func TestStoreContract(t *testing.T) {
	suite.Run(t, &testutils.KeyValueStoreSuite{
		NewStore: func() outbound.KeyValueStore { return NewStore() },
	})
}

func TestStore_ValuesAreCopied(t *testing.T) {
	// Arrange
	store := NewStore()
	ctx := context.Background()
	value := []byte(`{"a":1}`)
	require.NoError(t, store.Update(ctx, []string{"k"}, func(tx outbound.KVTx) error {
		return tx.Put("k", value)
	}))

	// Act
	value[2] = 'b'
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	got[2] = 'c'

	// Assert
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(again))
}

func TestStore_CanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Update(ctx, nil, func(tx outbound.KVTx) error {
		return tx.Put("k", []byte(`1`))
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.Keys(""))
}

func TestStore_Keys(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, nil, func(tx outbound.KVTx) error {
		for _, k := range []string{"ns:b", "ns:a", "other:c"} {
			if err := tx.Put(k, []byte(`1`)); err != nil {
				return err
			}
		}
		return nil
	}))

	assert.Equal(t, []string{"ns:a", "ns:b"}, store.Keys("ns:"))
}
