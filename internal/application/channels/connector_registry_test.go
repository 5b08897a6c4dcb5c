package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecube/backend/internal/domain/channel"
)

func TestConnectorRegistry_Register(t *testing.T) {
	t.Run("registers catalog channel", func(t *testing.T) {
		registry := NewConnectorRegistry(testCatalog())
		require.NoError(t, registry.Register(newShopeeFake()))

		connector, err := registry.Get("shopee")
		require.NoError(t, err)
		assert.Equal(t, "shopee", connector.Name())
	})

	t.Run("rejects connector for unknown channel", func(t *testing.T) {
		registry := NewConnectorRegistry(testCatalog())
		fake := newShopeeFake()
		fake.name = "amazon"

		assert.ErrorIs(t, registry.Register(fake), channel.ErrChannelNotFound)
	})

	t.Run("rejects connector for non-oauth channel", func(t *testing.T) {
		registry := NewConnectorRegistry(testCatalog())
		fake := newShopeeFake()
		fake.name = "tokopedia"

		assert.ErrorIs(t, registry.Register(fake), channel.ErrChannelUnsupported)
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		registry := NewConnectorRegistry(testCatalog())
		require.NoError(t, registry.Register(newShopeeFake()))
		assert.ErrorIs(t, registry.Register(newShopeeFake()), channel.ErrDuplicateChannel)
	})
}

func TestConnectorRegistry_Get(t *testing.T) {
	registry := NewConnectorRegistry(testCatalog())
	require.NoError(t, registry.Register(newShopeeFake()))

	t.Run("case-insensitive dispatch", func(t *testing.T) {
		connector, err := registry.Get("SHOPEE")
		require.NoError(t, err)
		assert.Equal(t, "shopee", connector.Name())
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := registry.Get("amazon")
		assert.ErrorIs(t, err, channel.ErrChannelNotFound)
	})

	t.Run("catalog channel without connector is unsupported", func(t *testing.T) {
		// tokopedia exists in the catalog but is an api_key channel with
		// no connector registered.
		_, err := registry.Get("tokopedia")
		assert.ErrorIs(t, err, channel.ErrChannelUnsupported)
	})
}
