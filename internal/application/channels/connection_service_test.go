package channels

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/onecube/backend/internal/domain/channel"
)

func newConnectionService(defaultTeamID *uuid.UUID) (*ConnectionService, *MockConnectionRepository, *MockTeamMembershipRepository) {
	connections := new(MockConnectionRepository)
	memberships := new(MockTeamMembershipRepository)
	svc := NewConnectionService(testCatalog(), connections, memberships, defaultTeamID, zap.NewNop())
	return svc, connections, memberships
}

func TestConnectionService_ListChannels(t *testing.T) {
	svc, _, _ := newConnectionService(nil)

	infos := svc.ListChannels(context.Background())
	require.Len(t, infos, 6)
	assert.Equal(t, "shopee", infos[0].Name)
	assert.Equal(t, "oauth", infos[0].AuthType)
	assert.Equal(t, []string{channel.CredentialShopID, channel.CredentialAPIKey}, infos[0].RequiredCredentials)
}

func TestConnectionService_ListConnections(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()
	lastSync := time.Now().UTC()

	svc, connections, memberships := newConnectionService(nil)
	memberships.On("FindTeamForUser", ctx, "user-1").Return(teamID, nil)
	connections.On("ListForTeam", ctx, teamID).Return([]*channel.TeamChannelConnection{
		{
			TeamID:     teamID,
			ChannelID:  "shopee",
			ShopID:     "226354",
			APIKey:     "auth-code",
			Connected:  true,
			LastSyncAt: &lastSync,
		},
	}, nil)

	infos, err := svc.ListConnections(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, infos, 1)

	// Presence flags instead of credential values.
	assert.Equal(t, "shopee", infos[0].ChannelID)
	assert.True(t, infos[0].HasAPIKey)
	assert.False(t, infos[0].HasAPISecret)
	assert.Equal(t, "226354", infos[0].ShopID)
	assert.Equal(t, &lastSync, infos[0].LastSyncAt)
}

func TestConnectionService_ListConnections_NoTeam(t *testing.T) {
	ctx := context.Background()
	svc, _, memberships := newConnectionService(nil)
	memberships.On("FindTeamForUser", ctx, "ghost").Return(uuid.Nil, channel.ErrUserHasNoTeam)

	_, err := svc.ListConnections(ctx, "ghost")
	assert.ErrorIs(t, err, channel.ErrUserHasNoTeam)
}

func TestConnectionService_Disconnect(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()

	t.Run("default keeps credentials", func(t *testing.T) {
		svc, connections, memberships := newConnectionService(nil)
		memberships.On("FindTeamForUser", ctx, "user-1").Return(teamID, nil)
		connections.On("SetConnected", ctx, teamID, "shopee", false).Return(nil)

		require.NoError(t, svc.Disconnect(ctx, "user-1", "shopee", false))
		connections.AssertExpectations(t)
	})

	t.Run("purge deletes the row", func(t *testing.T) {
		svc, connections, memberships := newConnectionService(nil)
		memberships.On("FindTeamForUser", ctx, "user-1").Return(teamID, nil)
		connections.On("Delete", ctx, teamID, "shopee").Return(nil)

		require.NoError(t, svc.Disconnect(ctx, "user-1", "shopee", true))
		connections.AssertExpectations(t)
	})

	t.Run("unknown channel", func(t *testing.T) {
		svc, _, _ := newConnectionService(nil)
		assert.ErrorIs(t, svc.Disconnect(ctx, "user-1", "amazon", false), channel.ErrChannelNotFound)
	})

	t.Run("missing connection surfaces not found", func(t *testing.T) {
		svc, connections, memberships := newConnectionService(nil)
		memberships.On("FindTeamForUser", ctx, "user-1").Return(teamID, nil)
		connections.On("SetConnected", ctx, teamID, "shopee", false).Return(channel.ErrConnectionNotFound)

		assert.ErrorIs(t, svc.Disconnect(ctx, "user-1", "shopee", false), channel.ErrConnectionNotFound)
	})
}

func TestConnectionService_DefaultTeamFallback(t *testing.T) {
	ctx := context.Background()
	fallback := uuid.New()

	svc, connections, memberships := newConnectionService(&fallback)
	memberships.On("FindTeamForUser", ctx, "ghost").Return(uuid.Nil, channel.ErrUserHasNoTeam)
	connections.On("ListForTeam", ctx, fallback).Return([]*channel.TeamChannelConnection{}, nil)

	infos, err := svc.ListConnections(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, infos)
}
