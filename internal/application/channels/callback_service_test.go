package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/onecube/backend/internal/domain/channel"
)

type callbackFixture struct {
	registry    *ConnectorRegistry
	states      *MockStateStore
	connections *MockConnectionRepository
	memberships *MockTeamMembershipRepository
}

func newCallbackFixture(t *testing.T, defaultTeamID *uuid.UUID) (*CallbackService, *callbackFixture) {
	t.Helper()

	f := &callbackFixture{
		registry:    NewConnectorRegistry(testCatalog()),
		states:      new(MockStateStore),
		connections: new(MockConnectionRepository),
		memberships: new(MockTeamMembershipRepository),
	}
	require.NoError(t, f.registry.Register(newShopeeFake()))

	svc := NewCallbackService(f.registry, f.states, f.connections, f.memberships, defaultTeamID, zap.NewNop())
	return svc, f
}

func validShopeeParams() channel.CallbackParams {
	return channel.CallbackParams{
		"code":    "auth-code",
		"state":   "state-token",
		"shop_id": "226354",
	}
}

func TestCallbackService_HandleCallback_Success(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()
	svc, f := newCallbackFixture(t, nil)

	f.states.On("VerifyAndConsume", ctx, "state-token", "shopee").
		Return(channel.StateVerification{UserID: "user-1"}, nil)
	f.memberships.On("FindTeamForUser", ctx, "user-1").Return(teamID, nil)
	f.connections.On("Upsert", ctx, mock.MatchedBy(func(c *channel.TeamChannelConnection) bool {
		return c.TeamID == teamID &&
			c.ChannelID == "shopee" &&
			c.ShopID == "226354" &&
			c.APIKey == "auth-code" &&
			c.Connected &&
			c.LastSyncAt != nil
	})).Return(nil)

	outcome := svc.HandleCallback(ctx, "shopee", validShopeeParams())

	assert.True(t, outcome.Success)
	assert.Equal(t, "shopee_connected", outcome.Code)
	assert.Equal(t, "Shopee connected successfully!", outcome.Message)
	assert.NoError(t, outcome.Err)
	f.connections.AssertExpectations(t)
}

func TestCallbackService_HandleCallback_UnknownChannel(t *testing.T) {
	svc, _ := newCallbackFixture(t, nil)

	outcome := svc.HandleCallback(context.Background(), "amazon", validShopeeParams())

	assert.False(t, outcome.Success)
	assert.Equal(t, "amazon_error", outcome.Code)
	assert.ErrorIs(t, outcome.Err, channel.ErrChannelNotFound)
}

func TestCallbackService_HandleCallback_UnsupportedChannel(t *testing.T) {
	svc, _ := newCallbackFixture(t, nil)

	outcome := svc.HandleCallback(context.Background(), "tokopedia", validShopeeParams())

	assert.False(t, outcome.Success)
	assert.ErrorIs(t, outcome.Err, channel.ErrChannelUnsupported)
}

func TestCallbackService_HandleCallback_ProviderError(t *testing.T) {
	svc, f := newCallbackFixture(t, nil)

	outcome := svc.HandleCallback(context.Background(), "shopee", channel.CallbackParams{
		"error":             "access_denied",
		"error_description": "user declined",
		"code":              "auth-code",
		"state":             "state-token",
	})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "user declined")
	assert.ErrorIs(t, outcome.Err, channel.ErrCallbackDenied)
	// A provider error must short-circuit before the state is touched.
	f.states.AssertNotCalled(t, "VerifyAndConsume", mock.Anything, mock.Anything, mock.Anything)
}

func TestCallbackService_HandleCallback_MissingParams(t *testing.T) {
	tests := []struct {
		name   string
		params channel.CallbackParams
	}{
		{"missing code", channel.CallbackParams{"state": "state-token", "shop_id": "1"}},
		{"missing state", channel.CallbackParams{"code": "auth-code", "shop_id": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, f := newCallbackFixture(t, nil)

			outcome := svc.HandleCallback(context.Background(), "shopee", tt.params)

			assert.False(t, outcome.Success)
			assert.ErrorIs(t, outcome.Err, channel.ErrCallbackMissingParams)
			f.states.AssertNotCalled(t, "VerifyAndConsume", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCallbackService_HandleCallback_StateFailures(t *testing.T) {
	tests := []struct {
		name     string
		stateErr error
		wantMsg  string
	}{
		{"not found", channel.ErrStateNotFound, "session may have expired"},
		{"expired", channel.ErrStateExpired, "state expired"},
		{"channel mismatch", channel.ErrStateChannelMismatch, "another channel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, f := newCallbackFixture(t, nil)

			f.states.On("VerifyAndConsume", ctx, "state-token", "shopee").
				Return(channel.StateVerification{}, tt.stateErr)

			outcome := svc.HandleCallback(ctx, "shopee", validShopeeParams())

			assert.False(t, outcome.Success)
			assert.ErrorIs(t, outcome.Err, tt.stateErr)
			assert.Contains(t, outcome.Message, tt.wantMsg)
			// Nothing gets persisted after a state failure.
			f.connections.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		})
	}
}

func TestCallbackService_HandleCallback_MissingCredentials(t *testing.T) {
	ctx := context.Background()
	svc, f := newCallbackFixture(t, nil)

	f.states.On("VerifyAndConsume", ctx, "state-token", "shopee").
		Return(channel.StateVerification{UserID: "user-1"}, nil)

	// No shop_id in the callback, so the extracted credentials miss a
	// required field.
	outcome := svc.HandleCallback(ctx, "shopee", channel.CallbackParams{
		"code":  "auth-code",
		"state": "state-token",
	})

	assert.False(t, outcome.Success)
	assert.ErrorIs(t, outcome.Err, channel.ErrMissingCredentials)
	assert.Contains(t, outcome.Message, "shop_id")
	f.connections.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestCallbackService_HandleCallback_TeamResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("hard error without default team", func(t *testing.T) {
		svc, f := newCallbackFixture(t, nil)

		f.states.On("VerifyAndConsume", ctx, "state-token", "shopee").
			Return(channel.StateVerification{UserID: "user-1"}, nil)
		f.memberships.On("FindTeamForUser", ctx, "user-1").
			Return(uuid.Nil, channel.ErrUserHasNoTeam)

		outcome := svc.HandleCallback(ctx, "shopee", validShopeeParams())

		assert.False(t, outcome.Success)
		assert.ErrorIs(t, outcome.Err, channel.ErrUserHasNoTeam)
		f.connections.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("configured default team absorbs teamless users", func(t *testing.T) {
		fallback := uuid.New()
		svc, f := newCallbackFixture(t, &fallback)

		f.states.On("VerifyAndConsume", ctx, "state-token", "shopee").
			Return(channel.StateVerification{UserID: "user-1"}, nil)
		f.memberships.On("FindTeamForUser", ctx, "user-1").
			Return(uuid.Nil, channel.ErrUserHasNoTeam)
		f.connections.On("Upsert", ctx, mock.MatchedBy(func(c *channel.TeamChannelConnection) bool {
			return c.TeamID == fallback
		})).Return(nil)

		outcome := svc.HandleCallback(ctx, "shopee", validShopeeParams())

		assert.True(t, outcome.Success)
		f.connections.AssertExpectations(t)
	})
}

func TestCallbackService_HandleCallback_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	teamID := uuid.New()
	svc, f := newCallbackFixture(t, nil)

	f.states.On("VerifyAndConsume", ctx, "state-token", "shopee").
		Return(channel.StateVerification{UserID: "user-1"}, nil)
	f.memberships.On("FindTeamForUser", ctx, "user-1").Return(teamID, nil)
	f.connections.On("Upsert", ctx, mock.Anything).Return(errors.New("db down"))

	outcome := svc.HandleCallback(ctx, "shopee", validShopeeParams())

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "failed to save connection")
}
