package channels

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/onecube/backend/internal/domain/channel"
)

// ConnectService starts the OAuth flow: it asks the channel's connector for
// an authorization link and durably records the issued state before the link
// leaves the service.
type ConnectService struct {
	connectors *ConnectorRegistry
	states     channel.StateStore
	stateTTL   time.Duration
	logger     *zap.Logger
}

// NewConnectService creates a new ConnectService
func NewConnectService(connectors *ConnectorRegistry, states channel.StateStore, stateTTL time.Duration, logger *zap.Logger) *ConnectService {
	if stateTTL <= 0 {
		stateTTL = channel.DefaultStateTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectService{
		connectors: connectors,
		states:     states,
		stateTTL:   stateTTL,
		logger:     logger,
	}
}

// GenerateAuthLink builds the authorization link for the named channel on
// behalf of the user. The state is persisted before the link is returned, so
// a link the caller holds always has a verifiable state behind it.
func (s *ConnectService) GenerateAuthLink(ctx context.Context, channelName, userID string) (channel.AuthLinkResult, error) {
	connector, err := s.connectors.Get(channelName)
	if err != nil {
		return channel.AuthLinkResult{}, err
	}

	result, err := connector.GenerateAuthLink(ctx)
	if err != nil {
		return channel.AuthLinkResult{}, err
	}

	state := channel.NewState(result.State, connector.Name(), userID, result.CodeVerifier, s.stateTTL)
	if err := s.states.Put(ctx, state); err != nil {
		return channel.AuthLinkResult{}, err
	}

	s.logger.Info("issued oauth authorization link",
		zap.String("channel", connector.Name()),
		zap.String("user_id", userID),
		zap.Time("state_expires_at", state.ExpiresAt),
	)

	return result, nil
}
