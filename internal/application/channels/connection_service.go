package channels

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onecube/backend/internal/domain/channel"
)

// ConnectionService answers catalog and connection queries and handles
// disconnects for the authenticated user's team.
type ConnectionService struct {
	catalog     *channel.Registry
	connections channel.ConnectionRepository
	memberships channel.TeamMembershipRepository
	// defaultTeamID mirrors the callback pipeline's fallback so listing and
	// connecting resolve to the same team.
	defaultTeamID *uuid.UUID
	logger        *zap.Logger
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(
	catalog *channel.Registry,
	connections channel.ConnectionRepository,
	memberships channel.TeamMembershipRepository,
	defaultTeamID *uuid.UUID,
	logger *zap.Logger,
) *ConnectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionService{
		catalog:       catalog,
		connections:   connections,
		memberships:   memberships,
		defaultTeamID: defaultTeamID,
		logger:        logger,
	}
}

// ListChannels returns the channel catalog.
func (s *ConnectionService) ListChannels(ctx context.Context) []ChannelInfo {
	defs := s.catalog.All()
	infos := make([]ChannelInfo, len(defs))
	for i, def := range defs {
		infos[i] = NewChannelInfo(def)
	}
	return infos
}

// ListConnections returns the user's team connections without credential
// values.
func (s *ConnectionService) ListConnections(ctx context.Context, userID string) ([]ConnectionInfo, error) {
	teamID, err := s.resolveTeam(ctx, userID)
	if err != nil {
		return nil, err
	}

	connections, err := s.connections.ListForTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	infos := make([]ConnectionInfo, len(connections))
	for i, conn := range connections {
		infos[i] = NewConnectionInfo(conn)
	}
	return infos, nil
}

// Disconnect unlinks the channel from the user's team. By default the
// credentials stay in place with connected flipped off, so reconnecting does
// not repeat the full consent flow. With purge the row is deleted outright.
func (s *ConnectionService) Disconnect(ctx context.Context, userID, channelName string, purge bool) error {
	def, err := s.catalog.Get(channelName)
	if err != nil {
		return err
	}

	teamID, err := s.resolveTeam(ctx, userID)
	if err != nil {
		return err
	}

	if purge {
		err = s.connections.Delete(ctx, teamID, def.Name)
	} else {
		err = s.connections.SetConnected(ctx, teamID, def.Name, false)
	}
	if err != nil {
		return err
	}

	s.logger.Info("channel disconnected",
		zap.String("channel", def.Name),
		zap.String("team_id", teamID.String()),
		zap.Bool("purged", purge),
	)
	return nil
}

func (s *ConnectionService) resolveTeam(ctx context.Context, userID string) (uuid.UUID, error) {
	teamID, err := s.memberships.FindTeamForUser(ctx, userID)
	if err == nil {
		return teamID, nil
	}
	if errors.Is(err, channel.ErrUserHasNoTeam) && s.defaultTeamID != nil {
		return *s.defaultTeamID, nil
	}
	return uuid.Nil, err
}
