package channels

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onecube/backend/internal/domain/channel"
)

// CallbackService runs the callback pipeline that turns a marketplace
// redirect into a connected team channel. Every failure terminates the
// pipeline with an error outcome; nothing after a failed stage runs.
type CallbackService struct {
	connectors  *ConnectorRegistry
	states      channel.StateStore
	connections channel.ConnectionRepository
	memberships channel.TeamMembershipRepository
	// defaultTeamID, when non-nil, absorbs users without a team.
	defaultTeamID *uuid.UUID
	logger        *zap.Logger
}

// NewCallbackService creates a new CallbackService
func NewCallbackService(
	connectors *ConnectorRegistry,
	states channel.StateStore,
	connections channel.ConnectionRepository,
	memberships channel.TeamMembershipRepository,
	defaultTeamID *uuid.UUID,
	logger *zap.Logger,
) *CallbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallbackService{
		connectors:    connectors,
		states:        states,
		connections:   connections,
		memberships:   memberships,
		defaultTeamID: defaultTeamID,
		logger:        logger,
	}
}

// HandleCallback validates the marketplace redirect and, when everything
// checks out, upserts the team's connection. Stages run in a fixed order:
// provider error, required params, state verification, channel validation,
// credential extraction and validation, team resolution, persistence.
func (s *CallbackService) HandleCallback(ctx context.Context, channelName string, params channel.CallbackParams) CallbackOutcome {
	connector, err := s.connectors.Get(channelName)
	if err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			return errorOutcome(channelName, "unknown channel", err)
		}
		if errors.Is(err, channel.ErrChannelUnsupported) {
			return errorOutcome(channelName, "channel does not support oauth connection", err)
		}
		return errorOutcome(channelName, "channel lookup failed", err)
	}
	name := connector.Name()

	// The provider reported a denial or failure; nothing else is checked.
	if providerErr := params.Get("error"); providerErr != "" {
		description := params.Get("error_description")
		if description == "" {
			description = providerErr
		}
		return errorOutcome(name, "OAuth error: "+description,
			channel.ErrCallbackDenied)
	}

	if params.Get("code") == "" {
		return errorOutcome(name, "missing authorization code", channel.ErrCallbackMissingParams)
	}
	stateToken := params.Get("state")
	if stateToken == "" {
		return errorOutcome(name, "missing state parameter", channel.ErrCallbackMissingParams)
	}

	verification, err := s.states.VerifyAndConsume(ctx, stateToken, name)
	if err != nil {
		switch {
		case errors.Is(err, channel.ErrStateNotFound):
			return errorOutcome(name, "state not found - session may have expired", err)
		case errors.Is(err, channel.ErrStateExpired):
			return errorOutcome(name, "state expired - please try again", err)
		case errors.Is(err, channel.ErrStateChannelMismatch):
			return errorOutcome(name, "state was issued for another channel", err)
		default:
			return errorOutcome(name, "state verification failed", err)
		}
	}

	if err := connector.ValidateCallbackParams(params); err != nil {
		return errorOutcome(name, err.Error(), err)
	}

	creds, err := connector.ExtractCredentials(params, verification)
	if err != nil {
		return errorOutcome(name, "failed to extract credentials", err)
	}

	validation := connector.Definition().ValidateCredentials(creds)
	if !validation.Valid {
		return errorOutcome(name,
			"invalid credentials: missing "+strings.Join(validation.Missing, ", "),
			channel.ErrMissingCredentials)
	}

	teamID, err := s.resolveTeam(ctx, verification.UserID)
	if err != nil {
		if errors.Is(err, channel.ErrUserHasNoTeam) {
			return errorOutcome(name, "user does not belong to any team", err)
		}
		return errorOutcome(name, "failed to resolve team", err)
	}

	now := time.Now().UTC()
	conn := &channel.TeamChannelConnection{
		TeamID:     teamID,
		ChannelID:  name,
		Connected:  true,
		LastSyncAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	conn.ApplyCredentials(creds)

	if err := s.connections.Upsert(ctx, conn); err != nil {
		s.logger.Error("failed to persist channel connection",
			zap.String("channel", name),
			zap.String("team_id", teamID.String()),
			zap.Error(err),
		)
		return errorOutcome(name, "failed to save connection", err)
	}

	s.logger.Info("channel connected",
		zap.String("channel", name),
		zap.String("team_id", teamID.String()),
		zap.String("user_id", verification.UserID),
	)

	return successOutcome(name, displayName(connector.Definition()))
}

// resolveTeam finds the team the user acts for, falling back to the
// configured default team only when one is set.
func (s *CallbackService) resolveTeam(ctx context.Context, userID string) (uuid.UUID, error) {
	teamID, err := s.memberships.FindTeamForUser(ctx, userID)
	if err == nil {
		return teamID, nil
	}
	if errors.Is(err, channel.ErrUserHasNoTeam) && s.defaultTeamID != nil {
		s.logger.Warn("user has no team, using configured default",
			zap.String("user_id", userID),
			zap.String("default_team_id", s.defaultTeamID.String()),
		)
		return *s.defaultTeamID, nil
	}
	return uuid.Nil, err
}

func displayName(def channel.Definition) string {
	runes := []rune(def.Name)
	if len(runes) == 0 {
		return def.Name
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
