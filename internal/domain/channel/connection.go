package channel

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Connection Errors
// ---------------------------------------------------------------------------

var (
	ErrConnectionNotFound = errors.New("channel: team channel connection not found")
	ErrUserHasNoTeam      = errors.New("channel: user does not belong to any team")
	ErrInvalidTeamID      = errors.New("channel: invalid team id")
)

// ---------------------------------------------------------------------------
// TeamChannelConnection
// ---------------------------------------------------------------------------

// TeamChannelConnection records that a team has linked a sales channel and
// holds the credentials obtained for it. A team has at most one connection
// per channel.
type TeamChannelConnection struct {
	TeamID    uuid.UUID
	ChannelID string
	ShopID    string
	APIKey    string
	APISecret string
	Connected bool
	// LastSyncAt is nil until the first inventory or order sync runs.
	LastSyncAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Credentials returns the connection's credential fields as a sparse map,
// omitting empty values.
func (c TeamChannelConnection) Credentials() Credentials {
	creds := Credentials{}
	if c.ShopID != "" {
		creds[CredentialShopID] = c.ShopID
	}
	if c.APIKey != "" {
		creds[CredentialAPIKey] = c.APIKey
	}
	if c.APISecret != "" {
		creds[CredentialAPISecret] = c.APISecret
	}
	return creds
}

// ApplyCredentials sets the connection's credential columns from a sparse
// map, leaving fields absent from the map unchanged.
func (c *TeamChannelConnection) ApplyCredentials(creds Credentials) {
	if v := creds.Get(CredentialShopID); v != "" {
		c.ShopID = v
	}
	if v := creds.Get(CredentialAPIKey); v != "" {
		c.APIKey = v
	}
	if v := creds.Get(CredentialAPISecret); v != "" {
		c.APISecret = v
	}
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// ConnectionRepository persists team channel connections.
type ConnectionRepository interface {
	// Upsert inserts the connection or, when the (team, channel) pair
	// already exists, overwrites its credentials and connected flag.
	// Reconnecting an already-connected channel is idempotent.
	Upsert(ctx context.Context, conn *TeamChannelConnection) error

	// Find returns the connection for the pair, or ErrConnectionNotFound.
	Find(ctx context.Context, teamID uuid.UUID, channelID string) (*TeamChannelConnection, error)

	// ListForTeam returns every connection of the team.
	ListForTeam(ctx context.Context, teamID uuid.UUID) ([]*TeamChannelConnection, error)

	// SetConnected flips the connected flag while keeping the stored
	// credentials, so a later reconnect does not have to repeat the
	// marketplace consent flow from scratch.
	SetConnected(ctx context.Context, teamID uuid.UUID, channelID string, connected bool) error

	// Delete removes the connection and its credentials entirely.
	Delete(ctx context.Context, teamID uuid.UUID, channelID string) error
}

// TeamMembershipRepository resolves which team a user acts for.
type TeamMembershipRepository interface {
	// FindTeamForUser returns the team of the user's earliest membership,
	// or ErrUserHasNoTeam when the user belongs to no team.
	FindTeamForUser(ctx context.Context, userID string) (uuid.UUID, error)
}
