package channels

import (
	"time"

	"github.com/onecube/backend/internal/domain/channel"
)

// ChannelInfo describes a catalog entry for listing.
type ChannelInfo struct {
	ID                  int      `json:"id"`
	Name                string   `json:"name"`
	Icon                string   `json:"icon"`
	Description         string   `json:"description"`
	AuthType            string   `json:"auth_type"`
	RequiredCredentials []string `json:"required_credentials"`
	OptionalCredentials []string `json:"optional_credentials,omitempty"`
}

// NewChannelInfo maps a catalog definition to its listing form.
func NewChannelInfo(def channel.Definition) ChannelInfo {
	return ChannelInfo{
		ID:                  def.ID,
		Name:                def.Name,
		Icon:                def.Icon,
		Description:         def.Description,
		AuthType:            def.AuthType.String(),
		RequiredCredentials: def.RequiredCredentials,
		OptionalCredentials: def.OptionalCredentials,
	}
}

// ConnectionInfo describes a team's channel connection. Credential values
// never leave the service; only their presence does.
type ConnectionInfo struct {
	ChannelID     string     `json:"channel_id"`
	Connected     bool       `json:"connected"`
	ShopID        string     `json:"shop_id,omitempty"`
	HasAPIKey     bool       `json:"has_api_key"`
	HasAPISecret  bool       `json:"has_api_secret"`
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
	ConnectedAt   time.Time  `json:"connected_at"`
	LastUpdatedAt time.Time  `json:"last_updated_at"`
}

// NewConnectionInfo maps a connection entity to its listing form.
func NewConnectionInfo(conn *channel.TeamChannelConnection) ConnectionInfo {
	return ConnectionInfo{
		ChannelID:     conn.ChannelID,
		Connected:     conn.Connected,
		ShopID:        conn.ShopID,
		HasAPIKey:     conn.APIKey != "",
		HasAPISecret:  conn.APISecret != "",
		LastSyncAt:    conn.LastSyncAt,
		ConnectedAt:   conn.CreatedAt,
		LastUpdatedAt: conn.UpdatedAt,
	}
}

// CallbackOutcome is the terminal result of a callback pipeline run. The
// handler turns it into a settings redirect; the pipeline never returns a
// bare error to the browser.
type CallbackOutcome struct {
	ChannelName string
	Success     bool
	// Code is the machine-readable outcome: "<channel>_connected" on
	// success, "<channel>_error" on failure.
	Code string
	// Message is the human-readable outcome shown on the settings page.
	Message string
	// Err carries the underlying failure for logging, never for display.
	Err error
}

func successOutcome(channelName, displayName string) CallbackOutcome {
	return CallbackOutcome{
		ChannelName: channelName,
		Success:     true,
		Code:        channelName + "_connected",
		Message:     displayName + " connected successfully!",
	}
}

func errorOutcome(channelName, message string, err error) CallbackOutcome {
	return CallbackOutcome{
		ChannelName: channelName,
		Success:     false,
		Code:        channelName + "_error",
		Message:     channelName + " authentication failed: " + message,
		Err:         err,
	}
}
