package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/onecube/backend/internal/domain/channel"
)

// OAuthStateModel is the persistence model for issued OAuth state tokens.
type OAuthStateModel struct {
	State        string    `gorm:"type:varchar(128);primary_key"`
	ChannelName  string    `gorm:"type:varchar(50);not null;index:idx_oauth_state_channel"`
	UserID       string    `gorm:"type:varchar(128);not null"`
	CodeVerifier string    `gorm:"type:varchar(128)"`
	CreatedAt    time.Time `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"not null;index:idx_oauth_state_expires"`
}

// TableName returns the table name for GORM
func (OAuthStateModel) TableName() string {
	return "user_state"
}

// ToDomain converts the persistence model to a domain OAuthState.
func (m *OAuthStateModel) ToDomain() channel.OAuthState {
	return channel.OAuthState{
		State:        m.State,
		ChannelName:  m.ChannelName,
		UserID:       m.UserID,
		CodeVerifier: m.CodeVerifier,
		CreatedAt:    m.CreatedAt,
		ExpiresAt:    m.ExpiresAt,
	}
}

// FromDomain populates the persistence model from a domain OAuthState.
func (m *OAuthStateModel) FromDomain(s channel.OAuthState) {
	m.State = s.State
	m.ChannelName = s.ChannelName
	m.UserID = s.UserID
	m.CodeVerifier = s.CodeVerifier
	m.CreatedAt = s.CreatedAt
	m.ExpiresAt = s.ExpiresAt
}

// TeamChannelModel is the persistence model for a team's channel connection.
type TeamChannelModel struct {
	TeamID    uuid.UUID  `gorm:"type:uuid;primary_key;index:idx_team_channels_team"`
	ChannelID string     `gorm:"type:varchar(50);primary_key"`
	ShopID    string     `gorm:"type:varchar(100)"`
	APIKey    string     `gorm:"type:text"`
	APISecret string     `gorm:"type:text"`
	Connected bool       `gorm:"not null;default:false"`
	LastSync  *time.Time `gorm:"column:last_sync"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TeamChannelModel) TableName() string {
	return "team_channels"
}

// ToDomain converts the persistence model to a domain TeamChannelConnection.
func (m *TeamChannelModel) ToDomain() *channel.TeamChannelConnection {
	return &channel.TeamChannelConnection{
		TeamID:     m.TeamID,
		ChannelID:  m.ChannelID,
		ShopID:     m.ShopID,
		APIKey:     m.APIKey,
		APISecret:  m.APISecret,
		Connected:  m.Connected,
		LastSyncAt: m.LastSync,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain TeamChannelConnection.
func (m *TeamChannelModel) FromDomain(c *channel.TeamChannelConnection) {
	m.TeamID = c.TeamID
	m.ChannelID = c.ChannelID
	m.ShopID = c.ShopID
	m.APIKey = c.APIKey
	m.APISecret = c.APISecret
	m.Connected = c.Connected
	m.LastSync = c.LastSyncAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// TeamMembershipModel is the persistence model for a user's team membership.
type TeamMembershipModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index:idx_team_members_team"`
	UserID    string    `gorm:"type:varchar(128);not null;index:idx_team_members_user"`
	Role      string    `gorm:"type:varchar(50);not null;default:'member'"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TeamMembershipModel) TableName() string {
	return "team_members"
}
