package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/onecube/backend/internal/domain/channel"
	"github.com/onecube/backend/internal/infrastructure/persistence/models"
)

// GormTeamChannelRepository implements channel.ConnectionRepository using GORM
type GormTeamChannelRepository struct {
	db *gorm.DB
}

// NewGormTeamChannelRepository creates a new GormTeamChannelRepository
func NewGormTeamChannelRepository(db *gorm.DB) *GormTeamChannelRepository {
	return &GormTeamChannelRepository{db: db}
}

// Upsert inserts the connection or overwrites the existing row for the
// (team, channel) pair.
func (r *GormTeamChannelRepository) Upsert(ctx context.Context, conn *channel.TeamChannelConnection) error {
	if conn.TeamID == uuid.Nil {
		return channel.ErrInvalidTeamID
	}
	if conn.ChannelID == "" {
		return channel.ErrInvalidChannelID
	}

	var model models.TeamChannelModel
	model.FromDomain(conn)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "team_id"}, {Name: "channel_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"shop_id", "api_key", "api_secret", "connected", "last_sync", "updated_at",
			}),
		}).
		Create(&model).Error
}

// Find returns the connection for the pair
func (r *GormTeamChannelRepository) Find(ctx context.Context, teamID uuid.UUID, channelID string) (*channel.TeamChannelConnection, error) {
	var model models.TeamChannelModel
	if err := r.db.WithContext(ctx).
		First(&model, "team_id = ? AND channel_id = ?", teamID, channelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListForTeam returns every connection of the team
func (r *GormTeamChannelRepository) ListForTeam(ctx context.Context, teamID uuid.UUID) ([]*channel.TeamChannelConnection, error) {
	var channelModels []models.TeamChannelModel
	if err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("channel_id ASC").
		Find(&channelModels).Error; err != nil {
		return nil, err
	}

	connections := make([]*channel.TeamChannelConnection, len(channelModels))
	for i := range channelModels {
		connections[i] = channelModels[i].ToDomain()
	}
	return connections, nil
}

// SetConnected flips the connected flag, keeping credentials in place
func (r *GormTeamChannelRepository) SetConnected(ctx context.Context, teamID uuid.UUID, channelID string, connected bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.TeamChannelModel{}).
		Where("team_id = ? AND channel_id = ?", teamID, channelID).
		Update("connected", connected)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return channel.ErrConnectionNotFound
	}
	return nil
}

// Delete removes the connection and its credentials
func (r *GormTeamChannelRepository) Delete(ctx context.Context, teamID uuid.UUID, channelID string) error {
	result := r.db.WithContext(ctx).
		Delete(&models.TeamChannelModel{}, "team_id = ? AND channel_id = ?", teamID, channelID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return channel.ErrConnectionNotFound
	}
	return nil
}

var _ channel.ConnectionRepository = (*GormTeamChannelRepository)(nil)
