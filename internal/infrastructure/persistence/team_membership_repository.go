package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onecube/backend/internal/domain/channel"
	"github.com/onecube/backend/internal/infrastructure/persistence/models"
)

// GormTeamMembershipRepository implements channel.TeamMembershipRepository
// using GORM
type GormTeamMembershipRepository struct {
	db *gorm.DB
}

// NewGormTeamMembershipRepository creates a new GormTeamMembershipRepository
func NewGormTeamMembershipRepository(db *gorm.DB) *GormTeamMembershipRepository {
	return &GormTeamMembershipRepository{db: db}
}

// FindTeamForUser returns the team of the user's earliest membership. Users
// in several teams act for the one they joined first.
func (r *GormTeamMembershipRepository) FindTeamForUser(ctx context.Context, userID string) (uuid.UUID, error) {
	var model models.TeamMembershipModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, channel.ErrUserHasNoTeam
		}
		return uuid.Nil, err
	}
	return model.TeamID, nil
}

var _ channel.TeamMembershipRepository = (*GormTeamMembershipRepository)(nil)
