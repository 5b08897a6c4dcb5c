package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/onecube/backend/internal/domain/channel"
	"github.com/onecube/backend/internal/infrastructure/persistence/models"
)

// GormOAuthStateRepository implements channel.StateStore backed by the
// user_state table.
type GormOAuthStateRepository struct {
	db *gorm.DB

	// now is swappable in tests
	now func() time.Time
}

// NewGormOAuthStateRepository creates a new GormOAuthStateRepository
func NewGormOAuthStateRepository(db *gorm.DB) *GormOAuthStateRepository {
	return &GormOAuthStateRepository{db: db, now: time.Now}
}

// Put persists the state.
func (r *GormOAuthStateRepository) Put(ctx context.Context, state channel.OAuthState) error {
	var model models.OAuthStateModel
	model.FromDomain(state)
	return r.db.WithContext(ctx).Create(&model).Error
}

// VerifyAndConsume atomically checks and deletes the state. The conditional
// delete on (state, channel_name) is the single consumption point: of two
// concurrent callbacks carrying the same token, exactly one delete reports a
// row affected and the other caller sees ErrStateNotFound.
func (r *GormOAuthStateRepository) VerifyAndConsume(ctx context.Context, state, channelName string) (channel.StateVerification, error) {
	var model models.OAuthStateModel
	if err := r.db.WithContext(ctx).First(&model, "state = ?", state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return channel.StateVerification{}, channel.ErrStateNotFound
		}
		return channel.StateVerification{}, err
	}

	if model.ToDomain().IsExpired(r.now().UTC()) {
		// Expired tokens are consumed so they cannot linger.
		if err := r.db.WithContext(ctx).Delete(&models.OAuthStateModel{}, "state = ?", state).Error; err != nil {
			return channel.StateVerification{}, err
		}
		return channel.StateVerification{}, channel.ErrStateExpired
	}

	// A mismatched channel must not consume the token; the callback the
	// token was actually issued for may still arrive.
	if model.ChannelName != channelName {
		return channel.StateVerification{}, channel.ErrStateChannelMismatch
	}

	result := r.db.WithContext(ctx).
		Delete(&models.OAuthStateModel{}, "state = ? AND channel_name = ?", state, channelName)
	if result.Error != nil {
		return channel.StateVerification{}, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost the race against a concurrent consumer.
		return channel.StateVerification{}, channel.ErrStateNotFound
	}

	return channel.StateVerification{
		UserID:       model.UserID,
		CodeVerifier: model.CodeVerifier,
	}, nil
}

// PurgeExpired removes every expired state.
func (r *GormOAuthStateRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.OAuthStateModel{}, "expires_at <= ?", r.now().UTC())
	return result.RowsAffected, result.Error
}

var _ channel.StateStore = (*GormOAuthStateRepository)(nil)
