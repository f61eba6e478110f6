package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace-backend/internal/model"
)

type TokenRepository interface {
	RecordIssued(ctx context.Context, token *model.IssuedToken) error
	ListLiveByUser(ctx context.Context, userID string) ([]*model.IssuedToken, error)
	Blacklist(ctx context.Context, jti string) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type tokenRepoImpl struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepoImpl{db: db}
}

func (r *tokenRepoImpl) RecordIssued(ctx context.Context, token *model.IssuedToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// ListLiveByUser returns the user's outstanding tokens that have not reached
// natural expiry; anything older needs no blacklist entry.
func (r *tokenRepoImpl) ListLiveByUser(ctx context.Context, userID string) ([]*model.IssuedToken, error) {
	var tokens []*model.IssuedToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("expires_at > ?", time.Now()).
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Blacklist is idempotent: duplicate invalidation requests for the same jti
// are expected and must not fail.
func (r *tokenRepoImpl) Blacklist(ctx context.Context, jti string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.BlacklistedToken{JTI: jti}).Error
}

func (r *tokenRepoImpl) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BlacklistedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error
	return count > 0, err
}
