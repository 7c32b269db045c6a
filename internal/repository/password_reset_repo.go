package repository

import (
	"context"
	"time"

	"github.com/rakarizky/habitlink/internal/model"
	"gorm.io/gorm"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, token *model.PasswordResetToken) error
	CountByEmailSince(ctx context.Context, email string, since time.Time) (int64, error)
	FindUnusedByEmail(ctx context.Context, email string) ([]*model.PasswordResetToken, error)
	FindValidByEmailAndCode(ctx context.Context, email, code string, now time.Time) (*model.PasswordResetToken, error)
	FindUnusedByResetToken(ctx context.Context, token string) (*model.PasswordResetToken, error)
	Save(ctx context.Context, token *model.PasswordResetToken) error
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *passwordResetRepository) CountByEmailSince(ctx context.Context, email string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PasswordResetToken{}).
		Where("email = ? AND created_at > ?", email, since).
		Count(&count).Error
	return count, err
}

func (r *passwordResetRepository) FindUnusedByEmail(ctx context.Context, email string) ([]*model.PasswordResetToken, error) {
	var tokens []*model.PasswordResetToken
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_used = ?", email, false).
		Find(&tokens).Error
	return tokens, err
}

func (r *passwordResetRepository) FindValidByEmailAndCode(ctx context.Context, email, code string, now time.Time) (*model.PasswordResetToken, error) {
	var token model.PasswordResetToken
	if err := r.db.WithContext(ctx).
		First(&token, "email = ? AND code = ? AND is_used = ? AND expires_at > ?", email, code, false, now).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *passwordResetRepository) FindUnusedByResetToken(ctx context.Context, resetToken string) (*model.PasswordResetToken, error) {
	var token model.PasswordResetToken
	if err := r.db.WithContext(ctx).
		First(&token, "reset_token = ? AND is_used = ?", resetToken, false).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *passwordResetRepository) Save(ctx context.Context, token *model.PasswordResetToken) error {
	return r.db.WithContext(ctx).Save(token).Error
}
