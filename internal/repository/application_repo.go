package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/model"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	Create(ctx context.Context, app *model.ChallengeApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ChallengeApplication, error)
	ExistsByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) (bool, error)
	FindByChallenge(ctx context.Context, challengeID uuid.UUID, status *model.ApplicationStatus, offset, limit int) ([]*model.ChallengeApplication, int64, error)
	FindByUser(ctx context.Context, userID uuid.UUID, status *model.ApplicationStatus, offset, limit int) ([]*model.ChallengeApplication, int64, error)
	// DecideIfPending applies a review decision in one guarded statement.
	// Returns false when the application was already reviewed, so concurrent
	// decisions cannot both land.
	DecideIfPending(ctx context.Context, id uuid.UUID, status model.ApplicationStatus, rejectionReason *string, reviewedAt time.Time) (bool, error)
	WithTx(tx *gorm.DB) ApplicationRepository
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) WithTx(tx *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: tx}
}

func (r *applicationRepository) Create(ctx context.Context, app *model.ChallengeApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ChallengeApplication, error) {
	var app model.ChallengeApplication
	if err := r.db.WithContext(ctx).
		Preload("User").
		First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ExistsByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChallengeApplication{}).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Count(&count).Error
	return count > 0, err
}

func (r *applicationRepository) FindByChallenge(ctx context.Context, challengeID uuid.UUID, status *model.ApplicationStatus, offset, limit int) ([]*model.ChallengeApplication, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ChallengeApplication{}).
		Preload("User").
		Where("challenge_id = ?", challengeID)
	return r.page(query, status, offset, limit)
}

func (r *applicationRepository) FindByUser(ctx context.Context, userID uuid.UUID, status *model.ApplicationStatus, offset, limit int) ([]*model.ChallengeApplication, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ChallengeApplication{}).
		Where("user_id = ?", userID)
	return r.page(query, status, offset, limit)
}

func (r *applicationRepository) page(query *gorm.DB, status *model.ApplicationStatus, offset, limit int) ([]*model.ChallengeApplication, int64, error) {
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []*model.ChallengeApplication
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepository) DecideIfPending(ctx context.Context, id uuid.UUID, status model.ApplicationStatus, rejectionReason *string, reviewedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.ChallengeApplication{}).
		Where("id = ? AND status = ?", id, model.ApplicationPending).
		Updates(map[string]interface{}{
			"status":           status,
			"rejection_reason": rejectionReason,
			"reviewed_at":      reviewedAt,
		})
	return res.RowsAffected > 0, res.Error
}
