package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/model"
	"gorm.io/gorm"
)

// LogFilter narrows challenge-log listings; nil fields are not applied.
// When VisibleOnly is set the listing is restricted to challenges Viewer may
// see, so private-challenge logs never leak through an unscoped query.
type LogFilter struct {
	ChallengeID *uuid.UUID
	UserID      *uuid.UUID
	Status      *model.LogStatus
	VisibleOnly bool
	Viewer      *uuid.UUID
	Offset      int
	Limit       int
}

type ChallengeLogRepository interface {
	Create(ctx context.Context, log *model.ChallengeLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ChallengeLog, error)
	FindWithFilters(ctx context.Context, filter LogFilter) ([]*model.ChallengeLog, int64, error)
	FindByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) ([]*model.ChallengeLog, error)
	FindByChallengeBetween(ctx context.Context, challengeID uuid.UUID, from, to time.Time) ([]*model.ChallengeLog, error)
	ExistsByUserAndChallengeBetween(ctx context.Context, userID, challengeID uuid.UUID, from, to time.Time) (bool, error)
	CountByChallengeAndStatus(ctx context.Context, challengeID uuid.UUID, status model.LogStatus) (int64, error)
	// DecideIfPending applies a review decision in one guarded statement.
	// Returns false when the log was already reviewed, so concurrent decisions
	// cannot both land.
	DecideIfPending(ctx context.Context, logID uuid.UUID, status model.LogStatus, comment *string) (bool, error)
	WithTx(tx *gorm.DB) ChallengeLogRepository
}

type challengeLogRepository struct {
	db *gorm.DB
}

func NewChallengeLogRepository(db *gorm.DB) ChallengeLogRepository {
	return &challengeLogRepository{db: db}
}

func (r *challengeLogRepository) WithTx(tx *gorm.DB) ChallengeLogRepository {
	return &challengeLogRepository{db: tx}
}

func (r *challengeLogRepository) Create(ctx context.Context, log *model.ChallengeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *challengeLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ChallengeLog, error) {
	var log model.ChallengeLog
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Challenge").
		First(&log, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *challengeLogRepository) FindWithFilters(ctx context.Context, filter LogFilter) ([]*model.ChallengeLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ChallengeLog{}).Preload("User")

	if filter.ChallengeID != nil {
		query = query.Where("challenge_id = ?", *filter.ChallengeID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.VisibleOnly {
		query = query.Where("challenge_id IN (?)", visibleChallengeIDs(r.db, filter.Viewer))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []*model.ChallengeLog
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *challengeLogRepository) FindByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) ([]*model.ChallengeLog, error) {
	var logs []*model.ChallengeLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *challengeLogRepository) FindByChallengeBetween(ctx context.Context, challengeID uuid.UUID, from, to time.Time) ([]*model.ChallengeLog, error) {
	var logs []*model.ChallengeLog
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND created_at >= ? AND created_at < ?", challengeID, from, to).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *challengeLogRepository) ExistsByUserAndChallengeBetween(ctx context.Context, userID, challengeID uuid.UUID, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChallengeLog{}).
		Where("user_id = ? AND challenge_id = ? AND created_at >= ? AND created_at < ?", userID, challengeID, from, to).
		Count(&count).Error
	return count > 0, err
}

func (r *challengeLogRepository) CountByChallengeAndStatus(ctx context.Context, challengeID uuid.UUID, status model.LogStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChallengeLog{}).
		Where("challenge_id = ? AND status = ?", challengeID, status).
		Count(&count).Error
	return count, err
}

func (r *challengeLogRepository) DecideIfPending(ctx context.Context, logID uuid.UUID, status model.LogStatus, comment *string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.ChallengeLog{}).
		Where("id = ? AND status = ?", logID, model.LogPending).
		Updates(map[string]interface{}{"status": status, "rejection_comment": comment})
	return res.RowsAffected > 0, res.Error
}
