package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/model"
	"gorm.io/gorm"
)

// ChallengeFilter narrows visible-challenge listings. Viewer is nil for
// anonymous callers, who only ever see public challenges.
type ChallengeFilter struct {
	Viewer   *uuid.UUID
	Category *model.ChallengeCategory
	Status   *model.ChallengeStatus
	Search   string
	Offset   int
	Limit    int
}

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	FindByInviteCode(ctx context.Context, code string) (*model.Challenge, error)
	ExistsByInviteCode(ctx context.Context, code string) (bool, error)
	FindVisible(ctx context.Context, filter ChallengeFilter) ([]*model.Challenge, int64, error)
	FindByLeader(ctx context.Context, leaderID uuid.UUID) ([]*model.Challenge, error)
	FindByStatus(ctx context.Context, status model.ChallengeStatus) ([]*model.Challenge, error)
	FindStartingOn(ctx context.Context, day time.Time) ([]*model.Challenge, error)
	FindEndingOn(ctx context.Context, day time.Time) ([]*model.Challenge, error)
	Save(ctx context.Context, challenge *model.Challenge) error
	WithTx(tx *gorm.DB) ChallengeRepository
}

type challengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) WithTx(tx *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: tx}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *challengeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	var challenge model.Challenge
	if err := r.db.WithContext(ctx).
		Preload("Leader").
		First(&challenge, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) FindByInviteCode(ctx context.Context, code string) (*model.Challenge, error) {
	var challenge model.Challenge
	if err := r.db.WithContext(ctx).
		Preload("Leader").
		First(&challenge, "invite_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) ExistsByInviteCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Challenge{}).
		Where("invite_code = ?", code).Count(&count).Error
	return count > 0, err
}

// visibleChallengeIDs is the subquery form of the visibility rule: public
// challenges for everyone, private ones only for their leader or an active
// participant. Shared with the log listing so privacy filters every list read.
func visibleChallengeIDs(db *gorm.DB, viewer *uuid.UUID) *gorm.DB {
	query := db.Model(&model.Challenge{}).Select("id")
	if viewer == nil {
		return query.Where("is_private = ?", false)
	}
	return query.Where(
		"is_private = ? OR leader_id = ? OR id IN (?)",
		false, *viewer,
		db.Model(&model.Participation{}).
			Select("challenge_id").
			Where("user_id = ? AND status = ?", *viewer, model.ParticipationJoined),
	)
}

// FindVisible applies the visibility predicate in SQL: public challenges are
// visible to everyone; private ones only to their leader or an active participant.
func (r *challengeRepository) FindVisible(ctx context.Context, filter ChallengeFilter) ([]*model.Challenge, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Challenge{}).Preload("Leader").
		Where("id IN (?)", visibleChallengeIDs(r.db, filter.Viewer))

	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var challenges []*model.Challenge
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := query.Find(&challenges).Error; err != nil {
		return nil, 0, err
	}

	return challenges, total, nil
}

func (r *challengeRepository) FindByLeader(ctx context.Context, leaderID uuid.UUID) ([]*model.Challenge, error) {
	var challenges []*model.Challenge
	err := r.db.WithContext(ctx).
		Preload("Leader").
		Where("leader_id = ?", leaderID).
		Order("created_at DESC").
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) FindByStatus(ctx context.Context, status model.ChallengeStatus) ([]*model.Challenge, error) {
	var challenges []*model.Challenge
	err := r.db.WithContext(ctx).
		Preload("Leader").
		Where("status = ?", status).
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) FindStartingOn(ctx context.Context, day time.Time) ([]*model.Challenge, error) {
	return r.findByDateColumn(ctx, "start_date", day)
}

func (r *challengeRepository) FindEndingOn(ctx context.Context, day time.Time) ([]*model.Challenge, error) {
	return r.findByDateColumn(ctx, "end_date", day)
}

func (r *challengeRepository) findByDateColumn(ctx context.Context, column string, day time.Time) ([]*model.Challenge, error) {
	from, to := DayWindow(day)
	var challenges []*model.Challenge
	err := r.db.WithContext(ctx).
		Preload("Leader").
		Where(column+" >= ? AND "+column+" < ?", from, to).
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) Save(ctx context.Context, challenge *model.Challenge) error {
	return r.db.WithContext(ctx).Save(challenge).Error
}
