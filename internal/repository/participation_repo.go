package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParticipationRepository interface {
	// CreateIfCapacity inserts the participation only while the challenge still
	// has an open slot. It locks the challenge row first so concurrent joins
	// queue instead of racing the count; run it inside a transaction. Returns
	// false when the challenge is full.
	CreateIfCapacity(ctx context.Context, p *model.Participation, maxMembers int) (bool, error)
	FindByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*model.Participation, error)
	ExistsByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) (bool, error)
	ExistsActive(ctx context.Context, userID, challengeID uuid.UUID) (bool, error)
	CountActiveByChallenge(ctx context.Context, challengeID uuid.UUID) (int64, error)
	FindActiveByChallenge(ctx context.Context, challengeID uuid.UUID) ([]*model.Participation, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]*model.Participation, error)
	// EndIfJoined flips JOINED to LEFT in one guarded statement. Returns false
	// when the participation was not in JOINED, so concurrent leaves cannot
	// both succeed.
	EndIfJoined(ctx context.Context, userID, challengeID uuid.UUID) (bool, error)
	WithTx(tx *gorm.DB) ParticipationRepository
}

type participationRepository struct {
	db *gorm.DB
}

func NewParticipationRepository(db *gorm.DB) ParticipationRepository {
	return &participationRepository{db: db}
}

func (r *participationRepository) WithTx(tx *gorm.DB) ParticipationRepository {
	return &participationRepository{db: tx}
}

func (r *participationRepository) CreateIfCapacity(ctx context.Context, p *model.Participation, maxMembers int) (bool, error) {
	// Postgres runs the guarded insert below against a per-statement snapshot,
	// so two transactions racing for the last slot could both see an open one.
	// Locking the challenge row serializes them. SQLite has a single writer
	// and no FOR UPDATE syntax.
	if r.db.Dialector.Name() == "postgres" {
		var challenge model.Challenge
		if err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&challenge, "id = ?", p.ChallengeID).Error; err != nil {
			return false, err
		}
	}

	// Raw insert bypasses gorm hooks; fill in the PK and audit columns here.
	if p.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return false, err
		}
		p.ID = id
	}
	if p.CreatedAt.IsZero() {
		now := time.Now()
		p.CreatedAt = now
		p.UpdatedAt = now
	}

	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO participations (id, user_id, challenge_id, status, join_reason, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE (SELECT COUNT(*) FROM participations WHERE challenge_id = ? AND status = ?) < ?`,
		p.ID, p.UserID, p.ChallengeID, p.Status, p.JoinReason, p.CreatedAt, p.UpdatedAt,
		p.ChallengeID, model.ParticipationJoined, maxMembers,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *participationRepository) FindByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*model.Participation, error) {
	var p model.Participation
	if err := r.db.WithContext(ctx).
		First(&p, "user_id = ? AND challenge_id = ?", userID, challengeID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participationRepository) ExistsByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Participation{}).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Count(&count).Error
	return count > 0, err
}

func (r *participationRepository) ExistsActive(ctx context.Context, userID, challengeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Participation{}).
		Where("user_id = ? AND challenge_id = ? AND status = ?", userID, challengeID, model.ParticipationJoined).
		Count(&count).Error
	return count > 0, err
}

// CountActiveByChallenge always re-derives the member count from JOINED rows;
// it is never cached anywhere.
func (r *participationRepository) CountActiveByChallenge(ctx context.Context, challengeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Participation{}).
		Where("challenge_id = ? AND status = ?", challengeID, model.ParticipationJoined).
		Count(&count).Error
	return count, err
}

func (r *participationRepository) FindActiveByChallenge(ctx context.Context, challengeID uuid.UUID) ([]*model.Participation, error) {
	var participations []*model.Participation
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("challenge_id = ? AND status = ?", challengeID, model.ParticipationJoined).
		Order("created_at ASC").
		Find(&participations).Error
	return participations, err
}

func (r *participationRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]*model.Participation, error) {
	var participations []*model.Participation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.ParticipationJoined).
		Find(&participations).Error
	return participations, err
}

func (r *participationRepository) EndIfJoined(ctx context.Context, userID, challengeID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Participation{}).
		Where("user_id = ? AND challenge_id = ? AND status = ?", userID, challengeID, model.ParticipationJoined).
		Update("status", model.ParticipationLeft)
	return res.RowsAffected > 0, res.Error
}
