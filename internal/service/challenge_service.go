package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/internal/repository"
	"github.com/rakarizky/habitlink/pkg/apperror"
	"github.com/rakarizky/habitlink/pkg/clock"
	"gorm.io/gorm"
)

const (
	inviteCodeCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 8
	inviteCodeAttempts = 5

	leaderJoinReason = "Joined automatically as the challenge leader"
)

type ChallengeService interface {
	CreateChallenge(ctx context.Context, leaderID uuid.UUID, req dto.CreateChallengeRequest) (*dto.ChallengeResponse, error)
	GetChallenge(ctx context.Context, viewer *uuid.UUID, challengeID uuid.UUID) (*dto.ChallengeResponse, error)
	ListChallenges(ctx context.Context, viewer *uuid.UUID, query dto.ChallengeListQuery) (*dto.PaginatedChallengeResponse, error)
	GetUserChallenges(ctx context.Context, userID uuid.UUID) ([]*dto.ChallengeResponse, error)
	UpdateChallenge(ctx context.Context, actorID, challengeID uuid.UUID, req dto.UpdateChallengeRequest) (*dto.ChallengeResponse, error)
	JoinChallenge(ctx context.Context, userID, challengeID uuid.UUID, reason *string) (*dto.ChallengeResponse, error)
	JoinByInviteCode(ctx context.Context, userID uuid.UUID, req dto.JoinByInviteCodeRequest) (*dto.ChallengeResponse, error)
	GetChallengeByInviteCode(ctx context.Context, viewer *uuid.UUID, code string) (*dto.ChallengeResponse, error)
	LeaveChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*dto.ChallengeResponse, error)
	ApplyToChallenge(ctx context.Context, userID, challengeID uuid.UUID, reason string) (*dto.ApplicationResponse, error)
	UpdateApplicationStatus(ctx context.Context, actorID, challengeID, applicationID uuid.UUID, req dto.UpdateApplicationStatusRequest) (*dto.ApplicationResponse, error)
	GetChallengeMembers(ctx context.Context, viewer *uuid.UUID, challengeID uuid.UUID) ([]*dto.ChallengeMemberResponse, error)
	GetChallengeApplications(ctx context.Context, actorID, challengeID uuid.UUID, status string, page dto.PageQuery) (*dto.PaginatedApplicationResponse, error)
	GetUserApplications(ctx context.Context, userID uuid.UUID, status string, page dto.PageQuery) (*dto.PaginatedApplicationResponse, error)
	CanView(ctx context.Context, viewer *uuid.UUID, challenge *model.Challenge) (bool, error)
}

type challengeService struct {
	db                *gorm.DB
	challengeRepo     repository.ChallengeRepository
	participationRepo repository.ParticipationRepository
	applicationRepo   repository.ApplicationRepository
	notifier          Notifier
	clk               clock.Clock
}

func NewChallengeService(
	db *gorm.DB,
	challengeRepo repository.ChallengeRepository,
	participationRepo repository.ParticipationRepository,
	applicationRepo repository.ApplicationRepository,
	notifier Notifier,
	clk clock.Clock,
) ChallengeService {
	return &challengeService{
		db:                db,
		challengeRepo:     challengeRepo,
		participationRepo: participationRepo,
		applicationRepo:   applicationRepo,
		notifier:          notifier,
		clk:               clk,
	}
}

func (s *challengeService) CreateChallenge(ctx context.Context, leaderID uuid.UUID, req dto.CreateChallengeRequest) (*dto.ChallengeResponse, error) {
	startDate, endDate, err := parseSchedule(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.validateSchedule(startDate, endDate, req.MaxMembers); err != nil {
		return nil, err
	}

	leaderRole := model.LeaderParticipant
	if req.LeaderRole != "" {
		leaderRole = model.LeaderRole(req.LeaderRole)
	}

	challenge := &model.Challenge{
		Name:          req.Name,
		Description:   req.Description,
		Category:      model.ChallengeCategory(req.Category),
		Difficulty:    model.ChallengeDifficulty(req.Difficulty),
		Duration:      req.Duration,
		StartDate:     startDate,
		EndDate:       endDate,
		MaxMembers:    req.MaxMembers,
		LeaderID:      leaderID,
		Status:        model.ChallengeRecruiting,
		CoverImageURL: req.CoverImageURL,
		Reward:        req.Reward,
		Tags:          dto.JoinTags(req.Tags),
		IsPrivate:     req.IsPrivate,
		LeaderRole:    leaderRole,
	}

	if req.IsPrivate {
		code, err := s.generateInviteCode(ctx)
		if err != nil {
			return nil, err
		}
		challenge.InviteCode = &code
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.challengeRepo.WithTx(tx).Create(ctx, challenge); err != nil {
			if repository.IsDuplicate(err) {
				return fmt.Errorf("%w: invite code already in use", apperror.ErrConflict)
			}
			return err
		}

		if leaderRole == model.LeaderParticipant {
			reason := leaderJoinReason
			participation := &model.Participation{
				UserID:      leaderID,
				ChallengeID: challenge.ID,
				Status:      model.ParticipationJoined,
				JoinReason:  &reason,
			}
			inserted, err := s.participationRepo.WithTx(tx).CreateIfCapacity(ctx, participation, challenge.MaxMembers)
			if err != nil {
				return err
			}
			if !inserted {
				return apperror.ErrCapacityExceeded
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.toResponse(ctx, challenge, &leaderID)
}

func (s *challengeService) GetChallenge(ctx context.Context, viewer *uuid.UUID, challengeID uuid.UUID) (*dto.ChallengeResponse, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	visible, err := s.CanView(ctx, viewer, challenge)
	if err != nil {
		return nil, err
	}
	if !visible {
		// A hidden private challenge looks the same as a missing one.
		return nil, apperror.ErrNotFound
	}

	return s.toResponse(ctx, challenge, viewer)
}

func (s *challengeService) ListChallenges(ctx context.Context, viewer *uuid.UUID, query dto.ChallengeListQuery) (*dto.PaginatedChallengeResponse, error) {
	query.Normalize()

	filter := repository.ChallengeFilter{
		Viewer: viewer,
		Search: query.Search,
		Offset: query.Offset(),
		Limit:  query.Limit,
	}
	if query.Category != "" {
		category := model.ChallengeCategory(query.Category)
		filter.Category = &category
	}
	if query.Status != "" {
		status := model.ChallengeStatus(query.Status)
		filter.Status = &status
	}

	challenges, total, err := s.challengeRepo.FindVisible(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ChallengeResponse, 0, len(challenges))
	for _, challenge := range challenges {
		resp, err := s.toResponse(ctx, challenge, viewer)
		if err != nil {
			return nil, err
		}
		items = append(items, resp)
	}

	return &dto.PaginatedChallengeResponse{
		Challenges: items,
		Pagination: dto.NewPagination(query.Page, query.Limit, total),
	}, nil
}

// GetUserChallenges returns the challenges the user leads plus the ones they
// actively participate in, deduplicated.
func (s *challengeService) GetUserChallenges(ctx context.Context, userID uuid.UUID) ([]*dto.ChallengeResponse, error) {
	led, err := s.challengeRepo.FindByLeader(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(led))
	challenges := make([]*model.Challenge, 0, len(led))
	for _, challenge := range led {
		seen[challenge.ID] = true
		challenges = append(challenges, challenge)
	}

	participations, err := s.participationRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, participation := range participations {
		if seen[participation.ChallengeID] {
			continue
		}
		challenge, err := s.findChallenge(ctx, participation.ChallengeID)
		if err != nil {
			return nil, err
		}
		seen[challenge.ID] = true
		challenges = append(challenges, challenge)
	}

	items := make([]*dto.ChallengeResponse, 0, len(challenges))
	for _, challenge := range challenges {
		resp, err := s.toResponse(ctx, challenge, &userID)
		if err != nil {
			return nil, err
		}
		items = append(items, resp)
	}
	return items, nil
}

func (s *challengeService) UpdateChallenge(ctx context.Context, actorID, challengeID uuid.UUID, req dto.UpdateChallengeRequest) (*dto.ChallengeResponse, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !challenge.IsLeader(actorID) {
		return nil, apperror.ErrForbidden
	}

	if req.Name != nil {
		challenge.Name = *req.Name
	}
	if req.Description != nil {
		challenge.Description = *req.Description
	}
	if req.Category != nil {
		challenge.Category = model.ChallengeCategory(*req.Category)
	}
	if req.Difficulty != nil {
		challenge.Difficulty = model.ChallengeDifficulty(*req.Difficulty)
	}
	if req.Duration != nil {
		challenge.Duration = *req.Duration
	}
	if req.StartDate != nil {
		startDate, err := parseDate(*req.StartDate)
		if err != nil {
			return nil, err
		}
		challenge.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
		challenge.EndDate = endDate
	}
	if req.MaxMembers != nil {
		challenge.MaxMembers = *req.MaxMembers
	}
	if req.CoverImageURL != nil {
		challenge.CoverImageURL = req.CoverImageURL
	}
	if req.Reward != nil {
		challenge.Reward = req.Reward
	}
	if req.Tags != nil {
		challenge.Tags = dto.JoinTags(req.Tags)
	}

	// The merged schedule has to pass the same rules as creation.
	if err := s.validateSchedule(challenge.StartDate, challenge.EndDate, challenge.MaxMembers); err != nil {
		return nil, err
	}

	if err := s.challengeRepo.Save(ctx, challenge); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, challenge, &actorID)
}

func (s *challengeService) JoinChallenge(ctx context.Context, userID, challengeID uuid.UUID, reason *string) (*dto.ChallengeResponse, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, userID, challenge, reason)
}

func (s *challengeService) JoinByInviteCode(ctx context.Context, userID uuid.UUID, req dto.JoinByInviteCodeRequest) (*dto.ChallengeResponse, error) {
	challenge, err := s.findByInviteCode(ctx, req.InviteCode)
	if err != nil {
		return nil, err
	}
	if !challenge.IsPrivate {
		return nil, fmt.Errorf("%w: challenge is not invite-only", apperror.ErrValidation)
	}
	return s.join(ctx, userID, challenge, req.Reason)
}

// GetChallengeByInviteCode resolves a challenge by its invite code; holding
// the code is itself the credential, so the visibility predicate is skipped.
func (s *challengeService) GetChallengeByInviteCode(ctx context.Context, viewer *uuid.UUID, code string) (*dto.ChallengeResponse, error) {
	challenge, err := s.findByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, challenge, viewer)
}

// join runs the shared precondition sequence: RECRUITING status, no prior
// participation, open capacity. The capacity check and the insert run under
// a lock on the challenge row so concurrent joins cannot both take the last
// slot.
func (s *challengeService) join(ctx context.Context, userID uuid.UUID, challenge *model.Challenge, reason *string) (*dto.ChallengeResponse, error) {
	if challenge.Status != model.ChallengeRecruiting {
		return nil, fmt.Errorf("%w: challenge is not recruiting", apperror.ErrInvalidState)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.participationRepo.WithTx(tx)

		exists, err := repo.ExistsByUserAndChallenge(ctx, userID, challenge.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: already a member of this challenge", apperror.ErrConflict)
		}

		participation := &model.Participation{
			UserID:      userID,
			ChallengeID: challenge.ID,
			Status:      model.ParticipationJoined,
			JoinReason:  reason,
		}
		inserted, err := repo.CreateIfCapacity(ctx, participation, challenge.MaxMembers)
		if err != nil {
			if repository.IsDuplicate(err) {
				return fmt.Errorf("%w: already a member of this challenge", apperror.ErrConflict)
			}
			return err
		}
		if !inserted {
			return apperror.ErrCapacityExceeded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if userID != challenge.LeaderID {
		s.notify(ctx, challenge.LeaderID, model.NotificationGroupJoined,
			"New member",
			fmt.Sprintf("A new member joined %q.", challenge.Name),
			challenge.ID)
	}

	return s.toResponse(ctx, challenge, &userID)
}

func (s *challengeService) LeaveChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*dto.ChallengeResponse, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.IsLeader(userID) {
		return nil, fmt.Errorf("%w: the leader cannot leave their own challenge", apperror.ErrForbidden)
	}

	if _, err := s.participationRepo.FindByUserAndChallenge(ctx, userID, challengeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: not a member of this challenge", apperror.ErrNotFound)
		}
		return nil, err
	}

	// The guarded update is the state check: JOINED is the only status it
	// touches, so a second leave (or a racing one) reports invalid state.
	ended, err := s.participationRepo.EndIfJoined(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}
	if !ended {
		return nil, fmt.Errorf("%w: participation already ended", apperror.ErrInvalidState)
	}

	return s.toResponse(ctx, challenge, &userID)
}

func (s *challengeService) ApplyToChallenge(ctx context.Context, userID, challengeID uuid.UUID, reason string) (*dto.ApplicationResponse, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.Status != model.ChallengeRecruiting {
		return nil, fmt.Errorf("%w: challenge is not recruiting", apperror.ErrInvalidState)
	}

	application := &model.ChallengeApplication{
		UserID:      userID,
		ChallengeID: challengeID,
		Reason:      reason,
		Status:      model.ApplicationPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		isMember, err := s.participationRepo.WithTx(tx).ExistsByUserAndChallenge(ctx, userID, challengeID)
		if err != nil {
			return err
		}
		if isMember {
			return fmt.Errorf("%w: already a member of this challenge", apperror.ErrConflict)
		}

		applied, err := s.applicationRepo.WithTx(tx).ExistsByUserAndChallenge(ctx, userID, challengeID)
		if err != nil {
			return err
		}
		if applied {
			return fmt.Errorf("%w: already applied to this challenge", apperror.ErrConflict)
		}

		count, err := s.participationRepo.WithTx(tx).CountActiveByChallenge(ctx, challengeID)
		if err != nil {
			return err
		}
		if count >= int64(challenge.MaxMembers) {
			return apperror.ErrCapacityExceeded
		}

		if err := s.applicationRepo.WithTx(tx).Create(ctx, application); err != nil {
			if repository.IsDuplicate(err) {
				return fmt.Errorf("%w: already applied to this challenge", apperror.ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, challenge.LeaderID, model.NotificationNewApplication,
		"New application",
		fmt.Sprintf("Someone applied to join %q.", challenge.Name),
		challenge.ID)

	return dto.ToApplicationResponse(application), nil
}

func (s *challengeService) UpdateApplicationStatus(ctx context.Context, actorID, challengeID, applicationID uuid.UUID, req dto.UpdateApplicationStatusRequest) (*dto.ApplicationResponse, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !challenge.IsLeader(actorID) {
		return nil, apperror.ErrForbidden
	}

	application, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: application not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	if application.ChallengeID != challengeID {
		return nil, fmt.Errorf("%w: application belongs to a different challenge", apperror.ErrConflict)
	}

	decision := model.ApplicationStatus(req.Status)
	switch decision {
	case model.ApplicationApproved, model.ApplicationRejected:
	case model.ApplicationPending:
		return nil, fmt.Errorf("%w: cannot reset an application to pending", apperror.ErrValidation)
	default:
		return nil, fmt.Errorf("%w: unknown application status %q", apperror.ErrValidation, req.Status)
	}
	if !application.Status.CanTransitionTo(decision) {
		return nil, fmt.Errorf("%w: application already reviewed", apperror.ErrInvalidState)
	}

	now := s.clk.Now()

	switch decision {
	case model.ApplicationApproved:
		err = s.db.Transaction(func(tx *gorm.DB) error {
			// Capacity may have filled since the application was submitted.
			participation := &model.Participation{
				UserID:      application.UserID,
				ChallengeID: challengeID,
				Status:      model.ParticipationJoined,
				JoinReason:  &application.Reason,
			}
			inserted, err := s.participationRepo.WithTx(tx).CreateIfCapacity(ctx, participation, challenge.MaxMembers)
			if err != nil {
				if repository.IsDuplicate(err) {
					return fmt.Errorf("%w: applicant is already a member", apperror.ErrConflict)
				}
				return err
			}
			if !inserted {
				return apperror.ErrCapacityExceeded
			}

			// Losing the guarded update race rolls the insert back too.
			decided, err := s.applicationRepo.WithTx(tx).DecideIfPending(ctx, application.ID, model.ApplicationApproved, nil, now)
			if err != nil {
				return err
			}
			if !decided {
				return fmt.Errorf("%w: application already reviewed", apperror.ErrInvalidState)
			}
			application.Approve(now)
			return nil
		})
		if err != nil {
			return nil, err
		}

		s.notify(ctx, application.UserID, model.NotificationApplicationApproved,
			"Application approved",
			fmt.Sprintf("Your application to %q was approved. Welcome aboard!", challenge.Name),
			challenge.ID)

	case model.ApplicationRejected:
		if req.RejectionReason == nil || isBlank(*req.RejectionReason) {
			return nil, fmt.Errorf("%w: a rejection reason is required", apperror.ErrValidation)
		}
		decided, err := s.applicationRepo.DecideIfPending(ctx, application.ID, model.ApplicationRejected, req.RejectionReason, now)
		if err != nil {
			return nil, err
		}
		if !decided {
			return nil, fmt.Errorf("%w: application already reviewed", apperror.ErrInvalidState)
		}
		application.Reject(*req.RejectionReason, now)

		s.notify(ctx, application.UserID, model.NotificationApplicationRejected,
			"Application rejected",
			fmt.Sprintf("Your application to %q was rejected: %s", challenge.Name, *req.RejectionReason),
			challenge.ID)
	}

	return dto.ToApplicationResponse(application), nil
}

func (s *challengeService) GetChallengeMembers(ctx context.Context, viewer *uuid.UUID, challengeID uuid.UUID) ([]*dto.ChallengeMemberResponse, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	visible, err := s.CanView(ctx, viewer, challenge)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperror.ErrNotFound
	}

	participations, err := s.participationRepo.FindActiveByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	members := make([]*dto.ChallengeMemberResponse, 0, len(participations))
	for _, participation := range participations {
		members = append(members, &dto.ChallengeMemberResponse{
			User:       dto.ToUserResponse(&participation.User),
			IsLeader:   challenge.IsLeader(participation.UserID),
			JoinReason: participation.JoinReason,
			JoinedAt:   participation.CreatedAt,
		})
	}
	return members, nil
}

func (s *challengeService) GetChallengeApplications(ctx context.Context, actorID, challengeID uuid.UUID, status string, page dto.PageQuery) (*dto.PaginatedApplicationResponse, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !challenge.IsLeader(actorID) {
		return nil, apperror.ErrForbidden
	}

	page.Normalize()
	applications, total, err := s.applicationRepo.FindByChallenge(ctx, challengeID, parseApplicationStatus(status), page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}
	return paginateApplications(applications, page, total), nil
}

func (s *challengeService) GetUserApplications(ctx context.Context, userID uuid.UUID, status string, page dto.PageQuery) (*dto.PaginatedApplicationResponse, error) {
	page.Normalize()
	applications, total, err := s.applicationRepo.FindByUser(ctx, userID, parseApplicationStatus(status), page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}
	return paginateApplications(applications, page, total), nil
}

// CanView implements the visibility predicate: public challenges are visible
// to everyone; private ones only to the leader or an active participant.
func (s *challengeService) CanView(ctx context.Context, viewer *uuid.UUID, challenge *model.Challenge) (bool, error) {
	if !challenge.IsPrivate {
		return true, nil
	}
	if viewer == nil {
		return false, nil
	}
	if challenge.IsLeader(*viewer) {
		return true, nil
	}
	return s.participationRepo.ExistsActive(ctx, *viewer, challenge.ID)
}

func (s *challengeService) findChallenge(ctx context.Context, challengeID uuid.UUID) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: challenge not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	return challenge, nil
}

func (s *challengeService) findByInviteCode(ctx context.Context, code string) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid invite code", apperror.ErrNotFound)
		}
		return nil, err
	}
	return challenge, nil
}

func (s *challengeService) toResponse(ctx context.Context, challenge *model.Challenge, viewer *uuid.UUID) (*dto.ChallengeResponse, error) {
	count, err := s.participationRepo.CountActiveByChallenge(ctx, challenge.ID)
	if err != nil {
		return nil, err
	}
	return dto.ToChallengeResponse(challenge, count, viewer), nil
}

func (s *challengeService) validateSchedule(startDate, endDate time.Time, maxMembers int) error {
	now := s.clk.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, startDate.Location())
	if startDate.Before(today) {
		return fmt.Errorf("%w: start date must not be in the past", apperror.ErrValidation)
	}
	if !endDate.After(startDate) {
		return fmt.Errorf("%w: end date must be after start date", apperror.ErrValidation)
	}
	if maxMembers < 2 || maxMembers > 1000 {
		return fmt.Errorf("%w: max members must be between 2 and 1000", apperror.ErrValidation)
	}
	return nil
}

// generateInviteCode draws 8 characters from [A-Z0-9], retrying a bounded
// number of times on collision. The unique index is the final arbiter.
func (s *challengeService) generateInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code := make([]byte, inviteCodeLength)
		for i := range code {
			code[i] = inviteCodeCharset[rand.IntN(len(inviteCodeCharset))]
		}

		exists, err := s.challengeRepo.ExistsByInviteCode(ctx, string(code))
		if err != nil {
			return "", err
		}
		if !exists {
			return string(code), nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a unique invite code", apperror.ErrConflict)
}

func (s *challengeService) notify(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, challengeID uuid.UUID) {
	relatedID := challengeID.String()
	actionURL := fmt.Sprintf("/challenges/%s", challengeID)
	if err := s.notifier.Notify(ctx, userID, kind, title, message, &relatedID, &actionURL); err != nil {
		log.Printf("notify %s failed for user %s: %v", kind, userID, err)
	}
}

func parseSchedule(start, end string) (time.Time, time.Time, error) {
	startDate, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startDate, endDate, nil
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dto.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", apperror.ErrValidation, value)
	}
	return parsed, nil
}

func parseApplicationStatus(status string) *model.ApplicationStatus {
	if status == "" {
		return nil
	}
	parsed := model.ApplicationStatus(status)
	return &parsed
}

func paginateApplications(applications []*model.ChallengeApplication, page dto.PageQuery, total int64) *dto.PaginatedApplicationResponse {
	items := make([]*dto.ApplicationResponse, 0, len(applications))
	for _, application := range applications {
		items = append(items, dto.ToApplicationResponse(application))
	}
	return &dto.PaginatedApplicationResponse{
		Applications: items,
		Pagination:   dto.NewPagination(page.Page, page.Limit, total),
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
