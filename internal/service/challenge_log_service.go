package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/internal/repository"
	"github.com/rakarizky/habitlink/pkg/apperror"
	"gorm.io/gorm"
)

type ChallengeLogService interface {
	CreateChallengeLog(ctx context.Context, userID uuid.UUID, req dto.CreateChallengeLogRequest) (*dto.ChallengeLogResponse, error)
	GetChallengeLog(ctx context.Context, viewer *uuid.UUID, logID uuid.UUID) (*dto.ChallengeLogResponse, error)
	GetChallengeLogs(ctx context.Context, viewer *uuid.UUID, query dto.ChallengeLogListQuery) (*dto.PaginatedChallengeLogResponse, error)
	ApproveChallengeLog(ctx context.Context, actorID, logID uuid.UUID, comment *string) (*dto.ChallengeLogResponse, error)
	RejectChallengeLog(ctx context.Context, actorID, logID uuid.UUID, comment string) (*dto.ChallengeLogResponse, error)
}

type challengeLogService struct {
	logRepo           repository.ChallengeLogRepository
	challengeRepo     repository.ChallengeRepository
	participationRepo repository.ParticipationRepository
	notifier          Notifier
	challengeService  ChallengeService
}

func NewChallengeLogService(
	logRepo repository.ChallengeLogRepository,
	challengeRepo repository.ChallengeRepository,
	participationRepo repository.ParticipationRepository,
	notifier Notifier,
	challengeService ChallengeService,
) ChallengeLogService {
	return &challengeLogService{
		logRepo:           logRepo,
		challengeRepo:     challengeRepo,
		participationRepo: participationRepo,
		notifier:          notifier,
		challengeService:  challengeService,
	}
}

func (s *challengeLogService) CreateChallengeLog(ctx context.Context, userID uuid.UUID, req dto.CreateChallengeLogRequest) (*dto.ChallengeLogResponse, error) {
	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid challenge id", apperror.ErrValidation)
	}

	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: challenge not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	// Only active members submit logs. A manager-role leader who never
	// joined has no participation row and cannot log.
	isMember, err := s.participationRepo.ExistsActive(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: only active members can submit logs", apperror.ErrForbidden)
	}

	challengeLog := &model.ChallengeLog{
		UserID:      userID,
		ChallengeID: challengeID,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		Status:      model.LogPending,
	}
	if err := s.logRepo.Create(ctx, challengeLog); err != nil {
		return nil, err
	}

	if userID != challenge.LeaderID {
		s.notifyLog(ctx, challenge.LeaderID, model.NotificationNewChallengeLog,
			"New log submitted",
			fmt.Sprintf("A member submitted a log for %q.", challenge.Name),
			challengeLog)
	}

	return dto.ToChallengeLogResponse(challengeLog), nil
}

func (s *challengeLogService) GetChallengeLog(ctx context.Context, viewer *uuid.UUID, logID uuid.UUID) (*dto.ChallengeLogResponse, error) {
	challengeLog, err := s.findLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisible(ctx, viewer, &challengeLog.Challenge); err != nil {
		return nil, err
	}
	return dto.ToChallengeLogResponse(challengeLog), nil
}

func (s *challengeLogService) GetChallengeLogs(ctx context.Context, viewer *uuid.UUID, query dto.ChallengeLogListQuery) (*dto.PaginatedChallengeLogResponse, error) {
	query.Normalize()

	filter := repository.LogFilter{
		Offset: query.Offset(),
		Limit:  query.Limit,
	}
	if query.ChallengeID != "" {
		challengeID, err := uuid.Parse(query.ChallengeID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid challenge id", apperror.ErrValidation)
		}
		challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: challenge not found", apperror.ErrNotFound)
			}
			return nil, err
		}
		if err := s.requireVisible(ctx, viewer, challenge); err != nil {
			return nil, err
		}
		filter.ChallengeID = &challengeID
	} else {
		// Without a challenge filter the listing spans all challenges, so
		// the visibility rule moves into the query itself.
		filter.VisibleOnly = true
		filter.Viewer = viewer
	}
	if query.UserID != "" {
		userID, err := uuid.Parse(query.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid user id", apperror.ErrValidation)
		}
		filter.UserID = &userID
	}
	if query.Status != "" {
		status := model.LogStatus(query.Status)
		filter.Status = &status
	}

	logs, total, err := s.logRepo.FindWithFilters(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ChallengeLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, dto.ToChallengeLogResponse(l))
	}

	return &dto.PaginatedChallengeLogResponse{
		Logs:       items,
		Pagination: dto.NewPagination(query.Page, query.Limit, total),
	}, nil
}

func (s *challengeLogService) ApproveChallengeLog(ctx context.Context, actorID, logID uuid.UUID, comment *string) (*dto.ChallengeLogResponse, error) {
	challengeLog, err := s.findReviewable(ctx, actorID, logID)
	if err != nil {
		return nil, err
	}

	decided, err := s.logRepo.DecideIfPending(ctx, challengeLog.ID, model.LogApproved, comment)
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, fmt.Errorf("%w: log already reviewed", apperror.ErrInvalidState)
	}
	challengeLog.Status = model.LogApproved
	challengeLog.RejectionComment = comment

	s.notifyLog(ctx, challengeLog.UserID, model.NotificationChallengeApproved,
		"Log approved",
		fmt.Sprintf("Your log for %q was approved.", challengeLog.Challenge.Name),
		challengeLog)

	return dto.ToChallengeLogResponse(challengeLog), nil
}

func (s *challengeLogService) RejectChallengeLog(ctx context.Context, actorID, logID uuid.UUID, comment string) (*dto.ChallengeLogResponse, error) {
	if isBlank(comment) {
		return nil, fmt.Errorf("%w: a rejection comment is required", apperror.ErrValidation)
	}

	challengeLog, err := s.findReviewable(ctx, actorID, logID)
	if err != nil {
		return nil, err
	}

	decided, err := s.logRepo.DecideIfPending(ctx, challengeLog.ID, model.LogRejected, &comment)
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, fmt.Errorf("%w: log already reviewed", apperror.ErrInvalidState)
	}
	challengeLog.Status = model.LogRejected
	challengeLog.RejectionComment = &comment

	s.notifyLog(ctx, challengeLog.UserID, model.NotificationChallengeRejected,
		"Log rejected",
		fmt.Sprintf("Your log for %q was rejected: %s", challengeLog.Challenge.Name, comment),
		challengeLog)

	return dto.ToChallengeLogResponse(challengeLog), nil
}

// findReviewable loads the log and enforces the review preconditions:
// only the challenge leader decides, and only while the log is PENDING.
// The PENDING check here is a fast path; the guarded update in the caller
// is what keeps concurrent decisions from both landing.
func (s *challengeLogService) findReviewable(ctx context.Context, actorID, logID uuid.UUID) (*model.ChallengeLog, error) {
	challengeLog, err := s.findLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if !challengeLog.Challenge.IsLeader(actorID) {
		return nil, fmt.Errorf("%w: only the challenge leader can review logs", apperror.ErrForbidden)
	}
	if !challengeLog.IsPending() {
		return nil, fmt.Errorf("%w: log already reviewed", apperror.ErrInvalidState)
	}
	return challengeLog, nil
}

func (s *challengeLogService) findLog(ctx context.Context, logID uuid.UUID) (*model.ChallengeLog, error) {
	challengeLog, err := s.logRepo.FindByID(ctx, logID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: log not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	return challengeLog, nil
}

func (s *challengeLogService) requireVisible(ctx context.Context, viewer *uuid.UUID, challenge *model.Challenge) error {
	visible, err := s.challengeService.CanView(ctx, viewer, challenge)
	if err != nil {
		return err
	}
	if !visible {
		return apperror.ErrNotFound
	}
	return nil
}

func (s *challengeLogService) notifyLog(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, challengeLog *model.ChallengeLog) {
	relatedID := challengeLog.ID.String()
	actionURL := fmt.Sprintf("/challenges/%s/logs", challengeLog.ChallengeID)
	if err := s.notifier.Notify(ctx, userID, kind, title, message, &relatedID, &actionURL); err != nil {
		log.Printf("notify %s failed for user %s: %v", kind, userID, err)
	}
}
