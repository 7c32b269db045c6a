package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/internal/repository"
	"github.com/rakarizky/habitlink/pkg/apperror"
	"github.com/rakarizky/habitlink/pkg/clock"
	"gorm.io/gorm"
)

// StatsService derives read-only statistics from participations and logs.
// Nothing here mutates state.
type StatsService interface {
	GetMemberStats(ctx context.Context, requesterID, challengeID uuid.UUID) (*dto.ChallengeStatsResponse, error)
	GetParticipationSeries(ctx context.Context, requesterID, challengeID uuid.UUID, query dto.ParticipationSeriesQuery) ([]*dto.ParticipationDayResponse, error)
}

type statsService struct {
	challengeRepo     repository.ChallengeRepository
	participationRepo repository.ParticipationRepository
	logRepo           repository.ChallengeLogRepository
	challengeService  ChallengeService
	clk               clock.Clock
}

func NewStatsService(
	challengeRepo repository.ChallengeRepository,
	participationRepo repository.ParticipationRepository,
	logRepo repository.ChallengeLogRepository,
	challengeService ChallengeService,
	clk clock.Clock,
) StatsService {
	return &statsService{
		challengeRepo:     challengeRepo,
		participationRepo: participationRepo,
		logRepo:           logRepo,
		challengeService:  challengeService,
		clk:               clk,
	}
}

func (s *statsService) GetMemberStats(ctx context.Context, requesterID, challengeID uuid.UUID) (*dto.ChallengeStatsResponse, error) {
	challenge, err := s.visibleChallenge(ctx, requesterID, challengeID)
	if err != nil {
		return nil, err
	}

	participations, err := s.participationRepo.FindActiveByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	members := make([]*dto.MemberStatsResponse, 0, len(participations))
	for _, participation := range participations {
		logs, err := s.logRepo.FindByUserAndChallenge(ctx, participation.UserID, challengeID)
		if err != nil {
			return nil, err
		}

		var approved []time.Time
		var lastSubmission *time.Time
		for _, l := range logs {
			if l.Status == model.LogApproved {
				approved = append(approved, l.CreatedAt)
			}
			createdAt := l.CreatedAt
			if lastSubmission == nil || createdAt.After(*lastSubmission) {
				lastSubmission = &createdAt
			}
		}

		total := len(logs)
		rate := 0.0
		if total > 0 {
			rate = float64(len(approved)) / float64(total) * 100
		}

		members = append(members, &dto.MemberStatsResponse{
			User:                dto.ToUserResponse(&participation.User),
			TotalSubmissions:    total,
			ApprovedSubmissions: len(approved),
			AchievementRate:     rate,
			Streak:              trailingStreak(approved),
			LastSubmissionDate:  lastSubmission,
		})
	}

	return &dto.ChallengeStatsResponse{
		ChallengeID:   challenge.ID,
		ActiveMembers: len(participations),
		Members:       members,
	}, nil
}

func (s *statsService) GetParticipationSeries(ctx context.Context, requesterID, challengeID uuid.UUID, query dto.ParticipationSeriesQuery) ([]*dto.ParticipationDayResponse, error) {
	challenge, err := s.visibleChallenge(ctx, requesterID, challengeID)
	if err != nil {
		return nil, err
	}

	startDate, endDate, err := s.seriesRange(challenge, query)
	if err != nil {
		return nil, err
	}
	if endDate.Before(startDate) {
		return []*dto.ParticipationDayResponse{}, nil
	}

	var userFilter *uuid.UUID
	if query.UserID != "" {
		parsed, err := uuid.Parse(query.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid user id", apperror.ErrValidation)
		}
		userFilter = &parsed
	}

	totalMembers, err := s.participationRepo.CountActiveByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	logs, err := s.logRepo.FindByChallengeBetween(ctx, challengeID, startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	type dayBucket struct {
		submitters map[uuid.UUID]bool
	}
	buckets := make(map[string]*dayBucket)
	for _, l := range logs {
		key := l.CreatedAt.Format(dto.DateLayout)
		bucket, ok := buckets[key]
		if !ok {
			bucket = &dayBucket{submitters: make(map[uuid.UUID]bool)}
			buckets[key] = bucket
		}
		bucket.submitters[l.UserID] = true
	}

	series := make([]*dto.ParticipationDayResponse, 0)
	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		key := day.Format(dto.DateLayout)

		rate := 0.0
		submissions := 0
		var userSubmitted *bool

		if bucket, ok := buckets[key]; ok {
			if totalMembers > 0 {
				rate = float64(len(bucket.submitters)) / float64(totalMembers) * 100
			}
			// Per-day submissions are counted against the requesting
			// caller, independent of the user filter.
			submissions = s.countUserLogs(logs, requesterID, key)
			if userFilter != nil {
				submitted := bucket.submitters[*userFilter]
				userSubmitted = &submitted
			}
		} else if userFilter != nil {
			submitted := false
			userSubmitted = &submitted
		}

		series = append(series, &dto.ParticipationDayResponse{
			Date:              key,
			ParticipationRate: rate,
			Submissions:       submissions,
			UserSubmitted:     userSubmitted,
		})
	}

	return series, nil
}

func (s *statsService) countUserLogs(logs []*model.ChallengeLog, userID uuid.UUID, dayKey string) int {
	count := 0
	for _, l := range logs {
		if l.UserID == userID && l.CreatedAt.Format(dto.DateLayout) == dayKey {
			count++
		}
	}
	return count
}

func (s *statsService) seriesRange(challenge *model.Challenge, query dto.ParticipationSeriesQuery) (time.Time, time.Time, error) {
	startDate := truncateToDay(challenge.StartDate)
	today := truncateToDay(s.clk.Now())
	endDate := truncateToDay(challenge.EndDate)
	if today.Before(endDate) {
		endDate = today
	}

	if query.StartDate != "" {
		parsed, err := parseDate(query.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		startDate = parsed
	}
	if query.EndDate != "" {
		parsed, err := parseDate(query.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		endDate = parsed
	}

	return startDate, endDate, nil
}

// trailingStreak counts the run of consecutive calendar days with an approved
// log, ending at the most recent approved date. Input must be ascending by
// creation time. Same-day duplicates neither break nor extend the run; any
// gap longer than one day restarts it.
func trailingStreak(approved []time.Time) int {
	if len(approved) == 0 {
		return 0
	}

	run := 1
	prev := truncateToDay(approved[0])
	for _, t := range approved[1:] {
		day := truncateToDay(t)
		switch {
		case day.Equal(prev):
			// duplicate same-day log
		case day.Equal(prev.AddDate(0, 0, 1)):
			run++
			prev = day
		default:
			run = 1
			prev = day
		}
	}
	return run
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *statsService) visibleChallenge(ctx context.Context, requesterID, challengeID uuid.UUID) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: challenge not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	visible, err := s.challengeService.CanView(ctx, &requesterID, challenge)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperror.ErrNotFound
	}
	return challenge, nil
}
