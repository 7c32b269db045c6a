package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/internal/repository"
	"github.com/rakarizky/habitlink/pkg/clock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testNow is "today" for every service test; challenge dates are laid out
// around it.
var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every pooled connection opens its own empty in-memory database, so
	// pin the pool to a single connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Challenge{},
		&model.Participation{},
		&model.ChallengeApplication{},
		&model.ChallengeLog{},
		&model.Notification{},
		&model.PasswordResetToken{},
	))
	return db
}

// recordingNotifier captures notifications instead of delivering them.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []recordedNotification
}

type recordedNotification struct {
	UserID uuid.UUID
	Kind   model.NotificationType
	Title  string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, relatedID, actionURL *string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, recordedNotification{UserID: userID, Kind: kind, Title: title})
	return nil
}

func (n *recordingNotifier) sentTo(userID uuid.UUID, kind model.NotificationType) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, call := range n.calls {
		if call.UserID == userID && call.Kind == kind {
			return true
		}
	}
	return false
}

type testEnv struct {
	db                *gorm.DB
	challengeRepo     repository.ChallengeRepository
	participationRepo repository.ParticipationRepository
	applicationRepo   repository.ApplicationRepository
	logRepo           repository.ChallengeLogRepository
	userRepo          repository.UserRepository
	notifier          *recordingNotifier
	challenges        ChallengeService
	logs              ChallengeLogService
	stats             StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	notifier := &recordingNotifier{}
	clk := clock.Fixed(testNow)

	challengeRepo := repository.NewChallengeRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	logRepo := repository.NewChallengeLogRepository(db)

	challenges := NewChallengeService(db, challengeRepo, participationRepo, applicationRepo, notifier, clk)
	logs := NewChallengeLogService(logRepo, challengeRepo, participationRepo, notifier, challenges)
	stats := NewStatsService(challengeRepo, participationRepo, logRepo, challenges, clk)

	return &testEnv{
		db:                db,
		challengeRepo:     challengeRepo,
		participationRepo: participationRepo,
		applicationRepo:   applicationRepo,
		logRepo:           logRepo,
		userRepo:          repository.NewUserRepository(db),
		notifier:          notifier,
		challenges:        challenges,
		logs:              logs,
		stats:             stats,
	}
}

func (e *testEnv) createUser(t *testing.T, nickname string) *model.User {
	t.Helper()

	user := &model.User{
		Email:        nickname + "@example.com",
		LoginID:      nickname,
		PasswordHash: "x",
		Nickname:     nickname,
		Role:         model.RoleMember,
		IsActive:     true,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

func defaultChallengeRequest() dto.CreateChallengeRequest {
	return dto.CreateChallengeRequest{
		Name:        "Morning run",
		Description: "Run every morning before work",
		Category:    "HEALTH",
		Difficulty:  "MEDIUM",
		Duration:    30,
		StartDate:   "2024-01-15",
		EndDate:     "2024-02-14",
		MaxMembers:  10,
	}
}

func (e *testEnv) createChallenge(t *testing.T, leaderID uuid.UUID, mutate func(*dto.CreateChallengeRequest)) *dto.ChallengeResponse {
	t.Helper()

	req := defaultChallengeRequest()
	if mutate != nil {
		mutate(&req)
	}
	resp, err := e.challenges.CreateChallenge(context.Background(), leaderID, req)
	require.NoError(t, err)
	return resp
}

// setChallengeStatus flips the status column directly, bypassing the
// transition table, to stage lifecycle scenarios.
func (e *testEnv) setChallengeStatus(t *testing.T, challengeID uuid.UUID, status model.ChallengeStatus) {
	t.Helper()
	require.NoError(t, e.db.Model(&model.Challenge{}).
		Where("id = ?", challengeID).
		Update("status", status).Error)
}

// insertLog writes a log row with an explicit creation time, which gorm's
// autoCreateTime would otherwise overwrite.
func (e *testEnv) insertLog(t *testing.T, userID, challengeID uuid.UUID, status model.LogStatus, createdAt time.Time) {
	t.Helper()

	id, err := uuid.NewV7()
	require.NoError(t, err)
	require.NoError(t, e.db.Exec(
		`INSERT INTO challenge_logs (id, user_id, challenge_id, content, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, challengeID, "done", status, createdAt, createdAt,
	).Error)
}
