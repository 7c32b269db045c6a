package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChallengeValidation(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*dto.CreateChallengeRequest)
	}{
		{"start date in the past", func(r *dto.CreateChallengeRequest) { r.StartDate = "2024-01-09" }},
		{"end date before start date", func(r *dto.CreateChallengeRequest) { r.EndDate = "2024-01-14" }},
		{"end date equals start date", func(r *dto.CreateChallengeRequest) { r.EndDate = r.StartDate }},
		{"max members too small", func(r *dto.CreateChallengeRequest) { r.MaxMembers = 1 }},
		{"max members too large", func(r *dto.CreateChallengeRequest) { r.MaxMembers = 1001 }},
		{"malformed date", func(r *dto.CreateChallengeRequest) { r.StartDate = "15-01-2024" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := defaultChallengeRequest()
			tc.mutate(&req)
			_, err := env.challenges.CreateChallenge(ctx, leader.ID, req)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	// startDate == today is allowed
	req := defaultChallengeRequest()
	req.StartDate = "2024-01-10"
	_, err := env.challenges.CreateChallenge(ctx, leader.ID, req)
	assert.NoError(t, err)
}

func TestCreateChallengeLeaderAutoJoin(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, nil)
	assert.Equal(t, model.ChallengeRecruiting, resp.Status)
	assert.Equal(t, int64(1), resp.CurrentMembers)

	participation, err := env.participationRepo.FindByUserAndChallenge(ctx, leader.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ParticipationJoined, participation.Status)
	require.NotNil(t, participation.JoinReason)
	assert.Equal(t, leaderJoinReason, *participation.JoinReason)
}

func TestCreateChallengeManagerLeaderDoesNotJoin(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")

	resp := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.LeaderRole = "MANAGER"
	})
	assert.Equal(t, model.LeaderManager, resp.LeaderRole)
	assert.Equal(t, int64(0), resp.CurrentMembers)
}

func TestCreateChallengePrivateGetsInviteCode(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")

	resp := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.IsPrivate = true
	})
	require.NotNil(t, resp.InviteCode)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), *resp.InviteCode)
}

func TestJoinChallengeCapacity(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	userB := env.createUser(t, "bella")
	userC := env.createUser(t, "chris")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.MaxMembers = 2
	})

	// leader auto-joined, so one slot remains
	joined, err := env.challenges.JoinChallenge(ctx, userB.ID, resp.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), joined.CurrentMembers)

	_, err = env.challenges.JoinChallenge(ctx, userC.ID, resp.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrCapacityExceeded)

	count, err := env.participationRepo.CountActiveByChallenge(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestJoinChallengeConcurrent(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	ctx := context.Background()

	// leader auto-joined, so two slots remain
	resp := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.MaxMembers = 3
	})

	const racers = 6
	users := make([]*model.User, racers)
	for i := range users {
		users[i] = env.createUser(t, fmt.Sprintf("racer%d", i))
	}

	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = env.challenges.JoinChallenge(ctx, userID, resp.ID, nil)
		}(i, user.ID)
	}
	wg.Wait()

	var joined, full int
	for _, err := range errs {
		switch {
		case err == nil:
			joined++
		default:
			require.ErrorIs(t, err, apperror.ErrCapacityExceeded)
			full++
		}
	}
	assert.Equal(t, 2, joined)
	assert.Equal(t, racers-2, full)

	count, err := env.participationRepo.CountActiveByChallenge(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestJoinChallengePreconditions(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	member := env.createUser(t, "member")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, nil)

	_, err := env.challenges.JoinChallenge(ctx, member.ID, resp.ID, nil)
	require.NoError(t, err)

	// duplicate join
	_, err = env.challenges.JoinChallenge(ctx, member.ID, resp.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// joining once the challenge is no longer recruiting
	env.setChallengeStatus(t, resp.ID, model.ChallengeActive)
	stranger := env.createUser(t, "stranger")
	_, err = env.challenges.JoinChallenge(ctx, stranger.ID, resp.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	// unknown challenge
	unknown := env.createUser(t, "unknown")
	_, err = env.challenges.JoinChallenge(ctx, unknown.ID, unknown.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLeaveChallenge(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	member := env.createUser(t, "member")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, nil)
	_, err := env.challenges.JoinChallenge(ctx, member.ID, resp.ID, nil)
	require.NoError(t, err)

	// the leader can never leave
	_, err = env.challenges.LeaveChallenge(ctx, leader.ID, resp.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// a non-member has nothing to leave
	stranger := env.createUser(t, "stranger")
	_, err = env.challenges.LeaveChallenge(ctx, stranger.ID, resp.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	left, err := env.challenges.LeaveChallenge(ctx, member.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), left.CurrentMembers)

	// the row stays, flipped to LEFT
	participation, err := env.participationRepo.FindByUserAndChallenge(ctx, member.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ParticipationLeft, participation.Status)

	// leaving twice fails, never silently succeeds
	_, err = env.challenges.LeaveChallenge(ctx, member.ID, resp.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	// LEFT is terminal for the pair: rejoining is a conflict
	_, err = env.challenges.JoinChallenge(ctx, member.ID, resp.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestJoinByInviteCode(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	member := env.createUser(t, "member")
	ctx := context.Background()

	private := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.IsPrivate = true
	})
	require.NotNil(t, private.InviteCode)

	// wrong code
	_, err := env.challenges.JoinByInviteCode(ctx, member.ID, dto.JoinByInviteCodeRequest{InviteCode: "NOPE0000"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// correct code creates exactly one participation
	joined, err := env.challenges.JoinByInviteCode(ctx, member.ID, dto.JoinByInviteCodeRequest{InviteCode: *private.InviteCode})
	require.NoError(t, err)
	assert.Equal(t, int64(2), joined.CurrentMembers)

	// a public challenge is not joinable through the invite path even if a
	// code is somehow present on the row
	public := env.createChallenge(t, leader.ID, nil)
	require.NoError(t, env.db.Model(&model.Challenge{}).
		Where("id = ?", public.ID).
		Update("invite_code", "PUBCODE1").Error)
	_, err = env.challenges.JoinByInviteCode(ctx, member.ID, dto.JoinByInviteCodeRequest{InviteCode: "PUBCODE1"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestApplyToChallenge(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	applicant := env.createUser(t, "applicant")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, nil)

	application, err := env.challenges.ApplyToChallenge(ctx, applicant.ID, resp.ID, "let me in")
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationPending, application.Status)
	assert.True(t, env.notifier.sentTo(leader.ID, model.NotificationNewApplication))

	// one application per pair, ever
	_, err = env.challenges.ApplyToChallenge(ctx, applicant.ID, resp.ID, "again")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// members cannot apply
	member := env.createUser(t, "member")
	_, err = env.challenges.JoinChallenge(ctx, member.ID, resp.ID, nil)
	require.NoError(t, err)
	_, err = env.challenges.ApplyToChallenge(ctx, member.ID, resp.ID, "already in")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// applications close with recruiting
	env.setChallengeStatus(t, resp.ID, model.ChallengeActive)
	late := env.createUser(t, "late")
	_, err = env.challenges.ApplyToChallenge(ctx, late.ID, resp.ID, "too late")
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestUpdateApplicationStatusReject(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	applicant := env.createUser(t, "applicant")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, nil)
	application, err := env.challenges.ApplyToChallenge(ctx, applicant.ID, resp.ID, "let me in")
	require.NoError(t, err)

	// blank reason
	blank := "   "
	_, err = env.challenges.UpdateApplicationStatus(ctx, leader.ID, resp.ID, application.ID, dto.UpdateApplicationStatusRequest{
		Status:          "REJECTED",
		RejectionReason: &blank,
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// only the leader decides
	_, err = env.challenges.UpdateApplicationStatus(ctx, applicant.ID, resp.ID, application.ID, dto.UpdateApplicationStatusRequest{Status: "APPROVED"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// resetting to pending is never allowed
	_, err = env.challenges.UpdateApplicationStatus(ctx, leader.ID, resp.ID, application.ID, dto.UpdateApplicationStatusRequest{Status: "PENDING"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	reason := "not a good fit"
	rejected, err := env.challenges.UpdateApplicationStatus(ctx, leader.ID, resp.ID, application.ID, dto.UpdateApplicationStatusRequest{
		Status:          "REJECTED",
		RejectionReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, reason, *rejected.RejectionReason)
	assert.NotNil(t, rejected.ReviewedAt)
	assert.True(t, env.notifier.sentTo(applicant.ID, model.NotificationApplicationRejected))

	// terminal once resolved
	_, err = env.challenges.UpdateApplicationStatus(ctx, leader.ID, resp.ID, application.ID, dto.UpdateApplicationStatusRequest{Status: "APPROVED"})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestUpdateApplicationStatusApprove(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	applicant := env.createUser(t, "applicant")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, nil)
	application, err := env.challenges.ApplyToChallenge(ctx, applicant.ID, resp.ID, "let me in")
	require.NoError(t, err)

	approved, err := env.challenges.UpdateApplicationStatus(ctx, leader.ID, resp.ID, application.ID, dto.UpdateApplicationStatusRequest{Status: "APPROVED"})
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationApproved, approved.Status)
	assert.True(t, env.notifier.sentTo(applicant.ID, model.NotificationApplicationApproved))

	participation, err := env.participationRepo.FindByUserAndChallenge(ctx, applicant.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ParticipationJoined, participation.Status)
}

func TestUpdateApplicationStatusApproveRechecksCapacity(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	applicant := env.createUser(t, "applicant")
	filler := env.createUser(t, "filler")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.MaxMembers = 2
	})

	application, err := env.challenges.ApplyToChallenge(ctx, applicant.ID, resp.ID, "let me in")
	require.NoError(t, err)

	// the last slot fills while the application is pending
	_, err = env.challenges.JoinChallenge(ctx, filler.ID, resp.ID, nil)
	require.NoError(t, err)

	_, err = env.challenges.UpdateApplicationStatus(ctx, leader.ID, resp.ID, application.ID, dto.UpdateApplicationStatusRequest{Status: "APPROVED"})
	assert.ErrorIs(t, err, apperror.ErrCapacityExceeded)
}

func TestUpdateApplicationStatusWrongChallenge(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	applicant := env.createUser(t, "applicant")
	ctx := context.Background()

	first := env.createChallenge(t, leader.ID, nil)
	second := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.Name = "Evening reading"
	})

	application, err := env.challenges.ApplyToChallenge(ctx, applicant.ID, first.ID, "let me in")
	require.NoError(t, err)

	_, err = env.challenges.UpdateApplicationStatus(ctx, leader.ID, second.ID, application.ID, dto.UpdateApplicationStatusRequest{Status: "APPROVED"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUpdateChallengePartial(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	other := env.createUser(t, "other")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, nil)

	// only the leader edits
	name := "Renamed"
	_, err := env.challenges.UpdateChallenge(ctx, other.ID, resp.ID, dto.UpdateChallengeRequest{Name: &name})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := env.challenges.UpdateChallenge(ctx, leader.ID, resp.ID, dto.UpdateChallengeRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	// untouched fields keep their values
	assert.Equal(t, resp.Description, updated.Description)
	assert.Equal(t, resp.MaxMembers, updated.MaxMembers)

	// the merged schedule is re-validated
	badEnd := "2024-01-01"
	_, err = env.challenges.UpdateChallenge(ctx, leader.ID, resp.ID, dto.UpdateChallengeRequest{EndDate: &badEnd})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	badMax := 1
	_, err = env.challenges.UpdateChallenge(ctx, leader.ID, resp.ID, dto.UpdateChallengeRequest{MaxMembers: &badMax})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestVisibility(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	member := env.createUser(t, "member")
	stranger := env.createUser(t, "stranger")
	ctx := context.Background()

	env.createChallenge(t, leader.ID, nil)
	private := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.Name = "Secret club"
		r.IsPrivate = true
	})
	_, err := env.challenges.JoinByInviteCode(ctx, member.ID, dto.JoinByInviteCodeRequest{InviteCode: *private.InviteCode})
	require.NoError(t, err)

	listed := func(viewer *uuid.UUID) []string {
		page, err := env.challenges.ListChallenges(ctx, viewer, dto.ChallengeListQuery{})
		require.NoError(t, err)
		var names []string
		for _, c := range page.Challenges {
			names = append(names, c.Name)
		}
		return names
	}

	// anonymous callers never see a private challenge
	assert.NotContains(t, listed(nil), "Secret club")

	// a joined member and the leader do
	assert.Contains(t, listed(&member.ID), "Secret club")
	assert.Contains(t, listed(&leader.ID), "Secret club")

	// an authenticated non-member does not
	assert.NotContains(t, listed(&stranger.ID), "Secret club")

	// direct lookup hides it the same way
	_, err = env.challenges.GetChallenge(ctx, nil, private.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	strangerID := stranger.ID
	_, err = env.challenges.GetChallenge(ctx, &strangerID, private.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	memberID := member.ID
	challenge, err := env.challenges.GetChallenge(ctx, &memberID, private.ID)
	require.NoError(t, err)
	assert.Equal(t, "Secret club", challenge.Name)
}

func TestInviteCodeLookupBypassesVisibility(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	ctx := context.Background()

	private := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.IsPrivate = true
	})

	// holding the code is the credential, anonymous included
	challenge, err := env.challenges.GetChallengeByInviteCode(ctx, nil, *private.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, private.ID, challenge.ID)
}

func TestGetUserChallenges(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	member := env.createUser(t, "member")
	ctx := context.Background()

	led := env.createChallenge(t, leader.ID, nil)
	joined := env.createChallenge(t, member.ID, func(r *dto.CreateChallengeRequest) {
		r.Name = "Member's own"
	})
	_, err := env.challenges.JoinChallenge(ctx, member.ID, led.ID, nil)
	require.NoError(t, err)

	mine, err := env.challenges.GetUserChallenges(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	ids := []string{mine[0].ID.String(), mine[1].ID.String()}
	assert.Contains(t, ids, led.ID.String())
	assert.Contains(t, ids, joined.ID.String())
}

// The conditional writes behind leaving and application review fire at
// most once per row, so two racing callers cannot both record a result.
func TestParticipationEndGuard(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	member := env.createUser(t, "member")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, nil)
	_, err := env.challenges.JoinChallenge(ctx, member.ID, resp.ID, nil)
	require.NoError(t, err)

	ended, err := env.participationRepo.EndIfJoined(ctx, member.ID, resp.ID)
	require.NoError(t, err)
	assert.True(t, ended)

	ended, err = env.participationRepo.EndIfJoined(ctx, member.ID, resp.ID)
	require.NoError(t, err)
	assert.False(t, ended)
}

func TestApplicationDecisionGuard(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	applicant := env.createUser(t, "applicant")
	ctx := context.Background()

	resp := env.createChallenge(t, leader.ID, nil)
	application, err := env.challenges.ApplyToChallenge(ctx, applicant.ID, resp.ID, "let me in")
	require.NoError(t, err)

	decided, err := env.applicationRepo.DecideIfPending(ctx, application.ID, model.ApplicationApproved, nil, testNow)
	require.NoError(t, err)
	assert.True(t, decided)

	reason := "changed my mind"
	decided, err = env.applicationRepo.DecideIfPending(ctx, application.ID, model.ApplicationRejected, &reason, testNow)
	require.NoError(t, err)
	assert.False(t, decided)
}
