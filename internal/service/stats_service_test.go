package service

import (
	"context"
	"testing"
	"time"

	"github.com/rakarizky/habitlink/internal/dto"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 8, 0, 0, 0, time.UTC)
}

func TestTrailingStreak(t *testing.T) {
	cases := []struct {
		name string
		days []time.Time
		want int
	}{
		{"no approved logs", nil, 0},
		{"single day", []time.Time{day(2024, 1, 5)}, 1},
		{"consecutive days", []time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3)}, 3},
		{"gap resets the run", []time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 5)}, 1},
		{"run continues after a gap", []time.Time{day(2024, 1, 1), day(2024, 1, 4), day(2024, 1, 5)}, 2},
		{"same-day duplicates are skipped", []time.Time{day(2024, 1, 1), day(2024, 1, 1), day(2024, 1, 2)}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, trailingStreak(tc.days))
		})
	}
}

func TestGetMemberStats(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	member := env.createUser(t, "member")
	idle := env.createUser(t, "idle")
	ctx := context.Background()

	challenge := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.LeaderRole = "MANAGER"
	})
	_, err := env.challenges.JoinChallenge(ctx, member.ID, challenge.ID, nil)
	require.NoError(t, err)
	_, err = env.challenges.JoinChallenge(ctx, idle.ID, challenge.ID, nil)
	require.NoError(t, err)

	// three approved days in a row, then a gap, then one more
	env.insertLog(t, member.ID, challenge.ID, model.LogApproved, day(2024, 1, 1))
	env.insertLog(t, member.ID, challenge.ID, model.LogApproved, day(2024, 1, 2))
	env.insertLog(t, member.ID, challenge.ID, model.LogApproved, day(2024, 1, 3))
	env.insertLog(t, member.ID, challenge.ID, model.LogApproved, day(2024, 1, 5))

	stats, err := env.stats.GetMemberStats(ctx, member.ID, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.ID, stats.ChallengeID)
	assert.Equal(t, 2, stats.ActiveMembers)
	require.Len(t, stats.Members, 2)

	byNickname := map[string]*dto.MemberStatsResponse{}
	for _, m := range stats.Members {
		byNickname[m.User.Nickname] = m
	}

	active := byNickname["member"]
	require.NotNil(t, active)
	assert.Equal(t, 4, active.TotalSubmissions)
	assert.Equal(t, 4, active.ApprovedSubmissions)
	assert.InDelta(t, 100.0, active.AchievementRate, 0.001)
	// the gap before Jan 5 cuts the streak back to one
	assert.Equal(t, 1, active.Streak)
	require.NotNil(t, active.LastSubmissionDate)
	assert.True(t, active.LastSubmissionDate.Equal(day(2024, 1, 5)))

	quiet := byNickname["idle"]
	require.NotNil(t, quiet)
	assert.Equal(t, 0, quiet.TotalSubmissions)
	assert.InDelta(t, 0.0, quiet.AchievementRate, 0.001)
	assert.Equal(t, 0, quiet.Streak)
	assert.Nil(t, quiet.LastSubmissionDate)
}

func TestGetMemberStatsRateCountsRejected(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	ctx := context.Background()

	challenge := env.createChallenge(t, leader.ID, nil)

	env.insertLog(t, leader.ID, challenge.ID, model.LogApproved, day(2024, 1, 8))
	env.insertLog(t, leader.ID, challenge.ID, model.LogRejected, day(2024, 1, 9))
	env.insertLog(t, leader.ID, challenge.ID, model.LogPending, day(2024, 1, 10))

	stats, err := env.stats.GetMemberStats(ctx, leader.ID, challenge.ID)
	require.NoError(t, err)
	require.Len(t, stats.Members, 1)

	me := stats.Members[0]
	assert.Equal(t, 3, me.TotalSubmissions)
	assert.Equal(t, 1, me.ApprovedSubmissions)
	assert.InDelta(t, 100.0/3.0, me.AchievementRate, 0.001)
	assert.Equal(t, 1, me.Streak)
}

func TestGetMemberStatsHiddenChallenge(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	stranger := env.createUser(t, "stranger")
	ctx := context.Background()

	private := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.IsPrivate = true
	})

	_, err := env.stats.GetMemberStats(ctx, stranger.ID, private.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetParticipationSeries(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	member := env.createUser(t, "member")
	ctx := context.Background()

	challenge := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.StartDate = "2024-01-10"
	})
	_, err := env.challenges.JoinChallenge(ctx, member.ID, challenge.ID, nil)
	require.NoError(t, err)

	env.insertLog(t, leader.ID, challenge.ID, model.LogApproved, day(2024, 1, 8))
	env.insertLog(t, leader.ID, challenge.ID, model.LogApproved, day(2024, 1, 9))
	env.insertLog(t, member.ID, challenge.ID, model.LogApproved, day(2024, 1, 9))

	series, err := env.stats.GetParticipationSeries(ctx, leader.ID, challenge.ID, dto.ParticipationSeriesQuery{
		StartDate: "2024-01-08",
		EndDate:   "2024-01-10",
	})
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, "2024-01-08", series[0].Date)
	assert.InDelta(t, 50.0, series[0].ParticipationRate, 0.001)
	assert.Equal(t, 1, series[0].Submissions)
	assert.Nil(t, series[0].UserSubmitted)

	assert.Equal(t, "2024-01-09", series[1].Date)
	assert.InDelta(t, 100.0, series[1].ParticipationRate, 0.001)
	assert.Equal(t, 1, series[1].Submissions)

	// no logs on the last day
	assert.Equal(t, "2024-01-10", series[2].Date)
	assert.InDelta(t, 0.0, series[2].ParticipationRate, 0.001)
	assert.Equal(t, 0, series[2].Submissions)
}

func TestGetParticipationSeriesUserFilter(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	member := env.createUser(t, "member")
	ctx := context.Background()

	challenge := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.StartDate = "2024-01-10"
	})
	_, err := env.challenges.JoinChallenge(ctx, member.ID, challenge.ID, nil)
	require.NoError(t, err)

	env.insertLog(t, leader.ID, challenge.ID, model.LogApproved, day(2024, 1, 8))
	env.insertLog(t, member.ID, challenge.ID, model.LogApproved, day(2024, 1, 9))

	series, err := env.stats.GetParticipationSeries(ctx, leader.ID, challenge.ID, dto.ParticipationSeriesQuery{
		UserID:    member.ID.String(),
		StartDate: "2024-01-08",
		EndDate:   "2024-01-10",
	})
	require.NoError(t, err)
	require.Len(t, series, 3)

	require.NotNil(t, series[0].UserSubmitted)
	assert.False(t, *series[0].UserSubmitted)
	require.NotNil(t, series[1].UserSubmitted)
	assert.True(t, *series[1].UserSubmitted)
	require.NotNil(t, series[2].UserSubmitted)
	assert.False(t, *series[2].UserSubmitted)

	// per-day submission counts follow the caller, not the filtered user
	assert.Equal(t, 1, series[0].Submissions)
	assert.Equal(t, 0, series[1].Submissions)
}

func TestGetParticipationSeriesDefaultRange(t *testing.T) {
	env := newTestEnv(t)
	leader := env.createUser(t, "leader")
	ctx := context.Background()

	// the default window ends today, so a challenge that has not started
	// yet yields an empty series
	future := env.createChallenge(t, leader.ID, nil)
	series, err := env.stats.GetParticipationSeries(ctx, leader.ID, future.ID, dto.ParticipationSeriesQuery{})
	require.NoError(t, err)
	assert.Empty(t, series)

	// a challenge that started today yields exactly one day
	current := env.createChallenge(t, leader.ID, func(r *dto.CreateChallengeRequest) {
		r.StartDate = "2024-01-10"
	})
	series, err = env.stats.GetParticipationSeries(ctx, leader.ID, current.ID, dto.ParticipationSeriesQuery{})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2024-01-10", series[0].Date)
}
