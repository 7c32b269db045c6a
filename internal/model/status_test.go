package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChallengeStatusTransitions(t *testing.T) {
	assert.True(t, ChallengeRecruiting.CanTransitionTo(ChallengeActive))
	assert.True(t, ChallengeActive.CanTransitionTo(ChallengeCompleted))

	// the lifecycle never skips or reverses
	assert.False(t, ChallengeRecruiting.CanTransitionTo(ChallengeCompleted))
	assert.False(t, ChallengeActive.CanTransitionTo(ChallengeRecruiting))
	assert.False(t, ChallengeCompleted.CanTransitionTo(ChallengeActive))
	assert.False(t, ChallengeCompleted.CanTransitionTo(ChallengeRecruiting))
}

func TestParticipationStatusTransitions(t *testing.T) {
	assert.True(t, ParticipationJoined.CanTransitionTo(ParticipationLeft))

	// leaving is terminal for the pair
	assert.False(t, ParticipationLeft.CanTransitionTo(ParticipationJoined))
	assert.False(t, ParticipationJoined.CanTransitionTo(ParticipationJoined))
}

func TestApplicationStatusTransitions(t *testing.T) {
	assert.True(t, ApplicationPending.CanTransitionTo(ApplicationApproved))
	assert.True(t, ApplicationPending.CanTransitionTo(ApplicationRejected))

	assert.False(t, ApplicationApproved.CanTransitionTo(ApplicationRejected))
	assert.False(t, ApplicationRejected.CanTransitionTo(ApplicationApproved))
	assert.False(t, ApplicationApproved.CanTransitionTo(ApplicationPending))
}

func TestLogStatusTransitions(t *testing.T) {
	assert.True(t, LogPending.CanTransitionTo(LogApproved))
	assert.True(t, LogPending.CanTransitionTo(LogRejected))

	assert.False(t, LogApproved.CanTransitionTo(LogRejected))
	assert.False(t, LogRejected.CanTransitionTo(LogApproved))
	assert.False(t, LogApproved.CanTransitionTo(LogPending))
}
