package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/rakarizky/habitlink/internal/model"
	"github.com/rakarizky/habitlink/internal/repository"
	"github.com/rakarizky/habitlink/internal/service"
	"github.com/rakarizky/habitlink/pkg/clock"
)

// jobDeps is shared by the four daily jobs. One challenge's failure is
// logged and skipped; it never aborts the rest of the run.
type jobDeps struct {
	challengeRepo     repository.ChallengeRepository
	participationRepo repository.ParticipationRepository
	logRepo           repository.ChallengeLogRepository
	notifier          service.Notifier
	clk               clock.Clock
}

func NewJobs(
	challengeRepo repository.ChallengeRepository,
	participationRepo repository.ParticipationRepository,
	logRepo repository.ChallengeLogRepository,
	notifier service.Notifier,
	clk clock.Clock,
) []Job {
	deps := &jobDeps{
		challengeRepo:     challengeRepo,
		participationRepo: participationRepo,
		logRepo:           logRepo,
		notifier:          notifier,
		clk:               clk,
	}
	return []Job{
		&DailyReminderJob{deps},
		&ApprovalSummaryJob{deps},
		&ChallengeStartJob{deps},
		&ChallengeEndJob{deps},
	}
}

// DailyReminderJob nudges every active participant who has not submitted a
// log today.
type DailyReminderJob struct{ *jobDeps }

func (j *DailyReminderJob) Name() string     { return "daily-reminder" }
func (j *DailyReminderJob) Schedule() string { return "0 20 * * *" }

func (j *DailyReminderJob) Run(ctx context.Context) error {
	challenges, err := j.challengeRepo.FindByStatus(ctx, model.ChallengeActive)
	if err != nil {
		return err
	}

	from, to := repository.DayWindow(j.clk.Now())
	for _, challenge := range challenges {
		participations, err := j.participationRepo.FindActiveByChallenge(ctx, challenge.ID)
		if err != nil {
			log.Printf("[%s] skipping challenge %s: %v", j.Name(), challenge.ID, err)
			continue
		}

		for _, participation := range participations {
			logged, err := j.logRepo.ExistsByUserAndChallengeBetween(ctx, participation.UserID, challenge.ID, from, to)
			if err != nil {
				log.Printf("[%s] skipping participant %s: %v", j.Name(), participation.UserID, err)
				continue
			}
			if logged {
				continue
			}
			j.notify(ctx, participation.UserID, model.NotificationDailyReminder,
				"Daily reminder",
				fmt.Sprintf("You have not submitted a log for %q today.", challenge.Name),
				challenge.ID)
		}
	}
	return nil
}

// ApprovalSummaryJob tells each leader how many logs await review.
type ApprovalSummaryJob struct{ *jobDeps }

func (j *ApprovalSummaryJob) Name() string     { return "approval-summary" }
func (j *ApprovalSummaryJob) Schedule() string { return "0 9 * * *" }

func (j *ApprovalSummaryJob) Run(ctx context.Context) error {
	challenges, err := j.challengeRepo.FindByStatus(ctx, model.ChallengeActive)
	if err != nil {
		return err
	}

	for _, challenge := range challenges {
		pending, err := j.logRepo.CountByChallengeAndStatus(ctx, challenge.ID, model.LogPending)
		if err != nil {
			log.Printf("[%s] skipping challenge %s: %v", j.Name(), challenge.ID, err)
			continue
		}
		if pending == 0 {
			continue
		}
		j.notify(ctx, challenge.LeaderID, model.NotificationDailyApprovalSummary,
			"Logs awaiting review",
			fmt.Sprintf("%d logs in %q are waiting for your review.", pending, challenge.Name),
			challenge.ID)
	}
	return nil
}

// ChallengeStartJob moves challenges whose start date is today to ACTIVE,
// regardless of how full they are.
type ChallengeStartJob struct{ *jobDeps }

func (j *ChallengeStartJob) Name() string     { return "challenge-start" }
func (j *ChallengeStartJob) Schedule() string { return "0 10 * * *" }

func (j *ChallengeStartJob) Run(ctx context.Context) error {
	challenges, err := j.challengeRepo.FindStartingOn(ctx, j.clk.Now())
	if err != nil {
		return err
	}

	for _, challenge := range challenges {
		if !challenge.Status.CanTransitionTo(model.ChallengeActive) {
			continue
		}
		challenge.Status = model.ChallengeActive
		if err := j.challengeRepo.Save(ctx, challenge); err != nil {
			log.Printf("[%s] failed to start challenge %s: %v", j.Name(), challenge.ID, err)
			continue
		}
		j.notifyAudience(ctx, challenge, model.NotificationGroupStarted,
			"Challenge started",
			fmt.Sprintf("%q has started. Good luck!", challenge.Name))
	}
	return nil
}

// ChallengeEndJob moves challenges whose end date is today to COMPLETED.
type ChallengeEndJob struct{ *jobDeps }

func (j *ChallengeEndJob) Name() string     { return "challenge-end" }
func (j *ChallengeEndJob) Schedule() string { return "0 23 * * *" }

func (j *ChallengeEndJob) Run(ctx context.Context) error {
	challenges, err := j.challengeRepo.FindEndingOn(ctx, j.clk.Now())
	if err != nil {
		return err
	}

	for _, challenge := range challenges {
		if !challenge.Status.CanTransitionTo(model.ChallengeCompleted) {
			continue
		}
		challenge.Status = model.ChallengeCompleted
		if err := j.challengeRepo.Save(ctx, challenge); err != nil {
			log.Printf("[%s] failed to complete challenge %s: %v", j.Name(), challenge.ID, err)
			continue
		}
		j.notifyAudience(ctx, challenge, model.NotificationGroupEnded,
			"Challenge ended",
			fmt.Sprintf("%q has ended. Check the final stats!", challenge.Name))
	}
	return nil
}

// notifyAudience reaches every JOINED participant plus the leader when the
// leader is not also a participant.
func (d *jobDeps) notifyAudience(ctx context.Context, challenge *model.Challenge, kind model.NotificationType, title, message string) {
	participations, err := d.participationRepo.FindActiveByChallenge(ctx, challenge.ID)
	if err != nil {
		log.Printf("notify audience of %s failed: %v", challenge.ID, err)
		return
	}

	leaderIncluded := false
	for _, participation := range participations {
		if participation.UserID == challenge.LeaderID {
			leaderIncluded = true
		}
		d.notify(ctx, participation.UserID, kind, title, message, challenge.ID)
	}
	if !leaderIncluded {
		d.notify(ctx, challenge.LeaderID, kind, title, message, challenge.ID)
	}
}

func (d *jobDeps) notify(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, challengeID uuid.UUID) {
	relatedID := challengeID.String()
	actionURL := fmt.Sprintf("/challenges/%s", challengeID)
	if err := d.notifier.Notify(ctx, userID, kind, title, message, &relatedID, &actionURL); err != nil {
		log.Printf("notify %s failed for user %s: %v", kind, userID, err)
	}
}
