package delivery

import (
	"fmt"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/models"
)

// ExpirationFor is the tighter of the rolling time limit from startedAt and
// the assessment's close date. The zero Expiration means none applies.
func ExpirationFor(assessment *models.Assessment, startedAt time.Time) models.Expiration {
	var exp models.Expiration

	if assessment.TimeLimit != nil && *assessment.TimeLimit > 0 {
		limit := *assessment.TimeLimit
		due := startedAt.Add(time.Duration(limit) * time.Second)
		exp = models.Expiration{Limit: &limit, DueAt: &due, Cause: models.CauseTimeLimit}
	}

	if assessment.SubmitUntilDate != nil && (exp.DueAt == nil || assessment.SubmitUntilDate.Before(*exp.DueAt)) {
		due := *assessment.SubmitUntilDate
		limit := int64(due.Sub(startedAt) / time.Second)
		if limit < 0 {
			limit = 0
		}
		exp = models.Expiration{Limit: &limit, DueAt: &due, Cause: models.CauseCloseDate}
	}

	return exp
}

// Remaining is the time left before exp is due, floored at zero. ok is false
// when no expiration applies.
func Remaining(exp models.Expiration, now time.Time) (remaining time.Duration, ok bool) {
	if exp.DueAt == nil {
		return 0, false
	}
	remaining = exp.DueAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

func reasonFor(cause models.ExpirationCause) models.CompletionReason {
	if cause == models.CauseCloseDate {
		return models.ReasonCloseDate
	}
	return models.ReasonTimeLimit
}

// Controller owns the one-way transition to complete. Now is injectable for
// tests; grace delays forced completion past the due time.
type Controller struct {
	now   func() time.Time
	grace time.Duration
}

func NewController(now func() time.Time, grace time.Duration) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{now: now, grace: grace}
}

func (c *Controller) Now() time.Time {
	return c.now()
}

// expirationOf is the expiration stored at entry. Rows written without one
// fall back to the assessment's current limits.
func expirationOf(assessment *models.Assessment, sub *models.Submission) models.Expiration {
	if sub.Expiration.DueAt != nil {
		return sub.Expiration
	}
	return ExpirationFor(assessment, *sub.StartedAt)
}

// WhenOver is nil unless a started, unfinished submission has an expiration.
func (c *Controller) WhenOver(assessment *models.Assessment, sub *models.Submission) *time.Time {
	if sub.IsComplete() || sub.StartedAt == nil {
		return nil
	}
	return expirationOf(assessment, sub).DueAt
}

func (c *Controller) IsOver(assessment *models.Assessment, sub *models.Submission) bool {
	over := c.WhenOver(assessment, sub)
	return over != nil && !c.now().Before(over.Add(c.grace))
}

// Enforce forces completion of an expired submission, stamping the due
// time, and reports it as an Over error whose recovery is Submitted. It is a
// no-op returning nil for complete or unexpired submissions.
func (c *Controller) Enforce(assessment *models.Assessment, sub *models.Submission) error {
	if !c.IsOver(assessment, sub) {
		return nil
	}

	exp := expirationOf(assessment, sub)
	sub.Expiration = exp
	c.complete(sub, reasonFor(exp.Cause), *exp.DueAt)

	recovery := Submitted()
	return &Error{
		Code:         CodeOver,
		Op:           "enforce_expiration",
		SubmissionID: sub.ID,
		Recovery:     &recovery,
		Err:          fmt.Errorf("%s reached at %s", exp.Cause, exp.DueAt.Format(time.RFC3339)),
	}
}

// Complete marks the submission complete now. It reports whether the status
// changed; completing twice is not an error.
func (c *Controller) Complete(sub *models.Submission, reason models.CompletionReason) bool {
	if sub.IsComplete() {
		return false
	}
	c.complete(sub, reason, c.now())
	return true
}

// Finish handles the FINISH intent: Submitted when the submission completes
// (or already had), FinalReview when a random-access submission still has
// unanswered questions.
func (c *Controller) Finish(r *Resolver, sub *models.Submission) (Position, bool) {
	if sub.IsComplete() {
		return Submitted(), false
	}
	target := r.FinishTarget(sub)
	if target.Kind != KindSubmitted {
		return target, false
	}
	return target, c.Complete(sub, models.ReasonFinished)
}

func (c *Controller) complete(sub *models.Submission, reason models.CompletionReason, at time.Time) {
	completedAt := at
	sub.Status = models.SubmissionComplete
	sub.CompletedAt = &completedAt
	sub.CompletionReason = &reason
}
