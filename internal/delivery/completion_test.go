package delivery

import (
	"testing"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestExpirationFor(t *testing.T) {
	started := fixedNow

	t.Run("no limits", func(t *testing.T) {
		exp := ExpirationFor(twoByTwo(models.PresentationByQuestion, false), started)
		assert.Nil(t, exp.DueAt)
		assert.Empty(t, exp.Cause)
	})

	t.Run("time limit only", func(t *testing.T) {
		a := twoByTwo(models.PresentationByQuestion, false)
		a.TimeLimit = int64Ptr(3600)

		exp := ExpirationFor(a, started)
		require.NotNil(t, exp.DueAt)
		assert.Equal(t, started.Add(time.Hour), *exp.DueAt)
		assert.Equal(t, models.CauseTimeLimit, exp.Cause)
		assert.Equal(t, int64(3600), *exp.Limit)
	})

	t.Run("close date tighter", func(t *testing.T) {
		a := twoByTwo(models.PresentationByQuestion, false)
		a.TimeLimit = int64Ptr(3600)
		closes := started.Add(30 * time.Minute)
		a.SubmitUntilDate = &closes

		exp := ExpirationFor(a, started)
		assert.Equal(t, closes, *exp.DueAt)
		assert.Equal(t, models.CauseCloseDate, exp.Cause)
		assert.Equal(t, int64(1800), *exp.Limit)
	})

	t.Run("time limit tighter", func(t *testing.T) {
		a := twoByTwo(models.PresentationByQuestion, false)
		a.TimeLimit = int64Ptr(600)
		closes := started.Add(24 * time.Hour)
		a.SubmitUntilDate = &closes

		exp := ExpirationFor(a, started)
		assert.Equal(t, started.Add(10*time.Minute), *exp.DueAt)
		assert.Equal(t, models.CauseTimeLimit, exp.Cause)
	})
}

func TestRemaining(t *testing.T) {
	due := fixedNow.Add(90 * time.Second)

	left, ok := Remaining(models.Expiration{DueAt: &due}, fixedNow)
	assert.True(t, ok)
	assert.Equal(t, 90*time.Second, left)

	left, ok = Remaining(models.Expiration{DueAt: &due}, fixedNow.Add(time.Hour))
	assert.True(t, ok)
	assert.Zero(t, left)

	_, ok = Remaining(models.Expiration{}, fixedNow)
	assert.False(t, ok)
}

func TestEnforce_PastDueForcesCompletion(t *testing.T) {
	a := twoByTwo(models.PresentationByQuestion, false)
	a.TimeLimit = int64Ptr(300)
	sub := newSubmission() // started ten minutes ago
	answer(sub, 1, false)
	c := NewController(fixedClock, 0)

	err := c.Enforce(a, sub)
	require.Error(t, err)
	assert.True(t, IsOver(err))
	assert.Equal(t, Submitted(), *RecoveryOf(err))

	assert.Equal(t, models.SubmissionComplete, sub.Status)
	require.NotNil(t, sub.CompletedAt)
	assert.Equal(t, sub.StartedAt.Add(5*time.Minute), *sub.CompletedAt)
	assert.Equal(t, models.ReasonTimeLimit, *sub.CompletionReason)

	assert.NoError(t, c.Enforce(a, sub), "second check is a no-op")
	assert.Nil(t, c.WhenOver(a, sub))
}

func TestEnforce_CloseDateReason(t *testing.T) {
	a := twoByTwo(models.PresentationByQuestion, true)
	closed := fixedNow.Add(-time.Minute)
	a.SubmitUntilDate = &closed
	sub := newSubmission()

	err := NewController(fixedClock, 0).Enforce(a, sub)
	assert.True(t, IsOver(err))
	assert.Equal(t, models.ReasonCloseDate, *sub.CompletionReason)
	assert.Equal(t, closed, *sub.CompletedAt)
}

func TestEnforce_NotYetDue(t *testing.T) {
	a := twoByTwo(models.PresentationByQuestion, false)
	a.TimeLimit = int64Ptr(3600)
	sub := newSubmission()

	assert.NoError(t, NewController(fixedClock, 0).Enforce(a, sub))
	assert.Equal(t, models.SubmissionInProgress, sub.Status)
}

func TestEnforce_UsesStoredExpiration(t *testing.T) {
	t.Run("stored deadline passed while assessment was extended", func(t *testing.T) {
		a := twoByTwo(models.PresentationByQuestion, false)
		a.TimeLimit = int64Ptr(3600)
		sub := newSubmission()
		sub.Expiration = ExpirationFor(&models.Assessment{TimeLimit: int64Ptr(300)}, *sub.StartedAt)

		err := NewController(fixedClock, 0).Enforce(a, sub)
		assert.True(t, IsOver(err))
		assert.Equal(t, sub.StartedAt.Add(5*time.Minute), *sub.CompletedAt)
		assert.Equal(t, int64(300), *sub.Expiration.Limit)
	})

	t.Run("stored deadline ahead while assessment was shortened", func(t *testing.T) {
		a := twoByTwo(models.PresentationByQuestion, false)
		a.TimeLimit = int64Ptr(60)
		sub := newSubmission()
		sub.Expiration = ExpirationFor(&models.Assessment{TimeLimit: int64Ptr(3600)}, *sub.StartedAt)

		c := NewController(fixedClock, 0)
		assert.NoError(t, c.Enforce(a, sub))
		assert.Equal(t, sub.StartedAt.Add(time.Hour), *c.WhenOver(a, sub))
	})
}

func TestEnforce_ExactlyAtDueTime(t *testing.T) {
	a := twoByTwo(models.PresentationByQuestion, false)
	a.TimeLimit = int64Ptr(600)
	sub := newSubmission()

	assert.True(t, IsOver(NewController(fixedClock, 0).Enforce(a, sub)))
}

func TestEnforce_Grace(t *testing.T) {
	a := twoByTwo(models.PresentationByQuestion, false)
	a.TimeLimit = int64Ptr(570)
	sub := newSubmission()

	c := NewController(fixedClock, time.Minute)
	assert.False(t, c.IsOver(a, sub))
	assert.NoError(t, c.Enforce(a, sub))
}

func TestEnforce_NotStarted(t *testing.T) {
	a := twoByTwo(models.PresentationByQuestion, false)
	a.TimeLimit = int64Ptr(1)
	sub := newSubmission()
	sub.StartedAt = nil

	assert.NoError(t, NewController(fixedClock, 0).Enforce(a, sub))
}

func TestController_CompletionIsIdempotent(t *testing.T) {
	r := NewResolver(twoByTwo(models.PresentationByQuestion, false))
	c := NewController(fixedClock, 0)
	sub := newSubmission()

	pos, completed := c.Finish(r, sub)
	assert.Equal(t, Submitted(), pos)
	assert.True(t, completed)
	firstCompletedAt := *sub.CompletedAt

	pos, completed = c.Finish(r, sub)
	assert.Equal(t, Submitted(), pos)
	assert.False(t, completed)
	assert.Equal(t, firstCompletedAt, *sub.CompletedAt)

	assert.False(t, c.Complete(sub, models.ReasonFinished))
}

func TestFinish_LinearNeverRoutesToFinalReview(t *testing.T) {
	ids := []uint{1, 2, 3, 4}
	for mask := 0; mask < 1<<len(ids); mask++ {
		r := NewResolver(twoByTwo(models.PresentationByQuestion, false))
		sub := newSubmission()
		for i, id := range ids {
			if mask&(1<<i) != 0 {
				answer(sub, id, true)
			}
		}

		pos, _ := NewController(fixedClock, 0).Finish(r, sub)
		assert.Equal(t, Submitted(), pos, "mask %b", mask)
		assert.True(t, sub.IsComplete(), "mask %b", mask)
	}
}

func TestFinish_RandomAccessNeedsEveryAnswer(t *testing.T) {
	ids := []uint{1, 2, 3, 4}
	for mask := 0; mask < 1<<len(ids); mask++ {
		r := NewResolver(twoByTwo(models.PresentationByQuestion, true))
		sub := newSubmission()
		for i, id := range ids {
			if mask&(1<<i) != 0 {
				answer(sub, id, true)
			}
		}

		pos, _ := NewController(fixedClock, 0).Finish(r, sub)
		if mask == 1<<len(ids)-1 {
			assert.Equal(t, Submitted(), pos)
			assert.True(t, sub.IsComplete())
		} else {
			assert.Equal(t, FinalReview(), pos, "mask %b", mask)
			assert.False(t, sub.IsComplete(), "mask %b", mask)
		}
	}
}

func TestFinish_MarkedForReviewIsNotAnswered(t *testing.T) {
	r := NewResolver(twoByTwo(models.PresentationByQuestion, true))
	sub := newSubmission()
	completeAll(sub, 1, 2, 3, 4)
	sub.AnswerFor(2).MarkedForReview = true

	pos, completed := NewController(fixedClock, 0).Finish(r, sub)
	assert.Equal(t, FinalReview(), pos)
	assert.False(t, completed)
}
