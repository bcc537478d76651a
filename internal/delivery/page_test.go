package delivery

import (
	"testing"

	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPage_LinearGuard(t *testing.T) {
	r := NewResolver(twoByTwo(models.PresentationByQuestion, false))
	sub := newSubmission()

	page, err := r.BuildPage(sub, QuestionAt(1), true)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, questionIDs(page.Questions))
	assert.Equal(t, uint(10), page.Section.ID)

	_, err = r.BuildPage(sub, QuestionAt(3), true)
	require.Error(t, err)
	assert.True(t, IsLinear(err))
	assert.Equal(t, SectionInstructionsOf(10), *RecoveryOf(err))

	completeAll(sub, 1)
	_, err = r.BuildPage(sub, QuestionAt(1), true)
	assert.True(t, IsLinear(err), "answered question cannot be revisited")
	assert.Equal(t, QuestionAt(2), *RecoveryOf(err))

	_, err = r.BuildPage(sub, QuestionAt(1), false)
	assert.NoError(t, err, "posting back is not linear-checked")
}

func TestBuildPage_LinearInstructions(t *testing.T) {
	r := NewResolver(twoByTwo(models.PresentationByQuestion, false))
	sub := newSubmission()

	_, err := r.BuildPage(sub, SectionInstructionsOf(20), true)
	assert.True(t, IsLinear(err))

	completeAll(sub, 1, 2)
	page, err := r.BuildPage(sub, SectionInstructionsOf(20), true)
	require.NoError(t, err)
	assert.True(t, page.ShowInstructions)
	assert.Empty(t, page.Questions)
}

func TestBuildPage_RandomAccessIsUnguarded(t *testing.T) {
	r := NewResolver(twoByTwo(models.PresentationByQuestion, true))
	sub := newSubmission()
	completeAll(sub, 1)

	_, err := r.BuildPage(sub, QuestionAt(1), true)
	assert.NoError(t, err)
	_, err = r.BuildPage(sub, QuestionAt(4), true)
	assert.NoError(t, err)
}

func TestBuildPage_Toc(t *testing.T) {
	sub := newSubmission()

	page, err := NewResolver(twoByTwo(models.PresentationByQuestion, true)).BuildPage(sub, Toc(), true)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3, 4}, questionIDs(page.Questions))

	_, err = NewResolver(twoByTwo(models.PresentationByQuestion, false)).BuildPage(sub, Toc(), true)
	assert.True(t, IsLinear(err))
	assert.NotNil(t, RecoveryOf(err))
}

func TestBuildPage_Grouping(t *testing.T) {
	sub := newSubmission()

	page, err := NewResolver(twoByTwo(models.PresentationBySection, true)).BuildPage(sub, SectionAt(20, 4), true)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 4}, questionIDs(page.Questions))
	assert.True(t, page.ShowInstructions)

	page, err = NewResolver(twoByTwo(models.PresentationByAssessment, true)).BuildPage(sub, WholeAt(0), true)
	require.NoError(t, err)
	assert.Len(t, page.Questions, 4)

	_, err = NewResolver(twoByTwo(models.PresentationBySection, true)).BuildPage(sub, QuestionAt(1), false)
	assert.True(t, IsInvalid(err))
	_, err = NewResolver(twoByTwo(models.PresentationBySection, true)).BuildPage(sub, SectionInstructionsOf(10), false)
	assert.True(t, IsInvalid(err))
	_, err = NewResolver(twoByTwo(models.PresentationBySection, true)).BuildPage(sub, SectionAt(99, 0), false)
	assert.True(t, IsInvalid(err))
}

func TestBuildPage_MergedInstructionsOnFirstQuestion(t *testing.T) {
	a := twoByTwo(models.PresentationByQuestion, true)
	setMerged(a, 10, true)
	r := NewResolver(a)
	sub := newSubmission()

	page, err := r.BuildPage(sub, QuestionAt(1), true)
	require.NoError(t, err)
	assert.True(t, page.ShowInstructions)

	page, err = r.BuildPage(sub, QuestionAt(2), true)
	require.NoError(t, err)
	assert.False(t, page.ShowInstructions)
}

func TestBuildPage_CompletionGates(t *testing.T) {
	r := NewResolver(twoByTwo(models.PresentationByQuestion, true))
	sub := newSubmission()

	_, err := r.BuildPage(sub, Review(), false)
	assert.True(t, IsUnauthorized(err))
	_, err = r.BuildPage(sub, Submitted(), false)
	assert.True(t, IsUnauthorized(err))

	sub.Status = models.SubmissionComplete
	page, err := r.BuildPage(sub, Review(), false)
	require.NoError(t, err)
	assert.Len(t, page.Questions, 4)

	_, err = r.BuildPage(sub, QuestionAt(1), false)
	assert.True(t, IsUnauthorized(err))
	_, err = r.BuildPage(sub, Toc(), false)
	assert.True(t, IsUnauthorized(err))
}

func TestBuildPage_NotSubmissionViews(t *testing.T) {
	r := NewResolver(twoByTwo(models.PresentationByQuestion, true))

	_, err := r.BuildPage(newSubmission(), List(), false)
	assert.True(t, IsInvalid(err))
	_, err = r.BuildPage(newSubmission(), RemoveAttachment(), false)
	assert.True(t, IsInvalid(err))
}
