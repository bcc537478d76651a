package delivery

import (
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// twoByTwo is two sections of two questions. Slices are stored out of order
// so tests exercise the position sort.
func twoByTwo(mode models.PresentationMode, randomAccess bool) *models.Assessment {
	return &models.Assessment{
		ID:               1,
		Title:            "Midterm",
		PresentationMode: mode,
		RandomAccess:     randomAccess,
		Published:        true,
		Sections: []models.Section{
			{
				ID: 20, AssessmentID: 1, Position: 2, Title: "Part B",
				Questions: []models.Question{
					{ID: 4, SectionID: 20, Position: 2, Title: "Q4"},
					{ID: 3, SectionID: 20, Position: 1, Title: "Q3"},
				},
			},
			{
				ID: 10, AssessmentID: 1, Position: 1, Title: "Part A",
				Questions: []models.Question{
					{ID: 1, SectionID: 10, Position: 1, Title: "Q1"},
					{ID: 2, SectionID: 10, Position: 2, Title: "Q2"},
				},
			},
		},
	}
}

func setMerged(assessment *models.Assessment, sectionID uint, merged bool) {
	for i := range assessment.Sections {
		if assessment.Sections[i].ID == sectionID {
			assessment.Sections[i].MergeInstructions = merged
		}
	}
}

func newSubmission() *models.Submission {
	started := fixedNow.Add(-10 * time.Minute)
	return &models.Submission{
		ID:           7,
		AssessmentID: 1,
		UserID:       "user-1",
		Status:       models.SubmissionInProgress,
		StartedAt:    &started,
	}
}

// answer records an answered question, final or draft.
func answer(sub *models.Submission, questionID uint, complete bool) {
	submitted := fixedNow.Add(-time.Minute)
	if existing := sub.AnswerFor(questionID); existing != nil {
		existing.IsAnswered = true
		existing.IsComplete = complete
		existing.SubmittedAt = &submitted
		return
	}
	sub.Answers = append(sub.Answers, models.Answer{
		SubmissionID: sub.ID,
		QuestionID:   questionID,
		IsAnswered:   true,
		IsComplete:   complete,
		SubmittedAt:  &submitted,
	})
}

func completeAll(sub *models.Submission, questionIDs ...uint) {
	for _, id := range questionIDs {
		answer(sub, id, true)
	}
}
