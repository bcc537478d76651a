package delivery

import (
	"fmt"

	"github.com/SAP-F-2025/delivery-service/internal/models"
)

// Page is what a position shows: the questions in order, plus the section
// whose instructions appear on it.
type Page struct {
	Position         Position
	Section          *models.Section
	Questions        []*models.Question
	ShowInstructions bool
}

// BuildPage validates a position against the submission and collects its
// content. With linearCheck, a linear assessment only shows the page holding
// the first incomplete question; the error's recovery points there.
func (r *Resolver) BuildPage(sub *models.Submission, pos Position, linearCheck bool) (*Page, error) {
	page, err := r.buildPage(sub, pos)
	if err != nil {
		return nil, withSubmission(err, sub.ID)
	}

	if linearCheck && IsSequential(r.assessment) {
		if err := r.checkLinear(sub, page); err != nil {
			return nil, err
		}
	}
	return page, nil
}

func (r *Resolver) buildPage(sub *models.Submission, pos Position) (*Page, error) {
	page := &Page{Position: pos}

	switch pos.Kind {
	case KindSubmitted, KindReview:
		if !sub.IsComplete() {
			return nil, NewError(CodeUnauthorized, "build_page", sub.ID,
				fmt.Errorf("%s view of an unfinished submission", pos.Kind))
		}
		page.Questions = r.ordering.Questions()
		return page, nil
	case KindList, KindRemoveAttachment:
		return nil, invalidf("build_page", "%s is not a submission view", pos.Kind)
	}

	if sub.IsComplete() {
		return nil, NewError(CodeUnauthorized, "build_page", sub.ID,
			fmt.Errorf("%s view of a completed submission", pos.Kind))
	}

	switch pos.Kind {
	case KindQuestion:
		if err := CheckGrouping(r.assessment, pos); err != nil {
			return nil, err
		}
		q := r.ordering.Question(pos.QuestionID)
		if q == nil {
			return nil, invalidf("build_page", "unknown question %d", pos.QuestionID)
		}
		page.Section = r.ordering.SectionOf(q.ID)
		page.Questions = []*models.Question{q}
		page.ShowInstructions = page.Section.MergeInstructions && r.ordering.IsFirstInSection(q.ID)

	case KindSection:
		if err := CheckGrouping(r.assessment, pos); err != nil {
			return nil, err
		}
		page.Section = r.ordering.Section(pos.SectionID)
		if page.Section == nil {
			return nil, invalidf("build_page", "unknown section %d", pos.SectionID)
		}
		page.Questions = r.ordering.QuestionsOf(pos.SectionID)
		page.ShowInstructions = true

	case KindWhole:
		if err := CheckGrouping(r.assessment, pos); err != nil {
			return nil, err
		}
		page.Questions = r.ordering.Questions()
		page.ShowInstructions = true

	case KindSectionInstructions:
		if GroupingFor(r.assessment) != GroupByQuestion {
			return nil, invalidf("build_page", "section instructions outside by-question presentation")
		}
		page.Section = r.ordering.Section(pos.SectionID)
		if page.Section == nil {
			return nil, invalidf("build_page", "unknown section %d", pos.SectionID)
		}
		page.ShowInstructions = true

	case KindToc:
		if IsSequential(r.assessment) {
			recovery := r.Entry(sub)
			return nil, &Error{Code: CodeLinear, Op: "build_page", SubmissionID: sub.ID, Recovery: &recovery,
				Err: fmt.Errorf("table of contents on a linear assessment")}
		}
		page.Questions = r.ordering.Questions()

	case KindFinalReview:
		page.Questions = r.ordering.Questions()

	default:
		return nil, invalidf("build_page", "unknown position kind %q", pos.Kind)
	}

	return page, nil
}

func (r *Resolver) checkLinear(sub *models.Submission, page *Page) error {
	var allowed bool
	first := r.FirstIncomplete(sub)

	switch page.Position.Kind {
	case KindQuestion, KindSection, KindWhole:
		allowed = first != nil && containsQuestion(page.Questions, first.ID)
	case KindSectionInstructions:
		allowed = first != nil && r.ordering.SectionOf(first.ID).ID == page.Section.ID
	default:
		allowed = true
	}
	if allowed {
		return nil
	}

	recovery := r.Entry(sub)
	return &Error{
		Code:         CodeLinear,
		Op:           "build_page",
		SubmissionID: sub.ID,
		Recovery:     &recovery,
		Err:          fmt.Errorf("%s is not the current step", page.Position),
	}
}

func containsQuestion(questions []*models.Question, id uint) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}
