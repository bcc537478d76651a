package delivery

import (
	"fmt"

	"github.com/SAP-F-2025/delivery-service/internal/models"
)

// Resolver computes where a submission goes next. It is built once per
// assessment snapshot and holds no mutable state.
type Resolver struct {
	assessment *models.Assessment
	ordering   *Ordering
}

func NewResolver(assessment *models.Assessment) *Resolver {
	return &Resolver{
		assessment: assessment,
		ordering:   NewOrdering(assessment),
	}
}

func (r *Resolver) Assessment() *models.Assessment { return r.assessment }
func (r *Resolver) Ordering() *Ordering            { return r.ordering }

// Resolve maps (submission, current position, intent) to the next position.
// FINISH only computes the target; completion itself belongs to Controller.
func (r *Resolver) Resolve(sub *models.Submission, from Position, intent Intent) (Position, error) {
	if sub.IsComplete() {
		switch intent {
		case IntentReview:
			return Review(), nil
		case IntentFinish:
			return Submitted(), nil
		}
		return Position{}, NewError(CodeUnauthorized, "resolve", sub.ID,
			fmt.Errorf("%s on completed submission", intent))
	}

	switch intent {
	case IntentEnter, IntentResume:
		return r.Entry(sub), nil
	case IntentFinish:
		return r.FinishTarget(sub), nil
	case IntentReview:
		return Position{}, NewError(CodeUnauthorized, "resolve", sub.ID,
			fmt.Errorf("review before completion"))
	case IntentNext:
		pos, err := r.step(from, true)
		return pos, withSubmission(err, sub.ID)
	case IntentPrev:
		pos, err := r.step(from, false)
		return pos, withSubmission(err, sub.ID)
	default:
		return Position{}, NewError(CodeInvalid, "resolve", sub.ID, fmt.Errorf("unknown intent %q", intent))
	}
}

// FirstIncomplete scans in assessment order for a question without a
// complete answer.
func (r *Resolver) FirstIncomplete(sub *models.Submission) *models.Question {
	for _, q := range r.ordering.Questions() {
		if !sub.IsQuestionComplete(q.ID) {
			return q
		}
	}
	return nil
}

// AllAnswered requires an answered, unmarked answer for every question.
func (r *Resolver) AllAnswered(sub *models.Submission) bool {
	for _, q := range r.ordering.Questions() {
		if !sub.IsQuestionAnswered(q.ID) {
			return false
		}
	}
	return true
}

// Entry is where ENTER and RESUME land.
func (r *Resolver) Entry(sub *models.Submission) Position {
	q := r.FirstIncomplete(sub)
	if q == nil {
		if IsSequential(r.assessment) {
			return FinalReview()
		}
		return Toc()
	}

	section := r.ordering.SectionOf(q.ID)
	if GroupingFor(r.assessment) == GroupByQuestion &&
		r.ordering.IsFirstInSection(q.ID) && !section.MergeInstructions {
		return SectionInstructionsOf(section.ID)
	}
	return r.PageOf(q.ID)
}

// PageOf returns the page holding the question, anchored on it unless it
// opens the page.
func (r *Resolver) PageOf(questionID uint) Position {
	switch GroupingFor(r.assessment) {
	case GroupBySection:
		section := r.ordering.SectionOf(questionID)
		var anchor uint
		if !r.ordering.IsFirstInSection(questionID) {
			anchor = questionID
		}
		return SectionAt(section.ID, anchor)
	case GroupByAssessment:
		var anchor uint
		if !r.ordering.IsFirstInAssessment(questionID) {
			anchor = questionID
		}
		return WholeAt(anchor)
	default:
		return QuestionAt(questionID)
	}
}

// FinishTarget is Submitted when the submission may complete now, else
// FinalReview.
func (r *Resolver) FinishTarget(sub *models.Submission) Position {
	if sub.IsComplete() || IsSequential(r.assessment) || r.AllAnswered(sub) {
		return Submitted()
	}
	return FinalReview()
}

// CheckDestination validates a client-posted destination against the
// assessment. Page and instructions ids must exist under the assessment's
// grouping; review waits for completion.
func (r *Resolver) CheckDestination(sub *models.Submission, dest Position) error {
	return withSubmission(r.checkDestination(sub, dest), sub.ID)
}

func (r *Resolver) checkDestination(sub *models.Submission, dest Position) error {
	if err := CheckGrouping(r.assessment, dest); err != nil {
		return err
	}

	switch dest.Kind {
	case KindQuestion:
		if r.ordering.Question(dest.QuestionID) == nil {
			return invalidf("check_destination", "unknown question %d", dest.QuestionID)
		}
	case KindSection:
		if r.ordering.Section(dest.SectionID) == nil {
			return invalidf("check_destination", "unknown section %d", dest.SectionID)
		}
	case KindSectionInstructions:
		if GroupingFor(r.assessment) != GroupByQuestion {
			return invalidf("check_destination", "section instructions outside by-question presentation")
		}
		if r.ordering.Section(dest.SectionID) == nil {
			return invalidf("check_destination", "unknown section %d", dest.SectionID)
		}
	case KindReview:
		if !sub.IsComplete() {
			return NewError(CodeUnauthorized, "check_destination", 0, fmt.Errorf("review before completion"))
		}
	}
	return nil
}

// ===== NEXT / PREV =====

func (r *Resolver) step(from Position, forward bool) (Position, error) {
	switch from.Kind {
	case KindQuestion:
		if err := CheckGrouping(r.assessment, from); err != nil {
			return Position{}, err
		}
		q := r.ordering.Question(from.QuestionID)
		if q == nil {
			return Position{}, invalidf("step", "unknown question %d", from.QuestionID)
		}
		if forward {
			return r.nextFromQuestion(q)
		}
		return r.prevFromQuestion(q)

	case KindSection:
		if err := CheckGrouping(r.assessment, from); err != nil {
			return Position{}, err
		}
		if r.ordering.Section(from.SectionID) == nil {
			return Position{}, invalidf("step", "unknown section %d", from.SectionID)
		}
		var target *models.Section
		if forward {
			target = r.ordering.NextSection(from.SectionID)
		} else {
			target = r.ordering.PrevSection(from.SectionID)
		}
		if target == nil {
			return Position{}, invalidf("step", "no section beyond %d", from.SectionID)
		}
		return SectionAt(target.ID, 0), nil

	case KindSectionInstructions:
		return r.stepFromInstructions(from.SectionID, forward)

	default:
		return Position{}, invalidf("step", "cannot step from %s", from.Kind)
	}
}

func (r *Resolver) nextFromQuestion(q *models.Question) (Position, error) {
	if next := r.ordering.NextInSection(q.ID); next != nil {
		return QuestionAt(next.ID), nil
	}

	section := r.ordering.SectionOf(q.ID)
	nextSection := r.ordering.NextSection(section.ID)
	if nextSection == nil {
		return Position{}, invalidf("next", "question %d is last in the assessment", q.ID)
	}
	if !nextSection.MergeInstructions {
		return SectionInstructionsOf(nextSection.ID), nil
	}
	first := r.ordering.FirstQuestionOf(nextSection.ID)
	if first == nil {
		return Position{}, invalidf("next", "section %d has no questions", nextSection.ID)
	}
	return QuestionAt(first.ID), nil
}

func (r *Resolver) prevFromQuestion(q *models.Question) (Position, error) {
	if prev := r.ordering.PrevInSection(q.ID); prev != nil {
		return QuestionAt(prev.ID), nil
	}

	section := r.ordering.SectionOf(q.ID)
	prevSection := r.ordering.PrevSection(section.ID)
	if prevSection == nil {
		return Position{}, invalidf("prev", "question %d is first in the assessment", q.ID)
	}
	if !prevSection.MergeInstructions {
		return SectionInstructionsOf(prevSection.ID), nil
	}
	last := r.ordering.LastQuestionOf(prevSection.ID)
	if last == nil {
		return Position{}, invalidf("prev", "section %d has no questions", prevSection.ID)
	}
	return QuestionAt(last.ID), nil
}

// Leaving an instructions page forward enters its section; backward returns
// to the end of the previous section.
func (r *Resolver) stepFromInstructions(sectionID uint, forward bool) (Position, error) {
	if GroupingFor(r.assessment) != GroupByQuestion {
		return Position{}, invalidf("step", "section instructions outside by-question presentation")
	}
	if r.ordering.Section(sectionID) == nil {
		return Position{}, invalidf("step", "unknown section %d", sectionID)
	}

	if forward {
		first := r.ordering.FirstQuestionOf(sectionID)
		if first == nil {
			return Position{}, invalidf("next", "section %d has no questions", sectionID)
		}
		return QuestionAt(first.ID), nil
	}

	prevSection := r.ordering.PrevSection(sectionID)
	if prevSection == nil {
		return Position{}, invalidf("prev", "section %d is first in the assessment", sectionID)
	}
	last := r.ordering.LastQuestionOf(prevSection.ID)
	if last == nil {
		return Position{}, invalidf("prev", "section %d has no questions", prevSection.ID)
	}
	return QuestionAt(last.ID), nil
}

// SubmittedNext is where the submitted view sends the user: straight to the
// review when the assessment gives immediate feedback, else the list.
func (r *Resolver) SubmittedNext() Position {
	if r.assessment.FeedbackNow {
		return Review()
	}
	return List()
}
