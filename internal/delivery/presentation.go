package delivery

import (
	"fmt"

	"github.com/SAP-F-2025/delivery-service/internal/models"
)

// Grouping is how many questions share one page.
type Grouping int

const (
	GroupByQuestion Grouping = iota
	GroupBySection
	GroupByAssessment
)

func (g Grouping) String() string {
	switch g {
	case GroupBySection:
		return "by_section"
	case GroupByAssessment:
		return "by_assessment"
	default:
		return "by_question"
	}
}

// GroupingFor maps the presentation mode; unknown modes present by question.
func GroupingFor(assessment *models.Assessment) Grouping {
	switch assessment.PresentationMode {
	case models.PresentationBySection:
		return GroupBySection
	case models.PresentationByAssessment:
		return GroupByAssessment
	default:
		return GroupByQuestion
	}
}

// IsSequential is true for linear assessments.
func IsSequential(assessment *models.Assessment) bool {
	return !assessment.RandomAccess
}

// CheckGrouping rejects a page position whose grouping disagrees with the
// assessment. Non-page positions always pass.
func CheckGrouping(assessment *models.Assessment, position Position) error {
	grouping := GroupingFor(assessment)
	var want Grouping
	switch position.Kind {
	case KindQuestion:
		want = GroupByQuestion
	case KindSection:
		want = GroupBySection
	case KindWhole:
		want = GroupByAssessment
	default:
		return nil
	}
	if grouping != want {
		return NewError(CodeInvalid, "check_grouping", 0,
			fmt.Errorf("%s selector on %s assessment", want, grouping))
	}
	return nil
}
