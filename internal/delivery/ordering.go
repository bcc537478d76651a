package delivery

import (
	"sort"

	"github.com/SAP-F-2025/delivery-service/internal/models"
)

// Ordering is the total order of an assessment: sections by position, then
// questions by position inside their section. Lookups that find nothing
// return nil.
type Ordering struct {
	sections         []*models.Section
	questions        []*models.Question
	sectionQuestions map[uint][]*models.Question
	sectionIndex     map[uint]int
	questionIndex    map[uint]int
	questionSection  map[uint]*models.Section
}

func NewOrdering(assessment *models.Assessment) *Ordering {
	o := &Ordering{
		sectionQuestions: make(map[uint][]*models.Question),
		sectionIndex:     make(map[uint]int),
		questionIndex:    make(map[uint]int),
		questionSection:  make(map[uint]*models.Section),
	}

	for i := range assessment.Sections {
		o.sections = append(o.sections, &assessment.Sections[i])
	}
	sort.SliceStable(o.sections, func(i, j int) bool {
		return o.sections[i].Position < o.sections[j].Position
	})

	for i, section := range o.sections {
		o.sectionIndex[section.ID] = i

		questions := make([]*models.Question, 0, len(section.Questions))
		for j := range section.Questions {
			questions = append(questions, &section.Questions[j])
		}
		sort.SliceStable(questions, func(a, b int) bool {
			return questions[a].Position < questions[b].Position
		})
		o.sectionQuestions[section.ID] = questions

		for _, q := range questions {
			o.questionIndex[q.ID] = len(o.questions)
			o.questionSection[q.ID] = section
			o.questions = append(o.questions, q)
		}
	}

	return o
}

// ===== LOOKUPS =====

func (o *Ordering) Questions() []*models.Question { return o.questions }
func (o *Ordering) Sections() []*models.Section   { return o.sections }

func (o *Ordering) Question(id uint) *models.Question {
	if i, ok := o.questionIndex[id]; ok {
		return o.questions[i]
	}
	return nil
}

func (o *Ordering) Section(id uint) *models.Section {
	if i, ok := o.sectionIndex[id]; ok {
		return o.sections[i]
	}
	return nil
}

func (o *Ordering) SectionOf(questionID uint) *models.Section {
	return o.questionSection[questionID]
}

func (o *Ordering) QuestionsOf(sectionID uint) []*models.Question {
	return o.sectionQuestions[sectionID]
}

func (o *Ordering) FirstQuestionOf(sectionID uint) *models.Question {
	questions := o.sectionQuestions[sectionID]
	if len(questions) == 0 {
		return nil
	}
	return questions[0]
}

func (o *Ordering) LastQuestionOf(sectionID uint) *models.Question {
	questions := o.sectionQuestions[sectionID]
	if len(questions) == 0 {
		return nil
	}
	return questions[len(questions)-1]
}

// ===== IN-SECTION ORDER =====

func (o *Ordering) inSection(questionID uint) ([]*models.Question, int) {
	section := o.questionSection[questionID]
	if section == nil {
		return nil, -1
	}
	questions := o.sectionQuestions[section.ID]
	for i, q := range questions {
		if q.ID == questionID {
			return questions, i
		}
	}
	return nil, -1
}

func (o *Ordering) IsFirstInSection(questionID uint) bool {
	_, i := o.inSection(questionID)
	return i == 0
}

func (o *Ordering) IsLastInSection(questionID uint) bool {
	questions, i := o.inSection(questionID)
	return i >= 0 && i == len(questions)-1
}

func (o *Ordering) NextInSection(questionID uint) *models.Question {
	questions, i := o.inSection(questionID)
	if i < 0 || i+1 >= len(questions) {
		return nil
	}
	return questions[i+1]
}

func (o *Ordering) PrevInSection(questionID uint) *models.Question {
	questions, i := o.inSection(questionID)
	if i <= 0 {
		return nil
	}
	return questions[i-1]
}

// ===== ASSESSMENT-WIDE ORDER =====

func (o *Ordering) IsFirstInAssessment(questionID uint) bool {
	i, ok := o.questionIndex[questionID]
	return ok && i == 0
}

func (o *Ordering) IsLastInAssessment(questionID uint) bool {
	i, ok := o.questionIndex[questionID]
	return ok && i == len(o.questions)-1
}

func (o *Ordering) NextInAssessment(questionID uint) *models.Question {
	i, ok := o.questionIndex[questionID]
	if !ok || i+1 >= len(o.questions) {
		return nil
	}
	return o.questions[i+1]
}

func (o *Ordering) PrevInAssessment(questionID uint) *models.Question {
	i, ok := o.questionIndex[questionID]
	if !ok || i == 0 {
		return nil
	}
	return o.questions[i-1]
}

// ===== SECTION ORDER =====

func (o *Ordering) IsFirstSection(sectionID uint) bool {
	i, ok := o.sectionIndex[sectionID]
	return ok && i == 0
}

func (o *Ordering) IsLastSection(sectionID uint) bool {
	i, ok := o.sectionIndex[sectionID]
	return ok && i == len(o.sections)-1
}

func (o *Ordering) NextSection(sectionID uint) *models.Section {
	i, ok := o.sectionIndex[sectionID]
	if !ok || i+1 >= len(o.sections) {
		return nil
	}
	return o.sections[i+1]
}

func (o *Ordering) PrevSection(sectionID uint) *models.Section {
	i, ok := o.sectionIndex[sectionID]
	if !ok || i == 0 {
		return nil
	}
	return o.sections[i-1]
}
