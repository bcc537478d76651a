package delivery

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags a Position.
type Kind string

const (
	KindQuestion            Kind = "question"
	KindSection             Kind = "section"
	KindWhole               Kind = "whole"
	KindToc                 Kind = "toc"
	KindFinalReview         Kind = "final_review"
	KindSectionInstructions Kind = "section_instructions"
	KindSubmitted           Kind = "submitted"
	KindReview              Kind = "review"
	KindList                Kind = "list"
	KindRemoveAttachment    Kind = "remove_attachment"
)

// Position is a location inside a submission's flow. QuestionID is set for
// KindQuestion, SectionID for KindSection and KindSectionInstructions. Anchor
// names a question to scroll to on a multi-question page.
type Position struct {
	Kind       Kind `json:"kind"`
	QuestionID uint `json:"question_id,omitempty"`
	SectionID  uint `json:"section_id,omitempty"`
	Anchor     uint `json:"anchor,omitempty"`
}

func QuestionAt(questionID uint) Position {
	return Position{Kind: KindQuestion, QuestionID: questionID}
}

func SectionAt(sectionID, anchor uint) Position {
	return Position{Kind: KindSection, SectionID: sectionID, Anchor: anchor}
}

func WholeAt(anchor uint) Position {
	return Position{Kind: KindWhole, Anchor: anchor}
}

func SectionInstructionsOf(sectionID uint) Position {
	return Position{Kind: KindSectionInstructions, SectionID: sectionID}
}

func Toc() Position              { return Position{Kind: KindToc} }
func FinalReview() Position      { return Position{Kind: KindFinalReview} }
func Submitted() Position        { return Position{Kind: KindSubmitted} }
func Review() Position           { return Position{Kind: KindReview} }
func List() Position             { return Position{Kind: KindList} }
func RemoveAttachment() Position { return Position{Kind: KindRemoveAttachment} }

// IsPage reports whether the position shows questions for data entry.
func (p Position) IsPage() bool {
	switch p.Kind {
	case KindQuestion, KindSection, KindWhole:
		return true
	}
	return false
}

// IsEscape reports whether leaving a page for this position only saves a draft.
func (p Position) IsEscape() bool {
	switch p.Kind {
	case KindToc, KindList, KindRemoveAttachment, KindSectionInstructions:
		return true
	}
	return false
}

// SameAs compares positions ignoring the in-page anchor.
func (p Position) SameAs(other Position) bool {
	return p.Kind == other.Kind && p.QuestionID == other.QuestionID && p.SectionID == other.SectionID
}

// Selector encodes a page position as q<id>, s<id> or a. Other kinds encode
// as their destination token.
func (p Position) Selector() string {
	switch p.Kind {
	case KindQuestion:
		return "q" + strconv.FormatUint(uint64(p.QuestionID), 10)
	case KindSection:
		return "s" + strconv.FormatUint(uint64(p.SectionID), 10)
	case KindWhole:
		return "a"
	case KindSectionInstructions:
		return "i" + strconv.FormatUint(uint64(p.SectionID), 10)
	default:
		return string(p.Kind)
	}
}

// Path is the client route for the position within a submission.
func (p Position) Path(submissionID uint) string {
	id := strconv.FormatUint(uint64(submissionID), 10)
	var path string
	switch p.Kind {
	case KindQuestion, KindSection, KindWhole:
		path = "/question/" + id + "/" + p.Selector()
	case KindSectionInstructions:
		path = "/part_instructions/" + id + "/" + strconv.FormatUint(uint64(p.SectionID), 10)
	case KindList:
		return "/list"
	default:
		path = "/" + string(p.Kind) + "/" + id
	}
	if p.Anchor != 0 {
		path += "#" + strconv.FormatUint(uint64(p.Anchor), 10)
	}
	return path
}

func (p Position) String() string {
	if p.Anchor != 0 {
		return fmt.Sprintf("%s#%d", p.Selector(), p.Anchor)
	}
	return p.Selector()
}

// ParseSelector decodes a page selector. "p" is accepted for sections.
func ParseSelector(selector string) (Position, error) {
	selector = strings.TrimSpace(selector)
	if selector == "a" {
		return WholeAt(0), nil
	}
	if len(selector) < 2 {
		return Position{}, invalidf("parse_selector", "malformed selector %q", selector)
	}

	id, err := strconv.ParseUint(selector[1:], 10, 32)
	if err != nil || id == 0 {
		return Position{}, invalidf("parse_selector", "malformed selector %q", selector)
	}

	switch selector[0] {
	case 'q':
		return QuestionAt(uint(id)), nil
	case 's', 'p':
		return SectionAt(uint(id), 0), nil
	default:
		return Position{}, invalidf("parse_selector", "unknown selector prefix %q", selector[:1])
	}
}

// ParseDestination decodes a posted destination: a page selector, i<id> for
// section instructions, or one of the named views.
func ParseDestination(destination string) (Position, error) {
	destination = strings.ToLower(strings.TrimSpace(destination))
	switch Kind(destination) {
	case KindToc, KindFinalReview, KindSubmitted, KindReview, KindList, KindRemoveAttachment:
		return Position{Kind: Kind(destination)}, nil
	}

	if strings.HasPrefix(destination, "i") && len(destination) > 1 {
		id, err := strconv.ParseUint(destination[1:], 10, 32)
		if err != nil || id == 0 {
			return Position{}, invalidf("parse_destination", "malformed destination %q", destination)
		}
		return SectionInstructionsOf(uint(id)), nil
	}

	return ParseSelector(destination)
}
