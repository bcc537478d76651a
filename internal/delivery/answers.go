package delivery

import "github.com/SAP-F-2025/delivery-service/internal/models"

// DecideCompletion says whether a batch of answers posted from current on
// the way to destination is final. Escapes and re-posts of the same page
// only save a draft.
func DecideCompletion(assessment *models.Assessment, current, destination Position, uploadFailed bool) bool {
	if uploadFailed {
		return false
	}
	if assessment.RandomAccess {
		return true
	}
	if destination.Kind == KindSubmitted {
		return true
	}
	if destination.IsEscape() || destination.SameAs(current) {
		return false
	}
	return true
}

// MarkSubmission reports whether the post asks to finish the submission, as
// when the client timer posts straight to Submitted.
func MarkSubmission(destination Position, uploadFailed bool) bool {
	return !uploadFailed && destination.Kind == KindSubmitted
}
