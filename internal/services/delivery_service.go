package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/delivery-service/internal/delivery"
	"github.com/SAP-F-2025/delivery-service/internal/events"
	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/SAP-F-2025/delivery-service/internal/observability"
	"github.com/SAP-F-2025/delivery-service/internal/repositories"
	"github.com/SAP-F-2025/delivery-service/internal/validator"
	"gorm.io/datatypes"
)

// DeliveryService drives a user through an assessment: entering, page
// navigation, answer submission and completion.
type DeliveryService interface {
	Enter(ctx context.Context, req *EnterRequest, userID string) (*DeliveryResponse, error)
	Resume(ctx context.Context, submissionID uint, userID string) (*DeliveryResponse, error)
	GetPage(ctx context.Context, submissionID uint, selector string, userID string) (*DeliveryResponse, error)
	SubmitPage(ctx context.Context, req *SubmitPageRequest, userID string) (*DeliveryResponse, error)
	SectionInstructions(ctx context.Context, submissionID, sectionID uint, userID string) (*DeliveryResponse, error)
	Toc(ctx context.Context, submissionID uint, userID string) (*DeliveryResponse, error)
	Finish(ctx context.Context, submissionID uint, userID string) (*DeliveryResponse, error)
	Review(ctx context.Context, submissionID uint, userID string) (*DeliveryResponse, error)
	Expiration(ctx context.Context, submissionID uint, userID string) (*ExpirationResponse, error)
}

type deliveryService struct {
	repo       repositories.Repository
	publisher  events.EventPublisher
	controller *delivery.Controller
	validator  *validator.Validator
	logger     *slog.Logger
	ops        *ServiceLogger
}

func NewDeliveryService(repo repositories.Repository, publisher events.EventPublisher, controller *delivery.Controller, validator *validator.Validator, logger *slog.Logger) DeliveryService {
	return &deliveryService{
		repo:       repo,
		publisher:  publisher,
		controller: controller,
		validator:  validator,
		logger:     logger,
		ops:        NewServiceLogger(logger, LogConfig{Service: "delivery", Component: "delivery_service"}),
	}
}

// session is one loaded submission with its assessment snapshot.
type session struct {
	assessment *models.Assessment
	submission *models.Submission
	resolver   *delivery.Resolver
}

// ===== ENTRY =====

func (s *deliveryService) Enter(ctx context.Context, req *EnterRequest, userID string) (resp *DeliveryResponse, err error) {
	op := s.ops.WithOperation(ctx, "enter", userID)
	defer func() {
		op.LogResult(req.AssessmentID, "assessment", err)
		recordNavigation(delivery.IntentEnter, resp, err)
	}()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.logger.Info("Starting assessment entry",
		"assessment_id", req.AssessmentID,
		"user_id", userID)

	assessment, err := s.loadAssessment(ctx, "enter", req.AssessmentID)
	if err != nil {
		return nil, err
	}

	if assessment.RequiresPassword() &&
		subtle.ConstantTimeCompare([]byte(*assessment.Password), []byte(req.Password)) != 1 {
		return nil, delivery.NewError(delivery.CodePassword, "enter", 0, fmt.Errorf("access password mismatch"))
	}

	sub, err := s.repo.Submission().GetActive(ctx, assessment.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active submission: %w", err)
	}

	resumed := sub != nil
	if !resumed {
		if sub, err = s.startSubmission(ctx, assessment, userID); err != nil {
			return nil, err
		}
	}

	sess := &session{assessment: assessment, submission: sub, resolver: delivery.NewResolver(assessment)}
	if forced, err := s.enforce(ctx, sess); err != nil {
		return nil, err
	} else if forced {
		return s.overResponse(sess), nil
	}

	s.publish(ctx, events.NewSubmissionEnteredEvent(sub, assessment, resumed))

	pos, err := sess.resolver.Resolve(sub, delivery.Position{}, delivery.IntentEnter)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment entered successfully",
		"assessment_id", assessment.ID,
		"submission_id", sub.ID,
		"resumed", resumed,
		"position", pos.String())

	return s.navigationResponse(sess, pos), nil
}

func (s *deliveryService) startSubmission(ctx context.Context, assessment *models.Assessment, userID string) (*models.Submission, error) {
	now := s.controller.Now()
	if !assessment.IsOpen(now) {
		return nil, delivery.NewError(delivery.CodeClosed, "enter", 0,
			fmt.Errorf("assessment %d is not open for submissions", assessment.ID))
	}
	if assessment.QuestionCount() == 0 {
		return nil, delivery.NewError(delivery.CodeInvalid, "enter", 0, ErrAssessmentEmpty)
	}

	started := now
	sub := &models.Submission{
		AssessmentID: assessment.ID,
		UserID:       userID,
		Status:       models.SubmissionInProgress,
		StartedAt:    &started,
		Expiration:   delivery.ExpirationFor(assessment, started),
	}
	if err := s.repo.Submission().Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info("Submission created",
		"submission_id", sub.ID,
		"assessment_id", assessment.ID,
		"due_at", sub.Expiration.DueAt)
	return sub, nil
}

func (s *deliveryService) Resume(ctx context.Context, submissionID uint, userID string) (resp *DeliveryResponse, err error) {
	op := s.ops.WithOperation(ctx, "resume", userID)
	defer func() {
		op.LogResult(submissionID, "submission", err)
		recordNavigation(delivery.IntentResume, resp, err)
	}()

	sess, err := s.load(ctx, "resume", submissionID, userID)
	if err != nil {
		return nil, err
	}
	if forced, err := s.enforce(ctx, sess); err != nil {
		return nil, err
	} else if forced {
		return s.overResponse(sess), nil
	}

	pos, err := sess.resolver.Resolve(sess.submission, delivery.Position{}, delivery.IntentResume)
	if err != nil {
		return nil, err
	}
	return s.navigationResponse(sess, pos), nil
}

// ===== PAGES =====

func (s *deliveryService) GetPage(ctx context.Context, submissionID uint, selector string, userID string) (resp *DeliveryResponse, err error) {
	op := s.ops.WithOperation(ctx, "get_page", userID)
	defer func() { op.LogResult(submissionID, "submission", err) }()

	pos, err := delivery.ParseSelector(selector)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, "get_page", submissionID, userID, pos)
}

func (s *deliveryService) SectionInstructions(ctx context.Context, submissionID, sectionID uint, userID string) (resp *DeliveryResponse, err error) {
	op := s.ops.WithOperation(ctx, "section_instructions", userID)
	defer func() { op.LogResult(submissionID, "submission", err) }()

	return s.render(ctx, "section_instructions", submissionID, userID, delivery.SectionInstructionsOf(sectionID))
}

func (s *deliveryService) Toc(ctx context.Context, submissionID uint, userID string) (resp *DeliveryResponse, err error) {
	op := s.ops.WithOperation(ctx, "toc", userID)
	defer func() { op.LogResult(submissionID, "submission", err) }()

	resp, sess, err := s.renderSession(ctx, "toc", submissionID, userID, delivery.Toc())
	if err != nil || resp.AutoCompleted {
		return resp, err
	}

	resp.Toc = make([]TocEntry, 0, len(resp.Page.Questions))
	for _, q := range resp.Page.Questions {
		entry := TocEntry{
			QuestionID: q.ID,
			SectionID:  q.SectionID,
			Title:      q.Title,
			Position:   NewPositionResponse(sess.resolver.PageOf(q.ID), submissionID),
		}
		if q.Answer != nil {
			entry.IsAnswered = q.Answer.IsAnswered
			entry.IsComplete = q.Answer.IsComplete
			entry.MarkedForReview = q.Answer.MarkedForReview
		}
		resp.Toc = append(resp.Toc, entry)
	}
	return resp, nil
}

func (s *deliveryService) Review(ctx context.Context, submissionID uint, userID string) (resp *DeliveryResponse, err error) {
	op := s.ops.WithOperation(ctx, "review", userID)
	defer func() {
		op.LogResult(submissionID, "submission", err)
		recordNavigation(delivery.IntentReview, resp, err)
	}()

	sess, err := s.load(ctx, "review", submissionID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.enforce(ctx, sess); err != nil {
		return nil, err
	}

	pos, err := sess.resolver.Resolve(sess.submission, delivery.Position{}, delivery.IntentReview)
	if err != nil {
		return nil, err
	}
	page, err := sess.resolver.BuildPage(sess.submission, pos, false)
	if err != nil {
		return nil, err
	}

	resp = s.navigationResponse(sess, pos)
	resp.Page = newPageView(page, sess.submission)
	return resp, nil
}

// render shows a position after the expiration check. Linear assessments
// only show the current step.
func (s *deliveryService) render(ctx context.Context, opName string, submissionID uint, userID string, pos delivery.Position) (*DeliveryResponse, error) {
	resp, _, err := s.renderSession(ctx, opName, submissionID, userID, pos)
	return resp, err
}

func (s *deliveryService) renderSession(ctx context.Context, opName string, submissionID uint, userID string, pos delivery.Position) (*DeliveryResponse, *session, error) {
	sess, err := s.load(ctx, opName, submissionID, userID)
	if err != nil {
		return nil, nil, err
	}
	if forced, err := s.enforce(ctx, sess); err != nil {
		return nil, nil, err
	} else if forced {
		return s.overResponse(sess), sess, nil
	}

	page, err := sess.resolver.BuildPage(sess.submission, pos, true)
	if err != nil {
		if delivery.IsLinear(err) {
			observability.LinearViolations().Inc()
		}
		return nil, nil, err
	}

	resp := s.navigationResponse(sess, pos)
	resp.Page = newPageView(page, sess.submission)
	return resp, sess, nil
}

// ===== ANSWER SUBMISSION =====

func (s *deliveryService) SubmitPage(ctx context.Context, req *SubmitPageRequest, userID string) (resp *DeliveryResponse, err error) {
	intent := delivery.IntentNext
	op := s.ops.WithOperation(ctx, "submit_page", userID)
	defer func() {
		op.LogResult(req.SubmissionID, "submission", err)
		recordNavigation(intent, resp, err)
	}()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	current, err := delivery.ParseSelector(req.Selector)
	if err != nil {
		return nil, err
	}

	var destination delivery.Position
	posted := req.Destination != ""
	if posted {
		if destination, err = delivery.ParseDestination(req.Destination); err != nil {
			return nil, err
		}
	} else if req.Intent != "" {
		if intent, err = delivery.ParseIntent(req.Intent); err != nil {
			return nil, err
		}
	}
	// a Submitted destination goes through the same FINISH rule as the intent
	finishing := delivery.MarkSubmission(destination, req.UploadFailed) ||
		(!req.UploadFailed && intent == delivery.IntentFinish)

	sess, err := s.load(ctx, "submit_page", req.SubmissionID, userID)
	if err != nil {
		return nil, err
	}
	// an expired submission drops the in-flight answers
	if forced, err := s.enforce(ctx, sess); err != nil {
		return nil, err
	} else if forced {
		return s.overResponse(sess), nil
	}
	if finishing && sess.submission.IsComplete() {
		return s.alreadySubmitted(sess), nil
	}

	page, err := sess.resolver.BuildPage(sess.submission, current, false)
	if err != nil {
		return nil, err
	}

	if posted {
		if err := sess.resolver.CheckDestination(sess.submission, destination); err != nil {
			return nil, err
		}
	} else if destination, err = s.destinationFor(sess, current, intent); err != nil {
		return nil, err
	}

	answers, err := toAnswers(req.Answers, page, s.controller)
	if err != nil {
		return nil, delivery.NewError(delivery.CodeInvalid, "submit_page", req.SubmissionID, err)
	}

	markComplete := delivery.DecideCompletion(sess.assessment, current, destination, req.UploadFailed)
	if len(answers) > 0 {
		if err := s.repo.Submission().SaveAnswers(ctx, req.SubmissionID, answers, markComplete); err != nil {
			if !errors.Is(err, repositories.ErrSubmissionCompleted) {
				return nil, fmt.Errorf("failed to save answers: %w", err)
			}
			if !finishing {
				return nil, delivery.NewError(delivery.CodeUnauthorized, "submit_page", req.SubmissionID, ErrSubmissionCompleted)
			}
			// another request completed it first
			if sess.submission, err = s.loadSubmission(ctx, "submit_page", req.SubmissionID, userID); err != nil {
				return nil, err
			}
			return s.alreadySubmitted(sess), nil
		}
	}

	s.logger.Info("Page submitted",
		"submission_id", req.SubmissionID,
		"page", current.String(),
		"destination", destination.String(),
		"answers", len(answers),
		"complete", markComplete)

	if req.UploadFailed {
		resp = s.navigationResponse(sess, current)
		resp.UploadFailed = true
		return resp, nil
	}
	if !finishing {
		return s.navigationResponse(sess, destination), nil
	}

	// reload so completion sees the answers just saved
	if sess.submission, err = s.loadSubmission(ctx, "submit_page", req.SubmissionID, userID); err != nil {
		return nil, err
	}

	var completed bool
	destination, completed = s.controller.Finish(sess.resolver, sess.submission)
	if completed {
		if err := s.persistCompletion(ctx, sess); err != nil {
			return nil, err
		}
	}

	resp = s.navigationResponse(sess, destination)
	resp.Completed = completed
	return resp, nil
}

// alreadySubmitted answers a retried finish on a complete submission.
func (s *deliveryService) alreadySubmitted(sess *session) *DeliveryResponse {
	s.logger.Info("Finish retried on completed submission", "submission_id", sess.submission.ID)
	return s.navigationResponse(sess, delivery.Submitted())
}

// destinationFor resolves an intent posted from a page. FINISH is settled
// after the answers are saved, so it is provisionally Submitted.
func (s *deliveryService) destinationFor(sess *session, current delivery.Position, intent delivery.Intent) (delivery.Position, error) {
	if intent == delivery.IntentFinish {
		return delivery.Submitted(), nil
	}
	return sess.resolver.Resolve(sess.submission, current, intent)
}

func toAnswers(inputs []AnswerInput, page *delivery.Page, controller *delivery.Controller) ([]*models.Answer, error) {
	onPage := make(map[uint]bool, len(page.Questions))
	for _, q := range page.Questions {
		onPage[q.ID] = true
	}

	submittedAt := controller.Now()
	answers := make([]*models.Answer, 0, len(inputs))
	for _, input := range inputs {
		if !onPage[input.QuestionID] {
			return nil, fmt.Errorf("%w: question %d", ErrAnswerNotOnPage, input.QuestionID)
		}
		answer := &models.Answer{
			QuestionID:      input.QuestionID,
			IsAnswered:      input.Answered,
			MarkedForReview: input.MarkedForReview,
			SubmittedAt:     &submittedAt,
		}
		if len(input.Entry) > 0 {
			answer.Entry = datatypes.JSON(input.Entry)
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

// ===== COMPLETION =====

func (s *deliveryService) Finish(ctx context.Context, submissionID uint, userID string) (resp *DeliveryResponse, err error) {
	op := s.ops.WithOperation(ctx, "finish", userID)
	defer func() {
		op.LogResult(submissionID, "submission", err)
		recordNavigation(delivery.IntentFinish, resp, err)
	}()

	sess, err := s.load(ctx, "finish", submissionID, userID)
	if err != nil {
		return nil, err
	}
	if forced, err := s.enforce(ctx, sess); err != nil {
		return nil, err
	} else if forced {
		return s.overResponse(sess), nil
	}

	pos, completed := s.controller.Finish(sess.resolver, sess.submission)
	if completed {
		if err := s.persistCompletion(ctx, sess); err != nil {
			return nil, err
		}
	}

	resp = s.navigationResponse(sess, pos)
	resp.Completed = completed
	return resp, nil
}

func (s *deliveryService) Expiration(ctx context.Context, submissionID uint, userID string) (resp *ExpirationResponse, err error) {
	op := s.ops.WithOperation(ctx, "expiration", userID)
	defer func() { op.LogResult(submissionID, "submission", err) }()

	sess, err := s.load(ctx, "expiration", submissionID, userID)
	if err != nil {
		return nil, err
	}
	forced, err := s.enforce(ctx, sess)
	if err != nil {
		return nil, err
	}

	resp = newExpirationResponse(sess.submission.Expiration, s.controller.Now())
	resp.Over = forced || sess.submission.IsComplete()
	return resp, nil
}

// enforce runs the expiration check. forced reports that this call completed
// the submission; the caller must answer with the submitted view.
func (s *deliveryService) enforce(ctx context.Context, sess *session) (forced bool, err error) {
	overErr := s.controller.Enforce(sess.assessment, sess.submission)
	if overErr == nil {
		return false, nil
	}
	if !delivery.IsOver(overErr) {
		return false, overErr
	}

	s.logger.Info("Submission expired, completing",
		"submission_id", sess.submission.ID,
		"cause", sess.submission.Expiration.Cause,
		"due_at", sess.submission.Expiration.DueAt)

	if err := s.persistCompletion(ctx, sess); err != nil {
		return false, err
	}
	return true, nil
}

// persistCompletion writes a completion decided in memory. Losing the race to
// another request is not an error.
func (s *deliveryService) persistCompletion(ctx context.Context, sess *session) error {
	sub := sess.submission
	err := s.repo.Submission().Complete(ctx, sub.ID, *sub.CompletedAt, *sub.CompletionReason)
	if errors.Is(err, repositories.ErrSubmissionCompleted) {
		s.logger.Info("Submission already completed", "submission_id", sub.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to complete submission: %w", err)
	}

	observability.Completions().WithLabelValues(string(*sub.CompletionReason)).Inc()
	s.publish(ctx, events.NewSubmissionCompletedEvent(sub, sess.assessment, answeredCount(sess)))

	s.logger.Info("Submission completed successfully",
		"submission_id", sub.ID,
		"reason", *sub.CompletionReason)
	return nil
}

func answeredCount(sess *session) int {
	count := 0
	for _, q := range sess.resolver.Ordering().Questions() {
		if sess.submission.IsQuestionAnswered(q.ID) {
			count++
		}
	}
	return count
}

// ===== HELPERS =====

func (s *deliveryService) load(ctx context.Context, opName string, submissionID uint, userID string) (*session, error) {
	sub, err := s.loadSubmission(ctx, opName, submissionID, userID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.loadAssessment(ctx, opName, sub.AssessmentID)
	if err != nil {
		return nil, err
	}
	return &session{assessment: assessment, submission: sub, resolver: delivery.NewResolver(assessment)}, nil
}

func (s *deliveryService) loadSubmission(ctx context.Context, opName string, submissionID uint, userID string) (*models.Submission, error) {
	sub, err := s.repo.Submission().GetByIDWithDetails(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, delivery.NewError(delivery.CodeInvalid, opName, submissionID, ErrSubmissionNotFound)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if sub.UserID != userID {
		return nil, delivery.NewError(delivery.CodeUnauthorized, opName, submissionID,
			NewPermissionError(userID, submissionID, "submission", opName, "not owned by user"))
	}
	return sub, nil
}

func (s *deliveryService) loadAssessment(ctx context.Context, opName string, assessmentID uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, delivery.NewError(delivery.CodeInvalid, opName, 0, ErrAssessmentNotFound)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return assessment, nil
}

func (s *deliveryService) navigationResponse(sess *session, pos delivery.Position) *DeliveryResponse {
	sub := sess.submission
	resp := &DeliveryResponse{
		SubmissionID: sub.ID,
		AssessmentID: sess.assessment.ID,
		Status:       sub.Status,
		Position:     NewPositionResponse(pos, sub.ID),
	}
	if !sub.IsComplete() && sub.Expiration.DueAt != nil {
		resp.Expiration = newExpirationResponse(sub.Expiration, s.controller.Now())
	}
	if pos.Kind == delivery.KindSubmitted {
		next := NewPositionResponse(sess.resolver.SubmittedNext(), sub.ID)
		resp.Next = &next
		resp.SubmitMessage = sess.assessment.SubmitMessage
	}
	return resp
}

func (s *deliveryService) overResponse(sess *session) *DeliveryResponse {
	resp := s.navigationResponse(sess, delivery.Submitted())
	resp.AutoCompleted = true
	resp.Completed = true
	return resp
}

func (s *deliveryService) publish(ctx context.Context, event *events.SubmissionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish submission event",
			"event_type", event.Type,
			"error", err)
	}
}

func recordNavigation(intent delivery.Intent, resp *DeliveryResponse, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = string(delivery.CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
	case resp != nil && resp.AutoCompleted:
		outcome = string(delivery.CodeOver)
	}
	observability.Navigations().WithLabelValues(string(intent), outcome).Inc()
}
