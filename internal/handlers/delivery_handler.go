package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/delivery-service/internal/services"
	"github.com/SAP-F-2025/delivery-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DeliveryHandler struct {
	BaseHandler
	deliveryService services.DeliveryService
	exportService   services.ExportService
}

func NewDeliveryHandler(
	deliveryService services.DeliveryService,
	exportService services.ExportService,
	logger utils.Logger,
) *DeliveryHandler {
	return &DeliveryHandler{
		BaseHandler:     NewBaseHandler(logger),
		deliveryService: deliveryService,
		exportService:   exportService,
	}
}

type enterBody struct {
	Password string `json:"password"`
}

// ===== ENTRY =====

// Enter starts or resumes the caller's submission for an assessment
// @Summary Enter assessment
// @Description Creates the caller's submission, or reuses the one in progress, and returns the landing position
// @Tags delivery
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param body body enterBody false "Access password"
// @Success 200 {object} services.DeliveryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /assessments/{id}/enter [post]
func (h *DeliveryHandler) Enter(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var body enterBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	h.LogRequest(c, "Entering assessment", "assessment_id", assessmentID)

	resp, err := h.deliveryService.Enter(c.Request.Context(), &services.EnterRequest{
		AssessmentID: assessmentID,
		Password:     body.Password,
	}, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Resume returns where the caller left off
// @Summary Resume submission
// @Tags delivery
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.DeliveryResponse
// @Failure 403 {object} ErrorResponse
// @Router /submissions/{id}/resume [get]
func (h *DeliveryHandler) Resume(c *gin.Context) {
	h.withSubmission(c, func(submissionID uint, userID string) (interface{}, error) {
		return h.deliveryService.Resume(c.Request.Context(), submissionID, userID)
	})
}

// ===== PAGES =====

// GetPage renders one page of the submission
// @Summary Get page
// @Description Renders the page named by the selector (q<id>, s<id> or a). Linear assessments only show the current step
// @Tags delivery
// @Produce json
// @Param id path uint true "Submission ID"
// @Param selector path string true "Page selector"
// @Success 200 {object} services.DeliveryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/pages/{selector} [get]
func (h *DeliveryHandler) GetPage(c *gin.Context) {
	selector := c.Param("selector")
	h.withSubmission(c, func(submissionID uint, userID string) (interface{}, error) {
		return h.deliveryService.GetPage(c.Request.Context(), submissionID, selector, userID)
	})
}

// SubmitPage saves the answers posted from a page and moves on
// @Summary Submit page
// @Description Saves the page's answers, then follows the destination or intent (NEXT, PREV, FINISH)
// @Tags delivery
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param selector path string true "Page selector"
// @Param body body services.SubmitPageRequest true "Answers and navigation"
// @Success 200 {object} services.DeliveryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /submissions/{id}/pages/{selector} [post]
func (h *DeliveryHandler) SubmitPage(c *gin.Context) {
	submissionID := h.parseIDParam(c, "id")
	if submissionID == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var req services.SubmitPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.SubmissionID = submissionID
	req.Selector = c.Param("selector")

	h.LogRequest(c, "Submitting page",
		"submission_id", submissionID,
		"selector", req.Selector,
		"intent", req.Intent,
		"destination", req.Destination)

	resp, err := h.deliveryService.SubmitPage(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SectionInstructions shows a section's instructions page
// @Summary Section instructions
// @Tags delivery
// @Produce json
// @Param id path uint true "Submission ID"
// @Param section_id path uint true "Section ID"
// @Success 200 {object} services.DeliveryResponse
// @Failure 400 {object} ErrorResponse
// @Router /submissions/{id}/instructions/{section_id} [get]
func (h *DeliveryHandler) SectionInstructions(c *gin.Context) {
	sectionID := h.parseIDParam(c, "section_id")
	if sectionID == 0 {
		return
	}
	h.withSubmission(c, func(submissionID uint, userID string) (interface{}, error) {
		return h.deliveryService.SectionInstructions(c.Request.Context(), submissionID, sectionID, userID)
	})
}

// Toc lists every question with its answer state
// @Summary Table of contents
// @Tags delivery
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.DeliveryResponse
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/toc [get]
func (h *DeliveryHandler) Toc(c *gin.Context) {
	h.withSubmission(c, func(submissionID uint, userID string) (interface{}, error) {
		return h.deliveryService.Toc(c.Request.Context(), submissionID, userID)
	})
}

// ===== COMPLETION =====

// Finish completes the submission, or sends it to final review
// @Summary Finish submission
// @Tags delivery
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.DeliveryResponse
// @Router /submissions/{id}/finish [post]
func (h *DeliveryHandler) Finish(c *gin.Context) {
	h.withSubmission(c, func(submissionID uint, userID string) (interface{}, error) {
		return h.deliveryService.Finish(c.Request.Context(), submissionID, userID)
	})
}

// Review shows a completed submission
// @Summary Review submission
// @Tags delivery
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.DeliveryResponse
// @Failure 403 {object} ErrorResponse
// @Router /submissions/{id}/review [get]
func (h *DeliveryHandler) Review(c *gin.Context) {
	h.withSubmission(c, func(submissionID uint, userID string) (interface{}, error) {
		return h.deliveryService.Review(c.Request.Context(), submissionID, userID)
	})
}

// Expiration returns timer data for the submission
// @Summary Submission expiration
// @Tags delivery
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.ExpirationResponse
// @Router /submissions/{id}/expiration [get]
func (h *DeliveryHandler) Expiration(c *gin.Context) {
	h.withSubmission(c, func(submissionID uint, userID string) (interface{}, error) {
		return h.deliveryService.Expiration(c.Request.Context(), submissionID, userID)
	})
}

// ===== EXPORT =====

// ExportSubmissions downloads submission progress as a spreadsheet
// @Summary Export submissions
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Assessment ID"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/submissions/export [get]
func (h *DeliveryHandler) ExportSubmissions(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Exporting submissions", "assessment_id", assessmentID)

	data, err := h.exportService.ExportSubmissions(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("assessment_%d_submissions.xlsx", assessmentID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// withSubmission parses the submission id and caller, then writes the
// result of fn as JSON.
func (h *DeliveryHandler) withSubmission(c *gin.Context, fn func(submissionID uint, userID string) (interface{}, error)) {
	submissionID := h.parseIDParam(c, "id")
	if submissionID == 0 {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	resp, err := fn(submissionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
