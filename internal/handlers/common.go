package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/delivery-service/internal/delivery"
	apperrors "github.com/SAP-F-2025/delivery-service/internal/errors"
	"github.com/SAP-F-2025/delivery-service/internal/services"
	"github.com/SAP-F-2025/delivery-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message  string                     `json:"message"`
	Details  interface{}                `json:"details,omitempty"`
	Code     string                     `json:"code,omitempty"`
	Recovery *services.PositionResponse `json:"recovery,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the caller attached
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"),
		"user_id", h.getUserID(c),
	}
	fields = append(fields, additionalFields...)

	utils.GetLoggerFromContext(c, h.logger).Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetString("request_id"),
		"user_id", h.getUserID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	utils.GetLoggerFromContext(c, h.logger).LogError(err, message, fields...)
}

func (h *BaseHandler) getUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		return ""
	}
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// requireUserID writes 401 and returns "" when no caller is attached
func (h *BaseHandler) requireUserID(c *gin.Context) string {
	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
	}
	return userID
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		details := "ID must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service and engine errors onto HTTP statuses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors apperrors.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
			Code:    string(delivery.CodeInvalid),
		})
		return
	}

	var deliveryErr *delivery.Error
	if errors.As(err, &deliveryErr) {
		h.handleDeliveryError(c, deliveryErr)
		return
	}

	switch {
	case errors.Is(err, services.ErrAssessmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Assessment not found",
		})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Submission not found",
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

func (h *BaseHandler) handleDeliveryError(c *gin.Context, err *delivery.Error) {
	resp := ErrorResponse{
		Message: err.Error(),
		Code:    string(err.Code),
	}
	if err.Recovery != nil {
		recovery := services.NewPositionResponse(*err.Recovery, err.SubmissionID)
		resp.Recovery = &recovery
	}

	var status int
	switch err.Code {
	case delivery.CodeInvalid, delivery.CodeUploadFailed:
		status = http.StatusBadRequest
	case delivery.CodeUnauthorized:
		status = http.StatusForbidden
		var permissionError *services.PermissionError
		if errors.As(err, &permissionError) {
			resp.Message = "Access denied"
			resp.Details = map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			}
		}
	case delivery.CodePassword:
		status = http.StatusForbidden
		resp.Message = "Incorrect access password"
	case delivery.CodeLinear:
		status = http.StatusConflict
	case delivery.CodeClosed:
		status = http.StatusGone
	default:
		h.LogError(c, err, "Unexpected delivery error")
		status = http.StatusInternalServerError
	}

	c.JSON(status, resp)
}
