package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SAP-F-2025/delivery-service/internal/delivery"
	apperrors "github.com/SAP-F-2025/delivery-service/internal/errors"
	"github.com/SAP-F-2025/delivery-service/internal/middleware"
	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/SAP-F-2025/delivery-service/internal/services"
	"github.com/SAP-F-2025/delivery-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDeliveryService struct {
	mock.Mock
}

func (m *MockDeliveryService) respond(args mock.Arguments) (*services.DeliveryResponse, error) {
	if resp := args.Get(0); resp != nil {
		return resp.(*services.DeliveryResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDeliveryService) Enter(ctx context.Context, req *services.EnterRequest, userID string) (*services.DeliveryResponse, error) {
	return m.respond(m.Called(ctx, req, userID))
}

func (m *MockDeliveryService) Resume(ctx context.Context, submissionID uint, userID string) (*services.DeliveryResponse, error) {
	return m.respond(m.Called(ctx, submissionID, userID))
}

func (m *MockDeliveryService) GetPage(ctx context.Context, submissionID uint, selector string, userID string) (*services.DeliveryResponse, error) {
	return m.respond(m.Called(ctx, submissionID, selector, userID))
}

func (m *MockDeliveryService) SubmitPage(ctx context.Context, req *services.SubmitPageRequest, userID string) (*services.DeliveryResponse, error) {
	return m.respond(m.Called(ctx, req, userID))
}

func (m *MockDeliveryService) SectionInstructions(ctx context.Context, submissionID, sectionID uint, userID string) (*services.DeliveryResponse, error) {
	return m.respond(m.Called(ctx, submissionID, sectionID, userID))
}

func (m *MockDeliveryService) Toc(ctx context.Context, submissionID uint, userID string) (*services.DeliveryResponse, error) {
	return m.respond(m.Called(ctx, submissionID, userID))
}

func (m *MockDeliveryService) Finish(ctx context.Context, submissionID uint, userID string) (*services.DeliveryResponse, error) {
	return m.respond(m.Called(ctx, submissionID, userID))
}

func (m *MockDeliveryService) Review(ctx context.Context, submissionID uint, userID string) (*services.DeliveryResponse, error) {
	return m.respond(m.Called(ctx, submissionID, userID))
}

func (m *MockDeliveryService) Expiration(ctx context.Context, submissionID uint, userID string) (*services.ExpirationResponse, error) {
	args := m.Called(ctx, submissionID, userID)
	if resp := args.Get(0); resp != nil {
		return resp.(*services.ExpirationResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportSubmissions(ctx context.Context, assessmentID uint, userID string) ([]byte, error) {
	args := m.Called(ctx, assessmentID, userID)
	if data := args.Get(0); data != nil {
		return data.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExportService) SubmissionRows(ctx context.Context, assessmentID uint) ([]services.SubmissionExportRow, error) {
	args := m.Called(ctx, assessmentID)
	if rows := args.Get(0); rows != nil {
		return rows.([]services.SubmissionExportRow), args.Error(1)
	}
	return nil, args.Error(1)
}

func setupRouter() (*gin.Engine, *MockDeliveryService, *MockExportService) {
	gin.SetMode(gin.TestMode)

	deliveryService := &MockDeliveryService{}
	exportService := &MockExportService{}
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	router.Use(middleware.RequestID())
	NewHandlerManager(deliveryService, exportService, logger).SetupRoutes(router, middleware.DevAuth())
	return router, deliveryService, exportService
}

func doRequest(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if _, ok := headers["X-User-ID"]; !ok && headers != nil {
		headers["X-User-ID"] = "user-1"
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asUser() map[string]string { return map[string]string{} }

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDeliveryHandler_Enter(t *testing.T) {
	t.Run("returns landing position", func(t *testing.T) {
		router, deliveryService, _ := setupRouter()
		landing := delivery.SectionInstructionsOf(10)
		deliveryService.On("Enter", mock.Anything, &services.EnterRequest{AssessmentID: 1, Password: "secret"}, "user-1").
			Return(&services.DeliveryResponse{
				SubmissionID: 7,
				AssessmentID: 1,
				Status:       models.SubmissionInProgress,
				Position:     services.NewPositionResponse(landing, 7),
			}, nil)

		w := doRequest(router, http.MethodPost, "/api/v1/assessments/1/enter", `{"password":"secret"}`, asUser())
		require.Equal(t, http.StatusOK, w.Code)

		var resp services.DeliveryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "/part_instructions/7/10", resp.Position.Path)
		deliveryService.AssertExpectations(t)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		router, deliveryService, _ := setupRouter()

		w := doRequest(router, http.MethodPost, "/api/v1/assessments/1/enter", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		deliveryService.AssertNotCalled(t, "Enter", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid id", func(t *testing.T) {
		router, _, _ := setupRouter()

		w := doRequest(router, http.MethodPost, "/api/v1/assessments/abc/enter", "", asUser())
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeliveryHandler_ErrorMapping(t *testing.T) {
	recovery := delivery.QuestionAt(2)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid", delivery.NewError(delivery.CodeInvalid, "get_page", 7, errors.New("unknown question 9")), http.StatusBadRequest, "invalid"},
		{"validation", apperrors.ValidationErrors{{Field: "selector", Message: "is not a valid page selector"}}, http.StatusBadRequest, "invalid"},
		{"unauthorized", delivery.NewError(delivery.CodeUnauthorized, "get_page", 7,
			services.NewPermissionError("user-1", 7, "submission", "get_page", "not owned by user")), http.StatusForbidden, "unauthorized"},
		{"password", delivery.NewError(delivery.CodePassword, "enter", 0, errors.New("mismatch")), http.StatusForbidden, "password"},
		{"linear", &delivery.Error{Code: delivery.CodeLinear, Op: "build_page", SubmissionID: 7, Recovery: &recovery}, http.StatusConflict, "linear"},
		{"closed", delivery.NewError(delivery.CodeClosed, "enter", 0, errors.New("closed")), http.StatusGone, "closed"},
		{"storage", errors.New("connection reset"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, deliveryService, _ := setupRouter()
			deliveryService.On("GetPage", mock.Anything, uint(7), "q4", "user-1").Return(nil, tt.err)

			w := doRequest(router, http.MethodGet, "/api/v1/submissions/7/pages/q4", "", asUser())
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}

	t.Run("linear carries recovery position", func(t *testing.T) {
		router, deliveryService, _ := setupRouter()
		deliveryService.On("GetPage", mock.Anything, uint(7), "q4", "user-1").
			Return(nil, &delivery.Error{Code: delivery.CodeLinear, SubmissionID: 7, Recovery: &recovery})

		w := doRequest(router, http.MethodGet, "/api/v1/submissions/7/pages/q4", "", asUser())
		resp := decodeError(t, w)
		require.NotNil(t, resp.Recovery)
		assert.Equal(t, "/question/7/q2", resp.Recovery.Path)
	})
}

func TestDeliveryHandler_SubmitPage(t *testing.T) {
	t.Run("path parameters fill the request", func(t *testing.T) {
		router, deliveryService, _ := setupRouter()
		deliveryService.On("SubmitPage", mock.Anything, mock.MatchedBy(func(req *services.SubmitPageRequest) bool {
			return req.SubmissionID == 7 && req.Selector == "q1" && req.Intent == "NEXT" &&
				len(req.Answers) == 1 && req.Answers[0].QuestionID == 1
		}), "user-1").Return(&services.DeliveryResponse{
			SubmissionID: 7,
			Position:     services.NewPositionResponse(delivery.QuestionAt(2), 7),
		}, nil)

		body := `{"intent":"NEXT","answers":[{"question_id":1,"answered":true,"entry":{"choice":"b"}}]}`
		w := doRequest(router, http.MethodPost, "/api/v1/submissions/7/pages/q1", body, asUser())
		require.Equal(t, http.StatusOK, w.Code)
		deliveryService.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _, _ := setupRouter()

		w := doRequest(router, http.MethodPost, "/api/v1/submissions/7/pages/q1", `{"answers":`, asUser())
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeliveryHandler_Expiration(t *testing.T) {
	router, deliveryService, _ := setupRouter()
	remaining := int64(3000)
	deliveryService.On("Expiration", mock.Anything, uint(7), "user-1").
		Return(&services.ExpirationResponse{Cause: models.CauseTimeLimit, RemainingSeconds: &remaining}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/submissions/7/expiration", "", asUser())
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cause":"time_limit","remaining_seconds":3000,"over":false}`, w.Body.String())
}

func TestDeliveryHandler_ExportSubmissions(t *testing.T) {
	t.Run("requires admin", func(t *testing.T) {
		router, _, exportService := setupRouter()

		w := doRequest(router, http.MethodGet, "/api/v1/assessments/1/submissions/export", "", asUser())
		assert.Equal(t, http.StatusForbidden, w.Code)
		exportService.AssertNotCalled(t, "ExportSubmissions", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("downloads workbook", func(t *testing.T) {
		router, _, exportService := setupRouter()
		exportService.On("ExportSubmissions", mock.Anything, uint(1), "admin-1").Return([]byte("xlsx"), nil)

		w := doRequest(router, http.MethodGet, "/api/v1/assessments/1/submissions/export", "",
			map[string]string{"X-User-ID": "admin-1", "X-User-Admin": "true"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "assessment_1_submissions.xlsx")
		assert.Equal(t, "xlsx", w.Body.String())
	})

	t.Run("unknown assessment", func(t *testing.T) {
		router, _, exportService := setupRouter()
		exportService.On("ExportSubmissions", mock.Anything, uint(9), "admin-1").Return(nil, services.ErrAssessmentNotFound)

		w := doRequest(router, http.MethodGet, "/api/v1/assessments/9/submissions/export", "",
			map[string]string{"X-User-ID": "admin-1", "X-User-Admin": "true"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := setupRouter()

	w := doRequest(router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"delivery-service"}`, w.Body.String())
}
