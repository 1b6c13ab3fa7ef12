package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"badgehub/internal/models"
	"badgehub/internal/response"
	"badgehub/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockIssuanceService returns a canned pipeline result or error
type mockIssuanceService struct {
	result  *services.IssuanceResult
	err     error
	lastReq *services.CompletionRequest
}

func (m *mockIssuanceService) ProcessCompletion(ctx context.Context, req *services.CompletionRequest) (*services.IssuanceResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func newTestController(issuance services.IssuanceService) *WebhookController {
	logger := zap.NewNop()
	collection := &services.ServiceCollection{IssuanceService: issuance}
	return NewWebhookController(collection, logger, response.NewBuilder(response.DefaultConfig(), logger))
}

func issuanceResult() *services.IssuanceResult {
	description := "Top of the cohort"
	return &services.IssuanceResult{
		BadgeSlug:      "green-software-practitioner",
		RecipientName:  "Jane Doe",
		RecipientEmail: "jane@x.com",
		Award: &models.Award{
			ID:                      "abc-123",
			IssuedAt:                time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC),
			PersonalizedDescription: &description,
		},
		AwardURL: "https://badges.test/awards/abc-123",
		Certificate: services.CertificateOutcome{
			URL: "https://storage.test/certificates/awards/abc-123.pdf",
		},
		Email: services.EmailOutcome{Status: services.EmailSent},
	}
}

func TestHandleCompletionSuccess(t *testing.T) {
	mock := &mockIssuanceService{result: issuanceResult()}
	controller := newTestController(mock)

	body := []byte(`{"name": "Jane Doe", "email": "jane@x.com", "courseId": "gsp"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/course-completion", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	controller.HandleCompletion(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var resp struct {
		Status         string `json:"status"`
		BadgeSlug      string `json:"badgeSlug"`
		RecipientEmail string `json:"recipientEmail"`
		RecipientName  string `json:"recipientName"`
		Award          struct {
			ID                      string  `json:"id"`
			VerificationCode        string  `json:"verificationCode"`
			IssuedAt                string  `json:"issuedAt"`
			PersonalizedDescription *string `json:"personalizedDescription"`
			URL                     string  `json:"url"`
			CertificateURL          string  `json:"certificateUrl"`
		} `json:"award"`
		Email struct {
			Status string `json:"status"`
			Reason string `json:"reason"`
		} `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "green-software-practitioner", resp.BadgeSlug)
	assert.Equal(t, "jane@x.com", resp.RecipientEmail)
	assert.Equal(t, "Jane Doe", resp.RecipientName)
	assert.Equal(t, "abc-123", resp.Award.ID)
	assert.Equal(t, "abc-123", resp.Award.VerificationCode)
	assert.Equal(t, "https://badges.test/awards/abc-123", resp.Award.URL)
	assert.Equal(t, "https://storage.test/certificates/awards/abc-123.pdf", resp.Award.CertificateURL)
	require.NotNil(t, resp.Award.PersonalizedDescription)
	assert.Equal(t, "Top of the cohort", *resp.Award.PersonalizedDescription)
	assert.Equal(t, "sent", resp.Email.Status)

	require.NotNil(t, mock.lastReq)
	assert.Equal(t, "gsp", mock.lastReq.CourseID)
}

func TestHandleCompletionMissingCertificateOmitted(t *testing.T) {
	result := issuanceResult()
	result.Certificate = services.CertificateOutcome{}
	controller := newTestController(&mockIssuanceService{result: result})

	body := []byte(`{"name": "Jane Doe", "email": "jane@x.com", "courseId": "gsp"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/course-completion", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	controller.HandleCompletion(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "certificateUrl")
}

func TestHandleCompletionMalformedBody(t *testing.T) {
	controller := newTestController(&mockIssuanceService{result: issuanceResult()})

	body := []byte(`{"name": "Jane Doe", "courseId": "gsp"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/course-completion", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	controller.HandleCompletion(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Type)
	require.NotEmpty(t, resp.Error.Fields)
	assert.Equal(t, "email", resp.Error.Fields[0].Field)
}

func TestHandleCompletionBadgeNotFound(t *testing.T) {
	controller := newTestController(&mockIssuanceService{
		err: services.NewNotFoundError(`badge "does-not-exist" not found`),
	})

	body := []byte(`{"name": "Jane Doe", "email": "jane@x.com", "badgeSlug": "does-not-exist"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/course-completion", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	controller.HandleCompletion(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCompletionPersistenceError(t *testing.T) {
	controller := newTestController(&mockIssuanceService{
		err: services.NewPersistenceError("failed to create award", nil),
	})

	body := []byte(`{"name": "Jane Doe", "email": "jane@x.com", "courseId": "gsp"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/course-completion", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	controller.HandleCompletion(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleOptionsNoContent(t *testing.T) {
	controller := newTestController(&mockIssuanceService{})

	req := httptest.NewRequest(http.MethodOptions, "/webhooks/course-completion", nil)
	rec := httptest.NewRecorder()

	controller.HandleOptions(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
