package services

import (
	"encoding/json"
	"time"

	"badgehub/internal/models"
)

// ===============================
// WEBHOOK PAYLOAD SHAPES
// ===============================

// PayloadShape discriminates the two accepted webhook body shapes.
type PayloadShape string

const (
	// ShapeChangeNotification is the database-change-notification shape
	// carrying a nested record, emitted by datastore webhooks.
	ShapeChangeNotification PayloadShape = "change_notification"
	// ShapeDirect is the generic direct-call shape.
	ShapeDirect PayloadShape = "direct"
)

// ChangeRecord is the nested row image inside a change notification.
type ChangeRecord struct {
	CourseID   string                 `json:"course_id"`
	CourseName string                 `json:"course_name"`
	UserEmail  string                 `json:"user_email" validate:"required,email"`
	UserName   string                 `json:"user_name"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// ChangeNotification is the database-change-notification webhook shape.
type ChangeNotification struct {
	Type      string          `json:"type"`
	Table     string          `json:"table"`
	Schema    string          `json:"schema"`
	Record    *ChangeRecord   `json:"record" validate:"required"`
	OldRecord json.RawMessage `json:"old_record"`
}

// DirectPayload is the generic direct-call webhook shape.
type DirectPayload struct {
	Name                    string `json:"name"`
	Email                   string `json:"email" validate:"required,email"`
	BadgeSlug               string `json:"badgeSlug"`
	CourseID                string `json:"courseId"`
	CourseName              string `json:"courseName"`
	PersonalizedDescription string `json:"personalizedDescription"`
}

// CompletionRequest is the normalized completion signal produced by the
// payload classifier, independent of which wire shape carried it.
type CompletionRequest struct {
	Shape                   PayloadShape
	Name                    string
	Email                   string
	BadgeSlug               string
	CourseID                string
	CourseName              string
	PersonalizedDescription string
}

// ===============================
// SIDE-EFFECT OUTCOMES
// ===============================

// EmailStatus is the notification outcome reported in the webhook response.
type EmailStatus string

const (
	EmailSent    EmailStatus = "sent"
	EmailSkipped EmailStatus = "skipped"
	EmailFailed  EmailStatus = "failed"
)

// EmailOutcome captures the best-effort notification result. It is merged
// into the success response and never fails the request.
type EmailOutcome struct {
	Status EmailStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

// CertificateOutcome captures the best-effort certificate generation
// result. An empty URL with a non-nil Err means generation failed and the
// award was returned without an artifact.
type CertificateOutcome struct {
	URL         string
	StoragePath string
	Err         error
}

// ===============================
// PIPELINE RESULTS
// ===============================

// IssuanceResult aggregates everything the webhook response echoes back:
// the durable award plus the outcome of each post-commit side effect.
type IssuanceResult struct {
	BadgeSlug      string
	RecipientName  string
	RecipientEmail string
	Award          *models.Award
	AwardURL       string
	Reused         bool
	Certificate    CertificateOutcome
	Email          EmailOutcome
}

// ===============================
// CERTIFICATE SERVICE TYPES
// ===============================

// GenerateCertificateRequest carries everything substituted into the
// certificate template.
type GenerateCertificateRequest struct {
	RecipientName    string
	IssuedAt         time.Time
	VerificationCode string
	BadgeTitle       string
}

// GenerateCertificateResult is the stored artifact location.
type GenerateCertificateResult struct {
	PublicURL   string
	StoragePath string
}

// ===============================
// NOTIFICATION SERVICE TYPES
// ===============================

// NotifyRequest carries the recipient and award context for the issuance
// email.
type NotifyRequest struct {
	RecipientEmail   string
	RecipientName    string
	BadgeName        string
	VerificationCode string
	BadgeURL         string
	Description      string
	CertificateURL   string
	// Reused marks an idempotent replay; notifications fire only on first
	// issuance.
	Reused bool
}
