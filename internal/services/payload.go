package services

import (
	"encoding/json"
	"strings"

	"badgehub/internal/validation"
)

// ClassifyPayload detects which webhook body shape was sent by structural
// validation, not by a type tag. The more structured change-notification
// shape is tried first; the generic direct shape is the fallback. Both
// rejections produce a single validation error carrying field detail for
// each attempted shape.
func ClassifyPayload(body []byte) (*CompletionRequest, *ServiceError) {
	if len(body) == 0 {
		return nil, NewValidationError("request body is empty", nil)
	}

	// A change notification is recognized by its nested record object.
	var notification ChangeNotification
	if err := json.Unmarshal(body, &notification); err == nil && notification.Record != nil {
		// Trim before validating so padded addresses pass the email
		// constraint; full normalization happens in the person upsert.
		notification.Record.UserEmail = strings.TrimSpace(notification.Record.UserEmail)
		issues, verr := validation.ValidateStruct(&notification)
		if verr != nil {
			return nil, NewValidationError("failed to validate payload", verr)
		}
		if len(issues) == 0 {
			return fromChangeNotification(&notification), nil
		}
		return nil, NewDetailedValidationError(
			"change notification payload is invalid",
			toFieldErrors(issues),
		)
	}

	var direct DirectPayload
	if err := json.Unmarshal(body, &direct); err != nil {
		return nil, NewValidationError("request body is not valid JSON", err)
	}

	direct.Email = strings.TrimSpace(direct.Email)
	issues, verr := validation.ValidateStruct(&direct)
	if verr != nil {
		return nil, NewValidationError("failed to validate payload", verr)
	}
	if len(issues) > 0 {
		return nil, NewDetailedValidationError(
			"payload matches neither accepted webhook shape",
			toFieldErrors(issues),
		)
	}

	return fromDirectPayload(&direct), nil
}

func fromChangeNotification(n *ChangeNotification) *CompletionRequest {
	req := &CompletionRequest{
		Shape:      ShapeChangeNotification,
		Name:       strings.TrimSpace(n.Record.UserName),
		Email:      n.Record.UserEmail,
		CourseID:   n.Record.CourseID,
		CourseName: n.Record.CourseName,
	}
	if n.Record.Metadata != nil {
		if desc, ok := n.Record.Metadata["personalized_description"].(string); ok {
			req.PersonalizedDescription = desc
		}
		if slug, ok := n.Record.Metadata["badge_slug"].(string); ok {
			req.BadgeSlug = slug
		}
	}
	return req
}

func fromDirectPayload(p *DirectPayload) *CompletionRequest {
	return &CompletionRequest{
		Shape:                   ShapeDirect,
		Name:                    strings.TrimSpace(p.Name),
		Email:                   p.Email,
		BadgeSlug:               p.BadgeSlug,
		CourseID:                p.CourseID,
		CourseName:              p.CourseName,
		PersonalizedDescription: p.PersonalizedDescription,
	}
}

func toFieldErrors(issues []validation.FieldIssue) []FieldError {
	fields := make([]FieldError, 0, len(issues))
	for _, issue := range issues {
		fields = append(fields, FieldError{
			Field:   issue.Field,
			Message: "failed validation: " + issue.Tag,
			Code:    strings.ToUpper(issue.Tag),
		})
	}
	return fields
}
