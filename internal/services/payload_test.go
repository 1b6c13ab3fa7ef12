package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPayloadChangeNotification(t *testing.T) {
	body := []byte(`{
		"type": "INSERT",
		"table": "course_completions",
		"schema": "public",
		"record": {
			"course_id": "gsp",
			"course_name": "Green Software Practitioner",
			"user_email": "jane@x.com",
			"user_name": "Jane Doe",
			"metadata": {"personalized_description": "Top of the cohort"}
		}
	}`)

	req, err := ClassifyPayload(body)

	require.Nil(t, err)
	assert.Equal(t, ShapeChangeNotification, req.Shape)
	assert.Equal(t, "Jane Doe", req.Name)
	assert.Equal(t, "jane@x.com", req.Email)
	assert.Equal(t, "gsp", req.CourseID)
	assert.Equal(t, "Green Software Practitioner", req.CourseName)
	assert.Equal(t, "Top of the cohort", req.PersonalizedDescription)
}

func TestClassifyPayloadDirect(t *testing.T) {
	body := []byte(`{
		"name": "Jane Doe",
		"email": "jane@x.com",
		"badgeSlug": "green-software-practitioner",
		"personalizedDescription": "Completed with distinction"
	}`)

	req, err := ClassifyPayload(body)

	require.Nil(t, err)
	assert.Equal(t, ShapeDirect, req.Shape)
	assert.Equal(t, "Jane Doe", req.Name)
	assert.Equal(t, "jane@x.com", req.Email)
	assert.Equal(t, "green-software-practitioner", req.BadgeSlug)
	assert.Equal(t, "Completed with distinction", req.PersonalizedDescription)
}

func TestClassifyPayloadPrefersChangeNotificationShape(t *testing.T) {
	// The record key marks the structured shape even when direct-shape
	// keys are also present.
	body := []byte(`{
		"name": "ignored",
		"email": "ignored@x.com",
		"record": {
			"course_id": "cac",
			"user_email": "real@x.com",
			"user_name": "Real Name"
		}
	}`)

	req, err := ClassifyPayload(body)

	require.Nil(t, err)
	assert.Equal(t, ShapeChangeNotification, req.Shape)
	assert.Equal(t, "real@x.com", req.Email)
}

func TestClassifyPayloadTrimsPaddedEmail(t *testing.T) {
	body := []byte(`{"name": "Jane", "email": "  jane@x.com  ", "courseId": "gsp"}`)

	req, err := ClassifyPayload(body)

	require.Nil(t, err)
	assert.Equal(t, "jane@x.com", req.Email)
}

func TestClassifyPayloadMissingEmail(t *testing.T) {
	body := []byte(`{"name": "Jane Doe", "courseId": "gsp"}`)

	req, err := ClassifyPayload(body)

	require.NotNil(t, err)
	assert.Nil(t, req)
	assert.Equal(t, "VALIDATION_ERROR", err.Type)
	require.NotEmpty(t, err.Fields)
	assert.Equal(t, "email", err.Fields[0].Field)
}

func TestClassifyPayloadInvalidEmailInRecord(t *testing.T) {
	body := []byte(`{
		"record": {
			"course_id": "gsp",
			"user_email": "not-an-email",
			"user_name": "Jane"
		}
	}`)

	req, err := ClassifyPayload(body)

	require.NotNil(t, err)
	assert.Nil(t, req)
	assert.Equal(t, "VALIDATION_ERROR", err.Type)
}

func TestClassifyPayloadEmptyBody(t *testing.T) {
	req, err := ClassifyPayload(nil)

	require.NotNil(t, err)
	assert.Nil(t, req)
	assert.Equal(t, "VALIDATION_ERROR", err.Type)
}

func TestClassifyPayloadMalformedJSON(t *testing.T) {
	req, err := ClassifyPayload([]byte(`{"name": `))

	require.NotNil(t, err)
	assert.Nil(t, req)
	assert.Equal(t, "VALIDATION_ERROR", err.Type)
}

func TestClassifyPayloadBadgeSlugFromMetadata(t *testing.T) {
	body := []byte(`{
		"record": {
			"course_id": "unknown-course",
			"user_email": "jane@x.com",
			"user_name": "Jane",
			"metadata": {"badge_slug": "carbon-aware-computing"}
		}
	}`)

	req, err := ClassifyPayload(body)

	require.Nil(t, err)
	assert.Equal(t, "carbon-aware-computing", req.BadgeSlug)
}
