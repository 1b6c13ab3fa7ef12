package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestResolver() *BadgeResolver {
	return NewBadgeResolver("green-software-practitioner", zap.NewNop())
}

func TestResolveExplicitSlugWins(t *testing.T) {
	resolver := newTestResolver()

	slug, err := resolver.Resolve("carbon-aware-computing", "gsp", "Green Software Practitioner")

	require.Nil(t, err)
	assert.Equal(t, "carbon-aware-computing", slug)
}

func TestResolveCourseIDAlias(t *testing.T) {
	resolver := newTestResolver()

	slug, err := resolver.Resolve("", "gsp", "")

	require.Nil(t, err)
	assert.Equal(t, "green-software-practitioner", slug)
}

func TestResolveCourseNameAlias(t *testing.T) {
	resolver := newTestResolver()

	slug, err := resolver.Resolve("", "", "Carbon Aware Computing")

	require.Nil(t, err)
	assert.Equal(t, "carbon-aware-computing", slug)
}

func TestResolveNormalizesCandidates(t *testing.T) {
	resolver := newTestResolver()

	slug, err := resolver.Resolve("", "  GSP  ", "")

	require.Nil(t, err)
	assert.Equal(t, "green-software-practitioner", slug)
}

func TestResolveUnknownCourseFallsBackToDefault(t *testing.T) {
	resolver := newTestResolver()

	slug, err := resolver.Resolve("", "course-9999", "Some Future Course")

	require.Nil(t, err)
	assert.Equal(t, "green-software-practitioner", slug)
}

func TestResolveUnaliasedExplicitSlugPassesThrough(t *testing.T) {
	resolver := newTestResolver()

	// The slug is unknown to the alias table; the credential lookup is
	// the authority on whether it exists.
	slug, err := resolver.Resolve("Does-Not-Exist", "", "")

	require.Nil(t, err)
	assert.Equal(t, "does-not-exist", slug)
}

func TestResolveNoCandidatesFails(t *testing.T) {
	resolver := newTestResolver()

	slug, err := resolver.Resolve("", "", "   ")

	require.NotNil(t, err)
	assert.Empty(t, slug)
	assert.Equal(t, "VALIDATION_ERROR", err.Type)
}
