package services

import (
	"context"
	"testing"
	"time"

	"badgehub/internal/models"
	"badgehub/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAwardServiceFixture() (*memAwardRepo, *stubCertificateService, AwardService) {
	awards := &memAwardRepo{byPair: make(map[awardKey]*models.Award)}
	certificates := &stubCertificateService{}
	repos := &repositories.Collection{Awards: awards}
	return awards, certificates, NewAwardService(repos, certificates, zap.NewNop())
}

func TestAwardGetByIDNotFound(t *testing.T) {
	_, _, service := newAwardServiceFixture()

	award, err := service.GetByID(context.Background(), "missing")

	require.Error(t, err)
	assert.Nil(t, award)
	assert.True(t, IsNotFoundError(err))
}

func TestAwardGetByID(t *testing.T) {
	awards, _, service := newAwardServiceFixture()
	awards.byPair[awardKey{1, 1}] = &models.Award{ID: "abc-123", PersonID: 1, CredentialID: 1}

	award, err := service.GetByID(context.Background(), "abc-123")

	require.NoError(t, err)
	assert.Equal(t, "abc-123", award.ID)
}

func TestRegenerateCertificate(t *testing.T) {
	awards, certificates, service := newAwardServiceFixture()
	awards.byPair[awardKey{1, 1}] = &models.Award{
		ID:            "abc-123",
		PersonID:      1,
		CredentialID:  1,
		IssuedAt:      time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC),
		RecipientName: "Jane Doe",
		BadgeName:     "Green Software Practitioner",
	}

	award, err := service.RegenerateCertificate(context.Background(), "abc-123")

	require.NoError(t, err)
	assert.Equal(t, 1, certificates.calls)
	require.NotNil(t, award.CertificateURL)
	assert.Equal(t, "https://storage.test/certificates/awards/abc-123.pdf", *award.CertificateURL)
	require.Len(t, awards.setURLEver, 1)
}

func TestRegenerateCertificateUnknownAward(t *testing.T) {
	_, certificates, service := newAwardServiceFixture()

	award, err := service.RegenerateCertificate(context.Background(), "missing")

	require.Error(t, err)
	assert.Nil(t, award)
	assert.Zero(t, certificates.calls)
}

func TestRegenerateCertificateGenerationFailure(t *testing.T) {
	awards, certificates, service := newAwardServiceFixture()
	awards.byPair[awardKey{1, 1}] = &models.Award{ID: "abc-123", PersonID: 1, CredentialID: 1}
	certificates.err = NewArtifactError("renderer unavailable", nil)

	award, err := service.RegenerateCertificate(context.Background(), "abc-123")

	require.Error(t, err)
	assert.Nil(t, award)
	assert.Empty(t, awards.setURLEver)
}
