package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"badgehub/internal/models"
	"badgehub/internal/repositories"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ===============================
// IN-MEMORY REPOSITORY DOUBLES
// ===============================

type memCredentialRepo struct {
	bySlug map[string]*models.Credential
	err    error
}

func (r *memCredentialRepo) GetBySlug(ctx context.Context, slug string) (*models.Credential, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.bySlug[slug], nil
}

func (r *memCredentialRepo) List(ctx context.Context) ([]*models.Credential, error) {
	out := make([]*models.Credential, 0, len(r.bySlug))
	for _, c := range r.bySlug {
		out = append(out, c)
	}
	return out, nil
}

func (r *memCredentialRepo) Create(ctx context.Context, credential *models.Credential) error {
	return nil
}

func (r *memCredentialRepo) Update(ctx context.Context, credential *models.Credential) error {
	return nil
}

type memPersonRepo struct {
	byEmail   map[string]*models.Person
	nextID    int64
	createErr error
	// raceWinner, when set, is installed into byEmail on the first Create
	// call before returning a unique violation.
	raceWinner *models.Person
}

func (r *memPersonRepo) GetByEmail(ctx context.Context, email string) (*models.Person, error) {
	return r.byEmail[email], nil
}

func (r *memPersonRepo) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	for _, p := range r.byEmail {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memPersonRepo) Create(ctx context.Context, person *models.Person) error {
	if r.raceWinner != nil {
		r.byEmail[r.raceWinner.Email] = r.raceWinner
		r.raceWinner = nil
		return &pq.Error{Code: "23505"}
	}
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	person.ID = r.nextID
	person.CreatedAt = time.Now().UTC()
	if r.byEmail == nil {
		r.byEmail = make(map[string]*models.Person)
	}
	r.byEmail[person.Email] = person
	return nil
}

type awardKey struct {
	personID     int64
	credentialID int64
}

type memAwardRepo struct {
	byPair     map[awardKey]*models.Award
	createErr  error
	setURLErr  error
	setURLEver []string
}

func (r *memAwardRepo) GetByID(ctx context.Context, id string) (*models.Award, error) {
	for _, a := range r.byPair {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *memAwardRepo) GetByPersonAndCredential(ctx context.Context, personID, credentialID int64) (*models.Award, error) {
	return r.byPair[awardKey{personID, credentialID}], nil
}

func (r *memAwardRepo) List(ctx context.Context, limit int) ([]*models.Award, error) {
	out := make([]*models.Award, 0, len(r.byPair))
	for _, a := range r.byPair {
		out = append(out, a)
	}
	return out, nil
}

func (r *memAwardRepo) Create(ctx context.Context, award *models.Award) error {
	if r.createErr != nil {
		return r.createErr
	}
	key := awardKey{award.PersonID, award.CredentialID}
	if _, exists := r.byPair[key]; exists {
		return &pq.Error{Code: "23505"}
	}
	if r.byPair == nil {
		r.byPair = make(map[awardKey]*models.Award)
	}
	award.CreatedAt = time.Now().UTC()
	r.byPair[key] = award
	return nil
}

func (r *memAwardRepo) SetCertificateURL(ctx context.Context, id string, certificateURL string) error {
	if r.setURLErr != nil {
		return r.setURLErr
	}
	r.setURLEver = append(r.setURLEver, certificateURL)
	for _, a := range r.byPair {
		if a.ID == id {
			a.CertificateURL = &certificateURL
		}
	}
	return nil
}

// ===============================
// SIDE-EFFECT DOUBLES
// ===============================

type stubCertificateService struct {
	result *GenerateCertificateResult
	err    error
	calls  int
}

func (s *stubCertificateService) Generate(ctx context.Context, req *GenerateCertificateRequest) (*GenerateCertificateResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &GenerateCertificateResult{
		PublicURL:   "https://storage.test/certificates/awards/" + req.VerificationCode + ".pdf",
		StoragePath: "awards/" + req.VerificationCode + ".pdf",
	}, nil
}

type stubNotificationService struct {
	outcome  EmailOutcome
	requests []*NotifyRequest
}

func (s *stubNotificationService) Notify(ctx context.Context, req *NotifyRequest) EmailOutcome {
	s.requests = append(s.requests, req)
	if s.outcome.Status != "" {
		return s.outcome
	}
	if req.Reused {
		return EmailOutcome{Status: EmailSkipped, Reason: "existing award reused"}
	}
	return EmailOutcome{Status: EmailSent}
}

// ===============================
// FIXTURE
// ===============================

type issuanceFixture struct {
	credentials   *memCredentialRepo
	people        *memPersonRepo
	awards        *memAwardRepo
	certificates  *stubCertificateService
	notifications *stubNotificationService
	service       IssuanceService
}

func newIssuanceFixture() *issuanceFixture {
	f := &issuanceFixture{
		credentials: &memCredentialRepo{
			bySlug: map[string]*models.Credential{
				"green-software-practitioner": {
					ID:   1,
					Slug: "green-software-practitioner",
					Name: "Green Software Practitioner",
				},
				"carbon-aware-computing": {
					ID:   2,
					Slug: "carbon-aware-computing",
					Name: "Carbon Aware Computing",
				},
			},
		},
		people:        &memPersonRepo{byEmail: make(map[string]*models.Person)},
		awards:        &memAwardRepo{byPair: make(map[awardKey]*models.Award)},
		certificates:  &stubCertificateService{},
		notifications: &stubNotificationService{},
	}

	repos := &repositories.Collection{
		Credentials: f.credentials,
		People:      f.people,
		Awards:      f.awards,
	}

	f.service = NewIssuanceService(
		repos,
		NewBadgeResolver("green-software-practitioner", zap.NewNop()),
		f.certificates,
		f.notifications,
		"https://badges.test",
		zap.NewNop(),
	)
	return f
}

// ===============================
// TESTS
// ===============================

func TestProcessCompletionCreatesPersonAndAward(t *testing.T) {
	f := newIssuanceFixture()

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:     "Jane Doe",
		Email:    "jane@x.com",
		CourseID: "gsp",
	})

	require.NoError(t, err)
	assert.Equal(t, "green-software-practitioner", result.BadgeSlug)
	assert.Equal(t, "Jane Doe", result.RecipientName)
	assert.Equal(t, "jane@x.com", result.RecipientEmail)
	assert.False(t, result.Reused)
	require.NotNil(t, result.Award)
	assert.NotEmpty(t, result.Award.ID)
	assert.Equal(t, "https://badges.test/awards/"+result.Award.ID, result.AwardURL)
	assert.NotEmpty(t, result.Certificate.URL)
	assert.Equal(t, EmailSent, result.Email.Status)
	assert.Len(t, f.people.byEmail, 1)
	assert.Len(t, f.awards.byPair, 1)
}

func TestProcessCompletionIdempotentReplay(t *testing.T) {
	f := newIssuanceFixture()
	req := &CompletionRequest{Name: "Jane Doe", Email: "jane@x.com", CourseID: "gsp"}

	first, err := f.service.ProcessCompletion(context.Background(), req)
	require.NoError(t, err)

	second, err := f.service.ProcessCompletion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Award.ID, second.Award.ID)
	assert.True(t, second.Reused)
	assert.Equal(t, EmailSkipped, second.Email.Status)
	assert.Equal(t, "existing award reused", second.Email.Reason)
	assert.Len(t, f.awards.byPair, 1)
}

func TestProcessCompletionEmailNormalization(t *testing.T) {
	f := newIssuanceFixture()

	first, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:     "Jane Doe",
		Email:    "Jane@X.com",
		CourseID: "gsp",
	})
	require.NoError(t, err)

	second, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:     "Jane Doe",
		Email:    " jane@x.com ",
		CourseID: "gsp",
	})
	require.NoError(t, err)

	assert.Equal(t, "jane@x.com", first.RecipientEmail)
	assert.Equal(t, first.Award.ID, second.Award.ID)
	assert.Len(t, f.people.byEmail, 1)
}

func TestProcessCompletionKeepsNameFromFirstSighting(t *testing.T) {
	f := newIssuanceFixture()

	_, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:     "Jane Doe",
		Email:    "jane@x.com",
		CourseID: "gsp",
	})
	require.NoError(t, err)

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:     "Janet Doe",
		Email:    "jane@x.com",
		CourseID: "cac",
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", result.RecipientName)
}

func TestProcessCompletionUnknownExplicitSlug(t *testing.T) {
	f := newIssuanceFixture()

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:      "Jane Doe",
		Email:     "jane@x.com",
		BadgeSlug: "does-not-exist",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsNotFoundError(err))
	assert.Empty(t, f.people.byEmail)
	assert.Empty(t, f.awards.byPair)
}

func TestProcessCompletionNoCandidates(t *testing.T) {
	f := newIssuanceFixture()

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:  "Jane Doe",
		Email: "jane@x.com",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsValidationError(err))
}

func TestProcessCompletionUnknownCourseGetsDefaultBadge(t *testing.T) {
	f := newIssuanceFixture()

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:       "Jane Doe",
		Email:      "jane@x.com",
		CourseID:   "course-9999",
		CourseName: "Brand New Course",
	})

	require.NoError(t, err)
	assert.Equal(t, "green-software-practitioner", result.BadgeSlug)
}

func TestProcessCompletionCertificateFailureStillSucceeds(t *testing.T) {
	f := newIssuanceFixture()
	f.certificates.err = NewArtifactError("template fetch failed", errors.New("connection refused"))

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:     "Jane Doe",
		Email:    "jane@x.com",
		CourseID: "gsp",
	})

	require.NoError(t, err)
	require.NotNil(t, result.Award)
	assert.Empty(t, result.Certificate.URL)
	assert.Error(t, result.Certificate.Err)
	assert.Len(t, f.awards.byPair, 1)
	// The award went out without an artifact; the email still reports the
	// badge URL.
	assert.Equal(t, EmailSent, result.Email.Status)
}

func TestProcessCompletionPersistsCertificateURL(t *testing.T) {
	f := newIssuanceFixture()

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:     "Jane Doe",
		Email:    "jane@x.com",
		CourseID: "gsp",
	})

	require.NoError(t, err)
	require.Len(t, f.awards.setURLEver, 1)
	assert.Equal(t, result.Certificate.URL, f.awards.setURLEver[0])
	require.NotNil(t, result.Award.CertificateURL)
	assert.Equal(t, result.Certificate.URL, *result.Award.CertificateURL)
}

func TestProcessCompletionPersonInsertRace(t *testing.T) {
	f := newIssuanceFixture()
	f.people.raceWinner = &models.Person{ID: 42, Name: "Jane Doe", Email: "jane@x.com"}

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:     "Jane Doe",
		Email:    "jane@x.com",
		CourseID: "gsp",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Award.PersonID)
}

func TestProcessCompletionPersistenceFailure(t *testing.T) {
	f := newIssuanceFixture()
	f.awards.createErr = errors.New("connection reset")

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:     "Jane Doe",
		Email:    "jane@x.com",
		CourseID: "gsp",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsPersistenceError(err))
	assert.Zero(t, f.certificates.calls)
	assert.Empty(t, f.notifications.requests)
}

func TestProcessCompletionNotifyReceivesAwardContext(t *testing.T) {
	f := newIssuanceFixture()

	result, err := f.service.ProcessCompletion(context.Background(), &CompletionRequest{
		Name:                    "Jane Doe",
		Email:                   "jane@x.com",
		CourseID:                "gsp",
		PersonalizedDescription: "Top of the cohort",
	})

	require.NoError(t, err)
	require.Len(t, f.notifications.requests, 1)
	sent := f.notifications.requests[0]
	assert.Equal(t, "jane@x.com", sent.RecipientEmail)
	assert.Equal(t, "Green Software Practitioner", sent.BadgeName)
	assert.Equal(t, result.Award.ID, sent.VerificationCode)
	assert.Equal(t, result.AwardURL, sent.BadgeURL)
	assert.Equal(t, "Top of the cohort", sent.Description)
}
