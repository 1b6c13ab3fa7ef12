package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"badgehub/internal/models"
	"badgehub/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// issuanceService implements IssuanceService. The pipeline runs strictly
// in order (resolve badge, upsert person, upsert award, then the two
// best-effort side effects) because each step's input depends on the
// previous step's committed result.
type issuanceService struct {
	repos         *repositories.Collection
	resolver      *BadgeResolver
	certificates  CertificateService
	notifications NotificationService
	publicBaseURL string
	logger        *zap.Logger
	now           func() time.Time
}

// NewIssuanceService creates the ingestion pipeline service
func NewIssuanceService(
	repos *repositories.Collection,
	resolver *BadgeResolver,
	certificates CertificateService,
	notifications NotificationService,
	publicBaseURL string,
	logger *zap.Logger,
) IssuanceService {
	return &issuanceService{
		repos:         repos,
		resolver:      resolver,
		certificates:  certificates,
		notifications: notifications,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

// ProcessCompletion runs the award-issuance pipeline for one completion
// signal. Errors returned here occurred before the award commit and map to
// request failures; once the award exists, certificate and notification
// failures are folded into the result instead.
func (s *issuanceService) ProcessCompletion(ctx context.Context, req *CompletionRequest) (*IssuanceResult, error) {
	slug, rerr := s.resolver.Resolve(req.BadgeSlug, req.CourseID, req.CourseName)
	if rerr != nil {
		return nil, rerr
	}

	credential, err := s.repos.Credentials.GetBySlug(ctx, slug)
	if err != nil {
		return nil, NewPersistenceError("failed to look up badge", err)
	}
	if credential == nil {
		return nil, NewNotFoundError(fmt.Sprintf("badge %q not found", slug))
	}

	person, err := s.upsertPerson(ctx, req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	award, reused, err := s.upsertAward(ctx, person, credential, req.PersonalizedDescription)
	if err != nil {
		return nil, err
	}

	// The award is durable from here on; nothing below may fail the
	// request.
	result := &IssuanceResult{
		BadgeSlug:      credential.Slug,
		RecipientName:  person.Name,
		RecipientEmail: person.Email,
		Award:          award,
		AwardURL:       s.awardURL(award.ID),
		Reused:         reused,
	}

	result.Certificate = s.generateCertificate(ctx, award, person, credential)
	if result.Certificate.URL != "" {
		award.CertificateURL = &result.Certificate.URL
	}

	result.Email = s.notifications.Notify(ctx, &NotifyRequest{
		RecipientEmail:   person.Email,
		RecipientName:    person.Name,
		BadgeName:        credential.Name,
		VerificationCode: award.ID,
		BadgeURL:         result.AwardURL,
		Description:      stringValue(award.PersonalizedDescription),
		CertificateURL:   result.Certificate.URL,
		Reused:           reused,
	})

	s.logger.Info("Completion signal processed",
		zap.String("award_id", award.ID),
		zap.String("badge_slug", credential.Slug),
		zap.String("recipient", person.Email),
		zap.Bool("reused", reused),
		zap.Bool("certificate_generated", result.Certificate.URL != ""),
		zap.String("email_status", string(result.Email.Status)),
	)

	return result, nil
}

// upsertPerson finds or creates a person by normalized email. The email is
// trimmed and lowercased before any lookup or storage; it is the sole
// identity key. A concurrent insert for the same email is resolved by
// re-reading the winning row rather than erroring.
func (s *issuanceService) upsertPerson(ctx context.Context, name, email string) (*models.Person, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, NewValidationError("recipient email is required", nil)
	}

	person, err := s.repos.People.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, NewPersistenceError("failed to look up person", err)
	}
	if person != nil {
		// Name is captured at first sighting only; re-sightings keep the
		// original value.
		return person, nil
	}

	person = &models.Person{Name: name, Email: normalized}
	err = s.repos.People.Create(ctx, person)
	if err == nil {
		return person, nil
	}
	if !repositories.IsUniqueViolation(err) {
		return nil, NewPersistenceError("failed to create person", err)
	}

	// Lost the race: another request inserted the same email between our
	// lookup and insert. The uniqueness constraint is the arbiter.
	person, err = s.repos.People.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, NewPersistenceError("failed to re-read person after conflict", err)
	}
	if person == nil {
		return nil, NewPersistenceError("person vanished after insert conflict", nil)
	}
	return person, nil
}

// upsertAward finds or creates the single award for a (person, credential)
// pair. An existing award is returned unchanged with reused=true; its
// issuedAt and description preserve the original issuance moment.
func (s *issuanceService) upsertAward(ctx context.Context, person *models.Person, credential *models.Credential, description string) (*models.Award, bool, error) {
	award, err := s.repos.Awards.GetByPersonAndCredential(ctx, person.ID, credential.ID)
	if err != nil {
		return nil, false, NewPersistenceError("failed to look up award", err)
	}
	if award != nil {
		return award, true, nil
	}

	award = &models.Award{
		ID:           uuid.NewString(),
		PersonID:     person.ID,
		CredentialID: credential.ID,
		IssuedAt:     s.now().UTC(),
	}
	if description != "" {
		award.PersonalizedDescription = &description
	}

	err = s.repos.Awards.Create(ctx, award)
	if err == nil {
		award.RecipientName = person.Name
		award.RecipientEmail = person.Email
		award.BadgeSlug = credential.Slug
		award.BadgeName = credential.Name
		return award, false, nil
	}
	if !repositories.IsUniqueViolation(err) {
		return nil, false, NewPersistenceError("failed to create award", err)
	}

	// Lost the race on (person, credential); the freshly generated
	// identifier is discarded and the winning award is authoritative.
	award, err = s.repos.Awards.GetByPersonAndCredential(ctx, person.ID, credential.ID)
	if err != nil {
		return nil, false, NewPersistenceError("failed to re-read award after conflict", err)
	}
	if award == nil {
		return nil, false, NewPersistenceError("award vanished after insert conflict", nil)
	}
	return award, true, nil
}

// generateCertificate runs the best-effort certificate step and records
// the artifact URL on the award when it succeeds.
func (s *issuanceService) generateCertificate(ctx context.Context, award *models.Award, person *models.Person, credential *models.Credential) CertificateOutcome {
	generated, err := s.certificates.Generate(ctx, &GenerateCertificateRequest{
		RecipientName:    person.Name,
		IssuedAt:         award.IssuedAt,
		VerificationCode: award.ID,
		BadgeTitle:       credential.Name,
	})
	if err != nil {
		s.logger.Error("Certificate generation failed, award returned without artifact",
			zap.Error(err),
			zap.String("award_id", award.ID),
		)
		return CertificateOutcome{Err: err}
	}

	if err := s.repos.Awards.SetCertificateURL(ctx, award.ID, generated.PublicURL); err != nil {
		// The artifact exists in storage even if the pointer write failed;
		// a regeneration pass will reconcile it.
		s.logger.Error("Failed to record certificate URL on award",
			zap.Error(err),
			zap.String("award_id", award.ID),
		)
	}

	return CertificateOutcome{URL: generated.PublicURL, StoragePath: generated.StoragePath}
}

// awardURL builds the public badge page URL for an award.
func (s *issuanceService) awardURL(awardID string) string {
	return fmt.Sprintf("%s/awards/%s", s.publicBaseURL, awardID)
}

// NormalizeEmail trims whitespace and lowercases an email address. Every
// lookup and insert uses the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
