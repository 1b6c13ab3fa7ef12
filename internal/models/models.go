package models

import "time"

// Credential represents an achievement badge definition. Credentials are
// created by administrative action and are read-only to the ingestion
// pipeline; the slug uniquely identifies at most one credential.
type Credential struct {
	ID          int64     `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	TemplateID  string    `json:"templateId" db:"template_id"`
	CTAs        []CTALink `json:"ctas"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// CTALink is a labeled call-to-action shown on a credential's public page.
type CTALink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Person is a badge recipient. The normalized email is the natural key;
// the name is captured at first sighting and not refreshed afterwards.
type Person struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Award links one person to one credential. The ID is a UUID that doubles
// as the public verification code and URL path segment; it is assigned once
// and never reused. At most one award exists per (person, credential) pair.
type Award struct {
	ID                      string    `json:"id" db:"id"`
	PersonID                int64     `json:"personId" db:"person_id"`
	CredentialID            int64     `json:"credentialId" db:"credential_id"`
	IssuedAt                time.Time `json:"issuedAt" db:"issued_at"`
	PersonalizedDescription *string   `json:"personalizedDescription,omitempty" db:"personalized_description"`
	CertificateURL          *string   `json:"certificateUrl,omitempty" db:"certificate_url"`
	CreatedAt               time.Time `json:"createdAt" db:"created_at"`

	// Denormalized recipient/credential fields populated by list queries
	// for the page-rendering layer.
	RecipientName  string `json:"recipientName,omitempty" db:"-"`
	RecipientEmail string `json:"recipientEmail,omitempty" db:"-"`
	BadgeSlug      string `json:"badgeSlug,omitempty" db:"-"`
	BadgeName      string `json:"badgeName,omitempty" db:"-"`
}

// VerificationCode returns the award's public verification code. The code
// and the primary key are deliberately the same value.
func (a *Award) VerificationCode() string {
	return a.ID
}
