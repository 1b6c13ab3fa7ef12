package services

import (
	"strings"

	"go.uber.org/zap"
)

// BadgeResolver maps raw course identifiers, course names, and explicit
// slugs to a canonical badge slug. Resolution is deterministic and
// order-sensitive: an explicit slug always wins over a course id, which
// wins over a course name. Unrecognized candidates fall back to the
// configured default slug so a legitimate completion signal is never
// dropped over an unknown course label; resolution fails only when the
// payload carries no candidate at all.
type BadgeResolver struct {
	aliases     map[string]string
	defaultSlug string
	logger      *zap.Logger
}

// defaultAliases maps known course identifiers and display names,
// including historical and typo variants, to canonical slugs.
var defaultAliases = map[string]string{
	// Green Software Practitioner
	"gsp":                              "green-software-practitioner",
	"green-software-practitioner":      "green-software-practitioner",
	"green software practitioner":      "green-software-practitioner",
	"green software for practitioners": "green-software-practitioner",
	"green-software":                   "green-software-practitioner",
	"practitioner":                     "green-software-practitioner",

	// Carbon Aware Computing
	"cac":                    "carbon-aware-computing",
	"carbon-aware-computing": "carbon-aware-computing",
	"carbon aware computing": "carbon-aware-computing",
	"carbon aware":           "carbon-aware-computing",
	"carbonaware":            "carbon-aware-computing",
}

// NewBadgeResolver creates a resolver with the built-in alias table.
func NewBadgeResolver(defaultSlug string, logger *zap.Logger) *BadgeResolver {
	return NewBadgeResolverWithAliases(defaultAliases, defaultSlug, logger)
}

// NewBadgeResolverWithAliases creates a resolver with a custom alias table.
func NewBadgeResolverWithAliases(aliases map[string]string, defaultSlug string, logger *zap.Logger) *BadgeResolver {
	normalized := make(map[string]string, len(aliases))
	for alias, slug := range aliases {
		normalized[normalizeCandidate(alias)] = slug
	}
	return &BadgeResolver{
		aliases:     normalized,
		defaultSlug: defaultSlug,
		logger:      logger,
	}
}

// Resolve produces exactly one canonical slug from the ordered candidate
// list, or a validation error when no candidate exists at all.
func (r *BadgeResolver) Resolve(explicitSlug, courseID, courseName string) (string, *ServiceError) {
	candidates := []string{explicitSlug, courseID, courseName}

	hasCandidate := false
	for _, candidate := range candidates {
		normalized := normalizeCandidate(candidate)
		if normalized == "" {
			continue
		}
		hasCandidate = true
		if slug, ok := r.aliases[normalized]; ok {
			return slug, nil
		}
	}

	if !hasCandidate {
		return "", NewValidationError("payload carries no badge slug, course id, or course name", nil)
	}

	// An explicit slug that misses the alias table is still the caller's
	// best statement of intent; pass it through for the credential lookup
	// to confirm or reject.
	if normalized := normalizeCandidate(explicitSlug); normalized != "" {
		return normalized, nil
	}

	r.logger.Info("Unrecognized course identifier, using default badge",
		zap.String("course_id", courseID),
		zap.String("course_name", courseName),
		zap.String("default_slug", r.defaultSlug),
	)

	return r.defaultSlug, nil
}

// normalizeCandidate trims and lowercases a raw candidate.
func normalizeCandidate(candidate string) string {
	return strings.ToLower(strings.TrimSpace(candidate))
}
