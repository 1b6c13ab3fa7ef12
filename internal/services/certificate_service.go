package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"badgehub/internal/config"
	"badgehub/internal/render"
	"badgehub/internal/storage"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Template placeholders. Every one of them must be present in the fetched
// template; a missing placeholder is a template-integrity defect and fails
// generation before any artifact is produced.
const (
	placeholderRecipient = "{{RECIPIENT_NAME}}"
	placeholderDate      = "{{ISSUE_DATE}}"
	placeholderTitle     = "{{COURSE_TITLE}}"
)

// issueDateFormat is the human-readable date printed on certificates.
const issueDateFormat = "January 2, 2006"

// assetRefPattern matches src/href attributes with relative paths, the
// references inlined before rendering.
var assetRefPattern = regexp.MustCompile(`(src|href)="([^"]+)"`)

// certificateService implements CertificateService. Generation is
// idempotent: the storage path is derived from the verification code and
// each regeneration overwrites the previous artifact in place.
type certificateService struct {
	store       storage.ObjectStore
	renderer    render.Renderer
	storageCfg  *config.StorageConfig
	rendererCfg *config.RendererConfig
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewCertificateService creates a new certificate service
func NewCertificateService(
	store storage.ObjectStore,
	renderer render.Renderer,
	storageCfg *config.StorageConfig,
	rendererCfg *config.RendererConfig,
	logger *zap.Logger,
) CertificateService {
	return &certificateService{
		store:       store,
		renderer:    renderer,
		storageCfg:  storageCfg,
		rendererCfg: rendererCfg,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Generate renders the certificate document for an award and uploads it
// under awards/{verificationCode}.pdf. Callers treat any returned error as
// best-effort: the award is already durable by the time generation runs.
func (s *certificateService) Generate(ctx context.Context, req *GenerateCertificateRequest) (*GenerateCertificateResult, error) {
	template, err := s.fetchTemplate(ctx)
	if err != nil {
		return nil, NewArtifactError("failed to fetch certificate template", err)
	}

	document, err := s.substitute(template, req)
	if err != nil {
		return nil, err
	}

	document = s.inlineAssets(ctx, document)

	pdf, err := s.renderer.RenderPDF(ctx, []byte(document))
	if err != nil {
		return nil, NewArtifactError("failed to render certificate", err)
	}

	storagePath := CertificateStoragePath(req.VerificationCode)
	if err := s.upload(ctx, storagePath, pdf); err != nil {
		return nil, NewArtifactError("failed to upload certificate", err)
	}

	result := &GenerateCertificateResult{
		PublicURL:   s.store.PublicURL(storagePath),
		StoragePath: storagePath,
	}

	s.logger.Info("Certificate generated",
		zap.String("verification_code", req.VerificationCode),
		zap.String("storage_path", storagePath),
		zap.Int("pdf_bytes", len(pdf)),
	)

	return result, nil
}

// CertificateStoragePath returns the deterministic object key for an
// award's certificate.
func CertificateStoragePath(verificationCode string) string {
	return fmt.Sprintf("awards/%s.pdf", verificationCode)
}

// fetchTemplate loads the certificate template, preferring the versioned
// object-storage blob and falling back to the bundled asset. Both sources
// failing is a hard failure: a certificate with missing content must never
// be produced.
func (s *certificateService) fetchTemplate(ctx context.Context) (string, error) {
	data, err := s.store.Get(ctx, s.storageCfg.TemplateKey)
	if err == nil && len(data) > 0 {
		return string(data), nil
	}
	if err != nil {
		s.logger.Warn("Versioned template unavailable, trying bundled asset",
			zap.Error(err),
			zap.String("template_key", s.storageCfg.TemplateKey),
		)
	}

	data, readErr := os.ReadFile(s.rendererCfg.TemplatePath)
	if readErr != nil {
		return "", fmt.Errorf("template unavailable from storage (%v) and disk (%v)", err, readErr)
	}
	return string(data), nil
}

// substitute replaces every placeholder exactly once, failing fast when a
// required placeholder is absent from the template.
func (s *certificateService) substitute(template string, req *GenerateCertificateRequest) (string, error) {
	replacements := []struct {
		placeholder string
		value       string
	}{
		{placeholderRecipient, req.RecipientName},
		{placeholderDate, req.IssuedAt.Format(issueDateFormat)},
		{placeholderTitle, req.BadgeTitle},
	}

	document := template
	for _, r := range replacements {
		if !strings.Contains(document, r.placeholder) {
			return "", NewArtifactError(
				fmt.Sprintf("certificate template is missing placeholder %s", r.placeholder),
				nil,
			)
		}
		document = strings.Replace(document, r.placeholder, r.value, 1)
	}

	return document, nil
}

// inlineAssets embeds local binary assets referenced by relative path as
// data URIs so the document renders without network access. Assets missing
// locally are fetched from the configured public base URL; an asset that
// cannot be resolved either way is left untouched rather than failing the
// whole certificate.
func (s *certificateService) inlineAssets(ctx context.Context, document string) string {
	return assetRefPattern.ReplaceAllStringFunc(document, func(match string) string {
		groups := assetRefPattern.FindStringSubmatch(match)
		attr, ref := groups[1], groups[2]

		if !isRelativeAssetRef(ref) {
			return match
		}

		data, err := s.loadAsset(ctx, ref)
		if err != nil {
			s.logger.Warn("Failed to inline certificate asset",
				zap.Error(err),
				zap.String("ref", ref),
			)
			return match
		}

		contentType := mime.TypeByExtension(filepath.Ext(ref))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		encoded := base64.StdEncoding.EncodeToString(data)
		return fmt.Sprintf(`%s="data:%s;base64,%s"`, attr, contentType, encoded)
	})
}

// isRelativeAssetRef reports whether ref points at a local binary asset
// rather than an absolute URL, anchor, or already-inlined data URI.
func isRelativeAssetRef(ref string) bool {
	switch {
	case ref == "",
		strings.HasPrefix(ref, "http://"),
		strings.HasPrefix(ref, "https://"),
		strings.HasPrefix(ref, "data:"),
		strings.HasPrefix(ref, "//"),
		strings.HasPrefix(ref, "#"):
		return false
	}
	return true
}

// loadAsset reads an asset from the local asset directory, falling back to
// the configured public base URL when the file is missing on disk.
func (s *certificateService) loadAsset(ctx context.Context, ref string) ([]byte, error) {
	localPath := filepath.Join(s.rendererCfg.AssetDir, filepath.Clean(ref))
	if data, err := os.ReadFile(localPath); err == nil {
		return data, nil
	}

	if s.rendererCfg.AssetBaseURL == "" {
		return nil, fmt.Errorf("asset %s not found locally and no asset base URL configured", ref)
	}

	url := s.rendererCfg.AssetBaseURL + "/" + strings.TrimLeft(ref, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch asset %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch asset %s: unexpected status %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// upload persists the rendered document with bounded retries. Transient
// storage hiccups should not cost a recipient their certificate when a
// second attempt would have succeeded.
func (s *certificateService) upload(ctx context.Context, storagePath string, pdf []byte) error {
	uploadCtx, cancel := context.WithTimeout(ctx, s.storageCfg.UploadTimeout)
	defer cancel()

	operation := func() error {
		return s.store.Put(uploadCtx, storagePath, pdf, "application/pdf")
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.storageCfg.MaxRetries)),
		uploadCtx,
	)

	return backoff.Retry(operation, policy)
}
