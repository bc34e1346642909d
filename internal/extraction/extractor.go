// Package extraction talks to the external capability that turns raw
// job-posting text into confidence-scored fields.
package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"job-offer-pipeline/internal/models"
)

// Extractor derives structured fields from job-posting text or files.
// Failures wrap ErrExtractionUnavailable or ErrExtractionDecodeError from
// internal/common/errors; callers are expected to continue without a result.
type Extractor interface {
	Extract(ctx context.Context, text string) (*models.ExtractionResult, error)
	ExtractFromSource(ctx context.Context, content []byte, filename string) (*models.ExtractionResult, error)
	Status(ctx context.Context) models.ExtractorStatus
}

var binaryDocumentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// IsBinaryDocument reports whether filename names a format that must be
// forwarded as bytes rather than decoded as text.
func IsBinaryDocument(filename string) bool {
	return binaryDocumentExtensions[strings.ToLower(filepath.Ext(filename))]
}

// DecodeText decodes file bytes as UTF-8, replacing invalid sequences.
func DecodeText(content []byte) string {
	return strings.ToValidUTF8(string(content), "\uFFFD")
}

// Fingerprint is the content identifier used when the extractor omits one.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// complete fills the fields the pipeline can derive from the input itself.
func complete(result *models.ExtractionResult, text string) *models.ExtractionResult {
	if strings.TrimSpace(result.RawText) == "" && text != "" {
		result.RawText = text
	}
	if result.Fingerprint == "" && result.RawText != "" {
		result.Fingerprint = Fingerprint(result.RawText)
	}
	return result
}
