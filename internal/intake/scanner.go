// Package intake screens caller-supplied files before any of their bytes may
// become conversation content. A failing scan is terminal for the whole
// request.
package intake

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/language"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/i18n"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// ScannerConfig tunes the intake scanner.
type ScannerConfig struct {
	// MaxFileSize caps accepted payloads in bytes. Default: 10MB.
	MaxFileSize int64
}

// Scanner validates attachment name, type, size, and payload shape.
type Scanner struct {
	maxFileSize int64
}

// NewScanner creates a scanner. A nil config uses defaults.
func NewScanner(config *ScannerConfig) *Scanner {
	max := int64(10 << 20)
	if config != nil && config.MaxFileSize > 0 {
		max = config.MaxFileSize
	}
	return &Scanner{maxFileSize: max}
}

// magic numbers for the allowed document and image types.
var magicByType = map[string][][]byte{
	"application/pdf": {[]byte("%PDF-")},
	"image/png":       {{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}},
	"image/jpeg":      {{0xFF, 0xD8, 0xFF}},
	"image/webp":      {[]byte("RIFF")},
}

var pdfActiveContent = [][]byte{
	[]byte("/JavaScript"),
	[]byte("/JS"),
	[]byte("/OpenAction"),
	[]byte("/Launch"),
	[]byte("/EmbeddedFile"),
}

var unsafeNameChars = regexp.MustCompile(`[^0-9A-Za-z\x{0590}-\x{05FF}._ \-]`)

const maxNameLen = 120

// Scan inspects one attachment. The returned result is authoritative: when
// IsValid or IsSafe is false, none of the payload may enter the conversation,
// and the caller rejects the request with BlockReason.
func (s *Scanner) Scan(att *models.Attachment, lang language.Tag) models.ScanResult {
	res := models.ScanResult{SanitizedName: SanitizeName(att.Name)}

	if int64(len(att.Payload)) > s.maxFileSize || att.Size > s.maxFileSize {
		res.BlockReason = i18n.T(lang, i18n.KeyAttachmentTooBig)
		res.Threats = append(res.Threats, models.ThreatDetection{
			Category:    models.ThreatOversizedInput,
			Severity:    models.SeverityHigh,
			Description: fmt.Sprintf("file exceeds %d bytes", s.maxFileSize),
		})
		return res
	}

	mime := normalizeMime(att.MimeType)
	magics, ok := magicByType[mime]
	if !ok {
		res.BlockReason = i18n.T(lang, i18n.KeyAttachmentType)
		res.Threats = append(res.Threats, models.ThreatDetection{
			Category:    models.ThreatMarkupInjection,
			Severity:    models.SeverityHigh,
			Description: "unsupported mime type: " + mime,
		})
		return res
	}

	if !matchesMagic(att.Payload, magics) {
		res.BlockReason = i18n.T(lang, i18n.KeyAttachmentUnsafe)
		res.Threats = append(res.Threats, models.ThreatDetection{
			Category:    models.ThreatObfuscation,
			Severity:    models.SeverityCritical,
			Description: "payload does not match declared type " + mime,
		})
		return res
	}
	res.IsValid = true

	if mime == "application/pdf" {
		for _, marker := range pdfActiveContent {
			if bytes.Contains(att.Payload, marker) {
				res.BlockReason = i18n.T(lang, i18n.KeyAttachmentUnsafe)
				res.Threats = append(res.Threats, models.ThreatDetection{
					Category:    models.ThreatMarkupInjection,
					Severity:    models.SeverityCritical,
					Description: "active content in PDF: " + string(marker),
				})
				return res
			}
		}
	}

	res.IsSafe = true
	return res
}

// SanitizeName strips any path components and unsafe characters from a
// caller-supplied filename. Accepted attachments are referred to by this
// name only, never the original.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")
	if name == "" || name == "/" {
		name = "attachment"
	}
	if runes := []rune(name); len(runes) > maxNameLen {
		ext := path.Ext(name)
		keep := maxNameLen - len([]rune(ext))
		if keep < 1 {
			keep = 1
		}
		name = string(runes[:keep]) + ext
	}
	return name
}

func normalizeMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if mime == "image/jpg" {
		return "image/jpeg"
	}
	return mime
}

func matchesMagic(payload []byte, magics [][]byte) bool {
	for _, magic := range magics {
		if bytes.HasPrefix(payload, magic) {
			return true
		}
	}
	return false
}
