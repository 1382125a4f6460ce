package intake

import (
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

func pdfBytes(body string) []byte {
	return []byte("%PDF-1.7\n" + body)
}

func TestScan_AcceptsCleanPDF(t *testing.T) {
	s := NewScanner(nil)

	att := &models.Attachment{
		Name:     "נסח טאבו.pdf",
		MimeType: "application/pdf",
		Payload:  pdfBytes("1 0 obj << /Type /Page >>"),
	}
	res := s.Scan(att, language.Hebrew)
	if !res.IsValid || !res.IsSafe {
		t.Fatalf("clean pdf rejected: %+v", res)
	}
	if res.SanitizedName == "" || strings.ContainsAny(res.SanitizedName, `/\`) {
		t.Errorf("bad sanitized name %q", res.SanitizedName)
	}
}

func TestScan_RejectsMimeMagicMismatch(t *testing.T) {
	s := NewScanner(nil)

	att := &models.Attachment{
		Name:     "permit.pdf",
		MimeType: "application/pdf",
		Payload:  []byte("MZ\x90\x00 definitely not a pdf"),
	}
	res := s.Scan(att, language.English)
	if res.IsValid {
		t.Fatal("mismatched payload accepted")
	}
	if res.BlockReason == "" {
		t.Error("missing block reason")
	}
}

func TestScan_RejectsUnsupportedType(t *testing.T) {
	s := NewScanner(nil)

	att := &models.Attachment{Name: "x.exe", MimeType: "application/x-msdownload", Payload: []byte("MZ")}
	res := s.Scan(att, language.English)
	if res.IsValid || res.IsSafe {
		t.Fatalf("executable accepted: %+v", res)
	}
}

func TestScan_RejectsActiveContentPDF(t *testing.T) {
	s := NewScanner(nil)

	att := &models.Attachment{
		Name:     "form.pdf",
		MimeType: "application/pdf",
		Payload:  pdfBytes("<< /OpenAction << /S /JavaScript /JS (app.alert(1)) >> >>"),
	}
	res := s.Scan(att, language.English)
	if !res.IsValid {
		t.Fatal("well-formed pdf should be valid")
	}
	if res.IsSafe {
		t.Fatal("pdf with active content marked safe")
	}
}

func TestScan_RejectsOversize(t *testing.T) {
	s := NewScanner(&ScannerConfig{MaxFileSize: 10})

	att := &models.Attachment{Name: "big.pdf", MimeType: "application/pdf", Payload: pdfBytes(strings.Repeat("x", 100))}
	res := s.Scan(att, language.Hebrew)
	if res.IsValid {
		t.Fatal("oversize accepted")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd":        "passwd",
		`C:\docs\נסח טאבו.pdf`:    "נסח טאבו.pdf",
		"a<b>|c.png":              "a_b__c.png",
		"":                        "attachment",
		"...":                     "attachment",
		"report permit 2024.jpeg": "report permit 2024.jpeg",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
