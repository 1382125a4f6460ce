// Package prompt assembles the system prompt for a chat session: trusted
// record context plus the fixed security sandwich. Nothing here reads
// request-controlled text.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// Build renders the record context section of the system prompt from trusted
// backend data. It is pure: same record and extractions, same output.
func Build(record *models.AppraisalRecord, extractions []models.Extraction) string {
	if record == nil {
		return ""
	}

	lines := make([]string, 0, 12)

	lines = append(lines, "פרטי הנכס הנדון:")
	lines = append(lines, fmt.Sprintf("כתובת: %s, %s", record.Address, record.City))
	if record.SubChelka > 0 {
		lines = append(lines, fmt.Sprintf("גוש %d חלקה %d תת-חלקה %d", record.Gush, record.Chelka, record.SubChelka))
	} else {
		lines = append(lines, fmt.Sprintf("גוש %d חלקה %d", record.Gush, record.Chelka))
	}
	lines = append(lines, fmt.Sprintf("סוג נכס: %s", record.PropertyType))
	if record.Rooms > 0 {
		lines = append(lines, fmt.Sprintf("חדרים: %s", trimFloat(record.Rooms)))
	}
	if record.Floor != 0 {
		lines = append(lines, fmt.Sprintf("קומה: %d", record.Floor))
	}
	if record.AreaSqM > 0 {
		lines = append(lines, fmt.Sprintf("שטח רשום: %s מ\"ר", trimFloat(record.AreaSqM)))
	}

	if section := extractionSection(extractions); section != "" {
		lines = append(lines, "", section)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractionSection(extractions []models.Extraction) string {
	if len(extractions) == 0 {
		return ""
	}
	lines := make([]string, 0, len(extractions)+1)
	lines = append(lines, "נתונים שחולצו ממסמכים סרוקים (עם רמת ביטחון):")
	for _, ex := range extractions {
		if len(ex.Fields) == 0 {
			continue
		}
		keys := make([]string, 0, len(ex.Fields))
		for k := range ex.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, ex.Fields[k]))
		}
		lines = append(lines, fmt.Sprintf("- %s (%s, ביטחון %.0f%%): %s",
			ex.DocumentType, ex.Filename, ex.Confidence*100, strings.Join(pairs, ", ")))
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	return strings.TrimSuffix(s, ".0")
}
