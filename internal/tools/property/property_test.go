package property

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/sessions"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

const testRecordID = "rec-1"

func seededProvider(t *testing.T) *sessions.MemoryProvider {
	t.Helper()
	p := sessions.NewMemoryProvider()
	p.PutRecord(&models.AppraisalRecord{
		ID:           testRecordID,
		Address:      "הרצל 15",
		City:         "תל אביב",
		Gush:         6638,
		Chelka:       42,
		SubChelka:    3,
		PropertyType: "דירה",
		Rooms:        4,
		Floor:        2,
		AreaSqM:      96.5,
	})
	p.PutLandRegistry(&models.LandRegistryExtract{
		RecordID:           testRecordID,
		RegistrationOffice: "תל אביב",
		RegisteredArea:     96.5,
		OwnershipType:      "בעלות פרטית",
		OwnersCount:        2,
		Confidence:         0.93,
	})
	p.PutBuildingPermits(testRecordID, []models.BuildingPermit{
		{RecordID: testRecordID, PermitNumber: "1987/123", PermitDate: time.Date(1987, 5, 1, 0, 0, 0, 0, time.UTC), PermittedUsage: "מגורים"},
		{RecordID: testRecordID, PermitNumber: "2005/456", PermitDate: time.Date(2005, 3, 12, 0, 0, 0, 0, time.UTC), PermittedUsage: "תוספת בנייה"},
	})
	p.PutExtractions(testRecordID, []models.Extraction{
		{RecordID: testRecordID, DocumentType: "tabu", Filename: "tabu.pdf", Fields: map[string]string{"registered_area": "96.5"}, Confidence: 0.93},
		{RecordID: testRecordID, DocumentType: "permit", Filename: "permit.pdf", Fields: map[string]string{"permit_number": "1987/123"}, Confidence: 0.88},
	})
	p.PutComparableSales(testRecordID, []models.ComparableSale{
		{RecordID: testRecordID, Address: "הרצל 11", Price: 3_100_000, AreaSqM: 92},
		{RecordID: testRecordID, Address: "ביאליק 8", Price: 2_950_000, AreaSqM: 88},
		{RecordID: testRecordID, Address: "אחד העם 3", Price: 3_400_000, AreaSqM: 101},
	})
	return p
}

func TestToolsetCoversAllLookups(t *testing.T) {
	tools := Toolset(seededProvider(t), testRecordID)
	if len(tools) != 6 {
		t.Fatalf("expected 6 tools, got %d", len(tools))
	}

	want := map[string]bool{
		"get_property_details":      false,
		"get_land_registry":         false,
		"get_building_permits":      false,
		"get_shared_building_order": false,
		"get_document_extractions":  false,
		"get_comparable_sales":      false,
	}
	for _, tool := range tools {
		if _, ok := want[tool.Name()]; !ok {
			t.Errorf("unexpected tool %q", tool.Name())
			continue
		}
		want[tool.Name()] = true
		if tool.Description() == "" {
			t.Errorf("tool %q has no description", tool.Name())
		}
		var schema map[string]any
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			t.Errorf("tool %q schema is not valid JSON: %v", tool.Name(), err)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing tool %q", name)
		}
	}
}

func TestDetailsTool(t *testing.T) {
	tool := NewDetailsTool(seededProvider(t), testRecordID)
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}

	var record models.AppraisalRecord
	if err := json.Unmarshal([]byte(result.Content), &record); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if record.Gush != 6638 || record.Chelka != 42 {
		t.Errorf("unexpected parcel identifiers: gush=%d chelka=%d", record.Gush, record.Chelka)
	}
	if record.Address != "הרצל 15" {
		t.Errorf("unexpected address %q", record.Address)
	}
}

func TestLandRegistryTool(t *testing.T) {
	tool := NewLandRegistryTool(seededProvider(t), testRecordID)
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}

	var extract models.LandRegistryExtract
	if err := json.Unmarshal([]byte(result.Content), &extract); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if extract.RegisteredArea != 96.5 {
		t.Errorf("unexpected registered area %v", extract.RegisteredArea)
	}
	if extract.OwnersCount != 2 {
		t.Errorf("unexpected owners count %d", extract.OwnersCount)
	}
}

func TestSharedBuildingOrderMissingIsNotAnError(t *testing.T) {
	tool := NewSharedBuildingTool(seededProvider(t), testRecordID)
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("a missing document should not be an error result: %s", result.Content)
	}

	var payload struct {
		Found   bool   `json:"found"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if payload.Found {
		t.Error("expected found=false")
	}
	if payload.Message == "" {
		t.Error("expected an explanatory message")
	}
}

func TestPermitsToolReturnsAll(t *testing.T) {
	tool := NewPermitsTool(seededProvider(t), testRecordID)
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var permits []models.BuildingPermit
	if err := json.Unmarshal([]byte(result.Content), &permits); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if len(permits) != 2 {
		t.Fatalf("expected 2 permits, got %d", len(permits))
	}
	if permits[0].PermitNumber != "1987/123" {
		t.Errorf("expected oldest permit first, got %q", permits[0].PermitNumber)
	}
}

func TestExtractionsToolFiltersByDocumentType(t *testing.T) {
	tool := NewExtractionsTool(seededProvider(t), testRecordID)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"document_type":"tabu"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var extractions []models.Extraction
	if err := json.Unmarshal([]byte(result.Content), &extractions); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if len(extractions) != 1 || extractions[0].DocumentType != "tabu" {
		t.Fatalf("expected exactly the tabu extraction, got %+v", extractions)
	}

	// Filter that matches nothing reads as an absent document.
	result, err = tool.Execute(context.Background(), json.RawMessage(`{"document_type":"appraisal"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("empty filter result should not be an error: %s", result.Content)
	}
	if !strings.Contains(result.Content, `"found": false`) {
		t.Errorf("expected found=false payload, got %s", result.Content)
	}
}

func TestComparableSalesToolLimit(t *testing.T) {
	tool := NewComparableSalesTool(seededProvider(t), testRecordID)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"limit":2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sales []models.ComparableSale
	if err := json.Unmarshal([]byte(result.Content), &sales); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(sales))
	}

	result, err = tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := json.Unmarshal([]byte(result.Content), &sales); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if len(sales) != 3 {
		t.Fatalf("expected all 3 sales without a limit, got %d", len(sales))
	}
}

func TestToolsAreScopedToTheirRecord(t *testing.T) {
	provider := seededProvider(t)
	provider.PutRecord(&models.AppraisalRecord{ID: "rec-2", Address: "סוקולוב 7", Gush: 7105, Chelka: 9})

	tool := NewDetailsTool(provider, "rec-2")
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var record models.AppraisalRecord
	if err := json.Unmarshal([]byte(result.Content), &record); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if record.ID != "rec-2" || record.Gush != 7105 {
		t.Errorf("tool leaked data across records: %+v", record)
	}
	if strings.Contains(result.Content, "הרצל 15") {
		t.Error("result contains another record's address")
	}
}

func TestUnknownRecordReadsAsNotFound(t *testing.T) {
	tool := NewDetailsTool(sessions.NewMemoryProvider(), "missing")
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unknown record should read as not-found, got error: %s", result.Content)
	}
	if !strings.Contains(result.Content, `"found": false`) {
		t.Errorf("expected found=false payload, got %s", result.Content)
	}
}
