// Package property provides the fixed, read-only lookup tools the chat model
// can call about the appraisal record in scope. Every tool binds to the
// session data provider and one record ID at construction; the model cannot
// reach any other record.
package property

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/agent"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/sessions"
)

// noArgsSchema is shared by tools that take no parameters.
const noArgsSchema = `{
  "type": "object",
  "properties": {},
  "additionalProperties": false
}`

// Toolset returns all lookup tools bound to one record.
func Toolset(provider sessions.Provider, recordID string) []agent.Tool {
	return []agent.Tool{
		NewDetailsTool(provider, recordID),
		NewLandRegistryTool(provider, recordID),
		NewPermitsTool(provider, recordID),
		NewSharedBuildingTool(provider, recordID),
		NewExtractionsTool(provider, recordID),
		NewComparableSalesTool(provider, recordID),
	}
}

func jsonResult(v any) (*agent.ToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("failed to encode results: %v", err), IsError: true}, nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

// notFoundResult reports an absent document as a regular answer, not a tool
// failure. Missing documents are a normal state of an appraisal record and
// the model should relay that, not apologize for an error.
func notFoundResult(message string) (*agent.ToolResult, error) {
	return jsonResult(struct {
		Found   bool   `json:"found"`
		Message string `json:"message"`
	}{Found: false, Message: message})
}

func lookupError(err error) (*agent.ToolResult, error) {
	return &agent.ToolResult{Content: fmt.Sprintf("lookup failed: %v", err), IsError: true}, nil
}

// DetailsTool returns the core fields of the appraisal record.
type DetailsTool struct {
	provider sessions.Provider
	recordID string
}

func NewDetailsTool(provider sessions.Provider, recordID string) *DetailsTool {
	return &DetailsTool{provider: provider, recordID: recordID}
}

func (t *DetailsTool) Name() string { return "get_property_details" }

func (t *DetailsTool) Description() string {
	return "Returns the core details of the property under appraisal: address, city, gush/chelka parcel identifiers, property type, rooms, floor and area."
}

func (t *DetailsTool) Schema() json.RawMessage { return json.RawMessage(noArgsSchema) }

func (t *DetailsTool) Execute(ctx context.Context, _ json.RawMessage) (*agent.ToolResult, error) {
	record, err := t.provider.GetRecord(ctx, t.recordID)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return notFoundResult("no appraisal record found")
		}
		return lookupError(err)
	}
	return jsonResult(record)
}

// LandRegistryTool returns the land registry (tabu) extract data.
type LandRegistryTool struct {
	provider sessions.Provider
	recordID string
}

func NewLandRegistryTool(provider sessions.Provider, recordID string) *LandRegistryTool {
	return &LandRegistryTool{provider: provider, recordID: recordID}
}

func (t *LandRegistryTool) Name() string { return "get_land_registry" }

func (t *LandRegistryTool) Description() string {
	return "Returns the land registry (tabu) extract for the property: registration office, registered and plot areas, ownership type and owners count."
}

func (t *LandRegistryTool) Schema() json.RawMessage { return json.RawMessage(noArgsSchema) }

func (t *LandRegistryTool) Execute(ctx context.Context, _ json.RawMessage) (*agent.ToolResult, error) {
	extract, err := t.provider.GetLandRegistry(ctx, t.recordID)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return notFoundResult("no land registry extract on file for this record")
		}
		return lookupError(err)
	}
	return jsonResult(extract)
}

// PermitsTool returns the building permits recorded for the property.
type PermitsTool struct {
	provider sessions.Provider
	recordID string
}

func NewPermitsTool(provider sessions.Provider, recordID string) *PermitsTool {
	return &PermitsTool{provider: provider, recordID: recordID}
}

func (t *PermitsTool) Name() string { return "get_building_permits" }

func (t *PermitsTool) Description() string {
	return "Returns the building permits on file for the property, oldest first: permit number, date, permitted usage and issuing local committee."
}

func (t *PermitsTool) Schema() json.RawMessage { return json.RawMessage(noArgsSchema) }

func (t *PermitsTool) Execute(ctx context.Context, _ json.RawMessage) (*agent.ToolResult, error) {
	permits, err := t.provider.GetBuildingPermits(ctx, t.recordID)
	if err != nil {
		return lookupError(err)
	}
	if len(permits) == 0 {
		return notFoundResult("no building permits on file for this record")
	}
	return jsonResult(permits)
}

// SharedBuildingTool returns the shared building (condominium) order data.
type SharedBuildingTool struct {
	provider sessions.Provider
	recordID string
}

func NewSharedBuildingTool(provider sessions.Provider, recordID string) *SharedBuildingTool {
	return &SharedBuildingTool{provider: provider, recordID: recordID}
}

func (t *SharedBuildingTool) Name() string { return "get_shared_building_order" }

func (t *SharedBuildingTool) Description() string {
	return "Returns the shared building (condominium) order for the property: order date, units count, attachments and common area share."
}

func (t *SharedBuildingTool) Schema() json.RawMessage { return json.RawMessage(noArgsSchema) }

func (t *SharedBuildingTool) Execute(ctx context.Context, _ json.RawMessage) (*agent.ToolResult, error) {
	order, err := t.provider.GetSharedBuildingOrder(ctx, t.recordID)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return notFoundResult("no shared building order on file for this record")
		}
		return lookupError(err)
	}
	return jsonResult(order)
}

// ExtractionsTool returns the structured fields extracted from the record's
// uploaded documents, optionally filtered by document type.
type ExtractionsTool struct {
	provider sessions.Provider
	recordID string
}

func NewExtractionsTool(provider sessions.Provider, recordID string) *ExtractionsTool {
	return &ExtractionsTool{provider: provider, recordID: recordID}
}

func (t *ExtractionsTool) Name() string { return "get_document_extractions" }

func (t *ExtractionsTool) Description() string {
	return "Returns the structured data extracted from the record's uploaded documents, with per-document confidence. Optionally filter by document type (e.g. tabu, permit, shared_building_order)."
}

func (t *ExtractionsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "document_type": {"type": "string", "description": "Only return extractions from documents of this type"}
  },
  "additionalProperties": false
}`)
}

func (t *ExtractionsTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		DocumentType string `json:"document_type"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &input); err != nil {
			return &agent.ToolResult{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}, nil
		}
	}

	extractions, err := t.provider.GetExtractions(ctx, t.recordID)
	if err != nil {
		return lookupError(err)
	}
	if input.DocumentType != "" {
		filtered := extractions[:0:0]
		for _, e := range extractions {
			if e.DocumentType == input.DocumentType {
				filtered = append(filtered, e)
			}
		}
		extractions = filtered
	}
	if len(extractions) == 0 {
		return notFoundResult("no document extractions on file for this record")
	}
	return jsonResult(extractions)
}

// ComparableSalesTool returns recent comparable sales near the property.
type ComparableSalesTool struct {
	provider sessions.Provider
	recordID string
}

func NewComparableSalesTool(provider sessions.Provider, recordID string) *ComparableSalesTool {
	return &ComparableSalesTool{provider: provider, recordID: recordID}
}

func (t *ComparableSalesTool) Name() string { return "get_comparable_sales" }

func (t *ComparableSalesTool) Description() string {
	return "Returns recent comparable sales near the property, newest first: address, sale date, price, area and distance."
}

func (t *ComparableSalesTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "limit": {"type": "integer", "description": "Maximum number of sales to return", "minimum": 1, "maximum": 20}
  },
  "additionalProperties": false
}`)
}

func (t *ComparableSalesTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Limit int `json:"limit"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &input); err != nil {
			return &agent.ToolResult{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}, nil
		}
	}

	sales, err := t.provider.GetComparableSales(ctx, t.recordID)
	if err != nil {
		return lookupError(err)
	}
	if len(sales) == 0 {
		return notFoundResult("no comparable sales on file for this record")
	}
	if input.Limit > 0 && len(sales) > input.Limit {
		sales = sales[:input.Limit]
	}
	return jsonResult(sales)
}
