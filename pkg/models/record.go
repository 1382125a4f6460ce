package models

import "time"

// AppraisalRecord is the business record one chat session is scoped to:
// a single property under valuation. Loaded from the session data provider,
// never mutated by the chat core.
type AppraisalRecord struct {
	ID           string    `json:"id"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Gush         int       `json:"gush"`
	Chelka       int       `json:"chelka"`
	SubChelka    int       `json:"sub_chelka,omitempty"`
	PropertyType string    `json:"property_type"`
	Rooms        float64   `json:"rooms,omitempty"`
	Floor        int       `json:"floor,omitempty"`
	AreaSqM      float64   `json:"area_sqm,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LandRegistryExtract holds the fields read from a tabu extract.
type LandRegistryExtract struct {
	RecordID           string    `json:"record_id"`
	RegistrationOffice string    `json:"registration_office"`
	ExtractDate        time.Time `json:"extract_date"`
	TotalPlotArea      float64   `json:"total_plot_area"`
	RegisteredArea     float64   `json:"registered_area"`
	BalconyArea        float64   `json:"balcony_area,omitempty"`
	OwnershipType      string    `json:"ownership_type"`
	OwnersCount        int       `json:"owners_count"`
	UnitDescription    string    `json:"unit_description,omitempty"`
	Confidence         float64   `json:"confidence"`
}

// BuildingPermit is one building permit associated with the property.
type BuildingPermit struct {
	RecordID       string    `json:"record_id"`
	PermitNumber   string    `json:"permit_number"`
	PermitDate     time.Time `json:"permit_date"`
	PermittedUsage string    `json:"permitted_usage"`
	LocalCommittee string    `json:"local_committee"`
	Confidence     float64   `json:"confidence"`
}

// SharedBuildingOrder describes the condominium registration order.
type SharedBuildingOrder struct {
	RecordID        string    `json:"record_id"`
	OrderDate       time.Time `json:"order_date"`
	UnitsCount      int       `json:"units_count"`
	AttachedToUnit  string    `json:"attached_to_unit,omitempty"`
	CommonAreaShare string    `json:"common_area_share,omitempty"`
	Confidence      float64   `json:"confidence"`
}

// Extraction is one field-extraction result produced by the document
// pipeline (out of scope here; consumed read-only).
type Extraction struct {
	RecordID     string            `json:"record_id"`
	DocumentType string            `json:"document_type"`
	Filename     string            `json:"filename"`
	Fields       map[string]string `json:"fields"`
	Confidence   float64           `json:"confidence"`
	ExtractedAt  time.Time         `json:"extracted_at"`
}

// ComparableSale is one recent transaction used for valuation context.
type ComparableSale struct {
	RecordID string    `json:"record_id"`
	Address  string    `json:"address"`
	SaleDate time.Time `json:"sale_date"`
	Price    float64   `json:"price"`
	AreaSqM  float64   `json:"area_sqm"`
	Rooms    float64   `json:"rooms,omitempty"`
	Distance float64   `json:"distance_m,omitempty"`
}
