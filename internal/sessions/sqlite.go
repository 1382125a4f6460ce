package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// SQLiteProvider reads appraisal records from the platform's SQLite database.
// The schema is owned by the record-editing wizard; this side only reads.
type SQLiteProvider struct {
	db *sql.DB
}

// NewSQLiteProvider opens the database at path and ensures the schema exists.
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	p := &SQLiteProvider{db: db}
	if err := p.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// Close releases the database handle.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

func (p *SQLiteProvider) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS appraisal_records (
	id TEXT PRIMARY KEY,
	address TEXT NOT NULL,
	city TEXT NOT NULL,
	gush INTEGER NOT NULL,
	chelka INTEGER NOT NULL,
	sub_chelka INTEGER NOT NULL DEFAULT 0,
	property_type TEXT NOT NULL,
	rooms REAL NOT NULL DEFAULT 0,
	floor INTEGER NOT NULL DEFAULT 0,
	area_sqm REAL NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS land_registry (
	record_id TEXT PRIMARY KEY REFERENCES appraisal_records(id),
	registration_office TEXT NOT NULL,
	extract_date TIMESTAMP NOT NULL,
	total_plot_area REAL NOT NULL DEFAULT 0,
	registered_area REAL NOT NULL DEFAULT 0,
	balcony_area REAL NOT NULL DEFAULT 0,
	ownership_type TEXT NOT NULL,
	owners_count INTEGER NOT NULL DEFAULT 0,
	unit_description TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS building_permits (
	record_id TEXT NOT NULL REFERENCES appraisal_records(id),
	permit_number TEXT NOT NULL,
	permit_date TIMESTAMP NOT NULL,
	permitted_usage TEXT NOT NULL,
	local_committee TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS shared_building_orders (
	record_id TEXT PRIMARY KEY REFERENCES appraisal_records(id),
	order_date TIMESTAMP NOT NULL,
	units_count INTEGER NOT NULL DEFAULT 0,
	attached_to_unit TEXT NOT NULL DEFAULT '',
	common_area_share TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS extractions (
	record_id TEXT NOT NULL REFERENCES appraisal_records(id),
	document_type TEXT NOT NULL,
	filename TEXT NOT NULL,
	fields TEXT NOT NULL DEFAULT '{}',
	confidence REAL NOT NULL DEFAULT 0,
	extracted_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS comparable_sales (
	record_id TEXT NOT NULL REFERENCES appraisal_records(id),
	address TEXT NOT NULL,
	sale_date TIMESTAMP NOT NULL,
	price REAL NOT NULL,
	area_sqm REAL NOT NULL DEFAULT 0,
	rooms REAL NOT NULL DEFAULT 0,
	distance_m REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_permits_record ON building_permits(record_id);
CREATE INDEX IF NOT EXISTS idx_extractions_record ON extractions(record_id);
CREATE INDEX IF NOT EXISTS idx_comparables_record ON comparable_sales(record_id);
`
	_, err := p.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *SQLiteProvider) GetRecord(ctx context.Context, recordID string) (*models.AppraisalRecord, error) {
	row := p.db.QueryRowContext(ctx, `
SELECT id, address, city, gush, chelka, sub_chelka, property_type, rooms, floor, area_sqm, created_at
FROM appraisal_records WHERE id = ?`, recordID)

	var rec models.AppraisalRecord
	err := row.Scan(&rec.ID, &rec.Address, &rec.City, &rec.Gush, &rec.Chelka, &rec.SubChelka,
		&rec.PropertyType, &rec.Rooms, &rec.Floor, &rec.AreaSqM, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

func (p *SQLiteProvider) GetLandRegistry(ctx context.Context, recordID string) (*models.LandRegistryExtract, error) {
	row := p.db.QueryRowContext(ctx, `
SELECT record_id, registration_office, extract_date, total_plot_area, registered_area,
       balcony_area, ownership_type, owners_count, unit_description, confidence
FROM land_registry WHERE record_id = ?`, recordID)

	var ex models.LandRegistryExtract
	err := row.Scan(&ex.RecordID, &ex.RegistrationOffice, &ex.ExtractDate, &ex.TotalPlotArea,
		&ex.RegisteredArea, &ex.BalconyArea, &ex.OwnershipType, &ex.OwnersCount,
		&ex.UnitDescription, &ex.Confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get land registry: %w", err)
	}
	return &ex, nil
}

func (p *SQLiteProvider) GetBuildingPermits(ctx context.Context, recordID string) ([]models.BuildingPermit, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT record_id, permit_number, permit_date, permitted_usage, local_committee, confidence
FROM building_permits WHERE record_id = ? ORDER BY permit_date`, recordID)
	if err != nil {
		return nil, fmt.Errorf("get permits: %w", err)
	}
	defer rows.Close()

	var permits []models.BuildingPermit
	for rows.Next() {
		var bp models.BuildingPermit
		if err := rows.Scan(&bp.RecordID, &bp.PermitNumber, &bp.PermitDate,
			&bp.PermittedUsage, &bp.LocalCommittee, &bp.Confidence); err != nil {
			return nil, fmt.Errorf("scan permit: %w", err)
		}
		permits = append(permits, bp)
	}
	return permits, rows.Err()
}

func (p *SQLiteProvider) GetSharedBuildingOrder(ctx context.Context, recordID string) (*models.SharedBuildingOrder, error) {
	row := p.db.QueryRowContext(ctx, `
SELECT record_id, order_date, units_count, attached_to_unit, common_area_share, confidence
FROM shared_building_orders WHERE record_id = ?`, recordID)

	var order models.SharedBuildingOrder
	err := row.Scan(&order.RecordID, &order.OrderDate, &order.UnitsCount,
		&order.AttachedToUnit, &order.CommonAreaShare, &order.Confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shared building order: %w", err)
	}
	return &order, nil
}

func (p *SQLiteProvider) GetExtractions(ctx context.Context, recordID string) ([]models.Extraction, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT record_id, document_type, filename, fields, confidence, extracted_at
FROM extractions WHERE record_id = ? ORDER BY extracted_at`, recordID)
	if err != nil {
		return nil, fmt.Errorf("get extractions: %w", err)
	}
	defer rows.Close()

	var out []models.Extraction
	for rows.Next() {
		var ex models.Extraction
		var fields string
		if err := rows.Scan(&ex.RecordID, &ex.DocumentType, &ex.Filename, &fields,
			&ex.Confidence, &ex.ExtractedAt); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &ex.Fields); err != nil {
			return nil, fmt.Errorf("decode extraction fields: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (p *SQLiteProvider) GetComparableSales(ctx context.Context, recordID string) ([]models.ComparableSale, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT record_id, address, sale_date, price, area_sqm, rooms, distance_m
FROM comparable_sales WHERE record_id = ? ORDER BY sale_date DESC`, recordID)
	if err != nil {
		return nil, fmt.Errorf("get comparables: %w", err)
	}
	defer rows.Close()

	var out []models.ComparableSale
	for rows.Next() {
		var cs models.ComparableSale
		if err := rows.Scan(&cs.RecordID, &cs.Address, &cs.SaleDate, &cs.Price,
			&cs.AreaSqM, &cs.Rooms, &cs.Distance); err != nil {
			return nil, fmt.Errorf("scan comparable: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// SeedRecord inserts a record with associated data. Used by tests and the
// local development seed command; production data is written by the wizard.
func (p *SQLiteProvider) SeedRecord(ctx context.Context, rec *models.AppraisalRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := p.db.ExecContext(ctx, `
INSERT OR REPLACE INTO appraisal_records
	(id, address, city, gush, chelka, sub_chelka, property_type, rooms, floor, area_sqm, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Address, rec.City, rec.Gush, rec.Chelka, rec.SubChelka,
		rec.PropertyType, rec.Rooms, rec.Floor, rec.AreaSqM, rec.CreatedAt)
	return err
}

// SeedLandRegistry inserts a land registry extract.
func (p *SQLiteProvider) SeedLandRegistry(ctx context.Context, ex *models.LandRegistryExtract) error {
	_, err := p.db.ExecContext(ctx, `
INSERT OR REPLACE INTO land_registry
	(record_id, registration_office, extract_date, total_plot_area, registered_area,
	 balcony_area, ownership_type, owners_count, unit_description, confidence)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.RecordID, ex.RegistrationOffice, ex.ExtractDate, ex.TotalPlotArea, ex.RegisteredArea,
		ex.BalconyArea, ex.OwnershipType, ex.OwnersCount, ex.UnitDescription, ex.Confidence)
	return err
}

// SeedBuildingPermit inserts one building permit.
func (p *SQLiteProvider) SeedBuildingPermit(ctx context.Context, bp *models.BuildingPermit) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO building_permits (record_id, permit_number, permit_date, permitted_usage, local_committee, confidence)
VALUES (?, ?, ?, ?, ?, ?)`,
		bp.RecordID, bp.PermitNumber, bp.PermitDate, bp.PermittedUsage, bp.LocalCommittee, bp.Confidence)
	return err
}

// SeedExtraction inserts one document extraction.
func (p *SQLiteProvider) SeedExtraction(ctx context.Context, ex *models.Extraction) error {
	fields, err := json.Marshal(ex.Fields)
	if err != nil {
		return fmt.Errorf("encode extraction fields: %w", err)
	}
	if ex.ExtractedAt.IsZero() {
		ex.ExtractedAt = time.Now()
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO extractions (record_id, document_type, filename, fields, confidence, extracted_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		ex.RecordID, ex.DocumentType, ex.Filename, string(fields), ex.Confidence, ex.ExtractedAt)
	return err
}

// SeedComparableSale inserts one comparable sale.
func (p *SQLiteProvider) SeedComparableSale(ctx context.Context, cs *models.ComparableSale) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO comparable_sales (record_id, address, sale_date, price, area_sqm, rooms, distance_m)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cs.RecordID, cs.Address, cs.SaleDate, cs.Price, cs.AreaSqM, cs.Rooms, cs.Distance)
	return err
}
