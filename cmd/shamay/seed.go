package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/sessions"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

func buildSeedCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with a demo appraisal record",
		Long: `Seed the database with one demo appraisal record (record ID "demo-1"):
a Tel Aviv apartment with a land registry extract, building permits, document
extractions and comparable sales. Useful for local development and manual
testing of the chat endpoint.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "shamay.db", "Path to the SQLite database file")
	return cmd
}

func runSeed(ctx context.Context, dbPath string) error {
	store, err := sessions.NewSQLiteProvider(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	const recordID = "demo-1"

	if err := store.SeedRecord(ctx, &models.AppraisalRecord{
		ID:           recordID,
		Address:      "הרצל 15",
		City:         "תל אביב",
		Gush:         6638,
		Chelka:       42,
		SubChelka:    3,
		PropertyType: "דירה",
		Rooms:        4,
		Floor:        2,
		AreaSqM:      96.5,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return err
	}

	if err := store.SeedLandRegistry(ctx, &models.LandRegistryExtract{
		RecordID:           recordID,
		RegistrationOffice: "תל אביב",
		ExtractDate:        time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		TotalPlotArea:      620,
		RegisteredArea:     96.5,
		BalconyArea:        12,
		OwnershipType:      "בעלות פרטית",
		OwnersCount:        2,
		UnitDescription:    "דירה בת 4 חדרים בקומה 2",
		Confidence:         0.93,
	}); err != nil {
		return err
	}

	permits := []models.BuildingPermit{
		{RecordID: recordID, PermitNumber: "1987/123", PermitDate: time.Date(1987, 5, 1, 0, 0, 0, 0, time.UTC), PermittedUsage: "מגורים", LocalCommittee: "תל אביב", Confidence: 0.88},
		{RecordID: recordID, PermitNumber: "2005/456", PermitDate: time.Date(2005, 3, 12, 0, 0, 0, 0, time.UTC), PermittedUsage: "תוספת בנייה", LocalCommittee: "תל אביב", Confidence: 0.91},
	}
	for i := range permits {
		if err := store.SeedBuildingPermit(ctx, &permits[i]); err != nil {
			return err
		}
	}

	extractions := []models.Extraction{
		{RecordID: recordID, DocumentType: "tabu", Filename: "tabu.pdf", Fields: map[string]string{"registered_area": "96.5", "owners_count": "2"}, Confidence: 0.93, ExtractedAt: time.Now().UTC()},
		{RecordID: recordID, DocumentType: "permit", Filename: "permit_1987.pdf", Fields: map[string]string{"permit_number": "1987/123"}, Confidence: 0.88, ExtractedAt: time.Now().UTC()},
	}
	for i := range extractions {
		if err := store.SeedExtraction(ctx, &extractions[i]); err != nil {
			return err
		}
	}

	sales := []models.ComparableSale{
		{RecordID: recordID, Address: "הרצל 11, תל אביב", SaleDate: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC), Price: 3_100_000, AreaSqM: 92, Rooms: 4, Distance: 80},
		{RecordID: recordID, Address: "ביאליק 8, תל אביב", SaleDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Price: 2_950_000, AreaSqM: 88, Rooms: 3.5, Distance: 210},
		{RecordID: recordID, Address: "אחד העם 3, תל אביב", SaleDate: time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC), Price: 3_400_000, AreaSqM: 101, Rooms: 4.5, Distance: 350},
	}
	for i := range sales {
		if err := store.SeedComparableSale(ctx, &sales[i]); err != nil {
			return err
		}
	}

	fmt.Printf("seeded record %s into %s\n", recordID, dbPath)
	return nil
}
