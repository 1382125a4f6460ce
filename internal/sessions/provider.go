// Package sessions exposes the durable appraisal-record data the chat core is
// scoped to. The chat core reads through the narrow Provider interface and
// never writes; the record-editing wizard owns mutation and is out of scope.
package sessions

import (
	"context"
	"errors"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// ErrNotFound is returned when no record exists for the requested ID.
var ErrNotFound = errors.New("record not found")

// Provider is the session data provider: load-by-id access to one appraisal
// record and its associated document data. Implementations must be safe for
// concurrent use; independent chat requests share no other state.
type Provider interface {
	GetRecord(ctx context.Context, recordID string) (*models.AppraisalRecord, error)
	GetLandRegistry(ctx context.Context, recordID string) (*models.LandRegistryExtract, error)
	GetBuildingPermits(ctx context.Context, recordID string) ([]models.BuildingPermit, error)
	GetSharedBuildingOrder(ctx context.Context, recordID string) (*models.SharedBuildingOrder, error)
	GetExtractions(ctx context.Context, recordID string) ([]models.Extraction, error)
	GetComparableSales(ctx context.Context, recordID string) ([]models.ComparableSale, error)
}
