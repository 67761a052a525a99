package tracker

import (
	"context"

	"github.com/BearBump/ParcelScope/internal/models"
)

type GetOptions struct {
	// ForceRefresh bypasses any cached answer upstream of the adapter.
	ForceRefresh bool
}

// Service is the uniform contract every tracking backend implements.
//
// CreateTracking/DeleteTracking exist for backends that require a number to
// be registered before lookups work; backends without that requirement
// return nil unconditionally (a documented no-op, not a lie).
//
// An unconfigured backend must never be invoked: the orchestrator checks
// IsConfigured before selection.
type Service interface {
	GetTracking(ctx context.Context, trackNumber, carrierCode string, opts GetOptions) (*models.TrackingInfo, error)
	CreateTracking(ctx context.Context, trackNumber, carrierCode string, meta map[string]string) error
	DeleteTracking(ctx context.Context, trackNumber, carrierCode string) error
	DetectCarrier(trackNumber string) ([]string, error)
	IsConfigured() bool
}
