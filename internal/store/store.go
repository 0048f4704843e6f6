// Package store persists the delivery history: one audit row per
// notification that was actually sent. The history feeds the status command
// and is deliberately not part of the dedup decision, which belongs to the
// checkpoint alone.
package store

import (
	"context"

	"github.com/nhle/repowatch/internal/model"
)

// Store defines the persistence interface for delivery history.
type Store interface {
	// RecordDelivery inserts one delivery audit record.
	RecordDelivery(ctx context.Context, d model.Delivery) error

	// RecentDeliveries returns the newest deliveries, most recent first.
	RecentDeliveries(ctx context.Context, limit int) ([]model.Delivery, error)

	// CountDeliveries returns the total number of recorded deliveries.
	CountDeliveries(ctx context.Context) (int, error)

	// Close releases the underlying database handle.
	Close() error
}
