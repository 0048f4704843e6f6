package model

import "time"

// Delivery is the audit record of one successfully delivered notification.
// It is written after the checkpoint advances and is never consulted for
// dedup decisions; the checkpoint alone owns those.
type Delivery struct {
	// ID is the unique identifier for this delivery record.
	ID string `json:"id" db:"id"`

	// RunID groups deliveries made by the same pipeline run.
	RunID string `json:"run_id" db:"run_id"`

	// Kind identifies which lane the item came from.
	Kind ItemKind `json:"kind" db:"kind"`

	// ItemID is the delivered item's id within its kind.
	ItemID int64 `json:"item_id" db:"item_id"`

	// Title is the item title at delivery time.
	Title string `json:"title" db:"title"`

	// URL is the item's browser URL.
	URL string `json:"url" db:"url"`

	// ItemTime is the item's watermark instant (merge or publish time).
	ItemTime time.Time `json:"item_time" db:"item_time"`

	// DeliveredAt is when the notification was accepted by the destination.
	DeliveredAt time.Time `json:"delivered_at" db:"delivered_at"`
}
