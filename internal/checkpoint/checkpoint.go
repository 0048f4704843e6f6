// Package checkpoint implements the watermark/tie-break bookkeeping that lets
// the pipeline deliver each upstream item exactly once across runs. A Lane
// tracks how far one item stream has been processed: every item whose
// timestamp is strictly before the watermark is implicitly done, items at
// exactly the watermark are done iff their id is in the tie-break set, and
// anything after the watermark is still pending.
package checkpoint

import (
	"slices"
	"time"
)

// Item is the minimal contract an upstream item must satisfy to take part in
// watermark selection and advancement.
type Item interface {
	// ItemID returns the stable, unique identifier of the item within its kind.
	ItemID() int64

	// ItemTime returns the instant used for watermark ordering (merge time,
	// publish time). It may carry any location; comparisons normalize to UTC.
	ItemTime() time.Time
}

// Lane is the checkpoint state for a single item stream. The zero value is
// the bootstrap-pending state: no watermark, nothing seen.
type Lane struct {
	// Watermark is the timestamp boundary below which everything is
	// considered processed. The zero time means no watermark exists yet.
	Watermark time.Time

	// SeenIDs holds the ids known-processed at exactly the watermark
	// timestamp. It is kept sorted and de-duplicated. Ids before the
	// watermark are implicitly seen and never appear here.
	SeenIDs []int64
}

// Pending reports whether the lane has never been advanced and therefore
// still needs first-run bootstrapping.
func (l Lane) Pending() bool {
	return l.Watermark.IsZero() && len(l.SeenIDs) == 0
}

// Equal reports whether two lanes carry the same watermark instant and the
// same tie-break set.
func (l Lane) Equal(other Lane) bool {
	if !l.Watermark.Equal(other.Watermark) {
		return false
	}
	return slices.Equal(l.SeenIDs, other.SeenIDs)
}

// clone returns a deep copy so that callers can treat Lane values as
// immutable.
func (l Lane) clone() Lane {
	return Lane{
		Watermark: l.Watermark,
		SeenIDs:   slices.Clone(l.SeenIDs),
	}
}

// Checkpoint is the full persisted record: one lane per item kind. The lanes
// never interact; they only share a file.
type Checkpoint struct {
	PullRequests Lane
	Releases     Lane
}

// Advance computes the lane that results from having delivered the given
// items on top of the current lane. It never moves the watermark backwards:
// the next watermark is the maximum of the current one and every delivered
// timestamp, and the tie-break set is rebuilt from the ids observed at that
// maximum (keeping the current set only when the watermark does not move).
//
// Advance is pure; the input lane is not modified. An empty delivered slice
// returns a value-equal copy of the current lane.
func Advance[T Item](current Lane, delivered []T) Lane {
	if len(delivered) == 0 {
		return current.clone()
	}

	next := current.clone()
	for _, item := range delivered {
		ts := item.ItemTime().UTC()

		switch {
		case next.Watermark.IsZero() || ts.After(next.Watermark):
			next.Watermark = ts
			next.SeenIDs = []int64{item.ItemID()}
		case ts.Equal(next.Watermark):
			next.SeenIDs = append(next.SeenIDs, item.ItemID())
		}
	}

	slices.Sort(next.SeenIDs)
	next.SeenIDs = slices.Compact(next.SeenIDs)
	return next
}
