package checkpoint

import (
	"slices"
)

// SelectUnseen returns the items the lane has not yet recorded as delivered,
// in delivery order: timestamp ascending, then id ascending.
//
// The input batch may contain duplicate ids (the source can return the same
// item twice, even with differing fields); only the first occurrence in
// delivery order is kept. A lane with no watermark selects everything, since
// nothing has been processed yet. SelectUnseen is pure and never mutates its
// inputs.
func SelectUnseen[T Item](items []T, lane Lane) []T {
	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b T) int {
		at, bt := a.ItemTime().UTC(), b.ItemTime().UTC()
		if at.Before(bt) {
			return -1
		}
		if at.After(bt) {
			return 1
		}
		switch {
		case a.ItemID() < b.ItemID():
			return -1
		case a.ItemID() > b.ItemID():
			return 1
		}
		return 0
	})

	watermark := lane.Watermark.UTC()
	seen := make(map[int64]bool, len(lane.SeenIDs))
	for _, id := range lane.SeenIDs {
		seen[id] = true
	}

	var selected []T
	encountered := make(map[int64]bool, len(ordered))
	for _, item := range ordered {
		if encountered[item.ItemID()] {
			continue
		}
		encountered[item.ItemID()] = true

		if lane.Watermark.IsZero() {
			selected = append(selected, item)
			continue
		}

		ts := item.ItemTime().UTC()
		if ts.Before(watermark) {
			continue
		}
		if ts.Equal(watermark) && seen[item.ItemID()] {
			continue
		}
		selected = append(selected, item)
	}

	return selected
}
