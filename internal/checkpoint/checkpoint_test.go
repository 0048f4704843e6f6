package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testItem is a minimal Item for exercising the pure functions.
type testItem struct {
	id int64
	ts time.Time
}

func (t testItem) ItemID() int64       { return t.id }
func (t testItem) ItemTime() time.Time { return t.ts }

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestAdvance_EmptyDeliveredReturnsEqualLane(t *testing.T) {
	current := Lane{Watermark: at(10, 0), SeenIDs: []int64{20}}

	next := Advance(current, []testItem{})

	assert.True(t, next.Equal(current))
}

func TestAdvance_MovesWatermarkToMaxTimestamp(t *testing.T) {
	current := Lane{Watermark: at(10, 0), SeenIDs: []int64{20}}

	next := Advance(current, []testItem{
		{id: 21, ts: at(10, 0)},
		{id: 30, ts: at(10, 1)},
	})

	assert.True(t, next.Watermark.Equal(at(10, 1)))
	assert.Equal(t, []int64{30}, next.SeenIDs)
}

func TestAdvance_KeepsTieBreakSetWhenWatermarkHolds(t *testing.T) {
	current := Lane{Watermark: at(10, 0), SeenIDs: []int64{20}}

	next := Advance(current, []testItem{
		{id: 21, ts: at(10, 0)},
		{id: 22, ts: at(10, 0)},
	})

	assert.True(t, next.Watermark.Equal(at(10, 0)))
	assert.Equal(t, []int64{20, 21, 22}, next.SeenIDs)
}

func TestAdvance_DropsOlderTieBreakSetWhenWatermarkMoves(t *testing.T) {
	current := Lane{Watermark: at(9, 0), SeenIDs: []int64{1, 2, 3}}

	next := Advance(current, []testItem{{id: 50, ts: at(9, 30)}})

	assert.True(t, next.Watermark.Equal(at(9, 30)))
	assert.Equal(t, []int64{50}, next.SeenIDs)
}

func TestAdvance_IgnoresItemsBehindTheWatermark(t *testing.T) {
	current := Lane{Watermark: at(10, 0), SeenIDs: []int64{20}}

	next := Advance(current, []testItem{{id: 5, ts: at(8, 0)}})

	assert.True(t, next.Watermark.Equal(at(10, 0)))
	assert.Equal(t, []int64{20}, next.SeenIDs)
}

func TestAdvance_FromEmptyLane(t *testing.T) {
	next := Advance(Lane{}, []testItem{
		{id: 500, ts: at(9, 0)},
		{id: 501, ts: at(9, 5)},
		{id: 502, ts: at(9, 5)},
	})

	assert.True(t, next.Watermark.Equal(at(9, 5)))
	assert.Equal(t, []int64{501, 502}, next.SeenIDs)
}

func TestAdvance_WatermarkIsMonotonic(t *testing.T) {
	lane := Lane{}
	batches := [][]testItem{
		{{id: 1, ts: at(9, 0)}},
		{{id: 2, ts: at(11, 0)}},
		{{id: 3, ts: at(10, 0)}}, // late arrival must not move the watermark back
		{{id: 4, ts: at(11, 0)}},
		{{id: 5, ts: at(12, 0)}},
	}

	prev := lane.Watermark
	for _, batch := range batches {
		lane = Advance(lane, batch)
		require.False(t, lane.Watermark.Before(prev),
			"watermark moved backwards: %v -> %v", prev, lane.Watermark)
		prev = lane.Watermark
	}

	assert.True(t, lane.Watermark.Equal(at(12, 0)))
	assert.Equal(t, []int64{5}, lane.SeenIDs)
}

func TestAdvance_NormalizesTimezonesToUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	// 05:00 EST == 10:00 UTC.
	next := Advance(Lane{Watermark: at(10, 0), SeenIDs: []int64{1}}, []testItem{
		{id: 2, ts: time.Date(2026, 3, 14, 5, 0, 0, 0, est)},
	})

	assert.True(t, next.Watermark.Equal(at(10, 0)))
	assert.Equal(t, []int64{1, 2}, next.SeenIDs)
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	current := Lane{Watermark: at(10, 0), SeenIDs: []int64{20}}

	_ = Advance(current, []testItem{{id: 21, ts: at(10, 0)}})

	assert.Equal(t, []int64{20}, current.SeenIDs)
}

func TestLane_Pending(t *testing.T) {
	assert.True(t, Lane{}.Pending())
	assert.False(t, Lane{Watermark: at(9, 0)}.Pending())
	assert.False(t, Lane{Watermark: at(9, 0), SeenIDs: []int64{1}}.Pending())
}

// Scenario from the delivery design: checkpoint {t=10:00, ids={20}} plus
// batch [{21,10:00},{30,10:01}] selects [21, 30]; delivering both one at a
// time lands on {t=10:01, ids={30}}.
func TestSelectThenAdvance_Scenario(t *testing.T) {
	lane := Lane{Watermark: at(10, 0), SeenIDs: []int64{20}}
	batch := []testItem{
		{id: 30, ts: at(10, 1)},
		{id: 21, ts: at(10, 0)},
		{id: 20, ts: at(10, 0)},
	}

	unseen := SelectUnseen(batch, lane)
	require.Len(t, unseen, 2)
	assert.Equal(t, int64(21), unseen[0].ItemID())
	assert.Equal(t, int64(30), unseen[1].ItemID())

	for _, item := range unseen {
		lane = Advance(lane, []testItem{item})
	}

	assert.True(t, lane.Watermark.Equal(at(10, 1)))
	assert.Equal(t, []int64{30}, lane.SeenIDs)
}
