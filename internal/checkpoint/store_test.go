package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissingFileReturnsEmptyCheckpoint(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))

	cp, err := s.Load()

	require.NoError(t, err)
	assert.True(t, cp.PullRequests.Pending())
	assert.True(t, cp.Releases.Pending())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))
	cp := Checkpoint{
		PullRequests: Lane{Watermark: at(10, 0), SeenIDs: []int64{20, 21}},
		Releases:     Lane{Watermark: at(9, 30), SeenIDs: []int64{7}},
	}

	require.NoError(t, s.Save(cp))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.True(t, loaded.PullRequests.Equal(cp.PullRequests))
	assert.True(t, loaded.Releases.Equal(cp.Releases))
}

func TestStore_FractionalSecondWatermarkSurvivesRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))

	item := testItem{id: 42, ts: at(10, 0).Add(500 * time.Millisecond)}
	lane := Advance(Lane{}, []testItem{item})
	require.NoError(t, s.Save(Checkpoint{PullRequests: lane}))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.True(t, loaded.PullRequests.Watermark.Equal(item.ts))

	// The delivered item must still count as seen after the reload; a floored
	// watermark would sort it strictly after and select it again.
	assert.Empty(t, SelectUnseen([]testItem{item}, loaded.PullRequests))
}

func TestStore_SaveCreatesStateDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	s := NewStore(path)

	require.NoError(t, s.Save(Checkpoint{}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStore_SerializesSortedDeduplicatedIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path)
	cp := Checkpoint{
		PullRequests: Lane{Watermark: at(10, 0), SeenIDs: []int64{30, 10, 30, 20}},
	}

	require.NoError(t, s.Save(cp))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "10,\n      20,\n      30")

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, loaded.PullRequests.SeenIDs)
}

func TestStore_MissingLaneFieldsDefaultToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"pull_requests": {"watermark": "2026-03-14T10:00:00Z", "seen_ids": [1]}}`,
	), 0o644))

	cp, err := NewStore(path).Load()

	require.NoError(t, err)
	assert.False(t, cp.PullRequests.Pending())
	assert.True(t, cp.Releases.Pending())
}

func TestStore_NaiveTimestampIsTreatedAsUTC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"pull_requests": {"watermark": "2026-03-14T10:00:00", "seen_ids": [1]}}`,
	), 0o644))

	cp, err := NewStore(path).Load()

	require.NoError(t, err)
	assert.True(t, cp.PullRequests.Watermark.Equal(at(10, 0)))
}

func TestStore_CorruptPayloadsFailWithCorruptState(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "invalid json", payload: `{not json`},
		{name: "wrong shape", payload: `[1, 2, 3]`},
		{name: "non-integer ids", payload: `{"pull_requests": {"watermark": "2026-03-14T10:00:00Z", "seen_ids": ["a"]}}`},
		{name: "unparseable timestamp", payload: `{"pull_requests": {"watermark": "not-a-time", "seen_ids": []}}`},
		{name: "ids without watermark", payload: `{"pull_requests": {"watermark": null, "seen_ids": [1]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.payload), 0o644))

			_, err := NewStore(path).Load()

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptState)
		})
	}
}

func TestStore_FailedSaveLeavesPriorCheckpointIntact(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := NewStore(path)

	prior := Checkpoint{PullRequests: Lane{Watermark: at(10, 0), SeenIDs: []int64{1}}}
	require.NoError(t, s.Save(prior))

	// Make the directory read-only so the temp-file write fails before the
	// rename ever happens.
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	err := s.Save(Checkpoint{PullRequests: Lane{Watermark: at(11, 0), SeenIDs: []int64{2}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)

	require.NoError(t, os.Chmod(dir, 0o755))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.True(t, loaded.PullRequests.Equal(prior.PullRequests))
}

func TestStore_FailedSaveLeavesNoTemporaryArtifacts(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := NewStore(path)
	require.NoError(t, s.Save(Checkpoint{}))

	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })
	_ = s.Save(Checkpoint{PullRequests: Lane{Watermark: at(11, 0)}})
	require.NoError(t, os.Chmod(dir, 0o755))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"),
			"orphaned temp file %s", entry.Name())
	}
}

// A crash after the temp file is written but before the rename must leave
// the prior checkpoint as the only thing Load observes.
func TestStore_CrashBeforeRenameKeepsPriorCheckpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := NewStore(path)

	prior := Checkpoint{PullRequests: Lane{Watermark: at(10, 0), SeenIDs: []int64{1}}}
	require.NoError(t, s.Save(prior))

	// Simulate the crash: a fully written temp file that never got renamed.
	orphan := filepath.Join(dir, ".state.json.12345.tmp")
	require.NoError(t, os.WriteFile(orphan, []byte(
		`{"pull_requests": {"watermark": "2026-03-14T11:00:00Z", "seen_ids": [2]}}`,
	), 0o644))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.True(t, loaded.PullRequests.Equal(prior.PullRequests))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2026-03-14T10:00:00+09:00")
	require.NoError(t, err)
	assert.True(t, ts.Equal(at(1, 0)))

	_, err = ParseTimestamp("garbage")
	assert.Error(t, err)
}
