package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// ErrCorruptState marks a checkpoint file that exists but cannot be decoded.
// It is deliberately not recovered from: silently resetting to an empty
// checkpoint would re-bootstrap the full backlog and lose history.
var ErrCorruptState = errors.New("corrupt checkpoint state")

// ErrPersistence marks a failure to durably write the checkpoint file.
var ErrPersistence = errors.New("checkpoint persistence failure")

// Store reads and writes the checkpoint record at a fixed path. The path is
// supplied at construction so tests and concurrent instances can use their
// own files; there is no process-wide default.
//
// Save is atomic with respect to a process crash: the full record is written
// to a temporary file in the same directory, fsynced, then renamed into
// place. A reader never observes a partially written checkpoint.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// laneRecord is the persisted JSON shape of one lane: a nullable RFC3339 UTC
// timestamp and a sorted integer id list. Missing fields decode to the empty
// lane state.
type laneRecord struct {
	Watermark *string `json:"watermark"`
	SeenIDs   []int64 `json:"seen_ids"`
}

type checkpointRecord struct {
	PullRequests laneRecord `json:"pull_requests"`
	Releases     laneRecord `json:"releases"`
}

// Load reads the checkpoint from disk. A missing file is not an error; it
// yields the empty checkpoint. A present but malformed file fails with an
// error wrapping ErrCorruptState.
func (s *Store) Load() (Checkpoint, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Checkpoint{}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("reading checkpoint %s: %w", s.path, err)
	}

	var record checkpointRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: decoding %s: %v", ErrCorruptState, s.path, err)
	}

	prLane, err := record.PullRequests.toLane()
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: pull_requests lane in %s: %v", ErrCorruptState, s.path, err)
	}
	releaseLane, err := record.Releases.toLane()
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: releases lane in %s: %v", ErrCorruptState, s.path, err)
	}

	return Checkpoint{PullRequests: prLane, Releases: releaseLane}, nil
}

// Save atomically replaces the checkpoint file with the given record. On
// failure the previous checkpoint remains intact and any temporary artifact
// is removed before the error propagates.
func (s *Store) Save(cp Checkpoint) error {
	record := checkpointRecord{
		PullRequests: laneToRecord(cp.PullRequests),
		Releases:     laneToRecord(cp.Releases),
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding checkpoint: %v", ErrPersistence, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating state directory %s: %v", ErrPersistence, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", ErrPersistence, dir, err)
	}
	tmpPath := tmp.Name()

	if err := writeAndSync(tmp, data); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %s: %v", ErrPersistence, tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replacing %s: %v", ErrPersistence, s.path, err)
	}

	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r laneRecord) toLane() (Lane, error) {
	var lane Lane

	if r.Watermark != nil && *r.Watermark != "" {
		ts, err := ParseTimestamp(*r.Watermark)
		if err != nil {
			return Lane{}, err
		}
		lane.Watermark = ts
	}

	if lane.Watermark.IsZero() && len(r.SeenIDs) > 0 {
		return Lane{}, errors.New("seen_ids present without a watermark")
	}

	lane.SeenIDs = slices.Clone(r.SeenIDs)
	slices.Sort(lane.SeenIDs)
	lane.SeenIDs = slices.Compact(lane.SeenIDs)
	return lane, nil
}

func laneToRecord(lane Lane) laneRecord {
	ids := slices.Clone(lane.SeenIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if ids == nil {
		ids = []int64{}
	}

	record := laneRecord{SeenIDs: ids}
	if !lane.Watermark.IsZero() {
		// RFC3339Nano keeps fractional seconds; flooring them would move the
		// watermark backwards and re-select already delivered items.
		formatted := lane.Watermark.UTC().Format(time.RFC3339Nano)
		record.Watermark = &formatted
	}
	return record
}

// ParseTimestamp parses a persisted watermark value. RFC3339 text is taken
// as-is; text without a zone offset is interpreted as UTC, matching the
// upstream API's timestamp convention.
func ParseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02T15:04:05", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	return ts.UTC(), nil
}
