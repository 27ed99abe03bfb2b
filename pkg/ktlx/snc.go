package ktlx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

// Windows FILETIME counts 100-nanosecond ticks since 1601-01-01.
const (
	epochAsFiletime        = 116444736000000000 // FILETIME of the Unix epoch
	filetimeTicksPerSecond = 10000000
)

// filetimeToTime converts a FILETIME value to an absolute UTC timestamp.
func filetimeToTime(ft int64) time.Time {
	rel := ft - epochAsFiletime
	return time.Unix(rel/filetimeTicksPerSecond, rel%filetimeTicksPerSecond*100).UTC()
}

// SyncPoint correlates a global sample stamp with the acquisition machine's
// wall-clock time.
type SyncPoint struct {
	Stamp int32
	Time  time.Time
}

// ReadTimeSync parses the sample-stamp/absolute-time correlation stream of a
// .snc file.
func ReadTimeSync(path string) ([]SyncPoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sync file: %w", err)
	}
	if _, err := parseHeader(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var points []SyncPoint
	for pos := commonHeaderSize; pos+12 <= len(raw); pos += 12 {
		points = append(points, SyncPoint{
			Stamp: int32(binary.LittleEndian.Uint32(raw[pos:])),
			Time:  filetimeToTime(int64(binary.LittleEndian.Uint64(raw[pos+4:]))),
		})
	}
	return points, nil
}

// TimeSync maps between the sample axis and absolute time. It uses only the
// first and last sync point: a single linear rate over the whole recording.
// The sync stream holds many intermediate points, but per-point interpolation
// is deliberately not attempted; accuracy is on the order of seconds, which
// matches how the correlation is consumed.
type TimeSync struct {
	first SyncPoint
	last  SyncPoint
}

// NewTimeSync builds the correlation model from a sync point sequence.
func NewTimeSync(points []SyncPoint) (*TimeSync, error) {
	if len(points) < 2 {
		return nil, errors.New("ktlx: need at least two sync points")
	}
	first, last := points[0], points[len(points)-1]
	if !last.Time.After(first.Time) {
		return nil, errors.New("ktlx: sync points span no time")
	}
	return &TimeSync{first: first, last: last}, nil
}

// Rate returns the effective sample rate in samples per second. It can
// differ slightly from the header's nominal rate; for time correlation the
// measured rate is the accurate one.
func (ts *TimeSync) Rate() float64 {
	return float64(ts.last.Stamp-ts.first.Stamp) / ts.last.Time.Sub(ts.first.Time).Seconds()
}

// SampleAt projects an absolute time onto the sample-stamp axis, relative to
// the first sync point.
func (ts *TimeSync) SampleAt(t time.Time) float64 {
	return t.Sub(ts.first.Time).Seconds() * ts.Rate()
}

// MapVideo projects video segments onto the sample axis. firstStamp is the
// starting sample stamp of the recording's first segment, which offsets the
// stamp axis from the sample axis.
func (ts *TimeSync) MapVideo(segments []VideoSegment, firstStamp int32) []VideoSpan {
	spans := make([]VideoSpan, len(segments))
	for i, v := range segments {
		spans[i] = VideoSpan{
			FileName:    v.FileName,
			StartSample: int64(ts.SampleAt(v.StartTime) - float64(firstStamp)),
			EndSample:   int64(ts.SampleAt(v.EndTime) - float64(firstStamp)),
		}
	}
	return spans
}

// VideoSpan is a video segment projected onto the sample axis.
type VideoSpan struct {
	FileName    string
	StartSample int64
	EndSample   int64
}
