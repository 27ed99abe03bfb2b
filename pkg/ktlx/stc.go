package ktlx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
)

const (
	stcHeaderSize = 56  // next-table pointer, final flag, 12 ints of padding
	stcEntrySize  = 272 // 256-byte name plus four int32 fields
)

// SegmentEntry describes one raw-data/table-of-contents file pair. Entries
// appear in on-disk order, which is chronological order.
type SegmentEntry struct {
	// Name is the segment's base file name, without extension.
	Name string

	// StartStamp and EndStamp are the first and last global sample stamps
	// covered by the segment.
	StartStamp int32
	EndStamp   int32

	// SampleNum is the number of samples recorded before this segment's
	// StartStamp; it accumulates across segments.
	SampleNum int32

	// SampleSpan is the number of samples the segment holds.
	SampleSpan int32
}

// SegmentIndex is the parsed segment table of contents of a recording. Raw
// data is split into bounded-size segments; the index maps global sample
// positions onto them.
type SegmentIndex struct {
	NextSegment int32
	Final       int32
	Padding     [12]int32

	Entries []SegmentEntry

	// starts[i] is the number of samples preceding entry i; the final extra
	// element is the recording total.
	starts []int64
}

// ReadIndex parses a segment table-of-contents file.
func ReadIndex(path string) (*SegmentIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if _, err := parseHeader(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(raw) < commonHeaderSize+stcHeaderSize {
		return nil, fmt.Errorf("%s: index truncated before table header", path)
	}

	idx := &SegmentIndex{}
	pos := commonHeaderSize
	idx.NextSegment = int32(binary.LittleEndian.Uint32(raw[pos:]))
	idx.Final = int32(binary.LittleEndian.Uint32(raw[pos+4:]))
	for i := range idx.Padding {
		idx.Padding[i] = int32(binary.LittleEndian.Uint32(raw[pos+8+i*4:]))
	}
	pos += stcHeaderSize

	for pos+stcEntrySize <= len(raw) {
		idx.Entries = append(idx.Entries, SegmentEntry{
			Name:       cstring(raw[pos : pos+256]),
			StartStamp: int32(binary.LittleEndian.Uint32(raw[pos+256:])),
			EndStamp:   int32(binary.LittleEndian.Uint32(raw[pos+260:])),
			SampleNum:  int32(binary.LittleEndian.Uint32(raw[pos+264:])),
			SampleSpan: int32(binary.LittleEndian.Uint32(raw[pos+268:])),
		})
		pos += stcEntrySize
	}

	idx.starts = make([]int64, len(idx.Entries)+1)
	for i, e := range idx.Entries {
		idx.starts[i+1] = idx.starts[i] + int64(e.SampleSpan)
	}
	return idx, nil
}

// TotalSamples returns the sample count across every segment.
func (x *SegmentIndex) TotalSamples() int64 {
	return x.starts[len(x.starts)-1]
}

// Locate resolves a global sample position to its segment and the local
// offset within that segment, using range-start (inclusive) semantics.
func (x *SegmentIndex) Locate(sample int64) (segment int, offset int64, err error) {
	segment, err = x.locateStart(sample)
	if err != nil {
		return 0, 0, err
	}
	return segment, sample - x.starts[segment], nil
}

// locateStart returns the rightmost entry whose cumulative start is <= the
// target: the segment holding the first sample of a range.
func (x *SegmentIndex) locateStart(sample int64) (int, error) {
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > sample }) - 1
	if i < 0 || i >= len(x.Entries) || sample >= x.TotalSamples() {
		return 0, fmt.Errorf("%w: sample %d of %d", ErrOutOfRange, sample, x.TotalSamples())
	}
	return i, nil
}

// locateEnd returns the rightmost entry whose cumulative start is < the
// target: the segment holding the last sample of an exclusive-end range.
func (x *SegmentIndex) locateEnd(sample int64) (int, error) {
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] >= sample }) - 1
	if i < 0 || i >= len(x.Entries) || sample > x.TotalSamples() {
		return 0, fmt.Errorf("%w: sample %d of %d", ErrOutOfRange, sample, x.TotalSamples())
	}
	return i, nil
}
