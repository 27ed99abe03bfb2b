package ktlx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeVideoIndex(t *testing.T, segments []VideoSegment) []byte {
	t.Helper()

	buf := make([]byte, vtcDataOffset) // GUID plus 4 undocumented bytes
	for _, v := range segments {
		rec := make([]byte, vtcRecordSize)
		putText(rec[0:vtcNameSize], v.FileName)
		copy(rec[vtcNameSize:], vtcMarker[:])
		putFiletime(rec[vtcNameSize+16:], v.StartTime)
		putFiletime(rec[vtcNameSize+24:], v.EndTime)
		buf = append(buf, rec...)
	}
	return buf
}

func TestReadVideoIndex(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2011, 2, 3, 9, 0, 0, 0, time.UTC)
	want := []VideoSegment{
		{FileName: "study_0001.avi", StartTime: t0, EndTime: t0.Add(30 * time.Minute)},
		{FileName: "study_0002.avi", StartTime: t0.Add(30 * time.Minute), EndTime: t0.Add(time.Hour)},
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "study.vtc", encodeVideoIndex(t, want))

	got, err := ReadVideoIndex(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadVideoIndexEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "study.vtc", encodeVideoIndex(t, nil))

	got, err := ReadVideoIndex(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadVideoIndexBadMarker(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2011, 2, 3, 9, 0, 0, 0, time.UTC)
	raw := encodeVideoIndex(t, []VideoSegment{
		{FileName: "study_0001.avi", StartTime: t0, EndTime: t0.Add(time.Minute)},
	})
	raw[vtcDataOffset+vtcNameSize] ^= 0xff // corrupt first marker byte

	dir := t.TempDir()
	path := writeFile(t, dir, "study.vtc", raw)

	_, err := ReadVideoIndex(path)
	require.ErrorIs(t, err, ErrDesync)
}

func TestReadVideoIndexTruncated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "study.vtc", make([]byte, 10))

	_, err := ReadVideoIndex(path)
	require.Error(t, err)
}
