package ktlx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

// vtcMarker is the fixed validation value every video record must carry.
var vtcMarker = [16]byte{
	0xff, 0xfe, 0xf8, 0x5e, 0xfc, 0xdc, 0xe5, 0x44,
	0x8f, 0xae, 0x19, 0xf5, 0xd6, 0x22, 0xb6, 0xd4,
}

const (
	// vtcDataOffset skips the leading GUID and 4 bytes of unknown purpose.
	// The .vtc file does not carry the common 352-byte header.
	vtcDataOffset = 20

	vtcNameSize   = 261
	vtcRecordSize = vtcNameSize + 16 + 8 + 8
)

// VideoSegment is one entry of the video table of contents: a video file and
// its absolute start/end times. It is independent of the sample axis until
// projected through a TimeSync.
type VideoSegment struct {
	FileName  string
	StartTime time.Time
	EndTime   time.Time
}

// ReadVideoIndex parses a .vtc video table-of-contents file.
func ReadVideoIndex(path string) ([]VideoSegment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read video index: %w", err)
	}
	if len(raw) < vtcDataOffset {
		return nil, fmt.Errorf("%s: video index truncated before first record", path)
	}

	var segments []VideoSegment
	for pos := vtcDataOffset; pos+vtcRecordSize <= len(raw); pos += vtcRecordSize {
		name := cstring(raw[pos : pos+vtcNameSize])
		marker := raw[pos+vtcNameSize : pos+vtcNameSize+16]
		if !bytes.Equal(marker, vtcMarker[:]) {
			return nil, fmt.Errorf("%s: %w: video record marker mismatch at offset %d",
				path, ErrDesync, pos+vtcNameSize)
		}
		segments = append(segments, VideoSegment{
			FileName:  name,
			StartTime: filetimeToTime(int64(binary.LittleEndian.Uint64(raw[pos+vtcNameSize+16:]))),
			EndTime:   filetimeToTime(int64(binary.LittleEndian.Uint64(raw[pos+vtcNameSize+24:]))),
		})
	}
	return segments, nil
}
