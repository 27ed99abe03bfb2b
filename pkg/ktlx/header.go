package ktlx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

const (
	// commonHeaderSize is the fixed region shared by every header-bearing
	// KTLX file (.erd, .etc, .stc, .snc, .ent).
	commonHeaderSize = 352

	// headboxBlockOffset is the absolute offset of the headbox/discard-bits
	// block in schema >= 7 headers, past the variable-length channel map.
	headboxBlockOffset = 4464

	// maxHardwareChannels is the channel capacity the fixed per-channel
	// tables are dimensioned for.
	maxHardwareChannels = 1024
)

// schemaLayout describes everything that varies between file schema versions:
// which header blocks are present, where a raw-data segment's sample payload
// starts, and how the delta escape sentinel is encoded.
type schemaLayout struct {
	extendedHeader bool  // sample rate, channel map and headbox block present
	channelTables  bool  // fixed shorted/frequency-factor tables present
	dataOffset     int64 // sample payload start in .erd files, 0 = no payload
	deltaMask      bool  // per-sample width bitmask precedes the deltas
	wideSentinel   bool  // escape is the two bytes FF FF instead of 0x80
}

// schemaLayouts is the supported schema set. Parsing dispatches on this
// table; an unknown version fails hard with ErrUnsupportedSchema.
var schemaLayouts = map[uint16]schemaLayout{
	1: {},
	7: {extendedHeader: true, dataOffset: 4560},
	8: {extendedHeader: true, channelTables: true, dataOffset: 8656, deltaMask: true, wideSentinel: true},
	9: {extendedHeader: true, channelTables: true, dataOffset: 8656, deltaMask: true, wideSentinel: true},
}

// Header holds the parsed header of one KTLX file. It is immutable after
// parsing. Fields past the common region are only populated for schema >= 7;
// the per-channel tables only for schema >= 8.
type Header struct {
	GUID       [16]byte
	Schema     uint16
	BaseSchema uint16

	CreationTime      time.Time
	PatientRecordID   int32
	StudyID           int32
	PatientLastName   string
	PatientFirstName  string
	PatientMiddleName string
	PatientID         string

	SampleRate       float64
	NumChannels      int
	DeltaBits        int32
	PhysicalChannels []int32

	HeadboxType        [4]int32
	HeadboxSerial      [4]int32
	HeadboxSoftware    string
	DSPHardwareVersion string
	DSPSoftwareVersion string
	DiscardBits        int32

	// Shorted and FrequencyFactors are truncated to NumChannels entries;
	// the on-disk tables are padded to maxHardwareChannels.
	Shorted          []int16
	FrequencyFactors []int16
}

// ReadHeader parses the header of one KTLX file.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open header file: %w", err)
	}
	defer f.Close()

	hdr, err := parseHeader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hdr, nil
}

func parseHeader(r io.ReadSeeker) (*Header, error) {
	buf := make([]byte, commonHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read common header: %w", err)
	}

	hdr := &Header{}
	copy(hdr.GUID[:], buf[0:16])

	hdr.Schema = binary.LittleEndian.Uint16(buf[16:18])
	layout, ok := schemaLayouts[hdr.Schema]
	if !ok {
		return nil, fmt.Errorf("%w: file schema %d", ErrUnsupportedSchema, hdr.Schema)
	}
	hdr.BaseSchema = binary.LittleEndian.Uint16(buf[18:20])
	if hdr.BaseSchema != 1 {
		return nil, fmt.Errorf("%w: base schema %d", ErrUnsupportedSchema, hdr.BaseSchema)
	}

	hdr.CreationTime = time.Unix(int64(int32(binary.LittleEndian.Uint32(buf[20:24]))), 0).UTC()
	hdr.PatientRecordID = int32(binary.LittleEndian.Uint32(buf[24:28]))
	hdr.StudyID = int32(binary.LittleEndian.Uint32(buf[28:32]))
	hdr.PatientLastName = cstring(buf[32:112])
	hdr.PatientFirstName = cstring(buf[112:192])
	hdr.PatientMiddleName = cstring(buf[192:272])
	hdr.PatientID = cstring(buf[272:352])

	if !layout.extendedHeader {
		return hdr, nil
	}

	ext := make([]byte, 16)
	if _, err := io.ReadFull(r, ext); err != nil {
		return nil, fmt.Errorf("read extended header: %w", err)
	}
	hdr.SampleRate = math.Float64frombits(binary.LittleEndian.Uint64(ext[0:8]))
	numChannels := int(int32(binary.LittleEndian.Uint32(ext[8:12])))
	if numChannels < 0 || numChannels > maxHardwareChannels {
		return nil, fmt.Errorf("channel count %d outside 0..%d", numChannels, maxHardwareChannels)
	}
	hdr.NumChannels = numChannels
	hdr.DeltaBits = int32(binary.LittleEndian.Uint32(ext[12:16]))

	chanMap := make([]byte, 4*numChannels)
	if _, err := io.ReadFull(r, chanMap); err != nil {
		return nil, fmt.Errorf("read channel map: %w", err)
	}
	hdr.PhysicalChannels = make([]int32, numChannels)
	for i := range hdr.PhysicalChannels {
		hdr.PhysicalChannels[i] = int32(binary.LittleEndian.Uint32(chanMap[i*4:]))
	}

	if _, err := r.Seek(headboxBlockOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek headbox block: %w", err)
	}
	hb := make([]byte, 96)
	if _, err := io.ReadFull(r, hb); err != nil {
		return nil, fmt.Errorf("read headbox block: %w", err)
	}
	for i := 0; i < 4; i++ {
		hdr.HeadboxType[i] = int32(binary.LittleEndian.Uint32(hb[i*4:]))
		hdr.HeadboxSerial[i] = int32(binary.LittleEndian.Uint32(hb[16+i*4:]))
	}
	hdr.HeadboxSoftware = cstring(hb[32:72])
	hdr.DSPHardwareVersion = cstring(hb[72:82])
	hdr.DSPSoftwareVersion = cstring(hb[82:92])
	hdr.DiscardBits = int32(binary.LittleEndian.Uint32(hb[92:96]))

	if !layout.channelTables {
		return hdr, nil
	}

	tables := make([]byte, 2*2*maxHardwareChannels)
	if _, err := io.ReadFull(r, tables); err != nil {
		return nil, fmt.Errorf("read channel tables: %w", err)
	}
	hdr.Shorted = make([]int16, numChannels)
	hdr.FrequencyFactors = make([]int16, numChannels)
	for i := 0; i < numChannels; i++ {
		hdr.Shorted[i] = int16(binary.LittleEndian.Uint16(tables[i*2:]))
		hdr.FrequencyFactors[i] = int16(binary.LittleEndian.Uint16(tables[2*maxHardwareChannels+i*2:]))
	}
	return hdr, nil
}

// cstring decodes a fixed-width null-terminated text field.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
