package ktlx

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// encodeHeader builds the on-disk header region for h, sized by its schema:
// 352 bytes for schema 1, 4560 for schema 7, 8656 for schema 8/9. The write
// path is not part of the library, so tests carry their own encoder; it also
// backs the header round-trip property.
func encodeHeader(t *testing.T, h *Header) []byte {
	t.Helper()

	layout, ok := schemaLayouts[h.Schema]
	if !ok {
		t.Fatalf("encodeHeader: unsupported schema %d", h.Schema)
	}

	size := commonHeaderSize
	if layout.extendedHeader {
		size = headboxBlockOffset + 96
	}
	if layout.channelTables {
		size += 2 * 2 * maxHardwareChannels
	}
	buf := make([]byte, size)

	copy(buf[0:16], h.GUID[:])
	binary.LittleEndian.PutUint16(buf[16:], h.Schema)
	binary.LittleEndian.PutUint16(buf[18:], h.BaseSchema)
	binary.LittleEndian.PutUint32(buf[20:], uint32(h.CreationTime.Unix()))
	binary.LittleEndian.PutUint32(buf[24:], uint32(h.PatientRecordID))
	binary.LittleEndian.PutUint32(buf[28:], uint32(h.StudyID))
	putText(buf[32:112], h.PatientLastName)
	putText(buf[112:192], h.PatientFirstName)
	putText(buf[192:272], h.PatientMiddleName)
	putText(buf[272:352], h.PatientID)

	if !layout.extendedHeader {
		return buf
	}

	binary.LittleEndian.PutUint64(buf[352:], math.Float64bits(h.SampleRate))
	binary.LittleEndian.PutUint32(buf[360:], uint32(h.NumChannels))
	binary.LittleEndian.PutUint32(buf[364:], uint32(h.DeltaBits))
	for i, pc := range h.PhysicalChannels {
		binary.LittleEndian.PutUint32(buf[368+i*4:], uint32(pc))
	}

	hb := buf[headboxBlockOffset:]
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(hb[i*4:], uint32(h.HeadboxType[i]))
		binary.LittleEndian.PutUint32(hb[16+i*4:], uint32(h.HeadboxSerial[i]))
	}
	putText(hb[32:72], h.HeadboxSoftware)
	putText(hb[72:82], h.DSPHardwareVersion)
	putText(hb[82:92], h.DSPSoftwareVersion)
	binary.LittleEndian.PutUint32(hb[92:], uint32(h.DiscardBits))

	if !layout.channelTables {
		return buf
	}

	tables := buf[headboxBlockOffset+96:]
	for i, v := range h.Shorted {
		binary.LittleEndian.PutUint16(tables[i*2:], uint16(v))
	}
	for i, v := range h.FrequencyFactors {
		binary.LittleEndian.PutUint16(tables[2*maxHardwareChannels+i*2:], uint16(v))
	}
	return buf
}

func putText(dst []byte, s string) {
	copy(dst, s) // fields are zeroed, so shorter text stays null-terminated
}

// testHeader returns a schema-9 header for a small 4-channel recording on
// standard amplifier hardware.
func testHeader() *Header {
	h := &Header{
		GUID:               [16]byte{0xde, 0xad, 0xbe, 0xef, 4: 1, 15: 9},
		Schema:             9,
		BaseSchema:         1,
		CreationTime:       time.Unix(1400000000, 0).UTC(),
		PatientRecordID:    7,
		StudyID:            12,
		PatientLastName:    "Doe",
		PatientFirstName:   "Jane",
		PatientID:          "XLT-0042",
		SampleRate:         512,
		NumChannels:        4,
		DeltaBits:          8,
		PhysicalChannels:   []int32{0, 1, 2, 3},
		HeadboxType:        [4]int32{1, 0, 0, 0},
		HeadboxSerial:      [4]int32{1234, 0, 0, 0},
		HeadboxSoftware:    "1.0.2.3",
		DSPHardwareVersion: "3",
		DSPSoftwareVersion: "5.1",
		DiscardBits:        0,
		Shorted:            []int16{0, 0, 0, 0},
		FrequencyFactors:   []int16{0, 0, 0, 0},
	}
	return h
}

// encodeIndex builds a .stc file: a schema-1 common header followed by the
// table header and fixed-size entries.
func encodeIndex(t *testing.T, entries []SegmentEntry) []byte {
	t.Helper()

	hdr := &Header{Schema: 1, BaseSchema: 1, CreationTime: time.Unix(1400000000, 0)}
	buf := encodeHeader(t, hdr)

	table := make([]byte, stcHeaderSize+len(entries)*stcEntrySize)
	binary.LittleEndian.PutUint32(table[0:], uint32(0))          // next segment
	binary.LittleEndian.PutUint32(table[4:], uint32(1))          // final
	for i, e := range entries {
		rec := table[stcHeaderSize+i*stcEntrySize:]
		putText(rec[0:256], e.Name)
		binary.LittleEndian.PutUint32(rec[256:], uint32(e.StartStamp))
		binary.LittleEndian.PutUint32(rec[260:], uint32(e.EndStamp))
		binary.LittleEndian.PutUint32(rec[264:], uint32(e.SampleNum))
		binary.LittleEndian.PutUint32(rec[268:], uint32(e.SampleSpan))
	}
	return append(buf, table...)
}

// sampleWriter appends delta-coded samples to an .erd payload in the layout
// of the segment's schema.
type sampleWriter struct {
	layout schemaLayout
	buf    []byte
}

func newSampleWriter(schema uint16) *sampleWriter {
	return &sampleWriter{layout: schemaLayouts[schema]}
}

func (w *sampleWriter) control(b byte) *sampleWriter {
	w.buf = append(w.buf, b)
	return w
}

func (w *sampleWriter) mask(bits ...byte) *sampleWriter {
	w.buf = append(w.buf, bits...)
	return w
}

func (w *sampleWriter) delta8(v int8) *sampleWriter {
	w.buf = append(w.buf, byte(v))
	return w
}

func (w *sampleWriter) delta16(v int16) *sampleWriter {
	w.buf = append(w.buf, byte(v), byte(uint16(v)>>8))
	return w
}

func (w *sampleWriter) sentinel() *sampleWriter {
	if w.layout.wideSentinel {
		w.buf = append(w.buf, 0xff, 0xff)
	} else {
		w.buf = append(w.buf, narrowSentinel)
	}
	return w
}

func (w *sampleWriter) absolute(v int32) *sampleWriter {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
	return w
}

// writeSegment writes a complete .erd file for hdr with the given payload.
func writeSegment(t *testing.T, dir, name string, hdr *Header, payload []byte) string {
	t.Helper()

	raw := append(encodeHeader(t, hdr), payload...)
	path := filepath.Join(dir, name+".erd")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func writeFile(t *testing.T, dir, name string, raw []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// filetime converts a time to the Windows FILETIME tick count.
func filetime(ts time.Time) int64 {
	return ts.Unix()*filetimeTicksPerSecond + int64(ts.Nanosecond()/100) + epochAsFiletime
}

func putFiletime(dst []byte, ts time.Time) {
	binary.LittleEndian.PutUint64(dst, uint64(filetime(ts)))
}
