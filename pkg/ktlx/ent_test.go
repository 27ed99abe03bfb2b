package ktlx

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noteRecord encodes one annotation: 16-byte record header, payload text, two
// bytes of padding.
func noteRecord(typ int32, payload string, prevLength int32) []byte {
	length := noteHeaderSize + len(payload) + 2
	b := make([]byte, length)
	binary.LittleEndian.PutUint32(b[0:], uint32(typ))
	binary.LittleEndian.PutUint32(b[4:], uint32(length))
	binary.LittleEndian.PutUint32(b[8:], uint32(prevLength))
	copy(b[noteHeaderSize:], payload)
	return b
}

func encodeNotes(t *testing.T, payloads ...string) []byte {
	t.Helper()

	hdr := &Header{Schema: 1, BaseSchema: 1, CreationTime: time.Unix(1400000000, 0)}
	buf := encodeHeader(t, hdr)
	prev := int32(0)
	for _, p := range payloads {
		rec := noteRecord(1, p, prev)
		prev = int32(len(rec))
		buf = append(buf, rec...)
	}
	return append(buf, make([]byte, noteHeaderSize)...) // type-0 terminator
}

func TestReadNotes(t *testing.T) {
	t.Parallel()

	structured := `(."Text", "Seizure onset", "Stamp", 1234, "Data", (."User", "nurse"))`
	montage := `Montage v2 ChanNames("Fp1", "Fp2", "C3") Unparsed trailer ((`

	dir := t.TempDir()
	path := writeFile(t, dir, "study.ent", encodeNotes(t, structured, montage))

	notes, err := ReadNotes(path)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	m, ok := notes[0].Value.(Mapping)
	require.True(t, ok, "structured note should parse as a mapping")
	assert.Equal(t, Text("Seizure onset"), m["Text"])
	assert.Equal(t, Number(1234), m["Stamp"])
	nested, ok := m["Data"].(Mapping)
	require.True(t, ok)
	assert.Equal(t, Text("nurse"), nested["User"])

	// The montage note never follows the notation; it stays raw text.
	raw, ok := notes[1].Value.(Raw)
	require.True(t, ok)
	assert.Equal(t, montage, string(raw))

	assert.Equal(t, int32(0), notes[0].PrevLength)
	assert.Equal(t, notes[0].Length, notes[1].PrevLength)
}

func TestReadNotesEmptySequence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "study.ent", encodeNotes(t))

	notes, err := ReadNotes(path)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestReadNotesTruncatedTrailingRecord(t *testing.T) {
	t.Parallel()

	raw := encodeNotes(t, `"first"`)
	// A record header claiming more payload than the file holds: the record
	// is dropped, everything before it survives.
	raw = append(raw[:len(raw)-noteHeaderSize], noteRecord(1, "this payload is cut", 0)[:noteHeaderSize+4]...)

	dir := t.TempDir()
	path := writeFile(t, dir, "study.ent", raw)

	notes, err := ReadNotes(path)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, Text("first"), notes[0].Value)
}

func TestReadNotesBadLength(t *testing.T) {
	t.Parallel()

	hdr := &Header{Schema: 1, BaseSchema: 1, CreationTime: time.Unix(1400000000, 0)}
	raw := encodeHeader(t, hdr)
	bad := make([]byte, noteHeaderSize)
	binary.LittleEndian.PutUint32(bad[0:], 1)
	binary.LittleEndian.PutUint32(bad[4:], 8) // shorter than its own header
	raw = append(raw, bad...)

	dir := t.TempDir()
	path := writeFile(t, dir, "study.ent", raw)

	_, err := ReadNotes(path)
	require.ErrorIs(t, err, ErrDesync)
}

func TestFindChannelNames(t *testing.T) {
	t.Parallel()

	names, err := FindChannelNames(`prefix ChanNames("Fp1", "Fp2", "C3", "C4") suffix`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fp1", "Fp2", "C3", "C4"}, names)

	_, err = FindChannelNames("no channel list here")
	require.Error(t, err)

	_, err = FindChannelNames(`ChanNames("Fp1", "Fp2"`)
	require.Error(t, err)

	// An empty group carries no names; it must not yield [""].
	_, err = FindChannelNames("ChanNames()")
	require.Error(t, err)
	_, err = FindChannelNames("ChanNames( )")
	require.Error(t, err)
}
