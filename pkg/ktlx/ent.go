package ktlx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
)

const noteHeaderSize = 16

// NoteRecord is one annotation from a .ent notes file. Value is the
// structurally parsed payload, or Raw text when the payload does not follow
// the nested-list notation (the montage note never does).
type NoteRecord struct {
	Type       int32
	Length     int32
	PrevLength int32
	Value      NoteValue
}

// ReadNotes parses the annotation records of a .ent file. The sequence ends
// at a record of type 0; a stream that opens with the terminator is a valid
// empty sequence.
func ReadNotes(path string) ([]NoteRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notes file: %w", err)
	}
	if _, err := parseHeader(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var notes []NoteRecord
	pos := commonHeaderSize
	for pos+noteHeaderSize <= len(raw) {
		typ := int32(binary.LittleEndian.Uint32(raw[pos:]))
		if typ == 0 {
			break
		}
		length := int32(binary.LittleEndian.Uint32(raw[pos+4:]))
		prevLength := int32(binary.LittleEndian.Uint32(raw[pos+8:]))
		if length < noteHeaderSize {
			return nil, fmt.Errorf("%s: %w: note length %d at offset %d", path, ErrDesync, length, pos)
		}
		if pos+int(length) > len(raw) {
			break // truncated trailing record
		}

		payload := raw[pos+noteHeaderSize : pos+int(length)]
		if len(payload) >= 2 {
			payload = payload[:len(payload)-2] // trailing pad
		}
		notes = append(notes, NoteRecord{
			Type:       typ,
			Length:     length,
			PrevLength: prevLength,
			Value:      ParseNoteValue(string(payload)),
		})
		pos += int(length)
	}
	return notes, nil
}

// FindChannelNames extracts the channel-name list from a note's raw text.
// The montage note is too irregular for the structural parser, but the names
// always sit in a ChanNames(...) group, so they are pulled out textually.
func FindChannelNames(note string) ([]string, error) {
	i := strings.Index(note, "ChanNames")
	if i < 0 {
		return nil, errors.New("ktlx: no ChanNames marker in note")
	}
	open := strings.IndexByte(note[i:], '(')
	if open < 0 {
		return nil, errors.New("ktlx: ChanNames group not opened")
	}
	open += i
	end := strings.IndexByte(note[open:], ')')
	if end < 0 {
		return nil, errors.New("ktlx: ChanNames group not closed")
	}
	if strings.TrimSpace(note[open+1:open+end]) == "" {
		return nil, errors.New("ktlx: ChanNames group is empty")
	}

	var names []string
	for _, tok := range strings.Split(note[open+1:open+end], ",") {
		names = append(names, strings.Trim(tok, `" `))
	}
	return names, nil
}
