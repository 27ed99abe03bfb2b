package ktlx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// ETCInfo is the raw trailer of an .etc sidecar file. The format description
// gives no semantics for these fields; they are surfaced exactly as read,
// without interpretation.
type ETCInfo struct {
	V1 int32
	V2 int32
	V3 int32 // observed to always be zero
	V4 [2]int16
}

// ReadETC reads the undocumented block of an .etc file.
func ReadETC(path string) (*ETCInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read etc file: %w", err)
	}
	if _, err := parseHeader(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(raw) < commonHeaderSize+16 {
		return nil, fmt.Errorf("%s: etc truncated", path)
	}

	b := raw[commonHeaderSize:]
	return &ETCInfo{
		V1: int32(binary.LittleEndian.Uint32(b[0:])),
		V2: int32(binary.LittleEndian.Uint32(b[4:])),
		V3: int32(binary.LittleEndian.Uint32(b[8:])),
		V4: [2]int16{
			int16(binary.LittleEndian.Uint16(b[12:])),
			int16(binary.LittleEndian.Uint16(b[14:])),
		},
	}, nil
}
