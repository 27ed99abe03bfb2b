package ktlx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Control byte values. Bit 0 flags an external trigger during the sample
// period; anything else means the cursor has lost the sample boundary.
const (
	controlPlain   = 0x00
	controlTrigger = 0x01
)

// narrowSentinel is the schema-7 escape: a 1-byte delta of 0x80 means the
// channel's value follows out-of-band as an absolute 4-byte integer. Schema
// 8/9 use the two bytes FF FF in a 2-byte delta slot instead.
const narrowSentinel = 0x80

// DecodeSegment decodes one raw-data segment into a calibrated channel-major
// matrix. numSamples is the segment's sample span from the segment index.
//
// A segment always decodes whole: each sample's deltas depend on the decoded
// values of the sample before it, so there is no cheaper partial decode. A
// stream that ends early yields the samples decoded so far and no error; a
// malformed control byte yields ErrDesync.
func DecodeSegment(path string, numSamples int) (*Matrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segment: %w", err)
	}
	hdr, err := parseHeader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, err := decodeSamples(hdr, raw, numSamples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func decodeSamples(hdr *Header, raw []byte, numSamples int) (*Matrix, error) {
	layout := schemaLayouts[hdr.Schema]
	if layout.dataOffset == 0 {
		return nil, fmt.Errorf("%w: schema %d carries no sample payload", ErrUnsupportedSchema, hdr.Schema)
	}
	numChannels := hdr.NumChannels
	factors, err := conversionFactors(hdr.HeadboxType[0], hdr.DiscardBits, numChannels)
	if err != nil {
		return nil, err
	}

	maskLen := 0
	if layout.deltaMask {
		maskLen = (numChannels + 7) / 8
	}

	out := newMatrix(numChannels, numSamples)

	// Running per-channel state, local to this decode call. The format
	// contract delivers every channel's first sample as an absolute value,
	// so the zero initialization is never observable.
	prev := make([]int32, numChannels)
	pending := make([]int, 0, numChannels)

	pos := int(layout.dataOffset)
	sample := 0
decode:
	for ; sample < numSamples; sample++ {
		if pos >= len(raw) {
			break
		}
		ctrl := raw[pos]
		pos++
		if ctrl != controlPlain && ctrl != controlTrigger {
			return nil, fmt.Errorf("%w: control byte 0x%02x at offset %d", ErrDesync, ctrl, pos-1)
		}

		var mask []byte
		if layout.deltaMask {
			if pos+maskLen > len(raw) {
				break
			}
			mask = raw[pos : pos+maskLen]
			pos += maskLen
		}

		// Delta pass: channels escaping to an absolute value are queued and
		// resolved after the deltas, in the order they were flagged.
		pending = pending[:0]
		for c := 0; c < numChannels; c++ {
			if layout.deltaMask && mask[c/8]>>(uint(c)&7)&1 == 1 {
				if pos+2 > len(raw) {
					break decode
				}
				lo, hi := raw[pos], raw[pos+1]
				pos += 2
				if layout.wideSentinel && lo == 0xff && hi == 0xff {
					pending = append(pending, c)
					continue
				}
				prev[c] += int32(int16(uint16(lo) | uint16(hi)<<8))
			} else {
				if pos >= len(raw) {
					break decode
				}
				b := raw[pos]
				pos++
				if !layout.wideSentinel && b == narrowSentinel {
					pending = append(pending, c)
					continue
				}
				prev[c] += int32(int8(b))
			}
		}

		for _, c := range pending {
			if pos+4 > len(raw) {
				break decode
			}
			prev[c] = int32(binary.LittleEndian.Uint32(raw[pos:]))
			pos += 4
		}

		for c := 0; c < numChannels; c++ {
			out.rows[c][sample] = float64(prev[c]) * factors[c]
		}
	}

	if sample < numSamples {
		out.truncate(sample)
	}
	return out, nil
}
