package ktlx

import (
	"fmt"
	"strconv"
	"strings"
)

// NoteValue is one node of a structurally parsed note payload.
//
// Note payloads use an informal nested-list notation: "(." opens a keyed
// group of quoted-key/value pairs, "(" opens a plain list, scalars are quoted
// text or numbers. Not every payload follows it; whatever fails to parse is
// preserved verbatim as Raw rather than reported as an error.
type NoteValue interface {
	isNoteValue()
}

// Raw is a payload kept as unparsed text.
type Raw string

// Text is a quoted string scalar.
type Text string

// Number is a numeric scalar.
type Number float64

// List is an ordered group of values.
type List []NoteValue

// Mapping is a keyed group of values.
type Mapping map[string]NoteValue

func (Raw) isNoteValue()     {}
func (Text) isNoteValue()    {}
func (Number) isNoteValue()  {}
func (List) isNoteValue()    {}
func (Mapping) isNoteValue() {}

// ParseNoteValue parses a note payload structurally, falling back to Raw on
// any deviation from the notation.
func ParseNoteValue(s string) NoteValue {
	p := &noteParser{src: s}
	v, err := p.parseValue()
	if err != nil {
		return Raw(s)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Raw(s)
	}
	return v
}

// noteParser is a recursive-descent parser over the note notation.
type noteParser struct {
	src string
	pos int
}

func (p *noteParser) parseValue() (NoteValue, error) {
	p.skipSpace()
	switch {
	case strings.HasPrefix(p.rest(), "(."):
		return p.parseMapping()
	case p.peek() == '(':
		return p.parseList()
	case p.peek() == '"':
		return p.parseText()
	default:
		return p.parseNumber()
	}
}

func (p *noteParser) parseMapping() (NoteValue, error) {
	p.pos += 2 // consume "(."
	m := Mapping{}
	for {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			return m, nil
		}
		key, err := p.parseText()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect(','); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		m[string(key.(Text))] = v
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
		}
	}
}

func (p *noteParser) parseList() (NoteValue, error) {
	p.pos++ // consume "("
	l := List{}
	for {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			return l, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		l = append(l, v)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
		}
	}
}

func (p *noteParser) parseText() (NoteValue, error) {
	if err := p.expect('"'); err != nil {
		return nil, err
	}
	end := strings.IndexByte(p.rest(), '"')
	if end < 0 {
		return nil, fmt.Errorf("unterminated string at %d", p.pos-1)
	}
	s := p.src[p.pos : p.pos+end]
	p.pos += end + 1
	return Text(s), nil
}

func (p *noteParser) parseNumber() (NoteValue, error) {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(",() \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
	tok := p.src[start:p.pos]
	n, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number at %d: %q", start, tok)
	}
	return Number(n), nil
}

func (p *noteParser) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("expected %q at %d", c, p.pos)
	}
	p.pos++
	return nil
}

// peek returns the current byte, or 0 at end of input.
func (p *noteParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *noteParser) rest() string { return p.src[p.pos:] }

func (p *noteParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' ||
		p.src[p.pos] == '\r' || p.src[p.pos] == '\n') {
		p.pos++
	}
}
