package id3tag

import (
	"bytes"
	"fmt"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the one byte text encoding indicator that prefixes the
// text of most frame bodies.
type Encoding byte

const (
	EncodingISO88591 Encoding = 0x00 // Latin-1
	EncodingUTF16    Encoding = 0x01 // UTF-16 with byte order mark
	EncodingUTF16BE  Encoding = 0x02 // UTF-16 big-endian, no BOM
	EncodingUTF8     Encoding = 0x03
)

// Only the encoding values are shared; the UTF-16 decoders are
// stateful (BOM consumption, detected endianness) and must be
// constructed per call so concurrent decodes do not race.
var (
	utf16bom = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	utf16be  = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// resolveEncoding maps an encoding indicator to an Encoding.
// Unrecognized values resolve to UTF-8.
func resolveEncoding(b byte) Encoding {
	switch Encoding(b) {
	case EncodingISO88591, EncodingUTF16, EncodingUTF16BE:
		return Encoding(b)
	default:
		return EncodingUTF8
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingISO88591:
		return "ISO-8859-1"
	case EncodingUTF16:
		return "UTF-16"
	case EncodingUTF16BE:
		return "UTF-16BE"
	case EncodingUTF8:
		return "UTF-8"
	default:
		return fmt.Sprintf("%d", byte(e))
	}
}

// terminator returns the null terminator sequence for the encoding:
// one byte for the single byte encodings, one null code unit (two
// bytes) for the UTF-16 variants.
func (e Encoding) terminator() []byte {
	switch e {
	case EncodingUTF16, EncodingUTF16BE:
		return []byte{0, 0}
	default:
		return []byte{0}
	}
}

// toUTF8 decodes b into UTF-8, stripping a trailing terminator if
// present. Undecodable input is returned as is rather than failing;
// malformed text never aborts a tag read.
func (e Encoding) toUTF8(b []byte) []byte {
	b = trimTerminator(b, e)

	var (
		out []byte
		err error
	)
	switch e {
	case EncodingISO88591:
		out, err = charmap.ISO8859_1.NewDecoder().Bytes(b)
	case EncodingUTF16:
		out, err = utf16bom.NewDecoder().Bytes(b)
	case EncodingUTF16BE:
		out, err = utf16be.NewDecoder().Bytes(b)
	default:
		out = make([]byte, len(b))
		copy(out, b)
	}
	if err != nil {
		out = make([]byte, len(b))
		copy(out, b)
	}

	return out
}

// toISO88591 encodes UTF-8 input as Latin-1, substituting
// unrepresentable runes. Used for the fields the format pins to
// Latin-1 regardless of the frame encoding (MIME types, POPM email,
// chapter element IDs).
func toISO88591(b []byte) []byte {
	enc := xencoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	out, err := enc.Bytes(b)
	if err != nil {
		out = make([]byte, len(b))
		copy(out, b)
	}
	return out
}

func trimTerminator(b []byte, e Encoding) []byte {
	term := e.terminator()
	for bytes.HasSuffix(b, term) {
		b = b[:len(b)-len(term)]
	}
	return b
}

// splitNull splits data into its null separated segments, respecting
// the terminator width of the encoding. UTF-16 segments are split
// only on code unit aligned null pairs so that embedded high or low
// zero bytes of real characters never act as separators.
func splitNull(data []byte, e Encoding) [][]byte {
	return splitNullN(data, e, -1)
}

// splitNullN is splitNull limited to n segments; the final segment
// receives the unsplit remainder. n < 0 means no limit.
func splitNullN(data []byte, e Encoding, n int) [][]byte {
	if len(e.terminator()) == 1 {
		if n < 0 {
			return dropTrailingEmpty(bytes.Split(data, nul))
		}
		return bytes.SplitN(data, nul, n)
	}

	var (
		segments [][]byte
		prev     int
	)
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] != 0 || data[i+1] != 0 {
			continue
		}
		segments = append(segments, data[prev:i])
		prev = i + 2
		if n >= 0 && len(segments) == n-1 {
			break
		}
	}

	if prev <= len(data) {
		segments = append(segments, data[prev:])
	}

	if n < 0 {
		segments = dropTrailingEmpty(segments)
	}

	return segments
}

func dropTrailingEmpty(segments [][]byte) [][]byte {
	for len(segments) > 1 && len(segments[len(segments)-1]) == 0 {
		segments = segments[:len(segments)-1]
	}
	return segments
}
