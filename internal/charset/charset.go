// Package charset tells the two supported text encodings apart and measures
// character lengths inside a byte buffer.
package charset

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// SampleSize is how many leading bytes Detect looks at.
const SampleSize = 1024

type Encoding int

const (
	// ByteOriented is UTF-8 style text: ASCII is one byte, everything else
	// is a lead byte followed by continuation bytes.
	ByteOriented Encoding = iota
	// LegacyDoubleByte is GB2312/GBK style text: a high-bit lead byte pairs
	// with the following byte.
	LegacyDoubleByte
)

var bom = []byte{0xEF, 0xBB, 0xBF}

func (e Encoding) String() string {
	switch e {
	case ByteOriented:
		return "UTF-8"
	case LegacyDoubleByte:
		return "GBK"
	default:
		return "UNKNOWN"
	}
}

// Detect classifies text by its first SampleSize bytes.
func Detect(buf []byte) Encoding {
	if len(buf) >= len(bom) && buf[0] == bom[0] && buf[1] == bom[1] && buf[2] == bom[2] {
		return ByteOriented
	}
	sample := buf
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	for i := 0; i < len(sample); i++ {
		c := sample[i]
		if c < 0x80 {
			continue
		}
		if n := utf8SeqLen(sample, i); n > 1 {
			return ByteOriented
		}
		if i+1 < len(sample) && sample[i+1] >= 0x40 {
			return LegacyDoubleByte
		}
	}
	return ByteOriented
}

// utf8SeqLen returns the length of a complete, well-formed UTF-8 sequence
// starting at pos, or 0.
func utf8SeqLen(buf []byte, pos int) int {
	n := leadLen(buf[pos])
	if n < 2 || pos+n > len(buf) {
		return 0
	}
	for _, c := range buf[pos+1 : pos+n] {
		if c&0xC0 != 0x80 {
			return 0
		}
	}
	return n
}

func leadLen(c byte) int {
	switch {
	case c < 0x80:
		return 1
	case c&0xE0 == 0xC0:
		return 2
	case c&0xF0 == 0xE0:
		return 3
	case c&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}

// CharLen returns how many bytes the character at pos occupies. The result
// never runs past the end of buf and is at least 1 when pos is in range.
func (e Encoding) CharLen(buf []byte, pos int) int {
	if pos >= len(buf) {
		return 0
	}
	c := buf[pos]
	var n int
	switch e {
	case LegacyDoubleByte:
		n = 1
		if c >= 0x80 && pos+1 < len(buf) && buf[pos+1] >= 0x40 {
			n = 2
		}
	default:
		n = leadLen(c)
	}
	if pos+n > len(buf) {
		n = len(buf) - pos
	}
	return n
}

// Decode turns one character run into UTF-8 so it can be drawn with a
// regular font face.
func (e Encoding) Decode(run []byte) string {
	if e == LegacyDoubleByte {
		out, err := simplifiedchinese.GBK.NewDecoder().Bytes(run)
		if err != nil {
			return string(utf8.RuneError)
		}
		return string(out)
	}
	if !utf8.Valid(run) {
		return string(utf8.RuneError)
	}
	return string(run)
}
