package book

import "github.com/photonicat/epaper_reader/internal/charset"

// ParagraphMarker separates paragraphs in normalized text.
const ParagraphMarker = '\n'

func isBreak(c byte) bool { return c == '\n' || c == '\r' }

// Normalize reflows raw text into paragraphs. Runs of two or more line
// breaks become one ParagraphMarker, a single break inside a paragraph
// becomes a space, leading spaces of a paragraph are dropped and repeated
// spaces collapse. The result is never longer than raw.
func Normalize(raw []byte, enc charset.Encoding) []byte {
	out := make([]byte, 0, len(raw))
	inParagraph := false
	i := 0
	for i < len(raw) {
		c := raw[i]
		if isBreak(c) {
			breaks := 0
			for i < len(raw) && isBreak(raw[i]) {
				// CRLF and LFCR count once
				if i+1 < len(raw) && isBreak(raw[i+1]) && raw[i+1] != raw[i] {
					i += 2
				} else {
					i++
				}
				breaks++
			}
			if !inParagraph {
				continue
			}
			if breaks >= 2 {
				out = append(out, ParagraphMarker)
				inParagraph = false
			} else if out[len(out)-1] != ' ' {
				out = append(out, ' ')
			}
			continue
		}
		if c == ' ' {
			if !inParagraph || out[len(out)-1] == ' ' {
				i++
				continue
			}
		}
		n := enc.CharLen(raw, i)
		out = append(out, raw[i:i+n]...)
		i += n
		inParagraph = true
	}
	return out
}
