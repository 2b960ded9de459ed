package mutf8

import (
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// Encoder is a transform.Transformer converting UTF-8 to modified
// UTF-8. It is stateless and safe to reuse after Reset.
type Encoder struct{}

var _ transform.Transformer = Encoder{}

// Transform implements transform.Transformer.
func (Encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			// Malformed input byte: pass through the replacement
			// character, matching utf8 decoding conventions.
			r = utf8.RuneError
			size = 1
		}
		if nDst+runeLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst = len(appendRune(dst[:nDst], r))
		nSrc += size
	}
	return nDst, nSrc, nil
}

// Reset implements transform.Transformer.
func (Encoder) Reset() {}

// Decoder is a transform.Transformer converting modified UTF-8 to
// UTF-8. Malformed input terminates the transform with a SyntaxError.
type Decoder struct{}

var _ transform.Transformer = Decoder{}

// Transform implements transform.Transformer.
func (Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size, derr := decodeRune(src, nSrc)
		if derr != nil {
			if !atEOF && incomplete(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			return nDst, nSrc, derr
		}
		if nDst+utf8.RuneLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst = len(utf8.AppendRune(dst[:nDst], r))
		nSrc += size
	}
	return nDst, nSrc, nil
}

// Reset implements transform.Transformer.
func (Decoder) Reset() {}

// incomplete reports whether b is shorter than the sequence its lead
// byte announces, so that a streaming decoder should wait for more
// input. Byte-level validity is left to decodeRune once the sequence
// is complete.
func incomplete(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	b0 := b[0]
	need := 1
	switch {
	case b0 < 0x80:
		return false
	case b0&0xE0 == 0xC0:
		need = 2
	case b0&0xF0 == 0xE0:
		need = 3
		// A high surrogate needs its partner triple too.
		if len(b) >= 2 && b0 == 0xED && b[1]&0xF0 == 0xA0 {
			need = 6
		}
	default:
		return false
	}
	return len(b) < need
}
