package mutf8

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	surrSelf = 0x10000
	maxBMP   = 0xFFFF
)

// SyntaxError reports malformed modified UTF-8 input.
type SyntaxError struct {
	Offset int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("mutf8: malformed sequence at byte %d", e.Offset)
}

// EncodedLen returns the number of bytes Encode would produce for s.
func EncodedLen(s string) int {
	n := 0
	for _, r := range s {
		n += runeLen(r)
	}
	return n
}

func runeLen(r rune) int {
	switch {
	case r == 0:
		return 2
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r <= maxBMP:
		return 3
	default:
		return 6 // surrogate pair, three bytes each
	}
}

// Encode converts s to modified UTF-8.
func Encode(s string) []byte {
	return AppendEncode(make([]byte, 0, EncodedLen(s)), s)
}

// EncodeNul converts s to modified UTF-8 and appends a terminating
// NUL byte. The terminator is the only raw NUL in the result.
func EncodeNul(s string) []byte {
	b := AppendEncode(make([]byte, 0, EncodedLen(s)+1), s)
	return append(b, 0)
}

// AppendEncode appends the modified UTF-8 encoding of s to dst.
func AppendEncode(dst []byte, s string) []byte {
	for _, r := range s {
		dst = appendRune(dst, r)
	}
	return dst
}

func appendRune(dst []byte, r rune) []byte {
	switch {
	case r == 0:
		return append(dst, 0xC0, 0x80)
	case r < 0x80:
		return append(dst, byte(r))
	case r < 0x800:
		return append(dst, 0xC0|byte(r>>6), 0x80|byte(r)&0x3F)
	case r <= maxBMP:
		return appendBMP(dst, uint16(r))
	default:
		r1, r2 := utf16.EncodeRune(r)
		dst = appendBMP(dst, uint16(r1))
		return appendBMP(dst, uint16(r2))
	}
}

func appendBMP(dst []byte, u uint16) []byte {
	return append(dst, 0xE0|byte(u>>12), 0x80|byte(u>>6)&0x3F, 0x80|byte(u)&0x3F)
}

// Decode converts modified UTF-8 bytes to a Go string. It rejects raw
// NUL bytes, overlong sequences other than C0 80, and unpaired
// surrogates.
func Decode(b []byte) (string, error) {
	out := make([]byte, 0, len(b))
	i := 0
	for i < len(b) {
		r, size, err := decodeRune(b, i)
		if err != nil {
			return "", err
		}
		out = utf8.AppendRune(out, r)
		i += size
	}
	return string(out), nil
}

// DecodeNul decodes a NUL-terminated modified UTF-8 buffer. A single
// trailing NUL terminator is stripped before decoding; the terminator
// is required.
func DecodeNul(b []byte) (string, error) {
	if len(b) == 0 || b[len(b)-1] != 0 {
		return "", &SyntaxError{Offset: len(b)}
	}
	return Decode(b[:len(b)-1])
}

// decodeRune decodes one character starting at b[i], consuming one
// full surrogate pair when the lead sequence is a high surrogate.
func decodeRune(b []byte, i int) (rune, int, error) {
	b0 := b[i]
	switch {
	case b0 == 0:
		// Raw NUL never appears in well-formed modified UTF-8.
		return 0, 0, &SyntaxError{Offset: i}
	case b0 < 0x80:
		return rune(b0), 1, nil
	case b0&0xE0 == 0xC0:
		if i+1 >= len(b) || !isCont(b[i+1]) {
			return 0, 0, &SyntaxError{Offset: i}
		}
		r := rune(b0&0x1F)<<6 | rune(b[i+1]&0x3F)
		if r == 0 {
			return 0, 2, nil // the sanctioned C0 80 overlong
		}
		if r < 0x80 {
			return 0, 0, &SyntaxError{Offset: i}
		}
		return r, 2, nil
	case b0&0xF0 == 0xE0:
		if i+2 >= len(b) || !isCont(b[i+1]) || !isCont(b[i+2]) {
			return 0, 0, &SyntaxError{Offset: i}
		}
		r := rune(b0&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
		if r < 0x800 {
			return 0, 0, &SyntaxError{Offset: i}
		}
		if utf16.IsSurrogate(r) {
			return decodeSurrogatePair(b, i, r)
		}
		return r, 3, nil
	default:
		// Four-byte standard UTF-8 lead bytes do not occur in
		// modified UTF-8.
		return 0, 0, &SyntaxError{Offset: i}
	}
}

func decodeSurrogatePair(b []byte, i int, hi rune) (rune, int, error) {
	if hi >= 0xDC00 {
		// Low surrogate without a preceding high surrogate.
		return 0, 0, &SyntaxError{Offset: i}
	}
	j := i + 3
	if j+2 >= len(b) || b[j]&0xF0 != 0xE0 || !isCont(b[j+1]) || !isCont(b[j+2]) {
		return 0, 0, &SyntaxError{Offset: i}
	}
	lo := rune(b[j]&0x0F)<<12 | rune(b[j+1]&0x3F)<<6 | rune(b[j+2]&0x3F)
	if lo < 0xDC00 || lo > 0xDFFF {
		return 0, 0, &SyntaxError{Offset: i}
	}
	r := utf16.DecodeRune(hi, lo)
	if r == utf8.RuneError {
		return 0, 0, &SyntaxError{Offset: i}
	}
	return r, 6, nil
}

func isCont(b byte) bool { return b&0xC0 == 0x80 }

// UTF16Len returns the number of UTF-16 code units needed for s. This
// is the "code-unit count" the native string length query reports, as
// opposed to the encoded-byte count EncodedLen reports.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= surrSelf {
			n += 2
		} else {
			n++
		}
	}
	return n
}
