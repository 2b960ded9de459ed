// Package mutf8 implements the modified UTF-8 encoding used by the
// native interface for all text crossing the call-table boundary.
//
// Modified UTF-8 differs from standard UTF-8 in two ways:
//
//   - U+0000 is encoded as the two-byte sequence C0 80, so encoded
//     text never contains a raw NUL byte and can be passed through
//     NUL-terminated C APIs.
//   - Characters outside the Basic Multilingual Plane are encoded as
//     a UTF-16 surrogate pair, each surrogate written as its own
//     three-byte sequence (six bytes total, CESU-8 style).
//
// Encoder and Decoder implement golang.org/x/text/transform.Transformer
// for streaming conversion.
package mutf8
