// Package uax31 implements the slice of Unicode support the textual
// grammar front-end needs: UTF-8 validation, UAX #31 identifier
// start/continue classification, digit/space classification, and NFC
// normalization of identifiers at ingestion. It deliberately does not
// implement the rest of a general Unicode subsystem (normalization of
// arbitrary text, string truncation helpers, segmentation) — those are out
// of scope per the engine's specification; only what the grammar
// description lexer needs lives here.
package uax31

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ValidateUTF8 scans s for well-formed UTF-8. It returns -1 if s is valid,
// or the byte offset of the first invalid sequence.
func ValidateUTF8(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

// IsIdentStart reports whether r may begin an identifier under UAX #31:
// letters and letter numbers (categories L*, Nl), plus '_'.
func IsIdentStart(r rune) bool {
	return unicode.In(r, unicode.L, unicode.Nl) || r == '_'
}

// IsIdentContinue reports whether r may continue an identifier: identifier
// starters plus combining marks (Mn, Mc), decimal digits (Nd), and
// connector punctuation (Pc).
func IsIdentContinue(r rune) bool {
	return IsIdentStart(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc)
}

// IsSpace reports whether r is whitespace the grammar-description lexer
// should skip between tokens.
func IsSpace(r rune) bool {
	return unicode.IsSpace(r)
}

// DigitScript identifies which decimal-digit range a rune's numeral
// belongs to, used to reject mixed-script numeric literals (§4.3: "mixed
// script numeric literals are rejected"). It returns the rune's digit
// value's "zero" codepoint (e.g. '0' for ASCII digits), or -1 if r is not
// a decimal digit.
func DigitScript(r rune) rune {
	if !unicode.IsDigit(r) {
		return -1
	}
	// unicode.Nd ranges are contiguous runs of 10 code points per script;
	// round r down to its run's zero by the digit's value.
	for _, rt := range unicode.Nd.R16 {
		if uint16(r) >= rt.Lo && uint16(r) <= rt.Hi {
			offset := (uint16(r) - rt.Lo) % 10
			return r - rune(offset)
		}
	}
	for _, rt := range unicode.Nd.R32 {
		if uint32(r) >= rt.Lo && uint32(r) <= rt.Hi {
			offset := (uint32(r) - rt.Lo) % 10
			return r - rune(offset)
		}
	}
	return -1
}

// DigitValue returns the decimal value (0-9) of digit rune r, assuming
// IsDigit(r, within the same script) — callers should have already
// checked DigitScript consistency.
func DigitValue(r rune) int {
	zero := DigitScript(r)
	if zero < 0 {
		return -1
	}
	return int(r - zero)
}

// NFC canonicalizes s to Unicode Normalization Form C, as required at
// symbol ingestion so that canonical-equivalent declarations collide into
// a single symbol (§4.3).
func NFC(s string) string {
	return norm.NFC.String(s)
}
