package calendar

import (
	"strconv"
	"strings"
)

// persianDigits is the local glyph set, indexed by ASCII digit value.
var persianDigits = [10]rune{'۰', '۱', '۲', '۳', '۴', '۵', '۶', '۷', '۸', '۹'}

// localToASCII also accepts Arabic-Indic glyphs, which users type interchangeably
// with Persian ones on most keyboards.
var localToASCII = map[rune]rune{
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

// ToLocal replaces every ASCII digit in s with its Persian glyph.
// Any other rune is copied unchanged.
func ToLocal(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(persianDigits[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToASCII is the inverse of ToLocal. Unrecognised runes pass through.
func ToASCII(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ascii, ok := localToASCII[r]; ok {
			b.WriteRune(ascii)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LocalizeInt renders n in decimal with local glyphs.
func LocalizeInt(n int) string {
	return ToLocal(strconv.Itoa(n))
}

// parseDigits reads a non-empty run of ASCII digits. Signs, spaces and any other
// byte make it fail.
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
