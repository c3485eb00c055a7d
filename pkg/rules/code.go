package rules

import "strings"

// NormalizeCode keeps the ASCII digits of raw, truncated to length. It mirrors
// what a pin input accepts from typing or pasting.
func NormalizeCode(raw string, length int) string {
	if length <= 0 {
		length = DefaultCodeLength
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < len(raw) && b.Len() < length; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// CodeComplete reports whether code holds exactly length digits, the point at
// which a pin input fires its completion callback.
func CodeComplete(code string, length int) bool {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return IsCode(code, length)
}
