package effect

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseArgs extracts the signed integers from an effect argument string.
// Tokens are separated by whitespace or commas; non-numeric tokens are
// skipped.
func ParseArgs(s string) []int {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil
	}
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
