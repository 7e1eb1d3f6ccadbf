package util

import (
	"fmt"
	"strings"
)

// JoinString renders elems separated by sep, like strings.Join but for Stringers.
func JoinString[T fmt.Stringer](elems []T, sep string) string {
	sb := strings.Builder{}
	for i, elem := range elems {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(elem.String())
	}
	return sb.String()
}
