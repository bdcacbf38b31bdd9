package route

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the converter applied to a path parameter.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindPath
)

// String returns the converter name used in patterns.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindPath:
		return "path"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a converter name from a placeholder to its Kind.
// An empty name selects KindString.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "", "str", "string":
		return KindString, nil
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "path":
		return KindPath, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownConverter, name)
}

var floatSyntax = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Convert maps a raw path segment to a typed value.
// The boolean is false when the segment is rejected; rejection is a normal
// matching outcome, not an error.
//
// KindInt yields int, KindFloat yields float64, KindString and KindPath yield string.
func Convert(kind Kind, segment string) (any, bool) {
	switch kind {
	case KindString:
		if segment == "" || strings.Contains(segment, "/") {
			return nil, false
		}
		return segment, true
	case KindInt:
		if !isInteger(segment) {
			return nil, false
		}
		n, err := strconv.ParseInt(segment, 10, strconv.IntSize)
		if err != nil {
			return nil, false
		}
		return int(n), true
	case KindFloat:
		if !floatSyntax.MatchString(segment) {
			return nil, false
		}
		f, err := strconv.ParseFloat(segment, 64)
		if err != nil || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	case KindPath:
		if segment == "" {
			return nil, false
		}
		return segment, true
	}
	return nil, false
}

// isInteger reports whether s is an optional sign followed by one or more ASCII digits.
func isInteger(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
