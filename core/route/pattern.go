package route

import (
	"strings"
)

// SegmentType tags the variant held by a Segment.
type SegmentType uint8

const (
	SegmentLiteral SegmentType = iota
	SegmentParam
	SegmentPath
)

// Segment is one compiled component of a route pattern.
// Literal segments carry their text in Value; parameter and path-capture
// segments carry the parameter name in Value.
type Segment struct {
	Type  SegmentType
	Value string
	Kind  Kind
}

// String renders the segment back in pattern syntax.
func (s Segment) String() string {
	switch s.Type {
	case SegmentParam:
		if s.Kind == KindString {
			return "<" + s.Value + ">"
		}
		return "<" + s.Value + ":" + s.Kind.String() + ">"
	case SegmentPath:
		return "<" + s.Value + ":path>"
	default:
		return s.Value
	}
}

// NormalizePath returns p with a leading slash, duplicate slashes collapsed
// and the trailing slash removed. The root path stays "/".
func NormalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}

	var b strings.Builder
	b.Grow(len(p) + 1)
	if p[0] != '/' {
		b.WriteByte('/')
	}
	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}

	out := b.String()
	if len(out) > 1 && out[len(out)-1] == '/' {
		out = out[:len(out)-1]
	}
	return out
}

// JoinPath concatenates a blueprint prefix and a prefix-relative pattern.
func JoinPath(prefix, pattern string) string {
	prefix = NormalizePath(prefix)
	if prefix == "/" {
		return NormalizePath(pattern)
	}
	pattern = NormalizePath(pattern)
	if pattern == "/" {
		return prefix
	}
	return prefix + pattern
}

// SplitPath splits a normalized path into its segments. The root path has none.
func SplitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// ParsePattern splits a pattern into segments.
// The pattern is normalized first; placeholders take the form <name> or <name:type>.
func ParsePattern(pattern string) ([]Segment, error) {
	normalized := NormalizePath(pattern)
	parts := SplitPath(normalized)
	segments := make([]Segment, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for i, part := range parts {
		seg, err := parseSegment(pattern, part)
		if err != nil {
			return nil, err
		}
		if seg.Type == SegmentLiteral {
			segments = append(segments, seg)
			continue
		}
		if _, dup := seen[seg.Value]; dup {
			return nil, compileErr(pattern, ErrDuplicateParam, "%q", seg.Value)
		}
		seen[seg.Value] = struct{}{}
		if seg.Type == SegmentPath && i != len(parts)-1 {
			return nil, compileErr(pattern, ErrPathCaptureNotLast, "%q", seg.Value)
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

func parseSegment(pattern, part string) (Segment, error) {
	open := strings.IndexByte(part, '<')
	end := strings.IndexByte(part, '>')
	if open < 0 && end < 0 {
		return Segment{Type: SegmentLiteral, Value: part}, nil
	}
	if open != 0 || end != len(part)-1 || strings.Count(part, "<") != 1 || strings.Count(part, ">") != 1 {
		return Segment{}, compileErr(pattern, ErrInvalidPlaceholder, "%q", part)
	}

	name, conv, _ := strings.Cut(part[1:len(part)-1], ":")
	if !isIdentifier(name) {
		return Segment{}, compileErr(pattern, ErrInvalidPlaceholder, "bad parameter name %q", name)
	}
	kind, err := ParseKind(conv)
	if err != nil {
		return Segment{}, &CompileError{Pattern: pattern, Err: err}
	}
	if kind == KindPath {
		return Segment{Type: SegmentPath, Value: name, Kind: KindPath}, nil
	}
	return Segment{Type: SegmentParam, Value: name, Kind: kind}, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
