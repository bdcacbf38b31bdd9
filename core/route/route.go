package route

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/routekit/core/handler"
)

// knownMethods lists the accepted HTTP methods in the order they are reported.
var knownMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodConnect,
	http.MethodOptions,
	http.MethodTrace,
}

// AllHooks is the reserved exclusion name that opts out of every hook.
const AllHooks = "all"

// Exclusions names the pipeline hooks a route opts out of.
type Exclusions struct {
	All   bool
	Names []string
}

// Excludes reports whether the hook with the given name is skipped.
func (e Exclusions) Excludes(name string) bool {
	return e.All || slices.Contains(e.Names, name)
}

// ExcludeNames builds an exclusion set from hook names. The reserved name
// AllHooks sets All.
func ExcludeNames(names ...string) Exclusions {
	var e Exclusions
	for _, n := range names {
		if n == AllHooks {
			e.All = true
			continue
		}
		if !slices.Contains(e.Names, n) {
			e.Names = append(e.Names, n)
		}
	}
	return e
}

// Merge returns the union of two exclusion sets.
func (e Exclusions) Merge(other Exclusions) Exclusions {
	out := Exclusions{All: e.All || other.All}
	out.Names = slices.Clone(e.Names)
	for _, n := range other.Names {
		if !slices.Contains(out.Names, n) {
			out.Names = append(out.Names, n)
		}
	}
	return out
}

// IsZero reports whether nothing is excluded.
func (e Exclusions) IsZero() bool {
	return !e.All && len(e.Names) == 0
}

// Route is a compiled binding of methods and a path pattern to a handler.
// A Route is immutable once compiled.
type Route struct {
	pattern    string
	segments   []Segment
	methods    []string
	handler    handler.HandlerFunc
	blueprint  string
	name       string
	exclusions Exclusions
}

// Option configures a Route during compilation.
type Option func(*Route)

// WithBlueprint records the owning blueprint name.
func WithBlueprint(name string) Option {
	return func(r *Route) {
		r.blueprint = name
	}
}

// WithName sets the route name used for introspection and logging.
func WithName(name string) Option {
	return func(r *Route) {
		r.name = name
	}
}

// WithExclusions sets the hooks this route skips.
func WithExclusions(ex Exclusions) Option {
	return func(r *Route) {
		r.exclusions = Exclusions{All: ex.All, Names: slices.Clone(ex.Names)}
	}
}

// Compile parses pattern and binds it to methods and h.
func Compile(pattern string, methods []string, h handler.HandlerFunc, opts ...Option) (*Route, error) {
	segments, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}

	ms, err := normalizeMethods(methods)
	if err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}

	if h == nil {
		return nil, &CompileError{Pattern: pattern, Err: ErrNilHandler}
	}

	r := &Route{
		pattern:  NormalizePath(pattern),
		segments: segments,
		methods:  ms,
		handler:  h,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, methods []string, h handler.HandlerFunc, opts ...Option) *Route {
	r, err := Compile(pattern, methods, h, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func normalizeMethods(methods []string) ([]string, error) {
	if len(methods) == 0 {
		return nil, ErrNoMethods
	}
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if !slices.Contains(knownMethods, m) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, m)
		}
		set[m] = struct{}{}
	}
	return SortMethods(set), nil
}

// SortMethods returns the methods of set in canonical order.
func SortMethods(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for _, m := range knownMethods {
		if _, ok := set[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Pattern returns the normalized pattern.
func (r *Route) Pattern() string { return r.pattern }

// Segments returns a copy of the compiled segments.
func (r *Route) Segments() []Segment { return slices.Clone(r.segments) }

// Methods returns the allowed methods in canonical order.
func (r *Route) Methods() []string { return slices.Clone(r.methods) }

// Allows reports whether method is one of the route's methods.
func (r *Route) Allows(method string) bool { return slices.Contains(r.methods, method) }

// Handler returns the bound handler.
func (r *Route) Handler() handler.HandlerFunc { return r.handler }

// Blueprint returns the owning blueprint name, empty for top-level routes.
func (r *Route) Blueprint() string { return r.blueprint }

// Name returns the route name.
func (r *Route) Name() string { return r.name }

// Exclusions returns the hooks this route skips.
func (r *Route) Exclusions() Exclusions {
	return Exclusions{All: r.exclusions.All, Names: slices.Clone(r.exclusions.Names)}
}

// Shape returns the pattern with parameter names erased, e.g. "/users/<int>".
// Two routes with the same shape match exactly the same paths.
func (r *Route) Shape() string {
	if len(r.segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range r.segments {
		b.WriteByte('/')
		switch s.Type {
		case SegmentLiteral:
			b.WriteString(s.Value)
		default:
			b.WriteString("<" + s.Kind.String() + ">")
		}
	}
	return b.String()
}
