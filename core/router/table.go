package router

import (
	"fmt"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/route"
)

// ResolutionKind is the outcome of matching a request.
type ResolutionKind uint8

const (
	NotFound ResolutionKind = iota
	Matched
	MethodNotAllowed
)

func (k ResolutionKind) String() string {
	switch k {
	case Matched:
		return "matched"
	case MethodNotAllowed:
		return "method_not_allowed"
	default:
		return "not_found"
	}
}

// Resolution is the result of Resolve. Route and Params are set for Matched;
// Allowed is set for MethodNotAllowed and lists the union of methods of
// every route matching the path.
type Resolution struct {
	Kind    ResolutionKind
	Route   *route.Route
	Params  handler.Params
	Allowed []string
}

// node is one position in the route tree. Children are tried literal first,
// then parameters in first-registration order, then the terminal path capture.
type node struct {
	kind     route.Kind
	literals map[string]*node
	params   []*node
	path     *node
	routes   []*route.Route
}

// table is the compiled, read-only route set.
type table struct {
	root   node
	routes []*route.Route
}

func (t *table) insert(r *route.Route) error {
	n := &t.root
	for _, seg := range r.Segments() {
		switch seg.Type {
		case route.SegmentLiteral:
			if n.literals == nil {
				n.literals = make(map[string]*node)
			}
			child, ok := n.literals[seg.Value]
			if !ok {
				child = &node{}
				n.literals[seg.Value] = child
			}
			n = child
		case route.SegmentParam:
			var child *node
			for _, p := range n.params {
				if p.kind == seg.Kind {
					child = p
					break
				}
			}
			if child == nil {
				child = &node{kind: seg.Kind}
				n.params = append(n.params, child)
			}
			n = child
		case route.SegmentPath:
			if n.path == nil {
				n.path = &node{kind: route.KindPath}
			}
			n = n.path
		}
	}

	for _, existing := range n.routes {
		for _, m := range r.Methods() {
			if existing.Allows(m) {
				return fmt.Errorf("%w: %s %s conflicts with %s", ErrDuplicateRoute, m, r.Pattern(), existing.Pattern())
			}
		}
	}
	n.routes = append(n.routes, r)
	t.routes = append(t.routes, r)
	return nil
}

type matchState struct {
	method  string
	path    string
	parts   []string
	offsets []int
	values  []any
	raws    []string
	allowed map[string]struct{}
	found   *route.Route
}

// resolve matches a normalized path. Matching never fails with an error;
// converter rejections only prune the current branch.
func (t *table) resolve(method, path string) Resolution {
	parts := route.SplitPath(path)
	st := &matchState{
		method:  method,
		path:    path,
		parts:   parts,
		offsets: make([]int, len(parts)),
		values:  make([]any, len(parts)),
		raws:    make([]string, len(parts)),
	}
	off := 1
	for i, p := range parts {
		st.offsets[i] = off
		off += len(p) + 1
	}

	if t.root.match(st, 0) {
		return Resolution{Kind: Matched, Route: st.found, Params: st.bind()}
	}
	if len(st.allowed) > 0 {
		return Resolution{Kind: MethodNotAllowed, Allowed: route.SortMethods(st.allowed)}
	}
	return Resolution{Kind: NotFound}
}

func (n *node) match(st *matchState, depth int) bool {
	if depth == len(st.parts) {
		return st.accept(n.routes)
	}

	part := st.parts[depth]
	if child, ok := n.literals[part]; ok {
		if child.match(st, depth+1) {
			return true
		}
	}

	for _, child := range n.params {
		v, ok := route.Convert(child.kind, part)
		if !ok {
			continue
		}
		st.values[depth] = v
		st.raws[depth] = part
		if child.match(st, depth+1) {
			return true
		}
	}

	if n.path != nil {
		rest := st.path[st.offsets[depth]:]
		if v, ok := route.Convert(route.KindPath, rest); ok {
			st.values[depth] = v
			st.raws[depth] = rest
			return st.accept(n.path.routes)
		}
	}
	return false
}

// accept picks the first route allowing the method, recording the methods
// of the others for a possible 405.
func (st *matchState) accept(routes []*route.Route) bool {
	for _, r := range routes {
		if r.Allows(st.method) {
			st.found = r
			return true
		}
	}
	for _, r := range routes {
		if st.allowed == nil {
			st.allowed = make(map[string]struct{})
		}
		for _, m := range r.Methods() {
			st.allowed[m] = struct{}{}
		}
	}
	return false
}

func (st *matchState) bind() handler.Params {
	segs := st.found.Segments()
	var params handler.Params
	for i, seg := range segs {
		if seg.Type == route.SegmentLiteral {
			continue
		}
		params = append(params, handler.Param{Name: seg.Value, Value: st.values[i], Raw: st.raws[i]})
	}
	return params
}
