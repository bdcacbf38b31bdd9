// Package route compiles path patterns into immutable Route values and
// provides the fixed set of parameter converters used while matching.
//
// # Pattern Syntax
//
// Patterns are slash-separated segments. A segment is either literal text or
// a placeholder of the form <name> or <name:type>:
//
//	/users/<id:int>          // int: optional sign and digits, platform int range
//	/prices/<amount:float>   // float: decimal with optional fraction and exponent
//	/tags/<tag>              // str (default): any non-empty segment without '/'
//	/static/<file:path>      // path: the non-empty remainder, slashes included
//
// A path capture must be the last segment and parameter names must be unique
// within a pattern. Violations produce a *CompileError wrapping one of the
// package sentinels, so callers can test with errors.Is:
//
//	_, err := route.Compile("/a/<id>/<id>", []string{"GET"}, h)
//	errors.Is(err, route.ErrDuplicateParam) // true
//
// # Converters
//
// Convert is a pure function. Rejection is a normal matching outcome that
// makes the matcher try the next candidate; it is never an error.
package route
