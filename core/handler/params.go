package handler

// Param is a path parameter bound by the matcher.
// Value holds the converted value (string, int or float64); Raw holds the
// segment text exactly as it appeared in the path.
type Param struct {
	Name  string
	Value any
	Raw   string
}

// Params is the ordered list of parameters bound for a request.
type Params []Param

// Get returns the converted value of the named parameter.
func (p Params) Get(name string) (any, bool) {
	for i := range p {
		if p[i].Name == name {
			return p[i].Value, true
		}
	}
	return nil, false
}

// Raw returns the unconverted text of the named parameter.
func (p Params) Raw(name string) string {
	for i := range p {
		if p[i].Name == name {
			return p[i].Raw
		}
	}
	return ""
}

// Int returns the named parameter if it was bound by the int converter.
func (p Params) Int(name string) (int, bool) {
	v, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// Float returns the named parameter if it was bound by the float converter.
func (p Params) Float(name string) (float64, bool) {
	v, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// String returns the named parameter if it was bound by the str or path converter.
func (p Params) String(name string) (string, bool) {
	v, ok := p.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Map returns the parameters keyed by name.
func (p Params) Map() map[string]any {
	m := make(map[string]any, len(p))
	for _, param := range p {
		m[param.Name] = param.Value
	}
	return m
}
