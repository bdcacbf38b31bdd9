package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
)

// Templates renders html/template files. Output is buffered so a failing
// template never produces partial markup.
type Templates struct {
	tmpl *template.Template
}

// NewTemplates parses the files of fsys matching patterns.
func NewTemplates(fsys fs.FS, funcs template.FuncMap, patterns ...string) (*Templates, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Templates{tmpl: tmpl}, nil
}

// NewTemplatesFrom wraps an already parsed template set.
func NewTemplatesFrom(tmpl *template.Template) *Templates {
	return &Templates{tmpl: tmpl}
}

// Render executes the named template.
func (t *Templates) Render(_ context.Context, name string, data any) (string, error) {
	if t.tmpl == nil || t.tmpl.Lookup(name) == nil {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrRenderFailed, name, err)
	}
	return buf.String(), nil
}
