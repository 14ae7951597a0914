package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

type Registry struct {
	readers map[string]Reader
}

func NewRegistry() *Registry {
	r := &Registry{readers: make(map[string]Reader)}
	// Register built-in readers
	csv := &CSVReader{}
	xlsx := &XLSXReader{}
	js := &JSONReader{}

	for _, p := range []Reader{csv, xlsx, js} {
		for _, f := range p.SupportedFormats() {
			r.readers[f] = p
		}
	}
	return r
}

func (r *Registry) Get(format string) (Reader, error) {
	p, ok := r.readers[format]
	if !ok {
		return nil, fmt.Errorf("no reader for format: %s", format)
	}
	return p, nil
}

func (r *Registry) Register(format string, p Reader) {
	r.readers[format] = p
}

// ReadFile picks a reader from the file extension and reads path.
func (r *Registry) ReadFile(ctx context.Context, path string) (*Table, error) {
	p, err := r.Get(FormatOf(path))
	if err != nil {
		return nil, err
	}
	t, err := p.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if t.Source == "" {
		t.Source = filepath.Base(path)
	}
	return t, nil
}

// FormatOf returns the lower-cased extension of path without the dot.
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
