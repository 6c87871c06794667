// Package format normalizes schema and instance descriptions by loading
// them and writing them back out.
package format

import (
	"github.com/conduit-lang/metamodel/internal/loader"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// Formatter formats descriptions through a Loader
type Formatter struct {
	loader *loader.Loader
}

// New creates a new Formatter; a nil loader uses the defaults
func New(l *loader.Loader) *Formatter {
	if l == nil {
		l = loader.New()
	}
	return &Formatter{loader: l}
}

// Schema returns the canonical notation of a schema. Comments and blank
// lines are not kept.
func (f *Formatter) Schema(source, file string) (string, error) {
	reg, err := f.loader.ParseSchema(source, file)
	if err != nil {
		return "", err
	}
	return loader.FormatSchema(reg), nil
}

// Instance returns the canonical notation of an instance: elements in
// dependency order, shared elements named, single-use ones inlined
func (f *Formatter) Instance(source, file string, reg *schema.Registry) (string, error) {
	g, err := f.loader.ParseInstance(source, file, reg)
	if err != nil {
		return "", err
	}
	return g.Format()
}

// SchemaFile formats the schema at path and diffs it against the original
func (f *Formatter) SchemaFile(path string) (*DiffResult, error) {
	source, file, err := f.loader.Read(path)
	if err != nil {
		return nil, err
	}
	formatted, err := f.Schema(source, file)
	if err != nil {
		return nil, err
	}
	return Diff(source, formatted), nil
}

// InstanceFile formats the instance at path and diffs it against the original
func (f *Formatter) InstanceFile(path string, reg *schema.Registry) (*DiffResult, error) {
	source, file, err := f.loader.Read(path)
	if err != nil {
		return nil, err
	}
	formatted, err := f.Instance(source, file, reg)
	if err != nil {
		return nil, err
	}
	return Diff(source, formatted), nil
}
