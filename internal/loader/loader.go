// Package loader reads schema (.m2) and instance (.m1) description files
// into registries and model graphs.
package loader

import (
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/compiler/parser"
	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// Stdin is the path that reads from standard input
const Stdin = "-"

// Loader turns description files into registries and graphs
type Loader struct {
	logger *zap.Logger
	prefix string
	stdin  io.Reader
}

// Option configures a Loader
type Option func(*Loader)

// WithLogger sets the logger handed to every registry and graph
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithIdentifierPrefix sets the prefix for generated identifiers
func WithIdentifierPrefix(prefix string) Option {
	return func(l *Loader) {
		l.prefix = prefix
	}
}

// WithStdin replaces the reader used for the "-" path
func WithStdin(r io.Reader) Option {
	return func(l *Loader) {
		l.stdin = r
	}
}

// New creates a Loader
func New(opts ...Option) *Loader {
	l := &Loader{
		logger: zap.NewNop(),
		stdin:  os.Stdin,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadSchema reads a schema file
func LoadSchema(path string) (*schema.Registry, error) {
	return New().LoadSchema(path)
}

// LoadInstance reads an instance file against reg
func LoadInstance(path string, reg *schema.Registry) (*model.Graph, error) {
	return New().LoadInstance(path, reg)
}

// ParseSchema builds a registry from schema source
func ParseSchema(source, file string) (*schema.Registry, error) {
	return New().ParseSchema(source, file)
}

// ParseInstance builds a graph from instance source
func ParseInstance(source, file string, reg *schema.Registry) (*model.Graph, error) {
	return New().ParseInstance(source, file, reg)
}

// LoadSchema reads a schema file
func (l *Loader) LoadSchema(path string) (*schema.Registry, error) {
	source, file, err := l.Read(path)
	if err != nil {
		return nil, err
	}
	return l.ParseSchema(source, file)
}

// ParseSchema builds a registry from schema source. Declarations are
// applied in order; the first rejected declaration stops loading.
func (l *Loader) ParseSchema(source, file string) (*schema.Registry, error) {
	ast, errs := parser.ParseSchemaSource(source, file)
	if errs.HasErrors() {
		return nil, parseError(file, source, errs)
	}

	reg := schema.NewRegistry(schema.WithLogger(l.logger))
	for _, stmt := range ast.Statements {
		if err := declare(reg, stmt); err != nil {
			return nil, semanticError(PhaseSchema, file, source, stmt.GetLocation(), err)
		}
	}

	l.logger.Debug("schema loaded",
		zap.String("file", file),
		zap.Int("statements", len(ast.Statements)),
		zap.Int("elements", reg.Count()))
	return reg, nil
}

// LoadInstance reads an instance file against reg
func (l *Loader) LoadInstance(path string, reg *schema.Registry) (*model.Graph, error) {
	source, file, err := l.Read(path)
	if err != nil {
		return nil, err
	}
	return l.ParseInstance(source, file, reg)
}

// ParseInstance builds a graph from instance source
func (l *Loader) ParseInstance(source, file string, reg *schema.Registry) (*model.Graph, error) {
	ast, errs := parser.ParseInstanceSource(source, file)
	if errs.HasErrors() {
		return nil, parseError(file, source, errs)
	}

	g, err := model.Deserialize(reg, ast.Statements, l.graphOptions()...)
	if err != nil {
		var loc parser.SourceLocation
		var stmtErr *model.StatementError
		if errors.As(err, &stmtErr) {
			loc = stmtErr.Location
		}
		return nil, semanticError(PhaseInstance, file, source, loc, err)
	}

	l.logger.Debug("instance loaded",
		zap.String("file", file),
		zap.Int("elements", g.Len()))
	return g, nil
}

// NewGraph creates an empty graph configured like loaded ones
func (l *Loader) NewGraph(reg *schema.Registry) *model.Graph {
	return model.NewGraph(reg, l.graphOptions()...)
}

// WriteInstance serializes g to path
func (l *Loader) WriteInstance(path string, g *model.Graph) error {
	text, err := g.Format()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return ioError(path, err)
	}
	return nil
}

func (l *Loader) graphOptions() []model.Option {
	opts := []model.Option{model.WithLogger(l.logger)}
	if l.prefix != "" {
		opts = append(opts, model.WithIdentifierPrefix(l.prefix))
	}
	return opts
}

// Read returns the contents of path and the name to report it under
func (l *Loader) Read(path string) (string, string, error) {
	if path == Stdin {
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return "", "<stdin>", ioError("<stdin>", err)
		}
		return string(data), "<stdin>", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", path, ioError(path, err)
	}
	return string(data), path, nil
}

// declare applies one schema statement to reg
func declare(reg *schema.Registry, stmt parser.SchemaStmt) error {
	switch s := stmt.(type) {
	case *parser.ElementDecl:
		var opts []schema.ElementOption
		if s.Abstract {
			opts = append(opts, schema.Abstract())
		}
		if s.Extends != "" {
			super, err := reg.MustElement(s.Extends)
			if err != nil {
				return err
			}
			opts = append(opts, schema.Extends(super))
		}
		_, err := reg.DefineElement(s.Name, opts...)
		return err

	case *parser.AttributeDecl:
		t, err := reg.MustElement(s.Element)
		if err != nil {
			return err
		}
		return reg.DefineAttribute(t, s.Name)

	case *parser.AssociationDecl:
		parent, err := reg.MustElement(s.Parent)
		if err != nil {
			return err
		}
		child, err := reg.MustElement(s.Child)
		if err != nil {
			return err
		}
		var opts []schema.AssociationOption
		if s.HasLimit {
			opts = append(opts, schema.WithLimit(s.Limit))
		}
		if s.Optional {
			opts = append(opts, schema.Optional())
		}
		return reg.DefineAssociation(parent, child, s.ParentField, s.ChildField, opts...)
	}
	return nil
}
