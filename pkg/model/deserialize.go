package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/compiler/parser"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// Deserialize replays construction statements into a new graph, binding
// every declared identifier. It fails with ErrMissingRoot when no
// statement binds "root".
func Deserialize(reg *schema.Registry, stmts []parser.InstanceStmt, opts ...Option) (*Graph, error) {
	g := NewGraph(reg, opts...)

	for i, stmt := range stmts {
		if err := g.apply(stmt); err != nil {
			return nil, &StatementError{Index: i, Location: stmt.GetLocation(), Err: err}
		}
	}

	if _, err := g.Root(); err != nil {
		return nil, err
	}

	g.logger.Debug("graph deserialized",
		zap.Int("statements", len(stmts)),
		zap.Int("elements", len(g.elements)),
		zap.Int("identifiers", len(g.names)))
	return g, nil
}

// Apply replays a single statement against the graph
func (g *Graph) Apply(stmt parser.InstanceStmt) error {
	return g.apply(stmt)
}

func (g *Graph) apply(stmt parser.InstanceStmt) error {
	switch s := stmt.(type) {
	case *parser.ConstructStmt:
		e, err := g.construct(s.Constructor)
		if err != nil {
			return err
		}
		for _, name := range s.Names {
			if err := g.Bind(name, e); err != nil {
				return err
			}
		}
		return nil

	case *parser.AssignStmt:
		target, ok := g.Lookup(s.Target)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownIdentifier, s.Target)
		}
		value, err := g.evaluate(s.Value)
		if err != nil {
			return err
		}
		return target.Set(s.Field, value)
	}
	return fmt.Errorf("unsupported statement %T", stmt)
}

func (g *Graph) construct(ctor *parser.Constructor) (*Element, error) {
	t, err := g.registry.MustElement(ctor.Type)
	if err != nil {
		return nil, err
	}

	values := make([]FieldValue, 0, len(ctor.Args))
	for _, arg := range ctor.Args {
		v, err := g.evaluate(arg.Value)
		if err != nil {
			return nil, err
		}
		values = append(values, With(arg.Name, v))
	}
	return g.Instantiate(t, values...)
}

func (g *Graph) evaluate(v parser.ValueNode) (interface{}, error) {
	switch v := v.(type) {
	case *parser.Literal:
		return v.Value, nil
	case *parser.Identifier:
		e, ok := g.Lookup(v.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownIdentifier, v.Name)
		}
		return e, nil
	case *parser.Constructor:
		e, err := g.construct(v)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}
