// Package export renders schemas and model graphs as graphviz diagrams.
package export

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/emicklei/dot"
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/compiler/parser"
	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/rules"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// Option configures a diagram
type Option func(*settings)

type settings struct {
	rankdir string
	logger  *zap.Logger
}

// WithRankDir sets the graphviz layout direction (TB, LR, BT, RL)
func WithRankDir(dir string) Option {
	return func(s *settings) {
		if dir != "" {
			s.rankdir = dir
		}
	}
}

// WithLogger sets the logger of the rule engine driving the export
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func newDiagram(opts []Option) (*dot.Graph, settings) {
	cfg := settings{rankdir: "TB", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", cfg.rankdir)
	g.Attr("splines", "true")
	return g, cfg
}

// SchemaDiagram draws every element type with its attributes, inheritance
// arrows and associations with their cardinalities
func SchemaDiagram(reg *schema.Registry, opts ...Option) *dot.Graph {
	g, _ := newDiagram(opts)
	g.Attr("overlap", "false")

	types := reg.Elements()
	nodes := make(map[*schema.ElementType]dot.Node, len(types))
	for _, t := range types {
		nodes[t] = g.Node(t.Name()).
			Attr("shape", "none").
			Attr("label", dot.HTML(typeLabel(t)))
	}

	for _, t := range types {
		if super := t.Extends(); super != nil {
			g.Edge(nodes[super], nodes[t]).
				Attr("arrowtail", "onormal").
				Attr("dir", "back")
		}
	}

	for _, t := range types {
		for _, f := range t.Fields() {
			if !f.IsReference() || inherited(t, f) {
				continue
			}
			parentCard := "1"
			if f.Optional {
				parentCard = "0..1"
			}
			childCard := "*"
			if peer, ok := f.Target.Field(f.Peer); ok && peer.Limit > 0 {
				childCard = fmt.Sprintf("0..%d", peer.Limit)
			}
			g.Edge(nodes[f.Target], nodes[t]).
				Attr("arrowtail", "vee").
				Attr("dir", "back").
				Attr("taillabel", fmt.Sprintf("%s\n%s", f.Name, parentCard)).
				Attr("headlabel", fmt.Sprintf("%s\n%s", f.Peer, childCard))
		}
	}
	return g
}

func typeLabel(t *schema.ElementType) string {
	name := html.EscapeString(t.Name())
	if t.Abstract() {
		name = "<I>" + name + "</I>"
	}

	var attrs []string
	for _, f := range t.Fields() {
		if f.IsAttribute() && !inherited(t, f) {
			attrs = append(attrs, html.EscapeString(f.Name))
		}
	}

	var b strings.Builder
	b.WriteString(`<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0"><TR><TD>`)
	b.WriteString(name)
	b.WriteString(`</TD></TR>`)
	if len(attrs) > 0 {
		b.WriteString(`<TR><TD ALIGN="LEFT" BALIGN="LEFT">`)
		b.WriteString(strings.Join(attrs, "<BR/>"))
		b.WriteString(`</TD></TR>`)
	}
	b.WriteString(`</TABLE>`)
	return b.String()
}

func inherited(t *schema.ElementType, f *schema.Field) bool {
	super := t.Extends()
	if super == nil {
		return false
	}
	sf, ok := super.Field(f.Name)
	return ok && sf == f
}

// InstanceDiagram draws every element reachable from root, labelled with
// its type and attribute values, and one edge per set parent reference
func InstanceDiagram(mg *model.Graph, opts ...Option) (*dot.Graph, error) {
	g, cfg := newDiagram(opts)

	elements, err := mg.Reachable()
	if err != nil {
		return nil, err
	}

	engine := rules.NewEngine(rules.WithLogger(cfg.logger))
	node := rules.New(engine, "element_node", func(s *rules.Session, e *model.Element, _ ...interface{}) (dot.Node, error) {
		return g.Node(nodeID(mg, e)).
			Attr("shape", "box").
			Attr("label", elementLabel(mg, e)), nil
	})

	for _, e := range elements {
		child, err := node.Run(e)
		if err != nil {
			return nil, err
		}
		for _, f := range e.Type().Fields() {
			if !f.IsReference() {
				continue
			}
			parent, err := e.Ref(f.Name)
			if err != nil {
				return nil, err
			}
			if parent == nil {
				continue
			}
			target, err := node.Run(parent)
			if err != nil {
				return nil, err
			}
			edge := g.Edge(child, target).Attr("label", f.Name)
			if f.Optional {
				edge.Attr("style", "dashed")
			}
		}
	}
	return g, nil
}

// nodeID prefers the first bound identifier of e
func nodeID(mg *model.Graph, e *model.Element) string {
	if names := mg.NamesOf(e); len(names) > 0 {
		return names[0]
	}
	return e.String()
}

func elementLabel(mg *model.Graph, e *model.Element) string {
	var b strings.Builder
	b.WriteString(nodeID(mg, e))
	b.WriteString(": ")
	b.WriteString(e.Type().Name())

	var attrs []string
	for _, f := range e.Type().Fields() {
		if !f.IsAttribute() || !e.IsSet(f.Name) {
			continue
		}
		v, _ := e.Attr(f.Name)
		attrs = append(attrs, fmt.Sprintf("%s=%s", f.Name, literal(v)))
	}
	sort.Strings(attrs)
	for _, a := range attrs {
		b.WriteString("\n")
		b.WriteString(a)
	}
	return b.String()
}

func literal(v interface{}) string {
	if s := parser.FormatLiteral(v); s != "" {
		return s
	}
	return fmt.Sprintf("%v", v)
}
