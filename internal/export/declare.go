package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/emicklei/dot"

	"github.com/conduit-lang/metamodel/internal/declare"
	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/rules"
)

// declareExport holds the rules of one Declare export
type declareExport struct {
	g         *dot.Graph
	activity  *rules.Rule[dot.Node]
	relation  *rules.Rule[dot.Node]
	binary    *rules.Rule[bool]
	relations int
	negations int
}

// DeclareDiagram draws activities as boxes annotated with their bounds,
// binary constraints as styled edges and n-ary relations as diamonds.
// Binary constraints without a known style are drawn in red with their
// type name.
func DeclareDiagram(mg *model.Graph, opts ...Option) (*dot.Graph, error) {
	g, cfg := newDiagram(opts)
	g.Attr("overlap", "false")
	g.Attr("model", "mds")

	root, err := mg.Root()
	if err != nil {
		return nil, err
	}
	if root.Type().Name() != "Declare" {
		return nil, fmt.Errorf("root is a %s, not a Declare", root.Type().Name())
	}

	engine := rules.NewEngine(rules.WithLogger(cfg.logger))
	activities := 0
	x := &declareExport{g: g}
	x.activity = rules.New(engine, "activity2graphviz", func(s *rules.Session, e *model.Element, _ ...interface{}) (dot.Node, error) {
		n := g.Node(fmt.Sprintf("A%d", activities)).
			Attr("shape", "none").
			Attr("label", dot.HTML(activityLabel(e)))
		activities++
		return n, nil
	})
	x.relation = rules.New(engine, "relation2graphviz", x.drawRelation)
	x.binary = rules.New(engine, "binary2graphviz", x.drawBinary)

	acts, err := root.Children("activities")
	if err != nil {
		return nil, err
	}
	for _, a := range acts.Elements() {
		if _, err := x.activity.Run(a); err != nil {
			return nil, err
		}
	}
	for _, a := range acts.Elements() {
		left, err := a.Children("relatedleft")
		if err != nil {
			return nil, err
		}
		for _, b := range left.Elements() {
			if _, err := x.binary.Run(b); err != nil {
				return nil, err
			}
		}
	}

	relations, err := root.Children("relations")
	if err != nil {
		return nil, err
	}
	for _, r := range relations.Elements() {
		if _, err := x.relation.Run(r); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func activityLabel(e *model.Element) string {
	row := func(text string) string {
		return `<TR><TD></TD><TD BORDER="1">` + text + `</TD><TD></TD></TR>`
	}

	var b strings.Builder
	b.WriteString(`<TABLE BORDER="0" CELLBORDER="0" CELLSPACING="0" CELLPADDING="0">`)
	if declare.IsInit(e) {
		b.WriteString(row("init"))
	}
	lower, upper, bounded := declare.Bounds(e)
	switch {
	case bounded && lower == upper:
		b.WriteString(row(fmt.Sprint(lower)))
	case bounded:
		b.WriteString(row(fmt.Sprintf("%d..%d", lower, upper)))
	case lower != 0:
		b.WriteString(row(fmt.Sprintf("%d..*", lower)))
	}
	b.WriteString(`<TR><TD BORDER="1" COLSPAN="3" CELLPADDING="10" PORT="T">`)
	b.WriteString(html.EscapeString(declare.Label(e)))
	b.WriteString(`</TD></TR></TABLE>`)
	return b.String()
}

func (x *declareExport) drawRelation(s *rules.Session, e *model.Element, _ ...interface{}) (dot.Node, error) {
	contains, err := e.Children("contains")
	if err != nil {
		return dot.Node{}, err
	}
	count := int64(1)
	if v, err := e.Attr("count"); err == nil {
		if n, ok := v.(int64); ok {
			count = n
		}
	}

	n := x.g.Node(fmt.Sprintf("R%d", x.relations)).
		Attr("shape", "diamond").
		Attr("label", fmt.Sprintf("%d of %d", count, contains.Len())).
		Attr("fontsize", "12")
	x.relations++
	switch declare.Relation(e) {
	case declare.RelationExclusive:
		n.Attr("style", "filled").
			Attr("fillcolor", "black").
			Attr("fontcolor", "white").
			Attr("fontname", "bold")
	case declare.RelationUnknown:
		n.Attr("color", "red").Attr("xlabel", e.Type().Name())
	}

	for _, p := range contains.Elements() {
		activity, err := p.Ref("activity")
		if err != nil {
			return dot.Node{}, err
		}
		a, err := x.activity.Apply(s, activity)
		if err != nil {
			return dot.Node{}, err
		}
		x.g.Edge(a, n).Attr("tailport", "T").Attr("dir", "none")
	}
	return n, nil
}

func (x *declareExport) drawBinary(s *rules.Session, e *model.Element, _ ...interface{}) (bool, error) {
	var ends [2]dot.Node
	for i, field := range []string{"left", "right"} {
		end, err := e.Ref(field)
		if err != nil {
			return false, err
		}
		if ends[i], err = x.activity.Apply(s, end); err != nil {
			return false, err
		}
	}

	style, ok := declare.BinaryStyle(e)
	if !ok {
		x.g.Edge(ends[0], ends[1]).
			Attr("tailport", "T").
			Attr("headport", "T").
			Attr("color", "red").
			Attr("len", "1.5").
			Attr("label", e.Type().Name())
		return true, nil
	}

	color := strings.TrimSuffix(strings.Repeat("black:", style.Lines), ":")
	if !style.Negate {
		x.g.Edge(ends[0], ends[1]).
			Attr("tailport", "T").
			Attr("headport", "T").
			Attr("arrowtail", style.Tail).
			Attr("arrowhead", style.Head).
			Attr("color", color).
			Attr("dir", "both").
			Attr("len", "1.5")
		return true, nil
	}

	cut := x.g.Node(fmt.Sprintf("N%d", x.negations)).
		Attr("shape", "point").
		Attr("label", "").
		Attr("width", "0").
		Attr("height", "0")
	x.negations++
	x.g.Edge(ends[0], cut).
		Attr("tailport", "T").
		Attr("arrowtail", style.Tail).
		Attr("arrowhead", "tee").
		Attr("color", color).
		Attr("dir", "both").
		Attr("len", ".8")
	x.g.Edge(cut, ends[1]).
		Attr("headport", "T").
		Attr("arrowtail", "tee").
		Attr("arrowhead", style.Head).
		Attr("color", color).
		Attr("dir", "both").
		Attr("len", ".8")
	return true, nil
}
