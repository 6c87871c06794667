package export

import (
	"fmt"

	"github.com/emicklei/dot"

	"github.com/conduit-lang/metamodel/internal/petrinet"
	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/rules"
)

// netExport holds the rules of one Petri net export
type netExport struct {
	g           *dot.Graph
	transitions int
	node        *rules.Rule[dot.Node]
	arc         *rules.Rule[bool]
}

// PetriNetDiagram draws places as circles and transitions as unlabelled
// boxes, with arcs labelled by their weight when it is not 1. Elements
// outside the Petri net schema are drawn in red with their type name.
func PetriNetDiagram(mg *model.Graph, opts ...Option) (*dot.Graph, error) {
	g, cfg := newDiagram(opts)

	root, err := mg.Root()
	if err != nil {
		return nil, err
	}
	if kind := petrinet.Classify(root); kind != petrinet.KindNet {
		return nil, fmt.Errorf("root is a %s, not a Petrinet", root.Type().Name())
	}

	engine := rules.NewEngine(rules.WithLogger(cfg.logger))
	x := &netExport{g: g}
	x.node = rules.New(engine, "node2graphviz", x.drawNode)
	x.arc = rules.New(engine, "edge2graphviz", x.drawArc)

	for _, field := range []string{"places", "transitions"} {
		nodes, err := root.Children(field)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes.Elements() {
			if _, err := x.node.Run(n); err != nil {
				return nil, err
			}
		}
	}

	places, err := root.Children("places")
	if err != nil {
		return nil, err
	}
	for _, p := range places.Elements() {
		for _, field := range []string{"totransitions", "fromtransitions"} {
			arcs, err := p.Children(field)
			if err != nil {
				return nil, err
			}
			for _, a := range arcs.Elements() {
				if _, err := x.arc.Run(a); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

func (x *netExport) drawNode(s *rules.Session, e *model.Element, _ ...interface{}) (dot.Node, error) {
	var n dot.Node
	switch petrinet.Classify(e) {
	case petrinet.KindPlace:
		n = x.g.Node(petrinet.Label(e)).Attr("shape", "circle")
	case petrinet.KindTransition:
		x.transitions++
		n = x.g.Node(fmt.Sprintf("T_%d", x.transitions)).
			Attr("shape", "box").
			Attr("label", "")
	default:
		return x.g.Node(e.String()).
			Attr("color", "red").
			Attr("label", e.Type().Name()), nil
	}
	if petrinet.IsInterface(e) {
		n.Attr("style", "dashed")
	}
	return n, nil
}

func (x *netExport) drawArc(s *rules.Session, e *model.Element, _ ...interface{}) (bool, error) {
	var ends [2]dot.Node
	for i, field := range []string{"source", "dest"} {
		end, err := e.Ref(field)
		if err != nil {
			return false, err
		}
		if ends[i], err = x.node.Apply(s, end); err != nil {
			return false, err
		}
	}

	edge := x.g.Edge(ends[0], ends[1])
	switch petrinet.Classify(e) {
	case petrinet.KindPlaceArc, petrinet.KindTransitionArc:
		if w, err := e.Attr("weight"); err == nil && w != nil && w != int64(1) {
			edge.Attr("label", literal(w))
		}
	default:
		edge.Attr("color", "red").Attr("label", e.Type().Name())
	}
	return true, nil
}
