package petrinet

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/rules"
)

// Option configures a transformation
type Option func(*settings)

type settings struct {
	logger *zap.Logger
	prefix string
}

// WithLogger sets the logger for the rule engine and the target graph
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIdentifierPrefix sets the prefix of names generated for the target graph
func WithIdentifierPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// skeleton holds the rules of one Skeleton run. Memo keys point into the
// source graph while results live in the target graph.
type skeleton struct {
	target *model.Graph
	net    *rules.Rule[*model.Element]
	node   *rules.Rule[*model.Element]
	arc    *rules.Rule[*model.Element]
}

// Skeleton copies the net rooted in src without its interface places and
// transitions. Arcs touching a dropped node are dropped too.
func Skeleton(src *model.Graph, opts ...Option) (*model.Graph, error) {
	cfg := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	root, err := src.Root()
	if err != nil {
		return nil, err
	}

	engine := rules.NewEngine(rules.WithLogger(cfg.logger))
	graphOpts := []model.Option{model.WithLogger(cfg.logger)}
	if cfg.prefix != "" {
		graphOpts = append(graphOpts, model.WithIdentifierPrefix(cfg.prefix))
	}
	sk := &skeleton{target: model.NewGraph(src.Registry(), graphOpts...)}
	sk.net = rules.New(engine, "petrinet", sk.copyNet)
	sk.node = rules.New(engine, "copy_non_interface", sk.copyNode)
	sk.arc = rules.New(engine, "copy_edge", sk.copyArc)

	copied, err := sk.net.Run(root)
	if err != nil {
		return nil, err
	}
	if err := sk.target.Bind(model.RootIdentifier, copied); err != nil {
		return nil, err
	}

	cfg.logger.Debug("skeleton built",
		zap.Int("source_elements", src.Len()),
		zap.Int("target_elements", sk.target.Len()))
	return sk.target, nil
}

func (sk *skeleton) copyNet(s *rules.Session, net *model.Element, _ ...interface{}) (*model.Element, error) {
	for _, field := range []string{"places", "transitions"} {
		nodes, err := net.Children(field)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes.Elements() {
			if err := sk.node.Later(s, n); err != nil {
				return nil, err
			}
		}
	}
	return sk.target.New(net.Type().Name(), attributes(net)...)
}

func (sk *skeleton) copyNode(s *rules.Session, e *model.Element, _ ...interface{}) (*model.Element, error) {
	switch e.Type().Name() {
	case "Place":
		for _, field := range []string{"totransitions", "fromtransitions"} {
			arcs, err := e.Children(field)
			if err != nil {
				return nil, err
			}
			for _, a := range arcs.Elements() {
				if err := sk.arc.Later(s, a); err != nil {
					return nil, err
				}
			}
		}
	case "Transition":
	default:
		return nil, nil
	}

	of, err := e.Ref("of")
	if err != nil {
		return nil, err
	}
	net, err := sk.net.Apply(s, of)
	if err != nil {
		return nil, err
	}
	return sk.target.New(e.Type().Name(), append(attributes(e), model.With("of", net))...)
}

func (sk *skeleton) copyArc(s *rules.Session, e *model.Element, _ ...interface{}) (*model.Element, error) {
	var ends [2]*model.Element
	for i, field := range []string{"source", "dest"} {
		end, err := e.Ref(field)
		if err != nil {
			return nil, err
		}
		copied, err := sk.node.Apply(s, end)
		if err != nil {
			return nil, err
		}
		if copied == nil {
			return nil, nil
		}
		ends[i] = copied
	}

	values := append(attributes(e), model.With("source", ends[0]), model.With("dest", ends[1]))
	return sk.target.New(e.Type().Name(), values...)
}

// attributes collects the attribute values set on e
func attributes(e *model.Element) []model.FieldValue {
	var out []model.FieldValue
	for _, f := range e.Type().Fields() {
		if !f.IsAttribute() || !e.IsSet(f.Name) {
			continue
		}
		v, err := e.Attr(f.Name)
		if err != nil {
			continue
		}
		out = append(out, model.With(f.Name, v))
	}
	return out
}
