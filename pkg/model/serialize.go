package model

import (
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/compiler/parser"
)

type emitState uint8

const (
	stateNone   emitState = iota
	stateActive           // parents being prepared
	stateInline           // constructor built, waiting for its single referrer
	stateDone
)

// deferredRef is a parent reference emitted as `from.field = to` because
// its target could not be constructed first
type deferredRef struct {
	from  Handle
	field string
	to    Handle
	done  bool
}

type serializer struct {
	g         *Graph
	referrers map[Handle][]Handle
	names     map[Handle][]string
	taken     map[string]bool
	next      int
	generated int
	state     []emitState
	inline    map[Handle]*parser.Constructor
	deferred  []*deferredRef
	wanted    []Handle
	emitted   []Handle
	stmts     []parser.InstanceStmt
}

// Serialize returns construction statements that rebuild the part of the
// graph reachable from root. Every statement only refers to identifiers
// bound by earlier statements.
//
// Bound identifiers keep their names. Elements referenced by two or more
// parent references get generated names, elements referenced once are
// nested into their referrer, and unreferenced elements become anonymous
// statements. Optional references that close a cycle are emitted as
// assignments once both ends exist; a cycle of required references fails
// with ErrUnserializableCycle.
func (g *Graph) Serialize() ([]parser.InstanceStmt, error) {
	elements, err := g.Reachable()
	if err != nil {
		return nil, err
	}

	s := &serializer{
		g:         g,
		referrers: make(map[Handle][]Handle),
		names:     make(map[Handle][]string),
		taken:     make(map[string]bool, len(g.names)),
		state:     make([]emitState, len(g.elements)),
		inline:    make(map[Handle]*parser.Constructor),
	}
	s.prepareNames(elements)

	root := g.names[RootIdentifier]
	stack := []Handle{root}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.state[h] == stateDone {
			continue
		}

		h = s.entry(h)
		mark := len(s.emitted)
		s.wanted = s.wanted[:0]
		if err := s.ensure(h); err != nil {
			return nil, err
		}
		if s.state[h] == stateInline {
			ctor := s.pendingCtor(h)
			delete(s.inline, h)
			s.forceName(h)
			s.emitStatement(h, ctor)
		}

		var next []Handle
		for _, done := range s.emitted[mark:] {
			next = append(next, s.children(done)...)
		}
		next = append(next, s.wanted...)
		for i := len(next) - 1; i >= 0; i-- {
			if s.state[next[i]] != stateDone {
				stack = append(stack, next[i])
			}
		}
	}

	assignments := 0
	for _, d := range s.deferred {
		if !d.done {
			return nil, fmt.Errorf("serialize: reference %s.%s was never emitted", g.elements[d.from], d.field)
		}
		assignments++
	}

	g.logger.Debug("graph serialized",
		zap.Int("elements", len(elements)),
		zap.Int("statements", len(s.stmts)),
		zap.Int("assignments", assignments),
		zap.Int("generated_identifiers", s.generated))

	return s.stmts, nil
}

// Format renders the serialized graph as instance notation
func (g *Graph) Format() (string, error) {
	stmts, err := g.Serialize()
	if err != nil {
		return "", err
	}
	return parser.FormatInstance(stmts), nil
}

func (s *serializer) prepareNames(elements []*Element) {
	for name := range s.g.names {
		s.taken[name] = true
	}

	for _, e := range elements {
		for _, f := range e.typ.Fields() {
			if !f.IsReference() {
				continue
			}
			if sl := e.values[f.Name]; sl != nil && sl.set {
				s.referrers[sl.ref] = append(s.referrers[sl.ref], e.handle)
			}
		}
	}

	for _, e := range elements {
		names := s.g.NamesOf(e)
		sort.SliceStable(names, func(i, j int) bool {
			return names[i] == RootIdentifier && names[j] != RootIdentifier
		})
		if len(names) > 0 {
			s.names[e.handle] = names
		}
	}

	for _, e := range elements {
		if len(s.referrers[e.handle]) >= 2 {
			s.forceName(e.handle)
		}
	}
}

// entry redirects an element that will be nested into its single
// referrer, so that the referrer's statement is the one produced
func (s *serializer) entry(h Handle) Handle {
	seen := make(map[Handle]bool)
	for s.nestable(h) && !seen[h] {
		seen[h] = true
		r := s.referrers[h][0]
		if s.state[r] != stateNone {
			break
		}
		h = r
	}
	return h
}

func (s *serializer) nestable(h Handle) bool {
	return len(s.names[h]) == 0 && len(s.referrers[h]) == 1
}

// ensure builds the constructor for h after its parents. The result is
// either emitted as a statement or left inline for the single referrer.
func (s *serializer) ensure(h Handle) error {
	if s.state[h] != stateNone {
		return nil
	}
	s.state[h] = stateActive

	e := s.g.elements[h]
	ctor := &parser.Constructor{Type: e.typ.Name()}
	for _, f := range e.typ.Fields() {
		sl := e.values[f.Name]
		if sl == nil || !sl.set {
			continue
		}

		switch {
		case f.IsAttribute():
			if sl.attr == nil {
				continue
			}
			if !serializable(sl.attr) {
				return e.fail(f.Name, ErrUnserializableValue, fmt.Sprintf("%T", sl.attr))
			}
			ctor.Args = append(ctor.Args, &parser.Argument{Name: f.Name, Value: &parser.Literal{Value: sl.attr}})

		case f.IsReference():
			value, err := s.reference(h, f.Name, f.Optional, sl.ref)
			if err != nil {
				return err
			}
			if value != nil {
				ctor.Args = append(ctor.Args, &parser.Argument{Name: f.Name, Value: value})
			}
		}
	}

	if s.nestable(h) {
		s.state[h] = stateInline
		s.inline[h] = ctor
		return nil
	}
	s.emitStatement(h, ctor)
	return nil
}

// reference returns the value to write for h.field = p, or nil when the
// reference was deferred to an assignment
func (s *serializer) reference(h Handle, field string, optional bool, p Handle) (parser.ValueNode, error) {
	switch s.state[p] {
	case stateDone:
		return s.identifier(p)
	case stateInline:
		ctor := s.pendingCtor(p)
		delete(s.inline, p)
		s.markDone(p)
		return ctor, nil
	case stateActive:
		return nil, s.deferRef(h, field, optional, p)
	}

	if optional && s.blocked(p) {
		return nil, s.deferRef(h, field, optional, p)
	}
	if err := s.ensure(p); err != nil {
		return nil, err
	}
	return s.reference(h, field, optional, p)
}

// blocked reports whether constructing p first would need an element
// that is still being prepared
func (s *serializer) blocked(p Handle) bool {
	seen := make(map[Handle]bool)
	stack := []Handle{p}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] || s.state[h] == stateDone {
			continue
		}
		seen[h] = true
		if s.state[h] == stateActive {
			return true
		}

		e := s.g.elements[h]
		for _, f := range e.typ.Fields() {
			if sl := e.values[f.Name]; f.Required() && sl != nil && sl.set {
				stack = append(stack, sl.ref)
			}
		}
	}
	return false
}

func (s *serializer) deferRef(h Handle, field string, optional bool, p Handle) error {
	if !optional {
		e := s.g.elements[h]
		return e.fail(field, ErrUnserializableCycle, fmt.Sprintf("through %s", s.g.elements[p]))
	}

	s.forceName(h)
	s.forceName(p)
	s.deferred = append(s.deferred, &deferredRef{from: h, field: field, to: p})
	if s.state[p] == stateNone {
		s.wanted = append(s.wanted, p)
	}
	return nil
}

func (s *serializer) emitStatement(h Handle, ctor *parser.Constructor) {
	names := make([]string, len(s.names[h]))
	copy(names, s.names[h])
	s.stmts = append(s.stmts, &parser.ConstructStmt{Names: names, Constructor: ctor})
	s.markDone(h)

	for _, d := range s.deferred {
		if d.done || s.state[d.from] != stateDone || s.state[d.to] != stateDone {
			continue
		}
		d.done = true
		s.stmts = append(s.stmts, &parser.AssignStmt{
			Target: s.names[d.from][0],
			Field:  d.field,
			Value:  &parser.Identifier{Name: s.names[d.to][0]},
		})
	}
}

func (s *serializer) markDone(h Handle) {
	s.state[h] = stateDone
	s.emitted = append(s.emitted, h)
}

func (s *serializer) pendingCtor(h Handle) *parser.Constructor {
	if ctor, ok := s.inline[h]; ok {
		return ctor
	}
	return &parser.Constructor{Type: s.g.elements[h].typ.Name()}
}

func (s *serializer) identifier(h Handle) (parser.ValueNode, error) {
	names := s.names[h]
	if len(names) == 0 {
		return nil, fmt.Errorf("serialize: %s was emitted without an identifier", s.g.elements[h])
	}
	return &parser.Identifier{Name: names[0]}, nil
}

func (s *serializer) forceName(h Handle) {
	if len(s.names[h]) > 0 {
		return
	}
	for {
		s.next++
		name := s.g.prefix + strconv.Itoa(s.next)
		if !s.taken[name] {
			s.taken[name] = true
			s.names[h] = []string{name}
			s.generated++
			return
		}
	}
}

// children returns the collection members of h in field and handle order
func (s *serializer) children(h Handle) []Handle {
	e := s.g.elements[h]
	var out []Handle
	for _, f := range e.typ.Fields() {
		if sl := e.values[f.Name]; f.IsCollection() && sl != nil && sl.coll != nil {
			out = append(out, sl.coll.Handles()...)
		}
	}
	return out
}
