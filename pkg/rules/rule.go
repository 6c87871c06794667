package rules

import (
	"strings"
	"sync"
	"time"

	"github.com/conduit-lang/metamodel/pkg/model"
)

// Func computes the result of a rule for one element. Extra element
// arguments make the rule apply to a tuple.
type Func[R any] func(s *Session, e *model.Element, args ...interface{}) (R, error)

type entryState int

const (
	statePending entryState = iota
	stateDone
)

type entry[R any] struct {
	state  entryState
	result R
}

// Rule memoizes a Func per element (or element tuple). The function is
// invoked at most once per key until Forget or Reset.
type Rule[R any] struct {
	engine *Engine
	label  string
	fn     Func[R]

	mu   sync.Mutex
	memo map[string]*entry[R]
}

// New creates a rule driven by engine
func New[R any](engine *Engine, name string, fn Func[R]) *Rule[R] {
	return &Rule[R]{
		engine: engine,
		label:  name,
		fn:     fn,
		memo:   make(map[string]*entry[R]),
	}
}

// Name returns the rule name
func (r *Rule[R]) Name() string {
	return r.label
}

// Run starts a session, evaluates e and everything deferred meanwhile,
// and returns the result for e. It fails with ErrSessionActive while
// another session is in flight; rule bodies call Apply with their session.
func (r *Rule[R]) Run(e *model.Element, args ...interface{}) (R, error) {
	var zero R

	if result, ok := r.Cached(e, args...); ok {
		return result, nil
	}

	start := time.Now()
	s, err := r.engine.begin()
	if err != nil {
		return zero, r.fail(e, err)
	}
	defer r.engine.end(s, start)

	s.enqueue(task{rule: r, elem: e, args: args})
	if err := s.drain(); err != nil {
		return zero, err
	}

	result, ok := r.Cached(e, args...)
	if !ok {
		return zero, r.fail(e, ErrNoResult)
	}
	return result, nil
}

// Apply returns the result for e within session s, evaluating it inline
// when needed. Re-entering an element whose evaluation is still running
// fails with ErrCircularApplication and faults the session. Without a
// session Apply fails with ErrNoSession; top-level callers use Run.
func (r *Rule[R]) Apply(s *Session, e *model.Element, args ...interface{}) (R, error) {
	var zero R
	if s == nil {
		return zero, r.fail(e, ErrNoSession)
	}

	key := memoKey(e, args)
	r.mu.Lock()
	ent, ok := r.memo[key]
	r.mu.Unlock()

	if ok {
		if ent.state == stateDone {
			return ent.result, nil
		}
		err := r.fail(e, ErrCircularApplication)
		s.failWith(err)
		return zero, err
	}

	if err := r.evaluate(s, e, args); err != nil {
		return zero, err
	}
	result, _ := r.Cached(e, args...)
	return result, nil
}

// Later queues e on the session without evaluating it now
func (r *Rule[R]) Later(s *Session, e *model.Element, args ...interface{}) error {
	if s == nil {
		return r.fail(e, ErrNoSession)
	}

	r.mu.Lock()
	_, ok := r.memo[memoKey(e, args)]
	r.mu.Unlock()
	if !ok {
		s.enqueue(task{rule: r, elem: e, args: args})
	}
	return nil
}

// Cached returns the finished result for e, if any
func (r *Rule[R]) Cached(e *model.Element, args ...interface{}) (R, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.memo[memoKey(e, args)]
	if !ok || ent.state != stateDone {
		var zero R
		return zero, false
	}
	return ent.result, true
}

// Forget drops every memo entry whose key involves e
func (r *Rule[R]) Forget(e *model.Element) {
	needle := e.Key().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, ent := range r.memo {
		if ent.state != stateDone {
			continue
		}
		for _, part := range strings.Split(key, ",") {
			if part == needle {
				delete(r.memo, key)
				break
			}
		}
	}
}

// Reset drops all finished memo entries
func (r *Rule[R]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, ent := range r.memo {
		if ent.state == stateDone {
			delete(r.memo, key)
		}
	}
}

// Len returns the number of finished memo entries
func (r *Rule[R]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, ent := range r.memo {
		if ent.state == stateDone {
			n++
		}
	}
	return n
}

// evaluate runs the body for e unless a memo entry exists
func (r *Rule[R]) evaluate(s *Session, e *model.Element, args []interface{}) error {
	key := memoKey(e, args)

	r.mu.Lock()
	if _, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return nil
	}
	ent := &entry[R]{state: statePending}
	r.memo[key] = ent
	r.mu.Unlock()
	s.addMark(r, key)

	s.evaluations++
	result, err := r.fn(s, e, args...)
	if err == nil && s.fault != nil {
		err = s.fault
	}
	if err != nil {
		r.dropPending(key)
		s.settle(r, key)
		return err
	}

	r.mu.Lock()
	ent.result = result
	ent.state = stateDone
	r.mu.Unlock()
	s.settle(r, key)
	return nil
}

func (r *Rule[R]) dropPending(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ent, ok := r.memo[key]; ok && ent.state == statePending {
		delete(r.memo, key)
	}
}

func (r *Rule[R]) fail(e *model.Element, err error) error {
	label := ""
	if e != nil {
		label = e.String()
	}
	return &TransformationError{Rule: r.label, Element: label, Err: err}
}

// memoKey is the element key followed by the keys of element arguments.
// Keys hold no element pointers, so the memo never keeps a graph alive.
func memoKey(e *model.Element, args []interface{}) string {
	var b strings.Builder
	b.WriteString(e.Key().String())
	for _, arg := range args {
		if el, ok := arg.(*model.Element); ok && el != nil {
			b.WriteString(",")
			b.WriteString(el.Key().String())
		}
	}
	return b.String()
}
