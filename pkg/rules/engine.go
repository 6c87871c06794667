// Package rules applies memoized transformation functions to model
// elements. Nested applications evaluate inline, deferred ones are queued
// on the session and drained breadth-first.
package rules

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/pkg/model"
)

// Engine tracks the session in flight: at most one top-level application
// runs at a time. A second Run, from a rule body or another goroutine,
// fails with ErrSessionActive; concurrent callers serialize themselves.
type Engine struct {
	mu       sync.Mutex // guards active and sessions
	active   *Session
	logger   *zap.Logger
	sessions int
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a new rule engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// evaluator is the type-erased side of a Rule used by the worklist
type evaluator interface {
	evaluate(s *Session, e *model.Element, args []interface{}) error
	dropPending(key string)
}

type task struct {
	rule evaluator
	elem *model.Element
	args []interface{}
}

type mark struct {
	rule evaluator
	key  string
}

// Session is one top-level drive of the worklist. It is passed to every
// rule body and must not be retained after the body returns.
type Session struct {
	engine      *Engine
	id          int
	queue       []task
	marks       []mark
	fault       error
	evaluations int
	deferred    int
}

// ID returns the session sequence number
func (s *Session) ID() int {
	return s.id
}

// Evaluations returns the number of rule bodies invoked so far
func (s *Session) Evaluations() int {
	return s.evaluations
}

// Active reports whether a session is in flight
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// begin starts a session unless one is already in flight
func (e *Engine) begin() (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, ErrSessionActive
	}
	e.sessions++
	s := &Session{engine: e, id: e.sessions}
	e.active = s
	e.logger.Debug("session started", zap.Int("session", s.id))
	return s, nil
}

// end drops the Pending marks a failed session left behind and releases
// the engine
func (e *Engine) end(s *Session, start time.Time) {
	dropped := 0
	for _, m := range s.marks {
		m.rule.dropPending(m.key)
		dropped++
	}
	s.marks = nil
	s.queue = nil

	e.logger.Debug("session finished",
		zap.Int("session", s.id),
		zap.Int("evaluations", s.evaluations),
		zap.Int("deferred", s.deferred),
		zap.Int("dropped", dropped),
		zap.Bool("failed", s.fault != nil),
		zap.Duration("elapsed", time.Since(start)))

	e.mu.Lock()
	e.active = nil
	e.mu.Unlock()
}

// drain evaluates queued work in FIFO order until the queue is empty
func (s *Session) drain() error {
	for len(s.queue) > 0 {
		if s.fault != nil {
			return s.fault
		}
		t := s.queue[0]
		s.queue[0] = task{}
		s.queue = s.queue[1:]

		if err := t.rule.evaluate(s, t.elem, t.args); err != nil {
			s.failWith(err)
			return err
		}
	}
	return s.fault
}

func (s *Session) enqueue(t task) {
	s.queue = append(s.queue, t)
	s.deferred++
}

// failWith records the first fault; a faulted session can not complete
func (s *Session) failWith(err error) {
	if s.fault == nil {
		s.fault = err
	}
}

func (s *Session) addMark(rule evaluator, key string) {
	s.marks = append(s.marks, mark{rule: rule, key: key})
}

// settle forgets a mark once its evaluation finished
func (s *Session) settle(rule evaluator, key string) {
	for i := len(s.marks) - 1; i >= 0; i-- {
		if s.marks[i].rule == rule && s.marks[i].key == key {
			s.marks = append(s.marks[:i], s.marks[i+1:]...)
			return
		}
	}
}
