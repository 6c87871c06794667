package rules

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/pkg/model"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

func folderSchema(t *testing.T) *schema.Registry {
	t.Helper()

	r := schema.NewRegistry()
	folder, err := r.DefineElement("Folder")
	require.NoError(t, err)
	require.NoError(t, r.DefineAttribute(folder, "name"))
	require.NoError(t, r.DefineAssociation(folder, folder, "parent", "children", schema.Optional()))
	return r
}

// tree builds root with children a, b and grandchild a1 under a
func tree(t *testing.T) (*model.Graph, map[string]*model.Element) {
	t.Helper()

	g := model.NewGraph(folderSchema(t))
	out := make(map[string]*model.Element)
	add := func(name string, parent *model.Element) *model.Element {
		values := []model.FieldValue{model.With("name", name)}
		if parent != nil {
			values = append(values, model.With("parent", parent))
		}
		e, err := g.New("Folder", values...)
		require.NoError(t, err)
		out[name] = e
		return e
	}

	root := add("root", nil)
	a := add("a", root)
	add("b", root)
	add("a1", a)
	require.NoError(t, g.Bind(model.RootIdentifier, root))
	return g, out
}

func name(t *testing.T, e *model.Element) string {
	v, err := e.Attr("name")
	require.NoError(t, err)
	return v.(string)
}

func TestRun_Memoizes(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()

	calls := 0
	upper := New(engine, "upper", func(s *Session, e *model.Element, args ...interface{}) (string, error) {
		calls++
		return fmt.Sprintf("<%s>", name(t, e)), nil
	})

	got, err := upper.Run(els["a"])
	require.NoError(t, err)
	assert.Equal(t, "<a>", got)

	got, err = upper.Run(els["a"])
	require.NoError(t, err)
	assert.Equal(t, "<a>", got)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, upper.Len())
}

func TestApply_NestedEvaluatesInline(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()

	calls := map[string]int{}
	var path *Rule[string]
	path = New(engine, "path", func(s *Session, e *model.Element, args ...interface{}) (string, error) {
		calls[name(t, e)]++
		parent, err := e.Ref("parent")
		if err != nil || parent == nil {
			return name(t, e), err
		}
		prefix, err := path.Apply(s, parent)
		if err != nil {
			return "", err
		}
		return prefix + "/" + name(t, e), nil
	})

	got, err := path.Run(els["a1"])
	require.NoError(t, err)
	assert.Equal(t, "root/a/a1", got)

	got, err = path.Run(els["b"])
	require.NoError(t, err)
	assert.Equal(t, "root/b", got)

	for n, c := range calls {
		assert.Equal(t, 1, c, "%s evaluated more than once", n)
	}

	_, err = path.Apply(nil, els["a"])
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestApply_CircularApplication(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()

	recurse := true
	var loop *Rule[int]
	loop = New(engine, "loop", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
		if recurse {
			return loop.Apply(s, e)
		}
		return 1, nil
	})

	_, err := loop.Run(els["a"])
	require.ErrorIs(t, err, ErrCircularApplication)

	var terr *TransformationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "loop", terr.Rule)
	assert.Equal(t, els["a"].String(), terr.Element)

	// the failed session leaves no pending marks behind
	recurse = false
	got, err := loop.Run(els["a"])
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestApply_SwallowedFaultStillFails(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()

	var loop *Rule[int]
	loop = New(engine, "loop", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
		_, _ = loop.Apply(s, e)
		return 0, nil
	})

	_, err := loop.Run(els["root"])
	assert.ErrorIs(t, err, ErrCircularApplication)
	_, ok := loop.Cached(els["root"])
	assert.False(t, ok)
}

func TestLater(t *testing.T) {
	t.Run("breadth-first drain", func(t *testing.T) {
		_, els := tree(t)
		engine := NewEngine()

		var order []string
		var visit *Rule[bool]
		visit = New(engine, "visit", func(s *Session, e *model.Element, args ...interface{}) (bool, error) {
			order = append(order, name(t, e))
			children, err := e.Children("children")
			if err != nil {
				return false, err
			}
			for _, child := range children.Elements() {
				if err := visit.Later(s, child); err != nil {
					return false, err
				}
			}
			return true, nil
		})

		ok, err := visit.Run(els["root"])
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"root", "a", "b", "a1"}, order)
		assert.Equal(t, 4, visit.Len())
	})

	t.Run("deep chains do not recurse", func(t *testing.T) {
		g := model.NewGraph(folderSchema(t))
		first, err := g.New("Folder")
		require.NoError(t, err)
		last := first
		for i := 0; i < 10000; i++ {
			last, err = g.New("Folder", model.With("parent", last))
			require.NoError(t, err)
		}

		engine := NewEngine()
		var depth *Rule[int]
		depth = New(engine, "depth", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
			children, _ := e.Children("children")
			for _, child := range children.Elements() {
				if err := depth.Later(s, child); err != nil {
					return 0, err
				}
			}
			return 1, nil
		})

		_, err = depth.Run(first)
		require.NoError(t, err)
		_, ok := depth.Cached(last)
		assert.True(t, ok)
		assert.Equal(t, 10001, depth.Len())
	})

	t.Run("requires a session", func(t *testing.T) {
		_, els := tree(t)
		r := New(NewEngine(), "r", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
			return 0, nil
		})

		assert.ErrorIs(t, r.Later(nil, els["a"]), ErrNoSession)
	})
}

func TestSessionFailure(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()
	boom := errors.New("boom")

	fail := true
	calls := 0
	var visit *Rule[int]
	visit = New(engine, "visit", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
		calls++
		if name(t, e) == "b" && fail {
			return 0, boom
		}
		children, _ := e.Children("children")
		for _, child := range children.Elements() {
			if err := visit.Later(s, child); err != nil {
				return 0, err
			}
		}
		return 1, nil
	})

	_, err := visit.Run(els["root"])
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls, "a1 was queued after b and must be discarded")
	_, ok := visit.Cached(els["a1"])
	assert.False(t, ok)

	fail = false
	_, err = visit.Run(els["b"])
	require.NoError(t, err)
}

func TestTupleKeys(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()

	calls := 0
	pair := New(engine, "pair", func(s *Session, e *model.Element, args ...interface{}) (string, error) {
		calls++
		other := args[0].(*model.Element)
		return name(t, e) + "+" + name(t, other), nil
	})

	v1, err := pair.Run(els["a"], els["b"])
	require.NoError(t, err)
	v2, err := pair.Run(els["a"], els["a1"])
	require.NoError(t, err)
	assert.Equal(t, "a+b", v1)
	assert.Equal(t, "a+a1", v2)
	assert.Equal(t, 2, calls)

	// plain arguments are not part of the key
	label := New(engine, "label", func(s *Session, e *model.Element, args ...interface{}) (string, error) {
		return fmt.Sprint(args...), nil
	})
	first, err := label.Run(els["a"], "x")
	require.NoError(t, err)
	second, err := label.Run(els["a"], "y")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForgetAndReset(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()

	calls := 0
	count := New(engine, "count", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
		calls++
		return calls, nil
	})

	for _, n := range []string{"a", "b"} {
		_, err := count.Run(els[n])
		require.NoError(t, err)
	}
	_, err := count.Run(els["a"], els["b"])
	require.NoError(t, err)
	assert.Equal(t, 3, count.Len())

	count.Forget(els["b"])
	assert.Equal(t, 1, count.Len(), "entries keyed on b or on (a, b) are dropped")

	count.Reset()
	assert.Equal(t, 0, count.Len())

	got, err := count.Run(els["a"])
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestKeysAreGraphScoped(t *testing.T) {
	_, els1 := tree(t)
	_, els2 := tree(t)
	require.Equal(t, els1["a"].Handle(), els2["a"].Handle())

	calls := 0
	r := New(NewEngine(), "r", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
		calls++
		return 0, nil
	})
	_, err := r.Run(els1["a"])
	require.NoError(t, err)
	_, err = r.Run(els2["a"])
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestEngineSerializesSessions(t *testing.T) {
	g, _ := tree(t)
	engine := NewEngine()

	var active, overlap int32
	slow := New(engine, "slow", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
		if atomic.AddInt32(&active, 1) > 1 {
			atomic.StoreInt32(&overlap, 1)
		}
		defer atomic.AddInt32(&active, -1)
		return int(e.Handle()), nil
	})

	// callers serialize themselves by retrying while a session is active
	var wg sync.WaitGroup
	for _, e := range g.Elements() {
		wg.Add(1)
		go func(e *model.Element) {
			defer wg.Done()
			for {
				_, err := slow.Run(e)
				if errors.Is(err, ErrSessionActive) {
					runtime.Gosched()
					continue
				}
				assert.NoError(t, err)
				return
			}
		}(e)
	}
	wg.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&overlap))
	assert.Equal(t, 4, slow.Len())
	assert.False(t, engine.Active())
}

// within runs fn in a goroutine and fails the test if it does not return in time
func within(t *testing.T, fn func() error) error {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("rule application blocked")
		return nil
	}
}

func TestApply_NilSessionInsideBody(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()

	inner := New(engine, "inner", func(s *Session, e *model.Element, args ...interface{}) (string, error) {
		return name(t, e), nil
	})
	outer := New(engine, "outer", func(s *Session, e *model.Element, args ...interface{}) (string, error) {
		return inner.Apply(nil, e)
	})

	err := within(t, func() error {
		_, err := outer.Run(els["a"])
		return err
	})
	assert.ErrorIs(t, err, ErrNoSession)

	var te *TransformationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "inner", te.Rule)
	assert.False(t, engine.Active())
	assert.Equal(t, 0, outer.Len())
}

func TestRun_InsideBody(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()

	nested := New(engine, "nested", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
		return 1, nil
	})
	outer := New(engine, "outer", func(s *Session, e *model.Element, args ...interface{}) (int, error) {
		assert.True(t, engine.Active())
		return nested.Run(e)
	})

	err := within(t, func() error {
		_, err := outer.Run(els["a"])
		return err
	})
	assert.ErrorIs(t, err, ErrSessionActive)
	assert.False(t, engine.Active())

	// the engine is usable once the failed session has ended
	got, err := nested.Run(els["a"])
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestSession_Evaluations(t *testing.T) {
	_, els := tree(t)
	engine := NewEngine()

	// evaluations seen by the last body of each session
	seen := map[int]int{}
	var path *Rule[string]
	path = New(engine, "path", func(s *Session, e *model.Element, args ...interface{}) (string, error) {
		defer func() { seen[s.ID()] = s.Evaluations() }()
		parent, err := e.Ref("parent")
		if err != nil || parent == nil {
			return name(t, e), err
		}
		prefix, err := path.Apply(s, parent)
		return prefix + "/" + name(t, e), err
	})

	_, err := path.Run(els["a1"])
	require.NoError(t, err)
	_, err = path.Run(els["b"])
	require.NoError(t, err)

	// root is memoized by the first session
	assert.Equal(t, map[int]int{1: 3, 2: 1}, seen)
}
