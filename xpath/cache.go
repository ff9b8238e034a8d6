package xpath

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// compiledCacheSize bounds how many distinct XPath source strings stay
// compiled, so a caller that builds expressions from varying user input
// can't grow this cache without bound.
const compiledCacheSize = 256

// Engine compiles and evaluates XPath 1.0 expressions against any
// NodeAccess implementation, caching compiled expressions by source text.
// groupcache's lru.Cache isn't safe for concurrent use on its own, so
// Engine wraps it with a mutex.
type Engine struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewEngine returns a ready-to-use Engine with a bounded compiled-expression
// cache.
func NewEngine() *Engine {
	return &Engine{cache: lru.New(compiledCacheSize)}
}

// Compile returns the compiled form of src, reusing a cached compilation
// when src has been compiled before.
func (e *Engine) Compile(src string) (exprNode, error) {
	e.mu.Lock()
	if v, ok := e.cache.Get(src); ok {
		e.mu.Unlock()
		return v.(exprNode), nil
	}
	e.mu.Unlock()

	expr, err := compile(src)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache.Add(src, expr)
	e.mu.Unlock()
	return expr, nil
}

// Eval compiles src (or reuses a cached compilation) and evaluates it
// against context within doc.
func (e *Engine) Eval(doc NodeAccess, src string, context NodeId) (Value, error) {
	expr, err := e.Compile(src)
	if err != nil {
		return Value{}, err
	}
	return Eval(doc, expr, context)
}
