package jsscript

import (
	"github.com/dop251/goja"

	"yqhp/pipeline-engine/internal/pipecontext"
)

// namespace is the two-tier scope a py script runs in: scratch bindings over a
// read-through view of the pipeline context. It backs the runtime's global object,
// so every top-level declaration or implicit global assignment lands in scratch.
type namespace struct {
	pctx    *pipecontext.Context
	live    *liveValues
	scratch map[string]goja.Value
	order   []string
}

var _ goja.DynamicObject = (*namespace)(nil)

func newNamespace(vm *goja.Runtime, pctx *pipecontext.Context) *namespace {
	return &namespace{
		pctx:    pctx,
		live:    newLiveValues(vm, pctx),
		scratch: make(map[string]goja.Value),
	}
}

// Lookup resolves name in scratch first, then in the context.
func (n *namespace) Lookup(name string) (goja.Value, bool) {
	if v, ok := n.scratch[name]; ok {
		return v, true
	}
	return n.live.context(name)
}

// Assign binds name in scratch. The context is never written.
func (n *namespace) Assign(name string, v goja.Value) {
	if _, ok := n.scratch[name]; !ok {
		n.order = append(n.order, name)
	}
	n.scratch[name] = v
}

// Scratch returns the scratch binding for name only.
func (n *namespace) Scratch(name string) (goja.Value, bool) {
	v, ok := n.scratch[name]
	return v, ok
}

// Get implements goja.DynamicObject. nil defers to the prototype (built-ins).
func (n *namespace) Get(key string) goja.Value {
	v, _ := n.Lookup(key)
	return v
}

// Set implements goja.DynamicObject.
func (n *namespace) Set(key string, val goja.Value) bool {
	n.Assign(key, val)
	return true
}

// Has implements goja.DynamicObject.
func (n *namespace) Has(key string) bool {
	if _, ok := n.scratch[key]; ok {
		return true
	}
	return n.pctx.Has(key)
}

// Delete implements goja.DynamicObject. Only scratch bindings can be removed.
func (n *namespace) Delete(key string) bool {
	if _, ok := n.scratch[key]; !ok {
		return true
	}
	delete(n.scratch, key)
	for i, k := range n.order {
		if k == key {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys implements goja.DynamicObject: scratch names, then context names not shadowed.
func (n *namespace) Keys() []string {
	keys := make([]string, 0, len(n.order)+n.pctx.Len())
	keys = append(keys, n.order...)
	for _, k := range n.pctx.Keys() {
		if _, shadowed := n.scratch[k]; !shadowed {
			keys = append(keys, k)
		}
	}
	return keys
}
