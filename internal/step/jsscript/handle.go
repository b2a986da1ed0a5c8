package jsscript

import (
	"github.com/dop251/goja"

	"yqhp/pipeline-engine/internal/pipecontext"
)

// contextHandle exposes the pipeline context to pycode scripts as a live object:
// context['k'], context.k, assignment, delete, 'k' in context and Object.keys(context)
// all go straight to the underlying context.
type contextHandle struct {
	pctx *pipecontext.Context
	live *liveValues
}

var _ goja.DynamicObject = (*contextHandle)(nil)

func (h *contextHandle) Get(key string) goja.Value {
	v, _ := h.live.context(key)
	return v
}

func (h *contextHandle) Set(key string, val goja.Value) bool {
	h.pctx.Set(key, h.live.export(val))
	return true
}

func (h *contextHandle) Has(key string) bool {
	return h.pctx.Has(key)
}

func (h *contextHandle) Delete(key string) bool {
	h.pctx.Delete(key)
	return true
}

func (h *contextHandle) Keys() []string {
	return h.pctx.Keys()
}

// newContextHandle builds the `context` object. Helper methods live on its prototype,
// so a context key with the same name shadows the helper.
func newContextHandle(vm *goja.Runtime, pctx *pipecontext.Context) *goja.Object {
	live := newLiveValues(vm, pctx)
	proto := vm.NewObject()

	// get(key, default)
	_ = proto.Set("get", func(call goja.FunctionCall) goja.Value {
		if v, ok := live.context(call.Argument(0).String()); ok {
			return v
		}
		if len(call.Arguments) > 1 {
			return call.Arguments[1]
		}
		return goja.Undefined()
	})

	// has(key)
	_ = proto.Set("has", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(pctx.Has(call.Argument(0).String()))
	})

	// update(obj) 合并到上下文
	_ = proto.Set("update", func(call goja.FunctionCall) goja.Value {
		obj, ok := call.Argument(0).(*goja.Object)
		if !ok {
			panic(vm.NewTypeError("context.update() takes an object of key/value pairs"))
		}
		keys := obj.Keys()
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = live.export(obj.Get(k))
		}
		pctx.UpdatePairs(keys, values)
		return goja.Undefined()
	})

	// assertKeyHasValue(key, caller)
	_ = proto.Set("assertKeyHasValue", func(call goja.FunctionCall) goja.Value {
		caller := "pycode"
		if len(call.Arguments) > 1 {
			caller = call.Arguments[1].String()
		}
		if err := pctx.AssertKeyHasValue(call.Argument(0).String(), caller); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})

	handle := vm.NewDynamicObject(&contextHandle{pctx: pctx, live: live})
	_ = handle.SetPrototype(proto)
	return handle
}
