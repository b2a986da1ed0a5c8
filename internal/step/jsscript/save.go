package jsscript

import (
	"fmt"

	"github.com/dop251/goja"

	"yqhp/pipeline-engine/internal/pipecontext"
)

// SaveLookupError is thrown into the script when save() is asked for a name that
// is not bound in the step's scratch scope.
type SaveLookupError struct {
	Name string
}

// Error implements the error interface.
func (e *SaveLookupError) Error() string {
	return fmt.Sprintf("Trying to save '%s', but can't find it in the py step scope. "+
		"Remember it should be save('key'), not save(key) - mind the quotes.", e.Name)
}

// newSave returns the save bridge bound to one namespace and its context.
//
//	save('a', 'b')         // copy scratch bindings a and b
//	save({total: a + b})   // explicit key/value pairs
//	save('a', {b: 2})      // both
func newSave(vm *goja.Runtime, ns *namespace, pctx *pipecontext.Context) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var (
			keys   []string
			values []any
		)

		for _, arg := range call.Arguments {
			switch a := arg.(type) {
			case goja.String:
				name := a.String()
				v, ok := ns.Scratch(name)
				if !ok {
					panic(vm.NewGoError(&SaveLookupError{Name: name}))
				}
				keys = append(keys, name)
				values = append(values, ns.live.export(v))
			case *goja.Object:
				if a.ClassName() != "Object" {
					panic(vm.NewTypeError("save() takes key names or an object of key/value pairs, got %s", a.ClassName()))
				}
				for _, k := range a.Keys() {
					keys = append(keys, k)
					values = append(values, ns.live.export(a.Get(k)))
				}
			default:
				panic(vm.NewTypeError("save() takes key names or an object of key/value pairs, got %s", arg.String()))
			}
		}

		pctx.UpdatePairs(keys, values)
		return goja.Undefined()
	}
}
