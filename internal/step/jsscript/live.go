package jsscript

import (
	"reflect"
	"slices"
	"strconv"

	"github.com/dop251/goja"

	"yqhp/pipeline-engine/internal/pipecontext"
)

// holder is a place a list value can live in: the context, a map or another list.
type holder interface {
	load(key string) (any, bool)
	store(key string, v any)
}

type slot struct {
	h   holder
	key string
}

// liveValues turns context data into script values for one invocation.
//
// []any and map[string]any are wrapped so that mutation from the script lands in the
// data the context holds. A wrapper is handed out again for as long as its slot still
// holds the same value, so `items === items` is true.
type liveValues struct {
	vm    *goja.Runtime
	root  *contextHolder
	lists map[slot]*liveList
	maps  map[uintptr]*goja.Object
}

func newLiveValues(vm *goja.Runtime, pctx *pipecontext.Context) *liveValues {
	return &liveValues{
		vm:    vm,
		root:  &contextHolder{pctx: pctx},
		lists: make(map[slot]*liveList),
		maps:  make(map[uintptr]*goja.Object),
	}
}

// context returns the script value of a context entry.
func (l *liveValues) context(key string) (goja.Value, bool) {
	v, ok := l.root.load(key)
	if !ok {
		return nil, false
	}
	return l.wrap(slot{h: l.root, key: key}, v), true
}

func (l *liveValues) wrap(s slot, v any) goja.Value {
	switch x := v.(type) {
	case []any:
		if list, ok := l.lists[s]; ok && sameList(list.items, x) {
			return list.obj
		}
		list := &liveList{live: l, slot: s, items: x}
		list.obj = l.vm.NewDynamicArray(list)
		l.lists[s] = list
		return list.obj
	case map[string]any:
		if x == nil {
			return goja.Null()
		}
		p := reflect.ValueOf(x).Pointer()
		if obj, ok := l.maps[p]; ok {
			return obj
		}
		obj := l.vm.NewDynamicObject(&liveMap{live: l, m: x})
		l.maps[p] = obj
		return obj
	}
	return l.vm.ToValue(v)
}

// export converts a script value to a plain Go value. undefined and null become nil,
// wrapped lists and maps give back the data they wrap.
func (l *liveValues) export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return unwrap(v.Export(), make(map[uintptr]bool))
}

func unwrap(v any, seen map[uintptr]bool) any {
	switch x := v.(type) {
	case *liveList:
		return x.items
	case *liveMap:
		return x.m
	case []any:
		if len(x) == 0 || seen[reflect.ValueOf(x).Pointer()] {
			return x
		}
		seen[reflect.ValueOf(x).Pointer()] = true
		for i, e := range x {
			x[i] = unwrap(e, seen)
		}
	case map[string]any:
		if x == nil || seen[reflect.ValueOf(x).Pointer()] {
			return x
		}
		seen[reflect.ValueOf(x).Pointer()] = true
		for k, e := range x {
			x[k] = unwrap(e, seen)
		}
	}
	return v
}

// sameList reports whether a and b are the same slice header view.
func sameList(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

type contextHolder struct {
	pctx *pipecontext.Context
}

func (c *contextHolder) load(key string) (any, bool) { return c.pctx.Get(key) }
func (c *contextHolder) store(key string, v any)     { c.pctx.Set(key, v) }

// liveList is the script array over a []any. Element writes go into the shared
// backing array; a length change stores the new slice back into its slot, unless
// the slot has been rebound since.
type liveList struct {
	live  *liveValues
	slot  slot
	items []any
	obj   *goja.Object
}

var _ goja.DynamicArray = (*liveList)(nil)

func (a *liveList) Len() int {
	return len(a.items)
}

func (a *liveList) Get(idx int) goja.Value {
	if idx < 0 || idx >= len(a.items) {
		return nil
	}
	return a.live.wrap(slot{h: a, key: strconv.Itoa(idx)}, a.items[idx])
}

func (a *liveList) Set(idx int, val goja.Value) bool {
	if idx < 0 {
		return false
	}
	if idx >= len(a.items) {
		a.resize(idx + 1)
	}
	a.items[idx] = a.live.export(val)
	return true
}

func (a *liveList) SetLen(n int) bool {
	if n < 0 {
		return false
	}
	a.resize(n)
	return true
}

func (a *liveList) resize(n int) {
	if n == len(a.items) {
		return
	}
	cur, ok := a.slot.h.load(a.slot.key)
	curList, isList := cur.([]any)
	bound := ok && isList && sameList(curList, a.items)

	if old := len(a.items); n < old {
		a.items = a.items[:n]
	} else {
		a.items = slices.Grow(a.items, n-old)[:n]
		clear(a.items[old:])
	}
	if bound {
		a.slot.h.store(a.slot.key, a.items)
	}
}

func (a *liveList) load(key string) (any, bool) {
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 || idx >= len(a.items) {
		return nil, false
	}
	return a.items[idx], true
}

func (a *liveList) store(key string, v any) {
	if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(a.items) {
		a.items[idx] = v
	}
}

// liveMap is the script object over a map[string]any nested in the context.
type liveMap struct {
	live *liveValues
	m    map[string]any
}

var _ goja.DynamicObject = (*liveMap)(nil)

func (o *liveMap) Get(key string) goja.Value {
	v, ok := o.m[key]
	if !ok {
		return nil
	}
	return o.live.wrap(slot{h: o, key: key}, v)
}

func (o *liveMap) Set(key string, val goja.Value) bool {
	o.m[key] = o.live.export(val)
	return true
}

func (o *liveMap) Has(key string) bool {
	_, ok := o.m[key]
	return ok
}

func (o *liveMap) Delete(key string) bool {
	delete(o.m, key)
	return true
}

// Keys are sorted; Go map order is random.
func (o *liveMap) Keys() []string {
	keys := make([]string, 0, len(o.m))
	for k := range o.m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (o *liveMap) load(key string) (any, bool) {
	v, ok := o.m[key]
	return v, ok
}

func (o *liveMap) store(key string, v any) {
	o.m[key] = v
}
