// Package pipecontext provides the shared context that every pipeline step reads and
// mutates. The context is an ordered string-keyed mapping created by the engine before
// the first step runs; steps receive it by reference and change it in place.
package pipecontext

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Context is the pipeline-wide mutable key/value store.
// It is not safe for concurrent use; the engine runs one step at a time against it.
type Context struct {
	entries *orderedmap.OrderedMap[string, any]
}

// New creates an empty context.
func New() *Context {
	return &Context{entries: orderedmap.New[string, any]()}
}

// NewFromMap creates a context holding vars. Keys are inserted in sorted order so the
// resulting iteration order does not depend on Go map ordering.
func NewFromMap(vars map[string]any) *Context {
	c := New()
	c.Update(vars)
	return c
}

// Has reports whether key is present, regardless of its value.
func (c *Context) Has(key string) bool {
	_, ok := c.entries.Get(key)
	return ok
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	return c.entries.Get(key)
}

// Value returns the value stored under key, or nil.
func (c *Context) Value(key string) any {
	return c.entries.Value(key)
}

// Set stores value under key. An existing key keeps its position.
func (c *Context) Set(key string, value any) {
	c.entries.Set(key, value)
}

// Delete removes key and reports whether it was present.
func (c *Context) Delete(key string) bool {
	_, ok := c.entries.Delete(key)
	return ok
}

// Update merges vars into the context, overwriting existing keys.
// New keys are appended in sorted order.
func (c *Context) Update(vars map[string]any) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.entries.Set(k, vars[k])
	}
}

// UpdatePairs merges parallel key/value slices, keeping the caller's order.
func (c *Context) UpdatePairs(keys []string, values []any) {
	for i, k := range keys {
		c.entries.Set(k, values[i])
	}
}

// Keys returns the keys in insertion order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of entries.
func (c *Context) Len() int {
	return c.entries.Len()
}

// ToMap returns a shallow copy of the entries, for serialization.
func (c *Context) ToMap() map[string]any {
	out := make(map[string]any, c.entries.Len())
	for pair := c.entries.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// MarshalJSON encodes the context as a JSON object in insertion order.
func (c *Context) MarshalJSON() ([]byte, error) {
	return c.entries.MarshalJSON()
}

// AssertKeyExists fails when key is absent.
func (c *Context) AssertKeyExists(key, caller string) error {
	if !c.Has(key) {
		return newMissingKeyError(key, caller)
	}
	return nil
}

// AssertKeyHasValue fails when key is absent or when its value is falsy: nil, false,
// numeric zero, the empty string or an empty collection.
func (c *Context) AssertKeyHasValue(key, caller string) error {
	val, ok := c.Get(key)
	if !ok {
		return newMissingKeyError(key, caller)
	}
	if !Truthy(val) {
		return newEmptyKeyError(key, caller)
	}
	return nil
}

// AssertKeysHaveValues runs AssertKeyHasValue for each key and returns the first failure.
func (c *Context) AssertKeysHaveValues(caller string, keys ...string) error {
	for _, key := range keys {
		if err := c.AssertKeyHasValue(key, caller); err != nil {
			return err
		}
	}
	return nil
}
