package step

import (
	"fmt"
	"sort"
	"sync"
)

// Registry 管理步骤的注册和查找。
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
}

// NewRegistry 创建一个新的步骤注册表。
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
	}
}

// Register 注册步骤。
// 如果同名步骤已注册，则返回错误。
func (r *Registry) Register(s Step) error {
	if s == nil {
		return fmt.Errorf("cannot register nil step")
	}

	name := s.Name()
	if name == "" {
		return fmt.Errorf("step name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[name]; exists {
		return fmt.Errorf("step '%s' is already registered", name)
	}

	r.steps[name] = s
	return nil
}

// MustRegister 注册步骤，如果出错则 panic。
func (r *Registry) MustRegister(s Step) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// RegisterAlias 为已注册的步骤创建别名。
func (r *Registry) RegisterAlias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.steps[target]
	if !exists {
		return fmt.Errorf("cannot alias '%s': step '%s' is not registered", alias, target)
	}
	if _, taken := r.steps[alias]; taken {
		return fmt.Errorf("step '%s' is already registered", alias)
	}
	r.steps[alias] = s
	return nil
}

// Unregister 移除步骤。
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.steps, name)
}

// Get 按名称获取步骤。
func (r *Registry) Get(name string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.steps[name]
	if !exists {
		return nil, NewNotFoundError(name)
	}
	return s, nil
}

// Has 检查步骤是否已注册。
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.steps[name]
	return exists
}

// Names 返回排序后的已注册名称，包括别名。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry pairs a registered name with its step; aliases share the step value.
type Entry struct {
	Name string
	Step Step
}

// List 返回按名称排序的注册项。
func (r *Registry) List() []Entry {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if s, ok := r.steps[name]; ok {
			entries = append(entries, Entry{Name: name, Step: s})
		}
	}
	return entries
}

// Count 返回注册项数量。
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// DefaultRegistry 是全局默认步骤注册表。
var DefaultRegistry = NewRegistry()

// Register 在默认注册表中注册步骤。
func Register(s Step) error {
	return DefaultRegistry.Register(s)
}

// MustRegister 在默认注册表中注册步骤，如果出错则 panic。
func MustRegister(s Step) {
	DefaultRegistry.MustRegister(s)
}

// Get 从默认注册表获取步骤。
func Get(name string) (Step, error) {
	return DefaultRegistry.Get(name)
}
