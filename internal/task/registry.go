package task

import (
	"errors"
	"fmt"
)

// Registry is the fixed set of tasks the scheduler polls. It is read-only
// once built and keeps registration order.
type Registry struct {
	tasks  []Task
	byName map[string]Task
}

// Tasks returns the registered tasks in registration order.
func (r *Registry) Tasks() []Task {
	out := make([]Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Get looks a task up by name.
func (r *Registry) Get(name string) (Task, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns the task names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tasks))
	for i, t := range r.tasks {
		names[i] = t.Name()
	}
	return names
}

// Len is the number of registered tasks.
func (r *Registry) Len() int {
	return len(r.tasks)
}

// RegistryBuilder collects tasks before the registry is frozen.
type RegistryBuilder struct {
	tasks []Task
}

func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// Add appends a task. Validation happens in Build.
func (b *RegistryBuilder) Add(t Task) *RegistryBuilder {
	b.tasks = append(b.tasks, t)
	return b
}

// Build validates the collected tasks and returns the registry. Nil tasks,
// empty names and duplicate names are all reported together.
func (b *RegistryBuilder) Build() (*Registry, error) {
	var errs []error
	r := &Registry{byName: make(map[string]Task, len(b.tasks))}

	for i, t := range b.tasks {
		if t == nil {
			errs = append(errs, fmt.Errorf("task %d is nil", i))
			continue
		}
		name := t.Name()
		if name == "" {
			errs = append(errs, fmt.Errorf("task %d has an empty name", i))
			continue
		}
		if _, dup := r.byName[name]; dup {
			errs = append(errs, fmt.Errorf("task %q registered more than once", name))
			continue
		}
		r.byName[name] = t
		r.tasks = append(r.tasks, t)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}
