// Package services registers every available job type with the scheduler.
package services

import (
	"fmt"
	"slices"
	"sort"

	"autodb/internal/services/image"
	"autodb/internal/task"
)

// Deps are the shared dependencies job types are built from.
type Deps struct {
	Store task.Runner

	// Enabled limits registration to these service names. Empty means all.
	Enabled []string

	Image image.Config
}

type factory func(Deps) (task.Task, error)

var available = map[string]factory{
	image.ServiceName: func(d Deps) (task.Task, error) {
		return image.NewTask(d.Store, d.Image)
	},
}

// Available lists the names of every known job type.
func Available() []string {
	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a job type this build can run.
func Known(name string) bool {
	_, ok := available[name]
	return ok
}

// Register adds the enabled job types to b in the order they are listed.
func Register(b *task.RegistryBuilder, deps Deps) error {
	names := deps.Enabled
	if len(names) == 0 {
		names = Available()
	}

	for _, name := range names {
		newTask, ok := available[name]
		if !ok {
			return fmt.Errorf("unknown service %q (available: %v)", name, Available())
		}
		t, err := newTask(deps)
		if err != nil {
			return fmt.Errorf("failed to create service %s: %w", name, err)
		}
		b.Add(t)
	}
	return nil
}

// Enabled filters names down to known services, keeping order and dropping
// duplicates.
func Enabled(names []string) []string {
	var out []string
	for _, n := range names {
		if Known(n) && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
