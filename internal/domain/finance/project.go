package finance

import (
	"context"
	"strings"
)

// ProjectDirectory answers whether a project name is known.
// Projects themselves are owned elsewhere.
type ProjectDirectory interface {
	Exists(ctx context.Context, project string) (bool, error)
}

// AllowAllProjects treats every project as known
type AllowAllProjects struct{}

// Exists always returns true
func (AllowAllProjects) Exists(context.Context, string) (bool, error) {
	return true, nil
}

// StaticProjectDirectory is a fixed, case-insensitive project list
type StaticProjectDirectory struct {
	names map[string]struct{}
}

// NewStaticProjectDirectory creates a directory from names.
// An empty list yields a directory that knows every project.
func NewStaticProjectDirectory(names []string) ProjectDirectory {
	if len(names) == 0 {
		return AllowAllProjects{}
	}
	d := &StaticProjectDirectory{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			d.names[strings.ToLower(n)] = struct{}{}
		}
	}
	return d
}

// Exists reports whether project is in the list
func (d *StaticProjectDirectory) Exists(_ context.Context, project string) (bool, error) {
	_, ok := d.names[strings.ToLower(strings.TrimSpace(project))]
	return ok, nil
}
