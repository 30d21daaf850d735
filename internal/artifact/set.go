// Package artifact provides the local artifact sets chains start from.
package artifact

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/specialistvlad/transformgrid/internal/task"
	"github.com/specialistvlad/transformgrid/internal/transform"
)

// CategoryArtifactResolution is the ResolveError category for files that
// cannot be read.
const CategoryArtifactResolution = "artifact resolution"

// Set is a named group of files on the local disk, optionally produced by
// tasks.
type Set struct {
	name      string
	files     []string
	producers task.Refs
}

var _ transform.ArtifactSet = (*Set)(nil)

// NewSet returns a set of files produced by the named tasks.
func NewSet(name string, files []string, producers []string) *Set {
	return &Set{name: name, files: slices.Clone(files), producers: task.Refs(producers)}
}

func (s *Set) DisplayName() string { return s.name }

// TaskDependencies returns the producing tasks.
func (s *Set) TaskDependencies() any { return s.producers }

// CalculateSubject checks that every file exists and is a regular file. Each
// bad file becomes one cause of the returned *transform.ResolveError.
func (s *Set) CalculateSubject(ctx context.Context) (*transform.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var causes []error
	for _, f := range s.files {
		info, err := os.Stat(f)
		switch {
		case err != nil:
			causes = append(causes, err)
		case !info.Mode().IsRegular():
			causes = append(causes, fmt.Errorf("%s is not a regular file", f))
		}
	}
	if len(causes) > 0 {
		return nil, transform.NewResolveError(fmt.Sprintf("all files of %s", s.name), s.name, CategoryArtifactResolution, causes...)
	}
	return transform.NewSubject(s.name, s.files), nil
}

func (s *Set) String() string { return s.name }
