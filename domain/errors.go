package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSkippedDependency marks packages skipped because an in-graph
	// dependency failed to build or upload.
	ErrSkippedDependency = errors.New("skipped due to dependency failure")

	// ErrCancelled marks packages that never started because the operator
	// cancelled the run.
	ErrCancelled = errors.New("cancelled by operator")
)

// MalformedSpecError is returned when a recipe is missing required fields
// or violates a spec invariant (duplicate name, self-dependency).
type MalformedSpecError struct {
	Path   string
	Reason string
}

func (e *MalformedSpecError) Error() string {
	return fmt.Sprintf("malformed recipe %q: %s", e.Path, e.Reason)
}

// UnreadableSourceError is returned when a recipe file cannot be read
// or parsed at all.
type UnreadableSourceError struct {
	Path string
	Err  error
}

func (e *UnreadableSourceError) Error() string {
	return fmt.Sprintf("unreadable recipe %q: %v", e.Path, e.Err)
}

func (e *UnreadableSourceError) Unwrap() error { return e.Err }

// CycleError is returned when the in-graph dependencies form a cycle.
// Names holds the full ordered loop, each member exactly once.
type CycleError struct {
	Names []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Names, " -> "))
}

// BuildError is returned when the external builder exits non-zero.
type BuildError struct {
	Package  string
	ExitCode int
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build of %q failed with exit code %d: %v", e.Package, e.ExitCode, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// UploadError is returned when artifact upload fails. The message never
// contains the credential.
type UploadError struct {
	Package string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed: %v", e.Package, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
