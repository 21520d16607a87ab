package models

import "fmt"

// PathErrorKind classifies why a supplied path could not be used
type PathErrorKind string

const (
	// PathNotFound indicates the path does not exist
	PathNotFound PathErrorKind = "not_found"
	// PermissionDenied indicates the path exists but cannot be read
	PermissionDenied PathErrorKind = "permission_denied"
	// NotADirectory indicates a scan root that is not a directory
	NotADirectory PathErrorKind = "not_a_directory"
)

// PathError reports a scan root that could not be enumerated.
// Callers may skip the offending root and continue with the rest.
type PathError struct {
	Path string
	Kind PathErrorKind
	Err  error
}

func (e *PathError) Error() string {
	switch e.Kind {
	case PathNotFound:
		return fmt.Sprintf("path does not exist: %s", e.Path)
	case PermissionDenied:
		return fmt.Sprintf("permission denied: %s", e.Path)
	case NotADirectory:
		return fmt.Sprintf("not a directory: %s", e.Path)
	default:
		return fmt.Sprintf("cannot access path: %s", e.Path)
	}
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ContentError reports a file that became unreadable between the walk's
// stat and the hash pass (deleted, permission revoked, truncated).
// The file is dropped from grouping; the scan continues.
type ContentError struct {
	Path string
	Err  error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content unavailable: %s: %v", e.Path, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// ValidationError represents an invalid configuration value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
