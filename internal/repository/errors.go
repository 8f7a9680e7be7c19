// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific error codes. For example, ErrNotFound
// indicates that a lookup by identifier matched no row, while
// ErrConflict signals that a write cannot proceed due to dependent
// records.
package repository

import "errors"

// ErrNotFound is returned when a rule, assignment or service lookup by
// identifier matches no row. Handlers should translate this into an
// HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as deleting a hospitality service that still
// has active assignments referencing it. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
