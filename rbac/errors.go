package rbac

import "errors"

// Error taxonomy shared by the rbac operations. Controllers map these
// to HTTP statuses: ErrNotFound -> 404, ErrPermissionDenied -> 403,
// ErrValidation -> 422, ErrConflict -> 409. All are recoverable at the
// request level; none leave partial state behind.
var (
	ErrNotFound         = errors.New("record not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("already exists")
)
