package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and services return these
// (optionally wrapped) so callers can branch with errors.Is and translate
// them into domain errors or typed verification outcomes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: unique constraint or concurrent create collision
// - ErrInvalidState: entity in wrong lifecycle state for the operation
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
