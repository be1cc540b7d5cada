package domain

import "errors"

// ErrSessionComplete is returned when a transition is requested on a session that already completed.
var ErrSessionComplete = errors.New("session already complete")

// ErrPageMismatch is returned when answers are submitted for a page other than the current one.
var ErrPageMismatch = errors.New("submitted page is not the current page")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrDefinitionNotFound is returned when a loader has no definition for the requested funnel.
var ErrDefinitionNotFound = errors.New("definition not found")
