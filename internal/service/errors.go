package service

import "errors"

// ExtractionFailedError is the import-flow boundary error. Reason is safe to
// show to the end user.
type ExtractionFailedError struct {
	Reason string
	Err    error
}

func (e *ExtractionFailedError) Error() string {
	return e.Reason
}

func (e *ExtractionFailedError) Unwrap() error { return e.Err }

// ErrImportLimitReached means a free-tier user has exhausted their monthly
// import allowance. The import pipelines hard-stop on this before any
// extraction work.
var ErrImportLimitReached = errors.New("monthly import limit reached")

// ErrRecipeNotReady means a cooking session was requested for a recipe that
// is still a processing placeholder.
var ErrRecipeNotReady = errors.New("recipe is still processing")

// ErrNotRecipeOwner means the caller does not own the addressed recipe.
var ErrNotRecipeOwner = errors.New("recipe does not belong to this user")
