package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")

	// ErrInvalidRepositoryReference means a project's GitHub URL cannot be
	// split into owner and repository.
	ErrInvalidRepositoryReference = errors.New("invalid repository reference")

	// ErrProjectHasNoRepository means the project exists but is not linked
	// to a GitHub repository.
	ErrProjectHasNoRepository = errors.New("project has no repository")

	// ErrUpstreamUnavailable covers every failed call to GitHub.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	ErrSummarizationFailed = errors.New("summarization failed")
)

type AppError struct {
	Err     error  // sentinel
	Message string // human-readable message
	Field   string // optional field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func InvalidRepositoryReference(ref string) *AppError {
	return &AppError{
		Err:     ErrInvalidRepositoryReference,
		Message: fmt.Sprintf("invalid GitHub repository reference %q", ref),
	}
}

func ProjectHasNoRepository(projectID string) *AppError {
	return &AppError{
		Err:     ErrProjectHasNoRepository,
		Message: fmt.Sprintf("project %s has no GitHub URL", projectID),
	}
}

// Upstream wraps a failed GitHub call so that callers can treat it as
// transient with errors.Is(err, ErrUpstreamUnavailable).
func Upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}
