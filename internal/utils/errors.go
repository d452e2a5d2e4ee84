package utils

import (
	"errors"
	"fmt"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrFolderNotFound returns an error for when a folder is not found.
func ErrFolderNotFound(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("list not found: %s", name),
		Suggestion: fmt.Sprintf("Create it with 'taskdeck folder create %s' or run 'taskdeck folder list'", name),
	}
}

// ErrTaskNotFound returns an error for when a task is not found.
func ErrTaskNotFound(searchTerm string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("task not found: %s", searchTerm),
		Suggestion: "Check the search term or use 'taskdeck list' to see all tasks",
	}
}

// ErrImportUnreadable returns an error for a file that could not be parsed.
func ErrImportUnreadable(path string, err error) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("could not read %s: %w", path, err),
		Suggestion: "Make sure the file is a valid .xlsx workbook",
	}
}

// ErrImportEmpty returns an error for a workbook with no importable rows.
func ErrImportEmpty(path string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no tasks found in %s", path),
		Suggestion: "The first sheet needs a Title column with at least one row",
	}
}

// ErrSyncNotEnabled returns an error when sync is not configured.
func ErrSyncNotEnabled() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("sync is not enabled"),
		Suggestion: "Enable sync in your config file and run 'taskdeck login'",
	}
}

// ErrCredentialsNotFound returns an error when the remote token is missing.
func ErrCredentialsNotFound(account string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("credentials not found for %s", account),
		Suggestion: "Run 'taskdeck login' to store a token",
	}
}
