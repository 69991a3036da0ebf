package cmsloader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig is returned when required CMS configuration is missing.
	ErrConfig = errors.New("cmsloader: missing Webiny configuration")
	// ErrNotFound is returned when a requested entry, author or post does not exist.
	ErrNotFound = errors.New("cmsloader: not found")
	// ErrSchemaValidation is wrapped by every *ValidationError.
	ErrSchemaValidation = errors.New("cmsloader: schema validation failed")
	// ErrSourceConflict is returned when an entry ID is already owned by
	// another source.
	ErrSourceConflict = errors.New("cmsloader: entry owned by another source")
)

// ValidationIssue is a single schema failure at an instance location.
type ValidationIssue struct {
	Location string
	Message  string
}

// ValidationError reports why an entry did not match the entry schema.
type ValidationError struct {
	ID     string
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		loc := issue.Location
		if !strings.HasPrefix(loc, "#") {
			loc = "#" + loc
		}
		parts = append(parts, fmt.Sprintf("%s: %s", loc, issue.Message))
	}
	msg := ErrSchemaValidation.Error()
	if e.ID != "" {
		msg += " for " + e.ID
	}
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, "; ")
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrSchemaValidation
}
