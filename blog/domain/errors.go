package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredAttribute is returned when a post file has no
	// date_time_posted attribute.
	ErrMissingRequiredAttribute = errors.New("missing required attribute " + DateTimePostedKey)

	// ErrMalformedAttributeValue is returned when an attribute value cannot be
	// coerced to the type its key demands.
	ErrMalformedAttributeValue = errors.New("malformed attribute value")

	// ErrBodyStartsWithAttribute is returned by SaveNewPost when the body's
	// first line would be read back as an attribute.
	ErrBodyStartsWithAttribute = errors.New("post body starts with an attribute line")

	// ErrPostIDCollision is returned by SaveNewPost when the new post's id is
	// already taken.
	ErrPostIDCollision = errors.New("post id already exists")
)

// AttributeError describes a single attribute line that failed coercion.
type AttributeError struct {
	Key   string
	Value string
	Err   error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("attribute %q: cannot parse %q: %v", e.Key, e.Value, e.Err)
}

func (e *AttributeError) Unwrap() error { return e.Err }

func (e *AttributeError) Is(target error) bool {
	return target == ErrMalformedAttributeValue
}

// LoadDiagnostic records a post file that was skipped during a load.
type LoadDiagnostic struct {
	Path string
	Err  error
}
