package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrDerivedField    = errors.New("field is computed and cannot be set")
	ErrInvalidPath     = errors.New("invalid field path")
	ErrItemOutOfRange  = errors.New("line item index out of range")
	ErrNoLineItems     = errors.New("voucher type has no line items")
	ErrInvalidDateSpan = errors.New("To date cannot be earlier than from date")
)

// ValidationError carries field path -> user message for every field that failed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages(), ", ")
}

// Messages returns the field messages ordered by path.
func (e *ValidationError) Messages() []string {
	paths := make([]string, 0, len(e.Fields))
	for p := range e.Fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, e.Fields[p])
	}
	return out
}

func (e *ValidationError) add(path, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[path]; !ok {
		e.Fields[path] = message
	}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
