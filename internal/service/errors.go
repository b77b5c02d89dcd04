package service

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"yatube/internal/access"
	"yatube/internal/form"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrPermission   = errors.New("not the owner")
	ErrNotFound     = errors.New("not found")
)

// ValidationError carries the field-level messages of a rejected form.
type ValidationError struct {
	Fields form.Errors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid input: " + strings.Join(fields, ", ")
}

func invalid(errs form.Errors) error {
	if errs.Valid() {
		return nil
	}
	return &ValidationError{Fields: errs}
}

func fieldError(field, msg string) error {
	errs := form.Errors{}
	errs.Add(field, msg)
	return &ValidationError{Fields: errs}
}

// notFound maps gorm's record-not-found onto ErrNotFound and passes anything else through.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// decide turns an access decision into the service error taxonomy.
func decide(d access.Decision) error {
	switch d {
	case access.Allow:
		return nil
	case access.AuthRequired:
		return ErrAuthRequired
	default:
		return ErrPermission
	}
}
