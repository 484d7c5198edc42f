// Package apperr holds the error taxonomy shared by checkout, the
// reconciliation engine and the HTTP layer.
//
// Every error carries a Code so handlers can map it to a response without
// string matching. Use the IsX helpers; they see through wrapping.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation Code = "VALIDATION"
	CodeNotFound   Code = "NOT_FOUND"
	CodeExternal   Code = "EXTERNAL_SERVICE"
	CodeConflict   Code = "CONFLICT"
)

// ValidationError is a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", CodeValidation, e.Field, e.Message)
}

// NotFoundError is a lookup miss on an order, vendor, address or session.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %q", CodeNotFound, e.Entity, e.ID)
}

// ExternalServiceError is a failed call to a collaborator such as the
// payment processor. It is always safe to retry.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", CodeExternal, e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ConflictError is a transition rejected because of the order's current
// state, its ownership, or a concurrent writer. State is unchanged.
type ConflictError struct {
	OrderID string
	Status  string
	Event   string
	Reason  string
}

func (e *ConflictError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s on order %s (status=%s): %s", CodeConflict, e.Event, e.OrderID, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s: %s on order %s: %s", CodeConflict, e.Event, e.OrderID, e.Reason)
}

func Validation(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func External(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}

func Conflict(orderID, status, event, reason string) *ConflictError {
	return &ConflictError{OrderID: orderID, Status: status, Event: event, Reason: reason}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsExternal(err error) bool {
	var e *ExternalServiceError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// CodeOf returns the taxonomy code of err, or "" for unclassified errors.
func CodeOf(err error) Code {
	switch {
	case IsValidation(err):
		return CodeValidation
	case IsNotFound(err):
		return CodeNotFound
	case IsExternal(err):
		return CodeExternal
	case IsConflict(err):
		return CodeConflict
	}
	return ""
}
