package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ===== Error model (components / beneficiaries / ledger / auth 共通) =====

type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeInvalidQuantity   Code = "INVALID_QUANTITY"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeAlreadyReturned   Code = "ALREADY_RETURNED"
	CodeMissingIdentifier Code = "MISSING_IDENTIFIER"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeConflict          Code = "CONFLICT"
	CodeHasTransactions   Code = "HAS_TRANSACTIONS"
	CodeInternal          Code = "INTERNAL"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s(%s): %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NotFound(msg string) *Error        { return &Error{Code: CodeNotFound, Message: msg} }
func Invalid(msg string) *Error         { return &Error{Code: CodeInvalidArgument, Message: msg} }
func InvalidQuantity(msg string) *Error { return &Error{Code: CodeInvalidQuantity, Message: msg} }
func Conflict(msg string) *Error        { return &Error{Code: CodeConflict, Message: msg} }
func HasTransactions(msg string) *Error { return &Error{Code: CodeHasTransactions, Message: msg} }
func Unauthorized(msg string) *Error    { return &Error{Code: CodeUnauthorized, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Code: CodeForbidden, Message: msg} }
func Internal(msg string) *Error        { return &Error{Code: CodeInternal, Message: msg} }

func InsufficientStock(requested, available int) *Error {
	return &Error{
		Code:    CodeInsufficientStock,
		Message: fmt.Sprintf("only %d items available, requested %d", available, requested),
	}
}

func AlreadyReturned() *Error {
	return &Error{Code: CodeAlreadyReturned, Message: "this item has already been returned"}
}

func MissingIdentifier(field string) *Error {
	return &Error{
		Code:    CodeMissingIdentifier,
		Message: field + " is required for this category",
		Field:   field,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsUnauthorized covers both a missing actor and an insufficient role.
func IsUnauthorized(err error) bool {
	c := CodeOf(err)
	return c == CodeUnauthorized || c == CodeForbidden
}

func ToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeInvalidQuantity:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInsufficientStock, CodeAlreadyReturned, CodeHasTransactions:
		return http.StatusConflict
	case CodeMissingIdentifier:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
