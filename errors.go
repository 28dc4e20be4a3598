package xpath

import (
	"errors"
	"fmt"
)

// DOM-3 XPath exception codes.
const (
	CodeInvalidExpr = 51
	CodeType        = 52
)

var errArgument = errors.New("invalid number of argument(s)")

// Error is the structured error surfaced for invalid expressions
// (code 51) and type violations (code 52). Other evaluation failures
// are plain errors naming the offending identifier.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func invalidExpr(expr, cause string) error {
	return &Error{
		Code:    CodeInvalidExpr,
		Message: fmt.Sprintf("%s: invalid expression: %s", expr, cause),
	}
}

func typeError(cause string) error {
	return &Error{
		Code:    CodeType,
		Message: cause,
	}
}

// IsInvalidExpr reports whether err is the invalid-expression error.
func IsInvalidExpr(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeInvalidExpr
}

// IsTypeError reports whether err is the type error.
func IsTypeError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeType
}
