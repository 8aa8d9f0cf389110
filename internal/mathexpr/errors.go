package mathexpr

import "fmt"

// ErrorCode classifies an expression error.
type ErrorCode string

// Error codes. S-codes are raised while parsing, the others while evaluating.
const (
	ErrStringNotClosed  ErrorCode = "S0101"
	ErrUnexpectedEnd    ErrorCode = "S0104"
	ErrSyntaxError      ErrorCode = "S0201"
	ErrExpectedToken    ErrorCode = "S0202"
	ErrArgumentCount    ErrorCode = "T0410"
	ErrCannotConvert    ErrorCode = "T1001"
	ErrInvalidOperation ErrorCode = "T1003"
	ErrUndefinedSymbol  ErrorCode = "U1001"
	ErrUndefinedFunc    ErrorCode = "U1002"
)

// Error is a structured parse or evaluation error.
// Position is the byte offset in the source, or -1 when unknown.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Err      error
}

// NewError creates a new expression error.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s (char %d)", e.Message, e.Position+1)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
