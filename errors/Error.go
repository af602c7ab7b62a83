// Package errors provides the coded error type used across blocksync.
//
// Every error carries an ERR code so callers can branch on the category of a failure with
// errors.Is against the package sentinels, independent of the message text.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

type Error struct {
	code       ERR
	message    string
	wrappedErr error
	data       ErrDataI
}

func (e *Error) Error() string {
	// sentinels can end up wrapped as typed nils
	if e == nil {
		return "<nil>"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Error: %s (error code: %d), Message: %s", e.code, e.code, e.message)

	if e.wrappedErr != nil {
		sb.WriteString(", Wrapped err: ")
		sb.WriteString(e.wrappedErr.Error())
	}

	if e.data != nil {
		sb.WriteString(", Data: ")
		sb.WriteString(e.data.Error())
	}

	return sb.String()
}

// Is reports whether target is a coded error with the same code as e or as any coded error e wraps.
// Non coded targets are left to errors.Is, which keeps unwrapping.
func (e *Error) Is(target error) bool {
	targetErr, ok := target.(*Error)
	if !ok || targetErr == nil {
		return false
	}

	for current := e; current != nil; {
		if current.code == targetErr.code {
			return true
		}

		next, ok := current.wrappedErr.(*Error)
		if !ok {
			return false
		}

		current = next
	}

	return false
}

// As matches *Error targets directly and otherwise looks into the attached data.
func (e *Error) As(target interface{}) bool {
	if e == nil {
		return false
	}

	if targetErr, ok := target.(**Error); ok {
		*targetErr = e
		return true
	}

	if data, ok := e.data.(error); ok && data != nil {
		return errors.As(data, target)
	}

	return false
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Code() ERR {
	if e == nil {
		return ERR_UNKNOWN
	}

	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

func (e *Error) WrappedErr() error {
	return e.Unwrap()
}

func (e *Error) SetData(key string, value interface{}) {
	if e.data == nil {
		e.data = ErrData{}
	}

	e.data.SetData(key, value)
}

func (e *Error) GetData(key string) interface{} {
	if e.data == nil {
		return nil
	}

	return e.data.GetData(key)
}

// New creates a coded error. When the last param is an error it becomes the wrapped error,
// the remaining params are used to format the message.
func New(code ERR, message string, params ...interface{}) *Error {
	var wrapped error

	if n := len(params); n > 0 {
		if err, ok := params[n-1].(error); ok {
			wrapped = err
			params = params[:n-1]
		}
	}

	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}

	if _, ok := ERR_name[int32(code)]; !ok {
		message = "invalid error code"
	}

	return &Error{
		code:       code,
		message:    message,
		wrappedErr: wrapped,
	}
}

// Join flattens errs into one error whose message lists the non nil ones.
func Join(errs ...error) error {
	messages := make([]string, 0, len(errs))

	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) == 0 {
		return nil
	}

	return errors.New(strings.Join(messages, ", "))
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// AsData reports whether the data attached to err, or to anything err wraps, matches target.
func AsData(err error, target interface{}) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		coded, ok := err.(*Error)
		if !ok || coded.data == nil {
			continue
		}

		if data, ok := coded.data.(error); ok && errors.As(data, target) {
			return true
		}
	}

	return false
}
