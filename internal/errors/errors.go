// Package errors provides structured error types and exit codes for mbexec.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error (remote call failed, bad literal, etc.)
	ExitConfigError      = 2 // Configuration error (invalid config, etc.)
	ExitEnvironmentError = 3 // Environment error (endpoint unreachable, etc.)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
	KindUnsupportedType
	KindMalformedLiteral
	KindUnknownAttribute
	KindNotWritable
	KindUnknownOperation
	KindNoEligibleOverload
	KindConnect
	KindRemote
)

var kindNames = map[ErrorKind]string{
	KindRuntime:            "runtime",
	KindConfig:             "config",
	KindNotFound:           "not found",
	KindValidation:         "validation",
	KindEnvironment:        "environment",
	KindUnsupportedType:    "unsupported type",
	KindMalformedLiteral:   "malformed literal",
	KindUnknownAttribute:   "unknown attribute",
	KindNotWritable:        "not writable",
	KindUnknownOperation:   "unknown operation",
	KindNoEligibleOverload: "no eligible overload",
	KindConnect:            "connect",
	KindRemote:             "remote",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the base error type for mbexec.
type Error struct {
	Kind    ErrorKind
	Message string
	Target  string // Target label if applicable
	Name    string // Attribute, operation or type name if applicable
	Cause   error  // Underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg = msg + ": " + e.Cause.Error()
		}
	}
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s", e.Target, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment, KindConnect:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *Error {
	return Config(fmt.Sprintf(format, args...))
}

// ConfigWrap wraps err as a configuration error.
func ConfigWrap(err error, message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
		Cause:   err,
	}
}

// Validation wraps a configuration validation failure.
func Validation(err error) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "invalid configuration",
		Cause:   err,
	}
}

// Environment creates a new environment error.
func Environment(message string) *Error {
	return &Error{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The kind of the cause is kept
// so callers can still classify the failure.
func Wrap(err error, message string) *Error {
	return &Error{
		Kind:    KindOf(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// NotFound creates a not found error.
func NotFound(what, name string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Name:    name,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// UnsupportedType reports a declared type outside the supported set.
func UnsupportedType(typeName string) *Error {
	return &Error{
		Kind:    KindUnsupportedType,
		Name:    typeName,
		Message: fmt.Sprintf("%q is not a supported type", typeName),
	}
}

// MalformedLiteral reports a literal that cannot be parsed as typeName.
func MalformedLiteral(typeName, literal string, cause error) *Error {
	return &Error{
		Kind:    KindMalformedLiteral,
		Name:    typeName,
		Message: fmt.Sprintf("cannot parse %q as %s", literal, typeName),
		Cause:   cause,
	}
}

// UnknownAttribute reports an attribute the MBean does not expose.
func UnknownAttribute(name, object string) *Error {
	return &Error{
		Kind:    KindUnknownAttribute,
		Name:    name,
		Message: fmt.Sprintf("%q is not an attribute of the MBean %q", name, object),
	}
}

// NotWritable reports an attribute that is read-only.
func NotWritable(name string) *Error {
	return &Error{
		Kind:    KindNotWritable,
		Name:    name,
		Message: fmt.Sprintf("attribute %q is not writable", name),
	}
}

// UnknownOperation reports an operation the MBean does not expose.
func UnknownOperation(name, object string) *Error {
	return &Error{
		Kind:    KindUnknownOperation,
		Name:    name,
		Message: fmt.Sprintf("%q is not an operation of the MBean %q", name, object),
	}
}

// NoEligibleOverload reports that every overload of name needs more
// parameters than were supplied.
func NoEligibleOverload(name string, supplied int) *Error {
	return &Error{
		Kind:    KindNoEligibleOverload,
		Name:    name,
		Message: fmt.Sprintf("could not find an overload of the %q operation that takes %d or fewer parameters", name, supplied),
	}
}

// Connect reports a failure to reach an endpoint.
func Connect(address string, cause error) *Error {
	return &Error{
		Kind:    KindConnect,
		Name:    address,
		Message: fmt.Sprintf("cannot connect to %s", address),
		Cause:   cause,
	}
}

// Remote reports a failed remote call.
func Remote(call string, cause error) *Error {
	return &Error{
		Kind:    KindRemote,
		Name:    call,
		Message: fmt.Sprintf("%s failed", call),
		Cause:   cause,
	}
}

// TargetFailure tags a per-target failure with the target label.
// Format: [target] execution failed: cause
func TargetFailure(target string, cause error) *Error {
	return &Error{
		Kind:    KindOf(cause),
		Target:  target,
		Message: "execution failed",
		Cause:   cause,
	}
}

// KindOf returns the kind of the outermost *Error in err's chain,
// or KindRuntime when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindRuntime
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.ExitCode()
	}
	return ExitRuntimeError
}
