package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Code string

const (
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeInternal         Code = "INTERNAL"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// GRPCStatus lets status.FromError and the grpc server report the code
// without a translation layer.
func (e *AppError) GRPCStatus() *status.Status {
	return status.New(e.Code.GRPC(), e.Message)
}

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error       { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) error         { return New(CodeNotFound, msg) }
func ValidationFailed(msg string) error { return New(CodeValidationFailed, msg) }
func AlreadyExists(msg string) error    { return New(CodeAlreadyExists, msg) }
func Unauthenticated(msg string) error  { return New(CodeUnauthenticated, msg) }

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, msg, cause)
}

// CodeOf returns the code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func (c Code) GRPC() codes.Code {
	switch c {
	case CodeInvalidArgument, CodeValidationFailed:
		return codes.InvalidArgument
	case CodeNotFound:
		return codes.NotFound
	case CodeAlreadyExists:
		return codes.AlreadyExists
	case CodeUnauthenticated:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func HTTPStatus(err error) int {
	return CodeOf(err).HTTPStatus()
}

// FromGRPC rebuilds an AppError on the client side of a grpc call.
func FromGRPC(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.OK:
		return nil
	case codes.InvalidArgument:
		return Wrap(CodeInvalidArgument, st.Message(), err)
	case codes.NotFound:
		return Wrap(CodeNotFound, st.Message(), err)
	case codes.AlreadyExists:
		return Wrap(CodeAlreadyExists, st.Message(), err)
	case codes.Unauthenticated:
		return Wrap(CodeUnauthenticated, st.Message(), err)
	default:
		return Wrap(CodeInternal, st.Message(), err)
	}
}
