package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodeOf_Wrapped(t *testing.T) {
	req := require.New(t)
	err := fmt.Errorf("handler: %w", NotFound("channel not found"))

	req.Equal(CodeNotFound, CodeOf(err))
	req.True(Is(err, CodeNotFound))
	req.Equal(http.StatusNotFound, HTTPStatus(err))
}

func TestCodeOf_ForeignErrorIsInternal(t *testing.T) {
	req := require.New(t)
	err := errors.New("boom")

	req.Equal(CodeInternal, CodeOf(err))
	req.Equal(http.StatusInternalServerError, HTTPStatus(err))
	req.False(Is(nil, CodeInternal))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidArgument:  http.StatusBadRequest,
		CodeValidationFailed: http.StatusBadRequest,
		CodeNotFound:         http.StatusNotFound,
		CodeAlreadyExists:    http.StatusConflict,
		CodeUnauthenticated:  http.StatusUnauthorized,
		CodeInternal:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, code.HTTPStatus(), code)
	}
}

func TestGRPCStatusRoundTrip(t *testing.T) {
	req := require.New(t)
	err := AlreadyExists("channel already exists")

	st, ok := status.FromError(err)
	req.True(ok)
	req.Equal(codes.AlreadyExists, st.Code())
	req.Equal("channel already exists", st.Message())

	back := FromGRPC(st.Err())
	req.Equal(CodeAlreadyExists, CodeOf(back))
	req.NoError(FromGRPC(nil))
}

func TestError_IncludesCause(t *testing.T) {
	err := Internal("failed to save message", errors.New("disk full"))
	require.Equal(t, "failed to save message: disk full", err.Error())
	require.ErrorContains(t, errors.Unwrap(err), "disk full")
}
