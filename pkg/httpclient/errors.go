package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/hienohelma/storefront/pkg/errors"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 1 << 20

// errorBody accepts the error shapes upstream APIs return:
// {"error":{"code":..,"message":..}}, {"error":"..."} and {"message":".."}.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

type structuredError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError named after the upstream service. The body is consumed
// and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	code, message := decodeErrorBody(raw)
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return mapUpstreamError(resp.StatusCode, code, message, serviceName)
}

func decodeErrorBody(raw []byte) (code, message string) {
	var body errorBody
	if json.Unmarshal(raw, &body) != nil {
		return "", ""
	}
	if len(body.Error) > 0 {
		var se structuredError
		if json.Unmarshal(body.Error, &se) == nil && (se.Code != "" || se.Message != "") {
			return se.Code, se.Message
		}
		var s string
		if json.Unmarshal(body.Error, &s) == nil && s != "" {
			return "", s
		}
	}
	return "", body.Message
}

func mapUpstreamError(status int, code, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: qualified,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		// Our credentials towards the upstream were rejected; that is a
		// server-side fault, not the caller's.
		return apperrors.Upstream(qualified, fmt.Errorf("%w: status %d", apperrors.ErrUpstream, status))
	case status == http.StatusGone:
		return &apperrors.AppError{
			Code:    "GONE",
			Message: qualified,
			Status:  http.StatusGone,
			Err:     apperrors.ErrGone,
		}
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(serviceName)
	case status >= 500:
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		return &apperrors.AppError{
			Code:    code,
			Message: qualified,
			Status:  http.StatusBadGateway,
			Err:     apperrors.ErrUpstream,
		}
	default:
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		return &apperrors.AppError{
			Code:    code,
			Message: qualified,
			Status:  status,
			Err:     apperrors.ErrUpstream,
		}
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
