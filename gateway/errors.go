package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	MsgUnexpected         = "An unexpected error occurred"
	MsgSessionExpired     = "Session expired. Please login again."
	MsgTenantSetup        = "Company setup required"
	MsgValidationFallback = "Validation error"
)

var (
	// ErrSessionExpired wraps every 401/403 response; the session has already been cleared.
	ErrSessionExpired = errors.New("session expired")
	// ErrTenantSetupRequired is returned for a 404 on the current tenant probe; the session is kept.
	ErrTenantSetupRequired = errors.New("company setup required")
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
	// Body is the raw response body.
	Body json.RawMessage
	Err  error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// UserMessage turns any gateway error into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MsgUnexpected
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	return MsgUnexpected
}

type errorPayload struct {
	Detail  json.RawMessage `json:"detail"`
	Message json.RawMessage `json:"message"`
}

type fieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ErrorMessage extracts the user message from an error body. In order: a "detail" string,
// a "message" string, the joined msg values of a "detail" field error array, then the
// error or message of a "detail" object.
func ErrorMessage(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if s, ok := jsonString(payload.Detail); ok && s != "" {
		return s
	}
	if s, ok := jsonString(payload.Message); ok && s != "" {
		return s
	}

	var fields []fieldError
	if err := json.Unmarshal(payload.Detail, &fields); err == nil && fields != nil {
		if len(fields) == 0 {
			return MsgValidationFallback
		}
		messages := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg != "" {
				messages = append(messages, f.Msg)
				continue
			}
			loc := make([]string, 0, len(f.Loc))
			for _, l := range f.Loc {
				loc = append(loc, fmt.Sprint(l))
			}
			messages = append(messages, strings.Join(loc, " -> ")+": "+f.Type)
		}
		return strings.Join(messages, ", ")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload.Detail, &obj); err == nil && obj != nil {
		for _, key := range []string{"error", "message"} {
			if s, ok := jsonString(obj[key]); ok && s != "" {
				return s
			}
		}
		return string(payload.Detail)
	}
	return ""
}

func jsonString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// sessionExpiredMessage is the toast text for a 401/403 body.
func sessionExpiredMessage(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := jsonString(payload.Detail); ok && s != "" {
			return "Session expired: " + s
		}
	}
	return MsgSessionExpired
}
