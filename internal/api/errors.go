package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TransportError covers network failures, malformed responses and 5xx
// statuses. Status is zero when the request never completed.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("can't reach server (status %d)", e.Status)
	}
	return "can't reach server"
}

func (e *TransportError) Unwrap() error { return e.Err }

// FieldError is one entry of a validation-error list.
type FieldError struct {
	Field   string
	Message string
}

// Error is an application-level failure: a completed response with a non-2xx
// status below 500. Detail holds the human-readable message; for validation
// errors it is the joined field messages and Fields carries the breakdown.
type Error struct {
	Status int
	Detail string
	Fields []FieldError
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// errorBody matches the backend's error payload. Detail is either a plain
// string or a list of {loc, msg} validation entries.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type validationEntry struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// newError parses a non-2xx response body into an *Error.
func newError(status int, body []byte) *Error {
	e := &Error{Status: status}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return e
	}

	if len(parsed.Detail) > 0 {
		var s string
		if json.Unmarshal(parsed.Detail, &s) == nil {
			e.Detail = s
			return e
		}
		var entries []validationEntry
		if json.Unmarshal(parsed.Detail, &entries) == nil {
			for _, entry := range entries {
				field := "field"
				if len(entry.Loc) > 0 {
					parts := make([]string, 0, len(entry.Loc))
					for _, p := range entry.Loc {
						parts = append(parts, fmt.Sprint(p))
					}
					field = strings.Join(parts, ".")
				}
				e.Fields = append(e.Fields, FieldError{Field: field, Message: entry.Msg})
			}
			msgs := make([]string, 0, len(e.Fields))
			for _, f := range e.Fields {
				msgs = append(msgs, f.Field+": "+f.Message)
			}
			e.Detail = strings.Join(msgs, "; ")
			return e
		}
	}

	if parsed.Message != "" {
		e.Detail = parsed.Message
	}
	return e
}
