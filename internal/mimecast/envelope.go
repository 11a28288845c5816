package mimecast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the outer {success, data, fail, meta} wrapper carried by every
// API response body.
type Envelope struct {
	// Success reports whether the provider considered the request
	// successful. It is a pointer because some endpoints omit the field;
	// only an explicit false is treated as a logical failure.
	Success *bool `json:"success,omitempty"`
	// Data is the response payload, usually an array of result objects.
	Data json.RawMessage `json:"data,omitempty"`
	// Fail carries diagnostic detail when Success is false.
	Fail []FailDetail `json:"fail,omitempty"`
	// Meta carries pagination state.
	Meta *Meta `json:"meta,omitempty"`

	// body is the full raw response body, kept for endpoints that omit
	// the data wrapper.
	body json.RawMessage
}

// Meta is the envelope metadata object.
type Meta struct {
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination carries the cursor state of a paginated response or request.
type Pagination struct {
	// Next is the opaque cursor for the following page. Absent on the
	// final page.
	Next string `json:"next,omitempty"`
	// PageToken echoes a cursor back in a request body.
	PageToken string `json:"pageToken,omitempty"`
	// PageSize is the requested page size.
	PageSize int `json:"pageSize,omitempty"`
}

// FailDetail is one entry of the envelope's fail array.
type FailDetail struct {
	Key    string       `json:"key,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError is a single provider-reported error within a fail entry.
type FieldError struct {
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Message returns the first error message of the fail entry, or its key.
func (f FailDetail) Message() string {
	if len(f.Errors) > 0 && f.Errors[0].Message != "" {
		return f.Errors[0].Message
	}
	return f.Key
}

// parseEnvelope decodes a response body into an Envelope, retaining the raw
// body for fallback decoding.
func parseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	env.body = append(json.RawMessage(nil), body...)
	return &env, nil
}

// DecodeData unmarshals the envelope's data payload into v. Endpoints that
// omit the data wrapper fall back to the whole response body.
func (e *Envelope) DecodeData(v any) error {
	raw := e.Data
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = e.body
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Records returns the envelope's data payload as individual records,
// flattened one level when the payload is itself a list.
func (e *Envelope) Records() ([]json.RawMessage, error) {
	if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
		return nil, nil
	}
	trimmed := bytes.TrimLeft(e.Data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(e.Data, &records); err != nil {
			return nil, fmt.Errorf("decode response records: %w", err)
		}
		return records, nil
	}
	return []json.RawMessage{e.Data}, nil
}

// NextToken returns the cursor for the next page, or "" on the final page.
func (e *Envelope) NextToken() string {
	if e.Meta == nil || e.Meta.Pagination == nil {
		return ""
	}
	return e.Meta.Pagination.Next
}
