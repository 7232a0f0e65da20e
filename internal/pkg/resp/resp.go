/*
Package resp normalizes HTTP responses received from the backend.

It reads a response body, decides between JSON and raw text from the Content-Type
header, and turns every non-success status into a CustomError whose message follows
one priority order: the JSON "error" field, then the raw text body, then a generic
"Request failed".
*/
package resp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"botclient/internal/pkg/errs"
)

// MaxBodySize caps how much of a response body is read into memory.
const MaxBodySize int64 = 10 << 20 // 10 MB

// Body is a decoded response payload.
type Body struct {
	// Status is the HTTP status of the response.
	Status int

	// ContentType is the raw Content-Type header value.
	ContentType string

	// JSON reports whether Raw holds a valid JSON document.
	JSON bool

	// Raw holds the body bytes as received.
	Raw []byte
}

// Text returns the body as a string.
func (b *Body) Text() string {
	return string(b.Raw)
}

// Decode unmarshals a JSON body into dst. Text bodies cannot be decoded.
func (b *Body) Decode(dst any) error {
	if !b.JSON {
		return errs.NewError(errs.ErrInvalidResponse)
	}
	if err := json.Unmarshal(b.Raw, dst); err != nil {
		return errs.NewError(errs.ErrInvalidResponse).WithCause(err)
	}
	return nil
}

// Value returns the parsed JSON value, or the text when the body is not JSON.
func (b *Body) Value() any {
	if !b.JSON {
		return b.Text()
	}
	var v any
	if err := json.Unmarshal(b.Raw, &v); err != nil {
		return b.Text()
	}
	return v
}

// Decode reads res.Body and applies the success/failure contract.
// The caller still owns closing res.Body.
func Decode(res *http.Response) (*Body, *errs.CustomError) {
	raw, err := io.ReadAll(io.LimitReader(res.Body, MaxBodySize))
	if err != nil {
		return nil, errs.NewError(errs.ErrRequestFailed).WithStatus(res.StatusCode).WithCause(err)
	}

	contentType := res.Header.Get("Content-Type")
	body := &Body{
		Status:      res.StatusCode,
		ContentType: contentType,
		Raw:         raw,
		JSON:        isJSON(contentType) && json.Valid(bytes.TrimSpace(raw)),
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, FailureFor(body)
	}

	return body, nil
}

// FailureFor builds the RequestFailed error for a non-success body.
func FailureFor(body *Body) *errs.CustomError {
	return errs.NewError(errs.ErrRequestFailed).
		WithStatus(body.Status).
		WithMessage(failureMessage(body))
}

func failureMessage(body *Body) string {
	if body.JSON {
		// A bare JSON string is a message in its own right.
		var s string
		if err := json.Unmarshal(body.Raw, &s); err == nil {
			return strings.TrimSpace(s)
		}

		var envelope struct {
			Error any `json:"error"`
		}
		if err := json.Unmarshal(body.Raw, &envelope); err == nil {
			if msg, ok := envelope.Error.(string); ok {
				return strings.TrimSpace(msg)
			}
		}
		return ""
	}

	return strings.TrimSpace(body.Text())
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}
