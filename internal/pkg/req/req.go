/*
Package req provides helper functions for building outbound HTTP requests.

It resolves request paths against a configured base URL and encodes JSON payloads,
reporting failures as CustomErrors so the API client has a single error vocabulary.
*/
package req

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"botclient/internal/pkg/errs"
)

const (
	// ContentTypeJSON is sent and accepted on every API call.
	ContentTypeJSON = "application/json"
)

// JoinURL resolves path against base by plain concatenation with exactly one
// slash between them, then merges query into the result.
func JoinURL(base, path string, query url.Values) (string, error) {
	joined := strings.TrimRight(base, "/")
	if path != "" {
		joined += "/" + strings.TrimLeft(path, "/")
	}

	u, err := url.Parse(joined)
	if err != nil {
		return "", err
	}

	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// NewJSON builds a request carrying body encoded as JSON.
// A nil body sends no payload; json.RawMessage and []byte are passed through untouched.
func NewJSON(ctx context.Context, method, target string, body any) (*http.Request, *errs.CustomError) {
	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		reader = bytes.NewReader(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, errs.NewError(errs.ErrEncodeFailed).WithCause(err)
		}
		reader = bytes.NewReader(payload)
	}

	r, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errs.NewError(errs.ErrEncodeFailed).WithCause(err)
	}

	r.Header.Set("Content-Type", ContentTypeJSON)
	r.Header.Set("Accept", ContentTypeJSON)

	return r, nil
}
