package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// Decode unmarshals a response body into T, wrapping any failure in
// ParseError.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, &ParseError{Err: err}
	}
	return v, nil
}

// RequestJSON performs a request and decodes the response body into T.
func RequestJSON[T any](ctx context.Context, c *Client, method, path string, opts Options) (T, error) {
	data, err := c.Request(ctx, method, path, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](data)
}

// GetJSON performs a cacheable GET and decodes the response body into T.
func GetJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	return RequestJSON[T](ctx, c, http.MethodGet, path, Options{Cacheable: true})
}
