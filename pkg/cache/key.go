package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response. It is a pure function of request
// identity: the canonical path plus the sorted query parameters.
type Key struct {
	// Path is the request path (e.g. "/v1/articles/42").
	Path string

	// Query are the query parameters of the request.
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: api:path:query1=val1:query2=val2
//
// Example:
//
//	api:v1/articles:page=2:sort=recent
func (k Key) String() string {
	parts := []string{"api"}

	path := strings.Trim(k.Path, "/")
	if path != "" {
		parts = append(parts, path)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Query.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}

// PrefixFor returns the key prefix covering every cached response under the
// given path, regardless of query parameters. Used for invalidation after
// mutating requests.
func PrefixFor(path string) string {
	return Key{Path: path}.String()
}
