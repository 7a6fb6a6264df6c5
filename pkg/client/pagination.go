package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/calder-io/resilient-client/pkg/scheduler"
)

// TotalPagesHeader is the response header carrying the page count of a
// paginated collection.
const TotalPagesHeader = "X-Total-Pages"

// FetchPage fetches one page of a paginated collection and reports the
// total page count from the response headers. Implements
// pagination.PageFetcher, so the client plugs straight into a
// pagination.BatchFetcher.
func (c *Client) FetchPage(ctx context.Context, path string, page int) ([]byte, int, error) {
	token, _ := c.sessions.Token()

	var totalPages int
	result := <-c.scheduler.Enqueue(ctx, scheduler.Task{Operation: func(taskCtx context.Context) ([]byte, error) {
		headers := http.Header{}
		if token != "" {
			headers.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.transport.Call(taskCtx, Request{
			Method:  http.MethodGet,
			Path:    path,
			Query:   url.Values{"page": {strconv.Itoa(page)}},
			Headers: headers,
		})
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, &AuthError{Kind: AuthUnauthorized}
		case resp.StatusCode >= 400:
			return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: resp.Body}
		}

		if v := resp.Headers.Get(TotalPagesHeader); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				totalPages = n
			}
		}
		return resp.Body, nil
	}})
	if result.Err != nil {
		return nil, 0, result.Err
	}
	if totalPages < 1 {
		totalPages = 1
	}
	return result.Data, totalPages, nil
}
