// Package client is the public surface of the resilient network client:
// a caching, concurrency-bounded, auth-aware layer between application
// logic and raw transports.
//
// A request flows through three stages. The session manager attaches the
// current access token; the scheduler admits the task under the
// concurrency cap, priority-aware; the cache serves cacheable GETs
// directly and stores fresh responses, while successful mutations
// invalidate the cached entries of the affected path.
//
// Authorization failures are intercepted once: a 401-equivalent response
// triggers a single coalesced token refresh and a single retry with the
// new token. A second authorization failure clears the session and
// surfaces AuthError with kind AuthRefreshFailed. No other automatic
// retry exists on the request path.
//
// All failures reach the caller as typed, inspectable errors (see
// errors.go); cache misses are not errors.
package client
