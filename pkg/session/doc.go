// Package session owns credential state: the access/refresh token pair,
// its expiry, and the authenticated user.
//
// The Manager schedules a proactive refresh for LeadTime before the access
// token expires, and coalesces concurrent refresh attempts onto a single
// network call: while a refresh is in flight every additional caller waits
// for that call's outcome instead of starting another one.
//
// A failed refresh clears the session and emits an unauthenticated state;
// Logout clears memory, the persisted blob, and all timers even when the
// best-effort server-side notification fails.
//
// Session blobs are persisted through the Store interface. MemoryStore
// keeps them in process; RedisStore persists them so a session survives
// restarts.
package session
