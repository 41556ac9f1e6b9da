/*
Package remote defines the boundary to the wiki and issue-tracker backends.

Clients register themselves by name (see RegisterSource and RegisterTracker)
and return raw JSON shapes. Every non-2xx response surfaces as *HTTPError so
callers can tell forbidden and not-found apart from transport failures.
*/
package remote
