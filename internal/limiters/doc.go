// Package limiters provides the Redis-backed throttle for reset requests.
//
// [RequestLimiter] counts requests per normalized email in a fixed window
// (INCR plus EXPIRE on the first hit). It is nil-safe: a nil limiter allows
// every request.
//
// The limiter only counts. Whether a backend failure blocks the request is
// decided by the caller.
package limiters
