// Package client provides an HTTP client with bounded retries, an in-memory
// GET response cache and content-type aware request bodies.
//
// Every operation returns an [Outcome]: either decoded data or an error,
// never both. Request-level failures are reported through the Outcome, never
// by panicking.
//
// # Pipeline
//
// A call flows through these stages:
//
//	observe middleware (span, metrics, logs)
//	  -> cache middleware (GET only, when enabled)
//	    -> resilience executor (retry, rate limit, per-attempt timeout)
//	      -> single attempt (transport + status classification + decode)
//
// # Errors
//
// Failures fall into three classes:
//   - [ErrUnsupportedContent]: the body could not be prepared. Returned before
//     any network activity.
//   - [*TransportError]: the attempt did not produce a usable response
//     (connection error, timeout, unreadable or undecodable body). Retried up
//     to the configured budget.
//   - [*StatusError]: the server answered with a non-2xx status. Never retried.
//
// # Caching
//
// Only successful GET responses with a non-empty, non-null body are cached.
// Keys are derived from the URL and the full header set sent with the request,
// so default headers participate in the fingerprint.
//
// # Concurrency
//
// A Client is safe for concurrent use. Two identical GETs in flight at the
// same time are not coalesced; both may reach the network.
package client
