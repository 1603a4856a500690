// Package fetch turns URLs into response text.
//
// A [Fetcher] is cache-first: a URL already present in the
// [cache.ResponseCache] is answered without touching the network or taking
// a concurrency slot. Misses are sent through a bounded set of slots and an
// optional request pacer, so the origin never sees more than
// [Options.Concurrency] simultaneous requests.
//
// # Outcomes
//
// Every failure is an [*errors.Error] with one of these codes:
//
//   - NOT_FOUND: the server answered 404. Expected and recoverable.
//   - TRANSPORT: DNS, connection or timeout failure. Retryable.
//   - UNEXPECTED_STATUS: any other non-200 status. 5xx is retryable.
//   - UNEXPECTED_CONTENT_TYPE: a 200 that is not UTF-8 text/html or text/plain.
//   - TOO_MANY_REDIRECTS: the redirect chain exceeded [Options.MaxRedirects].
//
// Use [IsNotFound] to separate "resource absent" from contract violations.
//
// # Redirects
//
// Redirects are resolved by the Fetcher itself rather than by net/http. The
// redirect response is drained and its slot released before the target is
// fetched, so nested fetches never wait on their parent's slot. The final
// body is cached under every URL of the chain.
//
// [cache.ResponseCache]: github.com/matzehuels/themecheck/pkg/cache.ResponseCache
// [*errors.Error]: github.com/matzehuels/themecheck/pkg/errors.Error
package fetch
