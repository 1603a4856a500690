// Package httputil provides retry helpers for HTTP fetches.
//
// # Retry
//
// [Backoff] re-runs an operation while it fails with an error wrapped by
// [Retryable]. Any other error is returned immediately. The delay doubles
// after every failed attempt:
//
//	err := httputil.Backoff{Attempts: 3, Delay: time.Second}.Do(ctx, func() error {
//	    body, err = fetcher.Fetch(ctx, url)
//	    return err
//	})
//
// Typical retryable failures are network errors, timeouts and 5xx responses.
// A 404 or a content-type mismatch is never worth retrying.
package httputil
