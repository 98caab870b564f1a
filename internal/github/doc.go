// Package github is a small typed client for the GitHub REST API calls the
// publish workflow needs: pull requests, merges and branch refs.
//
// Requests are authenticated with a token, paced by a token bucket limiter
// and fail with *APIError for non-2xx responses or *TransportError when the
// request never got a response. IsRetryable classifies both for the
// workflow's retry policy.
package github
