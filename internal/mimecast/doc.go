// Package mimecast implements the request, pagination and token-lifecycle
// core of the Mimecast API 2.0 client.
//
// This package provides:
//   - OAuth2 client-credentials authentication and session handling
//   - A single-request executor with a typed error taxonomy
//   - A cursor-following pagination driver
//   - Rate limiting for API requests
//
// # Authentication
//
// Mimecast API 2.0 uses the OAuth2 client-credentials grant:
//   - Token URL: {regional base}/oauth/token
//   - Resource calls: {regional base}/api/v2/{path}
//
// Tokens are short-lived. Expiry is tracked as an absolute instant on the
// Session; an expired session fails with ErrTokenExpired and must be
// reconnected. There is no transparent refresh.
//
// # Envelope and pagination
//
// Every response carries the provider envelope {success, data, fail, meta}.
// Paginated endpoints return an opaque cursor in meta.pagination.next which
// must be echoed back in the next request body as
// data[0].pagination.pageToken. Cursors are single-use and strictly
// sequential, so pages are never fetched concurrently.
package mimecast
