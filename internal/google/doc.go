// Package google implements per-user OAuth2 authorization against Google:
// loading the OAuth client configuration, running the interactive consent
// flow through a loopback callback listener, refreshing stored credentials,
// and revoking access.
//
// Credentials are persisted through the credentials.Store abstraction so the
// same authenticator works with file and keyring backends.
package google
