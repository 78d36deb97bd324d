// Package credentials persists per-user OAuth2 credential records.
//
// Each user's record lives in its own storage unit keyed by a one-way hash
// of the user identifier, so unrelated users can never corrupt each other's
// state and raw identifiers never appear in storage paths. Records are
// stored in a documented, versioned JSON format so the store is inspectable
// and portable.
//
// Two backends are provided: a file store (default) and an OS keychain
// store. Writes through the file store are atomic and serialized per user
// with a file lock; concurrent operations for the same user across
// load/save/delete boundaries remain last-write-wins.
package credentials
