package credentials

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// RecordVersion is the current on-disk format version.
const RecordVersion = 1

// Record is a per-user OAuth2 credential in the documented storage format.
type Record struct {
	Version      int       `json:"version"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// FromToken builds a record from an oauth2 token and the granted scopes.
func FromToken(tok *oauth2.Token, scopes []string) *Record {
	return &Record{
		Version:      RecordVersion,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
	}
}

// Token converts the record back to an oauth2 token.
func (r *Record) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		Expiry:       r.Expiry,
	}
}

// Usable reports whether the access token is present and not expired. A
// record that is not usable needs a refresh (or re-authorization) before the
// next API call.
func (r *Record) Usable() bool {
	return r.AccessToken != "" && r.Token().Valid()
}

// Validate checks structural invariants after deserialization.
func (r *Record) Validate() error {
	if r.Version != RecordVersion {
		return fmt.Errorf("unsupported credential record version %d (want %d)", r.Version, RecordVersion)
	}
	if r.AccessToken == "" {
		return fmt.Errorf("credential record has no access token")
	}
	return nil
}

// UserKey derives the storage key for a user identifier: a one-way hash
// truncated to a fixed-length hex prefix. Collisions are accepted as
// negligible for the expected user population; this is a privacy and
// filename-safety measure, not a cryptographic guarantee.
func UserKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])[:16]
}
