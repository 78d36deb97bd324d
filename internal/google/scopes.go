package google

// Scopes are the Google OAuth scopes requested during authorization.
//
// The scopes provide access to:
//   - Google Calendar: read-only
//   - User info: identify the authorizing account
var Scopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar.readonly",
}
