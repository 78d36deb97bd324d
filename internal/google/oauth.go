package google

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/scheduleai/internal/schedule"
)

// clientSecret mirrors the JSON file downloaded from the Google Cloud
// Console. Desktop clients store their credentials under "installed",
// server-side clients under "web".
type clientSecret struct {
	Installed *clientSecretEntry `json:"installed"`
	Web       *clientSecretEntry `json:"web"`
}

type clientSecretEntry struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

// LoadOAuthConfig reads the OAuth client secret file at path and builds the
// oauth2 configuration used for all per-user flows. A missing file is a
// configuration error, not an authorization error: no flow can run without
// client credentials.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, schedule.Errorf(schedule.KindConfigurationMissing, "",
				"OAuth client secret file not found at %s; download it from the Google Cloud Console", path)
		}
		return nil, schedule.Errorf(schedule.KindConfigurationMissing, "",
			"failed to read OAuth client secret file %s: %v", path, err)
	}

	var secret clientSecret
	if err := json.Unmarshal(data, &secret); err != nil {
		return nil, schedule.Errorf(schedule.KindConfigurationMissing, "",
			"failed to parse OAuth client secret file %s: %v", path, err)
	}

	entry := secret.Installed
	if entry == nil {
		entry = secret.Web
	}
	if entry == nil {
		return nil, schedule.Errorf(schedule.KindConfigurationMissing, "",
			"OAuth client secret file %s has neither an \"installed\" nor a \"web\" section", path)
	}
	if entry.ClientID == "" {
		return nil, schedule.Errorf(schedule.KindConfigurationMissing, "",
			"OAuth client secret file %s has no client_id", path)
	}

	endpoint := google.Endpoint
	if entry.AuthURI != "" && entry.TokenURI != "" {
		endpoint = oauth2.Endpoint{AuthURL: entry.AuthURI, TokenURL: entry.TokenURI}
	}

	return &oauth2.Config{
		ClientID:     entry.ClientID,
		ClientSecret: entry.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       Scopes,
	}, nil
}

// ClientSecretHint describes where the client secret file is expected,
// for use in error messages and CLI output.
func ClientSecretHint(path string) string {
	return fmt.Sprintf("place the OAuth client credentials from the Google Cloud Console at %s", path)
}
