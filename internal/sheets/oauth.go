package sheets

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthConfig builds the oauth2 config used to refresh user tokens and
// to construct authenticated API clients. tokenURL overrides the Google
// token endpoint (tests point it at a local server).
func OAuthConfig(clientID, clientSecret, tokenURL string) *oauth2.Config {
	endpoint := google.Endpoint
	if tokenURL != "" {
		endpoint = oauth2.Endpoint{TokenURL: tokenURL}
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes: []string{
			"https://www.googleapis.com/auth/spreadsheets.readonly",
			"https://www.googleapis.com/auth/drive.readonly",
		},
		Endpoint: endpoint,
	}
}
