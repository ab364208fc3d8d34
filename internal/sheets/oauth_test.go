package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOAuthConfigDefaults(t *testing.T) {
	conf := OAuthConfig("client-id", "client-secret", "")

	assert.Equal(t, "client-id", conf.ClientID)
	assert.Contains(t, conf.Scopes, "https://www.googleapis.com/auth/spreadsheets.readonly")
	assert.NotEmpty(t, conf.Endpoint.TokenURL)
}

func TestOAuthConfigTokenURLOverride(t *testing.T) {
	conf := OAuthConfig("client-id", "client-secret", "http://localhost:1/token")
	assert.Equal(t, "http://localhost:1/token", conf.Endpoint.TokenURL)
}

func TestTokenRefreshAgainstLocalEndpoint(t *testing.T) {
	var gotGrantType, gotRefreshToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGrantType = r.FormValue("grant_type")
		gotRefreshToken = r.FormValue("refresh_token")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "fresh-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	conf := OAuthConfig("client-id", "client-secret", srv.URL)
	tok, err := conf.TokenSource(context.Background(), &oauth2.Token{RefreshToken: "stored-refresh"}).Token()
	require.NoError(t, err)

	assert.Equal(t, "fresh-access", tok.AccessToken)
	assert.True(t, tok.Valid())
	assert.Equal(t, "refresh_token", gotGrantType)
	assert.Equal(t, "stored-refresh", gotRefreshToken)
}

func TestTokenRefreshRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer srv.Close()

	conf := OAuthConfig("client-id", "client-secret", srv.URL)
	_, err := conf.TokenSource(context.Background(), &oauth2.Token{RefreshToken: "revoked"}).Token()
	require.Error(t, err)
}
