// ABOUTME: Tests for the PKCE login flow, refresh grant, and expiry.
// ABOUTME: The browser is stubbed with a client that follows the URL.

package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://api.dremio.cloud":    "https://login.dremio.cloud",
		"https://api.eu.dremio.cloud": "https://login.eu.dremio.cloud",
		"https://dremio.example.com":  "https://dremio.example.com",
	}
	for in, want := range tests {
		got, err := LoginEndpoint(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestPKCEPair(t *testing.T) {
	verifier, challenge, err := pkcePair()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(verifier), 43)
	assert.LessOrEqual(t, len(verifier), 128)

	sum := sha256.Sum256([]byte(verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)

	verifier2, _, err := pkcePair()
	require.NoError(t, err)
	assert.NotEqual(t, verifier, verifier2)
}

func TestLogin_EndToEnd(t *testing.T) {
	var gotForm map[string]string
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"code":          r.PostForm.Get("code"),
			"code_verifier": r.PostForm.Get("code_verifier"),
			"client_id":     r.PostForm.Get("client_id"),
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":           "at-1",
			"refresh_token":          "rt-1",
			"dremio_user_identifier": "user@example.com",
			"expires_in":             3600,
		})
	}))
	defer tokenSrv.Close()

	flow := &Flow{
		ClientID:     "client-1",
		AuthorizeURL: "http://unused.invalid/oauth/authorize",
		TokenURL:     tokenSrv.URL,
		HTTPClient:   tokenSrv.Client(),
		Port:         18976,
		// Stand in for the user: follow the redirect with a code.
		OpenBrowser: func(u string) error {
			go func() {
				resp, err := http.Get("http://localhost:18976/?code=auth-code-1")
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := flow.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at-1", token.AccessToken)
	assert.Equal(t, "rt-1", token.RefreshToken)
	assert.Equal(t, "user@example.com", token.UserIdentifier)

	assert.Equal(t, "authorization_code", gotForm["grant_type"])
	assert.Equal(t, "auth-code-1", gotForm["code"])
	assert.Equal(t, "client-1", gotForm["client_id"])
	assert.NotEmpty(t, gotForm["code_verifier"])
}

func TestLogin_ContextCancelled(t *testing.T) {
	flow := &Flow{
		ClientID:     "client-1",
		AuthorizeURL: "http://unused.invalid",
		TokenURL:     "http://unused.invalid",
		HTTPClient:   http.DefaultClient,
		Port:         18977,
		OpenBrowser:  func(string) error { return nil },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := flow.Login(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt-old", r.PostForm.Get("refresh_token"))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-new",
			"refresh_token": "rt-new",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	flow := &Flow{ClientID: "client-1", TokenURL: srv.URL, HTTPClient: srv.Client()}
	token, err := flow.Refresh(context.Background(), "rt-old")
	require.NoError(t, err)
	assert.Equal(t, "at-new", token.AccessToken)
	assert.Equal(t, "rt-new", token.RefreshToken)
}

func TestRefresh_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	flow := &Flow{ClientID: "client-1", TokenURL: srv.URL, HTTPClient: srv.Client()}
	_, err := flow.Refresh(context.Background(), "rt-bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestTokenExpiry_FromExpiresIn(t *testing.T) {
	token := &Token{AccessToken: "opaque", ExpiresIn: 3600}
	expiry, err := token.Expiry()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)
}

func TestTokenExpiry_FromJWTExpClaim(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "user@example.com",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	token := &Token{AccessToken: signed}
	expiry, err := token.Expiry()
	require.NoError(t, err)
	assert.WithinDuration(t, exp, expiry, expirySlack+time.Second)
}

func TestTokenExpiry_NotAJWT(t *testing.T) {
	token := &Token{AccessToken: "not-a-jwt"}
	_, err := token.Expiry()
	require.Error(t, err)
}
