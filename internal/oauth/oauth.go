// ABOUTME: OAuth2 PKCE login against Dremio Cloud plus token refresh.
// ABOUTME: A localhost callback server catches the authorization code.

// Package oauth implements the browser-based OAuth2 login flow for
// Dremio Cloud and refresh-token renewal for stored credentials.
package oauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// redirectPort is the fixed localhost port registered with the
	// Dremio Cloud OAuth application.
	redirectPort = 8976
	scope        = "dremio.all offline_access"

	// expirySlack is shaved off the reported lifetime so a token is
	// refreshed before it actually lapses.
	expirySlack = 10 * time.Second
)

// Token is the outcome of a successful code exchange or refresh.
type Token struct {
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	UserIdentifier string `json:"dremio_user_identifier"`
	ExpiresIn      int    `json:"expires_in"`
}

// Expiry computes the wall-clock expiry of the access token. When the
// token endpoint omitted expires_in, the JWT exp claim is used.
func (t *Token) Expiry() (time.Time, error) {
	if t.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(t.ExpiresIn)*time.Second - expirySlack), nil
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(t.AccessToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("oauth: no expires_in and access token is not a JWT: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("oauth: access token carries no exp claim")
	}
	return exp.Time.Add(-expirySlack), nil
}

// LoginEndpoint maps an api.* Dremio Cloud URI to its login host:
// https://api.dremio.cloud becomes https://login.dremio.cloud.
func LoginEndpoint(dremioURI string) (string, error) {
	u, err := url.Parse(dremioURI)
	if err != nil {
		return "", fmt.Errorf("oauth: parsing dremio uri: %w", err)
	}
	if host, ok := strings.CutPrefix(u.Host, "api."); ok {
		u.Host = "login." + host
	}
	u.Path = ""
	return u.String(), nil
}

// Flow drives one interactive PKCE login.
type Flow struct {
	ClientID     string
	AuthorizeURL string
	TokenURL     string

	// OpenBrowser launches the user's browser at the authorize URL.
	// Tests inject a stub; the default shells out per platform.
	OpenBrowser func(url string) error

	HTTPClient *http.Client
	Port       int
}

// NewFlow prepares a login flow for the given Dremio URI and OAuth
// client id.
func NewFlow(dremioURI, clientID string) (*Flow, error) {
	if clientID == "" {
		return nil, fmt.Errorf("oauth: client id is not configured")
	}
	base, err := LoginEndpoint(dremioURI)
	if err != nil {
		return nil, err
	}
	return &Flow{
		ClientID:     clientID,
		AuthorizeURL: base + "/oauth/authorize",
		TokenURL:     base + "/oauth/token",
		OpenBrowser:  openBrowser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		Port:         redirectPort,
	}, nil
}

// pkcePair generates a code verifier and its S256 challenge.
func pkcePair() (verifier, challenge string, err error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("oauth: generating code verifier: %w", err)
	}
	verifier = base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

const callbackPage = `<!DOCTYPE html>
<html><body>
<p>Login complete. You can close this window and return to the terminal.</p>
</body></html>`

// Login opens the browser at the authorize URL and waits for the
// redirect to deliver an authorization code, then exchanges it for
// tokens. The context bounds the whole interaction.
func (f *Flow) Login(ctx context.Context) (*Token, error) {
	verifier, challenge, err := pkcePair()
	if err != nil {
		return nil, err
	}
	redirectURI := fmt.Sprintf("http://localhost:%d", f.Port)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", f.Port))
	if err != nil {
		return nil, fmt.Errorf("oauth: binding callback port %d: %w", f.Port, err)
	}

	codeCh := make(chan string, 1)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, callbackPage)
		select {
		case codeCh <- code:
		default:
		}
	})}
	go server.Serve(listener)
	defer server.Close()

	authURL := f.AuthorizeURL + "?" + url.Values{
		"client_id":             {f.ClientID},
		"response_type":         {"code"},
		"redirect_uri":          {redirectURI},
		"scope":                 {scope},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
	}.Encode()
	if err := f.OpenBrowser(authURL); err != nil {
		return nil, fmt.Errorf("oauth: opening browser: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case code := <-codeCh:
		return f.exchange(ctx, url.Values{
			"client_id":     {f.ClientID},
			"code_verifier": {verifier},
			"code":          {code},
			"grant_type":    {"authorization_code"},
			"redirect_uri":  {redirectURI},
		})
	}
}

// Refresh exchanges a refresh token for a fresh access token.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	return f.exchange(ctx, url.Values{
		"client_id":     {f.ClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {scope},
	})
}

func (f *Flow) exchange(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("oauth: building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: token request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("oauth: reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: token endpoint returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("oauth: decoding token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("oauth: token response carried no access token")
	}
	return &token, nil
}

func openBrowser(u string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", u).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", u).Start()
	default:
		return exec.Command("xdg-open", u).Start()
	}
}
