package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// tokenInfoURL is Google's ID-token introspection endpoint. For the traffic
// volume of a personal tracker, introspection is simpler than caching and
// rotating Google's JWKS certificates locally.
const tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleUser is the identity we extract from a verified Google ID token.
// Google returns a larger claim set — we keep only what the account needs.
type GoogleUser struct {
	Subject string // Google's stable subject ID — never changes for an account
	Email   string
	Name    string
	Picture string
}

// GoogleProvider verifies Google ID tokens and runs the Authorization Code
// flow for server-initiated sign-in.
//
// The SPA normally signs the user in with Google's client SDK and sends us
// the resulting ID token; VerifyIDToken is the hot path. The code-flow
// methods (AuthURL/Exchange) exist for clients without the SDK.
//
// CAPABILITY FLAG:
// A provider constructed without credentials reports Available() == false,
// and every call returns ErrProviderUnavailable. Callers check the flag (or
// the typed error) instead of discovering missing credentials via a failed
// upstream call.
type GoogleProvider struct {
	config *oauth2.Config
	client *http.Client
}

// ErrProviderUnavailable is returned when the Google provider has no
// credentials configured.
var ErrProviderUnavailable = fmt.Errorf("auth: identity provider unavailable")

// NewGoogleProvider creates a GoogleProvider. Pass empty credentials to get
// an unavailable provider (the server still starts; federated sign-in is off).
//
// Scopes requested: openid profile email — just enough to build an account.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	if clientID == "" || clientSecret == "" || callbackURL == "" {
		return &GoogleProvider{}
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Available reports whether the provider has credentials and can be called.
// A nil provider reads as unavailable.
func (p *GoogleProvider) Available() bool {
	return p != nil && p.config != nil
}

// AuthURL returns the Google authorization URL for the code flow. The state
// parameter must be random and verified on callback (CSRF protection).
func (p *GoogleProvider) AuthURL(state string) string {
	if !p.Available() {
		return ""
	}
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the code flow: trades the authorization code for a
// verified Google identity. The oauth2 token response carries the ID token in
// the "id_token" extra field; we verify it like any client-supplied ID token
// rather than trusting the exchange alone.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	if !p.Available() {
		return nil, ErrProviderUnavailable
	}

	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	idToken, _ := oauthToken.Extra("id_token").(string)
	if idToken == "" {
		return nil, fmt.Errorf("auth: token response missing id_token")
	}

	return p.VerifyIDToken(ctx, idToken)
}

// tokenInfoResponse is the subset of Google's tokeninfo response we consume.
type tokenInfoResponse struct {
	Subject       string `json:"sub"`
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"` // Google returns "true"/"false" as strings
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyIDToken verifies a Google ID token and returns the identity it
// asserts.
//
// Checks performed:
//   - Google accepts the token at all (tokeninfo rejects bad signatures and
//     expired tokens with a non-200 status)
//   - the audience matches our client ID (a valid token minted for some OTHER
//     app must not sign users into this one)
//   - the subject is present
func (p *GoogleProvider) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUser, error) {
	if !p.Available() {
		return nil, ErrProviderUnavailable
	}

	endpoint := tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building tokeninfo request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: tokeninfo rejected token (status %d)", resp.StatusCode)
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("auth: decoding tokeninfo response: %w", err)
	}

	if info.Audience != p.config.ClientID {
		return nil, fmt.Errorf("auth: token audience mismatch")
	}
	if info.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return &GoogleUser{
		Subject: info.Subject,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
