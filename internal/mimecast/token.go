package mimecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// tokenPath is the OAuth2 token endpoint, relative to the bare regional
// base URL (not the /api/v2 prefix).
const tokenPath = "/oauth/token"

// tokenTimeout bounds the token request round-trip.
const tokenTimeout = 30 * time.Second

// tokenResponse is the wire shape of a successful token reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Connect authenticates against the named region with the OAuth2
// client-credentials grant and returns a live session. Any transport
// failure, non-2xx status or missing access_token fails with *AuthError
// and no session state is retained.
func Connect(ctx context.Context, region, clientID, clientSecret string) (*Session, error) {
	resolved, baseURL, err := ResolveRegion(region)
	if err != nil {
		return nil, err
	}

	session, err := ConnectURL(ctx, baseURL, clientID, clientSecret)
	if err != nil {
		return nil, err
	}
	session.region = resolved
	return session, nil
}

// ConnectURL authenticates against a custom base URL, bypassing the region
// table. Used for non-standard deployments and tests.
func ConnectURL(ctx context.Context, baseURL, clientID, clientSecret string) (*Session, error) {
	token, err := requestToken(ctx, baseURL, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	return &Session{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		token:    token,
	}, nil
}

// requestToken performs the client-credentials token POST and computes the
// token's absolute expiry from expires_in.
func requestToken(ctx context.Context, baseURL, clientID, clientSecret string) (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	endpoint := strings.TrimRight(baseURL, "/") + tokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: tokenTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("token request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("read token response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &AuthError{Err: fmt.Errorf("decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(body),
			Err: fmt.Errorf("token response missing access_token")}
	}

	return &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
		Expiry:      time.Now().UTC().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
