package mimecast

import (
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Session holds the state of one authenticated connection: the resolved
// base URL, the region it was resolved from, the bearer token with its
// absolute expiry, and the client id used to obtain it. The client secret
// is never retained.
//
// A Session is safe for concurrent use, though cursors make paginated
// requests inherently sequential.
type Session struct {
	mu       sync.RWMutex
	baseURL  string
	region   Region
	clientID string
	token    *oauth2.Token
}

// SessionInfo is the caller-visible connection state.
type SessionInfo struct {
	BaseURL     string
	Region      Region
	ClientID    string
	TokenExpiry time.Time
}

// IsConnected reports whether the session holds a token. It does not check
// expiry; an expired token still counts as connected and surfaces as
// ErrTokenExpired on use.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != nil && s.token.AccessToken != ""
}

// Info returns the current connection configuration.
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := SessionInfo{
		BaseURL:  s.baseURL,
		Region:   s.region,
		ClientID: s.clientID,
	}
	if s.token != nil {
		info.TokenExpiry = s.token.Expiry
	}
	return info
}

// Clear zeroes the token, expiry and credential handle, disconnecting the
// session. Long-term stored credentials are unaffected.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.clientID = ""
}

// bearer returns the access token for an outgoing request, failing before
// any network call when the session is unset or expired.
func (s *Session) bearer(now time.Time) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil || s.token.AccessToken == "" {
		return "", ErrNotConnected
	}
	if !now.Before(s.token.Expiry) {
		return "", ErrTokenExpired
	}
	return s.token.AccessToken, nil
}
