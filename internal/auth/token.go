// internal/auth/token.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/law-makers/homeharvest/internal/httpclient"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTokenURL is the realtor.com mobile token exchange endpoint
	DefaultTokenURL = "https://graph.realtor.com/auth/token"

	mobileAppVersion = "24.20.4.149916"
	mobileClientID   = "rdc_mobile_native," + mobileAppVersion + ",iphone"
	mobileUserAgent  = "Realtor.com/" + mobileAppVersion + " CFNetwork/1410.0.3 Darwin/22.6.0"

	// ApolloClientName identifies the iOS app to the GraphQL gateway
	ApolloClientName = "com.move.Realtor-apollo-ios"
)

// AuthenticationError is returned when no bearer token could be obtained.
// Response holds the raw exchange response for diagnostics and may be nil.
type AuthenticationError struct {
	Message  string
	Response *httpclient.Response
	Err      error
}

func (e *AuthenticationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Response != nil {
		fmt.Fprintf(&b, " (status %d)", e.Response.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// TokenSource produces a bearer token
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// DeviceTokenSource performs the anonymous mobile-device token exchange
type DeviceTokenSource struct {
	Client *httpclient.Client
	URL    string
}

// NewDeviceTokenSource creates a source against the default endpoint
func NewDeviceTokenSource(client *httpclient.Client) *DeviceTokenSource {
	return &DeviceTokenSource{Client: client, URL: DefaultTokenURL}
}

// Token exchanges a fresh random device id for an access token
func (s *DeviceTokenSource) Token(ctx context.Context) (string, error) {
	url := s.URL
	if url == "" {
		url = DefaultTokenURL
	}

	payload := map[string]string{
		"client_app_id": mobileClientID,
		"device_id":     strings.ToUpper(uuid.NewString()),
		"grant_type":    "device_mobile",
	}
	headers := map[string]string{
		"x-client-version": mobileAppVersion,
		"accept":           "*/*",
		"user-agent":       mobileUserAgent,
	}

	resp, err := s.Client.Post(ctx, url, payload, headers)
	if err != nil {
		return "", &AuthenticationError{
			Message:  "Failed to get access token, use a proxy/vpn or wait a moment and try again.",
			Response: resp,
			Err:      err,
		}
	}

	token := resp.JSON().Get("access_token").String()
	if token == "" {
		return "", &AuthenticationError{
			Message:  "Failed to get access token, use a proxy/vpn or wait a moment and try again.",
			Response: resp,
		}
	}
	return token, nil
}

// Session owns the bearer token for one process. The token is fetched
// lazily on first use and then reused; a failed fetch is not cached so a
// later call may try again.
type Session struct {
	source TokenSource

	mu    sync.Mutex
	token string
}

// NewSession wraps a token source
func NewSession(source TokenSource) *Session {
	return &Session{source: source}
}

// Token returns the cached token, fetching it on first use
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	token, err := s.source.Token(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	log.Debug().Msg("Obtained realtor.com bearer token")
	return token, nil
}

// Headers returns the authentication headers for GraphQL calls
func (s *Session) Headers(ctx context.Context) (map[string]string, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"auth":                      "Bearer " + token,
		"apollographql-client-name": ApolloClientName,
	}, nil
}

// Reset drops the cached token
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
