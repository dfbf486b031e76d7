// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tokenclient is the Go client for a yomira-id server.

It covers the three things a relying application does:

  - Obtain tokens: [Client.Login] and [Client.Refresh].
  - Obtain an anonymous credential: [Client.AnonymousToken] blinds a message,
    has the server sign it under its current blind key, and unblinds the result.
  - Check what it receives: [Verifier] validates ID tokens against /jwks, and
    [AnonymousVerifier] validates unblinded signatures against /blindjwks.

The server never sees the message behind an anonymous credential, so the
credential cannot be linked back to the login that paid for it.
*/
package tokenclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

// # Client

// Client calls the identity API under a versioned root such as
// "https://id.example.com/v1.0".
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) { client.httpClient = httpClient }
}

// WithClientID sends clientID with every token request; issued tokens carry
// it as their audience.
func WithClientID(clientID string) Option {
	return func(client *Client) { client.clientID = clientID }
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, options ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// # Tokens

// Tokens is an ID token and the refresh token paired with it.
type Tokens struct {
	IDToken      string
	RefreshToken string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	AllowedApps  []string
	Issuer       string
	SubscriberID string
	Username     string
	IsAdmin      bool
}

type tokenEnvelope struct {
	Token struct {
		ID           string   `json:"id"`
		Refresh      string   `json:"refresh"`
		IssuedAt     int64    `json:"issued_at"`
		Expires      int64    `json:"expires"`
		AllowedApps  []string `json:"allowed_apps"`
		Issuer       string   `json:"issuer"`
		SubscriberID string   `json:"subscriber_id"`
	} `json:"token"`
	Metadata struct {
		Username string `json:"username"`
		IsAdmin  bool   `json:"is_admin"`
	} `json:"metadata"`
}

func (envelope tokenEnvelope) tokens() *Tokens {
	return &Tokens{
		IDToken:      envelope.Token.ID,
		RefreshToken: envelope.Token.Refresh,
		IssuedAt:     time.Unix(envelope.Token.IssuedAt, 0),
		ExpiresAt:    time.Unix(envelope.Token.Expires, 0),
		AllowedApps:  envelope.Token.AllowedApps,
		Issuer:       envelope.Token.Issuer,
		SubscriberID: envelope.Token.SubscriberID,
		Username:     envelope.Metadata.Username,
		IsAdmin:      envelope.Metadata.IsAdmin,
	}
}

// Login exchanges a username and password for tokens.
func (client *Client) Login(ctx context.Context, username, password string) (*Tokens, error) {
	body := map[string]any{
		"auth": map[string]string{"username": username, "password": password},
	}
	if client.clientID != "" {
		body["client_id"] = client.clientID
	}

	var envelope tokenEnvelope
	if err := client.post(ctx, "/tokens", "", body, &envelope); err != nil {
		return nil, err
	}
	return envelope.tokens(), nil
}

// Refresh redeems a refresh token. The old refresh token is consumed even
// when the caller loses the response, so keep only the newest one.
func (client *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	body := map[string]any{"refresh_token": refreshToken}
	if client.clientID != "" {
		body["client_id"] = client.clientID
	}

	var envelope tokenEnvelope
	if err := client.post(ctx, "/refresh", "", body, &envelope); err != nil {
		return nil, err
	}
	return envelope.tokens(), nil
}

// # Transport

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tokenclient: %d %s: %s", e.Status, e.Code, e.Message)
}

func (client *Client) post(ctx context.Context, path, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("tokenclient: encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("tokenclient: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	return client.do(request, out)
}

func (client *Client) get(ctx context.Context, path string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("tokenclient: build request: %w", err)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("tokenclient: GET %s: %w", path, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("tokenclient: read %s: %w", path, err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, decodeError(response.StatusCode, raw)
	}
	return raw, nil
}

// do sends request and unwraps the {"data": ...} envelope into out.
func (client *Client) do(request *http.Request, out any) error {
	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("tokenclient: %s %s: %w", request.Method, request.URL.Path, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("tokenclient: read response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return decodeError(response.StatusCode, raw)
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("tokenclient: decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("tokenclient: decode response data: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	apiError := &APIError{Status: status}
	body := struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}{}
	if json.Unmarshal(raw, &body) == nil {
		apiError.Code, apiError.Message = body.Code, body.Error
	}
	if apiError.Message == "" {
		apiError.Message = http.StatusText(status)
	}
	return apiError
}
