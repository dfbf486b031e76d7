// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tokenclient

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/cloudflare/circl/blindsign/blindrsa"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// defaultRefreshInterval is how often a verifier reloads its key set.
const defaultRefreshInterval = time.Hour

// unknownKeyRefresh limits reloads triggered by an unseen key id.
var unknownKeyRefresh = rate.Every(time.Minute)

// VerifierOptions configures key-set retrieval.
type VerifierOptions struct {
	// HTTPClient fetches the key set; a 15s-timeout client when nil.
	HTTPClient *http.Client

	// RefreshInterval reloads the key set in the background; one hour when zero.
	RefreshInterval time.Duration

	// RefreshErrorHandler observes failed background reloads.
	RefreshErrorHandler func(ctx context.Context, err error)
}

func (options VerifierOptions) storage(ctx context.Context, url string) (jwkset.Storage, error) {
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	remote, err := jwkset.NewStorageFromHTTP(url, jwkset.HTTPClientStorageOptions{
		Client:              httpClient,
		Ctx:                 ctx,
		RefreshInterval:     interval,
		RefreshErrorHandler: options.RefreshErrorHandler,
	})
	if err != nil {
		return nil, fmt.Errorf("tokenclient: load key set %s: %w", url, err)
	}

	return jwkset.NewHTTPClient(jwkset.HTTPClientOptions{
		HTTPURLs:          map[string]jwkset.Storage{url: remote},
		RefreshUnknownKID: rate.NewLimiter(unknownKeyRefresh, 1),
	})
}

// # ID Tokens

// Claims are the verified contents of an ID token.
type Claims struct {
	jwt.RegisteredClaims

	// IsAdmin is the account's admin flag at issuance time.
	IsAdmin bool `json:"iad,omitempty"`
}

// Verifier checks ID tokens against the server's /jwks document.
type Verifier struct {
	keys     keyfunc.Keyfunc
	issuer   string
	audience string
}

// NewVerifier loads jwksURL and keeps it fresh until ctx is cancelled.
//
// audience may be empty to accept tokens issued for any client.
func NewVerifier(ctx context.Context, jwksURL, issuer, audience string, options VerifierOptions) (*Verifier, error) {
	storage, err := options.storage(ctx, jwksURL)
	if err != nil {
		return nil, err
	}

	keys, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("tokenclient: keyfunc: %w", err)
	}

	return &Verifier{keys: keys, issuer: issuer, audience: audience}, nil
}

// Verify checks signature, expiry, issuer and (when configured) audience.
func (verifier *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"ES256", "EdDSA"}),
		jwt.WithIssuer(verifier.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(time.Second),
	}
	if verifier.audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(verifier.audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, verifier.keyFor(ctx), parserOptions...)
	if err != nil {
		return nil, fmt.Errorf("tokenclient: invalid id token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("tokenclient: invalid id token: no subject")
	}
	return claims, nil
}

// keyFor selects by kid when the header carries one. Servers that do not
// embed key ids publish exactly one identity key, which is used directly.
func (verifier *Verifier) keyFor(ctx context.Context) jwt.Keyfunc {
	byKeyID := verifier.keys.KeyfuncCtx(ctx)

	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Header["kid"]; ok {
			return byKeyID(token)
		}

		all, err := verifier.keys.Storage().KeyReadAll(ctx)
		if err != nil {
			return nil, err
		}
		if len(all) != 1 {
			return nil, fmt.Errorf("token has no kid and the key set holds %d keys", len(all))
		}
		if alg := string(all[0].Marshal().ALG); alg != "" && alg != token.Method.Alg() {
			return nil, fmt.Errorf("token alg %s does not match key alg %s", token.Method.Alg(), alg)
		}
		return all[0].Key(), nil
	}
}

// # Anonymous Tokens

// AnonymousVerifier checks unblinded signatures against /blindjwks.
//
// A key disappears from the document one retention period after it was
// retired, and tokens signed under it stop verifying then.
type AnonymousVerifier struct {
	keys jwkset.Storage
}

// NewAnonymousVerifier loads blindJWKSURL and keeps it fresh until ctx is cancelled.
func NewAnonymousVerifier(ctx context.Context, blindJWKSURL string, options VerifierOptions) (*AnonymousVerifier, error) {
	storage, err := options.storage(ctx, blindJWKSURL)
	if err != nil {
		return nil, err
	}
	return &AnonymousVerifier{keys: storage}, nil
}

// Verify checks token's signature under the published key it names.
func (verifier *AnonymousVerifier) Verify(ctx context.Context, token *AnonymousToken) error {
	jwk, err := verifier.keys.KeyRead(ctx, token.KeyID)
	if err != nil {
		return fmt.Errorf("tokenclient: blind key %s: %w", token.KeyID, err)
	}
	publicKey, ok := jwk.Key().(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("tokenclient: blind key %s is not RSA", token.KeyID)
	}

	rsaVerifier, err := blindrsa.NewVerifier(variant, publicKey)
	if err != nil {
		return fmt.Errorf("tokenclient: blind verifier: %w", err)
	}
	if err := rsaVerifier.Verify(token.Message, token.Signature); err != nil {
		return fmt.Errorf("tokenclient: anonymous token rejected: %w", err)
	}
	return nil
}
