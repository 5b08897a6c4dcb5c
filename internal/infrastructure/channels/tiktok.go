package channels

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/onecube/backend/internal/domain/channel"
)

// tiktokAuthPath is the authorization endpoint path on the auth host.
const tiktokAuthPath = "/v2/auth/authorize/"

// TikTokAuthHost is the default authorization host.
const TikTokAuthHost = "https://www.tiktok.com"

// Errors for TikTok configuration
var (
	ErrTikTokConfigMissingClientKey   = errors.New("tiktok: client key is required")
	ErrTikTokConfigMissingRedirectURI = errors.New("tiktok: redirect uri is required")
)

// DefaultTikTokScopes are requested when the configuration lists none.
var DefaultTikTokScopes = []string{
	"user.info.basic",
	"user.info.profile",
	"user.info.stats",
	"video.list",
	"video.upload",
}

// TikTokConfig holds the TikTok developer app credentials
type TikTokConfig struct {
	// AuthHost is the authorization base URL
	AuthHost string
	// ClientKey identifies the developer app
	ClientKey string
	// ClientSecret is used during token exchange, not link generation
	ClientSecret string
	// RedirectURI is where TikTok sends the user after consent
	RedirectURI string
	// Scopes requested during authorization
	Scopes []string
}

// Validate validates the TikTok configuration
func (c *TikTokConfig) Validate() error {
	if c.ClientKey == "" {
		return ErrTikTokConfigMissingClientKey
	}
	if c.RedirectURI == "" {
		return ErrTikTokConfigMissingRedirectURI
	}
	if c.AuthHost == "" {
		c.AuthHost = TikTokAuthHost
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultTikTokScopes
	}
	return nil
}

// TikTokConnector implements the channel.Connector port for TikTok using the
// PKCE authorization code flow.
type TikTokConnector struct {
	config *TikTokConfig
	def    channel.Definition
}

// NewTikTokConnector creates a TikTok connector with the given configuration
func NewTikTokConnector(config *TikTokConfig, def channel.Definition) (*TikTokConnector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TikTokConnector{config: config, def: def}, nil
}

// Name returns the channel name
func (t *TikTokConnector) Name() string {
	return "tiktok"
}

// Definition returns the catalog definition
func (t *TikTokConnector) Definition() channel.Definition {
	return t.def
}

// GenerateAuthLink builds the authorization URL with fresh state and PKCE
// parameters. The code verifier is returned so the caller can persist it with
// the state; only the S256 challenge goes into the URL.
func (t *TikTokConnector) GenerateAuthLink(ctx context.Context) (channel.AuthLinkResult, error) {
	state, err := channel.RandomToken()
	if err != nil {
		return channel.AuthLinkResult{}, err
	}
	codeVerifier, err := channel.RandomToken()
	if err != nil {
		return channel.AuthLinkResult{}, err
	}

	query := url.Values{}
	query.Set("client_key", t.config.ClientKey)
	query.Set("response_type", "code")
	query.Set("scope", strings.Join(t.config.Scopes, ","))
	query.Set("redirect_uri", t.config.RedirectURI)
	query.Set("state", state)
	query.Set("code_challenge", CodeChallengeS256(codeVerifier))
	query.Set("code_challenge_method", "S256")

	return channel.AuthLinkResult{
		AuthLink:     t.config.AuthHost + tiktokAuthPath + "?" + query.Encode(),
		State:        state,
		CodeVerifier: codeVerifier,
	}, nil
}

// ValidateCallbackParams checks the TikTok-specific callback parameters.
func (t *TikTokConnector) ValidateCallbackParams(params channel.CallbackParams) error {
	if params.Get("code") == "" {
		return fmt.Errorf("%w: code", channel.ErrCallbackMissingParams)
	}
	return nil
}

// ExtractCredentials maps the TikTok callback into credential fields. The
// authorization code lands in api_key and the granted scopes in api_secret
// so the sync pipeline can see what was actually authorized.
func (t *TikTokConnector) ExtractCredentials(params channel.CallbackParams, _ channel.StateVerification) (channel.Credentials, error) {
	creds := channel.Credentials{
		channel.CredentialAPIKey: params.Get("code"),
	}
	if scopes := params.Get("scopes"); scopes != "" {
		creds[channel.CredentialAPISecret] = scopes
	}
	return creds, nil
}

// CodeChallengeS256 derives the PKCE S256 challenge from a verifier:
// base64url without padding of the verifier's SHA-256 digest.
func CodeChallengeS256(codeVerifier string) string {
	digest := sha256.Sum256([]byte(codeVerifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

var _ channel.Connector = (*TikTokConnector)(nil)
