package channels

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/onecube/backend/internal/domain/channel"
)

// shopeeAuthPath is the signed open platform endpoint the merchant is sent to.
const shopeeAuthPath = "/api/v2/shop/auth_partner"

// ShopeeSandboxHost is the sandbox open platform endpoint.
const ShopeeSandboxHost = "https://openplatform.sandbox.test-stable.shopee.sg"

// Errors for Shopee configuration
var (
	ErrShopeeConfigMissingPartnerID   = errors.New("shopee: partner id is required")
	ErrShopeeConfigMissingPartnerKey  = errors.New("shopee: partner key is required")
	ErrShopeeConfigMissingRedirectURI = errors.New("shopee: redirect uri is required")
)

// ShopeeConfig holds the Shopee open platform app credentials
type ShopeeConfig struct {
	// Host is the open platform base URL (production or sandbox)
	Host string
	// PartnerID is the app identifier from the Shopee open platform console
	PartnerID int64
	// PartnerKey signs authorization requests
	PartnerKey string
	// RedirectURI is where Shopee sends the merchant after consent
	RedirectURI string
}

// Validate validates the Shopee configuration
func (c *ShopeeConfig) Validate() error {
	if c.PartnerID == 0 {
		return ErrShopeeConfigMissingPartnerID
	}
	if c.PartnerKey == "" {
		return ErrShopeeConfigMissingPartnerKey
	}
	if c.RedirectURI == "" {
		return ErrShopeeConfigMissingRedirectURI
	}
	if c.Host == "" {
		c.Host = ShopeeSandboxHost
	}
	return nil
}

// Sign generates the request signature for the auth_partner endpoint.
// Shopee signs HMAC-SHA256(partner_key, partner_id + path + timestamp),
// hex encoded.
func (c *ShopeeConfig) Sign(timestamp int64) string {
	baseString := fmt.Sprintf("%d%s%d", c.PartnerID, shopeeAuthPath, timestamp)
	mac := hmac.New(sha256.New, []byte(c.PartnerKey))
	mac.Write([]byte(baseString))
	return hex.EncodeToString(mac.Sum(nil))
}

// ShopeeConnector implements the channel.Connector port for Shopee.
//
// Shopee's flow has no PKCE: the state rides on the redirect URI as a query
// parameter because the auth_partner endpoint does not forward a standalone
// state parameter.
type ShopeeConnector struct {
	config *ShopeeConfig
	def    channel.Definition

	// now is swappable so signature tests can pin the timestamp
	now func() time.Time
}

// NewShopeeConnector creates a Shopee connector with the given configuration
func NewShopeeConnector(config *ShopeeConfig, def channel.Definition) (*ShopeeConnector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ShopeeConnector{
		config: config,
		def:    def,
		now:    time.Now,
	}, nil
}

// Name returns the channel name
func (s *ShopeeConnector) Name() string {
	return "shopee"
}

// Definition returns the catalog definition
func (s *ShopeeConnector) Definition() channel.Definition {
	return s.def
}

// GenerateAuthLink builds the signed auth_partner URL with a fresh state
// embedded in the redirect parameter.
func (s *ShopeeConnector) GenerateAuthLink(ctx context.Context) (channel.AuthLinkResult, error) {
	state, err := channel.RandomToken()
	if err != nil {
		return channel.AuthLinkResult{}, err
	}

	timestamp := s.now().Unix()
	redirectWithState := s.config.RedirectURI + "?state=" + state

	query := url.Values{}
	query.Set("partner_id", strconv.FormatInt(s.config.PartnerID, 10))
	query.Set("redirect", redirectWithState)
	query.Set("timestamp", strconv.FormatInt(timestamp, 10))
	query.Set("sign", s.config.Sign(timestamp))

	return channel.AuthLinkResult{
		AuthLink: s.config.Host + shopeeAuthPath + "?" + query.Encode(),
		State:    state,
	}, nil
}

// ValidateCallbackParams checks the Shopee-specific callback parameters.
func (s *ShopeeConnector) ValidateCallbackParams(params channel.CallbackParams) error {
	shopID := params.Get("shop_id")
	if shopID == "" {
		return fmt.Errorf("%w: shop_id", channel.ErrCallbackMissingParams)
	}
	// Shopee shop ids are numeric, anything else is a tampered callback
	if _, err := strconv.ParseUint(shopID, 10, 64); err != nil {
		return fmt.Errorf("%w: shop_id must be numeric", channel.ErrCallbackInvalidParams)
	}
	if params.Get("code") == "" {
		return fmt.Errorf("%w: code", channel.ErrCallbackMissingParams)
	}
	return nil
}

// ExtractCredentials maps the Shopee callback into credential fields. The
// authorization code doubles as the API key; token exchange happens later in
// the sync pipeline.
func (s *ShopeeConnector) ExtractCredentials(params channel.CallbackParams, _ channel.StateVerification) (channel.Credentials, error) {
	creds := channel.Credentials{
		channel.CredentialShopID: params.Get("shop_id"),
		channel.CredentialAPIKey: params.Get("code"),
	}
	if secret := params.Get("api_secret"); secret != "" {
		creds[channel.CredentialAPISecret] = secret
	}
	return creds, nil
}

var _ channel.Connector = (*ShopeeConnector)(nil)
