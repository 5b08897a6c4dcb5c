package channel

import "errors"

// ---------------------------------------------------------------------------
// Channel Errors
// ---------------------------------------------------------------------------

var (
	// Registry errors
	ErrChannelNotFound    = errors.New("channel: channel not found")
	ErrChannelUnsupported = errors.New("channel: channel does not support oauth connection")
	ErrDuplicateChannel   = errors.New("channel: duplicate channel name")
	ErrInvalidChannelName = errors.New("channel: invalid channel name")
	ErrMissingCredentials = errors.New("channel: missing required credentials")
	ErrInvalidAuthType    = errors.New("channel: invalid auth type")
	ErrInvalidChannelID   = errors.New("channel: invalid channel id")

	// Callback errors
	ErrCallbackDenied        = errors.New("channel: authorization denied by provider")
	ErrCallbackMissingParams = errors.New("channel: missing required callback parameters")
	ErrCallbackInvalidParams = errors.New("channel: invalid callback parameters")
)

// ---------------------------------------------------------------------------
// AuthType
// ---------------------------------------------------------------------------

// AuthType describes how a sales channel authenticates a merchant.
type AuthType string

const (
	// AuthTypeOAuth is the redirect-based authorization flow. The merchant is
	// sent to the marketplace's consent page and credentials arrive on the
	// callback endpoint.
	AuthTypeOAuth AuthType = "oauth"
	// AuthTypeAPIKey means the merchant pastes API credentials directly.
	AuthTypeAPIKey AuthType = "api_key"
)

// IsValid returns true if the auth type is a known value.
func (t AuthType) IsValid() bool {
	switch t {
	case AuthTypeOAuth, AuthTypeAPIKey:
		return true
	}
	return false
}

// String returns the string representation.
func (t AuthType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// Credential fields
// ---------------------------------------------------------------------------

// Credential field names used across channel definitions, extracted callback
// credentials and the team_channels table.
const (
	CredentialShopID    = "shop_id"
	CredentialAPIKey    = "api_key"
	CredentialAPISecret = "api_secret"
)

// Credentials is a sparse map of credential field name to value. Only the
// fields a channel actually uses are present.
type Credentials map[string]string

// Get returns the value for the field, or "" when absent.
func (c Credentials) Get(field string) string {
	if c == nil {
		return ""
	}
	return c[field]
}

// ---------------------------------------------------------------------------
// ChannelDefinition
// ---------------------------------------------------------------------------

// Definition is the static description of a sales channel: its identity,
// how it authenticates and which credential fields it needs.
type Definition struct {
	ID          int
	Name        string
	Icon        string
	Description string
	AuthType    AuthType
	// RequiredCredentials are the fields that must be present before a
	// connection is considered usable.
	RequiredCredentials []string
	// OptionalCredentials may be supplied but are not validated.
	OptionalCredentials []string
}

// CredentialValidation is the result of checking a credential set against a
// channel definition. Missing lists every absent required field, not just the
// first one.
type CredentialValidation struct {
	Valid   bool
	Missing []string
}

// ValidateCredentials checks creds against the definition's required fields.
func (d Definition) ValidateCredentials(creds Credentials) CredentialValidation {
	var missing []string
	for _, field := range d.RequiredCredentials {
		if creds.Get(field) == "" {
			missing = append(missing, field)
		}
	}
	return CredentialValidation{Valid: len(missing) == 0, Missing: missing}
}

// IsOAuth reports whether the channel uses the redirect-based flow.
func (d Definition) IsOAuth() bool {
	return d.AuthType == AuthTypeOAuth
}
