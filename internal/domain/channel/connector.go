package channel

import "context"

// ---------------------------------------------------------------------------
// Connector
// ---------------------------------------------------------------------------

// CallbackParams are the query parameters the marketplace appended to the
// callback redirect.
type CallbackParams map[string]string

// Get returns the named parameter, or "" when absent.
func (p CallbackParams) Get(name string) string {
	if p == nil {
		return ""
	}
	return p[name]
}

// AuthLinkResult is a freshly generated authorization link together with the
// state (and PKCE verifier, when the channel uses one) that must be persisted
// before the link is handed out.
type AuthLinkResult struct {
	AuthLink string
	State    string
	// CodeVerifier is empty for channels without PKCE.
	CodeVerifier string
}

// Connector is the per-channel OAuth capability. A channel that cannot be
// connected through the redirect flow simply has no Connector; nothing else
// distinguishes it.
//
// GenerateAuthLink is pure with respect to storage: it returns the state it
// minted and the caller persists it. That keeps the single point of state
// persistence in the connect service.
type Connector interface {
	// Name returns the channel name the connector serves, lowercase.
	Name() string

	// Definition returns the catalog definition of the channel.
	Definition() Definition

	// GenerateAuthLink builds the marketplace authorization URL with a
	// fresh state token embedded.
	GenerateAuthLink(ctx context.Context) (AuthLinkResult, error)

	// ValidateCallbackParams checks the channel-specific required
	// parameters beyond code and state. It returns
	// ErrCallbackMissingParams (wrapped with the field name) when one is
	// absent.
	ValidateCallbackParams(params CallbackParams) error

	// ExtractCredentials maps callback parameters and the verified state
	// into the channel's credential fields.
	ExtractCredentials(params CallbackParams, verification StateVerification) (Credentials, error)
}
