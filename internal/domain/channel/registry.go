package channel

import "strings"

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Registry holds the catalog of sales channel definitions. Lookups by name
// are case-insensitive; definitions are returned by value so callers cannot
// mutate the catalog.
type Registry struct {
	byName  map[string]Definition
	ordered []Definition
}

// NewRegistry builds a registry from the given definitions. It rejects
// duplicate names (case-insensitive), empty names and unknown auth types.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{
		byName:  make(map[string]Definition, len(defs)),
		ordered: make([]Definition, 0, len(defs)),
	}
	for _, def := range defs {
		name := strings.ToLower(strings.TrimSpace(def.Name))
		if name == "" {
			return nil, ErrInvalidChannelName
		}
		if !def.AuthType.IsValid() {
			return nil, ErrInvalidAuthType
		}
		if _, exists := r.byName[name]; exists {
			return nil, ErrDuplicateChannel
		}
		def.Name = name
		r.byName[name] = def
		r.ordered = append(r.ordered, def)
	}
	return r, nil
}

// All returns every definition in registration order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Get looks up a definition by name, case-insensitively.
func (r *Registry) Get(name string) (Definition, error) {
	def, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Definition{}, ErrChannelNotFound
	}
	return def, nil
}

// ByAuthType returns the definitions using the given auth type.
func (r *Registry) ByAuthType(authType AuthType) []Definition {
	var out []Definition
	for _, def := range r.ordered {
		if def.AuthType == authType {
			out = append(out, def)
		}
	}
	return out
}

// IsOAuthChannel reports whether the named channel uses the redirect flow.
// Unknown channels report false.
func (r *Registry) IsOAuthChannel(name string) bool {
	def, err := r.Get(name)
	return err == nil && def.IsOAuth()
}

// ValidateCredentials checks creds against the named channel's definition.
func (r *Registry) ValidateCredentials(name string, creds Credentials) (CredentialValidation, error) {
	def, err := r.Get(name)
	if err != nil {
		return CredentialValidation{}, err
	}
	return def.ValidateCredentials(creds), nil
}

// ---------------------------------------------------------------------------
// Default catalog
// ---------------------------------------------------------------------------

// DefaultDefinitions returns the built-in channel catalog. Deployments can
// override it through configuration.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			ID:                  1,
			Name:                "shopee",
			Icon:                "🛍️",
			Description:         "Southeast Asia and Taiwan online marketplace",
			AuthType:            AuthTypeOAuth,
			RequiredCredentials: []string{CredentialShopID, CredentialAPIKey},
			OptionalCredentials: []string{CredentialAPISecret},
		},
		{
			ID:                  2,
			Name:                "tiktok",
			Icon:                "🎵",
			Description:         "TikTok Shop social commerce platform",
			AuthType:            AuthTypeOAuth,
			RequiredCredentials: []string{CredentialAPIKey},
			OptionalCredentials: []string{CredentialAPISecret},
		},
		{
			ID:                  3,
			Name:                "tokopedia",
			Icon:                "🟢",
			Description:         "Indonesian e-commerce marketplace",
			AuthType:            AuthTypeAPIKey,
			RequiredCredentials: []string{CredentialAPIKey, CredentialAPISecret},
		},
		{
			ID:                  4,
			Name:                "lazada",
			Icon:                "🔵",
			Description:         "Southeast Asia e-commerce platform",
			AuthType:            AuthTypeAPIKey,
			RequiredCredentials: []string{CredentialAPIKey, CredentialAPISecret},
		},
		{
			ID:                  5,
			Name:                "bukalapak",
			Icon:                "🔴",
			Description:         "Indonesian online marketplace",
			AuthType:            AuthTypeAPIKey,
			RequiredCredentials: []string{CredentialAPIKey, CredentialAPISecret},
		},
		{
			ID:                  6,
			Name:                "blibli",
			Icon:                "🟦",
			Description:         "Indonesian e-commerce marketplace",
			AuthType:            AuthTypeAPIKey,
			RequiredCredentials: []string{CredentialAPIKey, CredentialAPISecret},
		},
	}
}
