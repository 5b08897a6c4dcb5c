package channels

import (
	"strings"

	"github.com/onecube/backend/internal/domain/channel"
)

// ConnectorRegistry dispatches by channel name to the Connector serving it.
// A catalog channel without a registered connector is a valid channel that
// simply cannot be connected through the OAuth flow.
type ConnectorRegistry struct {
	catalog    *channel.Registry
	connectors map[string]channel.Connector
}

// NewConnectorRegistry creates a dispatch registry over the catalog
func NewConnectorRegistry(catalog *channel.Registry) *ConnectorRegistry {
	return &ConnectorRegistry{
		catalog:    catalog,
		connectors: make(map[string]channel.Connector),
	}
}

// Register adds a connector. Registering a name twice, a name absent from
// the catalog, or a channel the catalog lists under a non-redirect auth type
// is a wiring bug.
func (r *ConnectorRegistry) Register(c channel.Connector) error {
	name := strings.ToLower(c.Name())
	if _, err := r.catalog.Get(name); err != nil {
		return err
	}
	if !r.catalog.IsOAuthChannel(name) {
		return channel.ErrChannelUnsupported
	}
	if _, exists := r.connectors[name]; exists {
		return channel.ErrDuplicateChannel
	}
	r.connectors[name] = c
	return nil
}

// Get returns the connector for the named channel. It distinguishes a channel
// missing from the catalog (ErrChannelNotFound) from one that exists but has
// no OAuth capability (ErrChannelUnsupported).
func (r *ConnectorRegistry) Get(name string) (channel.Connector, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if _, err := r.catalog.Get(normalized); err != nil {
		return nil, err
	}
	connector, ok := r.connectors[normalized]
	if !ok {
		return nil, channel.ErrChannelUnsupported
	}
	return connector, nil
}

// Catalog returns the underlying channel catalog.
func (r *ConnectorRegistry) Catalog() *channel.Registry {
	return r.catalog
}
