// Package channel contains the Sales Channel bounded context.
// This context manages the catalog of connectable marketplaces and the OAuth
// flow that links a team to one of them.
//
// Key concepts:
//   - Definition / Registry: static catalog of channels and their credential requirements
//   - Connector: port for per-channel OAuth behavior (auth link, callback validation, credential extraction)
//   - OAuthState / StateStore: single-use CSRF state tokens with a bounded lifetime
//   - TeamChannelConnection: a team's link to a channel and the credentials obtained for it
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package channel
