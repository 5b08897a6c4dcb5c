package channel

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// OAuth State Errors
// ---------------------------------------------------------------------------

var (
	ErrStateNotFound        = errors.New("channel: oauth state not found")
	ErrStateExpired         = errors.New("channel: oauth state expired")
	ErrStateChannelMismatch = errors.New("channel: oauth state issued for another channel")
)

// DefaultStateTTL is how long an issued state token stays valid.
const DefaultStateTTL = 10 * time.Minute

// ---------------------------------------------------------------------------
// OAuthState
// ---------------------------------------------------------------------------

// OAuthState is a single-use CSRF token issued when an authorization link is
// generated. It binds the eventual callback to the user and channel that
// started the flow, and carries the PKCE verifier for channels that use one.
type OAuthState struct {
	// State is the opaque token embedded in the authorization URL.
	State       string
	ChannelName string
	UserID      string
	// CodeVerifier is empty for channels without PKCE.
	CodeVerifier string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// IsExpired reports whether the state is expired at the given time.
// A state is expired from the instant it reaches ExpiresAt.
func (s OAuthState) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NewState binds an issued state token to the user and channel that started
// the flow. Zero or negative TTLs fall back to DefaultStateTTL.
func NewState(token, channelName, userID, codeVerifier string, ttl time.Duration) OAuthState {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	now := time.Now().UTC()
	return OAuthState{
		State:        token,
		ChannelName:  channelName,
		UserID:       userID,
		CodeVerifier: codeVerifier,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

// RandomToken returns 32 bytes of crypto/rand entropy as a hex string.
func RandomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ---------------------------------------------------------------------------
// StateStore
// ---------------------------------------------------------------------------

// StateVerification is what a consumed state yields back to the callback
// pipeline.
type StateVerification struct {
	UserID       string
	CodeVerifier string
}

// StateStore persists issued OAuth states. Implementations must be durable
// across process restarts and must make VerifyAndConsume atomic: a given
// state succeeds verification at most once, even under concurrent callbacks.
type StateStore interface {
	// Put persists the state. It must complete before the authorization
	// link is handed to the caller.
	Put(ctx context.Context, state OAuthState) error

	// VerifyAndConsume atomically checks and deletes the state.
	// It returns ErrStateNotFound for unknown or already-consumed tokens,
	// ErrStateExpired for tokens past their TTL (the token is consumed),
	// and ErrStateChannelMismatch when the token belongs to a different
	// channel (the token is NOT consumed, so the legitimate callback can
	// still verify it).
	VerifyAndConsume(ctx context.Context, state, channelName string) (StateVerification, error)

	// PurgeExpired removes every expired state and returns how many were
	// deleted.
	PurgeExpired(ctx context.Context) (int64, error)
}
