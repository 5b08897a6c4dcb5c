package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onecube/backend/internal/domain/channel"
)

// stateKeyPrefix namespaces OAuth state keys in Redis.
const stateKeyPrefix = "oauth:state:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// statePayload is the JSON document stored per state key. ExpiresAt is kept
// in the payload because the key's own TTL is set looser than the state TTL:
// the store has to tell an expired token apart from an unknown one.
type statePayload struct {
	ChannelName  string    `json:"channel_name"`
	UserID       string    `json:"user_id"`
	CodeVerifier string    `json:"code_verifier,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// consumeStateScript reads the payload and deletes the key in one atomic
// step, but only when the stored channel matches. Return codes:
// payload string on success, 0 = key missing, 1 = channel mismatch
// (key left in place).
var consumeStateScript = redis.NewScript(`
local payload = redis.call('GET', KEYS[1])
if not payload then
	return 0
end
local decoded = cjson.decode(payload)
if decoded.channel_name ~= ARGV[1] then
	return 1
end
redis.call('DEL', KEYS[1])
return payload
`)

// RedisStateStore implements channel.StateStore backed by Redis. It serves
// deployments that prefer keeping short-lived tokens out of Postgres.
type RedisStateStore struct {
	client redis.UniversalClient

	// now is swappable in tests
	now func() time.Time
}

// NewRedisStateStore creates a Redis-backed state store with an existing
// client
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client, now: time.Now}
}

// NewRedisStateStoreFromConfig creates a store with its own Redis client
func NewRedisStateStoreFromConfig(cfg RedisConfig) (*RedisStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStateStore(client), nil
}

// Put persists the state. The key TTL is twice the state TTL so a late
// callback still gets ErrStateExpired instead of ErrStateNotFound.
func (s *RedisStateStore) Put(ctx context.Context, state channel.OAuthState) error {
	payload, err := json.Marshal(statePayload{
		ChannelName:  state.ChannelName,
		UserID:       state.UserID,
		CodeVerifier: state.CodeVerifier,
		CreatedAt:    state.CreatedAt,
		ExpiresAt:    state.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	keyTTL := 2 * state.ExpiresAt.Sub(s.now().UTC())
	if keyTTL <= 0 {
		keyTTL = time.Minute
	}
	if err := s.client.Set(ctx, stateKeyPrefix+state.State, payload, keyTTL).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// VerifyAndConsume atomically checks and deletes the state via a Lua script.
func (s *RedisStateStore) VerifyAndConsume(ctx context.Context, state, channelName string) (channel.StateVerification, error) {
	result, err := consumeStateScript.Run(ctx, s.client, []string{stateKeyPrefix + state}, channelName).Result()
	if err != nil {
		return channel.StateVerification{}, fmt.Errorf("consume state: %w", err)
	}

	switch v := result.(type) {
	case int64:
		if v == 1 {
			return channel.StateVerification{}, channel.ErrStateChannelMismatch
		}
		return channel.StateVerification{}, channel.ErrStateNotFound
	case string:
		var payload statePayload
		if err := json.Unmarshal([]byte(v), &payload); err != nil {
			return channel.StateVerification{}, fmt.Errorf("decode state: %w", err)
		}
		if !s.now().UTC().Before(payload.ExpiresAt) {
			// The script already deleted the key, consuming the token.
			return channel.StateVerification{}, channel.ErrStateExpired
		}
		return channel.StateVerification{
			UserID:       payload.UserID,
			CodeVerifier: payload.CodeVerifier,
		}, nil
	default:
		return channel.StateVerification{}, fmt.Errorf("consume state: unexpected script result %T", result)
	}
}

// PurgeExpired is a no-op for Redis: key TTLs already evict stale states.
func (s *RedisStateStore) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

var _ channel.StateStore = (*RedisStateStore)(nil)
