package channels

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/onecube/backend/internal/domain/channel"
)

// MockStateStore is a mock implementation of channel.StateStore
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Put(ctx context.Context, state channel.OAuthState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockStateStore) VerifyAndConsume(ctx context.Context, state, channelName string) (channel.StateVerification, error) {
	args := m.Called(ctx, state, channelName)
	return args.Get(0).(channel.StateVerification), args.Error(1)
}

func (m *MockStateStore) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockConnectionRepository is a mock implementation of channel.ConnectionRepository
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) Upsert(ctx context.Context, conn *channel.TeamChannelConnection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) Find(ctx context.Context, teamID uuid.UUID, channelID string) (*channel.TeamChannelConnection, error) {
	args := m.Called(ctx, teamID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.TeamChannelConnection), args.Error(1)
}

func (m *MockConnectionRepository) ListForTeam(ctx context.Context, teamID uuid.UUID) ([]*channel.TeamChannelConnection, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*channel.TeamChannelConnection), args.Error(1)
}

func (m *MockConnectionRepository) SetConnected(ctx context.Context, teamID uuid.UUID, channelID string, connected bool) error {
	args := m.Called(ctx, teamID, channelID, connected)
	return args.Error(0)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, teamID uuid.UUID, channelID string) error {
	args := m.Called(ctx, teamID, channelID)
	return args.Error(0)
}

// MockTeamMembershipRepository is a mock implementation of
// channel.TeamMembershipRepository
type MockTeamMembershipRepository struct {
	mock.Mock
}

func (m *MockTeamMembershipRepository) FindTeamForUser(ctx context.Context, userID string) (uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// fakeConnector is a deterministic channel.Connector for pipeline tests.
type fakeConnector struct {
	name         string
	def          channel.Definition
	link         channel.AuthLinkResult
	linkErr      error
	validateErr  error
	extractCreds channel.Credentials
	extractErr   error
}

func (f *fakeConnector) Name() string                   { return f.name }
func (f *fakeConnector) Definition() channel.Definition { return f.def }
func (f *fakeConnector) GenerateAuthLink(ctx context.Context) (channel.AuthLinkResult, error) {
	return f.link, f.linkErr
}
func (f *fakeConnector) ValidateCallbackParams(params channel.CallbackParams) error {
	return f.validateErr
}
func (f *fakeConnector) ExtractCredentials(params channel.CallbackParams, v channel.StateVerification) (channel.Credentials, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	if f.extractCreds != nil {
		return f.extractCreds, nil
	}
	return channel.Credentials{
		channel.CredentialShopID: params.Get("shop_id"),
		channel.CredentialAPIKey: params.Get("code"),
	}, nil
}

func testCatalog() *channel.Registry {
	registry, err := channel.NewRegistry(channel.DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return registry
}

func newShopeeFake() *fakeConnector {
	return &fakeConnector{
		name: "shopee",
		def: channel.Definition{
			ID:                  1,
			Name:                "shopee",
			AuthType:            channel.AuthTypeOAuth,
			RequiredCredentials: []string{channel.CredentialShopID, channel.CredentialAPIKey},
		},
		link: channel.AuthLinkResult{
			AuthLink: "https://partner.example.com/auth?state=abc",
			State:    "abc",
		},
	}
}
