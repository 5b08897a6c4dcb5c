package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/onecube/backend/internal/domain/channel"
)

func parseRedirect(t *testing.T, w *httptest.ResponseRecorder) (string, url.Values) {
	t.Helper()
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return loc.Path, loc.Query()
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func newToken(t *testing.T) string {
	t.Helper()
	token, err := channel.RandomToken()
	require.NoError(t, err)
	return token
}

func seedState(t *testing.T, f *handlerFixture, channelName, verifier string) string {
	t.Helper()
	return seedStateWithTTL(t, f, channelName, verifier, channel.DefaultStateTTL)
}

func seedStateWithTTL(t *testing.T, f *handlerFixture, channelName, verifier string, ttl time.Duration) string {
	t.Helper()
	state := newToken(t)
	now := time.Now().UTC()
	require.NoError(t, f.states.Put(context.Background(), channel.OAuthState{
		State:        state,
		ChannelName:  channelName,
		UserID:       f.userID,
		CodeVerifier: verifier,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}))
	return state
}

func TestCallbackHandler_ShopeeSuccess(t *testing.T) {
	f := newHandlerFixture(t)
	state := seedState(t, f, "shopee", "")

	w := f.do(t, "GET", "/callback/auth/shopee?code=authcode&shop_id=226354&state="+state)

	path, query := parseRedirect(t, w)
	assert.Equal(t, "/settings", path)
	assert.Equal(t, "shopee_connected", query.Get("success"))
	assert.Equal(t, "Shopee connected successfully!", query.Get("success_message"))

	cookie := findCookie(w, "shopee_auth_state")
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)

	conn, err := f.db.Raw(
		"SELECT connected FROM team_channels WHERE team_id = ? AND channel_id = ?",
		f.teamID, "shopee",
	).Rows()
	require.NoError(t, err)
	defer conn.Close()
	require.True(t, conn.Next())
}

func TestCallbackHandler_TikTokSuccess(t *testing.T) {
	f := newHandlerFixture(t)
	state := seedState(t, f, "tiktok", newToken(t))

	w := f.do(t, "GET", "/callback/auth/tiktok?code=tkcode&scopes=user.info.basic,video.list&state="+state)

	_, query := parseRedirect(t, w)
	assert.Equal(t, "tiktok_connected", query.Get("success"))
	assert.Equal(t, "Tiktok connected successfully!", query.Get("success_message"))
}

func TestCallbackHandler_ProviderError(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "GET", "/callback/auth/shopee?error=access_denied&error_description=user+denied")

	_, query := parseRedirect(t, w)
	assert.Equal(t, "shopee_error", query.Get("error"))
	assert.Contains(t, query.Get("error_message"), "shopee authentication failed")

	// Cookie is cleared on the error path too.
	cookie := findCookie(w, "shopee_auth_state")
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestCallbackHandler_MissingParams(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name   string
		target string
	}{
		{"missing code", "/callback/auth/shopee?state=abc&shop_id=1"},
		{"missing state", "/callback/auth/shopee?code=authcode&shop_id=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, "GET", tt.target)

			_, query := parseRedirect(t, w)
			assert.Equal(t, "shopee_error", query.Get("error"))
		})
	}
}

func TestCallbackHandler_UnknownState(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "GET", "/callback/auth/shopee?code=authcode&shop_id=1&state="+newToken(t))

	_, query := parseRedirect(t, w)
	assert.Equal(t, "shopee_error", query.Get("error"))
	assert.Contains(t, query.Get("error_message"), "session may have expired")
}

func TestCallbackHandler_ExpiredState(t *testing.T) {
	f := newHandlerFixture(t)
	state := seedStateWithTTL(t, f, "shopee", "", -time.Minute)

	w := f.do(t, "GET", "/callback/auth/shopee?code=authcode&shop_id=226354&state="+state)

	path, query := parseRedirect(t, w)
	assert.Equal(t, "/settings", path)
	assert.Equal(t, "shopee_error", query.Get("error"))
	assert.Contains(t, query.Get("error_message"), "please try again")

	// The expired state must not produce a connection.
	rows, err := f.db.Raw(
		"SELECT 1 FROM team_channels WHERE team_id = ? AND channel_id = ?",
		f.teamID, "shopee",
	).Rows()
	require.NoError(t, err)
	defer rows.Close()
	assert.False(t, rows.Next())

	// The cookie is cleared on the expired path as well.
	cookie := findCookie(w, "shopee_auth_state")
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestCallbackHandler_StateChannelMismatch(t *testing.T) {
	f := newHandlerFixture(t)
	state := seedState(t, f, "tiktok", "")

	w := f.do(t, "GET", "/callback/auth/shopee?code=authcode&shop_id=1&state="+state)

	_, query := parseRedirect(t, w)
	assert.Equal(t, "shopee_error", query.Get("error"))
	assert.Contains(t, query.Get("error_message"), "another channel")
}

func TestCallbackHandler_StateIsSingleUse(t *testing.T) {
	f := newHandlerFixture(t)
	state := seedState(t, f, "shopee", "")
	target := "/callback/auth/shopee?code=authcode&shop_id=226354&state=" + state

	w := f.do(t, "GET", target)
	_, query := parseRedirect(t, w)
	require.Equal(t, "shopee_connected", query.Get("success"))

	// A replay of the same callback must fail.
	w = f.do(t, "GET", target)
	_, query = parseRedirect(t, w)
	assert.Equal(t, "shopee_error", query.Get("error"))
}

func TestCallbackHandler_LogsStateFailuresDistinctly(t *testing.T) {
	f := newHandlerFixture(t)
	core, logs := observer.New(zap.WarnLevel)
	handler := NewCallbackHandler(f.callback.service, "/settings", zap.New(core))

	engine := gin.New()
	engine.GET("/callback/auth/:channel", handler.HandleCallback)
	do := func(target string) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", target, nil)
		engine.ServeHTTP(w, req)
	}

	// unknown state
	do("/callback/auth/shopee?code=authcode&shop_id=1&state=" + newToken(t))

	// expired state
	expired := seedStateWithTTL(t, f, "shopee", "", -time.Minute)
	do("/callback/auth/shopee?code=authcode&shop_id=1&state=" + expired)

	// state bound to another channel
	mismatched := seedState(t, f, "tiktok", "")
	do("/callback/auth/shopee?code=authcode&shop_id=1&state=" + mismatched)

	// ordinary provider error
	do("/callback/auth/shopee?error=access_denied")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Contains(t, entries[0].Message, "unknown or already-consumed state")
	assert.Contains(t, entries[1].Message, "expired state")
	assert.Contains(t, entries[2].Message, "state issued for another channel")
	assert.Equal(t, "oauth callback failed", entries[3].Message)

	for _, entry := range entries {
		fields := entry.ContextMap()
		assert.Equal(t, "shopee", fields["channel"])
		assert.NotEmpty(t, fields["client_ip"])
	}
}

func TestCallbackHandler_UnknownChannelRedirects(t *testing.T) {
	f := newHandlerFixture(t)

	// An unknown channel still redirects to settings, never a 500.
	w := f.do(t, "GET", "/callback/auth/amazon?code=x&state=y")

	path, query := parseRedirect(t, w)
	assert.Equal(t, "/settings", path)
	assert.Equal(t, "amazon_error", query.Get("error"))
}

func TestCallbackHandler_UnsupportedChannelRedirects(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, "GET", "/callback/auth/tokopedia?code=x&state=y")

	_, query := parseRedirect(t, w)
	assert.Equal(t, "tokopedia_error", query.Get("error"))
}
