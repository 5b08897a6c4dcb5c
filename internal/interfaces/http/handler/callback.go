package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/onecube/backend/internal/application/channels"
	"github.com/onecube/backend/internal/domain/channel"
)

// CallbackHandler processes OAuth provider redirects. The provider calls it
// with the user's browser, so every outcome ends in a 302 back to the
// settings page rather than a JSON error.
type CallbackHandler struct {
	service     *channels.CallbackService
	settingsURL string
	logger      *zap.Logger
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(service *channels.CallbackService, settingsURL string, logger *zap.Logger) *CallbackHandler {
	if settingsURL == "" {
		settingsURL = "/settings"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallbackHandler{
		service:     service,
		settingsURL: settingsURL,
		logger:      logger,
	}
}

// HandleCallback handles GET /callback/auth/:channel
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	channelName := c.Param("channel")

	params := channel.CallbackParams{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	outcome := h.service.HandleCallback(c.Request.Context(), channelName, params)

	// The state cookie is cleared on both paths so a stale state can never
	// be replayed from the browser.
	h.clearStateCookie(c, outcome.ChannelName)

	if outcome.Success {
		h.redirect(c, url.Values{
			"success":         {outcome.Code},
			"success_message": {outcome.Message},
		})
		return
	}

	h.logFailure(c, outcome)
	h.redirect(c, url.Values{
		"error":         {outcome.Code},
		"error_message": {outcome.Message},
	})
}

// logFailure picks the log message by failure class. State failures get
// their own messages so rejected CSRF or replay attempts stand out from
// ordinary provider errors when scanning logs.
func (h *CallbackHandler) logFailure(c *gin.Context, outcome channels.CallbackOutcome) {
	fields := []zap.Field{
		zap.String("channel", outcome.ChannelName),
		zap.String("code", outcome.Code),
		zap.String("client_ip", c.ClientIP()),
		zap.Error(outcome.Err),
	}

	switch {
	case errors.Is(outcome.Err, channel.ErrStateNotFound):
		h.logger.Warn("oauth callback rejected: unknown or already-consumed state", fields...)
	case errors.Is(outcome.Err, channel.ErrStateExpired):
		h.logger.Warn("oauth callback rejected: expired state", fields...)
	case errors.Is(outcome.Err, channel.ErrStateChannelMismatch):
		h.logger.Warn("oauth callback rejected: state issued for another channel", fields...)
	default:
		h.logger.Warn("oauth callback failed", fields...)
	}
}

func (h *CallbackHandler) redirect(c *gin.Context, query url.Values) {
	c.Redirect(http.StatusFound, h.settingsURL+"?"+query.Encode())
}

func (h *CallbackHandler) clearStateCookie(c *gin.Context, channelName string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(channelName+"_auth_state", "", -1, "/", "", true, true)
}
