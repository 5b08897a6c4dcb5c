package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/onecube/backend/internal/application/channels"
)

// ChannelHandler serves the channel catalog, connection management and
// OAuth connect initiation endpoints.
type ChannelHandler struct {
	BaseHandler
	connectService    *channels.ConnectService
	connectionService *channels.ConnectionService
	stateCookieTTL    int
	logger            *zap.Logger
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(
	connectService *channels.ConnectService,
	connectionService *channels.ConnectionService,
	logger *zap.Logger,
) *ChannelHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelHandler{
		connectService:    connectService,
		connectionService: connectionService,
		stateCookieTTL:    600,
		logger:            logger,
	}
}

// RegisterRoutes registers channel routes on the given group
func (h *ChannelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	chans := rg.Group("/channels")
	{
		chans.GET("", h.ListChannels)
		chans.GET("/connections", h.ListConnections)
		chans.POST("/:channel/connect", h.Connect)
		chans.DELETE("/:channel/connection", h.Disconnect)
	}
}

// AuthLinkResponse is the connect initiation response body
type AuthLinkResponse struct {
	AuthLink string `json:"auth_link"`
	State    string `json:"state"`
}

// ListChannels handles GET /api/v1/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	h.Success(c, h.connectionService.ListChannels(c.Request.Context()))
}

// ListConnections handles GET /api/v1/channels/connections
func (h *ChannelHandler) ListConnections(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	infos, err := h.connectionService.ListConnections(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, infos)
}

// Connect handles POST /api/v1/channels/:channel/connect.
// It returns the provider authorization URL for the UI to redirect to and
// mirrors the OAuth state into a per-channel cookie as a secondary CSRF check.
func (h *ChannelHandler) Connect(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	channelName := c.Param("channel")
	result, err := h.connectService.GenerateAuthLink(c.Request.Context(), channelName, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(channelName+"_auth_state", result.State, h.stateCookieTTL, "/", "", true, true)

	h.Success(c, AuthLinkResponse{
		AuthLink: result.AuthLink,
		State:    result.State,
	})
}

// Disconnect handles DELETE /api/v1/channels/:channel/connection.
// By default the connection row is kept with connected=false so credentials
// survive a reconnect; ?purge=true removes the row entirely.
func (h *ChannelHandler) Disconnect(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	channelName := c.Param("channel")
	purge := c.Query("purge") == "true"

	if err := h.connectionService.Disconnect(c.Request.Context(), userID, channelName, purge); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
