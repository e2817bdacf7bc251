package v1

import (
	"net/http"

	"herbal-market-backend/internal/delivery/http/middleware"
	"herbal-market-backend/internal/delivery/http/response"
	"herbal-market-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type ChannelHandler struct {
	channelUC domain.ChannelUsecase
	messageUC domain.MessageUsecase
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required" example:"Is the Monstera still available for Saturday?"`
}

type ReadReceipt struct {
	Marked int64 `json:"marked"`
}

// NewChannelHandler registers channel and message routes. sendLimit guards
// message sends on top of the global limit.
func NewChannelHandler(members *gin.RouterGroup, channelUC domain.ChannelUsecase, messageUC domain.MessageUsecase, sendLimit gin.HandlerFunc) {
	handler := &ChannelHandler{channelUC: channelUC, messageUC: messageUC}

	members.POST("/orders/:id/channel", handler.ResolveForOrder)
	members.GET("/channels", handler.Inbox)
	members.GET("/channels/:id", handler.Get)
	members.GET("/channels/:id/messages", handler.History)
	members.POST("/channels/:id/messages", sendLimit, handler.Send)
	members.POST("/channels/:id/read", handler.MarkRead)
}

// ResolveForOrder godoc
// @Summary      Open the channel of an order
// @Description  The buyer opens the channel; the provider can use it once it exists.
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=domain.Channel}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /orders/{id}/channel [post]
func (h *ChannelHandler) ResolveForOrder(c *gin.Context) {
	channel, err := h.channelUC.ResolveForOrder(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Channel ready", channel)
}

// Inbox godoc
// @Summary      My channels, most recent first
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]domain.Channel}
// @Router       /channels [get]
func (h *ChannelHandler) Inbox(c *gin.Context) {
	channels, err := h.channelUC.ListInbox(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Channels retrieved", channels)
}

// Get godoc
// @Summary      Channel header
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Channel ID"
// @Success      200  {object}  response.Response{data=domain.Channel}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /channels/{id} [get]
func (h *ChannelHandler) Get(c *gin.Context) {
	channel, err := h.channelUC.Get(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Channel retrieved", channel)
}

// History godoc
// @Summary      Channel messages in send order
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Channel ID"
// @Success      200  {object}  response.Response{data=[]domain.Message}
// @Failure      403  {object}  response.Response
// @Router       /channels/{id}/messages [get]
func (h *ChannelHandler) History(c *gin.Context) {
	messages, err := h.messageUC.History(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Messages retrieved", messages)
}

// Send godoc
// @Summary      Send a message
// @Tags         channels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string              true  "Channel ID"
// @Param        request  body  SendMessageRequest  true  "Message"
// @Success      201  {object}  response.Response{data=domain.Message}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /channels/{id}/messages [post]
func (h *ChannelHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	msg, err := h.messageUC.Send(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), req.Body)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Message sent", msg)
}

// MarkRead godoc
// @Summary      Mark the counterpart's messages as read
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Channel ID"
// @Success      200  {object}  response.Response{data=ReadReceipt}
// @Failure      403  {object}  response.Response
// @Router       /channels/{id}/read [post]
func (h *ChannelHandler) MarkRead(c *gin.Context) {
	n, err := h.messageUC.MarkRead(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Messages marked as read", ReadReceipt{Marked: n})
}
