package v1

import (
	"context"

	"herbal-market-backend/internal/delivery/http/middleware"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"
)

// StreamFrame is pushed to websocket clients whenever a channel changes.
// Messages always carries the complete ordered list.
type StreamFrame struct {
	Type      string           `json:"type"`
	ChannelID string           `json:"channel_id"`
	Messages  []domain.Message `json:"messages"`
}

const streamFrameMessages = "channel.messages"

type StreamHandler struct {
	messageUC domain.MessageUsecase
}

func NewStreamHandler(members *gin.RouterGroup, messageUC domain.MessageUsecase) {
	handler := &StreamHandler{messageUC: messageUC}
	members.GET("/channels/:id/stream", handler.Stream)
}

// latest keeps only the newest list. Every list supersedes the previous one,
// so a slow client skips intermediate states instead of blocking the room.
type latest chan []domain.Message

func (l latest) offer(messages []domain.Message) {
	for {
		select {
		case l <- messages:
			return
		default:
		}
		select {
		case <-l:
		default:
		}
	}
}

// Stream godoc
// @Summary      Live message stream
// @Description  Upgrades to a websocket and pushes the full message list on every change, starting with the current list.
// @Tags         channels
// @Security     BearerAuth
// @Param        id   path  string  true  "Channel ID"
// @Success      101
// @Failure      403  {object}  response.Response
// @Router       /channels/{id}/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	channelID := c.Param("id")
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates := make(latest, 1)
	unsubscribe, err := h.messageUC.Subscribe(ctx, middleware.PrincipalFrom(c), channelID, updates.offer)
	if err != nil {
		c.Error(err)
		return
	}
	defer unsubscribe()

	websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()

		// Clients only listen; any read error means they went away
		go func() {
			var discard []byte
			for {
				if err := websocket.Message.Receive(conn, &discard); err != nil {
					cancel()
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case messages := <-updates:
				frame := StreamFrame{Type: streamFrameMessages, ChannelID: channelID, Messages: messages}
				if err := websocket.JSON.Send(conn, frame); err != nil {
					logger.Log.Debug("stream closed", "channel_id", channelID, "error", err)
					return
				}
			}
		}
	}).ServeHTTP(c.Writer, c.Request)
}
