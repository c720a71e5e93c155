package user

import (
	"errors"
	"net/http"

	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleContestWs streams the events of one contest until the client leaves.
// Recent events are replayed on connect.
func (h *Handler) handleContestWs(c *gin.Context) {
	contestID := c.Param("id")
	if _, err := database.GetContest(h.db.WithContext(c.Request.Context()), contestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.String(http.StatusNotFound, "contest not found")
			return
		}
		c.String(http.StatusInternalServerError, "database error")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.S().Errorf("failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	msgChan, unsubscribe := h.broker.Subscribe(pubsub.ContestTopic(contestID))
	defer unsubscribe()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					zap.S().Infof("websocket unexpected close error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				conn.WriteMessage(websocket.TextMessage, pubsub.FormatMessage("info", "Stream closed."))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				zap.S().Warnf("error writing to websocket: %v", err)
				return
			}
		case <-clientClosed:
			zap.S().Debugf("websocket connection closed for contest %s", contestID)
			return
		}
	}
}
