package server

import (
	"net/http"
	"time"

	"github.com/Luismorlan/teamfeed/server/middlewares"
	Logger "github.com/Luismorlan/teamfeed/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The relay read path already exists to dodge cross-origin rules, the
	// websocket feed follows the same posture and leaves origin policy to
	// the deployment in front of us.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// streamedSnapshot is one websocket frame of the posts live query.
type streamedSnapshot struct {
	Posts interface{} `json:"posts,omitempty"`
	Error string      `json:"error,omitempty"`
}

// handlePostsStream upgrades to a websocket and forwards every company-feed
// snapshot until the client hangs up. Snapshot errors are forwarded as
// frames, not terminations, matching the subscription contract.
func (s *Server) handlePostsStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		Logger.Log.Warn("websocket upgrade failed: ", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	snapshots, err := s.feed.SubscribeCompanyPosts(ctx, middlewares.CompanyId(c))
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()),
			time.Now().Add(writeTimeout))
		return
	}

	// Drain client frames so pings and the close handshake are processed.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for snapshot := range snapshots {
		frame := streamedSnapshot{Posts: snapshot.Posts}
		if snapshot.Err != nil {
			frame = streamedSnapshot{Error: snapshot.Err.Error()}
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
}
