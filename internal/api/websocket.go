package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/linkedin-postgen/internal/agent/generator"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event types sent over /ws/generate
const (
	EventStage  = "stage"
	EventResult = "result"
	EventError  = "error"
)

// wsEvent is one message sent to the client
type wsEvent struct {
	Type  string         `json:"type"`
	Stage string         `json:"stage,omitempty"`
	Data  *postsResponse `json:"data,omitempty"`
	Error *APIError      `json:"error,omitempty"`
}

// generateWebSocket handles GET /ws/generate.
// The client sends one request object; the server streams stage events,
// then a result or error event, and closes the connection.
func (s *Server) generateWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	send := func(ev wsEvent) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(ev)
	}

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var in generateRequest
	if err := conn.ReadJSON(&in); err != nil {
		send(wsEvent{Type: EventError, Error: &APIError{Code: "INVALID_REQUEST", Message: "malformed request message", Details: err.Error()}})
		return
	}

	req, err := s.toGenerationRequest(in)
	if err != nil {
		_, apiErr := toAPIError(err)
		send(wsEvent{Type: EventError, Error: apiErr})
		return
	}

	// progress runs on this goroutine, so writes never overlap
	result, err := s.agent.Run(c.Request.Context(), req, func(stage generator.Stage) {
		if err := send(wsEvent{Type: EventStage, Stage: string(stage)}); err != nil {
			s.log.Debug().Err(err).Msg("Failed to send stage event")
		}
	})
	if err != nil {
		_, apiErr := toAPIError(err)
		send(wsEvent{Type: EventError, Error: apiErr})
		return
	}

	s.markIdeaUsed(c.Request.Context(), in.IdeaID)
	resp := newPostsResponse(result)
	send(wsEvent{Type: EventResult, Data: &resp})

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(wsWriteTimeout))
}
