package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"SupportChat/middleware"
	svc "SupportChat/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	EventMessage         = "message"
	EventMessageResponse = "message_response"
	EventError           = "error"
	EventPing            = "ping"
	EventPong            = "pong"

	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

// Envelope is the JSON frame exchanged on the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type wsError struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
}

// socket serializes writes; gorilla allows one concurrent writer.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *socket) send(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := s.conn.WriteJSON(gin.H{"event": event, "data": data}); err != nil {
		log.Printf("[ws] write %s error: %v", event, err)
	}
}

// ChatWS relays widget messages to the assistant.
// Client protocol (JSON envelopes):
//
//	-> {event: "message", data: {conversationId, sessionId, email, message, geminiApiKey?}}
//	<- {event: "message_response", data: {conversationId, message}}
//	<- {event: "error", data: {conversationId?, message}}
//	-> {event: "ping"}  <- {event: "pong"}
func ChatWS(relay *svc.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ip := middleware.ClientIP(c)
		sock := &socket{conn: conn}

		conn.SetReadLimit(1 << 20) // 1MB
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})

		ctx, cancel := context.WithCancel(c.Request.Context())
		var wg sync.WaitGroup
		defer func() {
			cancel()
			wg.Wait()
		}()

		go keepAlive(ctx, conn)

		for {
			mt, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("[ws] read error: %v", err)
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
			if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
				continue
			}

			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				sock.send(EventError, wsError{Message: "invalid frame"})
				continue
			}

			switch strings.ToLower(strings.TrimSpace(env.Event)) {
			case EventPing:
				sock.send(EventPong, gin.H{"ts": time.Now().UnixMilli()})
			case EventMessage:
				var req svc.RelayRequest
				if err := json.Unmarshal(env.Data, &req); err != nil || strings.TrimSpace(req.Message) == "" {
					sock.send(EventError, wsError{ConversationID: req.ConversationID, Message: "invalid message payload"})
					continue
				}
				key := middleware.SessionKey(req.SessionID, ip)
				if !middleware.Allow(middleware.ScopedKey(middleware.ScopeRelay, key)) {
					sock.send(EventError, wsError{ConversationID: req.ConversationID, Message: "too many requests"})
					continue
				}
				if !middleware.DuplicateGuard(key+"|"+req.ConversationID, req.Message) {
					sock.send(EventError, wsError{ConversationID: req.ConversationID, Message: "duplicate message"})
					continue
				}

				wg.Add(1)
				go func(req svc.RelayRequest) {
					defer wg.Done()
					release, err := middleware.AcquireSessionSlot(ctx, key)
					if err != nil {
						return
					}
					defer release()
					reply := relay.Handle(ctx, req)
					if ctx.Err() != nil {
						return
					}
					sock.send(EventMessageResponse, reply)
				}(req)
			default:
				sock.send(EventError, wsError{Message: "unknown event " + env.Event})
			}
		}
	}
}

func keepAlive(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(wsPingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// WriteControl may run concurrently with other writes
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
